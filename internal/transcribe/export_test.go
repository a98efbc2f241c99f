package transcribe

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// NewTestOpenAIClient creates an OpenAIClient with a mock transcription
// backend. This allows testing without a real OpenAI client.
func NewTestOpenAIClient(client audioTranscriber, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		client: client,
		model:  ModelGPT4oMiniTranscribe,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Function exports for unit testing internal logic.
var (
	ClassifyOpenAIError = classifyOpenAIError
	ParseRelayError     = parseRelayError
)
