package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/reelscribe/reelscribe/internal/apierr"
	"github.com/reelscribe/reelscribe/internal/encode"
	"github.com/reelscribe/reelscribe/internal/lang"
)

// ModelGPT4oMiniTranscribe is the cost-effective transcription model.
const ModelGPT4oMiniTranscribe = "gpt-4o-mini-transcribe"

// audioTranscriber is an internal interface for OpenAI audio transcription.
// *openai.Client implements this implicitly. This allows injecting mocks
// in tests.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

var _ audioTranscriber = (*openai.Client)(nil)

// OpenAIClient submits segments directly to the OpenAI transcription API,
// bypassing the relay. Useful for self-hosted runs where no relay sits
// between the tool and the provider.
type OpenAIClient struct {
	client audioTranscriber
	model  string
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithModel overrides the transcription model.
func WithModel(model string) OpenAIOption {
	return func(c *OpenAIClient) {
		if model != "" {
			c.model = model
		}
	}
}

// NewOpenAIClient creates an OpenAIClient backed by the given API client.
func NewOpenAIClient(client *openai.Client, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		client: client,
		model:  ModelGPT4oMiniTranscribe,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit transcribes one segment via the OpenAI API. Segments are submitted
// from memory; nothing is staged to disk.
func (c *OpenAIClient) Submit(ctx context.Context, seg encode.Segment, opts Options) (string, error) {
	req := openai.AudioRequest{
		Model:    c.model,
		Reader:   bytes.NewReader(seg.Data),
		FilePath: seg.Name, // names the upload; the extension selects the decoder
		Format:   openai.AudioResponseFormatJSON,
		Prompt:   opts.Prompt,
		Language: lang.BaseCode(opts.Language), // OpenAI only accepts ISO 639-1 base codes
	}

	resp, err := c.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	return resp.Text, nil
}

// classifyOpenAIError maps OpenAI API errors to the apierr sentinels.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			// Distinguish between temporary rate limit and quota exceeded
			// (billing issue). Quota exceeded should not be retried - it
			// requires user action.
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestEntityTooLarge:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRequestTooLarge)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrBadRequest)
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrUpstream)
		}
	}

	// Check for context timeout/deadline exceeded.
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}
