// Package transcribe submits encoded audio segments to a speech-to-text
// backend and collects the resulting transcript pieces.
//
// Two backends are provided: RelayClient posts segments to the backend relay
// (a thin pass-through to the external provider), and OpenAIClient talks to
// the OpenAI transcription API directly. Both classify failures into the
// apierr sentinels so Service can decide what to retry.
package transcribe

import (
	"context"
	"net/http"

	"github.com/reelscribe/reelscribe/internal/encode"
)

// Options configures a single submission.
type Options struct {
	// Prompt provides context to improve transcription accuracy.
	// Useful for domain-specific vocabulary, acronyms, or expected content.
	Prompt string

	// Language is the normalized audio language code.
	// Empty means auto-detect (recommended for most use cases).
	Language string
}

// Submitter sends one encoded segment to a speech-to-text backend and
// returns the raw transcribed text. Implementations classify failures into
// the apierr sentinels; they do not retry.
type Submitter interface {
	Submit(ctx context.Context, seg encode.Segment, opts Options) (string, error)
}

// httpDoer abstracts HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance checks.
var (
	_ Submitter = (*RelayClient)(nil)
	_ Submitter = (*OpenAIClient)(nil)
)
