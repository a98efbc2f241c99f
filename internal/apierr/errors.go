// Package apierr provides shared error sentinels and retry infrastructure
// for HTTP-based API clients. All provider-specific error types are
// classified into these sentinels at the adapter boundary.
//
// Providers map HTTP status codes to these errors using fmt.Errorf("%s: %w", msg, sentinel).
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import "errors"

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates the provider rejected the request as malformed
	// (invalid parameters, or audio the provider cannot parse). Not retryable.
	ErrBadRequest = errors.New("bad request")

	// ErrRequestTooLarge indicates a submission exceeded the provider's size
	// ceiling. The ceiling is enforced client-side before submission, so this
	// surfacing from the wire means the planner produced an oversize chunk.
	ErrRequestTooLarge = errors.New("request entity too large")

	// ErrUpstream indicates a 5xx from the provider or relay (retryable).
	ErrUpstream = errors.New("upstream service error")

	// ErrEmptyResponse indicates the provider returned no usable text for a
	// segment (retryable: often a transient provider hiccup, not true silence).
	ErrEmptyResponse = errors.New("empty response")
)

// Retryable reports whether err is a transient failure worth retrying:
// rate limits, timeouts, upstream 5xx, and empty response bodies.
// Everything else (auth, quota, malformed input, oversize) is fatal.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUpstream) ||
		errors.Is(err, ErrEmptyResponse)
}
