package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/reelscribe/reelscribe/internal/apierr"
	"github.com/reelscribe/reelscribe/internal/encode"
)

// defaultRelayTimeout bounds a single relay round trip. Large segments over
// slow links can take minutes to upload and transcribe.
const defaultRelayTimeout = 5 * time.Minute

// Relay error categories. The relay reports provider failures as structured
// JSON so clients do not have to re-parse provider-specific bodies.
const (
	categoryTooLarge    = "request_too_large"
	categoryMalformed   = "malformed_input"
	categoryRateLimited = "rate_limited"
	categoryUpstream    = "upstream_error"
)

// RelayClient submits segments to the transcription relay as multipart
// form uploads. The relay forwards bytes to the external provider and maps
// provider errors to structured categories.
type RelayClient struct {
	endpoint string
	client   httpDoer
}

// RelayOption configures a RelayClient.
type RelayOption func(*RelayClient)

// WithRelayHTTPClient sets a custom HTTP client (for testing).
func WithRelayHTTPClient(c httpDoer) RelayOption {
	return func(r *RelayClient) {
		r.client = c
	}
}

// NewRelayClient creates a RelayClient posting to the given endpoint URL.
func NewRelayClient(endpoint string, opts ...RelayOption) *RelayClient {
	r := &RelayClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultRelayTimeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit uploads one segment and returns the transcribed text.
func (r *RelayClient) Submit(ctx context.Context, seg encode.Segment, opts Options) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// CreateFormFile would force application/octet-stream; the relay needs
	// the real container MIME to pick the provider upload type.
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, seg.Name))
	header.Set("Content-Type", seg.MIME)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(seg.Data); err != nil {
		return "", fmt.Errorf("failed to write segment data: %w", err)
	}

	if opts.Language != "" {
		if err := writer.WriteField("language", opts.Language); err != nil {
			return "", fmt.Errorf("failed to write language field: %w", err)
		}
	}
	if opts.Prompt != "" {
		if err := writer.WriteField("prompt", opts.Prompt); err != nil {
			return "", fmt.Errorf("failed to write prompt field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// Network-level failures are transient from the caller's view.
		return "", fmt.Errorf("relay request failed: %v: %w", err, apierr.ErrUpstream)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", parseRelayError(resp.StatusCode, respBody)
	}

	var parsed relayResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("malformed relay response: %w", apierr.ErrUpstream)
	}
	return parsed.Text, nil
}

// relayResponse is the relay's success payload.
type relayResponse struct {
	Text string `json:"text"`
}

// relayErrorResponse is the relay's structured error payload.
type relayErrorResponse struct {
	Error struct {
		Category string `json:"category"`
		Message  string `json:"message"`
	} `json:"error"`
}

// parseRelayError maps a relay error response to the apierr sentinels.
// The structured category wins when present; otherwise the HTTP status
// decides.
func parseRelayError(statusCode int, body []byte) error {
	var errResp relayErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return statusError(statusCode, string(body))
	}

	msg := errResp.Error.Message
	if msg == "" {
		msg = string(body)
	}

	switch errResp.Error.Category {
	case categoryTooLarge:
		return fmt.Errorf("%s: %w", msg, apierr.ErrRequestTooLarge)
	case categoryMalformed:
		return fmt.Errorf("%s: %w", msg, apierr.ErrBadRequest)
	case categoryRateLimited:
		return fmt.Errorf("%s: %w", msg, apierr.ErrRateLimit)
	case categoryUpstream:
		return fmt.Errorf("%s: %w", msg, apierr.ErrUpstream)
	}
	return statusError(statusCode, msg)
}

// statusError classifies a relay error by HTTP status when no usable
// category was sent.
func statusError(statusCode int, msg string) error {
	switch statusCode {
	case http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%s: %w", msg, apierr.ErrRequestTooLarge)
	case http.StatusTooManyRequests:
		// Distinguish between temporary rate limit and quota exceeded
		// (billing issue). Quota exceeded requires user action, no retry.
		if strings.Contains(msg, "quota") || strings.Contains(msg, "billing") {
			return fmt.Errorf("%s: %w", msg, apierr.ErrQuotaExceeded)
		}
		return fmt.Errorf("%s: %w", msg, apierr.ErrRateLimit)
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", msg, apierr.ErrAuthFailed)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", msg, apierr.ErrTimeout)
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, apierr.ErrBadRequest)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%s: %w", msg, apierr.ErrUpstream)
	default:
		return fmt.Errorf("relay HTTP %d: %s", statusCode, msg)
	}
}
