// Package reel resolves Instagram reel URLs to direct media URLs through a
// resolver service and downloads the referenced media.
package reel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// Sentinel errors for reel resolution.
var (
	// ErrNotReelURL indicates the input does not look like an Instagram
	// reel link at all.
	ErrNotReelURL = errors.New("not an instagram reel url")

	// ErrNotFound indicates the resolver could not locate media for the
	// reel (deleted, private, or malformed).
	ErrNotFound = errors.New("reel not found")

	// ErrRateLimited indicates the resolver refused the request because of
	// upstream rate limiting. Retry later.
	ErrRateLimited = errors.New("reel resolver rate limited")
)

// defaultTimeout bounds one resolver round trip or media download.
const defaultTimeout = 2 * time.Minute

// maxMediaBytes caps a media download. Reels are short-form video; anything
// past this is not a reel.
const maxMediaBytes = 512 << 20

// httpDoer abstracts HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// IsReelURL reports whether s looks like an Instagram reel link.
func IsReelURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "instagram.com" {
		return false
	}
	p := u.EscapedPath()
	return strings.Contains(p, "/reel/") || strings.Contains(p, "/reels/")
}

// Client talks to the reel-resolution service.
type Client struct {
	endpoint string
	http     httpDoer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(c httpDoer) ClientOption {
	return func(r *Client) {
		r.http = c
	}
}

// NewClient creates a Client against the given resolver endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolveResponse is the resolver's success payload.
type resolveResponse struct {
	MediaURL string `json:"media_url"`
}

// Resolve turns a reel URL into a direct media URL.
func (c *Client) Resolve(ctx context.Context, reelURL string) (string, error) {
	if !IsReelURL(reelURL) {
		return "", fmt.Errorf("%q: %w", reelURL, ErrNotReelURL)
	}

	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid resolver endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("url", reelURL)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolver request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read resolver response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to parsing.
	case http.StatusNotFound, http.StatusGone:
		return "", fmt.Errorf("%s: %w", reelURL, ErrNotFound)
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("%s: %w", reelURL, ErrRateLimited)
	default:
		return "", fmt.Errorf("resolver HTTP %d: %s", resp.StatusCode, string(body))
	}

	var parsed resolveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("malformed resolver response: %w", err)
	}
	if parsed.MediaURL == "" {
		return "", fmt.Errorf("resolver returned no media url: %w", ErrNotFound)
	}
	return parsed.MediaURL, nil
}

// Download fetches the media behind a direct URL. It returns the raw bytes
// and a filename derived from the URL path, suitable for format routing.
func (c *Client) Download(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media download HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media: %w", err)
	}
	if len(data) > maxMediaBytes {
		return nil, "", fmt.Errorf("media exceeds %d bytes", maxMediaBytes)
	}

	return data, mediaName(mediaURL), nil
}

// mediaName derives a filename from the media URL, defaulting the extension
// to .mp4 when the path carries none. Reels are always MP4 video.
func mediaName(mediaURL string) string {
	name := "reel.mp4"
	if u, err := url.Parse(mediaURL); err == nil {
		if base := path.Base(u.EscapedPath()); base != "" && base != "." && base != "/" {
			name = base
		}
	}
	if path.Ext(name) == "" {
		name += ".mp4"
	}
	return name
}
