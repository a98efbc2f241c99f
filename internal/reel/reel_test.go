package reel_test

// Coverage Notes:
// - Resolver and download paths use a mock HTTP doer; no network.
// - URL recognition is covered by table, including share-path variants.

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/reelscribe/reelscribe/internal/reel"
)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

type mockDoer struct {
	gotURL string
	fn     func(req *http.Request) (*http.Response, error)
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	m.gotURL = req.URL.String()
	return m.fn(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// ---------------------------------------------------------------------------
// TestIsReelURL
// ---------------------------------------------------------------------------

func TestIsReelURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"canonical reel link", "https://www.instagram.com/reel/DAbCdEfGhIj/", true},
		{"reels plural path", "https://instagram.com/reels/DAbCdEfGhIj/", true},
		{"user-scoped reel path", "https://www.instagram.com/someone/reel/DAbCdEfGhIj/", true},
		{"bare host without scheme", "instagram.com/reel/DAbCdEfGhIj", false},
		{"profile page", "https://www.instagram.com/someone/", false},
		{"other host", "https://example.com/reel/DAbCdEfGhIj/", false},
		{"local file path", "/home/user/talk.mp4", false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := reel.IsReelURL(tt.url); got != tt.want {
				t.Errorf("IsReelURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestClient_Resolve
// ---------------------------------------------------------------------------

func TestClient_Resolve(t *testing.T) {
	t.Parallel()

	const reelURL = "https://www.instagram.com/reel/DAbCdEfGhIj/"

	t.Run("returns the direct media url", func(t *testing.T) {
		t.Parallel()

		doer := &mockDoer{fn: func(*http.Request) (*http.Response, error) {
			return response(http.StatusOK, `{"media_url":"https://cdn.example/v/clip.mp4"}`), nil
		}}
		client := reel.NewClient("https://resolver.example/resolve", reel.WithHTTPClient(doer))

		got, err := client.Resolve(context.Background(), reelURL)
		if err != nil {
			t.Fatalf("Resolve() unexpected error: %v", err)
		}
		if got != "https://cdn.example/v/clip.mp4" {
			t.Errorf("Resolve() = %q", got)
		}
		if !strings.Contains(doer.gotURL, "url=") {
			t.Errorf("resolver request %q missing url query parameter", doer.gotURL)
		}
	})

	t.Run("rejects non-reel input before any network call", func(t *testing.T) {
		t.Parallel()

		doer := &mockDoer{fn: func(*http.Request) (*http.Response, error) {
			t.Fatal("unexpected network call")
			return nil, nil
		}}
		client := reel.NewClient("https://resolver.example/resolve", reel.WithHTTPClient(doer))

		_, err := client.Resolve(context.Background(), "https://example.com/watch?v=1")
		if !errors.Is(err, reel.ErrNotReelURL) {
			t.Errorf("Resolve() error = %v, want ErrNotReelURL", err)
		}
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		t.Parallel()

		doer := &mockDoer{fn: func(*http.Request) (*http.Response, error) {
			return response(http.StatusNotFound, `{"error":"gone"}`), nil
		}}
		client := reel.NewClient("https://resolver.example/resolve", reel.WithHTTPClient(doer))

		_, err := client.Resolve(context.Background(), reelURL)
		if !errors.Is(err, reel.ErrNotFound) {
			t.Errorf("Resolve() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("429 maps to rate limited", func(t *testing.T) {
		t.Parallel()

		doer := &mockDoer{fn: func(*http.Request) (*http.Response, error) {
			return response(http.StatusTooManyRequests, ""), nil
		}}
		client := reel.NewClient("https://resolver.example/resolve", reel.WithHTTPClient(doer))

		_, err := client.Resolve(context.Background(), reelURL)
		if !errors.Is(err, reel.ErrRateLimited) {
			t.Errorf("Resolve() error = %v, want ErrRateLimited", err)
		}
	})

	t.Run("empty media url maps to not found", func(t *testing.T) {
		t.Parallel()

		doer := &mockDoer{fn: func(*http.Request) (*http.Response, error) {
			return response(http.StatusOK, `{"media_url":""}`), nil
		}}
		client := reel.NewClient("https://resolver.example/resolve", reel.WithHTTPClient(doer))

		_, err := client.Resolve(context.Background(), reelURL)
		if !errors.Is(err, reel.ErrNotFound) {
			t.Errorf("Resolve() error = %v, want ErrNotFound", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestClient_Download
// ---------------------------------------------------------------------------

func TestClient_Download(t *testing.T) {
	t.Parallel()

	t.Run("returns media bytes and a routed filename", func(t *testing.T) {
		t.Parallel()

		doer := &mockDoer{fn: func(*http.Request) (*http.Response, error) {
			return response(http.StatusOK, "fake video bytes"), nil
		}}
		client := reel.NewClient("https://resolver.example/resolve", reel.WithHTTPClient(doer))

		data, name, err := client.Download(context.Background(), "https://cdn.example/v/clip.mp4?sig=abc")
		if err != nil {
			t.Fatalf("Download() unexpected error: %v", err)
		}
		if string(data) != "fake video bytes" {
			t.Errorf("Download() data = %q", data)
		}
		if name != "clip.mp4" {
			t.Errorf("Download() name = %q, want clip.mp4", name)
		}
	})

	t.Run("extensionless media defaults to mp4", func(t *testing.T) {
		t.Parallel()

		doer := &mockDoer{fn: func(*http.Request) (*http.Response, error) {
			return response(http.StatusOK, "x"), nil
		}}
		client := reel.NewClient("https://resolver.example/resolve", reel.WithHTTPClient(doer))

		_, name, err := client.Download(context.Background(), "https://cdn.example/v/abc123")
		if err != nil {
			t.Fatalf("Download() unexpected error: %v", err)
		}
		if name != "abc123.mp4" {
			t.Errorf("Download() name = %q, want abc123.mp4", name)
		}
	})

	t.Run("non-200 fails", func(t *testing.T) {
		t.Parallel()

		doer := &mockDoer{fn: func(*http.Request) (*http.Response, error) {
			return response(http.StatusForbidden, "expired signature"), nil
		}}
		client := reel.NewClient("https://resolver.example/resolve", reel.WithHTTPClient(doer))

		if _, _, err := client.Download(context.Background(), "https://cdn.example/v/clip.mp4"); err == nil {
			t.Error("Download() expected error, got nil")
		}
	})
}
