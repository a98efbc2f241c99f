package cli

// Shared test doubles for CLI command tests.

import (
	"context"
	"fmt"

	"github.com/reelscribe/reelscribe/internal/apierr"
	"github.com/reelscribe/reelscribe/internal/config"
	"github.com/reelscribe/reelscribe/internal/encode"
	"github.com/reelscribe/reelscribe/internal/transcribe"
)

// staticEnv returns a Getenv function backed by a fixed map.
func staticEnv(vars map[string]string) func(string) string {
	return func(key string) string {
		return vars[key]
	}
}

// mockConfigLoader returns a fixed config.
type mockConfigLoader struct {
	cfg config.Config
	err error
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	return m.cfg, m.err
}

// mockFFmpegLocator returns a fixed path or error.
type mockFFmpegLocator struct {
	path string
	err  error
}

func (m *mockFFmpegLocator) Locate() (string, error) {
	return m.path, m.err
}

// mockReelResolver scripts the resolve/download round trip.
type mockReelResolver struct {
	mediaURL   string
	resolveErr error
	data       []byte
	name       string
}

func (m *mockReelResolver) Resolve(context.Context, string) (string, error) {
	return m.mediaURL, m.resolveErr
}

func (m *mockReelResolver) Download(context.Context, string) ([]byte, string, error) {
	return m.data, m.name, nil
}

// mockReelFactory hands out a canned resolver and records the endpoint.
type mockReelFactory struct {
	gotEndpoint string
	resolver    ReelResolver
}

func (m *mockReelFactory) NewResolver(endpoint string) ReelResolver {
	m.gotEndpoint = endpoint
	return m.resolver
}

// echoSubmitter returns fixed text for every segment.
type echoSubmitter struct {
	text  string
	err   error
	calls int
}

func (e *echoSubmitter) Submit(context.Context, encode.Segment, transcribe.Options) (string, error) {
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

// mockBackendFactory records which backend was requested.
type mockBackendFactory struct {
	backend     transcribe.Submitter
	gotEndpoint string
	gotAPIKey   string
}

func (m *mockBackendFactory) NewRelay(endpoint string) transcribe.Submitter {
	m.gotEndpoint = endpoint
	return m.backend
}

func (m *mockBackendFactory) NewOpenAI(apiKey string) transcribe.Submitter {
	m.gotAPIKey = apiKey
	return m.backend
}

// fatalSubmitter always fails with a non-retryable provider error.
type fatalSubmitter struct{}

func (fatalSubmitter) Submit(context.Context, encode.Segment, transcribe.Options) (string, error) {
	return "", fmt.Errorf("cannot decode container: %w", apierr.ErrBadRequest)
}
