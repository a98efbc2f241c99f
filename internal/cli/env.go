package cli

import (
	"context"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/reelscribe/reelscribe/internal/config"
	"github.com/reelscribe/reelscribe/internal/decode"
	"github.com/reelscribe/reelscribe/internal/reel"
	"github.com/reelscribe/reelscribe/internal/transcribe"
)

// Environment variable names.
const (
	// EnvOpenAIAPIKey holds the API key for the direct OpenAI backend.
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Provider identifiers for --provider.
const (
	ProviderRelay  = "relay"
	ProviderOpenAI = "openai"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stderr io.Writer
	Getenv func(string) string

	// Factories for domain objects
	ConfigLoader   ConfigLoader
	FFmpegLocator  FFmpegLocator
	ReelFactory    ReelFactory
	BackendFactory BackendFactory
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// FFmpegLocator finds the ffmpeg binary used for video decoding.
type FFmpegLocator interface {
	Locate() (string, error)
}

// ReelResolver resolves a reel URL and downloads its media.
type ReelResolver interface {
	Resolve(ctx context.Context, reelURL string) (string, error)
	Download(ctx context.Context, mediaURL string) ([]byte, string, error)
}

// ReelFactory creates reel resolvers bound to a resolver endpoint.
type ReelFactory interface {
	NewResolver(endpoint string) ReelResolver
}

// BackendFactory creates transcription backends.
type BackendFactory interface {
	NewRelay(endpoint string) transcribe.Submitter
	NewOpenAI(apiKey string) transcribe.Submitter
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithFFmpegLocator sets the ffmpeg locator.
func WithFFmpegLocator(l FFmpegLocator) EnvOption {
	return func(e *Env) {
		e.FFmpegLocator = l
	}
}

// WithReelFactory sets the reel resolver factory.
func WithReelFactory(f ReelFactory) EnvOption {
	return func(e *Env) {
		e.ReelFactory = f
	}
}

// WithBackendFactory sets the transcription backend factory.
func WithBackendFactory(f BackendFactory) EnvOption {
	return func(e *Env) {
		e.BackendFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stderr:         os.Stderr,
		Getenv:         os.Getenv,
		ConfigLoader:   &defaultConfigLoader{},
		FFmpegLocator:  &defaultFFmpegLocator{},
		ReelFactory:    &defaultReelFactory{},
		BackendFactory: &defaultBackendFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultFFmpegLocator implements FFmpegLocator using the decode package.
type defaultFFmpegLocator struct{}

func (defaultFFmpegLocator) Locate() (string, error) {
	return decode.ResolveFFmpeg()
}

// defaultReelFactory implements ReelFactory using the reel package.
type defaultReelFactory struct{}

func (defaultReelFactory) NewResolver(endpoint string) ReelResolver {
	return reel.NewClient(endpoint)
}

// defaultBackendFactory implements BackendFactory over both transports.
type defaultBackendFactory struct{}

func (defaultBackendFactory) NewRelay(endpoint string) transcribe.Submitter {
	return transcribe.NewRelayClient(endpoint)
}

func (defaultBackendFactory) NewOpenAI(apiKey string) transcribe.Submitter {
	return transcribe.NewOpenAIClient(openai.NewClient(apiKey))
}

// Compile-time interface verification.
var (
	_ ConfigLoader   = (*defaultConfigLoader)(nil)
	_ FFmpegLocator  = (*defaultFFmpegLocator)(nil)
	_ ReelFactory    = (*defaultReelFactory)(nil)
	_ BackendFactory = (*defaultBackendFactory)(nil)
	_ ReelResolver   = (*reel.Client)(nil)
)
