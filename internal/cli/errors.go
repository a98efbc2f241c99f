package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates OPENAI_API_KEY environment variable is not set.
	ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

	// ErrRelayURLMissing indicates no transcription relay endpoint is configured.
	ErrRelayURLMissing = errors.New("relay URL not configured")

	// ErrResolverURLMissing indicates no reel resolver endpoint is configured.
	ErrResolverURLMissing = errors.New("resolver URL not configured")

	// ErrUnsupportedProvider indicates an unknown --provider value.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrUnsupportedCodec indicates an unknown --codec value.
	ErrUnsupportedCodec = errors.New("unsupported segment codec")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")
)
