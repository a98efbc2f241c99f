package cli

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reelscribe/reelscribe/internal/audio"
	"github.com/reelscribe/reelscribe/internal/config"
	"github.com/reelscribe/reelscribe/internal/decode"
	"github.com/reelscribe/reelscribe/internal/encode"
	"github.com/reelscribe/reelscribe/internal/format"
	"github.com/reelscribe/reelscribe/internal/lang"
	"github.com/reelscribe/reelscribe/internal/pipeline"
	"github.com/reelscribe/reelscribe/internal/reel"
	"github.com/reelscribe/reelscribe/internal/transcribe"
)

// transcribeOpts carries the resolved flag values for one run.
type transcribeOpts struct {
	output     string
	language   string
	prompt     string
	provider   string
	relayURL   string
	codec      string
	parallel   int
	maxChunkMB int
}

// clampParallel constrains parallel request count to [1, MaxRecommendedParallel].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > transcribe.MaxRecommendedParallel {
		return transcribe.MaxRecommendedParallel
	}
	return n
}

// deriveOutputPath converts an input name to a transcript output path.
// Example: "session.mp4" -> "session.txt"; a reel URL uses the reel id.
func deriveOutputPath(input string, isReel bool) string {
	if isReel {
		name := "reel"
		if u, err := url.Parse(input); err == nil {
			if base := path.Base(strings.TrimSuffix(u.EscapedPath(), "/")); base != "" && base != "." {
				name = base
			}
		}
		return name + ".txt"
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(filepath.Base(input), ext) + ".txt"
}

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var opts transcribeOpts

	cmd := &cobra.Command{
		Use:   "transcribe <file|reel-url>",
		Short: "Transcribe a media file or Instagram reel",
		Long: `Transcribe an audio file, a video file, or an Instagram reel URL.

The audio is decoded to mono PCM, split into size-compliant chunks at natural
silence points, submitted chunk by chunk, and stitched into one transcript.

Submission goes through the configured relay by default, or directly to
OpenAI with --provider openai.

Supported formats: ` + pipeline.SupportedFormatsList(),
		Example: `  reelscribe transcribe interview.mp3 -o interview.txt
  reelscribe transcribe lecture.mp4 -l en
  reelscribe transcribe https://www.instagram.com/reel/DAbCdEfGhIj/
  reelscribe transcribe podcast.wav --codec mp3 --parallel 4
  reelscribe transcribe clip.webm --provider openai`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, env, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path (default: <input>.txt)")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Audio language (ISO 639-1 code, e.g., en, fr, pt-BR)")
	cmd.Flags().StringVar(&opts.prompt, "prompt", "", "Context prompt to improve accuracy")
	cmd.Flags().StringVar(&opts.provider, "provider", ProviderRelay, "Transcription backend: relay, openai")
	cmd.Flags().StringVar(&opts.relayURL, "relay", "", "Relay endpoint URL (default: config relay-url)")
	cmd.Flags().StringVar(&opts.codec, "codec", "wav", "Segment codec: wav, mp3")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 1, "Max concurrent submissions (1-10)")
	cmd.Flags().IntVar(&opts.maxChunkMB, "max-chunk-mb", 0, "Per-chunk size ceiling in MB (default: 20)")

	return cmd
}

// runTranscribe executes the transcription pipeline.
// Validation order: input -> format -> output -> language -> codec ->
// provider -> parallel -> endpoints/keys.
func runTranscribe(cmd *cobra.Command, env *Env, input string, opts transcribeOpts) error {
	ctx := cmd.Context()

	// === VALIDATION (fail-fast) ===

	// 1. Input is a reel URL or an existing file.
	isReel := reel.IsReelURL(input)
	if !isReel {
		if _, err := os.Stat(input); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ErrFileNotFound, input)
			}
			return fmt.Errorf("cannot access input file: %w", err)
		}

		// 2. Format supported.
		if !pipeline.SupportedFormat(input) {
			return fmt.Errorf("unsupported format %q (supported: %s): %w",
				filepath.Ext(input), pipeline.SupportedFormatsList(), pipeline.ErrUnsupportedFormat)
		}
	}

	// 3. Load config for endpoints and output-dir.
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}

	// 4. Output path (resolve with output-dir, derive default from input).
	output := config.ResolveOutputPath(opts.output, cfg.OutputDir, deriveOutputPath(input, isReel))

	// 5. Language validation.
	if err := lang.Validate(opts.language); err != nil {
		return err
	}
	language := lang.Normalize(opts.language)

	// 6. Segment codec.
	var encoder encode.Encoder
	switch opts.codec {
	case "wav":
		encoder = encode.NewWAVEncoder()
	case "mp3":
		encoder = encode.NewMP3Encoder()
	default:
		return fmt.Errorf("%w: %q (valid: wav, mp3)", ErrUnsupportedCodec, opts.codec)
	}

	// 7. Provider validation.
	if opts.provider != ProviderRelay && opts.provider != ProviderOpenAI {
		return fmt.Errorf("%w: %q (valid: %s, %s)", ErrUnsupportedProvider, opts.provider, ProviderRelay, ProviderOpenAI)
	}

	// 8. Parallel bounds (clamp to 1-10).
	parallel := clampParallel(opts.parallel)

	// 9. Chunk ceiling.
	maxChunkBytes := int64(audio.DefaultMaxChunkBytes)
	if opts.maxChunkMB > 0 {
		maxChunkBytes = int64(opts.maxChunkMB) << 20
	}

	// 10. Backend endpoint or API key.
	var backend transcribe.Submitter
	switch opts.provider {
	case ProviderRelay:
		relayURL := opts.relayURL
		if relayURL == "" {
			relayURL = cfg.RelayURL
		}
		if relayURL == "" {
			return fmt.Errorf("%w (set it with: reelscribe config set %s <url>, or --relay)",
				ErrRelayURLMissing, config.KeyRelayURL)
		}
		backend = env.BackendFactory.NewRelay(relayURL)
	case ProviderOpenAI:
		apiKey := env.Getenv(EnvOpenAIAPIKey)
		if apiKey == "" {
			return fmt.Errorf("%w (set it with: export %s=sk-...)", ErrAPIKeyMissing, EnvOpenAIAPIKey)
		}
		backend = env.BackendFactory.NewOpenAI(apiKey)
	}

	// 11. Resolver endpoint (reel input only).
	var resolverURL string
	if isReel {
		resolverURL = cfg.ResolverURL
		if resolverURL == "" {
			return fmt.Errorf("%w (set it with: reelscribe config set %s <url>)",
				ErrResolverURLMissing, config.KeyResolverURL)
		}
	}

	// === SETUP ===

	// Reels always carry video; local files may need ffmpeg by extension.
	needsFFmpeg := isReel || pipeline.NeedsFFmpeg(input)

	pipeOpts := []pipeline.Option{
		pipeline.WithEncoder(encoder),
		pipeline.WithPlanner(audio.NewPlanner(audio.PlannerConfig{MaxChunkBytes: maxChunkBytes})),
		pipeline.WithMaxParallel(parallel),
		pipeline.WithProgress(transcribeProgress(env.Stderr)),
	}
	if needsFFmpeg {
		ffmpegPath, err := env.FFmpegLocator.Locate()
		if err != nil {
			return err
		}
		videoDecoder, err := decode.NewFFmpegDecoder(ffmpegPath)
		if err != nil {
			return err
		}
		pipeOpts = append(pipeOpts, pipeline.WithVideoDecoder(videoDecoder))
	}

	service := transcribe.NewService(backend, transcribe.WithSegmentCeiling(maxChunkBytes))
	pipe := pipeline.New(service, pipeOpts...)

	// === INPUT BYTES ===

	var name string
	var data []byte
	if isReel {
		resolver := env.ReelFactory.NewResolver(resolverURL)

		fmt.Fprintln(env.Stderr, "Resolving reel...")
		mediaURL, err := resolver.Resolve(ctx, input)
		if err != nil {
			return err
		}

		fmt.Fprintln(env.Stderr, "Downloading media...")
		data, name, err = resolver.Download(ctx, mediaURL)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stderr, "Downloaded %s\n", format.Size(int64(len(data))))
	} else {
		name = filepath.Base(input)
		data, err = os.ReadFile(input) // #nosec G304 -- user-specified input file
		if err != nil {
			return fmt.Errorf("cannot read input file: %w", err)
		}
	}

	// === TRANSCRIPTION ===

	transcript, err := pipe.Process(ctx, name, data, transcribe.Options{
		Prompt:   opts.prompt,
		Language: language,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stderr, "Transcription complete")

	// === WRITE OUTPUT ===

	if err := writeFileExclusive(output, transcript+"\n"); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Done: %s\n", output)
	return nil
}
