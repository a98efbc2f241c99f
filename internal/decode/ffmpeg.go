package decode

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Environment variable for a custom ffmpeg path.
const envFFmpegPath = "FFMPEG_PATH"

// commandRunner executes external commands and returns their stdout.
type commandRunner interface {
	Output(ctx context.Context, name string, args []string) ([]byte, error)
}

// osCommandRunner implements commandRunner using exec.CommandContext.
type osCommandRunner struct{}

func (osCommandRunner) Output(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name and args are controlled by the decoder, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// ResolveFFmpeg locates the ffmpeg binary: FFMPEG_PATH first, then $PATH.
func ResolveFFmpeg() (string, error) {
	if p := os.Getenv(envFFmpegPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrFFmpegNotFound, p, err)
		}
		return p, nil
	}
	p, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("%w: install ffmpeg or set %s", ErrFFmpegNotFound, envFFmpegPath)
	}
	return p, nil
}

// FFmpegDecoder demuxes and decodes arbitrary containers (video included) by
// shelling out to ffmpeg, rendering raw signed 16-bit mono PCM at
// TargetSampleRate. The pure-Go decoders are preferred where they apply;
// this is the catch-all for video input.
type FFmpegDecoder struct {
	ffmpegPath string
	cmd        commandRunner
}

// FFmpegDecoderOption configures an FFmpegDecoder.
type FFmpegDecoderOption func(*FFmpegDecoder)

// WithCommandRunner sets the command runner (for testing).
func WithCommandRunner(r commandRunner) FFmpegDecoderOption {
	return func(d *FFmpegDecoder) {
		d.cmd = r
	}
}

// NewFFmpegDecoder creates an FFmpegDecoder using the given ffmpeg binary.
func NewFFmpegDecoder(ffmpegPath string, opts ...FFmpegDecoderOption) (*FFmpegDecoder, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ErrFFmpegNotFound)
	}

	d := &FFmpegDecoder{
		ffmpegPath: ffmpegPath,
		cmd:        osCommandRunner{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Decode demuxes data and returns mono PCM at TargetSampleRate.
// The input is staged to a temp file because many containers (mp4 with a
// trailing moov atom) cannot be demuxed from a pipe.
func (d *FFmpegDecoder) Decode(ctx context.Context, data []byte) (PCM, error) {
	tmpDir, err := os.MkdirTemp("", "reelscribe-*")
	if err != nil {
		return PCM{}, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	inPath := filepath.Join(tmpDir, "input")
	if err := os.WriteFile(inPath, data, 0600); err != nil {
		return PCM{}, fmt.Errorf("failed to stage input: %w", err)
	}

	args := []string{
		"-i", inPath,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", TargetSampleRate),
		"-ac", "1",
		"-",
	}

	raw, err := d.cmd.Output(ctx, d.ffmpegPath, args)
	if err != nil {
		return PCM{}, fmt.Errorf("%w: ffmpeg: %v", ErrDecodeFailed, err)
	}

	frames := len(raw) / 2
	if frames == 0 {
		return PCM{}, fmt.Errorf("%w: no audio stream", ErrDecodeFailed)
	}

	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768.0
	}

	return PCM{Samples: samples, SampleRate: TargetSampleRate}, nil
}
