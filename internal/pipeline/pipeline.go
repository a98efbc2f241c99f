// Package pipeline sequences the full transcription flow: route the input
// to a decoder, plan chunks, encode and submit each segment, and stitch the
// pieces into one transcript.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/reelscribe/reelscribe/internal/audio"
	"github.com/reelscribe/reelscribe/internal/decode"
	"github.com/reelscribe/reelscribe/internal/encode"
	"github.com/reelscribe/reelscribe/internal/stitch"
	"github.com/reelscribe/reelscribe/internal/transcribe"
)

// ErrUnsupportedFormat indicates the input extension maps to no known
// decoder. Raised before any decoding work is attempted.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// pureAudioExts decode in-process without external tooling.
var pureAudioExts = map[string]bool{
	".wav": true,
	".mp3": true,
}

// ffmpegExts require the external decoder: video containers plus audio
// codecs we have no pure-Go reader for.
var ffmpegExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".m4v":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
	".aac":  true,
	".mpeg": true,
	".mpga": true,
}

// SupportedFormat reports whether the filename routes to any decoder,
// assuming ffmpeg is available.
func SupportedFormat(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return pureAudioExts[ext] || ffmpegExts[ext]
}

// NeedsFFmpeg reports whether decoding the file requires the external
// decoder rather than a pure-Go one.
func NeedsFFmpeg(name string) bool {
	return ffmpegExts[strings.ToLower(filepath.Ext(name))]
}

// SupportedFormatsList returns a sorted, comma-separated list of supported
// extensions for error messages.
func SupportedFormatsList() string {
	formats := make([]string, 0, len(pureAudioExts)+len(ffmpegExts))
	for ext := range pureAudioExts {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	for ext := range ffmpegExts {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}

// ProgressFunc receives phase updates as the pipeline advances. Phases:
// "decode", "plan", "transcribe". For "transcribe", current counts completed
// segments out of total.
type ProgressFunc func(phase string, current, total int)

// Pipeline drives one input from bytes to merged transcript.
type Pipeline struct {
	service      *transcribe.Service
	videoDecoder decode.Decoder
	planner      *audio.Planner
	encoder      encode.Encoder
	window       int
	maxParallel  int
	progress     ProgressFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithVideoDecoder provides the external decoder used for video containers
// and non-native audio codecs. Without it those formats fail fast.
func WithVideoDecoder(d decode.Decoder) Option {
	return func(p *Pipeline) {
		p.videoDecoder = d
	}
}

// WithPlanner overrides the chunk planner.
func WithPlanner(pl *audio.Planner) Option {
	return func(p *Pipeline) {
		p.planner = pl
	}
}

// WithEncoder overrides the segment encoder.
func WithEncoder(e encode.Encoder) Option {
	return func(p *Pipeline) {
		p.encoder = e
	}
}

// WithStitchWindow sets the word window used for overlap deduplication.
func WithStitchWindow(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.window = n
		}
	}
}

// WithMaxParallel enables bounded parallel submission. The default of 1
// keeps submissions sequential, which also keeps at most one encoded
// segment resident at a time.
func WithMaxParallel(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxParallel = n
		}
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// New creates a Pipeline submitting through the given service.
func New(service *transcribe.Service, opts ...Option) *Pipeline {
	p := &Pipeline{
		service:     service,
		planner:     audio.NewPlanner(audio.DefaultPlannerConfig()),
		encoder:     encode.NewWAVEncoder(),
		window:      stitch.DefaultWindow,
		maxParallel: 1,
		progress:    func(string, int, int) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// decoderFor routes a filename to its decoder. Unsupported extensions fail
// here, before any bytes are touched.
func (p *Pipeline) decoderFor(name string) (decode.Decoder, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".wav":
		return decode.NewWAVDecoder(), nil
	case ext == ".mp3":
		return decode.NewMP3Decoder(), nil
	case ffmpegExts[ext]:
		if p.videoDecoder == nil {
			return nil, fmt.Errorf("%s input requires ffmpeg: %w", ext, decode.ErrFFmpegNotFound)
		}
		return p.videoDecoder, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnsupportedFormat)
	}
}

// Process transcribes one input and returns the merged transcript.
// On any segment's unrecoverable failure the whole operation fails;
// no partial transcript is returned.
func (p *Pipeline) Process(ctx context.Context, name string, data []byte, opts transcribe.Options) (string, error) {
	dec, err := p.decoderFor(name)
	if err != nil {
		return "", err
	}

	p.progress("decode", 0, 1)
	pcm, err := dec.Decode(ctx, data)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", name, err)
	}
	p.progress("decode", 1, 1)

	chunks, err := p.planner.Plan(pcm.Samples, pcm.SampleRate)
	if err != nil {
		return "", fmt.Errorf("planning chunks for %s: %w", name, err)
	}
	p.progress("plan", len(chunks), len(chunks))

	var pieces []stitch.Piece
	if p.maxParallel > 1 {
		pieces, err = p.submitParallel(ctx, name, chunks, opts)
	} else {
		pieces, err = p.submitSequential(ctx, name, chunks, opts)
	}
	if err != nil {
		return "", err
	}

	return stitch.Merge(pieces, p.window), nil
}

// submitSequential encodes and submits one chunk at a time, in order. Only
// one encoded segment is resident at any moment. Cancellation is checked at
// chunk boundaries, never mid-segment.
func (p *Pipeline) submitSequential(
	ctx context.Context,
	name string,
	chunks []audio.Chunk,
	opts transcribe.Options,
) ([]stitch.Piece, error) {
	pieces := make([]stitch.Piece, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seg, err := p.encoder.Encode(chunk, name)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", chunk, err)
		}

		piece, err := p.service.Submit(ctx, seg, opts)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, piece)
		p.progress("transcribe", i+1, len(chunks))
	}
	return pieces, nil
}

// submitParallel encodes everything up front and fans submissions out under
// the concurrency cap. Trades memory for throughput; stitching stays correct
// because Merge orders by start time, not completion order.
func (p *Pipeline) submitParallel(
	ctx context.Context,
	name string,
	chunks []audio.Chunk,
	opts transcribe.Options,
) ([]stitch.Piece, error) {
	segs := make([]encode.Segment, len(chunks))
	for i, chunk := range chunks {
		seg, err := p.encoder.Encode(chunk, name)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", chunk, err)
		}
		segs[i] = seg
	}

	pieces, err := transcribe.SubmitAll(ctx, p.service, segs, opts, p.maxParallel)
	if err != nil {
		return nil, err
	}
	p.progress("transcribe", len(chunks), len(chunks))
	return pieces, nil
}
