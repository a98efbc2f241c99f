package transcribe

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reelscribe/reelscribe/internal/apierr"
	"github.com/reelscribe/reelscribe/internal/audio"
	"github.com/reelscribe/reelscribe/internal/encode"
	"github.com/reelscribe/reelscribe/internal/stitch"
)

// Parallelism configuration.
const (
	// MaxRecommendedParallel is the recommended upper limit for concurrent
	// submissions. Higher values may trigger rate limiting.
	MaxRecommendedParallel = 10
)

// Default retry configuration.
const (
	// DefaultMaxAttempts is the total submission tries per segment,
	// including the first.
	DefaultMaxAttempts = 3

	DefaultBaseDelay = 1 * time.Second
	DefaultMaxDelay  = 30 * time.Second
)

// DefaultRetryConfig returns the standard per-segment retry policy.
func DefaultRetryConfig() apierr.RetryConfig {
	return apierr.RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Service wraps a Submitter with the per-segment submission policy: the
// client-side size ceiling, bounded retry with backoff on transient
// failures, and transcript sanity validation.
type Service struct {
	backend    Submitter
	retry      apierr.RetryConfig
	maxSegment int64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg apierr.RetryConfig) ServiceOption {
	return func(s *Service) {
		s.retry = cfg
	}
}

// WithSegmentCeiling sets the maximum segment size submitted to the backend.
// The ceiling is checked before any network call; the planner should never
// produce an oversize chunk, so a hit here is fatal, not retried.
func WithSegmentCeiling(n int64) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxSegment = n
		}
	}
}

// NewService creates a Service submitting through the given backend.
func NewService(backend Submitter, opts ...ServiceOption) *Service {
	s := &Service{
		backend:    backend,
		retry:      DefaultRetryConfig(),
		maxSegment: audio.DefaultMaxChunkBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit sends one segment with bounded retry and returns a cleaned
// transcript piece carrying the segment's start time. A response with no
// usable text counts as a transient failure and is retried; once the retry
// budget is exhausted (or a fatal error surfaces) the returned error wraps
// both ErrTranscriptionFailed and the last observed cause.
func (s *Service) Submit(ctx context.Context, seg encode.Segment, opts Options) (stitch.Piece, error) {
	if seg.Size() > s.maxSegment {
		return stitch.Piece{}, fmt.Errorf(
			"%w: segment %s is %d bytes, ceiling is %d: %w",
			ErrTranscriptionFailed, seg.Name, seg.Size(), s.maxSegment, apierr.ErrRequestTooLarge,
		)
	}

	text, err := apierr.RetryWithBackoff(ctx, s.retry, func() (string, error) {
		raw, err := s.backend.Submit(ctx, seg, opts)
		if err != nil {
			return "", err
		}
		cleaned, err := stitch.Sanitize(raw)
		if err != nil {
			// Filler-only or empty text is usually a provider hiccup
			// rather than true silence, so it gets the retry treatment.
			return "", fmt.Errorf("%v: %w", err, apierr.ErrEmptyResponse)
		}
		return cleaned, nil
	}, apierr.Retryable)
	if err != nil {
		return stitch.Piece{}, fmt.Errorf("%w: segment %s: %w", ErrTranscriptionFailed, seg.Name, err)
	}

	return stitch.Piece{Text: text, StartTime: seg.StartTime}, nil
}

// SubmitAll submits segments and returns their transcript pieces in input
// order. If any segment fails, the whole operation is aborted and the error
// returned; no partial results survive. maxParallel bounds concurrent
// submissions; values below 1 mean sequential.
func SubmitAll(
	ctx context.Context,
	s *Service,
	segs []encode.Segment,
	opts Options,
	maxParallel int,
) ([]stitch.Piece, error) {
	if len(segs) == 0 {
		return nil, nil
	}

	if maxParallel < 1 {
		maxParallel = 1
	}

	pieces := make([]stitch.Piece, len(segs))
	// Semaphore channel for concurrency control.
	// Not closed explicitly: it's local to this function and will be GC'd.
	sem := make(chan struct{}, maxParallel)

	g, ctx := errgroup.WithContext(ctx)

	for i, seg := range segs {
		i, seg := i, seg
		g.Go(func() error {
			// Acquire semaphore slot.
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			piece, err := s.Submit(ctx, seg, opts)
			if err != nil {
				return err
			}
			pieces[i] = piece
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return pieces, nil
}
