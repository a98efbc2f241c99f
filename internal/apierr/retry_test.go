package apierr_test

// Coverage Notes:
// - Tests verify attempt count, shouldRetry filtering, context cancellation,
//   and config normalization.
// - Exact backoff timing is not tested (implementation detail), only
//   observable behavior.

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reelscribe/reelscribe/internal/apierr"
)

// ---------------------------------------------------------------------------
// TestRetryWithBackoff - Generic retry utility
// ---------------------------------------------------------------------------

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()

	t.Run("success on first try returns immediately", func(t *testing.T) {
		t.Parallel()

		callCount := 0
		result, err := apierr.RetryWithBackoff(
			context.Background(),
			apierr.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Minute},
			func() (string, error) {
				callCount++
				return "immediate", nil
			},
			func(error) bool { return true },
		)

		if err != nil {
			t.Errorf("RetryWithBackoff() unexpected error: %v", err)
		}
		if result != "immediate" {
			t.Errorf("got %q, want %q", result, "immediate")
		}
		if callCount != 1 {
			t.Errorf("call count = %d, want 1", callCount)
		}
	})

	t.Run("shouldRetry false stops immediately", func(t *testing.T) {
		t.Parallel()

		callCount := 0
		testErr := errors.New("non-retryable")
		_, err := apierr.RetryWithBackoff(
			context.Background(),
			apierr.RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			func() (string, error) {
				callCount++
				return "", testErr
			},
			func(error) bool { return false },
		)

		if !errors.Is(err, testErr) {
			t.Errorf("error = %v, want %v", err, testErr)
		}
		if callCount != 1 {
			t.Errorf("call count = %d, want 1", callCount)
		}
	})

	t.Run("exhausts exactly MaxAttempts on persistent transient failure", func(t *testing.T) {
		t.Parallel()

		callCount := 0
		testErr := errors.New("transient")
		_, err := apierr.RetryWithBackoff(
			context.Background(),
			apierr.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			func() (string, error) {
				callCount++
				return "", testErr
			},
			func(error) bool { return true },
		)

		if !errors.Is(err, testErr) {
			t.Errorf("error = %v, want wrapped %v", err, testErr)
		}
		if callCount != 3 {
			t.Errorf("call count = %d, want 3", callCount)
		}
	})

	t.Run("succeeds on last allowed attempt", func(t *testing.T) {
		t.Parallel()

		callCount := 0
		result, err := apierr.RetryWithBackoff(
			context.Background(),
			apierr.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			func() (string, error) {
				callCount++
				if callCount < 3 {
					return "", errors.New("transient")
				}
				return "third time lucky", nil
			},
			func(error) bool { return true },
		)

		if err != nil {
			t.Errorf("RetryWithBackoff() unexpected error: %v", err)
		}
		if result != "third time lucky" {
			t.Errorf("got %q", result)
		}
		if callCount != 3 {
			t.Errorf("call count = %d, want 3", callCount)
		}
	})

	t.Run("context cancellation aborts between attempts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		callCount := 0
		_, err := apierr.RetryWithBackoff(
			ctx,
			apierr.RetryConfig{MaxAttempts: 10, BaseDelay: time.Hour, MaxDelay: time.Hour},
			func() (string, error) {
				callCount++
				cancel()
				return "", errors.New("transient")
			},
			func(error) bool { return true },
		)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if callCount != 1 {
			t.Errorf("call count = %d, want 1", callCount)
		}
	})

	t.Run("invalid config normalized to single attempt", func(t *testing.T) {
		t.Parallel()

		callCount := 0
		testErr := errors.New("boom")
		_, err := apierr.RetryWithBackoff(
			context.Background(),
			apierr.RetryConfig{MaxAttempts: -5},
			func() (string, error) {
				callCount++
				return "", testErr
			},
			func(error) bool { return true },
		)

		if err == nil {
			t.Error("expected error")
		}
		if callCount != 1 {
			t.Errorf("call count = %d, want 1", callCount)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRetryable - Transient vs fatal classification
// ---------------------------------------------------------------------------

func TestRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit is retryable", apierr.ErrRateLimit, true},
		{"timeout is retryable", apierr.ErrTimeout, true},
		{"upstream error is retryable", apierr.ErrUpstream, true},
		{"empty response is retryable", apierr.ErrEmptyResponse, true},
		{"auth failure is fatal", apierr.ErrAuthFailed, false},
		{"quota exceeded is fatal", apierr.ErrQuotaExceeded, false},
		{"bad request is fatal", apierr.ErrBadRequest, false},
		{"oversize request is fatal", apierr.ErrRequestTooLarge, false},
		{"unclassified error is fatal", errors.New("mystery"), false},
		{"wrapped sentinel is classified", wrapped(apierr.ErrRateLimit), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := apierr.Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func wrapped(err error) error {
	return errors.Join(errors.New("429 from relay"), err)
}
