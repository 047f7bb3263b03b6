package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	errs "sentinelfetch/pkg/errors"
)

// BackoffStrategy defines the interface for different backoff strategies
type BackoffStrategy interface {
	// NextDelay returns the delay before retrying after the given attempt
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	// BaseDelay is the initial delay duration
	BaseDelay time.Duration
	// MaxDelay is the maximum delay duration
	MaxDelay time.Duration
	// Multiplier is the factor by which delay increases
	Multiplier float64
	// JitterFactor adds randomness (0.0 to 1.0)
	JitterFactor float64
}

// DefaultExponentialBackoff returns a backoff with sensible defaults
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))

	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrorTypeBackoff picks a backoff strategy from the type of the failure
type ErrorTypeBackoff struct {
	// NetworkErrorBackoff for transport failures
	NetworkErrorBackoff BackoffStrategy
	// RateLimitBackoff for 429 responses (longer delays)
	RateLimitBackoff BackoffStrategy
	// ServerErrorBackoff for 5xx responses
	ServerErrorBackoff BackoffStrategy
	// DefaultBackoff for other retryable errors
	DefaultBackoff BackoffStrategy
}

// NewErrorTypeBackoff derives per-type strategies from a base and a cap.
// Zero values fall back to one second and thirty seconds.
func NewErrorTypeBackoff(base, max time.Duration) *ErrorTypeBackoff {
	if base <= 0 {
		base = time.Second
	}
	if max <= 0 {
		max = 30 * time.Second
	}

	return &ErrorTypeBackoff{
		NetworkErrorBackoff: &ExponentialBackoff{
			BaseDelay:    base,
			MaxDelay:     max,
			Multiplier:   2.0,
			JitterFactor: 0.2,
		},
		RateLimitBackoff: &ExponentialBackoff{
			BaseDelay:    min(base*5, max),
			MaxDelay:     max,
			Multiplier:   1.5,
			JitterFactor: 0.3,
		},
		ServerErrorBackoff: &ExponentialBackoff{
			BaseDelay:    min(base*2, max),
			MaxDelay:     max,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		DefaultBackoff: &ExponentialBackoff{
			BaseDelay:    base,
			MaxDelay:     max,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
	}
}

// NextDelay uses the default strategy
func (etb *ErrorTypeBackoff) NextDelay(attempt int) time.Duration {
	return etb.DefaultBackoff.NextDelay(attempt)
}

// NextDelayForError uses the strategy matching err
func (etb *ErrorTypeBackoff) NextDelayForError(attempt int, err error) time.Duration {
	var apiErr *errs.Error
	if !errors.As(err, &apiErr) {
		return etb.DefaultBackoff.NextDelay(attempt)
	}
	return etb.BackoffFor(apiErr.Type).NextDelay(attempt)
}

// BackoffFor returns the strategy for errorType
func (etb *ErrorTypeBackoff) BackoffFor(errorType errs.ErrorType) BackoffStrategy {
	switch errorType {
	case errs.ErrorTypeNetwork:
		return etb.NetworkErrorBackoff
	case errs.ErrorTypeRateLimit:
		return etb.RateLimitBackoff
	case errs.ErrorTypeServerError:
		return etb.ServerErrorBackoff
	default:
		return etb.DefaultBackoff
	}
}
