package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"sentinelfetch/pkg/config"
)

// Limiter paces outbound requests
type Limiter interface {
	// Wait blocks until the next request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset resets the limiter state
	Reset()
}

// New builds the Limiter selected by cfg.Strategy
func New(cfg config.RateLimitConfig) (Limiter, error) {
	switch strings.ToLower(cfg.Strategy) {
	case "", "fixed":
		return NewFixedDelay(cfg.Delay), nil
	case "token_bucket":
		if cfg.RequestsPerMinute <= 0 {
			return nil, fmt.Errorf("requests per minute must be positive, got %d", cfg.RequestsPerMinute)
		}
		return NewTokenBucket(cfg.RequestsPerMinute, time.Minute), nil
	default:
		return nil, fmt.Errorf("unknown rate limit strategy: %q", cfg.Strategy)
	}
}

// FixedDelay sleeps for the same duration on every Wait
type FixedDelay struct {
	delay time.Duration
}

// NewFixedDelay creates a limiter that pauses for delay on every Wait.
// A zero delay never blocks.
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{delay: delay}
}

// Wait sleeps for the configured delay
func (f *FixedDelay) Wait(ctx context.Context) error {
	return sleep(ctx, f.delay)
}

// Reset is a no-op; FixedDelay holds no state
func (f *FixedDelay) Reset() {}

// Delay returns the configured pause
func (f *FixedDelay) Delay() time.Duration {
	return f.delay
}

// TokenBucket spreads requests evenly over a period, allowing bursts up to
// capacity. Tokens refill continuously rather than all at once.
type TokenBucket struct {
	capacity int
	period   time.Duration

	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewTokenBucket creates a limiter granting capacity requests per period
func NewTokenBucket(capacity int, period time.Duration) *TokenBucket {
	tb := &TokenBucket{capacity: capacity, period: period}
	tb.limiter = tb.newLimiter()
	return tb
}

func (tb *TokenBucket) newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(tb.period/time.Duration(tb.capacity)), tb.capacity)
}

func (tb *TokenBucket) current() *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.limiter
}

// Allow takes a token if one is available
func (tb *TokenBucket) Allow() bool {
	return tb.current().Allow()
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.current().Wait(ctx)
}

// Reset refills the bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.limiter = tb.newLimiter()
}

// Interval returns the time between two refilled tokens
func (tb *TokenBucket) Interval() time.Duration {
	return tb.period / time.Duration(tb.capacity)
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
