package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"sentinelfetch/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.RateLimitConfig
		want    interface{}
		wantErr bool
	}{
		{"fixed", config.RateLimitConfig{Strategy: "fixed", Delay: time.Second}, &FixedDelay{}, false},
		{"empty defaults to fixed", config.RateLimitConfig{}, &FixedDelay{}, false},
		{"token bucket", config.RateLimitConfig{Strategy: "token_bucket", RequestsPerMinute: 60}, &TokenBucket{}, false},
		{"token bucket mixed case", config.RateLimitConfig{Strategy: "Token_Bucket", RequestsPerMinute: 60}, &TokenBucket{}, false},
		{"sliding window is not a strategy", config.RateLimitConfig{Strategy: "sliding_window", RequestsPerMinute: 60}, nil, true},
		{"token bucket without rate", config.RateLimitConfig{Strategy: "token_bucket"}, nil, true},
		{"unknown", config.RateLimitConfig{Strategy: "adaptive"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			switch tt.want.(type) {
			case *FixedDelay:
				if _, ok := limiter.(*FixedDelay); !ok {
					t.Errorf("expected *FixedDelay, got %T", limiter)
				}
			case *TokenBucket:
				if _, ok := limiter.(*TokenBucket); !ok {
					t.Errorf("expected *TokenBucket, got %T", limiter)
				}
			}
		})
	}
}

func TestFixedDelay(t *testing.T) {
	fd := NewFixedDelay(50 * time.Millisecond)

	start := time.Now()
	if err := fd.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Wait returned after %v, expected at least 50ms", elapsed)
	}

	// Every call pauses, there is no burst allowance
	start = time.Now()
	_ = fd.Wait(context.Background())
	_ = fd.Wait(context.Background())
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("two waits took %v, expected at least 100ms", elapsed)
	}
}

func TestFixedDelayZero(t *testing.T) {
	fd := NewFixedDelay(0)

	start := time.Now()
	if err := fd.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("zero delay should not block, took %v", elapsed)
	}
}

func TestFixedDelayCancelled(t *testing.T) {
	fd := NewFixedDelay(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := fd.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, time.Second)

	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	tb.Reset()
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available after reset", i+1)
		}
	}
}

func TestTokenBucketRefillsGradually(t *testing.T) {
	// 120 per minute is one token every 500ms, not a full bucket after a minute
	tb := NewTokenBucket(120, time.Minute)
	if got := tb.Interval(); got != 500*time.Millisecond {
		t.Fatalf("Interval() = %v, want 500ms", got)
	}

	for i := 0; i < 120; i++ {
		tb.Allow()
	}
	if tb.Allow() {
		t.Fatal("Expected bucket to be empty")
	}

	start := time.Now()
	if err := tb.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 400*time.Millisecond || elapsed > 5*time.Second {
		t.Errorf("Wait on empty bucket took %v, expected about one interval", elapsed)
	}
}

func TestTokenBucketWait(t *testing.T) {
	tb := NewTokenBucket(1, 100*time.Millisecond)
	ctx := context.Background()

	if err := tb.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	start := time.Now()
	if err := tb.Wait(ctx); err != nil {
		t.Fatalf("second Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second Wait returned after %v, expected refill wait", elapsed)
	}
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	tb.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := tb.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
