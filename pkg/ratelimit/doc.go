// Package ratelimit paces requests to the Sentinel Hub Process API.
//
// Every implementation satisfies Limiter, whose Wait blocks until the next
// request may go out or the context is cancelled.
//
// Available Implementations:
//
// FixedDelay:
//   - Sleeps the same duration on every Wait (default 500ms)
//   - The default strategy; one pause follows every fetch attempt
//
// Token Bucket:
//   - Wraps a golang.org/x/time/rate limiter
//   - Allows short bursts up to requests_per_minute, refilling one token
//     every minute/requests_per_minute
//
// Usage:
//
//	limiter, err := ratelimit.New(cfg.RateLimit)
//	if err != nil {
//	    return err
//	}
//
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // cancelled
//	}
package ratelimit
