// Package retry provides exponential backoff and retry logic for transient
// failures of Sentinel Hub Process API calls.
//
// Features:
//   - Exponential and constant backoff strategies
//   - Jitter to spread retries out
//   - Context support for cancellation
//   - Error-type specific backoff strategies
//   - Configurable retry predicates
//
// Basic usage:
//
//	cfg := retry.FromConfig(appConfig.Retry, log)
//	body, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
//		return send(ctx)
//	}, cfg)
//
// A disabled retry section yields exactly one attempt, so callers can always
// go through Do.
//
// Error Type Handling:
//
// Only *errors.Error values are retried, chosen by their type:
//   - Network errors: Quick retries with exponential backoff
//   - Rate limit errors: Longer delays with less aggressive backoff
//   - Server errors: Moderate delays with exponential backoff
//   - Auth/NotFound errors: No retry (non-retryable)
package retry
