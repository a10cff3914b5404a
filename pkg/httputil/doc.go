// Package httputil provides the HTTP plumbing shared by package index
// clients: retries for transient failures and client-side rate limiting.
//
// # Retries
//
// [Backoff] repeats an operation with exponentially growing delays.
// Only errors wrapped with [RetryableError] trigger another attempt, so
// permanent failures (404s, malformed responses) surface immediately.
// [DefaultBackoff] carries the settings used for index traffic; index
// clients reach it through [RetryWithBackoff].
//
// # Rate limiting
//
// [RLClient] wraps an http.Client with a token-bucket limiter. A
// resolver run fans out to the same index once per discovered
// dependency, so the limiter keeps burst traffic polite even when the
// cache is cold:
//
//	limiter := rate.NewLimiter(rate.Limit(10), 1)
//	client := httputil.NewRLClient(&http.Client{Timeout: 10 * time.Second}, limiter)
//
// Requests default to 10 per second per client when no limiter is
// given.
package httputil
