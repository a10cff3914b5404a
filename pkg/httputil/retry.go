package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure as transient. Index fetches wrap
// connection errors, 5xx responses, and rate limits with it so the
// retry loop knows the request is worth repeating; anything else is
// final and goes straight back to the caller.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Backoff retries an operation with exponentially growing delays.
type Backoff struct {
	// Attempts caps the total number of tries, including the first.
	// Values below 1 behave like 1.
	Attempts int

	// Delay is the wait before the second try. It doubles after every
	// failed attempt.
	Delay time.Duration
}

// DefaultBackoff is tuned for package index traffic: three tries with a
// one second initial delay.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second}

// Do runs fn until it succeeds, a non-retryable error occurs, the
// attempts are exhausted, or ctx ends while waiting between tries.
// The last error seen is returned when the attempts run out.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var lastErr error
	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.As(err, new(*RetryableError)) {
			return err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}

// RetryWithBackoff runs fn with DefaultBackoff.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultBackoff.Do(ctx, fn)
}
