package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("connection reset")

func TestBackoffSuccessFirstTry(t *testing.T) {
	calls := 0
	err := Backoff{Attempts: 3, Delay: time.Millisecond}.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Do error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoffNonRetryableStopsImmediately(t *testing.T) {
	permanent := errors.New("not found")
	calls := 0
	err := Backoff{Attempts: 3, Delay: time.Millisecond}.Do(context.Background(), func() error {
		calls++
		return permanent
	})
	if err != permanent {
		t.Errorf("Do error = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoffRetryableSucceedsEventually(t *testing.T) {
	calls := 0
	err := Backoff{Attempts: 3, Delay: time.Millisecond}.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errTransient}
		}
		return nil
	})
	if err != nil {
		t.Errorf("Do error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestBackoffExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Backoff{Attempts: 3, Delay: time.Millisecond}.Do(context.Background(), func() error {
		calls++
		return &RetryableError{Err: errTransient}
	})
	if !errors.Is(err, errTransient) {
		t.Errorf("Do error = %v, want wrapped %v", err, errTransient)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestBackoffZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Backoff{}.Do(context.Background(), func() error {
		calls++
		return &RetryableError{Err: errTransient}
	})
	if !errors.Is(err, errTransient) {
		t.Errorf("Do error = %v, want wrapped %v", err, errTransient)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Backoff{Attempts: 3, Delay: time.Minute}.Do(ctx, func() error {
		return &RetryableError{Err: errTransient}
	})
	if err != context.Canceled {
		t.Errorf("Do error = %v, want context.Canceled", err)
	}
}

func TestRetryWithBackoffUsesDefault(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("RetryWithBackoff error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryableErrorUnwrap(t *testing.T) {
	wrapped := &RetryableError{Err: errTransient}
	if wrapped.Error() != errTransient.Error() {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), errTransient.Error())
	}
	if !errors.Is(wrapped, errTransient) {
		t.Error("errors.Is should see through RetryableError")
	}
}
