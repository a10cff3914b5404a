package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerLifecycle(t *testing.T) {
	s := newSpinner("Resolving...")
	s.Start()
	time.Sleep(50 * time.Millisecond)

	// Cancelled is only meaningful before Stop; stopping cancels the
	// internal context.
	if s.Cancelled() {
		t.Error("spinner should not report cancellation while running")
	}

	// Stop tolerates repeated calls.
	s.Stop()
	s.Stop()
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "Resolving...")
	s.Start()

	cancel()
	time.Sleep(50 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should report cancellation after its context ends")
	}
	s.Stop()
}

func TestSpinnerTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "Resolving...")
	s.Start()
	time.Sleep(60 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should report cancellation after the deadline")
	}
}

func TestSpinnerUpdateMessage(t *testing.T) {
	s := newSpinner("short")
	s.UpdateMessage("a much longer progress message")

	if s.message != "a much longer progress message" {
		t.Errorf("message = %q", s.message)
	}
	if s.width != len("a much longer progress message") {
		t.Errorf("width = %d, want %d", s.width, len("a much longer progress message"))
	}

	// Width tracks the widest message so shrinking keeps the clear area.
	s.UpdateMessage("tiny")
	if s.width != len("a much longer progress message") {
		t.Errorf("width shrank to %d", s.width)
	}
}

func TestSpinnerStopMessages(t *testing.T) {
	s := newSpinner("Working...")
	s.Start()
	s.StopWithSuccess("Done")

	s = newSpinner("Working...")
	s.Start()
	s.StopWithError("Failed")
}
