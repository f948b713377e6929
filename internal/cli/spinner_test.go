package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerBasic(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Loading cells.csv")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if s.Cancelled() {
		t.Error("Stop should not count as cancellation")
	}
	if !strings.Contains(buf.String(), "Loading cells.csv") {
		t.Errorf("spinner output missing message: %q", buf.String())
	}
}

func TestSpinnerUpdate(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Loading")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Update("Rendering svg")
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Rendering svg") {
		t.Errorf("spinner output missing updated message: %q", buf.String())
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var buf bytes.Buffer
	s := newSpinnerWithContext(ctx, &buf, "Testing with context...")
	s.Start()

	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Testing idempotent stop...")
	s.Start()

	// Stop multiple times should not panic
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithMessage(t *testing.T) {
	tests := []struct {
		name string
		stop func(*Spinner)
		want string
	}{
		{"success", func(s *Spinner) { s.StopWithSuccess("Done!") }, "Done!"},
		{"error", func(s *Spinner) { s.StopWithError("Failed!") }, "Failed!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			s := newSpinner(&buf, "Working...")
			s.Start()
			time.Sleep(50 * time.Millisecond)
			tt.stop(s)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("missing %q in %q", tt.want, buf.String())
			}
		})
	}
}
