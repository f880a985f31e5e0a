package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func (s *Spinner) currentMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func TestSpinnerWritesFrames(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("working...")
	s.out = &buf

	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "working...") {
		t.Errorf("spinner output missing message: %q", out)
	}
	if !strings.Contains(out, "\r") {
		t.Error("spinner should redraw in place with carriage returns")
	}
	if s.Cancelled() {
		t.Error("explicit Stop should not count as cancelled")
	}
}

func TestSpinnerStageMessages(t *testing.T) {
	s := newSpinner("Vectorizing drawing.png...")
	s.out = &bytes.Buffer{}

	s.OnDecodeStart("png")
	if got := s.currentMessage(); got != "Decoding png image..." {
		t.Errorf("after decode start, message = %q", got)
	}

	s.OnTraceStart("binary")
	if got := s.currentMessage(); got != "Tracing contours (binary mode)..." {
		t.Errorf("after trace start, message = %q", got)
	}

	s.OnEmitStart("TRACE")
	if got := s.currentMessage(); got != "Building sequence for layer TRACE..." {
		t.Errorf("after emit start, message = %q", got)
	}

	// Completion events leave the message to the next stage.
	s.OnTraceComplete("binary", 1, 1, time.Millisecond, nil)
	if got := s.currentMessage(); got != "Building sequence for layer TRACE..." {
		t.Errorf("completion event changed message to %q", got)
	}
}

func TestSpinnerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "waiting...")
	s.out = &bytes.Buffer{}
	s.Start()

	cancel()
	time.Sleep(2 * spinnerInterval)

	if !s.Cancelled() {
		t.Error("spinner should report cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("stopping...")
	s.out = &bytes.Buffer{}
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerClearsLongestLine(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("a long initial stage message")
	s.out = &buf

	s.Start()
	time.Sleep(2 * spinnerInterval)
	s.SetMessage("short")
	time.Sleep(2 * spinnerInterval)
	s.Stop()

	// The final clear must cover the widest line drawn, not just the last
	// message.
	lines := strings.Split(buf.String(), "\r")
	last := lines[len(lines)-2] // trailing \r leaves an empty final element
	if len(strings.TrimRight(last, " ")) != 0 {
		t.Errorf("final clear line not blank: %q", last)
	}
	if len(last) < len("a long initial stage message") {
		t.Errorf("clear width %d shorter than widest message", len(last))
	}
}
