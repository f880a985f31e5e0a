package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerFrames is the animation cycle: a single dot orbiting the cell.
var spinnerFrames = []string{"⠁", "⠂", "⠄", "⡀", "⢀", "⠠", "⠐", "⠈"}

// spinnerInterval is the animation frame duration.
const spinnerInterval = 100 * time.Millisecond

// Spinner animates a progress line while a vectorization runs.
//
// It implements observability.PipelineHooks, so when registered for the
// duration of a run its message follows the pipeline stage currently
// executing (decoding, tracing, emitting). Stopping is idempotent and the
// spinner also stops when its context is cancelled.
type Spinner struct {
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	out     io.Writer

	mu       sync.Mutex
	message  string
	rendered int // widest line written, for clearing
}

// newSpinner creates a spinner with the given initial message.
func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext creates a spinner that also stops when ctx is
// cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		parent:  ctx,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		out:     os.Stderr,
		message: message,
	}
}

// Start begins the animation on its own goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.render(spinnerFrames[frame%len(spinnerFrames)])
			}
		}
	}()
}

// render draws one animation frame with the current message.
func (s *Spinner) render(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.message)
	if n := len(line); n > s.rendered {
		s.rendered = n
	}
	fmt.Fprintf(s.out, "\r%s", line)
}

// SetMessage replaces the message shown next to the animation.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop halts the animation and clears the line. Safe to call repeatedly.
func (s *Spinner) Stop() {
	s.cancel()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.rendered))
}

// StopWithSuccess stops the spinner and shows a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner's parent context was cancelled,
// as opposed to an explicit Stop.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}

// =============================================================================
// Pipeline stage messages
// =============================================================================

// The hook methods below make *Spinner an observability.PipelineHooks:
// each stage start rewrites the message, the completion events are left to
// the log hooks.

func (s *Spinner) OnDecodeStart(format string) {
	s.SetMessage(fmt.Sprintf("Decoding %s image...", format))
}

func (s *Spinner) OnDecodeComplete(string, int, int, bool, time.Duration, error) {}

func (s *Spinner) OnTraceStart(mode string) {
	s.SetMessage(fmt.Sprintf("Tracing contours (%s mode)...", mode))
}

func (s *Spinner) OnTraceComplete(string, int, int, time.Duration, error) {}

func (s *Spinner) OnEmitStart(layer string) {
	s.SetMessage(fmt.Sprintf("Building sequence for layer %s...", layer))
}

func (s *Spinner) OnEmitComplete(string, int, int, time.Duration, error) {}
