package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Traced 42 contours (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logHooks forwards pipeline events to the CLI logger at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnDecodeStart(format string) {
	h.logger.Debug("decode start", "format", format)
}

func (h *logHooks) OnDecodeComplete(format string, width, height int, partial bool, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("decode failed", "format", format, "err", err, "duration", d.Round(time.Millisecond))
		return
	}
	h.logger.Debug("decode complete",
		"format", format, "width", width, "height", height,
		"partial", partial, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnTraceStart(mode string) {
	h.logger.Debug("trace start", "mode", mode)
}

func (h *logHooks) OnTraceComplete(mode string, components, contours int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("trace failed", "mode", mode, "err", err, "duration", d.Round(time.Millisecond))
		return
	}
	h.logger.Debug("trace complete",
		"mode", mode, "components", components, "contours", contours,
		"duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnEmitStart(layer string) {
	h.logger.Debug("emit start", "layer", layer)
}

func (h *logHooks) OnEmitComplete(layer string, lines, steps int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("emit failed", "layer", layer, "err", err, "duration", d.Round(time.Millisecond))
		return
	}
	h.logger.Debug("emit complete",
		"layer", layer, "lines", lines, "steps", steps,
		"duration", d.Round(time.Millisecond))
}
