// Package observability provides hooks for instrumenting the vectorization
// pipeline.
//
// The pipeline packages (imaging, trace, vectorize) never log; they return
// typed errors and report progress exclusively through the hooks defined
// here. Consumers can register hooks at startup to receive events about
// decoding, tracing, and emission without the core packages taking a
// dependency on any logging or metrics framework.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for pipeline stages
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    // ... run application
//	}
//
// The vectorizer calls hooks as stages complete:
//
//	observability.Pipeline().OnDecodeStart(format)
//	// ... decode ...
//	observability.Pipeline().OnDecodeComplete(format, w, h, partial, duration, err)
package observability

import (
	"sync"
	"time"
)

// PipelineHooks receives events from the vectorization pipeline.
//
// Hooks take no context: the pipeline is synchronous end to end and nothing
// in it is independently cancellable.
type PipelineHooks interface {
	// Decode events
	OnDecodeStart(format string)
	OnDecodeComplete(format string, width, height int, partial bool, duration time.Duration, err error)

	// Trace events (preprocess, label, contour trace, simplify)
	OnTraceStart(mode string)
	OnTraceComplete(mode string, components, contours int, duration time.Duration, err error)

	// Emit events (line generation and sequence building)
	OnEmitStart(layer string)
	OnEmitComplete(layer string, lines, steps int, duration time.Duration, err error)
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnDecodeStart(string)                                          {}
func (NoopPipelineHooks) OnDecodeComplete(string, int, int, bool, time.Duration, error) {}
func (NoopPipelineHooks) OnTraceStart(string)                                           {}
func (NoopPipelineHooks) OnTraceComplete(string, int, int, time.Duration, error)        {}
func (NoopPipelineHooks) OnEmitStart(string)                                            {}
func (NoopPipelineHooks) OnEmitComplete(string, int, int, time.Duration, error)         {}

// fanoutHooks forwards every event to each member in order.
type fanoutHooks []PipelineHooks

func (f fanoutHooks) OnDecodeStart(format string) {
	for _, h := range f {
		h.OnDecodeStart(format)
	}
}

func (f fanoutHooks) OnDecodeComplete(format string, width, height int, partial bool, duration time.Duration, err error) {
	for _, h := range f {
		h.OnDecodeComplete(format, width, height, partial, duration, err)
	}
}

func (f fanoutHooks) OnTraceStart(mode string) {
	for _, h := range f {
		h.OnTraceStart(mode)
	}
}

func (f fanoutHooks) OnTraceComplete(mode string, components, contours int, duration time.Duration, err error) {
	for _, h := range f {
		h.OnTraceComplete(mode, components, contours, duration, err)
	}
}

func (f fanoutHooks) OnEmitStart(layer string) {
	for _, h := range f {
		h.OnEmitStart(layer)
	}
}

func (f fanoutHooks) OnEmitComplete(layer string, lines, steps int, duration time.Duration, err error) {
	for _, h := range f {
		h.OnEmitComplete(layer, lines, steps, duration, err)
	}
}

// Fanout combines several hooks into one that forwards each event to all
// of them, in argument order.
func Fanout(hooks ...PipelineHooks) PipelineHooks {
	return fanoutHooks(hooks)
}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any conversions.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Reset restores the hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
}
