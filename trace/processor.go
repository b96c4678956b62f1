package trace

import (
	"context"
	"sync"
)

// Exporter exports finished spans to an external system. Export is expected
// to be asynchronous and may be long-running; implementations must tolerate
// being abandoned mid-call if the caller enforces its own timeout. Shutdown
// is called exactly once, after which Export is never called again.
type Exporter interface {
	ExportSpans(ctx context.Context, spans []*Span) error
	Shutdown(ctx context.Context) error
}

// SpanProcessor is the seam between a Tracer and an Exporter. OnStart and
// OnEnd are called synchronously from the code path that starts and ends a
// span, so neither may block on I/O. ForceFlush and Shutdown are the only
// operations that block, and only the calling goroutine.
type SpanProcessor interface {
	// OnStart is called when a span is started, on the goroutine that
	// started it. It must not block.
	OnStart(span *Span, ctx context.Context)
	// OnEnd is called after a span ends, on the goroutine that ended it.
	// It must not block on I/O; failures are reported to the global error
	// sink rather than returned.
	OnEnd(span *Span)
	// ForceFlush blocks until every span buffered at the time of the call
	// has been handed to the exporter, or returns the first error
	// encountered doing so.
	ForceFlush(ctx context.Context) error
	// Shutdown blocks until the processor has drained and the exporter has
	// been shut down. A processor that has already been shut down fails
	// predictably rather than succeeding silently a second time.
	Shutdown(ctx context.Context) error
}

// SimpleSpanProcessor exports every span synchronously as it ends, holding
// one Exporter behind a mutex. It trades per-span I/O latency for minimal
// buffering and memory; prefer it for tests and low-volume sources.
type SimpleSpanProcessor struct {
	mu       sync.Mutex
	exporter Exporter
	poisoned bool
}

// NewSimpleSpanProcessor creates a SimpleSpanProcessor wrapping exporter.
func NewSimpleSpanProcessor(exporter Exporter) *SimpleSpanProcessor {
	return &SimpleSpanProcessor{exporter: exporter}
}

// OnStart is a no-op.
func (p *SimpleSpanProcessor) OnStart(span *Span, ctx context.Context) {}

// OnEnd synchronously exports span. Failures go to the global error sink,
// never to the caller.
func (p *SimpleSpanProcessor) OnEnd(span *Span) {
	if err := p.export(span); err != nil {
		handleError(err)
	}
}

// export runs exporter.ExportSpans under the lock. Go's sync.Mutex has no
// notion of poisoning, unlike the source's std::sync::Mutex; a panic inside
// Exporter.ExportSpans is recovered here and latches poisoned so behavior
// still matches "the lock is permanently unusable after a failed holder".
func (p *SimpleSpanProcessor) export(span *Span) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.poisoned {
		return ErrPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			p.poisoned = true
			err = ErrPoisoned
		}
	}()

	if exportErr := p.exporter.ExportSpans(context.Background(), []*Span{span}); exportErr != nil {
		return &ExportError{Err: exportErr}
	}
	return nil
}

// ForceFlush is a no-op: SimpleSpanProcessor never buffers spans.
func (p *SimpleSpanProcessor) ForceFlush(ctx context.Context) error {
	return nil
}

// Shutdown calls the exporter's Shutdown under the lock. It keeps no record
// of having been called: every call reaches the exporter's Shutdown again,
// and OnEnd after Shutdown still calls the exporter's ExportSpans.
func (p *SimpleSpanProcessor) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.poisoned {
		return ErrPoisoned
	}
	return p.exporter.Shutdown(ctx)
}
