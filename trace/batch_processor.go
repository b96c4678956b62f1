package trace

import (
	"context"
	"sync"
	"time"
)

// BatchSpanProcessor buffers ended spans and exports them in batches, either
// on a timer, on demand via ForceFlush, or at Shutdown. It is the concurrent
// counterpart to SimpleSpanProcessor: OnEnd never blocks on exporter I/O.
type BatchSpanProcessor struct {
	incoming chan controlMessage

	shutdownOnce sync.Once
	shutdownErr  error
	done         chan struct{}
}

// NewBatchSpanProcessor builds a BatchSpanProcessor with default
// configuration. Use BatchSpanProcessorBuilder for custom settings.
func NewBatchSpanProcessor(exporter Exporter) *BatchSpanProcessor {
	p, _ := NewBatchSpanProcessorBuilder(exporter).Build()
	return p
}

// BatchSpanProcessorBuilder assembles a BatchSpanProcessor's configuration
// before starting its worker goroutine, mirroring the source's builder
// pattern of accumulating overrides onto environment-resolved defaults.
type BatchSpanProcessorBuilder struct {
	exporter Exporter
	config   BatchConfig
	clock    Clock
}

// NewBatchSpanProcessorBuilder starts from ResolveBatchConfig's
// environment-aware defaults.
func NewBatchSpanProcessorBuilder(exporter Exporter) *BatchSpanProcessorBuilder {
	return &BatchSpanProcessorBuilder{
		exporter: exporter,
		config:   ResolveBatchConfig(),
		clock:    realClock{},
	}
}

// WithMaxQueueSize overrides MaxQueueSize. Values <= 0 are ignored.
func (b *BatchSpanProcessorBuilder) WithMaxQueueSize(n int) *BatchSpanProcessorBuilder {
	if n > 0 {
		b.config.MaxQueueSize = n
	}
	return b
}

// WithScheduledDelay overrides ScheduledDelay. Values <= 0 are ignored.
func (b *BatchSpanProcessorBuilder) WithScheduledDelay(d time.Duration) *BatchSpanProcessorBuilder {
	if d > 0 {
		b.config.ScheduledDelay = d
	}
	return b
}

// WithMaxExportBatchSize overrides MaxExportBatchSize. Values <= 0 are
// ignored. The final value is still clamped to MaxQueueSize by Build.
func (b *BatchSpanProcessorBuilder) WithMaxExportBatchSize(n int) *BatchSpanProcessorBuilder {
	if n > 0 {
		b.config.MaxExportBatchSize = n
	}
	return b
}

// WithMaxExportTimeout overrides ExportTimeout. Values <= 0 are ignored.
func (b *BatchSpanProcessorBuilder) WithMaxExportTimeout(d time.Duration) *BatchSpanProcessorBuilder {
	if d > 0 {
		b.config.ExportTimeout = d
	}
	return b
}

// withClock overrides the Clock used by the worker. Unexported: only tests
// in this package need a fake clock.
func (b *BatchSpanProcessorBuilder) withClock(c Clock) *BatchSpanProcessorBuilder {
	b.clock = c
	return b
}

// Build applies the final MaxExportBatchSize/MaxQueueSize clamp, starts the
// worker goroutine, and returns the running processor.
func (b *BatchSpanProcessorBuilder) Build() (*BatchSpanProcessor, BatchConfig) {
	if b.config.MaxExportBatchSize > b.config.MaxQueueSize {
		b.config.MaxExportBatchSize = b.config.MaxQueueSize
	}

	// The control channel shares MaxQueueSize with the worker's own buffer:
	// spec.md's MessageChannel capacity is defined as queue_size, so a
	// producer that sends no more than MaxQueueSize spans before the worker
	// drains never sees try_send drop one for want of channel room, only for
	// want of buffer room (the same bound, enforced in one place instead of
	// two).
	ch := make(chan controlMessage, b.config.MaxQueueSize)
	w := &batchWorker{
		exporter: b.exporter,
		config:   b.config,
		clock:    b.clock,
		incoming: ch,
	}

	p := &BatchSpanProcessor{
		incoming: ch,
		done:     make(chan struct{}),
	}
	go func() {
		w.run()
		close(p.done)
	}()

	return p, b.config
}

// OnStart is a no-op: BatchSpanProcessor only buffers on end.
func (p *BatchSpanProcessor) OnStart(span *Span, ctx context.Context) {}

// OnEnd hands span to the worker without blocking on export. If the control
// channel itself is full (the worker is badly backed up), the span is
// dropped and reported to the global error sink, same as a full worker
// buffer.
func (p *BatchSpanProcessor) OnEnd(span *Span) {
	select {
	case p.incoming <- controlMessage{kind: msgExportSpan, span: span}:
	default:
		handleError(ErrCapacityExceeded)
	}
}

// ForceFlush blocks until every span buffered at the time of the call has
// been handed to the exporter, returning the first error encountered.
func (p *BatchSpanProcessor) ForceFlush(ctx context.Context) error {
	reply := make(chan []error, 1)
	select {
	case p.incoming <- controlMessage{kind: msgFlush, reply: reply}:
	default:
		return ErrCapacityExceeded
	}

	select {
	case results := <-reply:
		return firstError(results)
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrWorkerGone
	}
}

// Shutdown flushes any buffered spans, shuts down the exporter, and stops
// the worker. It may be called exactly once; subsequent calls return
// ErrWorkerGone rather than silently succeeding, since there is no worker
// left to drain anything a second time.
func (p *BatchSpanProcessor) Shutdown(ctx context.Context) error {
	called := true
	p.shutdownOnce.Do(func() {
		called = false
		reply := make(chan []error, 1)
		select {
		case p.incoming <- controlMessage{kind: msgShutdown, reply: reply}:
			select {
			case results := <-reply:
				p.shutdownErr = firstError(results)
			case <-ctx.Done():
				p.shutdownErr = ctx.Err()
			case <-p.done:
				p.shutdownErr = ErrWorkerGone
			}
		default:
			p.shutdownErr = ErrCapacityExceeded
		}
	})
	if called {
		return ErrWorkerGone
	}
	return p.shutdownErr
}

// firstError returns the first non-nil error in results, or nil.
func firstError(results []error) error {
	for _, err := range results {
		if err != nil {
			return err
		}
	}
	return nil
}
