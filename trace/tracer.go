package trace

import (
	"context"
	"sync"
	"time"

	"github.com/kzs0/bedrock/attr"
	"github.com/kzs0/bedrock/internal"
)

// Tracer creates spans and manages trace context.
type Tracer struct {
	mu          sync.Mutex
	serviceName string
	resource    attr.Set
	sampler     Sampler
	processor   SpanProcessor
}

// TracerConfig configures the tracer.
type TracerConfig struct {
	ServiceName string
	Resource    attr.Set
	Sampler     Sampler
	Processor   SpanProcessor
}

// NewTracer creates a new tracer. A nil Processor is valid: spans are
// created and sampled normally but never handed anywhere on End, which is
// convenient for tests that only inspect span state directly.
func NewTracer(cfg TracerConfig) *Tracer {
	sampler := cfg.Sampler
	if sampler == nil {
		sampler = AlwaysSampler{}
	}

	return &Tracer{
		serviceName: cfg.ServiceName,
		resource:    cfg.Resource,
		sampler:     sampler,
		processor:   cfg.Processor,
	}
}

// StartSpanOptions configures span creation.
type StartSpanOptions struct {
	Kind   SpanKind
	Attrs  []attr.Attr
	Parent *Span
}

// Start creates a new span.
func (t *Tracer) Start(ctx context.Context, name string, opts ...StartSpanOption) (context.Context, *Span) {
	var options StartSpanOptions
	for _, opt := range opts {
		opt(&options)
	}

	// Get parent span from context if not explicitly provided
	parent := options.Parent
	if parent == nil {
		parent = SpanFromContext(ctx)
	}

	var traceID internal.TraceID
	var parentID internal.SpanID
	var parentSampled bool

	if parent != nil {
		traceID = parent.traceID
		parentID = parent.spanID
		parentSampled = true // If parent exists and wasn't dropped, it was sampled
	} else {
		traceID = internal.NewTraceID()
	}

	// Check sampling decision
	result := t.sampler.ShouldSample(traceID, name, parentSampled)
	if result.Decision == SamplingDecisionDrop {
		// Return a no-op span
		noopSpan := &Span{
			name:      name,
			traceID:   traceID,
			spanID:    internal.NewSpanID(),
			parentID:  parentID,
			startTime: time.Now(),
			ended:     true, // Mark as ended so it's not exported
		}
		return ContextWithSpan(ctx, noopSpan), noopSpan
	}

	span := &Span{
		name:      name,
		traceID:   traceID,
		spanID:    internal.NewSpanID(),
		parentID:  parentID,
		kind:      options.Kind,
		startTime: time.Now(),
		attrs:     attr.NewSet(options.Attrs...),
		tracer:    t,
	}

	if t.processor != nil {
		t.processor.OnStart(span, ctx)
	}

	return ContextWithSpan(ctx, span), span
}

// export hands a completed span to the tracer's processor. The processor
// contract (not the tracer) owns whether that is synchronous, buffered, or
// dropped; the tracer itself never talks to an Exporter directly.
func (t *Tracer) export(span *Span) {
	if t.processor == nil {
		return
	}
	t.processor.OnEnd(span)
}

// ForceFlush blocks until every span buffered by the tracer's processor at
// the time of the call has been handed to its exporter.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	if t.processor == nil {
		return nil
	}
	return t.processor.ForceFlush(ctx)
}

// Shutdown shuts down the tracer's processor and, transitively, its
// exporter.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.processor == nil {
		return nil
	}
	return t.processor.Shutdown(ctx)
}

// ServiceName returns the service name.
func (t *Tracer) ServiceName() string {
	return t.serviceName
}

// Resource returns the resource attributes.
func (t *Tracer) Resource() attr.Set {
	return t.resource
}

// StartSpanOption configures span creation.
type StartSpanOption func(*StartSpanOptions)

// WithSpanKind sets the span kind.
func WithSpanKind(kind SpanKind) StartSpanOption {
	return func(o *StartSpanOptions) {
		o.Kind = kind
	}
}

// WithAttrs sets the initial span attributes.
func WithAttrs(attrs ...attr.Attr) StartSpanOption {
	return func(o *StartSpanOptions) {
		o.Attrs = attrs
	}
}

// WithParent sets the parent span.
func WithParent(parent *Span) StartSpanOption {
	return func(o *StartSpanOptions) {
		o.Parent = parent
	}
}
