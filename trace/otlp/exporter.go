package otlp

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kzs0/bedrock/attr"
	"github.com/kzs0/bedrock/internal"
	"github.com/kzs0/bedrock/trace"
)

// gzipMinBytes is the smallest encoded payload worth paying gzip's CPU cost
// for; small batches go over the wire uncompressed.
const gzipMinBytes = 1024

// ExporterConfig configures the OTLP exporter. It is the concrete,
// wire-level counterpart to trace.BatchConfig: where BatchConfig shapes how
// spans are buffered, ExporterConfig shapes how a drained batch actually
// reaches a collector.
type ExporterConfig struct {
	// Endpoint is the OTLP HTTP endpoint (e.g., "http://localhost:4318/v1/traces").
	Endpoint string
	// Headers are additional HTTP headers to send.
	Headers map[string]string
	// Timeout is the HTTP request timeout.
	Timeout time.Duration
	// ServiceName is the name of the service.
	ServiceName string
	// Resource contains additional resource attributes.
	Resource attr.Set
	// Insecure is not consulted by ExportSpans: the scheme of Endpoint alone
	// decides between HTTP and HTTPS.
	Insecure bool
}

// Exporter ships batches it receives from a trace.SpanProcessor to an OTLP
// HTTP collector as JSON, gzip-compressed once the encoded payload reaches
// gzipMinBytes. It implements trace.Exporter, so
// it plugs into both trace.NewSimpleSpanProcessor and
// trace.NewBatchSpanProcessorBuilder unmodified.
type Exporter struct {
	cfg    ExporterConfig
	client *http.Client

	mu      sync.Mutex
	stopped bool
}

// NewExporter creates a new OTLP exporter targeting cfg.Endpoint.
func NewExporter(cfg ExporterConfig) *Exporter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Exporter{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ExportSpans implements trace.Exporter. Per that interface's contract, a
// call may be abandoned mid-flight by its caller (the batch worker's
// export-with-timeout race): the HTTP request still runs to completion
// against e.client, its result simply going unread.
func (e *Exporter) ExportSpans(ctx context.Context, spans []*trace.Span) error {
	e.mu.Lock()
	stopped := e.stopped
	e.mu.Unlock()
	if stopped {
		return nil
	}

	if len(spans) == 0 {
		return nil
	}

	data, err := EncodeSpans(spans, e.cfg.ServiceName, e.cfg.Resource)
	if err != nil {
		return fmt.Errorf("otlp: failed to encode spans: %w", err)
	}

	body, gzipped, err := maybeCompress(data)
	if err != nil {
		return fmt.Errorf("otlp: failed to compress payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("otlp: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if gzipped {
		req.Header.Set("Content-Encoding", "gzip")
	}
	for k, v := range e.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("otlp: failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("otlp: server returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// maybeCompress gzips data when it is large enough to be worth it, reporting
// whether compression was applied. The intermediate buffer comes from
// internal.BufferPool rather than a fresh allocation per export call, since
// every sub-batch a BatchSpanProcessor drains takes this path.
func maybeCompress(data []byte) ([]byte, bool, error) {
	if len(data) < gzipMinBytes {
		return data, false, nil
	}

	buf := internal.GetBuffer()
	defer internal.PutBuffer(buf)

	zw := gzip.NewWriter(buf)
	if _, err := zw.Write(data); err != nil {
		return nil, false, err
	}
	if err := zw.Close(); err != nil {
		return nil, false, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, true, nil
}

// Shutdown implements trace.Exporter. Once stopped, ExportSpans returns nil
// without sending a request, so a span that still reaches the exporter after
// Shutdown (a SimpleSpanProcessor forwards every OnEnd) is dropped silently.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
	return nil
}
