package trace

import (
	"context"
	"testing"
	"time"
)

func TestBatchWorkerDrainTailFirst(t *testing.T) {
	exp := &recordingExporter{}
	w := &batchWorker{
		exporter: exp,
		config: BatchConfig{
			MaxQueueSize:       10,
			MaxExportBatchSize: 2,
			ExportTimeout:      time.Second,
		},
		clock: newFakeClock(),
	}

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		w.enqueue(newTestSpan(name))
	}

	results := w.drain()
	for _, err := range results {
		if err != nil {
			t.Fatalf("unexpected export error: %v", err)
		}
	}

	if len(w.buffer) != 0 {
		t.Fatalf("expected buffer to be empty after drain, got %d", len(w.buffer))
	}

	exp.mu.Lock()
	batches := exp.batches
	exp.mu.Unlock()

	if len(batches) != 3 {
		t.Fatalf("expected 3 sub-batches, got %d", len(batches))
	}
	// Tail-first: the newest two spans ("d", "e") are exported first.
	if batches[0][0].Name() != "d" || batches[0][1].Name() != "e" {
		t.Fatalf("expected first sub-batch [d e], got %v", namesOf(batches[0]))
	}
	if batches[1][0].Name() != "b" || batches[1][1].Name() != "c" {
		t.Fatalf("expected second sub-batch [b c], got %v", namesOf(batches[1]))
	}
	if len(batches[2]) != 1 || batches[2][0].Name() != "a" {
		t.Fatalf("expected final sub-batch [a], got %v", namesOf(batches[2]))
	}
}

func namesOf(spans []*Span) []string {
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name()
	}
	return names
}

func TestBatchWorkerEnqueueDropsOnOverflow(t *testing.T) {
	var handled []error
	SetErrorHandler(ErrorHandlerFunc(func(err error) {
		handled = append(handled, err)
	}))
	defer SetErrorHandler(nil)

	w := &batchWorker{
		exporter: &recordingExporter{},
		config:   BatchConfig{MaxQueueSize: 1, MaxExportBatchSize: 1},
		clock:    newFakeClock(),
	}

	w.enqueue(newTestSpan("a"))
	w.enqueue(newTestSpan("b"))

	if len(w.buffer) != 1 {
		t.Fatalf("expected buffer to stay at capacity 1, got %d", len(w.buffer))
	}
	if len(handled) != 1 || handled[0] != ErrCapacityExceeded {
		t.Fatalf("expected one ErrCapacityExceeded report, got %v", handled)
	}
}

func TestBatchWorkerExportWithTimeoutSucceeds(t *testing.T) {
	exp := &recordingExporter{}
	clock := newFakeClock()
	w := &batchWorker{
		exporter: exp,
		config:   BatchConfig{MaxQueueSize: 10, MaxExportBatchSize: 10, ExportTimeout: time.Hour},
		clock:    clock,
	}

	err := w.exportWithTimeout([]*Span{newTestSpan("a")})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestBatchWorkerExportWithTimeoutFires(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	exp := &recordingExporter{
		exportFn: func(ctx context.Context, spans []*Span) error {
			close(started)
			<-release
			return nil
		},
	}
	clock := newFakeClock()
	w := &batchWorker{
		exporter: exp,
		config:   BatchConfig{MaxQueueSize: 10, MaxExportBatchSize: 10, ExportTimeout: time.Millisecond},
		clock:    clock,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.exportWithTimeout([]*Span{newTestSpan("a")})
	}()

	<-started
	for clock.timerCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	clock.fireTimers()

	err := <-errCh
	var timeoutErr *ExportTimeoutError
	if !asExportTimeout(err, &timeoutErr) {
		t.Fatalf("expected ExportTimeoutError, got %v", err)
	}
	close(release)
}

func asExportTimeout(err error, target **ExportTimeoutError) bool {
	e, ok := err.(*ExportTimeoutError)
	if !ok {
		return false
	}
	*target = e
	return true
}
