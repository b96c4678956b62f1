package trace

import "context"

// messageKind tags a controlMessage.
type messageKind int

const (
	msgExportSpan messageKind = iota
	msgFlush
	msgShutdown
)

// controlMessage is the single type flowing through a BatchSpanProcessor's
// channel to its worker. reply is nil for a span message and for an
// unobserved flush (a timer tick is handled by run directly, without a
// message). For an observed flush or a shutdown, reply receives one []error
// holding one entry per sub-batch attempted; a shutdown appends the
// exporter's Shutdown error, if any.
type controlMessage struct {
	kind  messageKind
	span  *Span
	reply chan []error
}

// batchWorker is the single consumer of a BatchSpanProcessor's channel. It
// owns the buffer and the exporter exclusively; nothing else touches either.
type batchWorker struct {
	exporter Exporter
	config   BatchConfig
	clock    Clock
	incoming <-chan controlMessage

	buffer []*Span
}

// run drives the worker's state machine: a select over incoming control
// messages and a periodic ticker, exactly the "merge two streams" shape the
// source implements with futures::stream::select, reimplemented as a Go
// select loop per the spec's re-architecting note.
func (w *batchWorker) run() {
	ticker := w.clock.NewTicker(w.config.ScheduledDelay)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-w.incoming:
			if !ok {
				// All producers gone without an explicit Shutdown. Best
				// effort: drain and report, then exit.
				w.reportErrors(w.drain())
				return
			}
			if w.handle(msg) {
				return
			}

		case <-ticker.C():
			// A tick is an unobserved flush: nobody is waiting on a
			// reply, so per-batch errors go straight to the global sink.
			w.reportErrors(w.drain())
		}
	}
}

// handle processes one control message. It returns true when the worker
// should exit (i.e., msg was a Shutdown).
func (w *batchWorker) handle(msg controlMessage) (exit bool) {
	switch msg.kind {
	case msgExportSpan:
		w.enqueue(msg.span)
		return false

	case msgFlush:
		results := w.drain()
		if msg.reply == nil {
			w.reportErrors(results)
		} else {
			w.reply(msg.reply, results)
		}
		return false

	case msgShutdown:
		results := w.drain()
		if err := w.exporter.Shutdown(context.Background()); err != nil {
			results = append(results, &ExportError{Err: err})
		}
		w.reply(msg.reply, results)
		return true

	default:
		return false
	}
}

// enqueue appends span to the buffer, dropping and reporting overflow if
// the buffer is already at capacity.
func (w *batchWorker) enqueue(span *Span) {
	if len(w.buffer) >= w.config.MaxQueueSize {
		handleError(ErrCapacityExceeded)
		return
	}
	w.buffer = append(w.buffer, span)
}

// drain exports the entire current buffer in sub-batches of at most
// MaxExportBatchSize, tail first, until the buffer is empty. Every span
// present at the time drain is called is attempted exactly once; ordering
// across sub-batches is unspecified (tail-first makes a single flush
// newest-to-oldest, per spec). Each sub-batch is copied out of the shared
// buffer before exportWithTimeout races it against the clock, since a timed
// out export may still be running in the background after drain continues
// reslicing the buffer.
func (w *batchWorker) drain() []error {
	if len(w.buffer) == 0 {
		return nil
	}

	results := make([]error, 0, len(w.buffer)/w.config.MaxExportBatchSize+1)
	for len(w.buffer) > 0 {
		cut := len(w.buffer) - w.config.MaxExportBatchSize
		if cut < 0 {
			cut = 0
		}

		batch := make([]*Span, len(w.buffer)-cut)
		copy(batch, w.buffer[cut:])
		w.buffer = w.buffer[:cut]

		results = append(results, w.exportWithTimeout(batch))
	}
	return results
}

// exportWithTimeout races exporter.ExportSpans against the configured
// export timeout. If the timeout wins, the export call is abandoned: its
// goroutine keeps running and its eventual result is discarded into a
// buffered channel nobody reads again, matching the design note that the
// exporter's own work may continue in the background after the caller sees
// a timeout.
func (w *batchWorker) exportWithTimeout(batch []*Span) error {
	done := make(chan error, 1)
	go func() {
		done <- w.exporter.ExportSpans(context.Background(), batch)
	}()

	timer := w.clock.NewTimer(w.config.ExportTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return &ExportError{Err: err}
		}
		return nil
	case <-timer.C():
		return &ExportTimeoutError{Timeout: w.config.ExportTimeout}
	}
}

// reply sends results on ch without blocking. If the channel's one slot is
// already occupied, ErrWorkerGone is reported to the global sink instead of
// blocking the worker forever. Because ch is buffered, a caller that has
// stopped waiting (its context ended) is not detected: the send succeeds and
// nothing is reported.
func (w *batchWorker) reply(ch chan []error, results []error) {
	if ch == nil {
		return
	}
	select {
	case ch <- results:
	default:
		handleError(ErrWorkerGone)
	}
}

// reportErrors sends every non-nil error in results to the global sink.
func (w *batchWorker) reportErrors(results []error) {
	for _, err := range results {
		if err != nil {
			handleError(err)
		}
	}
}
