package trace

import "time"

// Clock abstracts the timer and ticker construction the batch worker needs,
// standing in for the source implementation's injected spawn/interval/sleep
// functions. Tests supply a fake Clock to drive the worker's timer-based
// transitions deterministically; production code uses realClock.
type Clock interface {
	// NewTicker returns a Ticker that fires every d, used to drive the
	// worker's unobserved, periodic flush.
	NewTicker(d time.Duration) Ticker
	// NewTimer returns a Timer that fires once after d, used to bound a
	// single sub-batch export.
	NewTimer(d time.Duration) Timer
}

// Ticker is the subset of *time.Ticker the worker depends on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Timer is the subset of *time.Timer the worker depends on.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// realClock is the production Clock, backed directly by the time package.
type realClock struct{}

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (realClock) NewTimer(d time.Duration) Timer {
	return &realTimer{t: time.NewTimer(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

type realTimer struct {
	t *time.Timer
}

func (r *realTimer) C() <-chan time.Time { return r.t.C }
func (r *realTimer) Stop() bool          { return r.t.Stop() }
