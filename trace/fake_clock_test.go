package trace

import (
	"sync"
	"time"
)

// fakeClock gives tests control over when tickers and timers fire, standing
// in for wall-clock time the way a fake executor would in the source's own
// test suite. Safe for concurrent use since the worker creates timers from
// its own goroutine while tests drive them from the test goroutine.
type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
	timers  []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{}
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	ft := &fakeTicker{c: make(chan time.Time, 1)}
	c.mu.Lock()
	c.tickers = append(c.tickers, ft)
	c.mu.Unlock()
	return ft
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	ft := &fakeTimer{c: make(chan time.Time, 1)}
	c.mu.Lock()
	c.timers = append(c.timers, ft)
	c.mu.Unlock()
	return ft
}

// advanceTickers fires every ticker created so far once.
func (c *fakeClock) advanceTickers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tickers {
		select {
		case t.c <- time.Now():
		default:
		}
	}
}

// fireTimers fires every timer created so far once, simulating a timeout.
func (c *fakeClock) fireTimers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.timers {
		select {
		case t.c <- time.Now():
		default:
		}
	}
}

// timerCount reports how many timers have been created so far.
func (c *fakeClock) timerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

type fakeTicker struct {
	c chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               {}

type fakeTimer struct {
	c       chan time.Time
	stopped bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.c }
func (t *fakeTimer) Stop() bool {
	wasRunning := !t.stopped
	t.stopped = true
	return wasRunning
}
