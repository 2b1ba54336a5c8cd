package bus

import (
	"sync"
	"time"

	"github.com/dyluth/drey/pkg/vizspec"
)

// Throttle rate-limits entries with trailing-edge-only semantics: the first
// push in a quiet period opens a window, and when the window elapses the
// most recent entry pushed during it is flushed. Nothing is ever emitted on
// the leading edge, so a rapid burst collapses to one flush per window
// carrying the burst's latest value.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	flush    func(Entry)
	timer    *time.Timer
	pending  *Entry
	stopped  bool
}

// NewThrottle creates a throttle that delivers through flush.
func NewThrottle(interval time.Duration, flush func(Entry)) *Throttle {
	return &Throttle{
		interval: interval,
		flush:    flush,
	}
}

// Push records an entry, replacing any entry already pending in the current
// window, and opens a window if none is open.
func (t *Throttle) Push(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.pending = &e
	if t.timer == nil {
		t.timer = time.AfterFunc(t.interval, t.fire)
	}
}

// fire flushes the pending entry at the end of a window.
func (t *Throttle) fire() {
	t.mu.Lock()
	e := t.pending
	t.pending = nil
	t.timer = nil
	stopped := t.stopped
	t.mu.Unlock()

	if e != nil && !stopped {
		t.flush(*e)
	}
}

// Stop discards any pending entry and prevents further flushes.
// Safe to call multiple times.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// ThrottleInterval computes the broadcast window for a grid:
// rowCount * colCount * dataLength / divisor milliseconds. Larger grids and
// larger datasets broadcast more coarsely, trading latency for render cost.
// The divisor is a tunable policy constant; zero or negative selects
// vizspec.DefaultThrottleDivisor.
func ThrottleInterval(rowCount, colCount, dataLength, divisor int) time.Duration {
	if divisor <= 0 {
		divisor = vizspec.DefaultThrottleDivisor
	}
	if rowCount < 1 {
		rowCount = 1
	}
	if colCount < 1 {
		colCount = 1
	}
	if dataLength < 0 {
		dataLength = 0
	}
	ms := rowCount * colCount * dataLength / divisor
	return time.Duration(ms) * time.Millisecond
}
