// Package bus implements the interaction bus: the shared, throttled channel
// that relays brush/point selection state between sibling views of one grid.
//
// A bus is instance-scoped: the orchestrator creates one at the start of
// every embed cycle and tears it down when the grid plan is invalidated, so
// two charts mounted in the same process never cross-talk and stale views
// from a prior geometry cannot leak into the new one.
package bus

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dyluth/drey/pkg/renderer"
)

// NoView marks "no view" for hover and highlight-source indices.
const NoView = -1

// Entry is one selection-state change in flight between sibling views.
// Entries are transient: they exist only on the bus during propagation.
type Entry struct {
	Kind       renderer.SignalKind     `json:"kind"`
	SourceView int                     `json:"source_view"`
	Payload    renderer.SelectionState `json:"payload"`

	// SessionID is empty for entries published by this process. The remote
	// bridge stamps its session UUID on entries it relays, so a receiving
	// bridge can drop its own echoes.
	SessionID string `json:"session_id,omitempty"`
}

// Empty reports whether the entry carries no active selection.
func (e Entry) Empty() bool {
	return e.Payload.Empty()
}

// ClearHook is invoked when a view broadcasts an empty selection, before the
// (still broadcast) empty entry passes the throttle.
type ClearHook func(sourceView int)

// Bus is the shared selection relay for one grid geometry. All mutation is
// guarded by a single mutex; delivery callbacks run outside it.
type Bus struct {
	mu      sync.Mutex
	subs    map[int]func(Entry) // view index → deliver
	taps    map[int]func(Entry) // broadcast observers (remote bridge, tests)
	tapSeq  int
	closed  bool
	onClear ClearHook

	throttle *Throttle

	hover        atomic.Int64 // view under the pointer, NoView when none
	activeSource atomic.Int64 // view currently driving cross-filter, NoView when none
}

// New creates a bus whose broadcasts are throttled (trailing-edge only) at
// the given interval. An interval of zero disables rate limiting but keeps
// the trailing-edge delivery semantics.
func New(interval time.Duration) *Bus {
	b := &Bus{
		subs: make(map[int]func(Entry)),
		taps: make(map[int]func(Entry)),
	}
	b.hover.Store(NoView)
	b.activeSource.Store(NoView)
	b.throttle = NewThrottle(interval, b.deliver)
	return b
}

// SetClearHook registers the hook fired when a view clears its selection.
func (b *Bus) SetClearHook(fn ClearHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onClear = fn
}

// Publish pushes an entry onto the bus. The entry passes the trailing-edge
// throttle, so within one window only the most recent entry is delivered.
//
// An empty payload applies the global clear side-effect immediately (the
// highlight source resets and the clear hook fires) and the empty entry is
// still broadcast.
func (b *Bus) Publish(e Entry) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	hook := b.onClear
	b.mu.Unlock()

	if e.Empty() {
		b.activeSource.Store(NoView)
		if hook != nil {
			hook(e.SourceView)
		}
	} else {
		b.activeSource.Store(int64(e.SourceView))
	}

	b.throttle.Push(e)
}

// deliver fans a flushed entry out to every view subscriber and tap.
func (b *Bus) deliver(e Entry) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	fns := make([]func(Entry), 0, len(b.subs)+len(b.taps))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	for _, fn := range b.taps {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Subscribe registers a view instance's delivery function. Each view index
// holds at most one subscription; re-subscribing replaces it. The returned
// cancel function removes the subscription and is safe to call twice.
func (b *Bus) Subscribe(viewIndex int, fn func(Entry)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	b.subs[viewIndex] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, viewIndex)
		})
	}
}

// Tap registers a broadcast observer that sees every delivered entry,
// regardless of source. The remote bridge uses this to mirror local
// broadcasts onto Redis.
func (b *Bus) Tap(fn func(Entry)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	b.tapSeq++
	id := b.tapSeq
	b.taps[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.taps, id)
		})
	}
}

// SetHover records which view the pointer is currently over. The hover side
// channel is unthrottled and does not participate in filter propagation.
func (b *Bus) SetHover(viewIndex int) {
	b.hover.Store(int64(viewIndex))
}

// Hover returns the view currently under the pointer, or NoView.
func (b *Bus) Hover() int {
	return int(b.hover.Load())
}

// ActiveSource returns the view currently driving cross-filter highlighting,
// or NoView when no selection is active.
func (b *Bus) ActiveSource() int {
	return int(b.activeSource.Load())
}

// Close tears the bus down: the throttle stops, pending entries are dropped
// and all subscriptions are removed. Safe to call multiple times.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.subs = make(map[int]func(Entry))
	b.taps = make(map[int]func(Entry))
	b.mu.Unlock()

	b.throttle.Stop()
}
