package orchestrator

import (
	"context"
	"sync"
)

// Readiness is the aggregate readiness state of an embed cycle: a queryable
// current-state flag with a level-triggered wait. It is single-writer (the
// engine) and multi-reader.
//
// Await returns immediately when the flag is already set; otherwise it
// blocks until the next ready transition. SetUnready re-arms the edge for
// the next cycle.
type Readiness struct {
	mu      sync.Mutex
	ready   bool
	waiters chan struct{} // closed on the ready transition
}

// NewReadiness returns a Readiness seeded unready.
func NewReadiness() *Readiness {
	return &Readiness{
		waiters: make(chan struct{}),
	}
}

// Ready reports the current state.
func (r *Readiness) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// SetReady marks the cycle ready and releases every waiter.
// A no-op when already ready.
func (r *Readiness) SetReady() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return
	}
	r.ready = true
	close(r.waiters)
}

// SetUnready marks the cycle unready. Waiters arriving afterwards block
// until the next SetReady. A no-op when already unready.
func (r *Readiness) SetUnready() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return
	}
	r.ready = false
	r.waiters = make(chan struct{})
}

// Await blocks until the state is ready or the context is cancelled.
// Returns immediately when already ready.
func (r *Readiness) Await(ctx context.Context) error {
	r.mu.Lock()
	if r.ready {
		r.mu.Unlock()
		return nil
	}
	ch := r.waiters
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}
