// Package testutil provides in-memory test doubles shared by drey's test
// suites, chiefly a controllable fake renderer: embeds can be gated to
// resolve in a chosen order, forced to fail per view, and handles fire their
// signal listeners synchronously on state writes the way a live renderer
// echoes them.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/dyluth/drey/pkg/renderer"
	"github.com/dyluth/drey/pkg/vizspec"
)

// StateWrite records one SetState call on a fake handle.
type StateWrite struct {
	Kind  renderer.SignalKind
	State renderer.SelectionState
}

// FakeHandle implements renderer.Handle in memory.
type FakeHandle struct {
	mu              sync.Mutex
	states          map[renderer.SignalKind]renderer.SelectionState
	signalListeners map[renderer.SignalKind][]renderer.SignalListener
	eventListeners  map[string][]renderer.EventListener
	stateWrites     []StateWrite

	// SVG/PNG are what the export methods return.
	SVG string
	PNG []byte

	// SignalErr, when set, is returned from AddSignalListener, simulating a
	// view that does not expose selection signals.
	SignalErr error

	// SVGErr, when set, is returned from ToSVG.
	SVGErr error
}

// NewFakeHandle creates a handle with empty selection stores.
func NewFakeHandle() *FakeHandle {
	return &FakeHandle{
		states:          make(map[renderer.SignalKind]renderer.SelectionState),
		signalListeners: make(map[renderer.SignalKind][]renderer.SignalListener),
		eventListeners:  make(map[string][]renderer.EventListener),
		SVG:             "<svg/>",
		PNG:             []byte{0x89, 'P', 'N', 'G'},
	}
}

func (h *FakeHandle) AddSignalListener(kind renderer.SignalKind, fn renderer.SignalListener) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.SignalErr != nil {
		return h.SignalErr
	}
	h.signalListeners[kind] = append(h.signalListeners[kind], fn)
	return nil
}

func (h *FakeHandle) AddEventListener(event string, fn renderer.EventListener) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.eventListeners[event] = append(h.eventListeners[event], fn)
	return nil
}

func (h *FakeHandle) GetState(kind renderer.SignalKind) renderer.SelectionState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.states[kind]
}

// SetState stores the snapshot, records the write, and fires the kind's
// signal listeners synchronously, the echo a live renderer produces.
func (h *FakeHandle) SetState(kind renderer.SignalKind, state renderer.SelectionState) error {
	h.mu.Lock()
	h.states[kind] = state
	h.stateWrites = append(h.stateWrites, StateWrite{Kind: kind, State: state})
	listeners := append([]renderer.SignalListener(nil), h.signalListeners[kind]...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(kind, state)
	}
	return nil
}

func (h *FakeHandle) ToSVG() (string, error) {
	if h.SVGErr != nil {
		return "", h.SVGErr
	}
	return h.SVG, nil
}

func (h *FakeHandle) ToCanvas(scale float64) ([]byte, error) {
	_ = scale
	return h.PNG, nil
}

// FireSignal simulates a user gesture: the store updates and the kind's
// listeners fire.
func (h *FakeHandle) FireSignal(kind renderer.SignalKind, state renderer.SelectionState) {
	h.mu.Lock()
	h.states[kind] = state
	listeners := append([]renderer.SignalListener(nil), h.signalListeners[kind]...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(kind, state)
	}
}

// FireEvent simulates a renderer-native event ("click", "mouseover", ...).
func (h *FakeHandle) FireEvent(event string, payload map[string]any) {
	h.mu.Lock()
	listeners := append([]renderer.EventListener(nil), h.eventListeners[event]...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(event, payload)
	}
}

// StateWrites returns a copy of every recorded SetState call.
func (h *FakeHandle) StateWrites() []StateWrite {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]StateWrite(nil), h.stateWrites...)
}

// EmbedCall records one Embed invocation.
type EmbedCall struct {
	Anchor string
	Spec   *vizspec.CompositeSpec
	Opts   renderer.EmbedOptions
}

// FakeRenderer implements renderer.Renderer in memory. One FakeHandle is
// created lazily per view index and survives across embed cycles, so tests
// can hold a reference before the embed resolves.
type FakeRenderer struct {
	mu      sync.Mutex
	embeds  []EmbedCall
	handles map[int]*FakeHandle
	gates   map[int]chan struct{}
	fail    map[int]bool
}

// NewFakeRenderer creates an empty fake renderer.
func NewFakeRenderer() *FakeRenderer {
	return &FakeRenderer{
		handles: make(map[int]*FakeHandle),
		gates:   make(map[int]chan struct{}),
		fail:    make(map[int]bool),
	}
}

// Handle returns (creating if needed) the handle for a view index.
func (r *FakeRenderer) Handle(viewIndex int) *FakeHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handleLocked(viewIndex)
}

func (r *FakeRenderer) handleLocked(viewIndex int) *FakeHandle {
	h, ok := r.handles[viewIndex]
	if !ok {
		h = NewFakeHandle()
		r.handles[viewIndex] = h
	}
	return h
}

// GateView makes the view's next embed block until the returned release
// function is called (or the embed context is cancelled).
func (r *FakeRenderer) GateView(viewIndex int) (release func()) {
	gate := make(chan struct{})
	r.mu.Lock()
	r.gates[viewIndex] = gate
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// FailView makes every embed of the view reject.
func (r *FakeRenderer) FailView(viewIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[viewIndex] = true
}

// EmbedCalls returns a copy of every recorded embed invocation.
func (r *FakeRenderer) EmbedCalls() []EmbedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EmbedCall(nil), r.embeds...)
}

// Embed implements renderer.Renderer.
func (r *FakeRenderer) Embed(ctx context.Context, anchor string, spec *vizspec.CompositeSpec, opts renderer.EmbedOptions) (renderer.Handle, error) {
	r.mu.Lock()
	r.embeds = append(r.embeds, EmbedCall{Anchor: anchor, Spec: spec, Opts: opts})
	gate := r.gates[spec.ViewIndex]
	failed := r.fail[spec.ViewIndex]
	handle := r.handleLocked(spec.ViewIndex)
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if failed {
		return nil, fmt.Errorf("embed rejected for view %d", spec.ViewIndex)
	}

	return handle, nil
}
