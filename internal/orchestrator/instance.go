package orchestrator

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/dyluth/drey/internal/bus"
	"github.com/dyluth/drey/pkg/renderer"
)

// ViewInstance wires one renderer handle into the interaction bus. One
// instance exists per grid cell for the lifetime of the current grid plan;
// a geometry change tears it down and creates a fresh one, never mutating
// it in place.
type ViewInstance struct {
	index   int
	handle  renderer.Handle
	bus     *bus.Bus
	onClick renderer.ClickHandler

	// suppress marks that the next locally-fired signal is the echo of a
	// state write this instance just received off the bus. The write
	// re-triggers the signal listener exactly once; the CAS guarantees
	// exactly one swallowed echo per write, even off a single event loop.
	suppress atomic.Bool

	cancelSub func()
}

// newViewInstance creates an unattached instance for the given cell.
func newViewInstance(index int, handle renderer.Handle, b *bus.Bus, onClick renderer.ClickHandler) *ViewInstance {
	return &ViewInstance{
		index:   index,
		handle:  handle,
		bus:     b,
		onClick: onClick,
	}
}

// attach taps the handle's selection signals, wires pointer events, and
// subscribes the instance to the bus. Returns an error when the handle does
// not expose a selection signal; the caller treats that as a warning. The
// cell still renders and exports, it just does not cross-filter.
func (vi *ViewInstance) attach() error {
	for _, kind := range renderer.SignalKinds() {
		if err := vi.handle.AddSignalListener(kind, vi.onSignal); err != nil {
			return fmt.Errorf("failed to attach %s listener to view %d: %w", kind, vi.index, err)
		}
	}

	if err := vi.handle.AddEventListener("click", vi.onClickEvent); err != nil {
		return fmt.Errorf("failed to attach click listener to view %d: %w", vi.index, err)
	}
	if err := vi.handle.AddEventListener("mouseover", vi.onMouseOver); err != nil {
		return fmt.Errorf("failed to attach mouseover listener to view %d: %w", vi.index, err)
	}

	vi.cancelSub = vi.bus.Subscribe(vi.index, vi.onBusEntry)
	return nil
}

// teardown cancels the bus subscription. The renderer handle itself is
// discarded by the engine; a signal fired after teardown publishes onto a
// closed bus, which drops it.
func (vi *ViewInstance) teardown() {
	if vi.cancelSub != nil {
		vi.cancelSub()
	}
}

// onSignal handles a selection-state signal fired by this instance's own
// renderer, either from a user gesture or as the echo of a received write.
func (vi *ViewInstance) onSignal(kind renderer.SignalKind, state renderer.SelectionState) {
	if vi.suppress.CompareAndSwap(true, false) {
		// Echo of the state write in onBusEntry; swallowing it instead of
		// re-broadcasting breaks the propagation cycle.
		return
	}

	vi.bus.Publish(bus.Entry{
		Kind:       kind,
		SourceView: vi.index,
		Payload:    state,
	})
}

// onBusEntry applies a broadcast entry from a sibling view. Own emissions
// and empty payloads are ignored: a view never re-applies what it sent, and
// empty updates are not written into siblings to avoid oscillation.
func (vi *ViewInstance) onBusEntry(e bus.Entry) {
	if e.SessionID == "" && e.SourceView == vi.index {
		return
	}
	if e.Empty() {
		return
	}

	vi.suppress.Store(true)
	if err := vi.handle.SetState(e.Kind, e.Payload); err != nil {
		vi.suppress.Store(false)
		log.Printf("[Orchestrator] Failed to apply %s state to view %d: %v", e.Kind, vi.index, err)
	}
}

// onClickEvent implements the click passthrough: when a click coincides with
// a non-empty point selection, the host callback receives the selection
// payload and the native event.
func (vi *ViewInstance) onClickEvent(_ string, payload map[string]any) {
	if vi.onClick == nil {
		return
	}
	state := vi.handle.GetState(renderer.SignalPoint)
	if state.Empty() {
		return
	}
	vi.onClick(state, payload)
}

// onMouseOver tracks the pointer on the bus's unthrottled hover channel.
func (vi *ViewInstance) onMouseOver(_ string, _ map[string]any) {
	vi.bus.SetHover(vi.index)
}
