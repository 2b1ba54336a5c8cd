// Package renderer defines the contract drey consumes from a rendering
// engine. The engine itself is an external collaborator: anything that can
// embed a composite spec into an anchor and hand back a live handle exposing
// selection signals, state snapshot/restore and raster/vector export.
package renderer

import (
	"context"
	"fmt"

	"github.com/dyluth/drey/pkg/vizspec"
)

// SignalKind is the closed set of selection signals drey listens to.
// Using a tagged variant instead of raw signal-name strings keeps the
// handling exhaustive: a switch over SignalKind has no default leak.
type SignalKind int

const (
	// SignalBrush is the interval (brush) selection store signal
	SignalBrush SignalKind = iota

	// SignalPoint is the point (click) selection store signal
	SignalPoint
)

// SignalKinds returns every signal kind, in a stable order.
func SignalKinds() []SignalKind {
	return []SignalKind{SignalBrush, SignalPoint}
}

// String returns the kind's name.
func (k SignalKind) String() string {
	switch k {
	case SignalBrush:
		return "brush"
	case SignalPoint:
		return "point"
	default:
		return fmt.Sprintf("SignalKind(%d)", int(k))
	}
}

// StoreSignal returns the renderer-native store signal name for this kind.
func (k SignalKind) StoreSignal() string {
	switch k {
	case SignalBrush:
		return vizspec.SelectionParamBrush + "_store"
	case SignalPoint:
		return vizspec.SelectionParamPoint + "_store"
	default:
		return ""
	}
}

// Validate checks if the SignalKind is a valid enum value.
func (k SignalKind) Validate() error {
	switch k {
	case SignalBrush, SignalPoint:
		return nil
	default:
		return fmt.Errorf("unknown signal kind: %d", int(k))
	}
}

// SelectionState is a snapshot of one selection store: the list of selected
// tuples. An empty (or nil) state means no active selection.
type SelectionState []map[string]any

// Empty reports whether the snapshot carries no active selection.
func (s SelectionState) Empty() bool {
	return len(s) == 0
}

// SignalListener receives selection-state signal firings from a handle.
type SignalListener func(kind SignalKind, state SelectionState)

// EventListener receives renderer-native DOM-level events ("click",
// "mouseover", ...) with their payload.
type EventListener func(event string, payload map[string]any)

// ClickHandler is the click-passthrough callback: invoked with the
// point-selection payload and the native click event payload whenever a
// non-empty point selection coincides with a click.
type ClickHandler func(selection SelectionState, event map[string]any)

// EmbedOptions tune a single embed call.
type EmbedOptions struct {
	Mode        string // spec dialect hint, e.g. "vega-lite"
	Renderer    string // output backend hint, e.g. "canvas" or "svg"
	ShowActions bool   // whether the renderer shows its action menu
}

// Handle is a live embedded view. Implementations must be safe for
// concurrent use: drey reads state and attaches listeners from multiple
// goroutines during an embed cycle.
type Handle interface {
	// AddSignalListener subscribes to a selection store signal.
	// Returns an error if the underlying view does not expose the signal.
	AddSignalListener(kind SignalKind, fn SignalListener) error

	// AddEventListener subscribes to a renderer-native event by name.
	AddEventListener(event string, fn EventListener) error

	// GetState returns the current snapshot of a selection store.
	GetState(kind SignalKind) SelectionState

	// SetState writes a selection snapshot into the live view. The write
	// re-fires the corresponding signal listeners, exactly as a user
	// interaction would.
	SetState(kind SignalKind, state SelectionState) error

	// ToSVG exports the view as serialized vector markup.
	ToSVG() (string, error)

	// ToCanvas exports the view as raster image data at the given scale.
	ToCanvas(scale float64) ([]byte, error)
}

// Renderer embeds composite specs and returns live handles. Embed blocks
// until the view has completed layout/compilation, or fails.
type Renderer interface {
	Embed(ctx context.Context, anchor string, spec *vizspec.CompositeSpec, opts EmbedOptions) (Handle, error)
}
