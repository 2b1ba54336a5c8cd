package vizspec

import "fmt"

// Selection parameter names shared by every compiled view. The renderer
// exposes their live state under "<name>_store" signals.
const (
	SelectionParamPoint = "sel_point"
	SelectionParamBrush = "sel_brush"
)

// Row is one data record, column id → value. The row set arrives already
// filtered and (when aggregation is on) aggregated by the host pipeline;
// drey performs no data transformation.
type Row map[string]any

// DataValues carries the shared inline row set of a composite spec.
type DataValues struct {
	Values []Row `json:"values"`
}

// SelectionParam is a top-level selection parameter of a compiled view.
type SelectionParam struct {
	Name   string         `json:"name"`
	Select map[string]any `json:"select"`
}

// ViewFragment is the mark/encoding fragment produced by a single-view
// builder for one grid cell. Its contents are opaque to drey beyond being
// JSON-serializable.
type ViewFragment struct {
	Mark     map[string]any `json:"mark"`
	Encoding map[string]any `json:"encoding"`
}

// ChannelBinding is the per-cell field assignment handed to a single-view
// builder: the cell's repeat fields on the positional channels, the shared
// non-positional channels, and the innermost facet fields.
type ChannelBinding struct {
	X       *FieldDescriptor
	Y       *FieldDescriptor
	Color   *FieldDescriptor
	Opacity *FieldDescriptor
	Size    *FieldDescriptor
	Shape   *FieldDescriptor
	Theta   *FieldDescriptor
	Radius  *FieldDescriptor
	Details []FieldDescriptor
	Row     *FieldDescriptor // innermost row facet field, nil when unfaceted
	Column  *FieldDescriptor // innermost column facet field, nil when unfaceted
}

// Faceted reports whether the cell subdivides into sub-panels.
func (b ChannelBinding) Faceted() bool {
	return b.Row != nil || b.Column != nil
}

// BuildFlags are the per-cell flags handed to a single-view builder.
type BuildFlags struct {
	DefaultAggregated bool
	StackMode         StackMode
	GeomType          GeomType

	// HideLegend is true for every cell except the one responsible for the
	// shared legend (top row, rightmost column).
	HideLegend bool
}

// SingleViewBuilder turns one cell's channel binding into a mark/encoding
// fragment. It is a pure function consumed by the compiler; drey ships a
// reference implementation but host applications may supply their own.
type SingleViewBuilder func(binding ChannelBinding, flags BuildFlags) ViewFragment

// CompositeSpec is the renderable spec for one grid cell: the builder's
// fragment merged with the shared top-level configuration. ViewIndex is the
// stable cell identifier used as the interaction bus source.
type CompositeSpec struct {
	Name      string           `json:"name"`
	ViewIndex int              `json:"view_index"`
	Width     int              `json:"width,omitempty"`
	Height    int              `json:"height,omitempty"`
	Autosize  string           `json:"autosize,omitempty"`
	Data      DataValues       `json:"data"`
	Params    []SelectionParam `json:"params,omitempty"`
	Mark      map[string]any   `json:"mark"`
	Encoding  map[string]any   `json:"encoding"`
}

// Validate checks structural requirements on a compiled spec.
func (s *CompositeSpec) Validate() error {
	if s.ViewIndex < 0 {
		return fmt.Errorf("view index cannot be negative")
	}
	if s.Name == "" {
		return fmt.Errorf("spec name cannot be empty")
	}
	if s.Mark == nil {
		return fmt.Errorf("spec %q has no mark", s.Name)
	}
	return nil
}
