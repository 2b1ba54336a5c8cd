package vizspec

import (
	"fmt"
)

// AnalyticType defines the role a field plays in analysis.
// Dimensions subdivide the data; measures are the quantities plotted.
type AnalyticType string

const (
	// AnalyticTypeDimension marks a categorical/grouping field
	AnalyticTypeDimension AnalyticType = "dimension"

	// AnalyticTypeMeasure marks a quantitative field
	AnalyticTypeMeasure AnalyticType = "measure"
)

// Aggregation defines how a measure is aggregated when the chart is in
// aggregated mode. The empty value means no aggregation.
type Aggregation string

const (
	AggregationNone   Aggregation = ""
	AggregationSum    Aggregation = "sum"
	AggregationMean   Aggregation = "mean"
	AggregationMedian Aggregation = "median"
	AggregationCount  Aggregation = "count"
	AggregationMin    Aggregation = "min"
	AggregationMax    Aggregation = "max"
)

// FieldDescriptor identifies a data column and its analytic role.
// Descriptors are immutable value objects. Equality is by FieldID only:
// the same column dragged onto two channels is still one field.
type FieldDescriptor struct {
	FieldID      string       `json:"field_id"`              // Column identifier in the row set
	Name         string       `json:"name,omitempty"`        // Human-readable label (defaults to FieldID)
	AnalyticType AnalyticType `json:"analytic_type"`         // dimension or measure
	Aggregation  Aggregation  `json:"aggregation,omitempty"` // Only meaningful for measures
}

// Equal reports whether two descriptors identify the same field.
func (f FieldDescriptor) Equal(other FieldDescriptor) bool {
	return f.FieldID == other.FieldID
}

// Label returns the display name, falling back to the field ID.
func (f FieldDescriptor) Label() string {
	if f.Name != "" {
		return f.Name
	}
	return f.FieldID
}

// Validate checks if the FieldDescriptor has valid field values.
// Returns an error if any validation fails.
func (f FieldDescriptor) Validate() error {
	if f.FieldID == "" {
		return fmt.Errorf("field ID cannot be empty")
	}

	if err := f.AnalyticType.Validate(); err != nil {
		return fmt.Errorf("field %q: %w", f.FieldID, err)
	}

	if err := f.Aggregation.Validate(); err != nil {
		return fmt.Errorf("field %q: %w", f.FieldID, err)
	}

	if f.AnalyticType == AnalyticTypeDimension && f.Aggregation != AggregationNone {
		return fmt.Errorf("field %q: dimensions cannot carry an aggregation", f.FieldID)
	}

	return nil
}

// Validate checks if the AnalyticType is a valid enum value.
func (at AnalyticType) Validate() error {
	switch at {
	case AnalyticTypeDimension, AnalyticTypeMeasure:
		return nil
	default:
		return fmt.Errorf("unknown analytic type: %q", at)
	}
}

// Validate checks if the Aggregation is a valid enum value.
func (a Aggregation) Validate() error {
	switch a {
	case AggregationNone, AggregationSum, AggregationMean, AggregationMedian,
		AggregationCount, AggregationMin, AggregationMax:
		return nil
	default:
		return fmt.Errorf("unknown aggregation: %q", a)
	}
}

// ChannelAssignment maps visual channels to fields. It is owned by the host
// application's field store and treated as read-only by drey.
//
// Rows and Columns are the positional axes: they may carry several fields,
// which is what produces repeated and faceted views. The remaining channels
// carry at most one field each, except Details which is a list.
type ChannelAssignment struct {
	Rows    []FieldDescriptor `json:"rows,omitempty"`
	Columns []FieldDescriptor `json:"columns,omitempty"`
	Color   *FieldDescriptor  `json:"color,omitempty"`
	Opacity *FieldDescriptor  `json:"opacity,omitempty"`
	Size    *FieldDescriptor  `json:"size,omitempty"`
	Shape   *FieldDescriptor  `json:"shape,omitempty"`
	Theta   *FieldDescriptor  `json:"theta,omitempty"`
	Radius  *FieldDescriptor  `json:"radius,omitempty"`
	Details []FieldDescriptor `json:"details,omitempty"`
}

// Validate checks every assigned field descriptor.
func (a *ChannelAssignment) Validate() error {
	for i, f := range a.Rows {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("rows[%d]: %w", i, err)
		}
	}
	for i, f := range a.Columns {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("columns[%d]: %w", i, err)
		}
	}
	for channel, f := range map[string]*FieldDescriptor{
		"color": a.Color, "opacity": a.Opacity, "size": a.Size,
		"shape": a.Shape, "theta": a.Theta, "radius": a.Radius,
	} {
		if f == nil {
			continue
		}
		if err := f.Validate(); err != nil {
			return fmt.Errorf("%s: %w", channel, err)
		}
	}
	for i, f := range a.Details {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("details[%d]: %w", i, err)
		}
	}
	return nil
}

// BoundFieldIDs returns the ID of every field bound to any channel, in a
// stable order and without duplicates. These are the fields the global
// point-selection parameter selects on.
func (a *ChannelAssignment) BoundFieldIDs() []string {
	var ids []string
	seen := make(map[string]bool)

	add := func(f *FieldDescriptor) {
		if f == nil || seen[f.FieldID] {
			return
		}
		seen[f.FieldID] = true
		ids = append(ids, f.FieldID)
	}

	for i := range a.Rows {
		add(&a.Rows[i])
	}
	for i := range a.Columns {
		add(&a.Columns[i])
	}
	add(a.Color)
	add(a.Opacity)
	add(a.Size)
	add(a.Shape)
	add(a.Theta)
	add(a.Radius)
	for i := range a.Details {
		add(&a.Details[i])
	}

	return ids
}

// GeomType selects the mark geometry for every view.
type GeomType string

const (
	GeomTypeBar     GeomType = "bar"
	GeomTypeLine    GeomType = "line"
	GeomTypeArea    GeomType = "area"
	GeomTypePoint   GeomType = "point"
	GeomTypeCircle  GeomType = "circle"
	GeomTypeTick    GeomType = "tick"
	GeomTypeRect    GeomType = "rect"
	GeomTypeArc     GeomType = "arc"
	GeomTypeBoxplot GeomType = "boxplot"
)

// Validate checks if the GeomType is a valid enum value.
func (g GeomType) Validate() error {
	switch g {
	case GeomTypeBar, GeomTypeLine, GeomTypeArea, GeomTypePoint, GeomTypeCircle,
		GeomTypeTick, GeomTypeRect, GeomTypeArc, GeomTypeBoxplot:
		return nil
	default:
		return fmt.Errorf("unknown geom type: %q", g)
	}
}

// StackMode controls how overlapping marks stack.
type StackMode string

const (
	StackModeNone      StackMode = "none"
	StackModeStack     StackMode = "stack"
	StackModeNormalize StackMode = "normalize"
)

// Validate checks if the StackMode is a valid enum value.
func (s StackMode) Validate() error {
	switch s {
	case StackModeNone, StackModeStack, StackModeNormalize:
		return nil
	default:
		return fmt.Errorf("unknown stack mode: %q", s)
	}
}

// LayoutMode controls how views are sized.
type LayoutMode string

const (
	// LayoutModeAuto lets the renderer size views from their container
	LayoutModeAuto LayoutMode = "auto"

	// LayoutModeFixed uses the explicit Width/Height from the config
	LayoutModeFixed LayoutMode = "fixed"
)

// Validate checks if the LayoutMode is a valid enum value.
func (l LayoutMode) Validate() error {
	switch l {
	case LayoutModeAuto, LayoutModeFixed:
		return nil
	default:
		return fmt.Errorf("unknown layout mode: %q", l)
	}
}

// VizConfig is the configuration bag supplied by the host application
// alongside the channel assignment. It is re-read on every change.
type VizConfig struct {
	DefaultAggregated bool       `json:"default_aggregated"`
	StackMode         StackMode  `json:"stack_mode"`
	InteractiveScale  bool       `json:"interactive_scale"`
	GeomType          GeomType   `json:"geom_type"`
	LayoutMode        LayoutMode `json:"layout_mode"`
	Width             int        `json:"width"`
	Height            int        `json:"height"`
	ShowActions       bool       `json:"show_actions"`

	// ThrottleDivisor tunes the interaction bus broadcast window:
	// interval = rows * cols * dataLength / ThrottleDivisor milliseconds.
	// Zero means DefaultThrottleDivisor.
	ThrottleDivisor int `json:"throttle_divisor,omitempty"`
}

// DefaultThrottleDivisor is the default divisor for the bus throttle window.
const DefaultThrottleDivisor = 64

// DefaultVizConfig returns a config with sensible defaults: aggregated bar
// chart, auto layout, no pan/zoom.
func DefaultVizConfig() VizConfig {
	return VizConfig{
		DefaultAggregated: true,
		StackMode:         StackModeStack,
		GeomType:          GeomTypeBar,
		LayoutMode:        LayoutModeAuto,
		Width:             800,
		Height:            600,
	}
}

// Validate checks if the VizConfig has valid field values.
func (c *VizConfig) Validate() error {
	if err := c.StackMode.Validate(); err != nil {
		return err
	}
	if err := c.GeomType.Validate(); err != nil {
		return err
	}
	if err := c.LayoutMode.Validate(); err != nil {
		return err
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("width and height cannot be negative")
	}
	if c.ThrottleDivisor < 0 {
		return fmt.Errorf("throttle divisor cannot be negative")
	}
	return nil
}
