// Package gridplan derives the view grid geometry from the positional
// channel assignments. The plan is a pure derivation: it has no lifetime of
// its own and is recomputed whenever the row/column assignments or the
// aggregation mode change.
package gridplan

import (
	"github.com/dyluth/drey/pkg/vizspec"
)

// AxisPlan describes one grid axis (rows or columns).
//
// RepeatFields produce one view each along the axis: the axis's measures
// when it has any, otherwise its last dimension. FacetFields are the
// dimensions not consumed by the repeat; they subdivide each view into
// sub-panels rather than producing separate views, and only the innermost
// one is actually bound into a view's facet channel.
type AxisPlan struct {
	RepeatFields []vizspec.FieldDescriptor
	FacetFields  []vizspec.FieldDescriptor
	Count        int // number of views along this axis, always >= 1
}

// PrimaryFacet returns the innermost facet field, or nil when the axis does
// not facet.
func (a AxisPlan) PrimaryFacet() *vizspec.FieldDescriptor {
	if len(a.FacetFields) == 0 {
		return nil
	}
	return &a.FacetFields[len(a.FacetFields)-1]
}

// RepeatField returns the i-th repeat field, or nil when the axis has none.
func (a AxisPlan) RepeatField(i int) *vizspec.FieldDescriptor {
	if i < 0 || i >= len(a.RepeatFields) {
		return nil
	}
	return &a.RepeatFields[i]
}

// Plan is the derived grid geometry for one channel assignment.
type Plan struct {
	Row AxisPlan
	Col AxisPlan
}

// ViewCount returns the number of grid cells, always >= 1.
func (p Plan) ViewCount() int {
	return p.Row.Count * p.Col.Count
}

// ViewIndex returns the stable cell index for grid position (i, j),
// row-major. This index tags the cell's composite spec and identifies the
// cell on the interaction bus.
func (p Plan) ViewIndex(i, j int) int {
	return i*p.Col.Count + j
}

// Compute derives the grid plan from the positional channel assignments.
// defaultAggregated is part of the plan's dependency set (a change in
// aggregation mode forces a replan) but does not alter the repeat/facet
// policy, which depends only on analytic roles.
func Compute(rows, cols []vizspec.FieldDescriptor, defaultAggregated bool) Plan {
	_ = defaultAggregated
	return Plan{
		Row: planAxis(rows),
		Col: planAxis(cols),
	}
}

// planAxis splits one axis's fields into repeat and facet fields.
//
// Policy: measures always repeat, one view per measure, and every dimension
// on the axis facets. With no measures, the last dimension is popped off as
// the repeat (positional) binding and the remaining dimensions facet. An
// axis with no fields yields exactly one view and no faceting.
func planAxis(fields []vizspec.FieldDescriptor) AxisPlan {
	var dims, measures []vizspec.FieldDescriptor
	for _, f := range fields {
		if f.AnalyticType == vizspec.AnalyticTypeMeasure {
			measures = append(measures, f)
		} else {
			dims = append(dims, f)
		}
	}

	repeat := measures
	facets := dims
	if len(measures) == 0 && len(dims) > 0 {
		repeat = dims[len(dims)-1:]
		facets = dims[:len(dims)-1]
	}

	count := len(repeat)
	if count < 1 {
		count = 1
	}

	return AxisPlan{
		RepeatFields: repeat,
		FacetFields:  facets,
		Count:        count,
	}
}
