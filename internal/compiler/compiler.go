// Package compiler merges per-cell view fragments with the shared top-level
// configuration into the final composite specs handed to the renderer.
package compiler

import (
	"fmt"

	"github.com/dyluth/drey/internal/gridplan"
	"github.com/dyluth/drey/pkg/vizspec"
)

// ViewGutterPx is the fixed pixel gutter subtracted from each view's share
// of the total width/height when multiple repeated views are laid out.
const ViewGutterPx = 5

// Input carries everything the compiler needs for one compile pass. The
// assignment and row set are read-only inputs owned by external
// collaborators; Build is the consumed single-view builder.
type Input struct {
	Assignment vizspec.ChannelAssignment
	Config     vizspec.VizConfig
	Rows       []vizspec.Row
	Build      vizspec.SingleViewBuilder
}

// Compile produces one composite spec per grid cell, ordered by view index
// (row-major). The shared row data, selection parameters and sizing are
// merged into every cell's fragment.
func Compile(plan gridplan.Plan, in Input) ([]*vizspec.CompositeSpec, error) {
	if in.Build == nil {
		return nil, fmt.Errorf("no single-view builder provided")
	}
	if err := in.Assignment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid channel assignment: %w", err)
	}
	if err := in.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid viz config: %w", err)
	}

	multi := plan.ViewCount() > 1
	params := selectionParams(&in.Assignment, &in.Config)

	specs := make([]*vizspec.CompositeSpec, 0, plan.ViewCount())
	for i := 0; i < plan.Row.Count; i++ {
		for j := 0; j < plan.Col.Count; j++ {
			binding := cellBinding(plan, &in.Assignment, i, j)

			flags := vizspec.BuildFlags{
				DefaultAggregated: in.Config.DefaultAggregated,
				StackMode:         in.Config.StackMode,
				GeomType:          in.Config.GeomType,
				// Only the top-row rightmost cell shows the shared legend.
				HideLegend: !(i == 0 && j == plan.Col.Count-1),
			}

			fragment := in.Build(binding, flags)

			idx := plan.ViewIndex(i, j)
			spec := &vizspec.CompositeSpec{
				Name:      fmt.Sprintf("view_%d", idx),
				ViewIndex: idx,
				Data:      vizspec.DataValues{Values: in.Rows},
				Params:    params,
				Mark:      fragment.Mark,
				Encoding:  fragment.Encoding,
			}

			applySizing(spec, &in.Config, plan, binding.Faceted(), multi)

			if err := spec.Validate(); err != nil {
				return nil, fmt.Errorf("cell (%d,%d): %w", i, j, err)
			}
			specs = append(specs, spec)
		}
	}

	return specs, nil
}

// cellBinding assembles the per-cell channel binding: the cell's repeat
// fields on the positional channels, the shared non-positional channels and
// the innermost facet fields.
func cellBinding(plan gridplan.Plan, a *vizspec.ChannelAssignment, i, j int) vizspec.ChannelBinding {
	return vizspec.ChannelBinding{
		X:       plan.Col.RepeatField(j),
		Y:       plan.Row.RepeatField(i),
		Color:   a.Color,
		Opacity: a.Opacity,
		Size:    a.Size,
		Shape:   a.Shape,
		Theta:   a.Theta,
		Radius:  a.Radius,
		Details: a.Details,
		Row:     plan.Row.PrimaryFacet(),
		Column:  plan.Col.PrimaryFacet(),
	}
}

// selectionParams builds the shared top-level selection parameters: the
// global point-selection over every bound field, plus an interval selection
// bound to scales when interactive pan/zoom is on.
func selectionParams(a *vizspec.ChannelAssignment, cfg *vizspec.VizConfig) []vizspec.SelectionParam {
	fieldIDs := a.BoundFieldIDs()
	fields := make([]any, len(fieldIDs))
	for i, id := range fieldIDs {
		fields[i] = id
	}

	params := []vizspec.SelectionParam{
		{
			Name: vizspec.SelectionParamPoint,
			Select: map[string]any{
				"type":   "point",
				"fields": fields,
			},
		},
	}

	if cfg.InteractiveScale {
		params = append(params, vizspec.SelectionParam{
			Name: vizspec.SelectionParamBrush,
			Select: map[string]any{
				"type": "interval",
				"bind": "scales",
			},
		})
	}

	return params
}

// applySizing sets the spec's pixel dimensions and autosize policy.
//
// Single view, fixed layout: explicit width/height; autosize fit only when
// the view is unfaceted, since faceted single views size themselves.
// Multiple views: total size divided by the axis counts minus the gutter,
// and autosize fit is always forced.
func applySizing(spec *vizspec.CompositeSpec, cfg *vizspec.VizConfig, plan gridplan.Plan, faceted, multi bool) {
	if multi {
		spec.Width = cfg.Width/plan.Col.Count - ViewGutterPx
		spec.Height = cfg.Height/plan.Row.Count - ViewGutterPx
		spec.Autosize = "fit"
		return
	}

	if cfg.LayoutMode == vizspec.LayoutModeFixed {
		spec.Width = cfg.Width
		spec.Height = cfg.Height
		if !faceted {
			spec.Autosize = "fit"
		}
	}
}
