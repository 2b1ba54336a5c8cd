// Package singleview provides the reference single-view builder: a pure
// function turning one cell's channel binding into a mark/encoding fragment.
// Host applications embedding drey may supply their own builder; the CLI and
// the examples use this one.
package singleview

import (
	"github.com/dyluth/drey/pkg/vizspec"
)

// Build implements vizspec.SingleViewBuilder.
func Build(binding vizspec.ChannelBinding, flags vizspec.BuildFlags) vizspec.ViewFragment {
	encoding := make(map[string]any)

	setPositional(encoding, "x", binding.X, flags)
	setPositional(encoding, "y", binding.Y, flags)
	setChannel(encoding, "color", binding.Color, flags)
	setChannel(encoding, "opacity", binding.Opacity, flags)
	setChannel(encoding, "size", binding.Size, flags)
	setChannel(encoding, "shape", binding.Shape, flags)
	setChannel(encoding, "theta", binding.Theta, flags)
	setChannel(encoding, "radius", binding.Radius, flags)

	if len(binding.Details) > 0 {
		details := make([]any, 0, len(binding.Details))
		for i := range binding.Details {
			details = append(details, fieldEncoding(&binding.Details[i], flags))
		}
		encoding["detail"] = details
	}

	// Facet channels never aggregate and never carry a legend.
	if binding.Row != nil {
		encoding["row"] = map[string]any{
			"field": binding.Row.FieldID,
			"type":  "nominal",
		}
	}
	if binding.Column != nil {
		encoding["column"] = map[string]any{
			"field": binding.Column.FieldID,
			"type":  "nominal",
		}
	}

	return vizspec.ViewFragment{
		Mark: map[string]any{
			"type": string(flags.GeomType),
		},
		Encoding: encoding,
	}
}

// setPositional writes a positional channel encoding, applying the stack
// mode to measures.
func setPositional(encoding map[string]any, channel string, f *vizspec.FieldDescriptor, flags vizspec.BuildFlags) {
	if f == nil {
		return
	}
	enc := fieldEncoding(f, flags)
	if f.AnalyticType == vizspec.AnalyticTypeMeasure {
		switch flags.StackMode {
		case vizspec.StackModeNone:
			enc["stack"] = nil
		case vizspec.StackModeNormalize:
			enc["stack"] = "normalize"
		}
	}
	encoding[channel] = enc
}

// setChannel writes a non-positional channel encoding, hiding the legend
// when the cell is not the one responsible for showing it.
func setChannel(encoding map[string]any, channel string, f *vizspec.FieldDescriptor, flags vizspec.BuildFlags) {
	if f == nil {
		return
	}
	enc := fieldEncoding(f, flags)
	if flags.HideLegend {
		enc["legend"] = nil
	}
	encoding[channel] = enc
}

// fieldEncoding builds the base encoding object for one field.
func fieldEncoding(f *vizspec.FieldDescriptor, flags vizspec.BuildFlags) map[string]any {
	enc := map[string]any{
		"field": f.FieldID,
	}
	if f.Name != "" {
		enc["title"] = f.Name
	}

	if f.AnalyticType == vizspec.AnalyticTypeMeasure {
		enc["type"] = "quantitative"
		if flags.DefaultAggregated {
			agg := f.Aggregation
			if agg == vizspec.AggregationNone {
				agg = vizspec.AggregationSum
			}
			enc["aggregate"] = string(agg)
		}
	} else {
		enc["type"] = "nominal"
	}

	return enc
}
