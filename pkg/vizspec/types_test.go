package vizspec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldDescriptorValidation(t *testing.T) {
	t.Run("valid measure", func(t *testing.T) {
		f := FieldDescriptor{FieldID: "sales", AnalyticType: AnalyticTypeMeasure, Aggregation: AggregationSum}
		require.NoError(t, f.Validate())
	})

	t.Run("valid dimension", func(t *testing.T) {
		f := FieldDescriptor{FieldID: "region", AnalyticType: AnalyticTypeDimension}
		require.NoError(t, f.Validate())
	})

	t.Run("empty field ID rejected", func(t *testing.T) {
		f := FieldDescriptor{AnalyticType: AnalyticTypeMeasure}
		require.Error(t, f.Validate())
	})

	t.Run("unknown analytic type rejected", func(t *testing.T) {
		f := FieldDescriptor{FieldID: "x", AnalyticType: "scalar"}
		err := f.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "analytic type")
	})

	t.Run("aggregated dimension rejected", func(t *testing.T) {
		f := FieldDescriptor{FieldID: "region", AnalyticType: AnalyticTypeDimension, Aggregation: AggregationSum}
		err := f.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "aggregation")
	})
}

func TestFieldDescriptorIdentity(t *testing.T) {
	a := FieldDescriptor{FieldID: "sales", Name: "Sales", AnalyticType: AnalyticTypeMeasure}
	b := FieldDescriptor{FieldID: "sales", AnalyticType: AnalyticTypeDimension}
	c := FieldDescriptor{FieldID: "profit", AnalyticType: AnalyticTypeMeasure}

	require.True(t, a.Equal(b), "equality is by field ID only")
	require.False(t, a.Equal(c))

	require.Equal(t, "Sales", a.Label())
	require.Equal(t, "sales", b.Label(), "label falls back to the field ID")
}

func TestChannelAssignmentBoundFieldIDs(t *testing.T) {
	color := FieldDescriptor{FieldID: "category", AnalyticType: AnalyticTypeDimension}
	a := ChannelAssignment{
		Rows: []FieldDescriptor{
			{FieldID: "sales", AnalyticType: AnalyticTypeMeasure},
		},
		Columns: []FieldDescriptor{
			{FieldID: "region", AnalyticType: AnalyticTypeDimension},
			{FieldID: "sales", AnalyticType: AnalyticTypeMeasure}, // duplicate
		},
		Color: &color,
		Details: []FieldDescriptor{
			{FieldID: "order_id", AnalyticType: AnalyticTypeDimension},
		},
	}

	require.Equal(t, []string{"sales", "region", "category", "order_id"}, a.BoundFieldIDs())
}

func TestChannelAssignmentValidate(t *testing.T) {
	t.Run("empty assignment is valid", func(t *testing.T) {
		a := ChannelAssignment{}
		require.NoError(t, a.Validate())
	})

	t.Run("bad field on a positional axis", func(t *testing.T) {
		a := ChannelAssignment{Rows: []FieldDescriptor{{FieldID: ""}}}
		err := a.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "rows[0]")
	})

	t.Run("bad field on a single channel", func(t *testing.T) {
		bad := FieldDescriptor{FieldID: "c", AnalyticType: "nope"}
		a := ChannelAssignment{Color: &bad}
		err := a.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "color")
	})
}

func TestVizConfigValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		cfg := DefaultVizConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("rejects unknown enums", func(t *testing.T) {
		cfg := DefaultVizConfig()
		cfg.GeomType = "hexbin"
		require.Error(t, cfg.Validate())
	})

	t.Run("rejects negative sizing", func(t *testing.T) {
		cfg := DefaultVizConfig()
		cfg.Width = -1
		require.Error(t, cfg.Validate())
	})

	t.Run("rejects negative throttle divisor", func(t *testing.T) {
		cfg := DefaultVizConfig()
		cfg.ThrottleDivisor = -1
		require.Error(t, cfg.Validate())
	})
}

func TestChannelBindingFaceted(t *testing.T) {
	region := FieldDescriptor{FieldID: "region", AnalyticType: AnalyticTypeDimension}

	require.False(t, ChannelBinding{}.Faceted())
	require.True(t, ChannelBinding{Row: &region}.Faceted())
	require.True(t, ChannelBinding{Column: &region}.Faceted())
}

func TestCompositeSpecValidate(t *testing.T) {
	valid := CompositeSpec{
		Name:     "view_0",
		Mark:     map[string]any{"type": "bar"},
		Encoding: map[string]any{},
	}
	require.NoError(t, valid.Validate())

	noName := valid
	noName.Name = ""
	require.Error(t, noName.Validate())

	noMark := valid
	noMark.Mark = nil
	require.Error(t, noMark.Validate())

	badIndex := valid
	badIndex.ViewIndex = -1
	require.Error(t, badIndex.Validate())
}
