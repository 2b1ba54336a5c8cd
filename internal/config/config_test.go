package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/drey/pkg/vizspec"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chart.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `
version: "1.0"
data: rows.json
fields:
  region:
    name: Region
    analytic_type: dimension
  sales:
    analytic_type: measure
    aggregation: sum
  profit:
    analytic_type: measure
    aggregation: mean
channels:
  rows:
    - sales
    - profit
  columns:
    - region
  color: region
viz:
  geom_type: line
  default_aggregated: false
  stack_mode: none
  interactive_scale: true
  width: 1024
  height: 768
`

func TestLoad(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, validConfig))
		require.NoError(t, err)
		require.Equal(t, "1.0", cfg.Version)
		require.Equal(t, "rows.json", cfg.Data)
		require.Len(t, cfg.Fields, 3)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "version: [unclosed"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("unsupported version", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
version: "2.0"
fields:
  sales:
    analytic_type: measure
`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported version")
	})

	t.Run("no fields", func(t *testing.T) {
		_, err := Load(writeConfig(t, `version: "1.0"`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "no fields defined")
	})

	t.Run("unknown analytic type", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
version: "1.0"
fields:
  sales:
    analytic_type: scalar
`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "analytic type")
	})

	t.Run("channel referencing an undeclared field", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
version: "1.0"
fields:
  sales:
    analytic_type: measure
channels:
  rows:
    - revenue
`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "undeclared field")
	})

	t.Run("unknown geom type", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
version: "1.0"
fields:
  sales:
    analytic_type: measure
viz:
  geom_type: hexbin
`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "geom type")
	})
}

func TestAssignment(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	a, err := cfg.Assignment()
	require.NoError(t, err)

	require.Len(t, a.Rows, 2)
	require.Equal(t, "sales", a.Rows[0].FieldID)
	require.Equal(t, vizspec.AnalyticTypeMeasure, a.Rows[0].AnalyticType)
	require.Equal(t, vizspec.AggregationSum, a.Rows[0].Aggregation)
	require.Equal(t, "profit", a.Rows[1].FieldID)

	require.Len(t, a.Columns, 1)
	require.Equal(t, "region", a.Columns[0].FieldID)
	require.Equal(t, "Region", a.Columns[0].Name)

	require.NotNil(t, a.Color)
	require.Equal(t, "region", a.Color.FieldID)
	require.Nil(t, a.Size)

	require.NoError(t, a.Validate())
}

func TestVizConfig(t *testing.T) {
	t.Run("explicit settings override the defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, validConfig))
		require.NoError(t, err)

		vc := cfg.VizConfig()
		require.Equal(t, vizspec.GeomTypeLine, vc.GeomType)
		require.False(t, vc.DefaultAggregated)
		require.Equal(t, vizspec.StackModeNone, vc.StackMode)
		require.True(t, vc.InteractiveScale)
		require.Equal(t, 1024, vc.Width)
		require.Equal(t, 768, vc.Height)
	})

	t.Run("omitted viz block falls back to defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
version: "1.0"
fields:
  sales:
    analytic_type: measure
`))
		require.NoError(t, err)
		require.Equal(t, vizspec.DefaultVizConfig(), cfg.VizConfig())
	})
}
