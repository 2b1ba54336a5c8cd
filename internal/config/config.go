// Package config loads and validates chart.yml, the declarative chart
// definition consumed by the drey CLI. Library embedders construct
// vizspec values directly and never touch this package.
package config

import (
	"fmt"
	"os"

	"github.com/dyluth/drey/pkg/vizspec"
	"gopkg.in/yaml.v3"
)

// ChartConfig represents the top-level chart.yml configuration.
type ChartConfig struct {
	Version  string                 `yaml:"version"`
	Data     string                 `yaml:"data"` // Path to the row set (JSON array of objects)
	Fields   map[string]FieldConfig `yaml:"fields"`
	Channels ChannelsConfig         `yaml:"channels"`
	Viz      *VizSettings           `yaml:"viz,omitempty"`
}

// FieldConfig declares one data column.
type FieldConfig struct {
	Name         string `yaml:"name,omitempty"`
	AnalyticType string `yaml:"analytic_type"` // "dimension" or "measure"
	Aggregation  string `yaml:"aggregation,omitempty"`
}

// ChannelsConfig assigns declared fields to visual channels by name.
type ChannelsConfig struct {
	Rows    []string `yaml:"rows,omitempty"`
	Columns []string `yaml:"columns,omitempty"`
	Color   string   `yaml:"color,omitempty"`
	Opacity string   `yaml:"opacity,omitempty"`
	Size    string   `yaml:"size,omitempty"`
	Shape   string   `yaml:"shape,omitempty"`
	Theta   string   `yaml:"theta,omitempty"`
	Radius  string   `yaml:"radius,omitempty"`
	Details []string `yaml:"details,omitempty"`
}

// VizSettings mirrors the vizspec.VizConfig bag in yaml form.
type VizSettings struct {
	GeomType          string `yaml:"geom_type,omitempty"`
	DefaultAggregated *bool  `yaml:"default_aggregated,omitempty"`
	StackMode         string `yaml:"stack_mode,omitempty"`
	InteractiveScale  bool   `yaml:"interactive_scale,omitempty"`
	LayoutMode        string `yaml:"layout_mode,omitempty"`
	Width             int    `yaml:"width,omitempty"`
	Height            int    `yaml:"height,omitempty"`
	ShowActions       bool   `yaml:"show_actions,omitempty"`
	ThrottleDivisor   int    `yaml:"throttle_divisor,omitempty"`
}

// Load reads and validates a chart.yml file.
func Load(path string) (*ChartConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg ChartConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate performs strict validation on the configuration.
func (c *ChartConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Required: at least one field
	if len(c.Fields) == 0 {
		return fmt.Errorf("no fields defined")
	}

	for id, f := range c.Fields {
		if err := vizspec.AnalyticType(f.AnalyticType).Validate(); err != nil {
			return fmt.Errorf("field %q: %w", id, err)
		}
		if err := vizspec.Aggregation(f.Aggregation).Validate(); err != nil {
			return fmt.Errorf("field %q: %w", id, err)
		}
	}

	// Every channel reference must name a declared field
	for _, ref := range c.channelRefs() {
		if _, ok := c.Fields[ref]; !ok {
			return fmt.Errorf("channel references undeclared field: %q", ref)
		}
	}

	if c.Viz != nil {
		if c.Viz.GeomType != "" {
			if err := vizspec.GeomType(c.Viz.GeomType).Validate(); err != nil {
				return err
			}
		}
		if c.Viz.StackMode != "" {
			if err := vizspec.StackMode(c.Viz.StackMode).Validate(); err != nil {
				return err
			}
		}
		if c.Viz.LayoutMode != "" {
			if err := vizspec.LayoutMode(c.Viz.LayoutMode).Validate(); err != nil {
				return err
			}
		}
	}

	return nil
}

// channelRefs collects every field reference across all channels.
func (c *ChartConfig) channelRefs() []string {
	refs := make([]string, 0, len(c.Channels.Rows)+len(c.Channels.Columns)+len(c.Channels.Details)+6)
	refs = append(refs, c.Channels.Rows...)
	refs = append(refs, c.Channels.Columns...)
	for _, s := range []string{
		c.Channels.Color, c.Channels.Opacity, c.Channels.Size,
		c.Channels.Shape, c.Channels.Theta, c.Channels.Radius,
	} {
		if s != "" {
			refs = append(refs, s)
		}
	}
	refs = append(refs, c.Channels.Details...)
	return refs
}

// Assignment builds the channel assignment from the declared fields.
func (c *ChartConfig) Assignment() (vizspec.ChannelAssignment, error) {
	var a vizspec.ChannelAssignment
	var err error

	if a.Rows, err = c.descriptors(c.Channels.Rows); err != nil {
		return a, err
	}
	if a.Columns, err = c.descriptors(c.Channels.Columns); err != nil {
		return a, err
	}
	if a.Details, err = c.descriptors(c.Channels.Details); err != nil {
		return a, err
	}

	for ref, target := range map[string]**vizspec.FieldDescriptor{
		c.Channels.Color:   &a.Color,
		c.Channels.Opacity: &a.Opacity,
		c.Channels.Size:    &a.Size,
		c.Channels.Shape:   &a.Shape,
		c.Channels.Theta:   &a.Theta,
		c.Channels.Radius:  &a.Radius,
	} {
		if ref == "" {
			continue
		}
		d, err := c.descriptor(ref)
		if err != nil {
			return a, err
		}
		*target = &d
	}

	return a, nil
}

// VizConfig builds the vizspec configuration bag, falling back to defaults
// for anything chart.yml leaves unset.
func (c *ChartConfig) VizConfig() vizspec.VizConfig {
	cfg := vizspec.DefaultVizConfig()
	if c.Viz == nil {
		return cfg
	}

	if c.Viz.GeomType != "" {
		cfg.GeomType = vizspec.GeomType(c.Viz.GeomType)
	}
	if c.Viz.DefaultAggregated != nil {
		cfg.DefaultAggregated = *c.Viz.DefaultAggregated
	}
	if c.Viz.StackMode != "" {
		cfg.StackMode = vizspec.StackMode(c.Viz.StackMode)
	}
	if c.Viz.LayoutMode != "" {
		cfg.LayoutMode = vizspec.LayoutMode(c.Viz.LayoutMode)
	}
	if c.Viz.Width > 0 {
		cfg.Width = c.Viz.Width
	}
	if c.Viz.Height > 0 {
		cfg.Height = c.Viz.Height
	}
	cfg.InteractiveScale = c.Viz.InteractiveScale
	cfg.ShowActions = c.Viz.ShowActions
	cfg.ThrottleDivisor = c.Viz.ThrottleDivisor

	return cfg
}

// descriptor resolves one field reference to a descriptor.
func (c *ChartConfig) descriptor(ref string) (vizspec.FieldDescriptor, error) {
	f, ok := c.Fields[ref]
	if !ok {
		return vizspec.FieldDescriptor{}, fmt.Errorf("undeclared field: %q", ref)
	}
	return vizspec.FieldDescriptor{
		FieldID:      ref,
		Name:         f.Name,
		AnalyticType: vizspec.AnalyticType(f.AnalyticType),
		Aggregation:  vizspec.Aggregation(f.Aggregation),
	}, nil
}

// descriptors resolves a list of field references.
func (c *ChartConfig) descriptors(refs []string) ([]vizspec.FieldDescriptor, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	out := make([]vizspec.FieldDescriptor, 0, len(refs))
	for _, ref := range refs {
		d, err := c.descriptor(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
