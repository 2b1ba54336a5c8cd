package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dyluth/drey/internal/compiler"
	"github.com/dyluth/drey/internal/config"
	"github.com/dyluth/drey/internal/gridplan"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/singleview"
	"github.com/dyluth/drey/pkg/vizspec"
	"github.com/spf13/cobra"
)

var (
	compileConfigPath string
	compileOutputPath string
	compileCompact    bool
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a chart definition into renderable view specs",
	Long: `Compile loads a chart.yml and its row data, computes the view grid, and
emits one composite spec per grid cell as a JSON array: the same specs
a live grid hands to its renderer.`,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringVarP(&compileConfigPath, "config", "c", "chart.yml", "Path to the chart definition")
	compileCmd.Flags().StringVarP(&compileOutputPath, "output", "o", "", "Write specs to a file instead of stdout")
	compileCmd.Flags().BoolVar(&compileCompact, "compact", false, "Emit compact JSON")
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(compileConfigPath)
	if err != nil {
		return printer.Error("Invalid chart definition", err.Error(), []string{
			"Check the chart.yml syntax and field references",
		})
	}

	assignment, err := cfg.Assignment()
	if err != nil {
		return printer.Error("Invalid channel assignment", err.Error(), nil)
	}

	rows, err := loadRows(cfg.Data)
	if err != nil {
		return printer.Error("Failed to load row data", err.Error(), []string{
			fmt.Sprintf("Expected a JSON array of objects at %q", cfg.Data),
		})
	}

	viz := cfg.VizConfig()
	plan := gridplan.Compute(assignment.Rows, assignment.Columns, viz.DefaultAggregated)
	specs, err := compiler.Compile(plan, compiler.Input{
		Assignment: assignment,
		Config:     viz,
		Rows:       rows,
		Build:      singleview.Build,
	})
	if err != nil {
		return printer.Error("Compilation failed", err.Error(), nil)
	}

	var out []byte
	if compileCompact {
		out, err = json.Marshal(specs)
	} else {
		out, err = json.MarshalIndent(specs, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal specs: %w", err)
	}

	if compileOutputPath == "" {
		fmt.Println(string(out))
		return nil
	}

	if err := os.WriteFile(compileOutputPath, out, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	printer.Success("Wrote %d spec(s) to %s\n", len(specs), compileOutputPath)
	return nil
}

// loadRows reads the row set: a JSON array of flat objects.
func loadRows(path string) ([]vizspec.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []vizspec.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
