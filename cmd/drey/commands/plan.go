package commands

import (
	"strings"

	"github.com/dyluth/drey/internal/config"
	"github.com/dyluth/drey/internal/gridplan"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/pkg/vizspec"
	"github.com/spf13/cobra"
)

var planConfigPath string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the view grid a chart definition produces",
	Long: `Plan computes the view grid for a chart.yml without rendering anything:
how many views the rows/columns assignments repeat into, and which
dimensions facet inside each view.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planConfigPath, "config", "c", "chart.yml", "Path to the chart definition")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(planConfigPath)
	if err != nil {
		return printer.Error("Invalid chart definition", err.Error(), []string{
			"Check the chart.yml syntax and field references",
		})
	}

	assignment, err := cfg.Assignment()
	if err != nil {
		return printer.Error("Invalid channel assignment", err.Error(), nil)
	}

	viz := cfg.VizConfig()
	plan := gridplan.Compute(assignment.Rows, assignment.Columns, viz.DefaultAggregated)

	printer.Info("Grid: %d row(s) x %d column(s) = %d view(s)\n",
		plan.Row.Count, plan.Col.Count, plan.ViewCount())
	printAxis("rows", plan.Row)
	printAxis("columns", plan.Col)
	return nil
}

func printAxis(name string, axis gridplan.AxisPlan) {
	printer.Info("  %s: repeat [%s]", name, fieldList(axis.RepeatFields))
	if len(axis.FacetFields) > 0 {
		printer.Info(", facet [%s]", fieldList(axis.FacetFields))
	}
	printer.Info("\n")
}

func fieldList(fields []vizspec.FieldDescriptor) string {
	ids := make([]string, len(fields))
	for i, f := range fields {
		ids[i] = f.FieldID
	}
	return strings.Join(ids, ", ")
}
