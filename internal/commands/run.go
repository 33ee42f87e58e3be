// internal/commands/run.go
package crossbench

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/mwiater/crossbench/internal/appconfig"
	"github.com/mwiater/crossbench/internal/benchmark"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runFromConfig = benchmark.RunFromConfig

// runCmd compiles, measures and records every pending benchmark.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compile, measure and record pending benchmarks",
	Long: `Discover reference/comparison pairs, build each variant, time it against the
shared input and append one row per benchmark to the ledger. Benchmarks already
present in the ledger are skipped, so an interrupted run can simply be restarted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		sum, err := runFromConfig(cmd.Context(), cfg)
		printSummary(cmd, sum)
		return err
	},
}

func printSummary(cmd *cobra.Command, sum benchmark.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Attempted: %d  ", sum.Attempted)
	fmt.Fprint(out, color.GreenString("Recorded: %d  ", sum.Recorded))
	fmt.Fprint(out, color.YellowString("Skipped: %d  ", sum.Skipped))
	fmt.Fprintln(out, color.RedString("Failed: %d", sum.Failed))
	for _, o := range sum.Outcomes {
		if o.State == benchmark.Failed {
			fmt.Fprintf(out, "  %s %s (%s)\n", color.RedString("✗"), o.Unit, o.Reason)
		}
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("benchmark", "", "run only the named benchmark")
	runCmd.Flags().Int("opt-level", appconfig.DefaultOptLevel, "optimization level passed to every compiler (0..3)")
	runCmd.Flags().String("input-data", appconfig.DefaultInputData, "path to the shared input file")
	runCmd.Flags().String("measure", appconfig.MeasureWallClock, "measurement strategy: wallclock, perf or reported")
	runCmd.Flags().Int64("seed", 0, "seed for discovery order (0 shuffles randomly)")

	_ = viper.BindPFlag("benchmark", runCmd.Flags().Lookup("benchmark"))
	_ = viper.BindPFlag("optLevel", runCmd.Flags().Lookup("opt-level"))
	_ = viper.BindPFlag("inputData", runCmd.Flags().Lookup("input-data"))
	_ = viper.BindPFlag("measure", runCmd.Flags().Lookup("measure"))
	_ = viper.BindPFlag("seed", runCmd.Flags().Lookup("seed"))
}
