// internal/commands/list_benchmarks.go
package crossbench

import (
	"fmt"
	"strings"

	"github.com/mwiater/crossbench/internal/benchmark"
	"github.com/mwiater/crossbench/internal/discovery"
	"github.com/mwiater/crossbench/internal/ledger"
	"github.com/mwiater/crossbench/internal/report"
	"github.com/spf13/cobra"
)

var listAll bool

// benchmarksCmd implements 'list benchmarks', showing what a run would pick up.
var benchmarksCmd = &cobra.Command{
	Use:   "benchmarks",
	Short: "List discovered benchmarks and whether they are recorded",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		l, err := ledger.Open(cfg.LedgerPath(), cfg.LedgerBackend, benchmark.SchemaFor(cfg))
		if err != nil {
			return err
		}
		defer l.Close()

		opts := benchmark.OptionsFor(cfg)
		var rows [][]string
		units := discovery.Discover(benchmark.LayoutFor(cfg), benchmark.CategoriesFor(cfg), discovery.Options{
			RequireCounterpart: !listAll,
			Rand:               opts.Rand,
		})
		for u := range units {
			done, err := l.Evaluated(u.Name)
			if err != nil {
				return err
			}
			langs := make([]string, 0, len(u.Comparisons))
			for _, c := range u.Comparisons {
				langs = append(langs, c.Language)
			}
			rows = append(rows, []string{u.Category, u.Name, strings.Join(langs, ","), yesNo(done)})
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No benchmarks found.")
			return nil
		}
		report.Table(cmd.OutOrStdout(), []string{"category", "name", "comparisons", "evaluated"}, rows)
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	benchmarksCmd.Flags().BoolVar(&listAll, "all", false, "include benchmarks without a counterpart")
	listCmd.AddCommand(benchmarksCmd)
}
