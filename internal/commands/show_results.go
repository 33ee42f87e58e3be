// internal/commands/show_results.go
package crossbench

import (
	"fmt"

	"github.com/mwiater/crossbench/internal/benchmark"
	"github.com/mwiater/crossbench/internal/ledger"
	"github.com/mwiater/crossbench/internal/report"
	"github.com/spf13/cobra"
)

// showResultsCmd renders the ledger for the configured mode.
var showResultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show recorded results as a table",
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

		rows, err := l.Rows()
		if err != nil {
			return err
		}
		report.Render(cmd.OutOrStdout(), l.Header(), rows)
		return nil
	},
}

func init() {
	showCmd.AddCommand(showResultsCmd)
}
