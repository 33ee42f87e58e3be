// internal/commands/list.go
package crossbench

import (
	"github.com/spf13/cobra"
)

// listCmd groups the list subcommands.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List benchmarks or commands",
}

func init() {
	rootCmd.AddCommand(listCmd)
}
