// internal/commands/show.go
package crossbench

import (
	"github.com/spf13/cobra"
)

// showCmd groups the show subcommands.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configuration or recorded results",
}

func init() {
	rootCmd.AddCommand(showCmd)
}
