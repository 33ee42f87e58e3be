// internal/commands/list_commands.go
package crossbench

import (
	"strings"

	"github.com/mwiater/crossbench/internal/commandlist"
	"github.com/spf13/cobra"
)

// commandsCmd implements 'list commands': the visible command tree, indented
// by depth, path in the first column and short description in the second.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands in two columns",
	Run: func(cmd *cobra.Command, args []string) {
		commandlist.ListCommands(cmd.OutOrStdout(), commandTree(cmd.Root(), 0))
	},
}

func init() {
	listCmd.AddCommand(commandsCmd)
}

// commandTree flattens cmd and its available subcommands. Hidden, deprecated
// and help commands are left out, as cobra's own usage output does.
func commandTree(cmd *cobra.Command, depth int) []commandlist.CommandInfo {
	rows := []commandlist.CommandInfo{{
		Path:        strings.Repeat("  ", depth) + cmd.CommandPath(),
		Description: cmd.Short,
	}}
	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		rows = append(rows, commandTree(sub, depth+1)...)
	}
	return rows
}
