package commandlist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CommandInfo holds the path and description of a command for display.
type CommandInfo struct {
	Path        string
	Description string
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	descStyle  = lipgloss.NewStyle().Faint(true)
)

// ListCommands prints the command tree in a two-column layout.
func ListCommands(out io.Writer, commands []CommandInfo) {
	maxPathLength := 0
	for _, data := range commands {
		if len(data.Path) > maxPathLength {
			maxPathLength = len(data.Path)
		}
	}

	fmt.Fprintln(out, titleStyle.Render("Commands and Subcommands:"))
	for _, data := range commands {
		padding := strings.Repeat(" ", maxPathLength-len(data.Path)+2)
		fmt.Fprintf(out, "  %s%s%s\n", pathStyle.Render(data.Path), padding, descStyle.Render(data.Description))
	}
}
