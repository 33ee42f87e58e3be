// Package report renders ledger rows and discovered units as terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mwiater/crossbench/internal/ledger"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	fastStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Padding(0, 1)
	slowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Table draws header and rows with a rounded border.
func Table(out io.Writer, header []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(header...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(out, t.String())
}

// Render draws a ledger. Speedup columns are coloured by which side won.
func Render(out io.Writer, header []string, rows []ledger.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No results recorded yet.")
		return
	}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Record())
	}
	speedCols := map[int]bool{}
	for i, h := range header {
		if h == "speedup" || strings.HasSuffix(h, "_speedup") {
			speedCols[i] = true
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(header...).
		Rows(records...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if !speedCols[col] || row < 0 || row >= len(records) || col >= len(records[row]) {
				return cellStyle
			}
			v, err := strconv.ParseFloat(records[row][col], 64)
			switch {
			case err != nil:
				return cellStyle
			case v > 1:
				return fastStyle
			case v < 1:
				return slowStyle
			default:
				return cellStyle
			}
		})
	fmt.Fprintln(out, t.String())
	fmt.Fprintf(out, "%d benchmark(s)\n", len(rows))
}
