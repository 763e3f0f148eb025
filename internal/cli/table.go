package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"payboard/internal/view"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	emptyStyle  = lipgloss.NewStyle().Padding(0, 1).Italic(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
)

// RenderTable draws the record table for a terminal. It shows the same
// columns as the dashboard table, placeholder row included.
func RenderTable(tv view.TableView) string {
	rows := make([][]string, 0, len(tv.Rows))
	for _, r := range tv.Rows {
		rows = append(rows, r.Cells)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(tv.Headers()...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case tv.Empty:
				return emptyStyle
			default:
				return cellStyle
			}
		})

	return t.Render()
}
