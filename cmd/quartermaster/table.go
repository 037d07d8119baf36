package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	expiredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff453a"))
	noteStyle    = lipgloss.NewStyle().Faint(true)
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.Copy().
		Foreground(lipgloss.Color("#7D56F4")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true)
	// nothing is selected in a printed table
	s.Selected = lipgloss.NewStyle()
	return s
}

// renderTable prints the view of a table model sized to show every row.
func renderTable(out io.Writer, headers []string, rows [][]string) {
	columns := make([]table.Column, len(headers))
	width := 0
	for i, h := range headers {
		w := lipgloss.Width(h)
		for _, row := range rows {
			if i < len(row) && lipgloss.Width(row[i]) > w {
				w = lipgloss.Width(row[i])
			}
		}
		columns[i] = table.Column{Title: h, Width: w}
		width += w + 2
	}
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+2),
		table.WithWidth(width),
		table.WithStyles(tableStyles()),
	)
	fmt.Fprintln(out, strings.TrimRight(t.View(), " \n"))
	if len(rows) == 0 {
		fmt.Fprintln(out, noteStyle.Render("(no rows)"))
	}
}
