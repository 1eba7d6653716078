package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// NewTable returns a rounded-border table with cyan headers, the shared
// look for every report table.
func NewTable(colors *Colors, headers ...string) *table.Table {
	colored := make([]string, len(headers))
	for i, h := range headers {
		colored[i] = colors.Cyan(h)
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(int, int) lipgloss.Style { return cellStyle }).
		Headers(colored...)
}
