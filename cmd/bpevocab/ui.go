package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFFF00")).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2563EB")).
			Padding(0, 1)
)

type field struct {
	key   string
	value any
}

// summary renders a titled box of key/value rows.
func summary(title string, fields ...field) string {
	rows := make([]string, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, keyStyle.Render(f.key)+valueStyle.Render(fmt.Sprint(f.value)))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		boxStyle.Render(strings.Join(rows, "\n")),
	)
}
