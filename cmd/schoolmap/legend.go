package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zw-schools/schoolmap/internal/classify"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().PaddingLeft(1)
)

func swatch(c classify.Color, width int) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.Hex())).
		Render(strings.Repeat(" ", width))
}

// renderSwatches draws one colored block and label per legend item.
func renderSwatches(l classify.SwatchLegend) string {
	rows := make([]string, 0, len(l.Items))
	for _, item := range l.Items {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			swatch(item.Color, 4), labelStyle.Render(item.Label)))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(l.Title), lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderGradient draws the gradient stops as one bar with the end labels
// underneath.
func renderGradient(l classify.GradientLegend) string {
	const stopWidth = 4
	var bar strings.Builder
	for _, c := range l.Stops {
		bar.WriteString(swatch(c, stopWidth))
	}

	width := len(l.Stops) * stopWidth
	gap := width - lipgloss.Width(l.MinLabel) - lipgloss.Width(l.MaxLabel)
	if gap < 1 {
		gap = 1
	}
	labels := l.MinLabel + strings.Repeat(" ", gap) + l.MaxLabel

	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(l.Title), bar.String(), labels)
}
