package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	TitleStyle = lipgloss.NewStyle().Bold(true)

	HelpStyle = lipgloss.NewStyle().Faint(true)

	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	LabelStyle = lipgloss.NewStyle().Faint(true).Width(14)

	ProfitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	LossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	// SummaryStyle frames the final statistics.
	SummaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// FormatPriceWithColor formats a price with indicator based on comparison with previous price.
func FormatPriceWithColor(current, previous float64) string {
	priceStr := fmt.Sprintf("%.4f", current)

	if previous == 0 {
		return priceStr
	}

	if current > previous {
		return priceStr + " ▲"
	} else if current < previous {
		return priceStr + " ▼"
	}

	return priceStr
}

// FormatProfit renders a profit green and a loss red.
func FormatProfit(value float64) string {
	text := fmt.Sprintf("%+.4f", value)

	if value < 0 {
		return LossStyle.Render(text)
	}

	return ProfitStyle.Render(text)
}
