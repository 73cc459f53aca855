package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// BuyStyle for buy-side activity.
	BuyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	// SellStyle for sell-side activity.
	SellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))

	// MutedStyle for idle cycles and secondary detail.
	MutedStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	// SummaryBorderStyle frames the end-of-run summary.
	SummaryBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240")).
				Padding(0, 1)
)

// FormatReturn renders a relative return with a direction indicator.
func FormatReturn(r float64) string {
	formatted := fmt.Sprintf("%+.2f%%", r*100)

	if r > 0 {
		return BuyStyle.Render(formatted + " ▲")
	} else if r < 0 {
		return SellStyle.Render(formatted + " ▼")
	}

	return formatted
}
