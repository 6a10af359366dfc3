package display

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	successColor = lipgloss.Color("#4ECDC4")
	warningColor = lipgloss.Color("#FFE66D")
	errorColor   = lipgloss.Color("#FF6B6B")
	subtleColor  = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1)

	unitStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	findingStyle = lipgloss.NewStyle().
			Bold(true)

	gasStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	subtleStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	codeStyle = lipgloss.NewStyle().
			Foreground(subtleColor).
			PaddingLeft(4)
)
