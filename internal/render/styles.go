package render

import "github.com/charmbracelet/lipgloss"

// Tokyo Night palette
var (
	fgColor      = lipgloss.Color("#c0caf5")
	borderColor  = lipgloss.Color("#7aa2f7")
	accentColor  = lipgloss.Color("#ff9e64")
	errorColor   = lipgloss.Color("#f7768e")
	warningColor = lipgloss.Color("#e0af68")
	commentColor = lipgloss.Color("#787c99")
)

var (
	// Title
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	// Section labels
	labelStyle = lipgloss.NewStyle().
			Foreground(borderColor).
			Bold(true)

	// Readings
	infoStyle = lipgloss.NewStyle().
			Foreground(fgColor)

	// Timestamp
	timestampStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Italic(true)

	// Degraded sources ("GPU: unavailable" and friends)
	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	// Process not found
	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// Sparkline caption
	commentStyle = lipgloss.NewStyle().
			Foreground(commentColor)
)
