package tui

import "github.com/charmbracelet/lipgloss"

var (
	StyleHeader    = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	StyleLabel     = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	StyleHighlight = lipgloss.NewStyle().Bold(true).Foreground(ColorSecondary)

	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleError   = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
	StyleMuted   = lipgloss.NewStyle().Foreground(ColorMuted)
)
