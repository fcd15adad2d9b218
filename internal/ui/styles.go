package ui

import "github.com/charmbracelet/lipgloss"

// --- UI Styles ---
var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8942E1"))
	crumbStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#3AC4BA"))
	subtleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	okStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	cursorLineStyle = lipgloss.NewStyle().Background(lipgloss.Color("#2A2B3D"))
	playingStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFAB78"))
	detailStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(4)
	paneStyle       = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	activePaneStyle = paneStyle.BorderForeground(lipgloss.Color("#8942E1"))
)
