package tui

import "github.com/charmbracelet/lipgloss"

var (
	borderColor = lipgloss.Color("#404040")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1a1a1a")).
			Background(lipgloss.Color("#4ECDC4")).
			Bold(false)

	totalsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1D3"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a3a3a3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)
