package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	ColorHeader = lipgloss.Color("39")
	ColorIndex  = lipgloss.Color("245")
	ColorMuted  = lipgloss.Color("241")
	ColorAccent = lipgloss.Color("212")
	ColorError  = lipgloss.Color("196")
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	indexStyle    = lipgloss.NewStyle().Foreground(ColorIndex)
	mutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	loadMoreStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(ColorError)
	helpStyle     = lipgloss.NewStyle().Foreground(ColorMuted)
	borderStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1)
)
