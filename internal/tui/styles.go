package tui

import "github.com/charmbracelet/lipgloss"

// Palette shared by the dashboard chrome. Adaptive colours keep the tabs
// readable on light terminals.
var (
	accent  = lipgloss.AdaptiveColor{Light: "162", Dark: "205"}
	muted   = lipgloss.AdaptiveColor{Light: "247", Dark: "240"}
	good    = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}
	bad     = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	caution = lipgloss.AdaptiveColor{Light: "166", Dark: "214"}
)

var (
	docStyle = lipgloss.NewStyle().Padding(1, 2)

	tabStyle         = lipgloss.NewStyle().Padding(0, 1)
	activeTabStyle   = tabStyle.Foreground(accent).Background(lipgloss.Color("236")).Bold(true)
	inactiveTabStyle = tabStyle.Foreground(muted)

	successStyle = lipgloss.NewStyle().Foreground(good)
	errorStyle   = lipgloss.NewStyle().Foreground(bad).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(caution).Italic(true)
)
