package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	paneStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
	focusedPane     = paneStyle.BorderForeground(lipgloss.Color("3"))
	paneTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	spinnerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	userBubbleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	tabStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	activeTabStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true).Padding(0, 1)
	highlightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3"))
	statusBarStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	timelineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	markerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	chipStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)
