package ui

import "github.com/charmbracelet/lipgloss"

var (
	Cyan    = lipgloss.Color("#00d7d7")
	Green   = lipgloss.Color("#5fd75f")
	Yellow  = lipgloss.Color("#ffd75f")
	Red     = lipgloss.Color("#ff5f5f")
	Muted   = lipgloss.Color("#808080")
	Primary = lipgloss.Color("#e4e4e4")

	titleStyle = lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true).
			Padding(0, 1)

	ownNameStyle   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	otherNameStyle = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	timeStyle      = lipgloss.NewStyle().Foreground(Muted)
	textStyle      = lipgloss.NewStyle().Foreground(Primary)

	noticeStyle = lipgloss.NewStyle().Foreground(Green)
	warnStyle   = lipgloss.NewStyle().Foreground(Yellow)
	errorStyle  = lipgloss.NewStyle().Foreground(Red).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(Muted)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Cyan).
			Padding(1, 2)
)
