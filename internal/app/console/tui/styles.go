package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/strrl/pulsectl/pkg/hoststatus"
)

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaYellow     = "#F1FA8C"
	draculaComment    = "#6272A4"
)

type styles struct {
	title, header, help, selected, highlight, hint, success, error, dialog, command lipgloss.Style
	badges                                                                        map[hoststatus.Badge]lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Bold(true),
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPurple)).
			Bold(true),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaForeground)).
			Background(lipgloss.Color("#44475A")),
		highlight: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaYellow)).
			Bold(true),
		hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		dialog: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(draculaRed)),
		command: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)),
		badges: map[hoststatus.Badge]lipgloss.Style{
			hoststatus.BadgeOnline:       lipgloss.NewStyle().Foreground(lipgloss.Color(draculaGreen)),
			hoststatus.BadgeOffline:      lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment)),
			hoststatus.BadgeStale:        lipgloss.NewStyle().Foreground(lipgloss.Color(draculaOrange)),
			hoststatus.BadgeTokenRevoked: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaRed)),
		},
	}
}
