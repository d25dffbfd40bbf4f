// Package watch is the operator TUI that follows interaction lifecycle
// events from a running bot.
package watch

import "github.com/charmbracelet/lipgloss"

// Theme holds every style the watch view uses.
type Theme struct {
	StatusOK      lipgloss.Style
	StatusPending lipgloss.Style
	StatusFailed  lipgloss.Style

	Border    lipgloss.Style
	Title     lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style

	PulseOn  lipgloss.Style
	PulseOff lipgloss.Style
}

func NewDefaultTheme() Theme {
	accent := lipgloss.Color("#5865F2")

	return Theme{
		StatusOK:      lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		StatusPending: lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAA00")),
		StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("#AA0000")),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),

		PulseOn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		PulseOff: lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")),
	}
}

// statusStyle colours an interaction status label.
func (t Theme) statusStyle(status string) lipgloss.Style {
	switch status {
	case StatusResponded, StatusFollowedUp:
		return t.StatusOK
	case StatusDeferred:
		return t.StatusPending
	case StatusFailed, StatusExpired:
		return t.StatusFailed
	default:
		return t.Dim
	}
}
