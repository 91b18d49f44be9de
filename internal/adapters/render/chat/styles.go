package chat

import "github.com/charmbracelet/lipgloss"

type styles struct {
	reply      lipgloss.Style
	prompt     lipgloss.Style
	planKind   lipgloss.Style
	tool       lipgloss.Style
	key        lipgloss.Style
	value      lipgloss.Style
	confidence map[string]lipgloss.Style
	warning    lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
}

func newStyles() styles {
	return styles{
		reply:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		prompt:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		planKind: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241")),
		tool:     lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		key:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		value:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		confidence: map[string]lipgloss.Style{
			"high":   lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
			"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
			"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		},
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section: lipgloss.NewStyle().MarginTop(1).PaddingLeft(2),
		empty:   lipgloss.NewStyle().Faint(true),
	}
}
