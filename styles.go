package main

import "github.com/charmbracelet/lipgloss"

type styles struct {
	dir    lipgloss.Style
	link   lipgloss.Style
	other  lipgloss.Style
	digest lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
}

func newStyles() styles {
	return styles{
		dir:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(4)),
		link:   lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(6)),
		other:  lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(3)),
		digest: lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8)),
		ok:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(2)),
		err:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(1)),
	}
}
