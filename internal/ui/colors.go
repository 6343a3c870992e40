package ui

import "github.com/charmbracelet/lipgloss"

// Tones pairs a color for light terminals with one for dark terminals.
type Tones struct {
	Accent, OK, Err, Warn, Muted lipgloss.AdaptiveColor
}

var defaultTones = Tones{
	Accent: lipgloss.AdaptiveColor{Light: "#5A3FD1", Dark: "#7D56F4"},
	OK:     lipgloss.AdaptiveColor{Light: "#028A5B", Dark: "#04B575"},
	Err:    lipgloss.AdaptiveColor{Light: "#C00000", Dark: "#FF5F5F"},
	Warn:   lipgloss.AdaptiveColor{Light: "#B86E00", Dark: "#FFA500"},
	Muted:  lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#626262"},
}

var styles = NewPalette(defaultTones)

// Palette is the dashboard stylesheet.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style
	box   lipgloss.Style
}

func NewPalette(t Tones) *Palette {
	fg := func(c lipgloss.TerminalColor) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return &Palette{
		title: fg(t.Accent).Bold(true).MarginBottom(1),
		ok:    fg(t.OK).Bold(true),
		err:   fg(t.Err).Bold(true),
		warn:  fg(t.Warn),
		help:  fg(t.Muted).Italic(true),
		label: fg(t.Muted).Bold(true),
		box:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Accent).Padding(0, 1),
	}
}
