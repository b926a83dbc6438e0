package ui

import "github.com/charmbracelet/lipgloss"

// Palette: sepia tones with a single accent, after old newsprint.
const (
	ColorAccent   = "178" // amber
	ColorAccentDm = "136"
	ColorText     = "252"
	ColorMuted    = "245"
	ColorRule     = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
)

// Styles holds the lipgloss styles of the TUI.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Value   lipgloss.Style
	Label   lipgloss.Style
	Rule    lipgloss.Style
	Spark   lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return Styles{
		Header:  fg(ColorAccent).Bold(true),
		Success: fg(ColorAccent),
		Warning: fg(ColorYellow),
		Error:   fg(ColorRed),
		Dim:     fg(ColorRule),
		Value:   fg(ColorText).Bold(true),
		Label:   fg(ColorMuted),
		Rule:    fg(ColorRule),
		Spark:   fg(ColorAccentDm),
	}
}

// NoColorStyles returns unstyled components.
func NoColorStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{
		Header: s, Success: s, Warning: s, Error: s, Dim: s,
		Value: s, Label: s, Rule: s, Spark: s,
	}
}

// GetStyles returns the styles for the color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
