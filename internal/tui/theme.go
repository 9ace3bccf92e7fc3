package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors of the event browser. All colors use ANSI
// 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	AccentForeground lipgloss.Color
	ErrorForeground  lipgloss.Color
	SoldOut          lipgloss.Color
	Free             lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("62"),
	SelectedForeground: lipgloss.Color("230"),
	HeaderForeground:   lipgloss.Color("212"),
	AccentForeground:   lipgloss.Color("86"),
	ErrorForeground:    lipgloss.Color("203"),
	SoldOut:            lipgloss.Color("203"),
	Free:               lipgloss.Color("114"),
}

type styles struct {
	title    lipgloss.Style
	faint    lipgloss.Style
	row      lipgloss.Style
	selected lipgloss.Style
	chip     lipgloss.Style
	errText  lipgloss.Style
	soldOut  lipgloss.Style
	free     lipgloss.Style
	label    lipgloss.Style
	box      lipgloss.Style
}

func newStyles(theme Theme) styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground),
		faint:    lipgloss.NewStyle().Foreground(theme.FaintText),
		row:      lipgloss.NewStyle().Foreground(theme.NormalText),
		selected: lipgloss.NewStyle().Foreground(theme.SelectedForeground).Background(theme.SelectedBackground),
		chip:     lipgloss.NewStyle().Foreground(theme.AccentForeground),
		errText:  lipgloss.NewStyle().Foreground(theme.ErrorForeground),
		soldOut:  lipgloss.NewStyle().Foreground(theme.SoldOut),
		free:     lipgloss.NewStyle().Foreground(theme.Free),
		label:    lipgloss.NewStyle().Bold(true).Width(12),
		box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(theme.FaintText).Padding(0, 1),
	}
}
