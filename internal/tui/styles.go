package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/HendryAvila/relnotes/internal/catalog"
)

// Theme is a palette for one of the two display modes.
type Theme struct {
	IsDark     bool
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
	Danger     lipgloss.Color
	PillOn     lipgloss.Color
	PillOff    lipgloss.Color
}

// DarkTheme returns the dark palette.
func DarkTheme() Theme {
	return Theme{
		IsDark:     true,
		Foreground: lipgloss.Color("#E5E7EB"),
		Muted:      lipgloss.Color("#6B7280"),
		Accent:     lipgloss.Color("#60A5FA"),
		Danger:     lipgloss.Color("#F87171"),
		PillOn:     lipgloss.Color("#2563EB"),
		PillOff:    lipgloss.Color("#374151"),
	}
}

// LightTheme returns the light palette.
func LightTheme() Theme {
	return Theme{
		Foreground: lipgloss.Color("#111827"),
		Muted:      lipgloss.Color("#6B7280"),
		Accent:     lipgloss.Color("#1D4ED8"),
		Danger:     lipgloss.Color("#B91C1C"),
		PillOn:     lipgloss.Color("#2563EB"),
		PillOff:    lipgloss.Color("#E5E7EB"),
	}
}

// Styles holds the lipgloss styles derived from a Theme.
type Styles struct {
	Theme    Theme
	Title    lipgloss.Style
	Product  lipgloss.Style
	Selected lipgloss.Style
	Change   lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	PillOn   lipgloss.Style
	PillOff  lipgloss.Style
	Panel    lipgloss.Style
	Spinner  lipgloss.Style
}

// NewStyles builds Styles from t.
func NewStyles(t Theme) Styles {
	pill := lipgloss.NewStyle().Padding(0, 1).MarginRight(1)
	pillOffText := t.Foreground
	if !t.IsDark {
		pillOffText = lipgloss.Color("#374151")
	}
	return Styles{
		Theme:    t,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Product:  lipgloss.NewStyle().Bold(true).Foreground(t.Foreground),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Change:   lipgloss.NewStyle().Foreground(t.Foreground).PaddingLeft(4),
		Muted:    lipgloss.NewStyle().Foreground(t.Muted),
		Error:    lipgloss.NewStyle().Foreground(t.Danger),
		PillOn:   pill.Foreground(lipgloss.Color("#FFFFFF")).Background(t.PillOn),
		PillOff:  pill.Foreground(pillOffText).Background(t.PillOff),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		Spinner: lipgloss.NewStyle().Foreground(t.Accent),
	}
}

// stylesFor picks the styles for the dark mode flag.
func stylesFor(dark bool) Styles {
	if dark {
		return NewStyles(DarkTheme())
	}
	return NewStyles(LightTheme())
}

// pill renders a change type filter toggle with its number key.
func (s Styles) pill(key int, t catalog.ChangeType, active bool) string {
	label := string(rune('0'+key)) + " " + t.Emoji() + " " + string(t)
	if active {
		return s.PillOn.Render(label)
	}
	return s.PillOff.Render(label)
}
