package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Mode selects the light or dark palette. The active mode is persisted in
// the config file and restored at startup; it is the only state that
// survives a restart.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// IsValid returns true if the mode is a recognized value
func (m Mode) IsValid() bool {
	return m == ModeLight || m == ModeDark
}

// Toggle returns the opposite mode.
func (m Mode) Toggle() Mode {
	if m == ModeDark {
		return ModeLight
	}
	return ModeDark
}

// Theme bundles the renderer and the styles shared by all views.
type Theme struct {
	Mode     Mode
	Renderer *lipgloss.Renderer

	Primary   lipgloss.Color // accents, focused borders
	Secondary lipgloss.Color // indicators, checkmarks
	Text      lipgloss.Color
	Subtext   lipgloss.Color
	Border    lipgloss.Color
	Surface   lipgloss.Color // selection / hover background

	Base     lipgloss.Style
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style

	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
}

// NewTheme builds the palette for a mode.
func NewTheme(mode Mode, r *lipgloss.Renderer) Theme {
	if mode == ModeDark {
		return darkTheme(r)
	}
	return lightTheme(r)
}

func lightTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Mode:      ModeLight,
		Renderer:  r,
		Primary:   lipgloss.Color("#3b82f6"),
		Secondary: lipgloss.Color("#2e7d32"),
		Text:      lipgloss.Color("#1a202c"),
		Subtext:   lipgloss.Color("#4a5568"),
		Border:    lipgloss.Color("#e2e8f0"),
		Surface:   lipgloss.Color("#edf2f7"),
	}
	return t.buildStyles()
}

func darkTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Mode:      ModeDark,
		Renderer:  r,
		Primary:   lipgloss.Color("#8be9fd"),
		Secondary: lipgloss.Color("#81c784"),
		Text:      lipgloss.Color("#e2e8f0"),
		Subtext:   lipgloss.Color("#a0aec0"),
		Border:    lipgloss.Color("#4a5568"),
		Surface:   lipgloss.Color("#242936"),
	}
	return t.buildStyles()
}

func (t Theme) buildStyles() Theme {
	r := t.Renderer
	t.Base = r.NewStyle().Foreground(t.Text)
	t.Title = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Muted = r.NewStyle().Foreground(t.Subtext)
	t.Selected = r.NewStyle().Background(t.Surface).Foreground(t.Text).Bold(true)
	t.Error = r.NewStyle().Foreground(lipgloss.Color("#e57373")).Bold(true)
	t.UserLabel = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.BotLabel = r.NewStyle().Foreground(t.Secondary).Bold(true)
	return t
}

// GlamourStyle maps the theme mode to a glamour standard style name.
func (t Theme) GlamourStyle() string {
	if t.Mode == ModeDark {
		return "dark"
	}
	return "light"
}

// PanelStyle returns the bordered style for an unfocused pane.
func (t Theme) PanelStyle() lipgloss.Style {
	return t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border)
}

// FocusedPanelStyle returns the bordered style for the focused pane.
func (t Theme) FocusedPanelStyle() lipgloss.Style {
	return t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary)
}
