package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sticky/internal/state"
)

// Theme defines the colors of one note theme.
type Theme struct {
	Name state.Theme

	Background string // Outermost background
	Surface    string // Note list and editor panels
	SurfaceAlt string // Header and footer bars

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
}

var themes = map[state.Theme]Theme{
	state.ThemeDark: {
		Name:          state.ThemeDark,
		Background:    "#1e1f29",
		Surface:       "#282a36",
		SurfaceAlt:    "#21222c",
		SelectionBg:   "#44475a",
		SelectionText: "#f8f8f2",
		Border:        "#44475a",
		BorderFocus:   "#bd93f9",
		Text:          "#f8f8f2",
		Muted:         "#a0a4c0",
		Faint:         "#6272a4",
		Accent:        "#8be9fd",
		Success:       "#50fa7b",
		Warning:       "#f1fa8c",
		Danger:        "#ff5555",
	},
	state.ThemeYellow: {
		Name:          state.ThemeYellow,
		Background:    "#fff7c2",
		Surface:       "#fff59d",
		SurfaceAlt:    "#fde974",
		SelectionBg:   "#f9d85a",
		SelectionText: "#3b3000",
		Border:        "#e3c94d",
		BorderFocus:   "#b08900",
		Text:          "#3b3000",
		Muted:         "#6b5a10",
		Faint:         "#9c8a3c",
		Accent:        "#8a5a00",
		Success:       "#2e7d32",
		Warning:       "#b26a00",
		Danger:        "#c62828",
	},
}

// ThemeFor returns the colors for name, falling back to dark.
func ThemeFor(name state.Theme) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[state.ThemeDark]
}

// Styles are the lipgloss styles built from a theme.
type Styles struct {
	Surface    lipgloss.Style
	SurfaceAlt lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Logo     lipgloss.Style
	Selected lipgloss.Style
	Panel    lipgloss.Style
	Focused  lipgloss.Style
	Modal    lipgloss.Style
}

// Styles returns lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Surface: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)),
		SurfaceAlt: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SurfaceAlt)).
			Foreground(lipgloss.Color(t.Text)),

		Text:       lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),
		WarningText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)),
		Focused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.BorderFocus)),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Danger)).
			Padding(1, 2),
	}
}

// Bar renders text as a full-width bar on the alternate surface.
func (t Theme) Bar(text string, width int) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(t.SurfaceAlt)).
		Foreground(lipgloss.Color(t.Text)).
		Width(width).
		MaxWidth(width).
		Render(text)
}
