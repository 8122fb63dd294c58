package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines colors for the UI.
type Theme struct {
	Name string
	Dark bool

	Background string // Outermost background
	Surface    string // Header and footer bars
	SurfaceAlt string // Panels

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Badge colors keyed by lifecycle phase.
	PhaseColors map[string]string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		FaintText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Faint)),

		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),

		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		InfoText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),

		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Bold(true),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),

		FocusPanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.BorderFocus)).
			Padding(0, 1),

		Alert: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color(t.Danger)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),

		phaseColors: t.PhaseColors,
		background:  t.Background,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header     lipgloss.Style
	Footer     lipgloss.Style
	Logo       lipgloss.Style
	Panel      lipgloss.Style
	FocusPanel lipgloss.Style
	Alert      lipgloss.Style
	Selected   lipgloss.Style

	phaseColors map[string]string
	background  string
}

// PhaseStyle returns a badge style for the given lifecycle phase.
func (s Styles) PhaseStyle(phase string) lipgloss.Style {
	color := s.phaseColors[phase]
	if color == "" {
		color = "#6272A4"
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Bold(true).
		Padding(0, 1)
}

// LevelStyle returns the style for a log level.
func (s Styles) LevelStyle(level string) lipgloss.Style {
	switch level {
	case "ERROR":
		return s.DangerText
	case "WARN":
		return s.WarningText
	case "DEBUG":
		return s.InfoText
	default:
		return s.SuccessText
	}
}

var themes = map[string]Theme{
	"Dracula": draculaTheme(),
	"Slate":   slateTheme(),
	"Paper":   paperTheme(),
}

// darkOrder is the palette cycle for dark mode.
var darkOrder = []string{"Dracula", "Slate"}

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return draculaTheme()
}

// NextTheme returns the next dark palette in the cycle.
func NextTheme(current string) string {
	for i, name := range darkOrder {
		if name == current {
			return darkOrder[(i+1)%len(darkOrder)]
		}
	}
	return darkOrder[0]
}

// ResolveTheme picks the palette for the user's theme setting. "light" uses
// the light palette; "dark" and "auto" use the preferred dark palette.
func ResolveTheme(setting, palette string) Theme {
	if setting == "light" {
		return paperTheme()
	}
	t := GetTheme(palette)
	if !t.Dark {
		return draculaTheme()
	}
	return t
}

func draculaTheme() Theme {
	// Dracula palette: https://draculatheme.com/spec
	return Theme{
		Name: "Dracula",
		Dark: true,

		Background: "#191A21",
		Surface:    "#282A36",
		SurfaceAlt: "#21222C",

		Border:      "#44475A",
		BorderFocus: "#BD93F9",

		Text:    "#F8F8F2",
		Muted:   "#6272A4",
		Faint:   "#44475A",
		Accent:  "#BD93F9",
		Success: "#50FA7B",
		Warning: "#FFB86C",
		Danger:  "#FF5555",
		Info:    "#8BE9FD",

		PhaseColors: map[string]string{
			"starting":   "#8BE9FD",
			"onboarding": "#FFB86C",
			"locked":     "#FF79C6",
			"ready":      "#50FA7B",
			"failed":     "#FF5555",
		},
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name: "Slate",
		Dark: true,

		Background: "#020617", // slate-950
		Surface:    "#0f172a", // slate-900
		SurfaceAlt: "#1e293b", // slate-800

		Border:      "#334155", // slate-700
		BorderFocus: "#38bdf8", // sky-400

		Text:    "#f1f5f9", // slate-100
		Muted:   "#94a3b8", // slate-400
		Faint:   "#64748b", // slate-500
		Accent:  "#38bdf8", // sky-400
		Success: "#22c55e", // green-500
		Warning: "#f59e0b", // amber-500
		Danger:  "#ef4444", // red-500
		Info:    "#06b6d4", // cyan-500

		PhaseColors: map[string]string{
			"starting":   "#0284c7",
			"onboarding": "#f59e0b",
			"locked":     "#8b5cf6",
			"ready":      "#16a34a",
			"failed":     "#dc2626",
		},
	}
}

func paperTheme() Theme {
	// Tailwind CSS Stone palette for light mode.
	return Theme{
		Name: "Paper",

		Background: "#fafaf9", // stone-50
		Surface:    "#e7e5e4", // stone-200
		SurfaceAlt: "#f5f5f4", // stone-100

		Border:      "#a8a29e", // stone-400
		BorderFocus: "#2563eb", // blue-600

		Text:    "#1c1917", // stone-900
		Muted:   "#57534e", // stone-600
		Faint:   "#a8a29e", // stone-400
		Accent:  "#2563eb", // blue-600
		Success: "#15803d", // green-700
		Warning: "#b45309", // amber-700
		Danger:  "#b91c1c", // red-700
		Info:    "#0e7490", // cyan-700

		PhaseColors: map[string]string{
			"starting":   "#0e7490",
			"onboarding": "#b45309",
			"locked":     "#7c3aed",
			"ready":      "#15803d",
			"failed":     "#b91c1c",
		},
	}
}
