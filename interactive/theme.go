package interactive

import "github.com/charmbracelet/lipgloss"

// Theme is the console palette.
type Theme struct {
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Accent    lipgloss.AdaptiveColor

	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor

	TextBright lipgloss.AdaptiveColor
	Text       lipgloss.AdaptiveColor
	TextMuted  lipgloss.AdaptiveColor

	Border    lipgloss.AdaptiveColor
	BorderDim lipgloss.AdaptiveColor
	Surface   lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
}

// DefaultTheme leans on Holochain's teal and violet.
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.AdaptiveColor{Dark: "#4fd1c5", Light: "#0f766e"},
		Secondary: lipgloss.AdaptiveColor{Dark: "#b794f4", Light: "#6b46c1"},
		Accent:    lipgloss.AdaptiveColor{Dark: "#90cdf4", Light: "#2b6cb0"},

		Success: lipgloss.AdaptiveColor{Dark: "#9ae6b4", Light: "#2f855a"},
		Warning: lipgloss.AdaptiveColor{Dark: "#f6e05e", Light: "#975a16"},
		Error:   lipgloss.AdaptiveColor{Dark: "#fc8181", Light: "#c53030"},
		Info:    lipgloss.AdaptiveColor{Dark: "#90cdf4", Light: "#2c5282"},

		TextBright: lipgloss.AdaptiveColor{Dark: "#f7fafc", Light: "#1a202c"},
		Text:       lipgloss.AdaptiveColor{Dark: "#cbd5e0", Light: "#2d3748"},
		TextMuted:  lipgloss.AdaptiveColor{Dark: "#718096", Light: "#a0aec0"},

		Border:    lipgloss.AdaptiveColor{Dark: "#4a5568", Light: "#cbd5e0"},
		BorderDim: lipgloss.AdaptiveColor{Dark: "#2d3748", Light: "#e2e8f0"},
		Surface:   lipgloss.AdaptiveColor{Dark: "#1a202c", Light: "#edf2f7"},
		Highlight: lipgloss.AdaptiveColor{Dark: "#2c5282", Light: "#bee3f8"},
	}
}
