package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the palette the chat screen is drawn with
type Theme struct {
	Name    string
	Accent  lipgloss.AdaptiveColor
	Text    lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
	Faint   lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor
	Think   lipgloss.AdaptiveColor
	Tool    lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
}

// DefaultTheme uses the 256-color palette of the original terminal client
var DefaultTheme = Theme{
	Name:    "default",
	Accent:  lipgloss.AdaptiveColor{Light: "25", Dark: "75"},
	Text:    lipgloss.AdaptiveColor{Light: "235", Dark: "15"},
	Muted:   lipgloss.AdaptiveColor{Light: "242", Dark: "246"},
	Faint:   lipgloss.AdaptiveColor{Light: "248", Dark: "240"},
	Border:  lipgloss.AdaptiveColor{Light: "250", Dark: "238"},
	Think:   lipgloss.AdaptiveColor{Light: "243", Dark: "244"},
	Tool:    lipgloss.AdaptiveColor{Light: "242", Dark: "245"},
	Warning: lipgloss.AdaptiveColor{Light: "166", Dark: "214"},
	Error:   lipgloss.AdaptiveColor{Light: "160", Dark: "196"},
}

var DraculaTheme = Theme{
	Name:    "dracula",
	Accent:  lipgloss.AdaptiveColor{Light: "#BD93F9", Dark: "#BD93F9"},
	Text:    lipgloss.AdaptiveColor{Light: "#282A36", Dark: "#F8F8F2"},
	Muted:   lipgloss.AdaptiveColor{Light: "#6272A4", Dark: "#A4ACCF"},
	Faint:   lipgloss.AdaptiveColor{Light: "#6272A4", Dark: "#6272A4"},
	Border:  lipgloss.AdaptiveColor{Light: "#44475A", Dark: "#44475A"},
	Think:   lipgloss.AdaptiveColor{Light: "#6272A4", Dark: "#6272A4"},
	Tool:    lipgloss.AdaptiveColor{Light: "#FF79C6", Dark: "#FF79C6"},
	Warning: lipgloss.AdaptiveColor{Light: "#F1FA8C", Dark: "#F1FA8C"},
	Error:   lipgloss.AdaptiveColor{Light: "#FF5555", Dark: "#FF5555"},
}

var NordTheme = Theme{
	Name:    "nord",
	Accent:  lipgloss.AdaptiveColor{Light: "#5E81AC", Dark: "#88C0D0"},
	Text:    lipgloss.AdaptiveColor{Light: "#2E3440", Dark: "#ECEFF4"},
	Muted:   lipgloss.AdaptiveColor{Light: "#4C566A", Dark: "#D8DEE9"},
	Faint:   lipgloss.AdaptiveColor{Light: "#4C566A", Dark: "#4C566A"},
	Border:  lipgloss.AdaptiveColor{Light: "#D8DEE9", Dark: "#3B4252"},
	Think:   lipgloss.AdaptiveColor{Light: "#4C566A", Dark: "#616E88"},
	Tool:    lipgloss.AdaptiveColor{Light: "#B48EAD", Dark: "#B48EAD"},
	Warning: lipgloss.AdaptiveColor{Light: "#D08770", Dark: "#EBCB8B"},
	Error:   lipgloss.AdaptiveColor{Light: "#BF616A", Dark: "#BF616A"},
}

// GetTheme returns a theme by name. Unknown names and "auto" select the
// default theme, whose adaptive colors follow the terminal background.
func GetTheme(name string) Theme {
	switch name {
	case "dracula":
		return DraculaTheme
	case "nord":
		return NordTheme
	default:
		return DefaultTheme
	}
}
