package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the styles of the chat screen
type Styles struct {
	Theme Theme

	// Layout
	Header    lipgloss.Style
	Footer    lipgloss.Style
	Sidebar   lipgloss.Style
	ChatPanel lipgloss.Style
	InputArea lipgloss.Style
	InputIdle lipgloss.Style

	// Sidebar rows
	SidebarTitle    lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarCurrent  lipgloss.Style
	SidebarHint     lipgloss.Style

	// Messages
	UserLabel      lipgloss.Style
	UserText       lipgloss.Style
	AssistantLabel lipgloss.Style
	ThinkTag       lipgloss.Style
	ThinkText      lipgloss.Style
	ToolLine       lipgloss.Style
	ErrorLine      lipgloss.Style
	Attachment     lipgloss.Style

	// UI elements
	Title   lipgloss.Style
	Label   lipgloss.Style
	Notice  lipgloss.Style
	Confirm lipgloss.Style
	Spinner lipgloss.Style
}

// NewStyles creates the styles for theme
func NewStyles(theme Theme) *Styles {
	s := &Styles{
		Theme: theme,
	}

	s.Header = lipgloss.NewStyle().
		Foreground(theme.Text).
		Padding(0, 1).
		Bold(true)

	s.Footer = lipgloss.NewStyle().
		Foreground(theme.Faint).
		Padding(0, 1)

	s.Sidebar = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	s.ChatPanel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	s.InputArea = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Accent).
		Padding(0, 1)

	s.InputIdle = s.InputArea.
		BorderForeground(theme.Border)

	s.SidebarTitle = lipgloss.NewStyle().
		Foreground(theme.Accent).
		Bold(true)

	s.SidebarItem = lipgloss.NewStyle().
		Foreground(theme.Muted)

	s.SidebarSelected = lipgloss.NewStyle().
		Foreground(theme.Accent).
		Bold(true)

	s.SidebarCurrent = lipgloss.NewStyle().
		Foreground(theme.Text).
		Underline(true)

	s.SidebarHint = lipgloss.NewStyle().
		Foreground(theme.Faint).
		Italic(true)

	s.UserLabel = lipgloss.NewStyle().
		Foreground(theme.Accent).
		Bold(true)

	s.UserText = lipgloss.NewStyle().
		Foreground(theme.Text)

	s.AssistantLabel = lipgloss.NewStyle().
		Foreground(theme.Text).
		Bold(true)

	s.ThinkTag = lipgloss.NewStyle().
		Foreground(theme.Think).
		Bold(true)

	s.ThinkText = lipgloss.NewStyle().
		Foreground(theme.Think)

	s.ToolLine = lipgloss.NewStyle().
		Foreground(theme.Tool).
		Italic(true)

	s.ErrorLine = lipgloss.NewStyle().
		Foreground(theme.Error)

	s.Attachment = lipgloss.NewStyle().
		Foreground(theme.Muted).
		Italic(true)

	s.Title = lipgloss.NewStyle().
		Foreground(theme.Accent).
		Bold(true)

	s.Label = lipgloss.NewStyle().
		Foreground(theme.Muted)

	s.Notice = lipgloss.NewStyle().
		Foreground(theme.Error).
		Padding(0, 1)

	s.Confirm = lipgloss.NewStyle().
		Foreground(theme.Warning).
		Bold(true).
		Padding(0, 1)

	s.Spinner = lipgloss.NewStyle().
		Foreground(theme.Accent)

	return s
}

// RenderRole returns a styled role prefix
func (s *Styles) RenderRole(role string) string {
	switch role {
	case "user":
		return s.UserLabel.Render("You:")
	case "assistant":
		return s.AssistantLabel.Render("Assistant:")
	case "tool":
		return s.ToolLine.Render("Tool:")
	default:
		return s.Label.Render(role + ":")
	}
}
