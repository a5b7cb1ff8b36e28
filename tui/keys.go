package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines key bindings
type KeyMap struct {
	Send        key.Binding
	Stop        key.Binding
	NewChat     key.Binding
	Focus       key.Binding
	Up          key.Binding
	Down        key.Binding
	Open        key.Binding
	PageDown    key.Binding
	PageUp      key.Binding
	ToggleThink key.Binding
	Suspend     key.Binding
	Quit        key.Binding
	Confirm     key.Binding
	Decline     key.Binding
}

// DefaultKeyMap returns default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send/stop"),
		),
		Stop: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "history"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "older"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "home"),
			key.WithHelp("pgup", "newer"),
		),
		ToggleThink: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "thinking"),
		),
		Suspend: key.NewBinding(
			key.WithKeys("ctrl+z"),
			key.WithHelp("ctrl+z", "suspend"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "abort and switch"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "keep streaming"),
		),
	}
}

// inputHelp lists the bindings shown while typing
func (k KeyMap) inputHelp() []key.Binding {
	return []key.Binding{k.Send, k.Stop, k.NewChat, k.Focus, k.ToggleThink, k.Quit}
}

// sidebarHelp lists the bindings shown while the history list has focus
func (k KeyMap) sidebarHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.PageDown, k.PageUp, k.Focus, k.Quit}
}

func (k KeyMap) confirmHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Decline}
}
