package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the TUI.
type KeyMap struct {
	// Agents
	Philosophers key.Binding
	Producer     key.Binding
	Consumer     key.Binding

	// Navigation
	Tab  key.Binding
	Up   key.Binding
	Down key.Binding

	// Control
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap provides the default key bindings for the TUI.
var DefaultKeyMap = KeyMap{
	Philosophers: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "start/stop dining"),
	),
	Producer: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "start/stop producer"),
	),
	Consumer: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "start/stop consumer"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch tabs"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Philosophers, k.Producer, k.Consumer, k.Tab, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Philosophers, k.Producer, k.Consumer},
		{k.Tab, k.Up, k.Down},
		{k.Help, k.Quit},
	}
}
