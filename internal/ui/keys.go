package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	Quit         key.Binding
	Help         key.Binding
	Retry        key.Binding
	CycleTheme   key.Binding
	CyclePalette key.Binding
	ToggleLogs   key.Binding

	// Ready screen settings
	AlwaysLocate key.Binding
	Compact      key.Binding
	Backup       key.Binding

	// Onboarding picker
	Up      key.Binding
	Down    key.Binding
	Choose  key.Binding
	Backend key.Binding

	// Lock screen
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Retry startup"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		CyclePalette: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "Cycle dark palette"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Toggle logs"),
		),
		AlwaysLocate: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Toggle always locate"),
		),
		Compact: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Toggle compact buttons"),
		),
		Backup: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Stamp backup date"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "Up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "Down"),
		),
		Choose: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Use backend"),
		),
		Backend: key.NewBinding(
			key.WithKeys("1", "2", "3"),
			key.WithHelp("1-3", "Pick backend"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Unlock"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Clear pin"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Retry, k.ToggleLogs, k.CycleTheme, k.Help}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Help, k.Retry, k.ToggleLogs},
		{k.CycleTheme, k.CyclePalette},
		{k.AlwaysLocate, k.Compact, k.Backup},
		{k.Up, k.Down, k.Choose, k.Backend},
		{k.Confirm, k.Cancel},
	}
}
