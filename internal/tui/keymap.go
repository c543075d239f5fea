package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the board view.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PrevList key.Binding
	NextList key.Binding
	Open     key.Binding

	// Item actions
	Pin     key.Binding
	Hide    key.Binding
	Details key.Binding
	AddTo   key.Binding
	Drop    key.Binding

	// List actions
	Sort       key.Binding
	Direction  key.Binding
	ShowHidden key.Binding
	NewList    key.Binding
	NewWith    key.Binding
	Rename     key.Binding
	Delete     key.Binding

	// Registry
	Refresh key.Binding
	Rebuild key.Binding
	Save    key.Binding

	Help    key.Binding
	Quit    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous item"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next item"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first item"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last item"),
		),
		PrevList: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous list"),
		),
		NextList: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next list"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "item details"),
		),
		Pin: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pin/unpin"),
		),
		Hide: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "hide/unhide"),
		),
		Details: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "toggle details"),
		),
		AddTo: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add to list"),
		),
		Drop: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "remove from list"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "next sort"),
		),
		Direction: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sort direction"),
		),
		ShowHidden: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "show hidden"),
		),
		NewList: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new list"),
		),
		NewWith: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "new list with item"),
		),
		Rename: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "rename list"),
		),
		Delete: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete list"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Rebuild: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "rebuild lists"),
		),
		Save: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "save"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "save and quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter", "y"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.PrevList, k.NextList, k.Open},
		{k.Pin, k.Hide, k.Details, k.AddTo, k.Drop},
		{k.Sort, k.Direction, k.ShowHidden, k.NewList, k.NewWith, k.Rename, k.Delete},
		{k.Refresh, k.Rebuild, k.Save, k.Help, k.Quit},
	}
}
