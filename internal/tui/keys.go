package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding the TUI reacts to.
type keyMap struct {
	Quit     key.Binding
	QuitSoft key.Binding
	Next     key.Binding
	Prev     key.Binding
	Submit   key.Binding
	Toggle   key.Binding
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding

	// Canvas
	SelectNext key.Binding
	SelectPrev key.Binding
	Delete     key.Binding
	Reload     key.Binding
	ResetView  key.Binding
	Deselect   key.Binding

	// Confirmation
	Confirm key.Binding
	Cancel  key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	QuitSoft: key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
	Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev")),
	Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create")),
	Toggle:   key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	Left:     key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←", "less")),
	Right:    key.NewBinding(key.WithKeys("right", "l", "+"), key.WithHelp("→", "more")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down")),

	SelectNext: key.NewBinding(key.WithKeys("n", "]"), key.WithHelp("n", "next node")),
	SelectPrev: key.NewBinding(key.WithKeys("N", "["), key.WithHelp("N", "prev node")),
	Delete:     key.NewBinding(key.WithKeys("d", "delete", "backspace"), key.WithHelp("d", "delete")),
	Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	ResetView:  key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset view")),
	Deselect:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),

	Confirm: key.NewBinding(key.WithKeys("y", "Y", "enter"), key.WithHelp("y", "delete")),
	Cancel:  key.NewBinding(key.WithKeys("n", "N", "esc", "q"), key.WithHelp("n", "cancel")),
}
