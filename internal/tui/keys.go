package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines key bindings for the chart window.
type KeyMap struct {
	Quit    key.Binding
	Left    key.Binding
	Right   key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Home    key.Binding
	End     key.Binding
	Help    key.Binding
}

// DefaultKeyMap provides the default key bindings for the chart window.
var DefaultKeyMap = KeyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
	ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	Home:    key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first sample")),
	End:     key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "latest sample")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.ZoomIn, k.ZoomOut, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Home, k.End},
		{k.ZoomIn, k.ZoomOut},
		{k.Help, k.Quit},
	}
}
