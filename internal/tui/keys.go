package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the event browser.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding

	Open key.Binding // Show the selected event.
	Back key.Binding // Close the detail view or leave the search box.

	Search   key.Binding
	Category key.Binding
	Location key.Binding
	Price    key.Binding
	Sort     key.Binding
	Reset    key.Binding
	Refresh  key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in binding set, with vim-style j/k alongside
// the arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "details"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Category: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "category"),
	),
	Location: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "location"),
	),
	Price: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "price"),
	),
	Sort: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sort"),
	),
	Reset: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear filters"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Category, k.Location, k.Price, k.Sort, k.Reset, k.Refresh, k.Open, k.Quit}
}

// FullHelp satisfies help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Back},
		{k.Search, k.Category, k.Location, k.Price, k.Sort},
		{k.Reset, k.Refresh, k.Quit},
	}
}
