package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter     key.Binding
	back      key.Binding
	next      key.Binding
	prev      key.Binding
	numberOne key.Binding
	rate      key.Binding
	clear     key.Binding
	refresh   key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		next:      key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next page")),
		prev:      key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "prev page")),
		numberOne: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "#1 hits only")),
		rate: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9", "0"),
			key.WithHelp("1-9,0", "rate (0 = 10)"),
		),
		clear:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear rating")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.back, k.refresh},
		{k.next, k.prev, k.numberOne},
		{k.rate, k.clear, k.quit},
	}
}
