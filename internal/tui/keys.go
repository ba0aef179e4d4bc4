package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	prev     key.Binding
	next     key.Binding
	loadMore key.Binding
	quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.prev, k.next, k.loadMore, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newKeyMap() keyMap {
	return keyMap{
		prev:     key.NewBinding(key.WithKeys("left", "p"), key.WithHelp("←/p", "previous")),
		next:     key.NewBinding(key.WithKeys("right", "n"), key.WithHelp("→/n", "next")),
		loadMore: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more"), key.WithDisabled()),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
