package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the viewer bindings. It implements help.KeyMap.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	NextGroup key.Binding
	PrevGroup key.Binding
	Done      key.Binding
	Skip      key.Binding
	Reopen    key.Binding
	AddAfter  key.Binding
	AddBefore key.Binding
	Remove    key.Binding
	Strategy  key.Binding
	Density   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		NextGroup: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next group")),
		PrevGroup: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev group")),
		Done:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "done")),
		Skip:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
		Reopen:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "reopen")),
		AddAfter:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add after")),
		AddBefore: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "add before")),
		Remove:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		Strategy:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "layout")),
		Density:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "density")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextGroup, k.Done, k.Skip, k.AddAfter, k.Remove, k.Strategy, k.Help, k.Quit}
}

// FullHelp returns every binding, grouped in columns.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.NextGroup, k.PrevGroup, k.Strategy, k.Density},
		{k.Done, k.Skip, k.Reopen},
		{k.AddAfter, k.AddBefore, k.Remove},
		{k.Help, k.Quit},
	}
}
