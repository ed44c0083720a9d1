package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap implements help.KeyMap. Household keys are only live on the
// leaderboard tab, so disabled bindings drop out of both matching and help.
type KeyMap struct {
	NextTab       key.Binding
	PrevTab       key.Binding
	Up            key.Binding
	Down          key.Binding
	PrevHousehold key.Binding
	NextHousehold key.Binding
	Complete      key.Binding
	Refresh       key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func bind(help string, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextTab:       bind("tab", "next tab", "tab"),
		PrevTab:       bind("shift+tab", "prev tab", "shift+tab"),
		Up:            bind("↑/k", "up", "up", "k"),
		Down:          bind("↓/j", "down", "down", "j"),
		PrevHousehold: bind("←/h", "prev household", "left", "h"),
		NextHousehold: bind("→/l", "next household", "right", "l"),
		Complete:      bind("c", "complete habit", "c"),
		Refresh:       bind("r", "refresh", "r"),
		Help:          bind("?", "toggle help", "?"),
		Quit:          bind("q", "quit", "q", "ctrl+c"),
	}
}

func (k *KeyMap) setTab(state SessionState) {
	onBoard := state == StateLeaderboard
	k.PrevHousehold.SetEnabled(onBoard)
	k.NextHousehold.SetEnabled(onBoard)
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Complete, k.PrevHousehold, k.NextHousehold, k.Quit, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Refresh, k.Help, k.Quit},
		{k.Up, k.Down, k.PrevHousehold, k.NextHousehold},
		{k.Complete},
	}
}
