package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/meza/minecraft-launcher/internal/i18n"
)

// ProgressKeyMap is the set of keys a running batch reacts to.
type ProgressKeyMap struct {
	Cancel  key.Binding
	Details key.Binding
}

func DefaultProgressKeyMap() ProgressKeyMap {
	return ProgressKeyMap{
		Cancel:  Cancel(),
		Details: Details(),
	}
}

func (k ProgressKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Details, k.Cancel}
}

func (k ProgressKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func Cancel() key.Binding {
	return key.NewBinding(
		key.WithKeys("ctrl+c", "esc", "q"),
		key.WithHelp(fmt.Sprintf("%s/%s", i18n.T("key.ctrl_c"), i18n.T("key.esc")), i18n.T("key.help.cancel")),
	)
}

func Details() key.Binding {
	return key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", i18n.T("key.help.details")),
	)
}
