package ui

import (
	"github.com/MatthiasKunnen/lockscreen/internal/wizard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the keys the lock screen reacts to. Every other key is inert, including the
// usual quit and suspend keys.
type KeyMap struct {
	Continue  key.Binding // Welcome: advance. Auth: submit.
	Backspace key.Binding
	Clear     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Continue:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "unlock")),
		Backspace: key.NewBinding(key.WithKeys("backspace")),
		Clear:     key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "clear")),
	}
}

// Action is what a key press asks of the wizard. The set of actions is closed.
type Action interface {
	isAction()
}

// Advance asks the wizard to move to the next step.
type Advance struct{}

// Dispatch asks the wizard to handle a step message.
type Dispatch struct {
	Message wizard.Message
}

func (Advance) isAction()  {}
func (Dispatch) isAction() {}

// Route maps a key press on the given step to an action, or nil if the key is inert.
// It has no side effects.
func (k KeyMap) Route(current wizard.StepKind, msg tea.KeyMsg) Action {
	switch current {
	case wizard.StepWelcome:
		if key.Matches(msg, k.Continue) {
			return Advance{}
		}
		return nil
	case wizard.StepAuth:
		return k.routeAuth(msg)
	default:
		panic("ui: unhandled step kind " + current.String())
	}
}

func (k KeyMap) routeAuth(msg tea.KeyMsg) Action {
	switch {
	case key.Matches(msg, k.Continue):
		return Dispatch{Message: wizard.Submit{}}
	case key.Matches(msg, k.Backspace):
		return Dispatch{Message: wizard.PasswordBackspace{}}
	case key.Matches(msg, k.Clear):
		return Dispatch{Message: wizard.PasswordClear{}}
	}

	if msg.Alt {
		return nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return nil
		}
		return Dispatch{Message: wizard.PasswordInput{Runes: msg.Runes}}
	case tea.KeySpace:
		return Dispatch{Message: wizard.PasswordInput{Runes: []rune{' '}}}
	default:
		return nil
	}
}
