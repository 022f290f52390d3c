package wizard

import (
	"errors"
	"fmt"
)

// ErrInvariant marks programming errors in the unlock protocol. They are never shown to the user.
var ErrInvariant = errors.New("wizard: invariant violated")

// ErrAlreadyUnlocked is returned when the Gate is signaled more than once.
var ErrAlreadyUnlocked = fmt.Errorf("%w: unlock gate signaled twice", ErrInvariant)

// Gate is a single-shot unlock signal.
type Gate struct {
	unlocked bool
}

// Signal fires the gate. It must only be called once a verification has succeeded.
// A second call returns ErrAlreadyUnlocked and leaves the gate fired.
func (g *Gate) Signal() error {
	if g.unlocked {
		return ErrAlreadyUnlocked
	}
	g.unlocked = true

	return nil
}

// Fired reports whether Signal has been called.
func (g *Gate) Fired() bool {
	return g.unlocked
}
