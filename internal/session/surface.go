// Package session controls what is locked while the lock screen runs.
package session

import (
	"context"
	"errors"
	"fmt"
)

// Surface is something that is locked for the duration of a lock session.
//
// Lock is called once before the lock screen is shown. Unlock is called at most once, and only
// after a password has been verified.
type Surface interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// Multi combines surfaces. Lock locks them in order and stops at the first failure, unlocking
// the ones already locked. Unlock unlocks them in reverse order and attempts all of them.
func Multi(surfaces ...Surface) Surface {
	return multi(surfaces)
}

type multi []Surface

func (m multi) Lock(ctx context.Context) error {
	for i, s := range m {
		if err := s.Lock(ctx); err != nil {
			err = fmt.Errorf("failed to lock %T: %w", s, err)
			return errors.Join(err, m[:i].Unlock(ctx))
		}
	}

	return nil
}

func (m multi) Unlock(ctx context.Context) error {
	var err error
	for i := len(m) - 1; i >= 0; i-- {
		if unlockErr := m[i].Unlock(ctx); unlockErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to unlock %T: %w", m[i], unlockErr))
		}
	}

	return err
}
