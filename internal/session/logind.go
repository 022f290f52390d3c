package session

import (
	"context"
	"fmt"
)

// LockedHinter sets the locked hint of a login session. It is implemented by lock.Lock.
type LockedHinter interface {
	SetLocked(ctx context.Context, locked bool) error
}

// LockedHint publishes the lock state to logind so that other programs, e.g. an auto-lock
// daemon, know the session is locked.
type LockedHint struct {
	Session LockedHinter
}

func (h LockedHint) Lock(ctx context.Context) error {
	if err := h.Session.SetLocked(ctx, true); err != nil {
		return fmt.Errorf("failed to set locked hint: %w", err)
	}

	return nil
}

func (h LockedHint) Unlock(ctx context.Context) error {
	if err := h.Session.SetLocked(ctx, false); err != nil {
		return fmt.Errorf("failed to clear locked hint: %w", err)
	}

	return nil
}
