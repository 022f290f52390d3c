package session

import (
	"context"
	"fmt"
	"github.com/godbus/dbus/v5"
)

// CollectionLocker locks Secret Service objects. It is implemented by *secrets.Secrets.
type CollectionLocker interface {
	Lock(ctx context.Context, paths []string) ([]dbus.ObjectPath, error)
}

// Keyring locks the given keyring collections when the session is locked.
// Unlocking is left to the keyring itself, which prompts the next time a secret is needed.
type Keyring struct {
	Secrets     CollectionLocker
	Collections []string
}

func (k Keyring) Lock(ctx context.Context) error {
	if len(k.Collections) == 0 {
		return nil
	}

	if _, err := k.Secrets.Lock(ctx, k.Collections); err != nil {
		return fmt.Errorf("failed to lock keyring %v: %w", k.Collections, err)
	}

	return nil
}

func (k Keyring) Unlock(context.Context) error {
	return nil
}
