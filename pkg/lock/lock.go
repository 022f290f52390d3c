package lock

import (
	"context"
	"io"
)

// Lock represents the lock state of a login session.
// It allows:
//   - getting/setting the locked hint
//   - being notified of lock requests, e.g. from `loginctl lock-session`
//
// It is safe to call Lock's methods concurrently.
type Lock interface {

	// GetLocked gets the locked hint of the session; true=locked, false=unlocked.
	GetLocked(ctx context.Context) (bool, error)

	// SetLocked sets the locked hint of the session. A screen locker sets it to true once the
	// screen is locked and to false after a successful unlock.
	SetLocked(ctx context.Context, locked bool) error

	// AddLockSignal registers a channel that will be notified when the "Lock" signal is received.
	// Receiving this means that the session should be locked.
	//
	// Writing to this channel does not block.
	// Use a buffered channel if you don't want to miss anything.
	AddLockSignal(c chan<- struct{}) error

	// RemoveLockSignal unregisters a channel previously registered with AddLockSignal.
	// RemoveLockSignal can be safely called with an unregistered channel.
	RemoveLockSignal(c chan<- struct{}) error
	io.Closer
}
