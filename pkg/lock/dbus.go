package lock

import (
	"context"
	"errors"
	"fmt"
	"github.com/godbus/dbus/v5"
	"os"
	"sync"
)

const (
	dbusDest             = "org.freedesktop.login1"
	dbusPath             = "/org/freedesktop/login1"
	dbusManagerInterface = "org.freedesktop.login1.Manager"
	dbusSessionInterface = "org.freedesktop.login1.Session"
)

type dbusCon struct {
	conn               *dbus.Conn
	session            dbus.BusObject
	muSignals          sync.Mutex
	closeSignalHandler chan struct{}
	closeOnce          sync.Once

	lockSignals      map[chan<- struct{}]struct{}
	lockSignalActive bool
}

// NewDbusSessionLock creates and initializes a D-Bus [org.freedesktop.login1] implementation of the
// Lock interface for the given session.
//
// sessionId is the ID of the session, usually the XDG_SESSION_ID env var. When it is empty, the
// session of the current process is used.
//
// [org.freedesktop.login1]: https://www.freedesktop.org/software/systemd/man/latest/org.freedesktop.login1.html
func NewDbusSessionLock(ctx context.Context, sessionId string) (Lock, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	manager := conn.Object(dbusDest, dbusPath)

	var sessionPath dbus.ObjectPath
	if sessionId != "" {
		err = manager.
			CallWithContext(ctx, dbusManagerInterface+".GetSession", 0, sessionId).
			Store(&sessionPath)
	} else {
		err = manager.
			CallWithContext(ctx, dbusManagerInterface+".GetSessionByPID", 0, uint32(os.Getpid())).
			Store(&sessionPath)
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to find session object: %w", err)
	}

	result := &dbusCon{
		conn:               conn,
		session:            conn.Object(dbusDest, sessionPath),
		lockSignals:        make(map[chan<- struct{}]struct{}),
		closeSignalHandler: make(chan struct{}),
	}

	c := make(chan *dbus.Signal, 8)
	conn.Signal(c)
	go func() {
		for {
			select {
			case <-result.closeSignalHandler:
				conn.RemoveSignal(c)
				return
			case v := <-c:
				result.handleIncomingSignal(v)
			}
		}
	}()

	return result, nil
}

func (dc *dbusCon) SetLocked(ctx context.Context, locked bool) error {
	err := dc.session.
		CallWithContext(ctx, dbusSessionInterface+".SetLockedHint", 0, locked).Err
	if err != nil {
		return fmt.Errorf("could not set locked hint: %w", err)
	}

	return nil
}

func (dc *dbusCon) GetLocked(ctx context.Context) (bool, error) {
	var variant dbus.Variant
	err := dc.session.
		CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, dbusSessionInterface, "LockedHint").
		Store(&variant)
	if err != nil {
		return false, fmt.Errorf("could not get locked hint: %w", err)
	}

	lockedHint, ok := variant.Value().(bool)
	if !ok {
		return false, fmt.Errorf("LockedHint property result is not a boolean")
	}

	return lockedHint, nil
}

func (dc *dbusCon) lockMatch() []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchObjectPath(dc.session.Path()),
		dbus.WithMatchInterface(dbusSessionInterface),
		dbus.WithMatchSender(dbusDest),
		dbus.WithMatchMember("Lock"),
	}
}

func (dc *dbusCon) AddLockSignal(c chan<- struct{}) error {
	if c == nil {
		return errors.New("AddLockSignal: channel cannot be nil")
	}

	dc.muSignals.Lock()
	defer dc.muSignals.Unlock()

	if !dc.lockSignalActive {
		if err := dc.conn.AddMatchSignal(dc.lockMatch()...); err != nil {
			return fmt.Errorf("failed to register Dbus Lock signal: %w", err)
		}

		dc.lockSignalActive = true
	}

	dc.lockSignals[c] = struct{}{}

	return nil
}

func (dc *dbusCon) RemoveLockSignal(c chan<- struct{}) error {
	if c == nil {
		return errors.New("RemoveLockSignal: channel cannot be nil")
	}

	dc.muSignals.Lock()
	defer dc.muSignals.Unlock()

	delete(dc.lockSignals, c)

	if len(dc.lockSignals) == 0 {
		return dc.removeLockSignal()
	}

	return nil
}

// removeLockSignal removes the Lock signal match if it was registered.
// Holding the muSignals mutex is required.
func (dc *dbusCon) removeLockSignal() error {
	if !dc.lockSignalActive {
		return nil
	}

	if err := dc.conn.RemoveMatchSignal(dc.lockMatch()...); err != nil {
		return fmt.Errorf("failed to remove Dbus Lock signal: %w", err)
	}

	dc.lockSignalActive = false

	return nil
}

func (dc *dbusCon) Close() error {
	dc.muSignals.Lock()
	defer dc.muSignals.Unlock()

	var err error

	clear(dc.lockSignals)
	err = errors.Join(err, dc.removeLockSignal())

	dc.closeOnce.Do(func() {
		close(dc.closeSignalHandler)
	})

	return errors.Join(err, dc.conn.Close())
}

func (dc *dbusCon) handleIncomingSignal(s *dbus.Signal) {
	if s == nil {
		// Seems to happen on close
		return
	}

	if s.Path != dc.session.Path() || s.Name != dbusSessionInterface+".Lock" {
		return
	}

	dc.muSignals.Lock()
	defer dc.muSignals.Unlock()

	for c := range dc.lockSignals {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}
