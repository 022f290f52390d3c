package lock

import (
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestHandleIncomingSignal(t *testing.T) {
	const sessionPath = dbus.ObjectPath("/org/freedesktop/login1/session/_32")
	dc := &dbusCon{
		session:     (&dbus.Conn{}).Object(dbusDest, sessionPath),
		lockSignals: make(map[chan<- struct{}]struct{}),
	}
	c := make(chan struct{}, 1)
	dc.lockSignals[c] = struct{}{}

	dc.handleIncomingSignal(nil)
	dc.handleIncomingSignal(&dbus.Signal{Path: "/org/freedesktop/login1/session/_33", Name: dbusSessionInterface + ".Lock"})
	dc.handleIncomingSignal(&dbus.Signal{Path: sessionPath, Name: dbusSessionInterface + ".Unlock"})
	assert.Empty(t, c)

	dc.handleIncomingSignal(&dbus.Signal{Path: sessionPath, Name: dbusSessionInterface + ".Lock"})
	assert.Len(t, c, 1)

	// A full channel does not block the handler.
	dc.handleIncomingSignal(&dbus.Signal{Path: sessionPath, Name: dbusSessionInterface + ".Lock"})
	assert.Len(t, c, 1)
}

func TestAddLockSignal_NilChannel(t *testing.T) {
	dc := &dbusCon{lockSignals: make(map[chan<- struct{}]struct{})}

	assert.Error(t, dc.AddLockSignal(nil))
	assert.Error(t, dc.RemoveLockSignal(nil))
}
