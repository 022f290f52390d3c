package inhibit

import (
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestJoinWhat(t *testing.T) {
	assert.Equal(t, "sleep", joinWhat([]What{WhatSleep}))
	assert.Equal(t, "sleep:idle:handle-lid-switch", joinWhat([]What{WhatSleep, WhatIdle, WhatHandleLidSwitch}))
}

func TestHandleIncomingSignal(t *testing.T) {
	i := &Inhibitor{
		login1:              (&dbus.Conn{}).Object(dbusDest, dbusPath),
		prepareForSleepSubs: make(map[chan<- bool]struct{}),
	}
	c := make(chan bool, 1)
	i.prepareForSleepSubs[c] = struct{}{}

	i.handleIncomingSignal(nil)
	i.handleIncomingSignal(&dbus.Signal{Path: "/other", Name: dbusManagerInterface + ".PrepareForSleep", Body: []interface{}{true}})
	i.handleIncomingSignal(&dbus.Signal{Path: dbusPath, Name: dbusManagerInterface + ".PrepareForSleep", Body: []interface{}{"bad"}})
	assert.Empty(t, c)

	i.handleIncomingSignal(&dbus.Signal{Path: dbusPath, Name: dbusManagerInterface + ".PrepareForSleep", Body: []interface{}{true}})
	assert.True(t, <-c)

	// Sends never block, a full channel drops the signal.
	c <- false
	i.handleIncomingSignal(&dbus.Signal{Path: dbusPath, Name: dbusManagerInterface + ".PrepareForSleep", Body: []interface{}{true}})
	assert.False(t, <-c)
}
