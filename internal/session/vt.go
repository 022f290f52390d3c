package session

import (
	"context"
	"fmt"
	"golang.org/x/sys/unix"
	"os"
)

// Console ioctls from linux/vt.h.
const (
	vtLockSwitch   = 0x560B
	vtUnlockSwitch = 0x560C
)

// VTSwitch disables switching virtual terminals while the session is locked.
// The ioctl needs CAP_SYS_TTY_CONFIG.
type VTSwitch struct {
	// Console is the terminal the ioctl is issued on, usually the locker's own VT.
	Console *os.File

	// ioctl defaults to unix.IoctlSetInt.
	ioctl func(fd int, req uint, value int) error
}

func (v VTSwitch) Lock(context.Context) error {
	if err := v.call(vtLockSwitch); err != nil {
		return fmt.Errorf("VT_LOCKSWITCH on %s: %w", v.Console.Name(), err)
	}

	return nil
}

func (v VTSwitch) Unlock(context.Context) error {
	if err := v.call(vtUnlockSwitch); err != nil {
		return fmt.Errorf("VT_UNLOCKSWITCH on %s: %w", v.Console.Name(), err)
	}

	return nil
}

func (v VTSwitch) call(req uint) error {
	ioctl := v.ioctl
	if ioctl == nil {
		ioctl = unix.IoctlSetInt
	}

	return ioctl(int(v.Console.Fd()), req, 0)
}
