// Package idle notifies when the seat has seen no user input for a while, so the session can be
// locked automatically.
//
// The Wayland implementation uses the [ext-idle-notify-v1] protocol. Compositors apply their own
// idle inhibitors, e.g. a playing video, before reporting idle.
//
// [ext-idle-notify-v1]: https://wayland.app/protocols/ext-idle-notify-v1
package idle

import (
	"time"
)

type Controller interface {
	// AddNotification registers an idle timeout. Call it from the dispatch goroutine.
	AddNotification(notificationInput *CreateIdleNotification) (Notification, error)
	// Close closes any connection the Controller might have. Do not use the Controller after
	// this.
	Close() error
}

type Notification interface {
	// Close removes the idle timeout.
	// Safe to be called from another goroutine.
	Close() error
}

type CreateIdleNotification struct {
	// Duration of inactivity after which Idle is notified. It is truncated to milliseconds.
	Duration time.Duration

	// Idle is notified once the seat has been idle for Duration. Optional if Resume is set.
	Idle chan<- struct{}

	// Resume is notified when input arrives after Idle was notified. Optional if Idle is set.
	Resume chan<- struct{}
}
