package idle

import (
	"errors"
	"fmt"
	"github.com/MatthiasKunnen/go-wayland/wayland/client"
	idleNotify "github.com/MatthiasKunnen/go-wayland/wayland/staging/ext-idle-notify-v1"
	"math"
	"sync"
	"time"
)

type waylandController struct {
	done      chan struct{}
	closeOnce sync.Once
	// Wayland objects must only be used from the goroutine that runs the dispatch functions.
	dispatch chan func() error
	display  *client.Display
	registry *client.Registry
	notifier *idleNotify.IdleNotifier
	seat     *client.Seat
}

type waylandNotification struct {
	closeOnce    sync.Once
	controller   *waylandController
	notification *idleNotify.IdleNotification
}

// Close queues the destruction of the notification on the dispatch goroutine.
func (n *waylandNotification) Close() error {
	n.closeOnce.Do(func() {
		destroy := func() error {
			if err := n.notification.Destroy(); err != nil {
				return fmt.Errorf("failed to destroy idle notification: %w", err)
			}
			return nil
		}

		go func() {
			select {
			case <-n.controller.done:
			case n.controller.dispatch <- destroy:
			}
		}()
	})

	return nil
}

// NewWaylandIdleController connects to the compositor named by WAYLAND_DISPLAY and binds the
// ext-idle-notify-v1 global for the first seat it advertises.
//
// The returned channel yields the Wayland dispatch functions. They must all be executed on one
// goroutine, the same one that calls AddNotification and Close. An auto-lock loop usually
// selects on it next to its idle channels.
func NewWaylandIdleController() (Controller, <-chan func() error, error) {
	display, err := client.Connect("")
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to Wayland server: %w", err)
	}

	m := &waylandController{
		done:     make(chan struct{}),
		dispatch: make(chan func() error),
		display:  display,
	}

	if err := m.bindGlobals(); err != nil {
		return nil, nil, errors.Join(err, m.Close())
	}

	go func() {
		for {
			select {
			case m.dispatch <- m.context().GetDispatch():
			case <-m.done:
				return
			}
		}
	}()

	return m, m.dispatch, nil
}

// bindGlobals binds the idle notifier and the seat. Two roundtrips are needed: the first
// delivers the globals, the second the results of binding them.
func (m *waylandController) bindGlobals() error {
	registry, err := m.display.GetRegistry()
	if err != nil {
		return fmt.Errorf("error getting Wayland registry: %w", err)
	}
	m.registry = registry

	var bindErr error
	registry.SetGlobalHandler(func(e client.RegistryGlobalEvent) {
		switch e.Interface {
		case idleNotify.IdleNotifierInterfaceName:
			notifier := idleNotify.NewIdleNotifier(m.context())
			if err := registry.Bind(e.Name, e.Interface, e.Version, notifier); err != nil {
				bindErr = errors.Join(bindErr, fmt.Errorf("unable to bind %s: %w", e.Interface, err))
				return
			}
			m.notifier = notifier
		case client.SeatInterfaceName:
			if m.seat != nil {
				return
			}
			seat := client.NewSeat(m.context())
			if err := registry.Bind(e.Name, e.Interface, e.Version, seat); err != nil {
				bindErr = errors.Join(bindErr, fmt.Errorf("unable to bind %s: %w", e.Interface, err))
				return
			}
			m.seat = seat
		}
	})

	for round := 1; round <= 2; round++ {
		if err := m.display.Roundtrip(); err != nil {
			return fmt.Errorf("roundtrip %d failed: %w", round, err)
		}
		if bindErr != nil {
			return fmt.Errorf("binding globals failed in roundtrip %d: %w", round, bindErr)
		}
	}

	switch {
	case m.notifier == nil:
		return errors.New("compositor does not support ext-idle-notify-v1")
	case m.seat == nil:
		return errors.New("compositor advertised no seat")
	}

	return nil
}

func (m *waylandController) context() *client.Context {
	return m.display.Context()
}

func (m *waylandController) Close() error {
	var err error
	if m.seat != nil {
		if releaseErr := m.seat.Release(); releaseErr != nil {
			err = errors.Join(err, fmt.Errorf("error releasing seat: %w", releaseErr))
		}
	}
	if m.notifier != nil {
		if destroyErr := m.notifier.Destroy(); destroyErr != nil {
			err = errors.Join(err, fmt.Errorf("error destroying idle notifier: %w", destroyErr))
		}
	}
	if destroyErr := m.display.Destroy(); destroyErr != nil {
		err = errors.Join(err, fmt.Errorf("error destroying display: %w", destroyErr))
	}

	m.closeOnce.Do(func() {
		close(m.done)
	})

	if closeErr := m.context().Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("error closing Wayland connection: %w", closeErr))
	}

	return err
}

// AddNotification asks the compositor to report when the seat has been idle for
// input.Duration, and when it becomes active again after that.
func (m *waylandController) AddNotification(input *CreateIdleNotification) (Notification, error) {
	if input.Idle == nil && input.Resume == nil {
		return nil, errors.New("either Idle or Resume is required")
	}

	timeout, err := timeoutMillis(input.Duration)
	if err != nil {
		return nil, err
	}

	notification, err := m.notifier.GetIdleNotification(timeout, m.seat)
	if err != nil {
		return nil, fmt.Errorf("unable to get idle notification: %w", err)
	}

	if input.Idle != nil {
		notification.SetIdledHandler(func(idleNotify.IdleNotificationIdledEvent) {
			m.forward(input.Idle)
		})
	}
	if input.Resume != nil {
		notification.SetResumedHandler(func(idleNotify.IdleNotificationResumedEvent) {
			m.forward(input.Resume)
		})
	}

	return &waylandNotification{
		controller:   m,
		notification: notification,
	}, nil
}

// forward notifies c without blocking the dispatch goroutine.
func (m *waylandController) forward(c chan<- struct{}) {
	go func() {
		select {
		case c <- struct{}{}:
		case <-m.done:
		}
	}()
}

// timeoutMillis converts d to the millisecond timeout of the protocol. Negative durations are
// treated as zero.
func timeoutMillis(d time.Duration) (uint32, error) {
	ms := d.Milliseconds()
	switch {
	case ms < 0:
		return 0, nil
	case ms > math.MaxUint32:
		return 0, fmt.Errorf("idle duration %s exceeds %d ms", d, uint32(math.MaxUint32))
	}

	return uint32(ms), nil
}
