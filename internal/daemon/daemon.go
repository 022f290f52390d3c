// Package daemon locks the session automatically. It starts the lock command when logind asks
// for a lock, when the user has been idle, and before the system goes to sleep.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"github.com/MatthiasKunnen/lockscreen/pkg/idle"
	"github.com/MatthiasKunnen/lockscreen/pkg/inhibit"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

const (
	// defaultSleepGrace is how long sleep is delayed while waiting for the lock screen to report
	// the session as locked.
	defaultSleepGrace = 2 * time.Second
	lockedHintPoll    = 100 * time.Millisecond
)

// Session is the logind session being guarded. It is implemented by lock.Lock.
type Session interface {
	GetLocked(ctx context.Context) (bool, error)
	AddLockSignal(c chan<- struct{}) error
	RemoveLockSignal(c chan<- struct{}) error
}

// Sleep is implemented by *inhibit.Inhibitor.
type Sleep interface {
	Inhibit(ctx context.Context, who string, why string, mode inhibit.Mode, what ...inhibit.What) (io.Closer, error)
	SubscribePrepareForSleep(c chan<- bool) error
	UnsubscribePrepareForSleep(c chan<- bool) error
}

type Options struct {
	// Command is the lock command and its arguments. It is expected to run until the session is
	// unlocked.
	Command []string

	// Session is optional. When set, no lock command is started while its locked hint is set.
	Session Session
	// LockOnSignal starts the lock command when logind emits Lock for Session,
	// e.g. after `loginctl lock-session`.
	LockOnSignal bool

	// Idle and IdleDispatch are optional and come from idle.NewWaylandIdleController.
	Idle         idle.Controller
	IdleDispatch <-chan func() error
	IdleTimeout  time.Duration

	// Sleep is optional. When set, sleep is delayed until the session is locked.
	Sleep Sleep

	Logger *slog.Logger
}

// starter starts argv and returns a function that waits for it to exit.
type starter func(argv []string) (wait func() error, err error)

type Daemon struct {
	opts       Options
	logger     *slog.Logger
	start      starter
	sleepGrace time.Duration

	running   bool
	exited    chan error
	inhibitor io.Closer
}

func New(opts Options) (*Daemon, error) {
	if len(opts.Command) == 0 {
		return nil, errors.New("daemon: lock command is required")
	}
	if opts.Idle != nil && opts.IdleTimeout <= 0 {
		return nil, errors.New("daemon: idle timeout must be positive when idle detection is used")
	}
	if opts.LockOnSignal && opts.Session == nil {
		return nil, errors.New("daemon: locking on logind signal requires a session")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Daemon{
		opts:       opts,
		logger:     logger,
		start:      startProcess,
		sleepGrace: defaultSleepGrace,
		exited:     make(chan error, 1),
	}, nil
}

// startProcess starts the lock command detached from any context. Killing a running lock screen
// would unlock the session, so it is left running when the daemon stops.
func startProcess(argv []string) (func() error, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return cmd.Wait, nil
}

// Run handles lock triggers until ctx is done.
func (d *Daemon) Run(ctx context.Context) (err error) {
	var lockSignal chan struct{}
	if d.opts.LockOnSignal {
		lockSignal = make(chan struct{}, 1)
		if err := d.opts.Session.AddLockSignal(lockSignal); err != nil {
			return fmt.Errorf("failed to subscribe to lock signal: %w", err)
		}
		defer func() {
			err = errors.Join(err, d.opts.Session.RemoveLockSignal(lockSignal))
		}()
	}

	var idled chan struct{}
	if d.opts.Idle != nil {
		idled = make(chan struct{})
		notification, addErr := d.opts.Idle.AddNotification(&idle.CreateIdleNotification{
			Duration: d.opts.IdleTimeout,
			Idle:     idled,
		})
		if addErr != nil {
			return fmt.Errorf("failed to add idle notification: %w", addErr)
		}
		defer func() {
			err = errors.Join(err, notification.Close())
		}()
	}

	var prepareForSleep chan bool
	if d.opts.Sleep != nil {
		prepareForSleep = make(chan bool, 1)
		if err := d.opts.Sleep.SubscribePrepareForSleep(prepareForSleep); err != nil {
			return fmt.Errorf("failed to subscribe to PrepareForSleep: %w", err)
		}
		defer func() {
			err = errors.Join(err, d.opts.Sleep.UnsubscribePrepareForSleep(prepareForSleep))
		}()

		d.inhibitSleep(ctx)
		defer func() {
			err = errors.Join(err, d.releaseSleep())
		}()
	}

	d.logger.Info("Auto-lock daemon started",
		"command", d.opts.Command,
		"logind", d.opts.LockOnSignal,
		"idle", d.opts.IdleTimeout,
		"sleep", d.opts.Sleep != nil,
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Auto-lock daemon stopping")
			return nil
		case dispatch := <-d.opts.IdleDispatch:
			if err := dispatch(); err != nil {
				d.logger.Error("Wayland dispatch failed", "error", err)
			}
		case <-lockSignal:
			d.lock(ctx, "logind")
		case <-idled:
			d.lock(ctx, "idle")
		case sleeping := <-prepareForSleep:
			if sleeping {
				d.lock(ctx, "sleep")
				d.handOffSleep(ctx)
			} else {
				d.logger.Debug("Resumed from sleep")
				d.inhibitSleep(ctx)
			}
		case err := <-d.exited:
			d.running = false
			if err != nil {
				d.logger.Error("Lock command failed", "error", err)
			} else {
				d.logger.Debug("Lock command exited")
			}
		}
	}
}

// lock starts the lock command unless it is already running or the session is already locked.
func (d *Daemon) lock(ctx context.Context, reason string) {
	logger := d.logger.With("reason", reason)

	if d.running {
		logger.Debug("Lock command already running")
		return
	}

	if d.opts.Session != nil {
		locked, err := d.opts.Session.GetLocked(ctx)
		switch {
		case err != nil:
			logger.Warn("Unable to read locked hint, locking anyway", "error", err)
		case locked:
			logger.Debug("Session already locked")
			return
		}
	}

	wait, err := d.start(d.opts.Command)
	if err != nil {
		logger.Error("Failed to start lock command", "error", err)
		return
	}

	logger.Info("Locking session")
	d.running = true
	go func() {
		d.exited <- wait()
	}()
}

func (d *Daemon) inhibitSleep(ctx context.Context) {
	if d.inhibitor != nil {
		return
	}

	inhibitor, err := d.opts.Sleep.Inhibit(
		ctx,
		"lockscreen",
		"Lock the session before sleeping",
		inhibit.ModeDelay,
		inhibit.WhatSleep,
	)
	if err != nil {
		d.logger.Error("Unable to acquire sleep inhibition lock", "error", err)
		return
	}

	d.inhibitor = inhibitor
}

func (d *Daemon) releaseSleep() error {
	if d.inhibitor == nil {
		return nil
	}

	err := d.inhibitor.Close()
	d.inhibitor = nil
	if err != nil {
		return fmt.Errorf("failed to release sleep inhibition lock: %w", err)
	}

	return nil
}

// handOffSleep releases the sleep inhibitor once the session reports itself locked, or after
// the grace period has passed.
func (d *Daemon) handOffSleep(ctx context.Context) {
	inhibitor := d.inhibitor
	d.inhibitor = nil
	if inhibitor == nil {
		return
	}

	go func() {
		d.waitForLocked(ctx)
		if err := inhibitor.Close(); err != nil {
			d.logger.Error("Failed to release sleep inhibition lock", "error", err)
		}
	}()
}

func (d *Daemon) waitForLocked(ctx context.Context) {
	grace := time.NewTimer(d.sleepGrace)
	defer grace.Stop()
	poll := time.NewTicker(lockedHintPoll)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-grace.C:
			d.logger.Warn("Session not reported as locked before sleep")
			return
		case <-poll.C:
			if d.opts.Session == nil {
				continue
			}
			locked, err := d.opts.Session.GetLocked(ctx)
			if err == nil && locked {
				return
			}
		}
	}
}
