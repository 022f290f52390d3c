package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/MatthiasKunnen/lockscreen/internal/config"
	"github.com/MatthiasKunnen/lockscreen/internal/daemon"
	"github.com/MatthiasKunnen/lockscreen/pkg/idle"
	"github.com/MatthiasKunnen/lockscreen/pkg/inhibit"
	"github.com/MatthiasKunnen/lockscreen/pkg/lock"
	"os"
	"os/signal"
	"syscall"
)

func runDaemon(cfg *config.Config) (err error) {
	logger, closeLog, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeLog())
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := daemon.Options{
		Command:      cfg.Daemon.LockCommand,
		LockOnSignal: cfg.Daemon.LockOnLogindSignal,
		Logger:       logger,
	}

	l, err := lock.NewDbusSessionLock(ctx, os.Getenv("XDG_SESSION_ID"))
	switch {
	case err == nil:
		defer func() {
			err = errors.Join(err, l.Close())
		}()
		opts.Session = l
	case cfg.Daemon.LockOnLogindSignal:
		return fmt.Errorf("failed to connect to logind: %w", err)
	default:
		logger.Warn("logind unavailable, locked hint is not checked", "error", err)
	}

	if cfg.Daemon.IdleTimeout > 0 {
		controller, dispatch, idleErr := idle.NewWaylandIdleController()
		if idleErr != nil {
			logger.Warn("Idle detection unavailable", "error", idleErr)
		} else {
			defer controller.Close()
			opts.Idle = controller
			opts.IdleDispatch = dispatch
			opts.IdleTimeout = cfg.Daemon.IdleTimeout
		}
	}

	if cfg.Daemon.LockBeforeSleep {
		inhibitor, inhibitErr := inhibit.New()
		if inhibitErr != nil {
			return fmt.Errorf("failed to connect to logind: %w", inhibitErr)
		}
		defer func() {
			err = errors.Join(err, inhibitor.Close())
		}()
		opts.Sleep = inhibitor
	}

	d, err := daemon.New(opts)
	if err != nil {
		return err
	}

	return d.Run(ctx)
}
