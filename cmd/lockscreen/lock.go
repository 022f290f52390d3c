package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/MatthiasKunnen/lockscreen/internal/config"
	"github.com/MatthiasKunnen/lockscreen/internal/identity"
	"github.com/MatthiasKunnen/lockscreen/internal/session"
	"github.com/MatthiasKunnen/lockscreen/internal/ui"
	"github.com/MatthiasKunnen/lockscreen/internal/wizard"
	"github.com/MatthiasKunnen/lockscreen/pkg/auth"
	"github.com/MatthiasKunnen/lockscreen/pkg/lock"
	"github.com/MatthiasKunnen/lockscreen/pkg/secrets"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
	"io"
	"log/slog"
	"os"
	"os/signal"
)

func runLock(cfg *config.Config) (err error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("lock must be run on a terminal")
	}

	// The terminal belongs to the lock screen, logs only go to the log file.
	logger, closeLog, err := newLogger(cfg.Log, io.Discard)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeLog())
	}()

	// Job control and hangups must not end the lock session.
	signal.Ignore(unix.SIGINT, unix.SIGQUIT, unix.SIGTSTP, unix.SIGHUP)

	ctx := context.Background()

	account, err := resolveIdentity(ctx, logger)
	if err != nil {
		return err
	}

	w, err := wizard.New(
		account,
		wizard.WithLogger(logger),
		wizard.WithMaxPasswordBytes(cfg.Auth.MaxPasswordBytes),
	)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()

	surface, closeSurface := lockSurface(ctx, cfg.Session, logger)
	defer func() {
		err = errors.Join(err, closeSurface())
	}()

	if err := surface.Lock(ctx); err != nil {
		return fmt.Errorf("failed to lock session: %w", err)
	}
	logger.Info("Session locked", "user", account.Name)

	model := ui.NewModel(w, ui.Options{
		Verifier:     auth.WithTimeout(auth.NewPAM(cfg.Auth.PAMService, logger), cfg.Auth.Timeout),
		Surface:      surface,
		Logger:       logger,
		TimeFormat:   cfg.UI.TimeFormat,
		DateFormat:   cfg.UI.DateFormat,
		ShowRealName: cfg.UI.ShowRealName,
		Context:      ctx,
	})

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
		tea.WithContext(ctx),
	)
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("lock screen failed: %w", err)
	}

	if m, ok := final.(ui.Model); !ok || !m.Released() {
		return errors.New("lock screen exited without unlocking")
	}

	logger.Info("Session unlocked", "user", account.Name)

	return nil
}

func resolveIdentity(ctx context.Context, logger *slog.Logger) (identity.Identity, error) {
	resolver := &identity.Resolver{Logger: logger}

	accounts, err := identity.NewDbusAccounts()
	if err != nil {
		logger.Warn("AccountsService unavailable", "error", err)
	} else {
		defer accounts.Close()
		resolver.Accounts = accounts
	}

	return resolver.Resolve(ctx)
}

// lockSurface combines the configured surfaces. Surfaces whose service cannot be reached are
// skipped, the lock screen itself still works without them.
func lockSurface(
	ctx context.Context,
	cfg config.SessionConfig,
	logger *slog.Logger,
) (session.Surface, func() error) {
	var surfaces []session.Surface
	var closers []io.Closer

	if cfg.LockVTSwitch {
		surfaces = append(surfaces, session.VTSwitch{Console: os.Stdin})
	}

	if cfg.LockKeyring {
		s, err := secrets.New()
		if err != nil {
			logger.Warn("Secret Service unavailable, keyring stays unlocked", "error", err)
		} else {
			closers = append(closers, s)
			surfaces = append(surfaces, session.Keyring{Secrets: s, Collections: cfg.KeyringCollections})
		}
	}

	if cfg.LogindHint {
		l, err := lock.NewDbusSessionLock(ctx, os.Getenv("XDG_SESSION_ID"))
		if err != nil {
			logger.Warn("logind unavailable, locked hint not set", "error", err)
		} else {
			closers = append(closers, l)
			surfaces = append(surfaces, session.LockedHint{Session: l})
		}
	}

	closeAll := func() error {
		var err error
		for _, c := range closers {
			err = errors.Join(err, c.Close())
		}
		return err
	}

	return session.Multi(surfaces...), closeAll
}
