package wizard

import (
	"errors"
	"fmt"
	"github.com/MatthiasKunnen/lockscreen/internal/identity"
	"github.com/MatthiasKunnen/lockscreen/pkg/secret"
	"github.com/google/uuid"
	"log/slog"
)

// StepKind identifies a step variant.
type StepKind int

const (
	StepWelcome StepKind = iota
	StepAuth
)

func (k StepKind) String() string {
	switch k {
	case StepWelcome:
		return "welcome"
	case StepAuth:
		return "auth"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// Step is one screen of the wizard. The set of steps is closed: *Welcome and *Auth.
type Step interface {
	Kind() StepKind
	canContinue() bool
	update(msg Message) (Effect, error)
	view() View
	close() error
}

// Welcome greets the locked-out account. It has no input of its own.
type Welcome struct {
	identity identity.Identity
}

func (w *Welcome) Kind() StepKind {
	return StepWelcome
}

func (w *Welcome) canContinue() bool {
	return true
}

func (w *Welcome) update(msg Message) (Effect, error) {
	switch msg := msg.(type) {
	case PasswordEntered, PasswordInput, PasswordBackspace, PasswordClear, Submit:
		return nil, nil
	case VerificationResult:
		return nil, fmt.Errorf(
			"%w: outcome for request %s on the welcome step",
			ErrInvariant,
			msg.Outcome.RequestID,
		)
	default:
		panic(fmt.Sprintf("wizard: unhandled message %T", msg))
	}
}

func (w *Welcome) view() View {
	return WelcomeView{Identity: w.identity}
}

func (w *Welcome) close() error {
	return nil
}

// Auth collects the password and submits it for verification.
// It is the sole owner of the password buffer.
type Auth struct {
	identity  identity.Identity
	password  *secret.Buffer
	lastError string
	// pending is the ID of the outstanding request, uuid.Nil if there is none.
	pending uuid.UUID
	gate    *Gate
	logger  *slog.Logger
}

func (a *Auth) Kind() StepKind {
	return StepAuth
}

func (a *Auth) canContinue() bool {
	return false
}

func (a *Auth) update(msg Message) (Effect, error) {
	switch msg := msg.(type) {
	case PasswordEntered:
		return nil, a.edit(func() error { return a.password.Set(msg.Value) })
	case PasswordInput:
		return nil, a.edit(func() error { return a.password.AppendRunes(msg.Runes) })
	case PasswordBackspace:
		return nil, a.edit(func() error {
			a.password.Backspace()
			return nil
		})
	case PasswordClear:
		return nil, a.edit(func() error {
			a.password.Reset()
			return nil
		})
	case Submit:
		return a.submit()
	case VerificationResult:
		return a.complete(msg.Outcome)
	default:
		panic(fmt.Sprintf("wizard: unhandled message %T", msg))
	}
}

// edit applies a change to the password. Edits made while a request is outstanding do not
// affect that request, it holds its own snapshot.
func (a *Auth) edit(apply func() error) error {
	if a.gate.Fired() {
		return nil
	}

	if err := apply(); err != nil {
		if errors.Is(err, secret.ErrTooLong) {
			a.lastError = "Password is too long"
			return nil
		}
		return fmt.Errorf("failed to edit password: %w", err)
	}
	a.lastError = ""

	return nil
}

func (a *Auth) submit() (Effect, error) {
	if a.gate.Fired() || a.pending != uuid.Nil {
		return nil, nil
	}

	snapshot, err := a.password.Clone()
	if err != nil {
		a.lastError = "Could not prepare the password for verification"
		return nil, fmt.Errorf("failed to snapshot password: %w", err)
	}

	a.lastError = ""
	a.pending = uuid.New()
	a.logger.Debug("Submitting password for verification", "request", a.pending)

	return Verify{Request: Request{
		ID:       a.pending,
		Username: a.identity.Name,
		Password: snapshot,
	}}, nil
}

func (a *Auth) complete(outcome Outcome) (Effect, error) {
	if a.pending == uuid.Nil {
		return nil, fmt.Errorf(
			"%w: outcome for request %s while none is outstanding",
			ErrInvariant,
			outcome.RequestID,
		)
	}
	if outcome.RequestID != a.pending {
		a.logger.Warn(
			"Discarding stale verification outcome",
			"request", outcome.RequestID,
			"outstanding", a.pending,
		)
		return nil, nil
	}
	a.pending = uuid.Nil

	if outcome.Err != nil {
		a.lastError = outcome.Err.Error()
		if a.lastError == "" {
			a.lastError = "Authentication failed"
		}
		a.password.Reset()
		a.logger.Info("Verification failed", "request", outcome.RequestID, "error", outcome.Err)
		return nil, nil
	}

	if err := a.gate.Signal(); err != nil {
		return nil, err
	}
	a.lastError = ""
	a.password.Reset()
	a.logger.Info("Verification succeeded", "request", outcome.RequestID)

	return Unlock{}, nil
}

func (a *Auth) view() View {
	return AuthView{
		Identity:       a.identity,
		PasswordLength: a.password.RuneCount(),
		Error:          a.lastError,
		Verifying:      a.pending != uuid.Nil,
		Unlocked:       a.gate.Fired(),
	}
}

func (a *Auth) close() error {
	return a.password.Close()
}
