package wizard

import (
	"errors"
	"fmt"
	"github.com/MatthiasKunnen/lockscreen/internal/identity"
	"github.com/MatthiasKunnen/lockscreen/pkg/secret"
	"io"
	"log/slog"
)

// DefaultMaxPasswordBytes is the password capacity used when none is configured.
const DefaultMaxPasswordBytes = 1024

// Wizard is an ordered sequence of steps that only moves forward.
// A Wizard is not safe for concurrent use; drive it from one goroutine.
type Wizard struct {
	steps   []Step
	current int
	gate    *Gate
	logger  *slog.Logger
	closed  bool
}

type options struct {
	logger           *slog.Logger
	maxPasswordBytes int
}

type Option func(*options)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxPasswordBytes sets the capacity of the password buffer.
func WithMaxPasswordBytes(n int) Option {
	return func(o *options) {
		o.maxPasswordBytes = n
	}
}

// New creates a Wizard on the Welcome step for the given account.
// Close must be called to release the password buffer.
func New(account identity.Identity, opts ...Option) (*Wizard, error) {
	o := options{
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxPasswordBytes: DefaultMaxPasswordBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if account.Name == "" {
		return nil, errors.New("wizard: account name is empty")
	}

	password, err := secret.New(o.maxPasswordBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate password buffer: %w", err)
	}

	gate := &Gate{}
	logger := o.logger.With("user", account.Name)

	return &Wizard{
		steps: []Step{
			&Welcome{identity: account},
			&Auth{
				identity: account,
				password: password,
				gate:     gate,
				logger:   logger,
			},
		},
		gate:   gate,
		logger: logger,
	}, nil
}

// Advance moves to the next step if the current step allows it.
// Entering the Auth step returns FocusPassword. On the last step Advance is a no-op and returns
// nil.
func (w *Wizard) Advance() Effect {
	if !w.canContinue() {
		return nil
	}

	w.current++
	w.logger.Debug("Advanced to step", "step", w.steps[w.current].Kind())

	switch w.steps[w.current].Kind() {
	case StepAuth:
		return FocusPassword{}
	case StepWelcome:
		return nil
	default:
		panic(fmt.Sprintf("wizard: unhandled step kind %v", w.steps[w.current].Kind()))
	}
}

func (w *Wizard) canContinue() bool {
	return w.current+1 < len(w.steps) && w.steps[w.current].canContinue()
}

// Dispatch routes msg to the current step.
// When the returned effect is Unlock the wizard has already released its password buffer.
func (w *Wizard) Dispatch(msg Message) (Effect, error) {
	effect, err := w.steps[w.current].update(msg)
	if err != nil {
		return nil, err
	}

	if _, ok := effect.(Unlock); ok {
		if err := w.Close(); err != nil {
			w.logger.Warn("Failed to release password buffer", "error", err)
		}
	}

	return effect, nil
}

// View returns the presentation model of the current step.
func (w *Wizard) View() View {
	return w.steps[w.current].view()
}

// Current returns the kind of the current step.
func (w *Wizard) Current() StepKind {
	return w.steps[w.current].Kind()
}

// Unlocked reports whether the unlock gate has fired.
func (w *Wizard) Unlocked() bool {
	return w.gate.Fired()
}

// Close zeroes and releases the password. Close is idempotent.
func (w *Wizard) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var err error
	for _, step := range w.steps {
		err = errors.Join(err, step.close())
	}

	return err
}
