// Package ui is the terminal front end of the lock screen.
//
// [Model] is a bubbletea model. It routes key presses to the wizard, runs the effects the wizard
// returns and renders the current step. Password verification runs as a bubbletea command, so it
// never blocks the event loop, and its result re-enters the loop as an ordinary message.
package ui

import (
	"context"
	"github.com/MatthiasKunnen/lockscreen/internal/session"
	"github.com/MatthiasKunnen/lockscreen/internal/wizard"
	"github.com/MatthiasKunnen/lockscreen/pkg/auth"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"io"
	"log/slog"
	"time"
)

const (
	DefaultTimeFormat = "15:04"
	DefaultDateFormat = "Monday, January _2"
)

// Options configures a Model. Verifier and Surface are required.
type Options struct {
	Verifier auth.Verifier
	Surface  session.Surface
	Logger   *slog.Logger
	Keys     *KeyMap

	// TimeFormat and DateFormat are time.Format layouts for the clock.
	TimeFormat string
	DateFormat string
	// ShowRealName shows the account's real name instead of its login name.
	ShowRealName bool

	// Context is passed to the verifier and surface. Defaults to context.Background().
	Context context.Context
	// Now defaults to time.Now.
	Now func() time.Time
}

// Model is the bubbletea model of the lock screen.
type Model struct {
	wizard   *wizard.Wizard
	verifier auth.Verifier
	surface  session.Surface
	logger   *slog.Logger
	keys     KeyMap
	ctx      context.Context

	timeFormat   string
	dateFormat   string
	showRealName bool
	now          func() time.Time
	clock        time.Time

	spinner spinner.Model
	width   int
	height  int
	focused bool
	// releasing is set once the unlock effect has been received. No input is processed after.
	releasing bool
	released  bool
}

type clockTickMsg time.Time

type releasedMsg struct {
	err error
}

func NewModel(w *wizard.Wizard, opts Options) Model {
	m := Model{
		wizard:       w,
		verifier:     opts.Verifier,
		surface:      opts.Surface,
		logger:       opts.Logger,
		keys:         DefaultKeyMap(),
		ctx:          opts.Context,
		timeFormat:   opts.TimeFormat,
		dateFormat:   opts.DateFormat,
		showRealName: opts.ShowRealName,
		now:          opts.Now,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
	}

	if opts.Keys != nil {
		m.keys = *opts.Keys
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.timeFormat == "" {
		m.timeFormat = DefaultTimeFormat
	}
	if m.dateFormat == "" {
		m.dateFormat = DefaultDateFormat
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.clock = m.now()

	return m
}

// Released reports whether the session surface has been unlocked after a successful
// verification.
func (m Model) Released() bool {
	return m.released
}

func (m Model) Init() tea.Cmd {
	return m.tickClock()
}

func (m Model) tickClock() tea.Cmd {
	now := m.now
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return clockTickMsg(now())
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case clockTickMsg:
		m.clock = time.Time(msg)
		return m, m.tickClock()

	case spinner.TickMsg:
		if !m.verifying() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.releasing {
			return m, nil
		}
		return m.perform(m.keys.Route(m.wizard.Current(), msg))

	case wizard.VerificationResult:
		effect, err := m.wizard.Dispatch(msg)
		return m.apply(effect, err)

	case releasedMsg:
		if msg.err != nil {
			m.logger.Error("Failed to unlock session surface", "error", msg.err)
		}
		m.released = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) perform(action Action) (tea.Model, tea.Cmd) {
	switch action := action.(type) {
	case nil:
		return m, nil
	case Advance:
		return m.apply(m.wizard.Advance(), nil)
	case Dispatch:
		effect, err := m.wizard.Dispatch(action.Message)
		return m.apply(effect, err)
	default:
		panic("ui: unhandled action")
	}
}

func (m Model) apply(effect wizard.Effect, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		// The session stays locked. Errors here are bugs, not user mistakes.
		m.logger.Error("Unlock protocol error", "error", err)
		return m, nil
	}

	switch effect := effect.(type) {
	case nil:
		return m, nil
	case wizard.FocusPassword:
		m.focused = true
		return m, nil
	case wizard.Verify:
		return m, tea.Batch(m.verify(effect.Request), m.spinner.Tick)
	case wizard.Unlock:
		m.releasing = true
		return m, m.release()
	default:
		panic("ui: unhandled effect")
	}
}

// verify runs the request on a command goroutine. The verifier takes ownership of the password
// snapshot.
func (m Model) verify(request wizard.Request) tea.Cmd {
	ctx := m.ctx
	verifier := m.verifier
	logger := m.logger

	return func() tea.Msg {
		started := time.Now()
		err := verifier.Verify(ctx, request.Username, request.Password)
		logger.Debug(
			"Verification finished",
			"request", request.ID,
			"duration", time.Since(started),
			"kind", auth.KindOf(err),
		)

		return wizard.VerificationResult{Outcome: wizard.Outcome{
			RequestID: request.ID,
			Err:       err,
		}}
	}
}

func (m Model) release() tea.Cmd {
	ctx := m.ctx
	surface := m.surface

	return func() tea.Msg {
		return releasedMsg{err: surface.Unlock(ctx)}
	}
}

func (m Model) verifying() bool {
	view, ok := m.wizard.View().(wizard.AuthView)
	return ok && view.Verifying
}
