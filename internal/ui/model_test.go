package ui

import (
	"context"
	"github.com/MatthiasKunnen/lockscreen/internal/identity"
	"github.com/MatthiasKunnen/lockscreen/internal/wizard"
	"github.com/MatthiasKunnen/lockscreen/pkg/auth"
	"github.com/MatthiasKunnen/lockscreen/pkg/secret"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeVerifier accepts "correct" and rejects everything else.
type fakeVerifier struct {
	mu        sync.Mutex
	calls     int
	usernames []string
}

func (v *fakeVerifier) Verify(_ context.Context, username string, password *secret.Buffer) error {
	defer password.Close()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	v.usernames = append(v.usernames, username)

	if string(password.Bytes()) == "correct" {
		return nil
	}
	return auth.InvalidCredential("authentication failed", nil)
}

type fakeSurface struct {
	mu      sync.Mutex
	unlocks int
}

func (s *fakeSurface) Lock(context.Context) error {
	return nil
}

func (s *fakeSurface) Unlock(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlocks++
	return nil
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	fixed = time.Date(2026, time.October, 17, 9, 41, 0, 0, time.UTC)
)

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

type harness struct {
	t        *testing.T
	model    Model
	wizard   *wizard.Wizard
	verifier *fakeVerifier
	surface  *fakeSurface
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	w, err := wizard.New(identity.Identity{Name: "alice", RealName: "Alice Liddell"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	h := &harness{
		t:        t,
		wizard:   w,
		verifier: &fakeVerifier{},
		surface:  &fakeSurface{},
	}
	h.model = NewModel(w, Options{
		Verifier:     h.verifier,
		Surface:      h.surface,
		ShowRealName: true,
		Now:          func() time.Time { return fixed },
	})

	return h
}

// send delivers msg to the model and returns the messages produced by running the resulting
// commands. Batches are flattened and spinner ticks are dropped.
func (h *harness) send(msg tea.Msg) []tea.Msg {
	h.t.Helper()

	updated, cmd := h.model.Update(msg)
	model, ok := updated.(Model)
	require.True(h.t, ok)
	h.model = model

	return collect(cmd)
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}

	var msgs []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			msgs = append(msgs, collect(c)...)
		}
	case spinner.TickMsg:
	default:
		msgs = append(msgs, msg)
	}

	return msgs
}

// settle sends msgs and everything they produce until the model goes quiet. It returns true if
// the model asked to quit.
func (h *harness) settle(msgs []tea.Msg) bool {
	h.t.Helper()

	quit := false
	for len(msgs) > 0 {
		msg := msgs[0]
		msgs = msgs[1:]
		if _, ok := msg.(tea.QuitMsg); ok {
			quit = true
			continue
		}
		msgs = append(msgs, h.send(msg)...)
	}

	return quit
}

func (h *harness) typeAndSubmit(password string) []tea.Msg {
	h.t.Helper()

	require.Empty(h.t, h.send(typed(password)))
	return h.send(enter)
}

func TestModel_EnterOnWelcomeAdvances(t *testing.T) {
	h := newHarness(t)

	assert.Empty(t, h.send(enter))

	assert.Equal(t, wizard.StepAuth, h.wizard.Current())
	assert.True(t, h.model.focused)
}

func TestModel_TypingOnWelcomeIsInert(t *testing.T) {
	h := newHarness(t)

	assert.Empty(t, h.send(typed("correct")))
	assert.Empty(t, h.send(tea.KeyMsg{Type: tea.KeyCtrlC}))
	h.send(enter)

	view := h.wizard.View().(wizard.AuthView)
	assert.Equal(t, 0, view.PasswordLength)
}

func TestModel_CorrectPasswordUnlocksOnce(t *testing.T) {
	h := newHarness(t)
	h.send(enter)

	quit := h.settle(h.typeAndSubmit("correct"))

	assert.True(t, quit)
	assert.True(t, h.model.Released())
	assert.True(t, h.wizard.Unlocked())
	assert.Equal(t, 1, h.surface.unlocks)
	assert.Equal(t, []string{"alice"}, h.verifier.usernames)

	assert.Empty(t, h.send(typed("more")))
	assert.Empty(t, h.send(enter))
	assert.Equal(t, 1, h.surface.unlocks)
	assert.Equal(t, 1, h.verifier.calls)
}

func TestModel_WrongPasswordShowsError(t *testing.T) {
	h := newHarness(t)
	h.send(enter)

	quit := h.settle(h.typeAndSubmit("wrong"))

	assert.False(t, quit)
	assert.False(t, h.model.Released())
	assert.Equal(t, 0, h.surface.unlocks)

	view := h.wizard.View().(wizard.AuthView)
	assert.Equal(t, "authentication failed", view.Error)
	assert.Equal(t, 0, view.PasswordLength)
	assert.Contains(t, h.model.View(), "authentication failed")

	quit = h.settle(h.typeAndSubmit("correct"))
	assert.True(t, quit)
	assert.Equal(t, 2, h.verifier.calls)
}

func TestModel_SecondSubmitWhileVerifyingIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.send(enter)
	require.Empty(t, h.send(typed("correct")))

	updated, first := h.model.Update(enter)
	h.model = updated.(Model)
	assert.Contains(t, h.model.View(), "Verifying")

	assert.Empty(t, h.send(enter))

	quit := h.settle(collect(first))
	assert.True(t, quit)
	assert.Equal(t, 1, h.verifier.calls)
	assert.Equal(t, 1, h.surface.unlocks)
}

func TestModel_ProtocolErrorKeepsSessionLocked(t *testing.T) {
	h := newHarness(t)
	h.send(enter)

	msgs := h.send(wizard.VerificationResult{Outcome: wizard.Outcome{}})

	assert.Empty(t, msgs)
	assert.False(t, h.model.Released())
	assert.Equal(t, 0, h.surface.unlocks)
}

func TestModel_View(t *testing.T) {
	h := newHarness(t)
	h.send(tea.WindowSizeMsg{Width: 100, Height: 30})

	welcome := h.model.View()
	assert.Contains(t, welcome, "09:41")
	assert.Contains(t, welcome, "Saturday, October 17")
	assert.Contains(t, welcome, "Alice Liddell")
	assert.Contains(t, welcome, "Press Enter to unlock")

	h.send(enter)
	h.send(typed("abc"))

	authScreen := h.model.View()
	assert.Contains(t, authScreen, "•••")
	assert.NotContains(t, authScreen, "••••")
	assert.NotContains(t, authScreen, "abc")
	assert.NotContains(t, authScreen, "Press Enter to unlock")
}

func TestModel_ClockTick(t *testing.T) {
	h := newHarness(t)
	later := fixed.Add(2 * time.Minute)

	updated, cmd := h.model.Update(clockTickMsg(later))
	h.model = updated.(Model)

	assert.NotNil(t, cmd)
	assert.Contains(t, h.model.View(), "09:43")
}

func TestModel_LoginNameWhenRealNameHidden(t *testing.T) {
	h := newHarness(t)
	h.model.showRealName = false

	view := h.model.View()
	assert.Contains(t, view, "alice")
	assert.False(t, strings.Contains(view, "Alice Liddell"))
}
