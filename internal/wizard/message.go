package wizard

import (
	"github.com/MatthiasKunnen/lockscreen/internal/identity"
	"github.com/MatthiasKunnen/lockscreen/pkg/secret"
	"github.com/google/uuid"
)

// Message is a step-scoped input. The set of messages is closed.
type Message interface {
	isMessage()
}

// PasswordEntered replaces the password with Value. Value is copied; the caller should wipe it.
type PasswordEntered struct {
	Value []byte
}

// PasswordInput appends runes to the password.
type PasswordInput struct {
	Runes []rune
}

// PasswordBackspace removes the last rune of the password.
type PasswordBackspace struct{}

// PasswordClear empties the password.
type PasswordClear struct{}

// Submit asks for the current password to be verified.
type Submit struct{}

// VerificationResult delivers the outcome of a Verify effect.
type VerificationResult struct {
	Outcome Outcome
}

func (PasswordEntered) isMessage()    {}
func (PasswordInput) isMessage()      {}
func (PasswordBackspace) isMessage()  {}
func (PasswordClear) isMessage()      {}
func (Submit) isMessage()             {}
func (VerificationResult) isMessage() {}

// Request is an in-flight verification.
// Password is a snapshot of the password at submission time. The receiver of the Verify effect
// owns it and must close it.
type Request struct {
	ID       uuid.UUID
	Username string
	Password *secret.Buffer
}

// Outcome is the result of verifying a Request. A nil Err means success.
type Outcome struct {
	RequestID uuid.UUID
	Err       error
}

// Effect is work the wizard asks its caller to perform. The set of effects is closed.
type Effect interface {
	isEffect()
}

// FocusPassword requests input focus for the password field.
type FocusPassword struct{}

// Verify requests verification of Request.
type Verify struct {
	Request Request
}

// Unlock signals that the session lock must be released.
type Unlock struct{}

func (FocusPassword) isEffect() {}
func (Verify) isEffect()        {}
func (Unlock) isEffect()        {}

// View is the presentation model of the current step. The set of views is closed.
type View interface {
	isView()
}

type WelcomeView struct {
	Identity identity.Identity
}

type AuthView struct {
	Identity identity.Identity
	// PasswordLength is the number of runes entered, for masked rendering.
	PasswordLength int
	// Error is the message of the last failure, empty if there is none.
	Error     string
	Verifying bool
	Unlocked  bool
}

func (WelcomeView) isView() {}
func (AuthView) isView()    {}
