// Package wizard implements the unlock state machine of the lock screen.
//
// A [Wizard] is an ordered, forward-only sequence of steps: [Welcome] followed by [Auth]. It is
// driven from a single goroutine. Input arrives as a [Message], and the wizard answers with at
// most one [Effect] for the caller to carry out:
//
//   - [FocusPassword]: the password field should receive input focus.
//   - [Verify]: run the contained [Request] through a credential verifier off the UI goroutine
//     and feed the result back as a [VerificationResult].
//   - [Unlock]: verification succeeded; release the session lock.
//
// At most one request is outstanding at a time. [Unlock] is produced exactly once, and only in
// response to a successful outcome for the outstanding request; the [Gate] enforces this.
// Violations of these rules are reported as errors wrapping [ErrInvariant].
package wizard
