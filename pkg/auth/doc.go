// Package auth verifies account credentials against the system's pluggable authentication
// modules ([PAM]).
//
// A [Verifier] may block for an unbounded time, so callers run it off the goroutine that drives
// the user interface. [WithTimeout] bounds the wait.
//
// Failures are reported as [*Error] values classified by [Kind]. Use errors.Is with
// [ErrInvalidCredential], [ErrVerifierUnavailable] or [ErrTimeout] to tell them apart.
//
// [PAM]: https://github.com/linux-pam/linux-pam
package auth
