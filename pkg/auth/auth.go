package auth

import (
	"context"
	"errors"
	"github.com/MatthiasKunnen/lockscreen/pkg/secret"
)

// Verifier checks a username and password pair.
//
// Verify takes ownership of password and closes it before returning, or, for implementations
// that hand the call off to another goroutine, as soon as that goroutine no longer needs it.
// A nil error means the credentials were accepted.
type Verifier interface {
	Verify(ctx context.Context, username string, password *secret.Buffer) error
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, username string, password *secret.Buffer) error

func (f VerifierFunc) Verify(ctx context.Context, username string, password *secret.Buffer) error {
	return f(ctx, username, password)
}

// Kind classifies a verification failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInvalidCredential means the password was judged and rejected.
	KindInvalidCredential
	// KindVerifierUnavailable means the backend failed without judging the password.
	KindVerifierUnavailable
	// KindTimeout means no judgement arrived within the allotted time.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredential:
		return "invalid credential"
	case KindVerifierUnavailable:
		return "verifier unavailable"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrVerifierUnavailable = errors.New("verifier unavailable")
	ErrTimeout             = errors.New("timed out")
)

// Error is a classified verification failure.
// Error() returns Reason, which is meant to be shown to the user as is.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the failure's Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidCredential:
		return e.Kind == KindInvalidCredential
	case ErrVerifierUnavailable:
		return e.Kind == KindVerifierUnavailable
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

// InvalidCredential returns a KindInvalidCredential failure.
func InvalidCredential(reason string, err error) *Error {
	return &Error{Kind: KindInvalidCredential, Reason: reason, Err: err}
}

// Unavailable returns a KindVerifierUnavailable failure.
func Unavailable(reason string, err error) *Error {
	return &Error{Kind: KindVerifierUnavailable, Reason: reason, Err: err}
}

// KindOf returns the Kind of err. Errors that are not classified are reported as
// KindVerifierUnavailable since they carry no judgement about the password.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}

	return KindVerifierUnavailable
}
