package auth

import (
	"context"
	"errors"
	"github.com/MatthiasKunnen/lockscreen/pkg/secret"
	"time"
)

type timeoutVerifier struct {
	next    Verifier
	timeout time.Duration
	// inFlight holds a token while a call to next is running, including one that has already
	// timed out.
	inFlight chan struct{}
}

// WithTimeout returns a Verifier that reports a KindTimeout failure when next has not returned
// within timeout. The call to next keeps running in its own goroutine; its late result is
// dropped and, since next owns the password, the password is closed once next returns.
//
// At most one call to next runs at a time. A Verify that starts while an earlier call to next
// is still running waits for it within its own timeout.
//
// A timeout <= 0 returns next unchanged.
func WithTimeout(next Verifier, timeout time.Duration) Verifier {
	if timeout <= 0 {
		return next
	}

	return &timeoutVerifier{
		next:     next,
		timeout:  timeout,
		inFlight: make(chan struct{}, 1),
	}
}

func (t *timeoutVerifier) Verify(ctx context.Context, username string, password *secret.Buffer) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	select {
	case t.inFlight <- struct{}{}:
	case <-ctx.Done():
		_ = password.Close()
		return contextError(ctx, "previous verification still running")
	}

	result := make(chan error, 1)
	go func() {
		defer func() { <-t.inFlight }()
		result <- t.next.Verify(ctx, username, password)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return contextError(ctx, "timed out")
	}
}

func contextError(ctx context.Context, timeoutReason string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Reason: timeoutReason, Err: ctx.Err()}
	}
	return Unavailable("verification canceled", ctx.Err())
}
