// Package identity resolves the account whose session is being locked.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/user"
	"strings"
)

// Identity is the account shown on, and verified by, the lock screen.
type Identity struct {
	// Name is the login name passed to the credential verifier.
	Name string
	// RealName is the display name, falls back to Name.
	RealName string
}

// DisplayName returns RealName, or Name if RealName is empty.
func (i Identity) DisplayName() string {
	if i.RealName != "" {
		return i.RealName
	}
	return i.Name
}

// Account holds the optional details an account database may know about a user.
type Account struct {
	RealName string
}

// Accounts looks up account details by login name.
type Accounts interface {
	Lookup(ctx context.Context, name string) (Account, error)
}

// Resolver resolves the current Identity.
type Resolver struct {
	// Current returns the user running the process. Defaults to user.Current.
	Current func() (*user.User, error)
	// Accounts is optional. When set, it is asked for the real name.
	Accounts Accounts
	Logger   *slog.Logger
}

// Resolve returns the identity of the current user.
// Only failing to determine the login name is an error; missing details fall back to defaults.
func (r *Resolver) Resolve(ctx context.Context) (Identity, error) {
	current := r.Current
	if current == nil {
		current = user.Current
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	u, err := current()
	if err != nil {
		return Identity{}, fmt.Errorf("failed to look up current user: %w", err)
	}
	if u.Username == "" {
		return Identity{}, errors.New("current user has no login name")
	}

	result := Identity{
		Name:     u.Username,
		RealName: gecosName(u.Name),
	}

	if r.Accounts == nil {
		return result, nil
	}

	account, err := r.Accounts.Lookup(ctx, u.Username)
	if err != nil {
		logger.Info("Account details unavailable", "user", u.Username, "error", err)
		return result, nil
	}

	if account.RealName != "" {
		result.RealName = account.RealName
	}

	return result, nil
}

// gecosName returns the full name part of a GECOS field.
func gecosName(gecos string) string {
	name, _, _ := strings.Cut(gecos, ",")
	return strings.TrimSpace(name)
}
