package identity

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os/user"
	"testing"
)

type fakeAccounts struct {
	account Account
	err     error
}

func (f fakeAccounts) Lookup(context.Context, string) (Account, error) {
	return f.account, f.err
}

func currentUser(username, gecos string) func() (*user.User, error) {
	return func() (*user.User, error) {
		return &user.User{Username: username, Name: gecos}, nil
	}
}

func TestResolve_WithoutAccounts(t *testing.T) {
	r := &Resolver{Current: currentUser("alice", "Alice Liddell,,,")}

	id, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Identity{Name: "alice", RealName: "Alice Liddell"}, id)
	assert.Equal(t, "Alice Liddell", id.DisplayName())
}

func TestResolve_LookupFailure(t *testing.T) {
	r := &Resolver{Current: func() (*user.User, error) { return nil, errors.New("no passwd entry") }}

	_, err := r.Resolve(context.Background())
	assert.Error(t, err)
}

func TestResolve_EmptyUsername(t *testing.T) {
	r := &Resolver{Current: currentUser("", "")}

	_, err := r.Resolve(context.Background())
	assert.Error(t, err)
}

func TestResolve_AccountDetails(t *testing.T) {
	r := &Resolver{
		Current:  currentUser("alice", "Alice L,,,"),
		Accounts: fakeAccounts{account: Account{RealName: "Alice"}},
	}

	id, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Identity{Name: "alice", RealName: "Alice"}, id)
}

func TestResolve_EmptyAccountRealNameKeepsGecos(t *testing.T) {
	r := &Resolver{
		Current:  currentUser("alice", "Alice L"),
		Accounts: fakeAccounts{},
	}

	id, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Alice L", id.DisplayName())
}

func TestResolve_AccountsFailureFallsBack(t *testing.T) {
	r := &Resolver{
		Current:  currentUser("alice", "Alice L"),
		Accounts: fakeAccounts{err: errors.New("service unknown")},
	}

	id, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Identity{Name: "alice", RealName: "Alice L"}, id)
}
