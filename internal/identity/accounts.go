package identity

import (
	"context"
	"fmt"
	"github.com/godbus/dbus/v5"
)

const (
	accountsDest          = "org.freedesktop.Accounts"
	accountsPath          = "/org/freedesktop/Accounts"
	accountsInterface     = "org.freedesktop.Accounts"
	accountsUserInterface = "org.freedesktop.Accounts.User"
)

// DbusAccounts implements Accounts using [org.freedesktop.Accounts] (AccountsService).
//
// [org.freedesktop.Accounts]: https://www.freedesktop.org/wiki/Software/AccountsService/
type DbusAccounts struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

func NewDbusAccounts() (*DbusAccounts, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	return &DbusAccounts{
		conn: conn,
		obj:  conn.Object(accountsDest, accountsPath),
	}, nil
}

func (a *DbusAccounts) Lookup(ctx context.Context, name string) (Account, error) {
	var userPath dbus.ObjectPath
	err := a.obj.
		CallWithContext(ctx, accountsInterface+".FindUserByName", 0, name).
		Store(&userPath)
	if err != nil {
		return Account{}, fmt.Errorf("could not find user %q: %w", name, err)
	}

	userObj := a.conn.Object(accountsDest, userPath)

	realName, err := stringProperty(userObj, "RealName")
	if err != nil {
		return Account{}, err
	}

	return Account{RealName: realName}, nil
}

func stringProperty(obj dbus.BusObject, name string) (string, error) {
	variant, err := obj.GetProperty(accountsUserInterface + "." + name)
	if err != nil {
		return "", fmt.Errorf("could not get %s: %w", name, err)
	}

	value, ok := variant.Value().(string)
	if !ok {
		return "", fmt.Errorf("%s property is not a string", name)
	}

	return value, nil
}

func (a *DbusAccounts) Close() error {
	return a.conn.Close()
}
