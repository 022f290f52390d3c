package secrets

import (
	"context"
	"fmt"
	"github.com/godbus/dbus/v5"
	"strings"
)

const (
	dbusDest             = "org.freedesktop.secrets"
	dbusServiceInterface = "org.freedesktop.Secret.Service"
	dbusPath             = "/org/freedesktop/secrets"

	// noPrompt is returned in place of a prompt path when the service needs no user interaction.
	noPrompt = dbus.ObjectPath("/")
)

type Secrets struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

func New() (*Secrets, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	s := &Secrets{
		conn: conn,
	}
	s.obj = conn.Object(dbusDest, dbusPath)

	return s, nil
}

// Lock locks the given objects, e.g. "aliases/default" or "collection/login". The given objects
// are prepended by "/org/freedesktop/secrets/".
// It returns the paths of the objects that were locked without needing a prompt.
func (s *Secrets) Lock(ctx context.Context, paths []string) ([]dbus.ObjectPath, error) {
	var locked []dbus.ObjectPath
	var prompt dbus.ObjectPath

	err := s.obj.
		CallWithContext(ctx, dbusServiceInterface+".Lock", 0, objectPaths(paths)).
		Store(&locked, &prompt)
	if err != nil {
		return nil, fmt.Errorf("could not lock collection: %w", err)
	}

	if prompt != noPrompt && prompt != "" {
		return locked, fmt.Errorf("locking requires prompt %s", prompt)
	}

	return locked, nil
}

// Close closes the connection to the session bus.
func (s *Secrets) Close() error {
	return s.conn.Close()
}

func objectPaths(paths []string) []dbus.ObjectPath {
	objs := make([]dbus.ObjectPath, len(paths))
	for i, path := range paths {
		objs[i] = dbus.ObjectPath(dbusPath + "/" + strings.TrimPrefix(path, "/"))
	}
	return objs
}
