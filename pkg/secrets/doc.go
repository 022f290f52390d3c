// Package secrets allows communication with [org.freedesktop.Secret].
// Programs that provide this API include Gnome Keyring, KDE Wallet, and keepassxc.
// The lock screen uses it to lock keyring collections when the session is locked.
//
// [org.freedesktop.Secret]: https://specifications.freedesktop.org/secret-service-spec/latest/
package secrets
