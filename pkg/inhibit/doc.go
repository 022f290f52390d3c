// Package inhibit takes systemd-logind inhibitor locks and reports PrepareForSleep signals.
// A screen locker uses a "delay" sleep lock to get the screen locked before the system suspends.
package inhibit
