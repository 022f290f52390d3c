// Package config loads the lock screen configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// EnvPath names the environment variable consulted when no --config flag is given.
const EnvPath = "LOCKSCREEN_CONFIG"

type Config struct {
	Auth    AuthConfig    `yaml:"auth"`
	Session SessionConfig `yaml:"session"`
	UI      UIConfig      `yaml:"ui"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	Log     LogConfig     `yaml:"log"`
}

type AuthConfig struct {
	// PAMService is the PAM service file under /etc/pam.d used to verify passwords.
	PAMService string `yaml:"pam_service"`

	// Timeout bounds a single verification. Zero disables it.
	Timeout time.Duration `yaml:"timeout"`

	MaxPasswordBytes int `yaml:"max_password_bytes"`
}

type SessionConfig struct {
	// LogindHint sets the logind LockedHint of the session while locked.
	LogindHint bool `yaml:"logind_hint"`

	LockKeyring        bool     `yaml:"lock_keyring"`
	KeyringCollections []string `yaml:"keyring_collections"`

	// LockVTSwitch prevents switching virtual terminals while locked. Needs CAP_SYS_TTY_CONFIG.
	LockVTSwitch bool `yaml:"lock_vt_switch"`
}

type UIConfig struct {
	// TimeFormat and DateFormat use the layout of the time package.
	TimeFormat   string `yaml:"time_format"`
	DateFormat   string `yaml:"date_format"`
	ShowRealName bool   `yaml:"show_real_name"`
}

type DaemonConfig struct {
	// LockCommand is executed to lock the session. It must not return before the session is
	// unlocked.
	LockCommand []string `yaml:"lock_command"`

	// IdleTimeout locks the session after this long without input. Zero disables it.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	LockBeforeSleep    bool `yaml:"lock_before_sleep"`
	LockOnLogindSignal bool `yaml:"lock_on_logind_signal"`
}

type LogConfig struct {
	Level string `yaml:"level"`

	// File receives the log output. Empty means logs are discarded while the lock screen is
	// shown and written to stderr otherwise.
	File string `yaml:"file"`
}

func Default() *Config {
	return &Config{
		Auth: AuthConfig{
			PAMService:       "system-auth",
			Timeout:          30 * time.Second,
			MaxPasswordBytes: 1024,
		},
		Session: SessionConfig{
			LogindHint:         true,
			KeyringCollections: []string{"aliases/default"},
		},
		UI: UIConfig{
			TimeFormat:   "15:04",
			DateFormat:   "Monday, January _2",
			ShowRealName: true,
		},
		Daemon: DaemonConfig{
			LockCommand:        []string{"openvt", "-s", "-w", "--", "lockscreen", "lock"},
			IdleTimeout:        5 * time.Minute,
			LockBeforeSleep:    true,
			LockOnLogindSignal: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration at path. If path is empty, the file named by LOCKSCREEN_CONFIG is
// read. If that is unset as well, the defaults are returned.
// Values absent from the file keep their default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.Log.File = os.ExpandEnv(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	err := decoder.Decode(c)
	if errors.Is(err, io.EOF) {
		// Empty file
		return nil
	}

	return err
}

// Validate checks the configuration for errors. All problems are reported at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.PAMService == "" {
		errs = append(errs, errors.New("auth.pam_service is required"))
	}
	if c.Auth.Timeout < 0 {
		errs = append(errs, fmt.Errorf("auth.timeout must not be negative, got %s", c.Auth.Timeout))
	}
	if c.Auth.MaxPasswordBytes <= 0 {
		errs = append(errs, fmt.Errorf(
			"auth.max_password_bytes must be positive, got %d",
			c.Auth.MaxPasswordBytes,
		))
	}

	if c.Session.LockKeyring && len(c.Session.KeyringCollections) == 0 {
		errs = append(errs, errors.New("session.keyring_collections is required when lock_keyring is set"))
	}

	if c.UI.TimeFormat == "" {
		errs = append(errs, errors.New("ui.time_format is required"))
	}
	if c.UI.DateFormat == "" {
		errs = append(errs, errors.New("ui.date_format is required"))
	}

	if len(c.Daemon.LockCommand) == 0 || c.Daemon.LockCommand[0] == "" {
		errs = append(errs, errors.New("daemon.lock_command is required"))
	}
	if c.Daemon.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf(
			"daemon.idle_timeout must not be negative, got %s",
			c.Daemon.IdleTimeout,
		))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel parses Level. An empty level is info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", l.Level)
	}
}
