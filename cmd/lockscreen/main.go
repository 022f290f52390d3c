// lockscreen locks the session on a virtual terminal until the user's password is verified.
//
// The lock command shows the lock screen on the terminal it is started on and exits only after a
// successful unlock. The daemon command starts the lock command when logind asks for a lock,
// after a period of inactivity, and before the system sleeps.
package main

import (
	"errors"
	"fmt"
	"github.com/MatthiasKunnen/lockscreen/internal/config"
	"github.com/spf13/pflag"
	"io"
	"log/slog"
	"os"
)

const usage = `Usage:
  lockscreen lock [flags]     lock the session on the current terminal
  lockscreen daemon [flags]   lock automatically on logind request, idle and sleep

The lock command is usually started on its own virtual terminal:
  openvt -s -w -- lockscreen lock

Flags:
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string

	flagSet := pflag.NewFlagSet("lockscreen", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to the YAML config file (default: $"+config.EnvPath+")")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.SetOutput(io.Discard)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	rest := flagSet.Args()
	if len(rest) != 1 {
		printHelp(flagSet)
		return errors.New("expected exactly one command")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	switch rest[0] {
	case "lock":
		return runLock(cfg)
	case "daemon":
		return runDaemon(cfg)
	default:
		printHelp(flagSet)
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprint(os.Stderr, usage)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

// newLogger returns a logger writing to the configured log file, or to fallback if there is none.
// The returned function closes the log file.
func newLogger(cfg config.LogConfig, fallback io.Writer) (*slog.Logger, func() error, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}

	out := fallback
	closeLog := func() error { return nil }
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeLog = f.Close
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	return logger, closeLog, nil
}
