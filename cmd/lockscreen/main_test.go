package main

import (
	"bytes"
	"github.com/MatthiasKunnen/lockscreen/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestRun_Help(t *testing.T) {
	assert.NoError(t, run([]string{"--help"}))
	assert.NoError(t, run([]string{"-h"}))
}

func TestRun_Usage(t *testing.T) {
	t.Setenv(config.EnvPath, "")

	assert.Error(t, run(nil))
	assert.Error(t, run([]string{"lock", "now"}))
	assert.ErrorContains(t, run([]string{"unlock"}), `unknown command "unlock"`)
	assert.Error(t, run([]string{"--bogus", "lock"}))
}

func TestRun_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockscreen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  timeout: -1s\n"), 0o600))

	assert.ErrorContains(t, run([]string{"--config", path, "lock"}), "auth.timeout")
}

func TestNewLogger(t *testing.T) {
	var fallback bytes.Buffer
	logger, closeLog, err := newLogger(config.LogConfig{Level: "warn"}, &fallback)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NoError(t, closeLog())

	assert.NotContains(t, fallback.String(), "hidden")
	assert.Contains(t, fallback.String(), "shown")
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockscreen.log")
	var fallback bytes.Buffer

	logger, closeLog, err := newLogger(config.LogConfig{Level: "debug", File: path}, &fallback)
	require.NoError(t, err)

	logger.Debug("to file")
	require.NoError(t, closeLog())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "to file")
	assert.Empty(t, fallback.String())
}
