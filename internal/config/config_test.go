// ABOUTME: Tests for YAML configuration loading
// ABOUTME: Covers defaults, partial files, validation and logger setup
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbakholdina/srt-drift-tracer/pkg/drift"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drift-tracer.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, drift.DefaultConfig(), c.Engine)
	assert.Equal(t, 8050, c.Dashboard.Port)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoadPartial(t *testing.T) {
	path := writeConfig(t, `
engine:
  local_clock: Sys
  remote_clock: std
  ewma_center_of_mass: 0
  enable_overdrift_clamp: true
dashboard:
  port: 9000
log:
  level: debug
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, drift.System, c.Engine.LocalClock)
	assert.Equal(t, drift.Steady, c.Engine.RemoteClock)
	assert.Equal(t, 0.0, c.Engine.EWMACenterOfMass, "explicit zero is kept")
	assert.True(t, c.Engine.EnableOverdriftClamp)
	assert.Equal(t, float64(drift.DefaultMaxDriftUs), c.Engine.MaxDriftUs)
	assert.Equal(t, drift.DefaultBlockWindowSize, c.Engine.BlockWindowSize)
	assert.Equal(t, 9000, c.Dashboard.Port)
	assert.Equal(t, "drift-dashboard", c.Dashboard.Name)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadZeroValuesFallBack(t *testing.T) {
	path := writeConfig(t, `
engine:
  block_window_size: 0
  wrap_guard_period_us: 0
dashboard:
  max_reports: 0
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, drift.DefaultBlockWindowSize, c.Engine.BlockWindowSize)
	assert.Equal(t, drift.DefaultWrapGuardPeriodUs, c.Engine.WrapGuardPeriodUs)
	assert.Equal(t, 50, c.Dashboard.MaxReports)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "engine: [not, a, map]"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeConfig(t, "engine:\n  local_clock: utc\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "engine:\n  ewma_center_of_mass: -2\n"))
	var cfgErr *drift.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = Load(writeConfig(t, "log:\n  level: loud\n"))
	assert.ErrorContains(t, err, "log level")

	_, err = Load(writeConfig(t, "log:\n  format: xml\n"))
	assert.ErrorContains(t, err, "log format")

	_, err = Load(writeConfig(t, "dashboard:\n  read_timeout: soon\n"))
	assert.ErrorContains(t, err, "read_timeout")
}

func TestDashboardTimeouts(t *testing.T) {
	read, write, err := Default().Dashboard.Timeouts()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, read)
	assert.Equal(t, time.Minute, write)
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	c, err := LoadOptional("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	_, err = LoadOptional(filepath.Join(dir, "nope.yml"))
	assert.Error(t, err, "explicit path must exist")

	require.NoError(t, os.WriteFile(DefaultPath, []byte("dashboard:\n  port: 7000\n"), 0644))
	c, err = LoadOptional("")
	require.NoError(t, err)
	assert.Equal(t, 7000, c.Dashboard.Port)
}

func TestLogSetup(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	defer log.SetLevel(log.InfoLevel)
	defer log.SetFormatter(&log.TextFormatter{})

	var stdout bytes.Buffer
	file := filepath.Join(t.TempDir(), "tracer.log")
	closer, err := LogConfig{Level: "warn", File: file, Format: "json"}.Setup(&stdout)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	require.NoError(t, closer.Close())

	assert.NotContains(t, stdout.String(), "hidden")
	assert.Contains(t, stdout.String(), `"msg":"shown"`)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "shown")

	_, err = LogConfig{Level: "nope"}.Setup(&stdout)
	assert.Error(t, err)
}
