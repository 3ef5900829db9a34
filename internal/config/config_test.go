// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bassosimone/mdnstrace"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewConfigLoader("").Load()
	require.NoError(t, err)
	require.Equal(t, mdnstrace.NormalProbeScenario, cfg.Scenario)
	require.Equal(t, mdnstrace.DefaultLengthCeiling, cfg.LengthCeiling)
	require.Equal(t, mdnstrace.DefaultTiming(), cfg.Timing.Timing())
	require.Equal(t, "WARN", cfg.Logging.Level)
	require.Equal(t, "TEXT", cfg.Logging.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
scenario: conflict-simultaneous
hosts:
  - 192.168.3.3
  - 192.168.3.2
require_checksum: true
timing:
  probe_spacing:
    min: 150ms
    max: 350ms
logging:
  level: debug
  format: json
`)
	cfg, err := NewConfigLoader(path).Load()
	require.NoError(t, err)
	require.Equal(t, mdnstrace.ConflictSimultaneousScenario, cfg.Scenario)
	require.True(t, cfg.RequireChecksum)
	require.Equal(t, mdnstrace.DefaultLengthCeiling, cfg.LengthCeiling)

	timing := cfg.Timing.Timing()
	require.Equal(t, mdnstrace.Window{Min: 150 * time.Millisecond, Max: 350 * time.Millisecond}, timing.ProbeSpacing)
	require.Equal(t, mdnstrace.DefaultTiming().DefenseDelay, timing.DefenseDelay)
	require.Equal(t, slog.LevelDebug, cfg.Logging.SlogLevel())

	opts, err := cfg.ScenarioOptions(nil)
	require.NoError(t, err)
	require.Len(t, opts.Hosts, 2)
	require.Equal(t, "192.168.3.3", opts.Hosts[0].String())
	require.Equal(t, timing, *opts.Timing)

	canon := cfg.Canonicalizer()
	require.True(t, canon.RequireChecksum)
	require.Equal(t, mdnstrace.DefaultLengthCeiling, canon.LengthCeiling)
}

func TestReadDoesNotValidate(t *testing.T) {
	path := writeConfig(t, "scenario: conflict-simultaneous\n")

	cfg, err := NewConfigLoader(path).Read()
	require.NoError(t, err)
	require.Equal(t, mdnstrace.ConflictSimultaneousScenario, cfg.Scenario)
	require.Error(t, cfg.Validate())

	cfg.Hosts = []string{"192.168.3.2", "192.168.3.3"}
	require.NoError(t, cfg.Validate())

	_, err = NewConfigLoader(path).Load()
	require.ErrorContains(t, err, "configuration validation failed")
}

func TestZeroWindowMeansDefault(t *testing.T) {
	path := writeConfig(t, `
timing:
  defense_delay:
    min: 0s
    max: 0s
`)
	cfg, err := NewConfigLoader(path).Load()
	require.NoError(t, err)
	require.Equal(t, mdnstrace.DefaultTiming().DefenseDelay, cfg.Timing.DefenseDelay.Window())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewConfigLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "configuration file not found")
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := NewConfigLoader(writeConfig(t, "scenario: [unterminated\n")).Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse YAML configuration")
}

func TestValidate(t *testing.T) {
	t.Run("AllProblemsReported", func(t *testing.T) {
		cfg := Default()
		cfg.Scenario = "bogus"
		cfg.Hosts = []string{"not-an-address"}
		cfg.LengthCeiling = -1
		cfg.Timing.DefenseDelay = WindowConfig{Min: time.Second, Max: time.Millisecond}
		cfg.Logging.Level = "TRACE"

		err := cfg.Validate()
		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		require.Len(t, verrs, 5)
		require.Contains(t, err.Error(), `scenario "bogus"`)
		require.Contains(t, err.Error(), "host 'not-an-address'")
		require.Contains(t, err.Error(), "length_ceiling must be positive")
		require.Contains(t, err.Error(), "timing.defense_delay.max")
		require.Contains(t, err.Error(), "invalid log level 'TRACE'")
	})

	t.Run("SimultaneousNeedsTwoHosts", func(t *testing.T) {
		cfg := Default()
		cfg.Scenario = mdnstrace.ConflictSimultaneousScenario
		cfg.Hosts = []string{"192.168.3.3"}
		err := cfg.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "needs exactly two hosts")
	})

	t.Run("NegativeMin", func(t *testing.T) {
		cfg := Default()
		cfg.Timing.ProbeSpacing = WindowConfig{Min: -time.Millisecond, Max: time.Millisecond}
		err := cfg.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "timing.probe_spacing.min cannot be negative")
	})

	t.Run("InvalidFormat", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Format = "XML"
		require.ErrorContains(t, cfg.Validate(), "invalid log format 'XML'")
	})

	t.Run("FileRejected", func(t *testing.T) {
		_, err := NewConfigLoader(writeConfig(t, "length_ceiling: -5\n")).Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "configuration validation failed")
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		logger := (&LoggingConfig{Level: "INFO", Format: "JSON"}).NewLogger(&buf)
		logger.Debug("hidden")
		logger.Info("phase verified", "phase", "probes")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		require.Equal(t, "phase verified", entry["msg"])
		require.Equal(t, "probes", entry["phase"])
	})

	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := (&LoggingConfig{Level: "WARN", Format: "text"}).NewLogger(&buf)
		logger.Info("hidden")
		logger.Warn("visible")
		require.NotContains(t, buf.String(), "hidden")
		require.Contains(t, buf.String(), "msg=visible")
	})
}
