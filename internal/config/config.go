// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the configuration of the mdnsverify command.
package config

import (
	"io"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/bassosimone/mdnstrace"
)

// Config is the mdnsverify configuration.
type Config struct {
	Scenario        string        `yaml:"scenario"`
	Hosts           []string      `yaml:"hosts"` // conflicting hosts, any order
	RequireChecksum bool          `yaml:"require_checksum"`
	LengthCeiling   int           `yaml:"length_ceiling"`
	Timing          TimingConfig  `yaml:"timing"`
	Logging         LoggingConfig `yaml:"logging"`
}

// WindowConfig is an inclusive delay window such as {min: 200ms, max: 300ms}.
type WindowConfig struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// TimingConfig contains the delay windows checked by scenarios.
//
// A window whose min and max are both zero, including an explicit
// {min: 0s, max: 0s}, counts as unset and gets the default window.
type TimingConfig struct {
	ProbeSpacing   WindowConfig `yaml:"probe_spacing"`
	DefenseDelay   WindowConfig `yaml:"defense_delay"`
	FirstAnnounce  WindowConfig `yaml:"first_announce"`
	SecondAnnounce WindowConfig `yaml:"second_announce"`
}

// LoggingConfig controls diagnostic logging on stderr.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // DEBUG, INFO, WARN, ERROR
	Format string `yaml:"format"` // TEXT, JSON
}

// Window converts w to a [mdnstrace.Window].
func (w WindowConfig) Window() mdnstrace.Window {
	return mdnstrace.Window{Min: w.Min, Max: w.Max}
}

func (w WindowConfig) isZero() bool {
	return w.Min == 0 && w.Max == 0
}

func windowConfig(w mdnstrace.Window) WindowConfig {
	return WindowConfig{Min: w.Min, Max: w.Max}
}

// Timing converts t to a [mdnstrace.Timing].
func (t TimingConfig) Timing() mdnstrace.Timing {
	return mdnstrace.Timing{
		ProbeSpacing:   t.ProbeSpacing.Window(),
		DefenseDelay:   t.DefenseDelay.Window(),
		FirstAnnounce:  t.FirstAnnounce.Window(),
		SecondAnnounce: t.SecondAnnounce.Window(),
	}
}

// HostAddrs parses the configured hosts.
func (c *Config) HostAddrs() ([]netip.Addr, error) {
	var out []netip.Addr
	for _, host := range c.Hosts {
		addr, err := netip.ParseAddr(host)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// ScenarioOptions returns the options for [mdnstrace.NewScenario].
func (c *Config) ScenarioOptions(logger mdnstrace.SLogger) (mdnstrace.ScenarioOptions, error) {
	hosts, err := c.HostAddrs()
	if err != nil {
		return mdnstrace.ScenarioOptions{}, err
	}
	timing := c.Timing.Timing()
	return mdnstrace.ScenarioOptions{Timing: &timing, Hosts: hosts, Logger: logger}, nil
}

// Canonicalizer returns the [*mdnstrace.Canonicalizer] to use.
func (c *Config) Canonicalizer() *mdnstrace.Canonicalizer {
	canon := mdnstrace.NewCanonicalizer()
	canon.LengthCeiling = c.LengthCeiling
	canon.RequireChecksum = c.RequireChecksum
	return canon
}

// SlogLevel returns the configured [slog.Level].
func (l *LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToUpper(l.Level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a [*slog.Logger] writing to w using the configured
// level and format.
func (l *LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.ToUpper(l.Format) == "JSON" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
