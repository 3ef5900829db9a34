// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"os"

	"github.com/bassosimone/mdnstrace"
	"gopkg.in/yaml.v3"
)

// ConfigLoader loads and validates the configuration file.
type ConfigLoader struct {
	path string
}

// NewConfigLoader returns a [*ConfigLoader] for the file at path. An
// empty path means there is no file and only the defaults apply.
func NewConfigLoader(path string) *ConfigLoader {
	return &ConfigLoader{path: path}
}

// Default returns the configuration used when there is no file.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Load reads, parses and validates the configuration.
func (cl *ConfigLoader) Load() (*Config, error) {
	cfg, err := cl.Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Read reads and parses the configuration and applies the defaults
// without validating it, so that callers can override some values
// before calling [*Config.Validate].
func (cl *ConfigLoader) Read() (*Config, error) {
	if cl.path == "" {
		return Default(), nil
	}

	// Step 1: Ensure that config file exists
	if _, err := os.Stat(cl.path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", cl.path)
	}

	// Step 2: Read the file
	data, err := os.ReadFile(cl.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	// Step 3: Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	// Step 4: Apply defaults for missing values
	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults sets default values for any missing configuration.
func applyDefaults(cfg *Config) {
	if cfg.Scenario == "" {
		cfg.Scenario = mdnstrace.NormalProbeScenario
	}
	if cfg.LengthCeiling == 0 {
		cfg.LengthCeiling = mdnstrace.DefaultLengthCeiling
	}

	timing := mdnstrace.DefaultTiming()
	if cfg.Timing.ProbeSpacing.isZero() {
		cfg.Timing.ProbeSpacing = windowConfig(timing.ProbeSpacing)
	}
	if cfg.Timing.DefenseDelay.isZero() {
		cfg.Timing.DefenseDelay = windowConfig(timing.DefenseDelay)
	}
	if cfg.Timing.FirstAnnounce.isZero() {
		cfg.Timing.FirstAnnounce = windowConfig(timing.FirstAnnounce)
	}
	if cfg.Timing.SecondAnnounce.isZero() {
		cfg.Timing.SecondAnnounce = windowConfig(timing.SecondAnnounce)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "WARN"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "TEXT"
	}
}
