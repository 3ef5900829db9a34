// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"github.com/bassosimone/mdnstrace"
)

// ValidationErrors contains all the problems found by [*Config.Validate].
type ValidationErrors []error

// Error implements error.
func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, err := range v {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap returns the individual errors.
func (v ValidationErrors) Unwrap() []error {
	return v
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if !slices.Contains(mdnstrace.ScenarioNames(), c.Scenario) {
		errs = append(errs, fmt.Errorf("scenario %q must be one of: %v", c.Scenario, mdnstrace.ScenarioNames()))
	}

	for _, host := range c.Hosts {
		if _, err := netip.ParseAddr(host); err != nil {
			errs = append(errs, fmt.Errorf("host '%s' is not a valid IP address", host))
		}
	}
	if c.Scenario == mdnstrace.ConflictSimultaneousScenario && len(c.Hosts) != 2 {
		errs = append(errs, fmt.Errorf("scenario %s needs exactly two hosts, got %d", c.Scenario, len(c.Hosts)))
	}

	if c.LengthCeiling < 1 {
		errs = append(errs, fmt.Errorf("length_ceiling must be positive, got %d", c.LengthCeiling))
	}

	errs = append(errs, c.Timing.validate()...)

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (t *TimingConfig) validate() (errs []error) {
	for _, entry := range []struct {
		name   string
		window WindowConfig
	}{
		{"probe_spacing", t.ProbeSpacing},
		{"defense_delay", t.DefenseDelay},
		{"first_announce", t.FirstAnnounce},
		{"second_announce", t.SecondAnnounce},
	} {
		if entry.window.Min < 0 {
			errs = append(errs, fmt.Errorf("timing.%s.min cannot be negative, got %s", entry.name, entry.window.Min))
		}
		if entry.window.Max < entry.window.Min {
			errs = append(errs, fmt.Errorf("timing.%s.max %s is below min %s",
				entry.name, entry.window.Max, entry.window.Min))
		}
	}
	return
}

// Validate checks if logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if !slices.Contains(validLevels, strings.ToUpper(l.Level)) {
		return fmt.Errorf("invalid log level '%s', must be one of: %v", l.Level, validLevels)
	}
	validFormats := []string{"TEXT", "JSON"}
	if !slices.Contains(validFormats, strings.ToUpper(l.Format)) {
		return fmt.Errorf("invalid log format '%s', must be one of: %v", l.Format, validFormats)
	}
	return nil
}
