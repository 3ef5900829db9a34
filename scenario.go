// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"sort"
)

// Errors emitted by [NewScenario].
var (
	// ErrUnknownScenario means there is no scenario with the given name.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrScenarioOptions means the options are not valid for the scenario.
	ErrScenarioOptions = errors.New("invalid scenario options")
)

// Scenario verifies that a trace follows a fixed interaction pattern.
type Scenario interface {
	// Name returns the scenario name.
	Name() string

	// Description returns a one-line description.
	Description() string

	// Verify consumes canonical mDNS messages from r in input order and
	// returns the labeled transcript on success. Running out of messages
	// before the pattern is complete fails with [ErrEndOfTrace].
	Verify(r *Reader) (*Transcript, error)
}

// ScenarioOptions contains the options for [NewScenario].
type ScenarioOptions struct {
	// Timing contains the delay windows. The zero value means [DefaultTiming].
	Timing *Timing

	// Hosts contains the addresses of the two conflicting hosts, in any
	// order, for scenarios involving two probing hosts.
	Hosts []netip.Addr

	// Logger is the optional [SLogger] to use.
	Logger SLogger
}

func (o ScenarioOptions) timing() Timing {
	if o.Timing == nil {
		return DefaultTiming()
	}
	return *o.Timing
}

type scenarioFactory struct {
	description string
	new         func(opts ScenarioOptions) (Scenario, error)
}

var scenarios = map[string]scenarioFactory{
	NormalProbeScenario: {
		description: normalProbeDescription,
		new:         newNormalProbe,
	},
	ConflictLaterScenario: {
		description: conflictLaterDescription,
		new:         newConflictLater,
	},
	ConflictSimultaneousScenario: {
		description: conflictSimultaneousDescription,
		new:         newConflictSimultaneous,
	},
}

// ScenarioNames returns the sorted names of the available scenarios.
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScenarioDescription returns the description of the named scenario.
func ScenarioDescription(name string) (string, error) {
	factory, found := scenarios[name]
	if !found {
		return "", fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return factory.description, nil
}

// NewScenario returns the named [Scenario] configured with opts.
func NewScenario(name string, opts ScenarioOptions) (Scenario, error) {
	factory, found := scenarios[name]
	if !found {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownScenario, name, ScenarioNames())
	}
	return factory.new(opts)
}

// baseScenario contains the fields common to all scenarios.
type baseScenario struct {
	name        string
	description string
	timing      Timing
	logger      SLogger
}

func newBaseScenario(name, description string, opts ScenarioOptions) baseScenario {
	return baseScenario{
		name:        name,
		description: description,
		timing:      opts.timing(),
		logger:      loggerOrDiscard(opts.Logger),
	}
}

// Name implements [Scenario].
func (s *baseScenario) Name() string {
	return s.name
}

// Description implements [Scenario].
func (s *baseScenario) Description() string {
	return s.description
}

// readRole reads the next message and checks its role.
func (s *baseScenario) readRole(r *Reader, phase string, want Role) (Message, error) {
	msg, err := r.NextMDNS()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", phase, err)
	}
	if err := expectRole(phase, msg, want); err != nil {
		return nil, err
	}
	return msg, nil
}

// readSeries reads count messages with the given role.
func (s *baseScenario) readSeries(r *Reader, phase string, want Role, count int) ([]Message, error) {
	var out []Message
	for range count {
		msg, err := s.readRole(r, phase, want)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *baseScenario) phaseDone(phase string, msgs []Message) {
	s.logger.Info("phase verified", "scenario", s.name, "phase", phase, "messages", len(msgs))
}

// probedName returns the name a probe proposes records for.
func probedName(msg Message) string {
	if q, ok := msg.(*Query); ok && q.IsProbe() {
		return q.Authorities[0].Name
	}
	return ""
}

// checkRenamed checks that every renamed probe proposes a name different
// from the name of the conflicting probe.
func checkRenamed(phase string, conflicting Message, renamed []Message) error {
	name := probedName(conflicting)
	if idx := slices.IndexFunc(renamed, func(m Message) bool {
		return SameName(probedName(m), name)
	}); idx >= 0 {
		return &RoleError{
			Phase:    phase,
			Expected: RoleProbe,
			Got:      RoleProbe,
			At:       renamed[idx].Datagram().Packet.Time,
			Detail:   fmt.Sprintf("probe still proposes conflicting name %s", name),
		}
	}
	return nil
}
