// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import "fmt"

// ConflictLaterScenario is the name of the scenario where a host probes
// for a name another host already owns.
const ConflictLaterScenario = "conflict-later"

const conflictLaterDescription = "a probe defended by an existing host, then renamed probes and announcements"

// conflictLater implements [ConflictLaterScenario].
type conflictLater struct {
	baseScenario
}

func newConflictLater(opts ScenarioOptions) (Scenario, error) {
	return &conflictLater{newBaseScenario(ConflictLaterScenario, conflictLaterDescription, opts)}, nil
}

// Verify implements [Scenario].
func (s *conflictLater) Verify(r *Reader) (*Transcript, error) {
	tr := &Transcript{Scenario: s.name}

	// 1. the owner answers the conflicting probe right away
	probe, err := s.readRole(r, "conflict", RoleProbe)
	if err != nil {
		return nil, err
	}
	defense, err := s.readRole(r, "conflict", RoleAnnouncement)
	if err != nil {
		return nil, err
	}
	if err := s.timing.CheckDefense("conflict", probe, defense); err != nil {
		return nil, err
	}
	if _, err := ValidateDefense(probe, defense); err != nil {
		return nil, fmt.Errorf("conflict: %w", err)
	}
	tr.appendSeries("t1", defenseLabels, probe, defense)
	s.phaseDone("conflict", []Message{probe, defense})

	// 2. the prober picks another name and probes again
	renamed, err := s.readSeries(r, "renamed probes", RoleProbe, 3)
	if err != nil {
		return nil, err
	}
	if err := s.timing.CheckProbes("renamed probes", renamed...); err != nil {
		return nil, err
	}
	if err := checkRenamed("renamed probes", probe, renamed); err != nil {
		return nil, err
	}
	tr.appendSeries("t2", probeLabels, renamed...)
	s.phaseDone("renamed probes", renamed)

	// 3. and finally announces the new name
	announcements, err := s.readSeries(r, "announcements", RoleAnnouncement, 3)
	if err != nil {
		return nil, err
	}
	if err := s.timing.CheckAnnouncements("announcements", announcements...); err != nil {
		return nil, err
	}
	tr.appendSeries("t3", announcementLabels, announcements...)
	s.phaseDone("announcements", announcements)

	return tr, nil
}
