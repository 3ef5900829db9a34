// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

// NormalProbeScenario is the name of the scenario where a host claims
// a name without conflicts.
const NormalProbeScenario = "normal-probe"

const normalProbeDescription = "three probes followed by three announcements"

// normalProbe implements [NormalProbeScenario].
type normalProbe struct {
	baseScenario
}

func newNormalProbe(opts ScenarioOptions) (Scenario, error) {
	return &normalProbe{newBaseScenario(NormalProbeScenario, normalProbeDescription, opts)}, nil
}

// Verify implements [Scenario].
func (s *normalProbe) Verify(r *Reader) (*Transcript, error) {
	tr := &Transcript{Scenario: s.name}

	// 1. the host probes three times
	probes, err := s.readSeries(r, "probes", RoleProbe, 3)
	if err != nil {
		return nil, err
	}
	if err := s.timing.CheckProbes("probes", probes...); err != nil {
		return nil, err
	}
	tr.appendSeries("t1", probeLabels, probes...)
	s.phaseDone("probes", probes)

	// 2. then it announces three times with increasing backoff
	announcements, err := s.readSeries(r, "announcements", RoleAnnouncement, 3)
	if err != nil {
		return nil, err
	}
	if err := s.timing.CheckAnnouncements("announcements", announcements...); err != nil {
		return nil, err
	}
	tr.appendSeries("t2", announcementLabels, announcements...)
	s.phaseDone("announcements", announcements)

	return tr, nil
}
