// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"fmt"
	"net/netip"
)

// ConflictSimultaneousScenario is the name of the scenario where two
// hosts probe for the same name at the same time.
const ConflictSimultaneousScenario = "conflict-simultaneous"

const conflictSimultaneousDescription = "two hosts probing at once: the lesser proposal renames and probes again"

// mDNS multicast groups.
var (
	mdnsGroupIPv4 = netip.MustParseAddr("224.0.0.251")
	mdnsGroupIPv6 = netip.MustParseAddr("ff02::fb")
)

// conflictSimultaneous implements [ConflictSimultaneousScenario].
//
// The host whose proposal compares greater keeps probing and announces
// its name. The other host probes again, receives a defense addressed to
// it, renames itself, probes for the new name and announces it. The
// greater host's announcements may interleave with all of this.
type conflictSimultaneous struct {
	baseScenario
	hosts [2]netip.Addr
}

func newConflictSimultaneous(opts ScenarioOptions) (Scenario, error) {
	if len(opts.Hosts) != 2 {
		return nil, fmt.Errorf("%w: %s needs two hosts, got %d",
			ErrScenarioOptions, ConflictSimultaneousScenario, len(opts.Hosts))
	}
	a, b := opts.Hosts[0].Unmap(), opts.Hosts[1].Unmap()
	if !a.IsValid() || !b.IsValid() || a == b {
		return nil, fmt.Errorf("%w: %s needs two distinct hosts, got %v",
			ErrScenarioOptions, ConflictSimultaneousScenario, opts.Hosts)
	}
	return &conflictSimultaneous{
		baseScenario: newBaseScenario(ConflictSimultaneousScenario, conflictSimultaneousDescription, opts),
		hosts:        [2]netip.Addr{a, b},
	}, nil
}

// Verify implements [Scenario].
func (s *conflictSimultaneous) Verify(r *Reader) (*Transcript, error) {
	tr := &Transcript{Scenario: s.name}

	// 1. wait until both hosts have probed, then break the tie
	var probes [2][]Message
	for len(probes[0]) == 0 || len(probes[1]) == 0 {
		msg, err := s.readRole(r, "simultaneous probes", RoleProbe)
		if err != nil {
			return nil, err
		}
		idx := s.proposer(msg)
		if idx < 0 {
			s.logger.Debug("ignoring unrelated probe", "t", msg.Datagram().Packet.Seconds())
			continue
		}
		probes[idx] = append(probes[idx], msg)
	}
	greater, lesser := 0, 1
	switch CompareProposals(proposal(probes[0][0]), proposal(probes[1][0])) {
	case 0:
		return nil, fmt.Errorf("%w: simultaneous probes: %s and %s propose identical records",
			ErrUnexpectedRole, s.hosts[0], s.hosts[1])
	case -1:
		greater, lesser = 1, 0
	}
	greaterHost, lesserHost := s.hosts[greater], s.hosts[lesser]
	s.logger.Info("tie-break", "greater", greaterHost.String(), "lesser", lesserHost.String())

	// 2. the greater host finishes probing
	greaterProbes := probes[greater]
	for len(greaterProbes) < 3 {
		msg, err := s.readRole(r, "greater probes", RoleProbe)
		if err != nil {
			return nil, err
		}
		if !sentBy(msg, greaterHost) {
			return nil, hostError("greater probes", msg, RoleProbe, greaterHost)
		}
		greaterProbes = append(greaterProbes, msg)
	}
	if len(greaterProbes) > 3 {
		return nil, fmt.Errorf("%w: greater probes: %d probes from %s, want 3",
			ErrUnexpectedRole, len(greaterProbes), greaterHost)
	}
	if err := s.timing.CheckProbes("greater probes", greaterProbes...); err != nil {
		return nil, err
	}
	tr.appendSeries("t2", probeLabels, greaterProbes...)
	s.phaseDone("greater probes", greaterProbes)

	// 3. the lesser host probes again while the greater one announces
	var greaterAnnouncements []Message
	var reprobe Message
	for reprobe == nil {
		msg, err := r.NextMDNS()
		if err != nil {
			return nil, fmt.Errorf("conflicting probe: %w", err)
		}
		switch {
		case sentBy(msg, lesserHost):
			if err := expectRole("conflicting probe", msg, RoleProbe); err != nil {
				return nil, err
			}
			reprobe = msg
		case sentBy(msg, greaterHost):
			if err := expectNotProbe("greater announcements", msg); err != nil {
				return nil, err
			}
			greaterAnnouncements = append(greaterAnnouncements, msg)
		default:
			return nil, hostError("conflicting probe", msg, RoleProbe, lesserHost)
		}
	}

	// 4. the greater host defends its name sending to the lesser one
	var defense Message
	for defense == nil {
		msg, err := r.NextMDNS()
		if err != nil {
			return nil, fmt.Errorf("defense: %w", err)
		}
		if !sentBy(msg, greaterHost) {
			return nil, hostError("defense", msg, RoleDefense, greaterHost)
		}
		if sentTo(msg, lesserHost) {
			if got := Classify(msg); got != RoleAnnouncement {
				return nil, &RoleError{Phase: "defense", Expected: RoleDefense, Got: got, At: msg.Datagram().Packet.Time}
			}
			defense = msg
			continue
		}
		if !sentToGroup(msg) {
			return nil, &RoleError{
				Phase:    "greater announcements",
				Expected: RoleAnnouncement,
				Got:      Classify(msg),
				At:       msg.Datagram().Packet.Time,
				Detail:   fmt.Sprintf("destination %s is not the mDNS group", msg.Datagram().DstIP),
			}
		}
		if err := expectNotProbe("greater announcements", msg); err != nil {
			return nil, err
		}
		greaterAnnouncements = append(greaterAnnouncements, msg)
	}
	if err := s.timing.CheckDefense("defense", reprobe, defense); err != nil {
		return nil, err
	}
	if _, err := ValidateDefense(reprobe, defense); err != nil {
		return nil, fmt.Errorf("defense: %w", err)
	}
	tr.appendSeries("t3", defenseLabels, reprobe, defense)
	s.phaseDone("defense", []Message{reprobe, defense})

	// 5. the lesser host renames itself and probes again
	var renamed []Message
	for len(renamed) < 3 {
		msg, err := r.NextMDNS()
		if err != nil {
			return nil, fmt.Errorf("renamed probes: %w", err)
		}
		switch {
		case sentBy(msg, lesserHost):
			if err := expectRole("renamed probes", msg, RoleProbe); err != nil {
				return nil, err
			}
			renamed = append(renamed, msg)
		case sentBy(msg, greaterHost):
			if err := expectNotProbe("greater announcements", msg); err != nil {
				return nil, err
			}
			greaterAnnouncements = append(greaterAnnouncements, msg)
		default:
			return nil, hostError("renamed probes", msg, RoleProbe, lesserHost)
		}
	}
	if err := s.timing.CheckProbes("renamed probes", renamed...); err != nil {
		return nil, err
	}
	if err := checkRenamed("renamed probes", reprobe, renamed); err != nil {
		return nil, err
	}
	tr.appendSeries("t4", probeLabels, renamed...)
	s.phaseDone("renamed probes", renamed)

	// 6. both hosts complete their announcements
	var lesserAnnouncements []Message
	for len(greaterAnnouncements) < 3 || len(lesserAnnouncements) < 3 {
		msg, err := r.NextMDNS()
		if err != nil {
			return nil, fmt.Errorf("announcements: %w", err)
		}
		switch {
		case sentBy(msg, lesserHost):
			if err := expectNotProbe("lesser announcements", msg); err != nil {
				return nil, err
			}
			lesserAnnouncements = append(lesserAnnouncements, msg)
		case sentBy(msg, greaterHost):
			if err := expectNotProbe("greater announcements", msg); err != nil {
				return nil, err
			}
			greaterAnnouncements = append(greaterAnnouncements, msg)
		default:
			return nil, hostError("announcements", msg, RoleAnnouncement, lesserHost)
		}
	}
	for _, series := range []struct {
		phase string
		label string
		host  netip.Addr
		msgs  []Message
	}{
		{"greater announcements", "t5", greaterHost, greaterAnnouncements},
		{"lesser announcements", "t6", lesserHost, lesserAnnouncements},
	} {
		if len(series.msgs) != 3 {
			return nil, fmt.Errorf("%w: %s: %d announcements from %s, want 3",
				ErrUnexpectedRole, series.phase, len(series.msgs), series.host)
		}
		if err := s.timing.CheckAnnouncements(series.phase, series.msgs...); err != nil {
			return nil, err
		}
		tr.appendSeries(series.label, announcementLabels, series.msgs...)
		s.phaseDone(series.phase, series.msgs)
	}

	return tr, nil
}

// proposer returns the index of the host whose address msg proposes,
// or -1 when msg proposes neither address.
func (s *conflictSimultaneous) proposer(msg Message) int {
	rdata := proposal(msg).RData
	for idx, host := range s.hosts {
		if rdata == addressProposal(host) {
			return idx
		}
	}
	return -1
}

// proposal returns the first record a probe proposes.
func proposal(msg Message) ResourceRecord {
	if q, ok := msg.(*Query); ok && q.IsProbe() {
		return q.Authorities[0]
	}
	return ResourceRecord{}
}

// addressProposal returns the rdata of the address record a host proposes.
func addressProposal(addr netip.Addr) string {
	if addr.Is4() {
		return "A " + addr.String()
	}
	return "AAAA " + addr.String()
}

func sentBy(msg Message, host netip.Addr) bool {
	src, err := netip.ParseAddr(msg.Datagram().SrcIP)
	return err == nil && src.Unmap() == host
}

func sentTo(msg Message, host netip.Addr) bool {
	dst, err := netip.ParseAddr(msg.Datagram().DstIP)
	return err == nil && dst.Unmap() == host
}

func sentToGroup(msg Message) bool {
	return sentTo(msg, mdnsGroupIPv4) || sentTo(msg, mdnsGroupIPv6)
}

func expectNotProbe(phase string, msg Message) error {
	if IsProbe(msg) {
		return &RoleError{Phase: phase, Expected: RoleAnnouncement, Got: RoleProbe, At: msg.Datagram().Packet.Time}
	}
	return nil
}

func hostError(phase string, msg Message, want Role, host netip.Addr) error {
	return &RoleError{
		Phase:    phase,
		Expected: want,
		Got:      Classify(msg),
		At:       msg.Datagram().Packet.Time,
		Detail:   fmt.Sprintf("sent by %s, want %s", msg.Datagram().SrcIP, host),
	}
}
