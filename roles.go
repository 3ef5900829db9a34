// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

// Role is the part a message plays in a scenario.
type Role string

// Roles assigned to messages.
const (
	// RoleProbe is a query proposing records in its authority section.
	RoleProbe = Role("probe")

	// RoleQuery is any other query.
	RoleQuery = Role("query")

	// RoleAnnouncement is a response.
	RoleAnnouncement = Role("announcement")

	// RoleDefense is a response defending a name, addressed to the
	// host whose probe conflicts with it. Only scenarios assign it,
	// since it depends on who sent the conflicting probe.
	RoleDefense = Role("defense")
)

// String implements [fmt.Stringer].
func (r Role) String() string {
	return string(r)
}

// Classify returns the role of msg based on its content alone.
func Classify(msg Message) Role {
	switch m := msg.(type) {
	case *Query:
		if m.IsProbe() {
			return RoleProbe
		}
		return RoleQuery
	default:
		return RoleAnnouncement
	}
}

// IsProbe returns whether msg is a probe.
func IsProbe(msg Message) bool {
	return Classify(msg) == RoleProbe
}

func expectRole(phase string, msg Message, want Role) error {
	if got := Classify(msg); got != want {
		return &RoleError{Phase: phase, Expected: want, Got: got, At: msg.Datagram().Packet.Time}
	}
	return nil
}
