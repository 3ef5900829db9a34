// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import "fmt"

// DefaultLengthCeiling is the default [*Canonicalizer] length ceiling.
const DefaultLengthCeiling = 9000

// Canonicalizer restricts messages to mDNS and normalizes the fields
// that are irrelevant to conformance checking.
//
// Lengths below the ceiling are replaced with a "<N" bucket label, so the
// canonical dump does not depend on the exact payload size. This loses
// precision deliberately: the exact length is still available in the
// Length field of the [*UDPRecord].
//
// Construct using [NewCanonicalizer].
type Canonicalizer struct {
	// LengthCeiling is the exclusive upper bound for payload lengths.
	LengthCeiling int

	// RequireChecksum rejects datagrams whose checksum the capture
	// tool did not verify.
	RequireChecksum bool
}

// NewCanonicalizer returns a [*Canonicalizer] with default settings.
func NewCanonicalizer() *Canonicalizer {
	return &Canonicalizer{LengthCeiling: DefaultLengthCeiling}
}

// Canonicalize checks that msg is an mDNS message and assigns the
// canonical length bucket to its datagram.
//
// It fails with [ErrProtocolMismatch] when either port is not the mDNS
// port or when the length is not below the ceiling, and with
// [ErrChecksum] when RequireChecksum is set and the checksum is not ok.
func (c *Canonicalizer) Canonicalize(msg Message) (Message, error) {
	udp := msg.Datagram()
	if udp.SrcPort != PortMDNS || udp.DstPort != PortMDNS {
		return nil, newInputError(ErrProtocolMismatch,
			fmt.Sprintf("%s.%s > %s.%s", udp.SrcIP, udp.SrcPort, udp.DstIP, udp.DstPort),
			"both ports must be mdns")
	}
	if udp.Length >= c.LengthCeiling {
		return nil, newInputError(ErrProtocolMismatch, fmt.Sprintf("%d", udp.Length),
			fmt.Sprintf("length must be below %d", c.LengthCeiling))
	}
	if c.RequireChecksum && !udp.ChecksumOK() {
		return nil, newInputError(ErrChecksum, udp.Flags, "")
	}
	udp.lengthBucket = fmt.Sprintf("<%d", c.LengthCeiling)
	return msg, nil
}
