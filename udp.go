// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/gopacket/layers"
)

// Example: 192.168.3.3.mdns > 224.0.0.251.mdns: [udp sum ok] 0 [1n] ANY (QU)? mirage-mdns.local. ns: ... (61)
var udpRegexp = regexp.MustCompile(
	`^(\d+\.\d+.\d+.\d+|[0-9a-f:]+)\.(\w+) > (\d+\.\d+.\d+.\d+|[0-9a-f:]+)\.(\w+): \[([^\]]*)\] (.*) \((\d+)\)$`)

// Canonical port names. Any port other than [PortDNS] and [PortMDNS]
// canonicalizes to [PortOther].
const (
	PortDNS   = "dns"
	PortMDNS  = "mdns"
	PortOther = "x"
)

// checksumOK is the flag text printed for a verified UDP checksum.
const checksumOK = "udp sum ok"

// UDPRecord is the UDP-level view of a captured packet.
type UDPRecord struct {
	// Packet is the enclosing IP packet.
	Packet *PacketRecord

	// SrcIP and DstIP are the addresses as printed by the capture tool.
	SrcIP string
	DstIP string

	// SrcPort and DstPort are canonical: [PortDNS], [PortMDNS] or [PortOther].
	SrcPort string
	DstPort string

	// Flags is the bracketed flag text (e.g., "udp sum ok").
	Flags string

	// Length is the declared payload length.
	Length int

	lengthBucket string
}

// ChecksumOK returns whether the capture tool verified the checksum.
func (u *UDPRecord) ChecksumOK() bool {
	return u.Flags == checksumOK
}

// LengthBucket returns the canonical length label assigned by the
// [*Canonicalizer], or the empty string.
func (u *UDPRecord) LengthBucket() string {
	return u.lengthBucket
}

// CanonicalPort maps a port as printed by the capture tool to
// [PortDNS], [PortMDNS] or [PortOther]. Numeric ports, printed when
// the tool does not resolve names, are mapped through their IANA names.
func CanonicalPort(port string) string {
	if n, err := strconv.ParseUint(port, 10, 16); err == nil {
		port = layers.UDPPortNames[layers.UDPPort(n)]
	}
	switch port {
	case "mdns":
		return PortMDNS
	case "dns", "domain":
		return PortDNS
	default:
		return PortOther
	}
}

// ParseUDP parses the body text of a UDP packet and returns the record
// and the raw payload text for the DNS parser.
func ParseUDP(packet *PacketRecord, body string) (*UDPRecord, string, error) {
	if !packet.IsUDP() {
		return nil, "", newInputError(ErrMalformedUDP, body,
			fmt.Sprintf("transport is %s, not UDP", packet.Protocol))
	}
	m := udpRegexp.FindStringSubmatch(body)
	if m == nil {
		return nil, "", newInputError(ErrMalformedUDP, body, "")
	}
	length, err := strconv.Atoi(m[7])
	if err != nil {
		return nil, "", newInputError(ErrMalformedUDP, m[7], "invalid length")
	}
	udp := &UDPRecord{
		Packet:  packet,
		SrcIP:   m[1],
		SrcPort: CanonicalPort(m[2]),
		DstIP:   m[3],
		DstPort: CanonicalPort(m[4]),
		Flags:   m[5],
		Length:  length,
	}
	return udp, m[6], nil
}
