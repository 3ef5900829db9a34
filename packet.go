// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/gopacket/layers"
)

// Example: 00:00:00.750896 IP (tos 0x0, ttl 38, id 41334, offset 0, flags [none], proto UDP (17), length 473)
var ipv4HeaderRegexp = regexp.MustCompile(
	`^(\d\d):(\d\d):(\d\d)\.(\d{6}) IP \(tos 0x[0-9a-fA-F]+, ttl (\d+), id \d+, offset \d+, flags \[[^\]]+\], proto (\w+) \((\d+)\), length \d+\)$`)

// Example: 00:00:01.954885 IP6 (hlim 255, next-header UDP (17) payload length: 126) fe80::1.mdns > ff02::fb.mdns: ...
var ipv6HeaderRegexp = regexp.MustCompile(
	`^(\d\d):(\d\d):(\d\d)\.(\d{6}) IP6 \(hlim (\d+), next-header (\w+) \((\d+)\) payload length: \d+\)(.*)$`)

// PacketRecord is the IP-level view of a captured packet.
//
// Records are immutable once parsed, except for the symbolic label that
// a scenario verifier assigns once all timing checks are done.
type PacketRecord struct {
	// Time is the capture timestamp relative to the capture start.
	Time time.Duration

	// Version is the IP version (4 or 6).
	Version int

	// TTL is the IPv4 TTL or the IPv6 hop limit.
	TTL int

	// Protocol is the transport protocol name (e.g., "UDP").
	Protocol string

	// ProtocolNumber is the transport protocol number (e.g., 17).
	ProtocolNumber int

	label string
}

// Seconds returns the timestamp in seconds.
func (p *PacketRecord) Seconds() float64 {
	return p.Time.Seconds()
}

// Label returns the symbolic timestamp label or the empty string.
func (p *PacketRecord) Label() string {
	return p.label
}

func (p *PacketRecord) setLabel(label string) {
	p.label = label
}

// IsUDP returns whether the packet carries a UDP datagram.
func (p *PacketRecord) IsUDP() bool {
	return p.Protocol == "UDP" || layers.IPProtocol(p.ProtocolNumber) == layers.IPProtocolUDP
}

// ParseIPv4Header parses a standalone IPv4 header line.
//
// The UDP summary for this packet is on the following line.
func ParseIPv4Header(line string) (*PacketRecord, error) {
	m := ipv4HeaderRegexp.FindStringSubmatch(line)
	if m == nil {
		return nil, newInputError(ErrMalformedHeader, line, "not an IPv4 header")
	}
	return newPacketRecord(4, m[1], m[2], m[3], m[4], m[5], m[6], m[7])
}

// ParseIPv6Header parses an IPv6 header line and returns the record
// and the trimmed body text that follows the header on the same line.
func ParseIPv6Header(line string) (*PacketRecord, string, error) {
	m := ipv6HeaderRegexp.FindStringSubmatch(line)
	if m == nil {
		return nil, "", newInputError(ErrMalformedHeader, line, "not an IPv6 header")
	}
	packet, err := newPacketRecord(6, m[1], m[2], m[3], m[4], m[5], m[6], m[7])
	if err != nil {
		return nil, "", err
	}
	return packet, strings.TrimSpace(m[8]), nil
}

func newPacketRecord(version int, hh, mm, ss, micros, ttl, proto, protoNum string) (*PacketRecord, error) {
	t, err := parseClock(hh, mm, ss, micros)
	if err != nil {
		return nil, err
	}
	ttlValue, err := strconv.Atoi(ttl)
	if err != nil {
		return nil, newInputError(ErrMalformedHeader, ttl, "invalid ttl")
	}
	num, err := strconv.Atoi(protoNum)
	if err != nil || num > 255 {
		return nil, newInputError(ErrMalformedHeader, protoNum, "invalid protocol number")
	}
	return &PacketRecord{
		Time:           t,
		Version:        version,
		TTL:            ttlValue,
		Protocol:       proto,
		ProtocolNumber: num,
	}, nil
}

// parseClock converts the HH:MM:SS.ffffff fields into a duration. The
// arithmetic is exact at microsecond resolution.
func parseClock(hh, mm, ss, micros string) (time.Duration, error) {
	var values [4]int
	for idx, field := range []string{hh, mm, ss, micros} {
		v, err := strconv.Atoi(field)
		if err != nil {
			return 0, newInputError(ErrMalformedHeader, field, "invalid timestamp")
		}
		values[idx] = v
	}
	seconds := values[2] + 60*(values[1]+60*values[0])
	return time.Duration(seconds)*time.Second + time.Duration(values[3])*time.Microsecond, nil
}

// ParsePacketHeader reads one packet from src: either an IPv4 header line
// followed by its body line, or a single IPv6 line. It returns the record
// and the trimmed body text.
//
// It returns [io.EOF] when src is exhausted before the header line and
// [ErrEndOfTrace] when the body line of an IPv4 packet is missing.
func ParsePacketHeader(src LineSource) (*PacketRecord, string, error) {
	header, err := src.ReadLine()
	if err != nil {
		return nil, "", err
	}

	if packet, err := ParseIPv4Header(header); err == nil {
		body, err := src.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil, "", newInputError(ErrEndOfTrace, header, "missing packet body")
		}
		if err != nil {
			return nil, "", err
		}
		return packet, strings.TrimSpace(body), nil
	}

	if packet, body, err := ParseIPv6Header(header); err == nil {
		return packet, body, nil
	}

	return nil, "", newInputError(ErrMalformedHeader, header, "")
}
