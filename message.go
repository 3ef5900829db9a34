// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Example: 0*- [0q] 15/0/0 _snake._tcp.local. [2m] PTR king brown._snake._tcp.local.
var responseRegexp = regexp.MustCompile(`^(\d+)(\*?-?\|?\$?) \[(\d+)q\] (\d+)/(\d+)/(\d+) ?(.*)$`)

// Example: 0 [1n] ANY (QU)? mirage-mdns.local. ns: mirage-mdns.local. [2m] A 192.168.3.3
var queryRegexp = regexp.MustCompile(`^(\d+)(\+?%?) (?:\[(\d+)q\] )?(?:\[(\d+)n\] ?)?(?:\[(\d+)au\] ?)?(.*)$`)

// Example: ANY (QU)? mirage-mdns.local.
var questionStartRegexp = regexp.MustCompile(`(\w+) \(Q([MU])\)\? `)

var questionRegexp = regexp.MustCompile(`^(\w+) \(Q([MU])\)\? (.*)$`)

// responseMarker identifies a response with no questions.
const responseMarker = "[0q]"

// Message is a parsed DNS or mDNS message: either a [*Query] or a [*Response].
type Message interface {
	// Datagram returns the UDP datagram carrying the message.
	Datagram() *UDPRecord

	isMessage()
}

// Question is a question in a [*Query].
type Question struct {
	// Type is the record type mnemonic (e.g., "PTR").
	Type string

	// Unicast is true for QU questions and false for QM questions.
	Unicast bool

	// Name is the queried name.
	Name string
}

// Query is a DNS query as printed by the capture tool.
type Query struct {
	UDP *UDPRecord

	// ID is the message ID.
	ID uint16

	// Flags contains the flag characters following the ID, verbatim.
	Flags string

	Questions   []Question
	Authorities []ResourceRecord
	Additionals []ResourceRecord
}

var _ Message = &Query{}

// Datagram implements [Message].
func (q *Query) Datagram() *UDPRecord {
	return q.UDP
}

func (q *Query) isMessage() {}

// IsProbe returns whether the query proposes records in its authority
// section, which is what distinguishes probes from ordinary queries.
func (q *Query) IsProbe() bool {
	return len(q.Authorities) > 0
}

// Response is a DNS response as printed by the capture tool.
type Response struct {
	UDP *UDPRecord

	// ID is the message ID.
	ID uint16

	// Flags contains the flag characters following the ID, verbatim.
	//
	// The capture tool prints '*' for authoritative answers but we do
	// not interpret any of these characters.
	Flags string

	// DeclaredQuestions is the declared question count.
	DeclaredQuestions int

	Answers     []ResourceRecord
	Authorities []ResourceRecord
	Additionals []ResourceRecord
}

var _ Message = &Response{}

// Datagram implements [Message].
func (r *Response) Datagram() *UDPRecord {
	return r.UDP
}

func (r *Response) isMessage() {}

// ParseMessage parses the payload text of udp into a [*Query] or a [*Response].
//
// The payload is a response when it contains the "[0q]" marker or when
// the datagram flows from the mDNS port to a non-DNS port. Any other
// payload is a query. A datagram where neither port is a DNS port is
// rejected with [ErrProtocolMismatch].
func ParseMessage(udp *UDPRecord, payload string) (Message, error) {
	if udp.SrcPort == PortOther && udp.DstPort == PortOther {
		return nil, newInputError(ErrProtocolMismatch, payload, "neither port is a DNS port")
	}
	if strings.Contains(payload, responseMarker) || (udp.SrcPort == PortMDNS && udp.DstPort == PortOther) {
		return parseResponse(udp, payload)
	}
	return parseQuery(udp, payload)
}

func parseResponse(udp *UDPRecord, payload string) (*Response, error) {
	m := responseRegexp.FindStringSubmatch(payload)
	if m == nil {
		return nil, newInputError(ErrMalformedPayload, payload, "not a DNS response")
	}
	id, err := strconv.ParseUint(m[1], 10, 16)
	if err != nil {
		return nil, newInputError(ErrMalformedPayload, m[1], "invalid message ID")
	}
	counts, err := atoiAll(m[3], m[4], m[5], m[6])
	if err != nil {
		return nil, newInputError(ErrMalformedPayload, payload, "invalid section count")
	}
	an, ns, ar := splitSections(m[7])

	resp := &Response{
		UDP:               udp,
		ID:                uint16(id),
		Flags:             m[2],
		DeclaredQuestions: counts[0],
	}
	if resp.Answers, err = parseSection("an", an, counts[1], payload); err != nil {
		return nil, err
	}
	if resp.Authorities, err = parseSection("ns", ns, counts[2], payload); err != nil {
		return nil, err
	}
	if resp.Additionals, err = parseSection("ar", ar, counts[3], payload); err != nil {
		return nil, err
	}
	return resp, nil
}

func parseQuery(udp *UDPRecord, payload string) (*Query, error) {
	m := queryRegexp.FindStringSubmatch(payload)
	if m == nil {
		return nil, newInputError(ErrMalformedPayload, payload, "not a DNS query")
	}
	id, err := strconv.ParseUint(m[1], 10, 16)
	if err != nil {
		return nil, newInputError(ErrMalformedPayload, m[1], "invalid message ID")
	}

	// The capture tool omits the question count when it is one and the
	// other counts when they are zero.
	declared := [3]int{1, 0, 0}
	for idx, value := range []string{m[3], m[4], m[5]} {
		if value == "" {
			continue
		}
		if declared[idx], err = strconv.Atoi(value); err != nil {
			return nil, newInputError(ErrMalformedPayload, payload, "invalid section count")
		}
	}
	qd, ns, ar := splitSections(m[6])

	query := &Query{UDP: udp, ID: uint16(id), Flags: m[2]}
	if query.Questions, err = parseQuestions(qd); err != nil {
		return nil, err
	}
	if len(query.Questions) != declared[0] {
		return nil, &CountError{Section: "q", Declared: declared[0], Parsed: len(query.Questions), Input: payload}
	}
	if query.Authorities, err = parseSection("ns", ns, declared[1], payload); err != nil {
		return nil, err
	}
	if query.Additionals, err = parseSection("ar", ar, declared[2], payload); err != nil {
		return nil, err
	}
	return query, nil
}

// splitSections locates the " ns:" and " ar:" markers and splits the
// text into its first, authority and additional sections.
func splitSections(rest string) (first, ns, ar string) {
	first = rest
	nsIdx := strings.Index(rest, " ns:")
	arIdx := indexFrom(rest, " ar:", nsIdx+1)
	if arIdx >= 0 {
		first, ar = rest[:arIdx], rest[arIdx+len(" ar:"):]
	}
	if nsIdx >= 0 {
		first, ns = first[:nsIdx], first[nsIdx+len(" ns:"):]
	}
	return
}

func indexFrom(s, substr string, from int) int {
	idx := strings.Index(s[from:], substr)
	if idx < 0 {
		return -1
	}
	return from + idx
}

// parseSection parses a record section and checks its declared count.
func parseSection(name, text string, declared int, payload string) ([]ResourceRecord, error) {
	records, err := parseRecordList(text)
	if err != nil {
		return nil, fmt.Errorf("%s section: %w", name, err)
	}
	if len(records) != declared {
		return nil, &CountError{Section: name, Declared: declared, Parsed: len(records), Input: payload}
	}
	return records, nil
}

// parseQuestions parses consecutive questions. There is no delimiter
// between questions, so each one ends where the next "TYPE (QM)? " or
// "TYPE (QU)? " marker begins.
func parseQuestions(text string) ([]Question, error) {
	var out []Question
	rest := strings.TrimSpace(text)
	for rest != "" {
		loc := questionStartRegexp.FindStringIndex(rest)
		if loc == nil || loc[0] != 0 {
			return nil, newInputError(ErrMalformedPayload, rest, "not a DNS question")
		}
		current := rest
		rest = ""
		if next := questionStartRegexp.FindStringIndex(current[loc[1]:]); next != nil {
			cut := loc[1] + next[0]
			current, rest = current[:cut], current[cut:]
		}
		m := questionRegexp.FindStringSubmatch(strings.TrimSpace(current))
		if m == nil {
			return nil, newInputError(ErrMalformedPayload, current, "not a DNS question")
		}
		out = append(out, Question{Type: m[1], Unicast: m[2] == "U", Name: m[3]})
	}
	return out, nil
}

func atoiAll(values ...string) ([]int, error) {
	out := make([]int, 0, len(values))
	for _, value := range values {
		v, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
