// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// Example: _snake._tcp.local. [2m] PTR king brown._snake._tcp.local.
//
// The name may embed dots inside bracketed labels, e.g.:
//
//	cubieboard2 [12:df:d4:08:83:ac]._workstation._tcp.local. [2m] SRV cubieboard2.local.:9 0 0
var rrRegexp = regexp.MustCompile(
	`^((?:[-_ A-Za-z0-9:\[\]]+\.)+) (\(Cache flush\) )?\[((?:\d+d)?(?:\d+h)?(?:\d+m)?(?:\d+s)?)\] (.*)$`)

var ttlRegexp = regexp.MustCompile(`^(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// ResourceRecord is a resource record as printed by the capture tool.
type ResourceRecord struct {
	// Name is the owner name, including the trailing dot.
	Name string

	// CacheFlush is the mDNS cache-flush bit.
	CacheFlush bool

	// TTL is the time to live in seconds.
	TTL uint32

	// RData is the record type followed by the record data (e.g., "A 192.168.3.3").
	RData string
}

// Type returns the record type mnemonic, i.e., the first rdata token.
func (rr ResourceRecord) Type() string {
	typ, _, _ := strings.Cut(rr.RData, " ")
	return typ
}

// TypeCode returns the numeric record type, or [dns.TypeNone] if the
// mnemonic is unknown. Besides the usual mnemonics, it understands the
// "Type65" form the capture tool prints for types it cannot name.
func (rr ResourceRecord) TypeCode() uint16 {
	typ := strings.ToUpper(rr.Type())
	if code, found := dns.StringToType[typ]; found {
		return code
	}
	if digits, found := strings.CutPrefix(typ, "TYPE"); found {
		if code, err := strconv.ParseUint(digits, 10, 16); err == nil {
			return uint16(code)
		}
	}
	return dns.TypeNone
}

// ParseTTL converts the capture tool's TTL shorthand (e.g., "1h2m") into
// seconds. Each unit is optional and defaults to zero, so "2m" is 120,
// "1h2m" is 3720 and the empty string is 0.
func ParseTTL(s string) (uint32, error) {
	m := ttlRegexp.FindStringSubmatch(s)
	if m == nil {
		return 0, newInputError(ErrResourceRecordParse, s, "invalid TTL")
	}
	var total uint64
	for idx, unit := range []uint64{86400, 3600, 60, 1} {
		if m[idx+1] == "" {
			continue
		}
		v, err := strconv.ParseUint(m[idx+1], 10, 32)
		if err != nil {
			return 0, newInputError(ErrResourceRecordParse, s, "invalid TTL")
		}
		total += v * unit
	}
	if total > 1<<32-1 {
		return 0, newInputError(ErrResourceRecordParse, s, "TTL overflow")
	}
	return uint32(total), nil
}

// ParseResourceRecord parses a single resource-record segment.
func ParseResourceRecord(segment string) (ResourceRecord, error) {
	text := strings.TrimSpace(segment)
	m := rrRegexp.FindStringSubmatch(text)
	if m == nil {
		return ResourceRecord{}, newInputError(ErrResourceRecordParse, segment, "")
	}
	ttl, err := ParseTTL(m[3])
	if err != nil {
		return ResourceRecord{}, err
	}
	rr := ResourceRecord{
		Name:       m[1],
		CacheFlush: m[2] != "",
		TTL:        ttl,
		RData:      m[4],
	}
	if rr.TypeCode() == dns.TypeNone {
		return ResourceRecord{}, newInputError(ErrResourceRecordParse, segment, "unknown record type")
	}
	return rr, nil
}

// parseRecordList parses a comma-separated list of resource records. A
// blank list yields no records.
func parseRecordList(text string) ([]ResourceRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var out []ResourceRecord
	for _, segment := range strings.Split(text, ",") {
		rr, err := ParseResourceRecord(segment)
		if err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, nil
}
