// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

// rdataOffset is where rdata starts in a packed record owned by the root.
const rdataOffset = 1 + 2 + 2 + 4 + 2

// CompareProposals compares the records two probing hosts propose for
// the same name and returns -1, 0 or +1 like [cmp.Compare]. The host
// whose proposal compares greater wins the conflict.
//
// Records compare by class, then by type, then by raw rdata bytes.
// When either record cannot be expressed in zone-file syntax, the rdata
// texts compare lexicographically instead.
func CompareProposals(a, b ResourceRecord) int {
	ra, errA := proposalRR(a)
	rb, errB := proposalRR(b)
	if errA != nil || errB != nil {
		return strings.Compare(a.RData, b.RData)
	}
	if c := cmp.Compare(ra.Header().Class, rb.Header().Class); c != 0 {
		return c
	}
	if c := cmp.Compare(ra.Header().Rrtype, rb.Header().Rrtype); c != 0 {
		return c
	}
	da, errA := packedRData(ra)
	db, errB := packedRData(rb)
	if errA != nil || errB != nil {
		return strings.Compare(a.RData, b.RData)
	}
	return bytes.Compare(da, db)
}

// proposalRR converts rr into a [dns.RR] owned by the root, since the
// owner name is the same for both proposals and does not matter.
func proposalRR(rr ResourceRecord) (dns.RR, error) {
	parsed, err := dns.NewRR(fmt.Sprintf(". %d IN %s", rr.TTL, rr.RData))
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, newInputError(ErrResourceRecordParse, rr.RData, "empty rdata")
	}
	return parsed, nil
}

func packedRData(rr dns.RR) ([]byte, error) {
	buf := make([]byte, dns.MaxMsgSize)
	off, err := dns.PackRR(rr, buf, 0, nil, false)
	if err != nil {
		return nil, err
	}
	return buf[rdataOffset:off], nil
}

// CanonicalName returns the case-insensitive, fully qualified ASCII form
// of name, for comparing names across probes.
func CanonicalName(name string) string {
	if ascii, err := idna.Punycode.ToASCII(name); err == nil {
		name = ascii
	}
	return dns.CanonicalName(name)
}

// SameName returns whether a and b are the same name once canonicalized.
func SameName(a, b string) bool {
	return CanonicalName(a) == CanonicalName(b)
}
