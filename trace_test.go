// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"fmt"
	"testing"
	"time"

	"github.com/bassosimone/runtimex"
)

// Addresses and names used by the test traces.
const (
	lesserHost  = "192.168.3.2"
	greaterHost = "192.168.3.3"
	ownerHost   = "192.168.3.4"
	mdnsGroup   = "224.0.0.251"
	hostName    = "mirage-mdns.local."
	renamedName = "mirage-mdns-2.local."
)

// clock formats d the way the capture tool prints timestamps.
func clock(d time.Duration) string {
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	us := (d % time.Second) / time.Microsecond
	return fmt.Sprintf("%02d:%02d:%02d.%06d", h, m, s, us)
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func probePayload(name, addr string) string {
	return fmt.Sprintf("0 [1n] ANY (QU)? %s ns: %s [2m] A %s", name, name, addr)
}

func announcePayload(name, addr string) string {
	return fmt.Sprintf("0*- [0q] 1/0/0 %s (Cache flush) [2m] A %s", name, addr)
}

// traceBuilder builds IPv4 traces in the capture tool format.
type traceBuilder struct {
	lines []string
}

func (b *traceBuilder) add(at time.Duration, src, dst, payload string) *traceBuilder {
	b.lines = append(b.lines,
		fmt.Sprintf("%s IP (tos 0x0, ttl 255, id 0, offset 0, flags [DF], proto UDP (17), length 89)", clock(at)),
		fmt.Sprintf("    %s.mdns > %s.mdns: [udp sum ok] %s (61)", src, dst, payload),
	)
	return b
}

func (b *traceBuilder) probe(at time.Duration, src, name string) *traceBuilder {
	return b.add(at, src, mdnsGroup, probePayload(name, src))
}

func (b *traceBuilder) announce(at time.Duration, src, name string) *traceBuilder {
	return b.add(at, src, mdnsGroup, announcePayload(name, src))
}

func (b *traceBuilder) reader() *Reader {
	return NewReader(NewSliceSource(b.lines...))
}

// mustMessages reads all the canonical messages in the trace.
func (b *traceBuilder) mustMessages(t *testing.T) []Message {
	t.Helper()
	return runtimex.PanicOnError1(b.reader().ReadAllMDNS())
}

func labels(tr *Transcript) []string {
	var out []string
	for _, step := range tr.Steps {
		out = append(out, step.Label)
	}
	return out
}
