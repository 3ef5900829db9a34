// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"io"

	"gopkg.in/yaml.v3"
)

// dumpIndent is the indentation of the canonical dump.
const dumpIndent = 4

// DumpMessage returns the canonical key-value form of msg.
//
// Timestamps are replaced by their symbolic label, when set, and lengths
// by their canonical bucket, when set. Map keys are sorted when encoded.
func DumpMessage(msg Message) map[string]any {
	switch m := msg.(type) {
	case *Query:
		out := map[string]any{
			"udp": dumpUDP(m.UDP),
			"qr":  "query",
			"q":   dumpQuestions(m.Questions),
			"ns":  dumpRecords(m.Authorities),
		}
		if len(m.Additionals) > 0 {
			out["ar"] = dumpRecords(m.Additionals)
		}
		return out
	case *Response:
		return map[string]any{
			"udp": dumpUDP(m.UDP),
			"qr":  "response",
			"an":  dumpRecords(m.Answers),
			"ns":  dumpRecords(m.Authorities),
			"ar":  dumpRecords(m.Additionals),
		}
	default:
		return map[string]any{}
	}
}

func dumpPacket(p *PacketRecord) map[string]any {
	var t any = p.Seconds()
	if label := p.Label(); label != "" {
		t = label
	}
	return map[string]any{
		"t":        t,
		"v":        p.Version,
		"ttl":      p.TTL,
		"protocol": p.Protocol,
	}
}

func dumpUDP(u *UDPRecord) map[string]any {
	var length any = u.Length
	if bucket := u.LengthBucket(); bucket != "" {
		length = bucket
	}
	return map[string]any{
		"packet":    dumpPacket(u.Packet),
		"src_ip":    u.SrcIP,
		"src_port":  u.SrcPort,
		"dest_ip":   u.DstIP,
		"dest_port": u.DstPort,
		"length":    length,
	}
}

func dumpQuestions(questions []Question) []any {
	out := []any{}
	for _, q := range questions {
		unicast := "M"
		if q.Unicast {
			unicast = "U"
		}
		out = append(out, map[string]any{
			"type":    q.Type,
			"unicast": unicast,
			"name":    q.Name,
		})
	}
	return out
}

func dumpRecords(records []ResourceRecord) []any {
	out := []any{}
	for _, rr := range records {
		out = append(out, map[string]any{
			"name":  rr.Name,
			"flush": rr.CacheFlush,
			"ttl":   rr.TTL,
			"rdata": rr.RData,
		})
	}
	return out
}

// WriteDump writes the canonical dump of msgs to w as a YAML sequence.
func WriteDump(w io.Writer, msgs []Message) error {
	docs := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		docs = append(docs, DumpMessage(msg))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(dumpIndent)
	if err := enc.Encode(docs); err != nil {
		return err
	}
	return enc.Close()
}

// WriteTranscript writes the canonical dump of a verified transcript to w.
func WriteTranscript(w io.Writer, tr *Transcript) error {
	return WriteDump(w, tr.Messages())
}
