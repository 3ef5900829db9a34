// SPDX-License-Identifier: GPL-3.0-or-later

// Package mdnstrace parses textual mDNS packet captures and verifies
// that they follow the probing, announcing and conflict resolution
// rules of RFC 6762.
//
// The input is the verbose text output of a packet capture tool, read
// line by line through a [LineSource]. Parsing is layered: [ParsePacketHeader]
// decodes the IPv4 or IPv6 header, [ParseUDP] decodes the UDP summary and
// [ParseMessage] decodes the DNS payload into a [*Query] or a [*Response].
// A [*Canonicalizer] then restricts messages to mDNS and normalizes fields
// that do not matter for conformance. [*Reader] composes all these steps.
//
// A [Scenario] consumes canonical messages in input order and checks them
// against a fixed interaction pattern, including the delay windows in
// [Timing]. On success it returns a [*Transcript] whose timestamps are
// replaced by symbolic labels, such that [WriteTranscript] emits a dump
// that does not depend on when the capture was taken.
//
// Every failure is fatal and is reported using the sentinel errors of this
// package, possibly wrapped by [*InputError], [*CountError], [*TimingError]
// or [*RoleError] to provide context.
//
// This package does not implement a DNS parser for wire-format messages. We
// use [github.com/miekg/dns] where we need wire-format record data.
package mdnstrace
