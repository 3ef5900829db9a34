// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"errors"
	"fmt"
	"time"
)

// Errors emitted while reading and parsing a trace.
var (
	// ErrEndOfTrace means the input ended while more structure was expected.
	ErrEndOfTrace = errors.New("unexpected end of trace")

	// ErrMalformedHeader means a line matches neither the IPv4 nor the IPv6 header grammar.
	ErrMalformedHeader = errors.New("malformed packet header")

	// ErrMalformedUDP means the packet body is not a UDP datagram summary.
	ErrMalformedUDP = errors.New("malformed UDP datagram")

	// ErrMalformedPayload means the payload matches neither the response nor the query grammar.
	ErrMalformedPayload = errors.New("malformed DNS payload")

	// ErrResourceRecordParse means a single resource-record segment does not parse.
	ErrResourceRecordParse = errors.New("cannot parse resource record")

	// ErrSectionCountMismatch means a declared section count differs from the parsed one.
	ErrSectionCountMismatch = errors.New("section count mismatch")

	// ErrProtocolMismatch means the message is not in the required (m)DNS scope.
	ErrProtocolMismatch = errors.New("protocol mismatch")

	// ErrChecksum means the capture tool did not report a valid UDP checksum.
	ErrChecksum = errors.New("bad UDP checksum")
)

// Errors emitted while verifying a scenario.
var (
	// ErrUnexpectedRole means a message does not play the role the scenario expects.
	ErrUnexpectedRole = errors.New("unexpected role")

	// ErrTimingViolation means the delay between two messages is outside its window.
	ErrTimingViolation = errors.New("timing violation")
)

// InputError is a grammar or scope failure on a specific input fragment.
type InputError struct {
	// Err is one of the sentinel errors of this package.
	Err error

	// Input is the offending text.
	Input string

	// Detail optionally explains which rule was violated.
	Detail string
}

func newInputError(err error, input, detail string) *InputError {
	return &InputError{Err: err, Input: input, Detail: detail}
}

// Error implements error.
func (e *InputError) Error() string {
	switch {
	case e.Input == "" && e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Err, e.Detail)
	case e.Input == "":
		return e.Err.Error()
	case e.Detail != "":
		return fmt.Sprintf("%s: %s: %q", e.Err, e.Detail, e.Input)
	default:
		return fmt.Sprintf("%s: %q", e.Err, e.Input)
	}
}

// Unwrap returns the underlying sentinel error.
func (e *InputError) Unwrap() error {
	return e.Err
}

// CountError reports a declared section count that differs from the parsed one.
type CountError struct {
	// Section is the section name: "q", "an", "ns" or "ar".
	Section string

	// Declared is the count printed by the capture tool.
	Declared int

	// Parsed is the number of entries actually parsed.
	Parsed int

	// Input is the offending payload text.
	Input string
}

// Error implements error.
func (e *CountError) Error() string {
	return fmt.Sprintf("%s: %s section declares %d records but %d were parsed: %q",
		ErrSectionCountMismatch, e.Section, e.Declared, e.Parsed, e.Input)
}

// Unwrap returns [ErrSectionCountMismatch].
func (e *CountError) Unwrap() error {
	return ErrSectionCountMismatch
}

// TimingError reports a pair of messages whose delay is outside the expected window.
type TimingError struct {
	// Phase is the scenario phase being checked.
	Phase string

	// First and Second are the timestamps of the two messages.
	First  time.Duration
	Second time.Duration

	// Delay is Second minus First.
	Delay time.Duration

	// Window is the inclusive range Delay should fall within.
	Window Window
}

// Error implements error.
func (e *TimingError) Error() string {
	return fmt.Sprintf("%s: %s: delay %s between t=%s and t=%s not in %s",
		ErrTimingViolation, e.Phase, e.Delay, formatSeconds(e.First), formatSeconds(e.Second), e.Window)
}

// Unwrap returns [ErrTimingViolation].
func (e *TimingError) Unwrap() error {
	return ErrTimingViolation
}

// RoleError reports a message that does not play the expected role.
type RoleError struct {
	// Phase is the scenario phase being checked.
	Phase string

	// Expected is the role the scenario expects.
	Expected Role

	// Got is the role of the observed message.
	Got Role

	// At is the timestamp of the observed message.
	At time.Duration

	// Detail optionally explains the mismatch.
	Detail string
}

// Error implements error.
func (e *RoleError) Error() string {
	s := fmt.Sprintf("%s: %s: expected %s, got %s at t=%s",
		ErrUnexpectedRole, e.Phase, e.Expected, e.Got, formatSeconds(e.At))
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	return s
}

// Unwrap returns [ErrUnexpectedRole].
func (e *RoleError) Unwrap() error {
	return ErrUnexpectedRole
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.6fs", d.Seconds())
}
