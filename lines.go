// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"bufio"
	"io"
)

// LineSource supplies trace lines, one per call, in input order.
//
// ReadLine returns [io.EOF] once the input is exhausted. Sources are
// single pass: there is no way to push a line back.
type LineSource interface {
	ReadLine() (string, error)
}

// maxLineSize bounds the length of a single trace line. Responses
// carrying many records produce long lines.
const maxLineSize = 1 << 20

// ScannerSource is a [LineSource] reading from an [io.Reader].
//
// Construct using [NewLineSource].
type ScannerSource struct {
	scanner *bufio.Scanner
}

var _ LineSource = &ScannerSource{}

// NewLineSource returns a [*ScannerSource] reading lines from r.
func NewLineSource(r io.Reader) *ScannerSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &ScannerSource{scanner: scanner}
}

// ReadLine implements [LineSource].
func (s *ScannerSource) ReadLine() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// SliceSource is a [LineSource] over in-memory lines.
type SliceSource struct {
	lines []string
	next  int
}

var _ LineSource = &SliceSource{}

// NewSliceSource returns a [*SliceSource] yielding lines in order.
func NewSliceSource(lines ...string) *SliceSource {
	return &SliceSource{lines: lines}
}

// ReadLine implements [LineSource].
func (s *SliceSource) ReadLine() (string, error) {
	if s.next >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.next]
	s.next++
	return line, nil
}
