// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"errors"
	"io"
)

// Reader reads packets, datagrams and messages from a [LineSource].
//
// Construct using [NewReader].
type Reader struct {
	// Source is the [LineSource] to read from.
	//
	// Set by [NewReader] to the user-provided value.
	Source LineSource

	// Canonicalizer is used by ReadMDNS.
	//
	// Set by [NewReader] to [NewCanonicalizer].
	Canonicalizer *Canonicalizer

	// Logger is the optional [SLogger] to use.
	//
	// Set by [NewReader] to a logger that discards all output.
	Logger SLogger
}

// NewReader returns a new [*Reader] reading from src.
func NewReader(src LineSource) *Reader {
	return &Reader{
		Source:        src,
		Canonicalizer: NewCanonicalizer(),
		Logger:        discardLogger,
	}
}

// ReadPacket reads the next packet and returns it along with its body text.
//
// It returns [io.EOF] when the trace ends at a packet boundary.
func (r *Reader) ReadPacket() (*PacketRecord, string, error) {
	return ParsePacketHeader(r.Source)
}

// ReadDatagram reads the next UDP datagram and returns it along with its payload text.
func (r *Reader) ReadDatagram() (*UDPRecord, string, error) {
	packet, body, err := r.ReadPacket()
	if err != nil {
		return nil, "", err
	}
	return ParseUDP(packet, body)
}

// ReadMessage reads the next DNS or mDNS message.
//
// It returns [io.EOF] when the trace ends at a message boundary.
func (r *Reader) ReadMessage() (Message, error) {
	udp, payload, err := r.ReadDatagram()
	if err != nil {
		return nil, err
	}
	msg, err := ParseMessage(udp, payload)
	if err != nil {
		return nil, err
	}
	loggerOrDiscard(r.Logger).Debug("read message",
		"t", udp.Packet.Seconds(),
		"src", udp.SrcIP,
		"dst", udp.DstIP,
		"role", Classify(msg),
	)
	return msg, nil
}

// ReadMDNS reads the next message and canonicalizes it.
func (r *Reader) ReadMDNS() (Message, error) {
	msg, err := r.ReadMessage()
	if err != nil {
		return nil, err
	}
	canon := r.Canonicalizer
	if canon == nil {
		canon = NewCanonicalizer()
	}
	return canon.Canonicalize(msg)
}

// NextMDNS is like ReadMDNS but treats the end of the trace as an
// error, for callers that expect more messages.
func (r *Reader) NextMDNS() (Message, error) {
	msg, err := r.ReadMDNS()
	if errors.Is(err, io.EOF) {
		return nil, newInputError(ErrEndOfTrace, "", "expected another mDNS message")
	}
	return msg, err
}

// ReadAllMDNS reads and canonicalizes every message until the end of
// the trace.
func (r *Reader) ReadAllMDNS() ([]Message, error) {
	var out []Message
	for {
		msg, err := r.ReadMDNS()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
}
