// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseIPv4Header(t *testing.T) {
	packet, err := ParseIPv4Header(
		"00:00:00.750896 IP (tos 0x0, ttl 38, id 41334, offset 0, flags [none], proto UDP (17), length 473)")
	require.NoError(t, err)
	require.Equal(t, 750896*time.Microsecond, packet.Time)
	require.Equal(t, 0.750896, packet.Seconds())
	require.Equal(t, 4, packet.Version)
	require.Equal(t, 38, packet.TTL)
	require.Equal(t, "UDP", packet.Protocol)
	require.Equal(t, 17, packet.ProtocolNumber)
	require.True(t, packet.IsUDP())
	require.Empty(t, packet.Label())
}

func TestParseIPv6Header(t *testing.T) {
	packet, body, err := ParseIPv6Header(
		"00:00:01.954885 IP6 (hlim 255, next-header UDP (17) payload length: 126) fe80::1.mdns > ff02::fb.mdns: [udp sum ok] 0 [1n] ANY (QU)? x.local. ns: x.local. [2m] AAAA fe80::1 (118)  ")
	require.NoError(t, err)
	require.Equal(t, time.Second+954885*time.Microsecond, packet.Time)
	require.Equal(t, 6, packet.Version)
	require.Equal(t, 255, packet.TTL)
	require.Equal(t, "UDP", packet.Protocol)
	require.Equal(t, "fe80::1.mdns > ff02::fb.mdns: [udp sum ok] 0 [1n] ANY (QU)? x.local. ns: x.local. [2m] AAAA fe80::1 (118)", body)
}

func TestParseClock(t *testing.T) {
	d, err := parseClock("01", "02", "03", "000004")
	require.NoError(t, err)
	require.Equal(t, time.Hour+2*time.Minute+3*time.Second+4*time.Microsecond, d)
}

func TestParsePacketHeader(t *testing.T) {
	const (
		header = "00:00:00.250000 IP (tos 0x0, ttl 255, id 0, offset 0, flags [DF], proto UDP (17), length 89)"
		body   = "    192.168.3.3.mdns > 224.0.0.251.mdns: [udp sum ok] 0 [1n] ANY (QU)? a.local. ns: a.local. [2m] A 192.168.3.3 (61)"
	)

	tests := []struct {
		name     string
		lines    []string
		wantBody string
		wantErr  error
	}{
		{
			name:     "IPv4HeaderAndBody",
			lines:    []string{header, body},
			wantBody: "192.168.3.3.mdns > 224.0.0.251.mdns: [udp sum ok] 0 [1n] ANY (QU)? a.local. ns: a.local. [2m] A 192.168.3.3 (61)",
		},

		{
			name:    "EmptyInput",
			lines:   nil,
			wantErr: io.EOF,
		},

		{
			name:    "MissingBody",
			lines:   []string{header},
			wantErr: ErrEndOfTrace,
		},

		{
			name:    "MalformedHeader",
			lines:   []string{"00:00:00.250000 ARP, Request who-has 192.168.3.1 tell 192.168.3.3"},
			wantErr: ErrMalformedHeader,
		},

		{
			name:    "TruncatedMicroseconds",
			lines:   []string{"00:00:00.25 IP (tos 0x0, ttl 255, id 0, offset 0, flags [DF], proto UDP (17), length 89)", body},
			wantErr: ErrMalformedHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packet, gotBody, err := ParsePacketHeader(NewSliceSource(tt.lines...))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, packet)
				return
			}
			require.NoError(t, err)
			require.Equal(t, 250*time.Millisecond, packet.Time)
			require.Equal(t, tt.wantBody, gotBody)
		})
	}
}

func TestParsePacketHeaderIsDeterministic(t *testing.T) {
	lines := (&traceBuilder{}).probe(ms(500), greaterHost, hostName).lines
	first, firstBody, err := ParsePacketHeader(NewSliceSource(lines...))
	require.NoError(t, err)
	second, secondBody, err := ParsePacketHeader(NewSliceSource(lines...))
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, firstBody, secondBody)
}

func TestPacketRecordIsUDP(t *testing.T) {
	require.True(t, (&PacketRecord{ProtocolNumber: 17}).IsUDP())
	require.False(t, (&PacketRecord{Protocol: "TCP", ProtocolNumber: 6}).IsUDP())
}
