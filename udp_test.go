// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalPort(t *testing.T) {
	tests := []struct {
		port string
		want string
	}{
		{"mdns", PortMDNS},
		{"dns", PortDNS},
		{"domain", PortDNS},
		{"5353", PortMDNS},
		{"53", PortDNS},
		{"http", PortOther},
		{"49152", PortOther},
		{"x", PortOther},
	}
	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			require.Equal(t, tt.want, CanonicalPort(tt.port))
		})
	}
}

func TestParseUDP(t *testing.T) {
	udpPacket := &PacketRecord{Version: 4, Protocol: "UDP", ProtocolNumber: 17}

	t.Run("IPv4", func(t *testing.T) {
		udp, payload, err := ParseUDP(udpPacket,
			"192.168.3.3.mdns > 224.0.0.251.mdns: [udp sum ok] 0*- [0q] 1/0/0 a.local. [2m] A 192.168.3.3 (61)")
		require.NoError(t, err)
		require.Same(t, udpPacket, udp.Packet)
		require.Equal(t, "192.168.3.3", udp.SrcIP)
		require.Equal(t, PortMDNS, udp.SrcPort)
		require.Equal(t, "224.0.0.251", udp.DstIP)
		require.Equal(t, PortMDNS, udp.DstPort)
		require.Equal(t, "udp sum ok", udp.Flags)
		require.True(t, udp.ChecksumOK())
		require.Equal(t, 61, udp.Length)
		require.Empty(t, udp.LengthBucket())
		require.Equal(t, "0*- [0q] 1/0/0 a.local. [2m] A 192.168.3.3", payload)
	})

	t.Run("IPv6WithNumericPorts", func(t *testing.T) {
		udp, _, err := ParseUDP(udpPacket,
			"fe80::1.5353 > ff02::fb.5353: [bad udp cksum 0x1234 -> 0x5678!] 0 [1n] ANY (QU)? a.local. ns: a.local. [2m] AAAA fe80::1 (70)")
		require.NoError(t, err)
		require.Equal(t, "fe80::1", udp.SrcIP)
		require.Equal(t, "ff02::fb", udp.DstIP)
		require.Equal(t, PortMDNS, udp.SrcPort)
		require.Equal(t, PortMDNS, udp.DstPort)
		require.False(t, udp.ChecksumOK())
	})

	t.Run("OtherPortsAreCanonicalized", func(t *testing.T) {
		udp, _, err := ParseUDP(udpPacket,
			"192.168.3.3.mdns > 192.168.3.10.49152: [udp sum ok] 0*- [0q] 1/0/0 a.local. [2m] A 192.168.3.3 (61)")
		require.NoError(t, err)
		require.Equal(t, PortOther, udp.DstPort)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, _, err := ParseUDP(udpPacket, "192.168.3.3.mdns > 224.0.0.251.mdns: 0 [1n] (61)")
		require.ErrorIs(t, err, ErrMalformedUDP)
	})

	t.Run("NotUDP", func(t *testing.T) {
		tcpPacket := &PacketRecord{Version: 4, Protocol: "TCP", ProtocolNumber: 6}
		_, _, err := ParseUDP(tcpPacket, "192.168.3.3.22 > 192.168.3.1.50000: Flags [P.], length 36")
		require.ErrorIs(t, err, ErrMalformedUDP)
	})
}
