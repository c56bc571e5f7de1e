// SPDX-License-Identifier: AGPL-3.0-or-later
// dstargateway - a D-STAR repeater and reflector gateway
// Copyright (C) 2026 dstargateway contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package reflector

import (
	"testing"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHeader() dstarconst.Header {
	return dstarconst.Header{
		MyCall: dstarconst.PadCallsign("G4KLX", 'B'),
		URCall: dstarconst.GatewayCallsign("CQCQCQ"),
		RPT1:   dstarconst.GatewayCallsign("REF001"),
		RPT2:   dstarconst.PadCallsign("REF001", 'G'),
	}
}

func TestDialectHeaderRoundTrip(t *testing.T) {
	for name, desc := range map[string]DialectDescriptor{
		"DExtra": DExtra(),
		"DPlus":  DPlus(),
		"DCS":    DCS(),
		"XLX":    XLX(),
	} {
		t.Run(name, func(t *testing.T) {
			hdr := sampleHeader()
			pkt := desc.BuildHeaderPacket(0x1234, hdr)
			streamID, got, ok := desc.ParseHeaderPacket(pkt)
			require.True(t, ok)
			assert.Equal(t, uint16(0x1234), streamID)
			assert.Equal(t, hdr.MyCall, got.MyCall)
			assert.Equal(t, hdr.URCall, got.URCall)
			assert.Equal(t, hdr.RPT1, got.RPT1)
			assert.Equal(t, hdr.RPT2, got.RPT2)
		})
	}
}

func TestDialectFrameRoundTrip(t *testing.T) {
	for name, desc := range map[string]DialectDescriptor{
		"DExtra": DExtra(),
		"DPlus":  DPlus(),
		"DCS":    DCS(),
		"XLX":    XLX(),
	} {
		t.Run(name, func(t *testing.T) {
			data := [12]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
			pkt := desc.BuildFramePacket(0xABCD, 7, data, false)
			streamID, seq, got, end, ok := desc.ParseFramePacket(pkt)
			require.True(t, ok)
			assert.Equal(t, uint16(0xABCD), streamID)
			assert.Equal(t, 7, seq)
			assert.Equal(t, data, got)
			assert.False(t, end)

			endPkt := desc.BuildFramePacket(0xABCD, 0, [12]byte{}, true)
			_, _, _, end, ok = desc.ParseFramePacket(endPkt)
			require.True(t, ok)
			assert.True(t, end)
		})
	}
}

func TestDCSFrameAndHeaderDatagramsAreDistinguishable(t *testing.T) {
	desc := DCS()
	headerPkt := desc.BuildHeaderPacket(1, sampleHeader())
	_, _, _, _, ok := desc.ParseFramePacket(headerPkt)
	assert.False(t, ok, "a header datagram must not parse as a frame datagram")

	framePkt := desc.BuildFramePacket(1, 0, [12]byte{}, false)
	_, _, ok2 := desc.ParseHeaderPacket(framePkt)
	assert.False(t, ok2, "a frame datagram must not parse as a header datagram")
}
