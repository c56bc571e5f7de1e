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

package repeaterproto

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIcomHeaderRoundTrip(t *testing.T) {
	desc := Icom()
	hdr := dstarconst.Header{
		MyCall: dstarconst.PadCallsign("W1AAA", 'A'),
		URCall: dstarconst.URCallCQCQCQ,
		RPT1:   dstarconst.PadCallsign("W1AAA", 'G'),
		RPT2:   dstarconst.PadCallsign("W1AAA", 'A'),
	}
	pkt := desc.BuildHeader(hdr)
	require.Len(t, pkt, icomHeaderLen)
	got, ok := desc.ParseHeader(pkt)
	require.True(t, ok)
	assert.Equal(t, hdr, got)
}

func TestHomebrewFrameRoundTrip(t *testing.T) {
	desc := Homebrew()
	data := [12]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	pkt := desc.BuildFrame(data, true)
	require.Len(t, pkt, homebrewFrameLen)
	got, end, ok := desc.ParseFrame(pkt)
	require.True(t, ok)
	assert.True(t, end)
	assert.Equal(t, data, got)
}

func TestIcomAndHomebrewPacketsAreNotCrossDecodable(t *testing.T) {
	icomPkt := Icom().BuildHeader(dstarconst.Header{})
	_, ok := Homebrew().ParseHeader(icomPkt)
	assert.False(t, ok)
}

func TestHandlerLearnsRadioAddressAndEchoesPacket(t *testing.T) {
	h, err := New(Icom(), "127.0.0.1:0", discardLogger())
	require.NoError(t, err)
	defer h.Close()

	radio, err := net.DialUDP("udp", nil, h.conn.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer radio.Close()

	hdr := dstarconst.Header{MyCall: dstarconst.PadCallsign("W1AAA", 'A'), URCall: dstarconst.URCallCQCQCQ}
	_, err = radio.Write(Icom().BuildHeader(hdr))
	require.NoError(t, err)

	var events []Event
	require.Eventually(t, func() bool {
		events = h.Poll(0)
		return len(events) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, HeaderIn, events[0].Kind)
	assert.Equal(t, hdr.MyCall, events[0].Hdr.MyCall)

	require.NoError(t, h.WriteData([12]byte{9}, false))
}

func TestDummyLoopbackEchoesWrites(t *testing.T) {
	d := NewDummy()
	hdr := dstarconst.Header{MyCall: dstarconst.PadCallsign("W1AAA", 'A')}
	require.NoError(t, d.WriteHeader(hdr))
	require.NoError(t, d.WriteData([12]byte{1}, true))

	events := d.Poll(0)
	require.Len(t, events, 2)
	assert.Equal(t, HeaderIn, events[0].Kind)
	assert.Equal(t, DataIn, events[1].Kind)
	assert.True(t, events[1].End)

	assert.Empty(t, d.Poll(0))
}
