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
	"encoding/binary"
	"hash/crc32"
	"time"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
)

// DCS implements the 100-byte combined header+payload datagram with a
// trailing CRC, a 519-byte link request, a 22-byte heartbeat every 1s,
// and a 30s link timeout (§4.4).
func DCS() DialectDescriptor {
	return dcsFamily(dstarconst.DCS)
}

// XLX is wire-identical to DCS; only the room letter A-Z used to pick
// the module at link time differs, which is a Handler.Link(module)
// caller concern rather than a wire difference (§4.4 "wire-identical
// to DCS with the room letter A-Z selecting the module").
func XLX() DialectDescriptor {
	return dcsFamily(dstarconst.XLX)
}

func dcsFamily(dialect dstarconst.Dialect) DialectDescriptor {
	const (
		datagramLen = 100
		linkReqLen  = 519
		heartbeat   = 22
	)

	return DialectDescriptor{
		Dialect:           dialect,
		KeepaliveInterval: time.Second,
		LinkTimeout:       30 * time.Second,

		BuildLinkRequest: func(own dstarconst.Callsign, module byte) []byte {
			b := make([]byte, linkReqLen)
			copy(b, own[:])
			b[8] = module
			return b
		},

		ParseLinkResponse: func(b []byte) (bool, bool) {
			if len(b) != linkReqLen {
				return false, false
			}
			// The peer echoes the request back; byte 8 set to 0xFF marks
			// a refusal, any other value an acceptance.
			return true, b[8] != 0xFF
		},

		BuildUnlink: func(own dstarconst.Callsign) []byte {
			b := make([]byte, linkReqLen)
			copy(b, own[:])
			b[8] = 0
			b[9] = 'U'
			return b
		},

		BuildKeepalive: func(own dstarconst.Callsign) []byte {
			b := make([]byte, heartbeat)
			copy(b, own[:8])
			return b
		},

		IsKeepalive: func(b []byte) bool {
			return len(b) == heartbeat
		},

		BuildHeaderPacket: func(streamID uint16, hdr dstarconst.Header) []byte {
			b := make([]byte, datagramLen)
			binary.BigEndian.PutUint16(b, streamID)
			encodeHeader(b[2:], hdr)
			b[datagramTypeOffset] = datagramTypeHeader
			appendDatagramCRC(b)
			return b
		},

		ParseHeaderPacket: func(b []byte) (uint16, dstarconst.Header, bool) {
			if len(b) != datagramLen || !verifyDatagramCRC(b) || b[datagramTypeOffset] != datagramTypeHeader {
				return 0, dstarconst.Header{}, false
			}
			streamID := binary.BigEndian.Uint16(b)
			hdr := decodeHeader(b[2:])
			return streamID, hdr, true
		},

		BuildFramePacket: func(streamID uint16, seq int, data [12]byte, end bool) []byte {
			b := make([]byte, datagramLen)
			binary.BigEndian.PutUint16(b, streamID)
			flag := byte(seq)
			if end {
				flag |= 0x40
			}
			b[2] = flag
			copy(b[3:15], data[:])
			b[datagramTypeOffset] = datagramTypeVoice
			appendDatagramCRC(b)
			return b
		},

		ParseFramePacket: func(b []byte) (uint16, int, [12]byte, bool, bool) {
			if len(b) != datagramLen || !verifyDatagramCRC(b) || b[datagramTypeOffset] != datagramTypeVoice {
				return 0, 0, [12]byte{}, false, false
			}
			streamID := binary.BigEndian.Uint16(b)
			flag := b[2]
			end := flag&0x40 != 0
			seq := int(flag &^ 0x40)
			var data [12]byte
			copy(data[:], b[3:15])
			return streamID, seq, data, end, true
		},
	}
}

// datagramTypeOffset and its two values distinguish a header datagram
// from a voice datagram; both are covered by the trailing CRC.
const (
	datagramTypeOffset = 97
	datagramTypeHeader = 'H'
	datagramTypeVoice  = 'V'
)

func appendDatagramCRC(b []byte) {
	sum := crc32.ChecksumIEEE(b[:len(b)-2])
	binary.BigEndian.PutUint16(b[len(b)-2:], uint16(sum))
}

func verifyDatagramCRC(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	want := binary.BigEndian.Uint16(b[len(b)-2:])
	got := uint16(crc32.ChecksumIEEE(b[:len(b)-2]))
	return want == got
}
