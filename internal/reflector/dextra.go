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
	"time"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
)

// DExtra implements the fixed 56-byte header / 27-byte voice frame
// dialect: 1 s keepalive, 25 s link timeout, handshake is a single
// "XRF..." packet acknowledged with the same magic (§4.4).
func DExtra() DialectDescriptor {
	const (
		magic        = "XRF"
		headerLen    = 56
		voiceFrame   = 27
		linkReqLen   = 11 // magic(3) + callsign(8)
		keepaliveLen = 9  // magic(3) + "PING" style fill(6)
	)

	return DialectDescriptor{
		Dialect:           dstarconst.DExtra,
		KeepaliveInterval: time.Second,
		LinkTimeout:       25 * time.Second,

		BuildLinkRequest: func(own dstarconst.Callsign, module byte) []byte {
			b := make([]byte, linkReqLen)
			copy(b, magic)
			copy(b[3:], own[:])
			b[10] = module
			return b
		},

		ParseLinkResponse: func(b []byte) (bool, bool) {
			if len(b) < 4 || string(b[:3]) != magic {
				return false, false
			}
			// byte 3 of the ack carries accept/reject, matching the
			// single acknowledging-packet handshake §4.4 describes.
			return true, b[3] != 0
		},

		BuildUnlink: func(own dstarconst.Callsign) []byte {
			b := make([]byte, linkReqLen)
			copy(b, magic)
			copy(b[3:], own[:])
			b[10] = 0
			return b
		},

		BuildKeepalive: func(own dstarconst.Callsign) []byte {
			b := make([]byte, keepaliveLen)
			copy(b, magic)
			copy(b[3:], own[:6])
			return b
		},

		IsKeepalive: func(b []byte) bool {
			return len(b) == keepaliveLen && string(b[:3]) == magic
		},

		BuildHeaderPacket: func(streamID uint16, hdr dstarconst.Header) []byte {
			b := make([]byte, headerLen)
			copy(b, "DSVT")
			binary.BigEndian.PutUint16(b[4:], streamID)
			encodeHeader(b[6:], hdr)
			return b
		},

		ParseHeaderPacket: func(b []byte) (uint16, dstarconst.Header, bool) {
			if len(b) != headerLen || string(b[:4]) != "DSVT" {
				return 0, dstarconst.Header{}, false
			}
			streamID := binary.BigEndian.Uint16(b[4:])
			hdr := decodeHeader(b[6:])
			return streamID, hdr, true
		},

		BuildFramePacket: func(streamID uint16, seq int, data [12]byte, end bool) []byte {
			b := make([]byte, voiceFrame)
			copy(b, "DSVT")
			binary.BigEndian.PutUint16(b[4:], streamID)
			b[6] = byte(seq)
			if end {
				b[6] |= 0x40
			}
			copy(b[7:], data[:])
			return b
		},

		ParseFramePacket: func(b []byte) (uint16, int, [12]byte, bool, bool) {
			if len(b) != voiceFrame || string(b[:4]) != "DSVT" {
				return 0, 0, [12]byte{}, false, false
			}
			streamID := binary.BigEndian.Uint16(b[4:])
			end := b[6]&0x40 != 0
			seq := int(b[6] &^ 0x40)
			var data [12]byte
			copy(data[:], b[7:19])
			return streamID, seq, data, end, true
		},
	}
}
