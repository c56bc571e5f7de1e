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

// DPlus implements the DSVT/DSVTHDR text-framed dialect: a login
// callsign sent once on connect, keepalive reuses the same magic as a
// zero-length data frame (§4.4).
func DPlus() DialectDescriptor {
	const (
		hdrMagic  = "DSVTHDR"
		dataMagic = "DSVT"

		headerLen    = len(hdrMagic) + 2 + headerWireLen // magic + streamID + routing header
		voiceFrame   = len(dataMagic) + 2 + 1 + 12        // magic + streamID + seq/end + ambe
		loginLen     = 8 + 8                              // own callsign + login marker
		keepaliveLen = len(dataMagic) + 2                 // magic + zero streamID, no payload
	)

	return DialectDescriptor{
		Dialect:           dstarconst.DPlus,
		KeepaliveInterval: time.Second,
		LinkTimeout:       25 * time.Second,

		BuildLinkRequest: func(own dstarconst.Callsign, _ byte) []byte {
			b := make([]byte, loginLen)
			copy(b, own[:])
			copy(b[8:], "LOGIN   ")
			return b
		},

		ParseLinkResponse: func(b []byte) (bool, bool) {
			if len(b) < 4 {
				return false, false
			}
			tag := string(b[:4])
			if tag != "ACK " && tag != "NAK " {
				return false, false
			}
			return true, tag == "ACK "
		},

		BuildUnlink: func(own dstarconst.Callsign) []byte {
			b := make([]byte, loginLen)
			copy(b, own[:])
			copy(b[8:], "LOGOUT  ")
			return b
		},

		BuildKeepalive: func(_ dstarconst.Callsign) []byte {
			b := make([]byte, keepaliveLen)
			copy(b, dataMagic)
			return b
		},

		IsKeepalive: func(b []byte) bool {
			return len(b) == keepaliveLen && string(b[:len(dataMagic)]) == dataMagic
		},

		BuildHeaderPacket: func(streamID uint16, hdr dstarconst.Header) []byte {
			b := make([]byte, headerLen)
			copy(b, hdrMagic)
			off := len(hdrMagic)
			binary.BigEndian.PutUint16(b[off:], streamID)
			encodeHeader(b[off+2:], hdr)
			return b
		},

		ParseHeaderPacket: func(b []byte) (uint16, dstarconst.Header, bool) {
			if len(b) != headerLen || string(b[:len(hdrMagic)]) != hdrMagic {
				return 0, dstarconst.Header{}, false
			}
			off := len(hdrMagic)
			streamID := binary.BigEndian.Uint16(b[off:])
			hdr := decodeHeader(b[off+2:])
			return streamID, hdr, true
		},

		BuildFramePacket: func(streamID uint16, seq int, data [12]byte, end bool) []byte {
			b := make([]byte, voiceFrame)
			copy(b, dataMagic)
			off := len(dataMagic)
			binary.BigEndian.PutUint16(b[off:], streamID)
			flag := byte(seq)
			if end {
				flag |= 0x40
			}
			b[off+2] = flag
			copy(b[off+3:], data[:])
			return b
		},

		ParseFramePacket: func(b []byte) (uint16, int, [12]byte, bool, bool) {
			if len(b) != voiceFrame || string(b[:len(dataMagic)]) != dataMagic {
				return 0, 0, [12]byte{}, false, false
			}
			off := len(dataMagic)
			streamID := binary.BigEndian.Uint16(b[off:])
			flag := b[off+2]
			end := flag&0x40 != 0
			seq := int(flag &^ 0x40)
			var data [12]byte
			copy(data[:], b[off+3:off+15])
			return streamID, seq, data, end, true
		},
	}
}
