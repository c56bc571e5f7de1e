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
	"github.com/dstargateway/dstargateway/internal/dstarconst"
)

// icomHeaderLen/icomFrameLen are plausible sizes for the Icom
// repeater-side UDP framing: a fixed prefix plus the 39-byte header
// payload shared with the reflector wire encoding (internal/reflector
// uses the same layout for DExtra/DPlus), and a small frame envelope
// around the 12-byte AMBE+data payload.
const (
	icomPrefixLen = 4
	icomHeaderLen = icomPrefixLen + 39
	icomFrameLen  = icomPrefixLen + 1 + dstarconst.FrameSize
)

var icomMagic = [4]byte{'I', 'C', 'O', 'M'}

// Icom returns the Descriptor for the Icom repeater UDP protocol.
func Icom() Descriptor {
	return Descriptor{
		Name:      "Icom",
		HeaderLen: icomHeaderLen,
		FrameLen:  icomFrameLen,
		ParseHeader: func(b []byte) (dstarconst.Header, bool) {
			if !hasMagic(b, icomMagic) {
				return dstarconst.Header{}, false
			}
			return decodeHeader(b[icomPrefixLen:])
		},
		ParseFrame: func(b []byte) ([12]byte, bool, bool) {
			if !hasMagic(b, icomMagic) {
				return [12]byte{}, false, false
			}
			var data [12]byte
			copy(data[:], b[icomPrefixLen+1:])
			end := b[icomPrefixLen] != 0
			return data, end, true
		},
		BuildHeader: func(hdr dstarconst.Header) []byte {
			out := make([]byte, 0, icomHeaderLen)
			out = append(out, icomMagic[:]...)
			out = append(out, encodeHeader(hdr)...)
			return out
		},
		BuildFrame: func(data [12]byte, end bool) []byte {
			out := make([]byte, 0, icomFrameLen)
			out = append(out, icomMagic[:]...)
			if end {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
			out = append(out, data[:]...)
			return out
		},
	}
}

func hasMagic(b []byte, magic [4]byte) bool {
	return len(b) >= 4 && b[0] == magic[0] && b[1] == magic[1] && b[2] == magic[2] && b[3] == magic[3]
}

// encodeHeader/decodeHeader mirror internal/reflector/wire.go's
// 39-byte layout (flags+mycall+mycallext+urcall+rpt1+rpt2), reused
// here since both sides of the gateway carry the same Header struct.
func encodeHeader(hdr dstarconst.Header) []byte {
	b := make([]byte, 39)
	copy(b[0:3], hdr.Flags[:])
	copy(b[3:11], hdr.MyCall[:])
	copy(b[11:15], hdr.MyCallExt[:])
	copy(b[15:23], hdr.URCall[:])
	copy(b[23:31], hdr.RPT1[:])
	copy(b[31:39], hdr.RPT2[:])
	return b
}

func decodeHeader(b []byte) (dstarconst.Header, bool) {
	if len(b) < 39 {
		return dstarconst.Header{}, false
	}
	var hdr dstarconst.Header
	copy(hdr.Flags[:], b[0:3])
	copy(hdr.MyCall[:], b[3:11])
	copy(hdr.MyCallExt[:], b[11:15])
	copy(hdr.URCall[:], b[15:23])
	copy(hdr.RPT1[:], b[23:31])
	copy(hdr.RPT2[:], b[31:39])
	return hdr, true
}
