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

import "github.com/dstargateway/dstargateway/internal/dstarconst"

const (
	homebrewPrefixLen = 4
	homebrewHeaderLen = homebrewPrefixLen + 39
	homebrewFrameLen  = homebrewPrefixLen + 1 + dstarconst.FrameSize
)

var homebrewMagic = [4]byte{'D', 'S', 'V', 'T'}

// Homebrew returns the Descriptor for the Homebrew repeater UDP
// protocol, sharing the same envelope shape as Icom() but with its
// own magic so the two are never cross-decoded.
func Homebrew() Descriptor {
	return Descriptor{
		Name:      "Homebrew",
		HeaderLen: homebrewHeaderLen,
		FrameLen:  homebrewFrameLen,
		ParseHeader: func(b []byte) (dstarconst.Header, bool) {
			if !hasMagic(b, homebrewMagic) {
				return dstarconst.Header{}, false
			}
			return decodeHeader(b[homebrewPrefixLen:])
		},
		ParseFrame: func(b []byte) ([12]byte, bool, bool) {
			if !hasMagic(b, homebrewMagic) {
				return [12]byte{}, false, false
			}
			var data [12]byte
			copy(data[:], b[homebrewPrefixLen+1:])
			end := b[homebrewPrefixLen] != 0
			return data, end, true
		},
		BuildHeader: func(hdr dstarconst.Header) []byte {
			out := make([]byte, 0, homebrewHeaderLen)
			out = append(out, homebrewMagic[:]...)
			out = append(out, encodeHeader(hdr)...)
			return out
		},
		BuildFrame: func(data [12]byte, end bool) []byte {
			out := make([]byte, 0, homebrewFrameLen)
			out = append(out, homebrewMagic[:]...)
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
