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

import "github.com/dstargateway/dstargateway/internal/dstarconst"

// headerWireLen is the encoded size of a routing Header: flags(3) +
// mycall(8) + mycallext(4) + urcall(8) + rpt1(8) + rpt2(8).
const headerWireLen = 39

// encodeHeader writes hdr into b (which must have at least
// headerWireLen bytes) in the layout shared by every dialect's
// header packet.
func encodeHeader(b []byte, hdr dstarconst.Header) {
	copy(b[0:3], hdr.Flags[:])
	copy(b[3:11], hdr.MyCall[:])
	copy(b[11:15], hdr.MyCallExt[:])
	copy(b[15:23], hdr.URCall[:])
	copy(b[23:31], hdr.RPT1[:])
	copy(b[31:39], hdr.RPT2[:])
}

func decodeHeader(b []byte) dstarconst.Header {
	var hdr dstarconst.Header
	if len(b) < headerWireLen {
		return hdr
	}
	copy(hdr.Flags[:], b[0:3])
	copy(hdr.MyCall[:], b[3:11])
	copy(hdr.MyCallExt[:], b[11:15])
	copy(hdr.URCall[:], b[15:23])
	copy(hdr.RPT1[:], b[23:31])
	copy(hdr.RPT2[:], b[31:39])
	return hdr
}
