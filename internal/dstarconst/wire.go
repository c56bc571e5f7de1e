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

package dstarconst

import "time"

// Header carries the routing information of a D-STAR transmission's
// first packet (§3 Data Model).
type Header struct {
	StreamID   uint16
	Flags      [3]byte
	MyCall     Callsign
	MyCallExt  [4]byte
	URCall     Callsign
	RPT1       Callsign
	RPT2       Callsign
}

// FrameSize is the size in bytes of one AMBE+data voice frame.
const FrameSize = 12

// SeqMod is the modulus of the per-transmission sequence counter.
const SeqMod = 21

// Special urCall route markers (§4.5 Routing rule). CQCQCQ's module
// byte is itself a space, not a letter.
var (
	URCallUnlink = PadCallsign("", 'U')       // "       U"
	URCallCQCQCQ = PadCallsign("CQCQCQ", ' ') // "CQCQCQ  "
)

// IsLinkCommand reports the "xxxxxxZL" link-to-target form of §4.5
// case 1: byte 7 (module) is 'L' and byte 6 is 'Z'.
func IsLinkCommand(ur Callsign) bool {
	return ur[6] == 'Z' && ur[7] == 'L'
}

// IsRelinkCommand reports the "xxxxxxRL" relink form of §4.5 case 1:
// byte 7 (module) is 'L' and byte 6 is 'R'.
func IsRelinkCommand(ur Callsign) bool {
	return ur[6] == 'R' && ur[7] == 'L'
}

// IsUnlinkCommand reports the "       U" unlink command form.
func IsUnlinkCommand(ur Callsign) bool {
	return ur == URCallUnlink
}

// IsCallsignRoute reports the "/CALLSIGN" direct-routing form (§4.5 case 2).
func IsCallsignRoute(ur Callsign) bool {
	return ur[0] == '/'
}

// IsCQCQCQ reports the reflector-relay form (§4.5 case 3).
func IsCQCQCQ(ur Callsign) bool {
	return ur == URCallCQCQCQ
}

// Standard timer durations referenced throughout §4 and §8.
const (
	TransmissionWatchdog = 2 * time.Second
	LinkingTimeout       = 10 * time.Second
	SilenceKeepaliveTime = 25 * time.Second

	DExtraKeepalive   = 1 * time.Second
	DExtraLinkTimeout = 25 * time.Second

	DCSKeepalive   = 1 * time.Second
	DCSLinkTimeout = 30 * time.Second
)
