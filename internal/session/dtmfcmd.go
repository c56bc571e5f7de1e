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

package session

import (
	"strconv"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
)

// parseLinkCommand parses the dtmf package's canonical "DCSxxxML"
// string into the reflector callsign and module it names. The grammar
// always canonicalizes to a DCS-dialect target (§8 scenarios 1/2 both
// decode to "DCS018DL").
func parseLinkCommand(cmd string) (dstarconst.Callsign, bool) {
	if len(cmd) != 8 || cmd[:3] != "DCS" || cmd[7] != 'L' {
		return dstarconst.Callsign{}, false
	}
	if _, err := strconv.Atoi(cmd[3:6]); err != nil {
		return dstarconst.Callsign{}, false
	}
	return dstarconst.PadCallsign("DCS"+cmd[3:6], cmd[6]), true
}
