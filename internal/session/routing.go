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

import "github.com/dstargateway/dstargateway/internal/dstarconst"

// RouteKind classifies an incoming header's urCall per §4.5 "Routing
// rule (outbound)".
type RouteKind int

const (
	RouteCommand  RouteKind = iota // unlink/relink/link command; voice not forwarded
	RouteCallsign                  // "/CALLSIGN" direct routing via IRCDDB
	RouteReflector                 // CQCQCQ: forward to the currently linked peer
	RouteNone                      // no applicable route; voice is not forwarded
)

// Route is the result of classifying a header's urCall.
type Route struct {
	Kind   RouteKind
	Target string // for RouteCallsign, the callsign to resolve (the urCall base after the '/', at most 6 chars, no module)
}

// ClassifyRoute implements §4.5's three routing cases.
func ClassifyRoute(urCall dstarconst.Callsign) Route {
	switch {
	case dstarconst.IsUnlinkCommand(urCall), dstarconst.IsLinkCommand(urCall), dstarconst.IsRelinkCommand(urCall):
		return Route{Kind: RouteCommand}
	case dstarconst.IsCallsignRoute(urCall):
		return Route{Kind: RouteCallsign, Target: urCall.Base()[1:]}
	case dstarconst.IsCQCQCQ(urCall):
		return Route{Kind: RouteReflector}
	default:
		return Route{Kind: RouteNone}
	}
}
