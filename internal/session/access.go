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

import "github.com/dstargateway/dstargateway/internal/callsignlist"

// AccessControl holds the three lists of §4.5 "Access control" and
// evaluates them in the documented order: restrict > black > white.
type AccessControl struct {
	Whitelist *callsignlist.List // allow-only: if non-empty, membership is required
	Blacklist *callsignlist.List // deny entirely
	Restrict  *callsignlist.List // deny outbound only
}

// Allowed reports whether call may participate in a transmission.
// outbound distinguishes a transmission leaving this gateway (subject
// to Restrict) from one merely being received.
func (a AccessControl) Allowed(call string, outbound bool) bool {
	if outbound && a.Restrict.Contains(call) {
		return false
	}
	if a.Blacklist.Contains(call) {
		return false
	}
	if a.Whitelist.Len() > 0 && !a.Whitelist.Contains(call) {
		return false
	}
	return true
}
