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

// Package session implements the Repeater Handler of §4.5: one
// instance per configured band, owning the link state machine, the
// routing decision for each incoming header, DTMF command
// interpretation, and access control. Grounded on the transition table
// of §4.5 and on the auth-state-machine shape of client/client.go,
// generalized from a single Homebrew login sequence to the gateway's
// seven-state link machine.
package session

// State is one of the seven states §4.5 names.
type State int

const (
	Idle State = iota
	Receiving
	Transmitting
	Linking
	Linked
	Relinking
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Receiving:
		return "Receiving"
	case Transmitting:
		return "Transmitting"
	case Linking:
		return "Linking"
	case Linked:
		return "Linked"
	case Relinking:
		return "Relinking"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}
