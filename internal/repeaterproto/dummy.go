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
	"time"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
)

// Link is the subset of Handler's exported surface the gateway thread
// drives; Dummy implements it without a socket so a band can be
// exercised (and the whole gateway wired end-to-end) without a radio
// attached.
type Link interface {
	WriteHeader(hdr dstarconst.Header) error
	WriteData(data [12]byte, end bool) error
	Poll(dt time.Duration) []Event
	Close() error
}

// Dummy is the "Dummy loopback" protocol of §2 component 7: every
// header/frame written to it is immediately queued as if it had been
// received back from the radio, so a repeater band's session state
// machine can be driven without real hardware.
type Dummy struct {
	pending []Event
}

// NewDummy returns a ready Dummy loopback.
func NewDummy() *Dummy {
	return &Dummy{}
}

func (d *Dummy) WriteHeader(hdr dstarconst.Header) error {
	d.pending = append(d.pending, Event{Kind: HeaderIn, Hdr: hdr})
	return nil
}

func (d *Dummy) WriteData(data [12]byte, end bool) error {
	d.pending = append(d.pending, Event{Kind: DataIn, Data: data, End: end})
	return nil
}

func (d *Dummy) Poll(dt time.Duration) []Event {
	events := d.pending
	d.pending = nil
	return events
}

func (d *Dummy) Close() error { return nil }

var _ Link = (*Handler)(nil)
var _ Link = (*Dummy)(nil)
