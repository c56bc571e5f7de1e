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

// Package timer implements the monotonic countdown used throughout the
// gateway's state machines, driven by an externally-supplied tick in
// milliseconds rather than wall-clock time (§2.1, §5 Suspension points).
package timer

import "time"

// Timer is a countdown driven by repeated calls to Clock. It does not
// read the wall clock itself, so it behaves identically whether driven
// by a real 1ms ticker or by a test harness feeding synthetic ticks.
type Timer struct {
	duration  time.Duration
	remaining time.Duration
	running   bool
}

// New creates a Timer that is not yet running.
func New() *Timer {
	return &Timer{}
}

// Start (re)starts the timer for the given duration.
func (t *Timer) Start(d time.Duration) {
	t.duration = d
	t.remaining = d
	t.running = true
}

// Stop halts the timer without marking it expired.
func (t *Timer) Stop() {
	t.running = false
}

// Running reports whether the timer is currently counting down.
func (t *Timer) Running() bool {
	return t.running
}

// Clock advances the timer by dt. Once remaining reaches zero the timer
// stays expired (Expired() keeps returning true) until Start is called
// again.
func (t *Timer) Clock(dt time.Duration) {
	if !t.running {
		return
	}
	t.remaining -= dt
	if t.remaining < 0 {
		t.remaining = 0
	}
}

// Expired reports whether the timer has counted down to zero. A timer
// that was never started is not expired.
func (t *Timer) Expired() bool {
	return t.running && t.remaining <= 0
}

// Remaining returns the time left on the timer.
func (t *Timer) Remaining() time.Duration {
	return t.remaining
}
