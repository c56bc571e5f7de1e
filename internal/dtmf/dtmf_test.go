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

package dtmf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeFrame(sym [4]byte) [9]byte {
	return [9]byte{
		sig[0], sig[1], sig[2], sig[3],
		sig[4] | sym[0],
		sig[5] | sym[1],
		sig[6],
		sig[7] | sym[2],
		sig[8] | sym[3],
	}
}

func symbolBits(c byte) [4]byte {
	for _, s := range symbolTable {
		if s.char == c {
			return s.bits
		}
	}
	panic("unknown symbol")
}

var silenceFrame = [9]byte{}

func decode4(d *Decoder, frame [9]byte, last bool) {
	d.Decode(frame, false)
	d.Decode(frame, false)
	d.Decode(frame, false)
	d.Decode(frame, last)
}

func gap(d *Decoder, n int, end bool) {
	for i := 0; i < n; i++ {
		d.Decode(silenceFrame, end)
	}
}

func TestDecodeReflectorModuleAsNumber(t *testing.T) {
	d := New()
	decode4(d, makeFrame(symbolBits('D')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('0')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('1')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('8')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('0')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('4')), false)
	gap(d, 10, true)

	assert.True(t, d.HasCommand())
	assert.Equal(t, "DCS018DL", d.Translate())
}

func TestDecodeReflectorModuleAsLetter(t *testing.T) {
	d := New()
	decode4(d, makeFrame(symbolBits('D')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('0')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('1')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('8')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('D')), false)
	gap(d, 10, true)

	assert.True(t, d.HasCommand())
	assert.Equal(t, "DCS018DL", d.Translate())
}

func TestDecodeReflectorShortModuleAsLetter(t *testing.T) {
	d := New()
	decode4(d, makeFrame(symbolBits('D')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('1')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('8')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('D')), false)
	gap(d, 10, true)

	assert.True(t, d.HasCommand())
	assert.Equal(t, "DCS018DL", d.Translate())
}

func TestDecodeReflectorShortModuleAsNumber(t *testing.T) {
	d := New()
	decode4(d, makeFrame(symbolBits('D')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('1')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('8')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('0')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('4')), false)
	gap(d, 10, true)

	assert.True(t, d.HasCommand())
	assert.Equal(t, "DCS018DL", d.Translate())
}

func TestNoCommandOnUnrecognizedSequence(t *testing.T) {
	d := New()
	decode4(d, makeFrame(symbolBits('9')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('9')), true)

	assert.False(t, d.HasCommand())
}

func TestResetClearsAccumulatedState(t *testing.T) {
	d := New()
	decode4(d, makeFrame(symbolBits('D')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('1')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('8')), false)
	gap(d, 10, false)
	decode4(d, makeFrame(symbolBits('D')), true)
	assert.True(t, d.HasCommand())

	d.Reset()
	assert.False(t, d.HasCommand())
	assert.Equal(t, "", d.Translate())
}
