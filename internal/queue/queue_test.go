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

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTryPushPop(t *testing.T) {
	q := New[int](2)
	assert.NoError(t, q.TryPush(1))
	assert.NoError(t, q.TryPush(2))
	assert.ErrorIs(t, q.TryPush(3), ErrFull)

	v, ok := q.TryPop()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	assert.NoError(t, q.TryPush(3))

	v, ok = q.TryPop()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestDrain(t *testing.T) {
	q := New[string](4)
	_ = q.TryPush("a")
	_ = q.TryPush("b")
	assert.Equal(t, 2, q.Drain())
	assert.Equal(t, 0, q.Len())
}

func TestPushExit(t *testing.T) {
	q := New[int](1)
	require := assert.New(t)
	require.NoError(q.TryPush(1))

	exit := make(chan struct{})
	close(exit)
	ok := q.Push(2, exit)
	require.False(ok)
}
