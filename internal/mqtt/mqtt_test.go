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

package mqtt

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithEmptyHostIsNoOp(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := New("", 0, "dstargateway", "", "", log)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		p.Publish(TopicStatus, StatusPayload{Repeater: "W1AAA", Band: "A", State: "Idle"})
	})
	assert.NotPanics(t, p.Close)
}
