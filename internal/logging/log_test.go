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

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuppressingHandlerPassesThroughUpToThreshold(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, nil)
	h := NewSuppressingHandler(base, 3)
	logger := slog.New(h)

	for i := 0; i < 3; i++ {
		logger.Warn("peer silent", "addr", "203.0.113.1")
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
}

func TestSuppressingHandlerSummarizesAfterThreshold(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, nil)
	h := NewSuppressingHandler(base, 2)
	logger := slog.New(h)

	for i := 0; i < 5; i++ {
		logger.Warn("peer silent", "addr", "203.0.113.1")
	}
	logger.Warn("peer different", "addr", "203.0.113.2")

	out := buf.String()
	assert.Contains(t, out, "repeated=3")
	assert.Contains(t, out, "peer different")
}

func TestSuppressingHandlerResetsOnDifferentMessage(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, nil)
	h := NewSuppressingHandler(base, 1)
	logger := slog.New(h)

	logger.Warn("a")
	logger.Warn("b")
	logger.Warn("b")

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "msg=b"))
}

func TestEnabledDelegatesToWrappedHandler(t *testing.T) {
	base := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	h := NewSuppressingHandler(base, 3)
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}
