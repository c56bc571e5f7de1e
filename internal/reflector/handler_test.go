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

package reflector

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForEvent(t *testing.T, h *Handler, kind EventKind) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := h.Poll(10 * time.Millisecond)
		for _, e := range events {
			if e.Kind == kind {
				return events
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for event %s", kind)
	return nil
}

func TestHandlerLinkHandshakeDCS(t *testing.T) {
	own := dstarconst.GatewayCallsign("TESTGW")
	peerCall := dstarconst.GatewayCallsign("TESTRF")

	client, err := New(DCS(), own, discardLogger())
	require.NoError(t, err)
	defer client.Close()

	peer, err := New(DCS(), peerCall, discardLogger())
	require.NoError(t, err)
	defer peer.Close()

	peerAddr := peer.conn.LocalAddr().(*net.UDPAddr)
	require.NoError(t, client.Link(peerAddr, 'A'))

	// The peer echoes the request back as acceptance, same as the
	// reflector-side ack in a real DCS handshake.
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if pkt, ok := peer.recv.TryPop(); ok {
				_, _ = peer.conn.WriteToUDP(pkt, client.conn.LocalAddr().(*net.UDPAddr))
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	waitForEvent(t, client, LinkedOk)
	assert.Equal(t, "Linked", client.State())
}

func TestHandlerLinkTimeoutProducesLinkedFail(t *testing.T) {
	own := dstarconst.GatewayCallsign("TESTGW")
	client, err := New(DCS(), own, discardLogger())
	require.NoError(t, err)
	defer client.Close()

	unreachable, err := New(DCS(), dstarconst.GatewayCallsign("NOBODY"), discardLogger())
	require.NoError(t, err)
	addr := unreachable.conn.LocalAddr()
	require.NoError(t, unreachable.Close())

	require.NoError(t, client.Link(addr.(*net.UDPAddr), 'A'))

	var gotFail bool
	for _, e := range client.Poll(31 * time.Second) {
		if e.Kind == LinkedFail {
			gotFail = true
		}
	}
	assert.True(t, gotFail)
	assert.Equal(t, "Idle", client.State())
}
