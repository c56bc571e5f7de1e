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

package aprs

import (
	"bufio"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dstargateway/dstargateway/internal/queue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSenderLogsInAndDeliversQueuedFrame(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		login, _ := reader.ReadString('\n')
		if !strings.HasPrefix(login, "user W1AAA pass ") {
			return
		}
		_, _ = conn.Write([]byte("# logresp W1AAA verified\r\n"))
		frame, _ := reader.ReadString('\n')
		received <- strings.TrimSpace(frame)
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	s := New(host, port, "W1AAA", "12345", discardLogger())
	go s.Run()
	defer s.Stop()

	s.Enqueue("W1AAA>APDST,TCPIP*:>test status")

	select {
	case frame := <-received:
		require.Equal(t, "W1AAA>APDST,TCPIP*:>test status", frame)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for APRS-IS server to receive frame")
	}
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	s := &Sender{log: discardLogger(), queue: queue.New[string](queueDepth)}
	for i := 0; i < queueDepth; i++ {
		s.Enqueue("frame")
	}
	require.NotPanics(t, func() { s.Enqueue("one more") })
}
