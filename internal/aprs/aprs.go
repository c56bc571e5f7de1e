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

// Package aprs implements the APRS sender egress queue named in §2
// component 10: an asynchronous, bounded queue of outbound APRS
// frames drained by one worker holding a single APRS-IS TCP
// connection, with APRS itself treated as an external collaborator
// behind this named interface (spec §1, "everything else ... is
// straightforward glue"). Grounded on the bounded-queue/one-worker
// shape of §5's concurrency model and internal/queue.
package aprs

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/dstargateway/dstargateway/internal/queue"
)

const (
	queueDepth  = 256
	dialTimeout = 10 * time.Second
)

// Sender owns the egress queue and the single APRS-IS connection.
type Sender struct {
	addr     string
	passcode string
	callsign string
	log      *slog.Logger

	queue *queue.Queue[string]
	conn  net.Conn
	exit  chan struct{}
}

// New creates a Sender for the given APRS-IS host:port. Call Run in
// its own goroutine to start draining the queue.
func New(host string, port int, callsign, passcode string, log *slog.Logger) *Sender {
	return &Sender{
		addr:     fmt.Sprintf("%s:%d", host, port),
		passcode: passcode,
		callsign: callsign,
		log:      log,
		queue:    queue.New[string](queueDepth),
		exit:     make(chan struct{}),
	}
}

// Enqueue submits a pre-formatted TNC2 APRS frame for delivery.
// Under backpressure the newest frame is dropped (§7 ResourceExhausted
// policy: "drop the newest frame, log a warning rate-limited by
// repeat-suppression").
func (s *Sender) Enqueue(frame string) {
	if err := s.queue.TryPush(frame); err != nil {
		s.log.Warn("APRS egress queue full, dropping frame")
	}
}

// Run connects to the APRS-IS server and drains the queue until
// Stop is called. After a lost session it redials at once; after a
// failed dial it waits dialTimeout before the next attempt.
func (s *Sender) Run() {
	for {
		select {
		case <-s.exit:
			return
		default:
		}

		conn, err := net.DialTimeout("tcp", s.addr, dialTimeout)
		if err != nil {
			s.log.Warn("APRS-IS connection failed, retrying", "error", err)
			select {
			case <-s.exit:
				return
			case <-time.After(dialTimeout):
				continue
			}
		}
		s.conn = conn
		s.runSession(conn)
	}
}

func (s *Sender) runSession(conn net.Conn) {
	defer conn.Close()
	login := fmt.Sprintf("user %s pass %s vers dstargateway 1.0\r\n", s.callsign, s.passcode)
	if _, err := conn.Write([]byte(login)); err != nil {
		s.log.Warn("APRS-IS login write failed", "error", err)
		return
	}
	reader := bufio.NewReader(conn)
	if _, err := reader.ReadString('\n'); err != nil {
		s.log.Warn("APRS-IS login response read failed", "error", err)
		return
	}

	for {
		select {
		case <-s.exit:
			return
		case frame, ok := <-s.queue.Chan():
			if !ok {
				return
			}
			if _, err := conn.Write([]byte(frame + "\r\n")); err != nil {
				s.log.Warn("APRS-IS write failed", "error", err)
				return
			}
		}
	}
}

// Stop halts the sender and closes the active connection.
func (s *Sender) Stop() {
	close(s.exit)
	if s.conn != nil {
		_ = s.conn.Close()
	}
}
