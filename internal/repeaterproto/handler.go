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

// Package repeaterproto implements the local-side link to repeater
// hardware (§2 component 7: Icom UDP, Homebrew UDP, Dummy loopback).
// Icom and Homebrew share one generic Handler parameterized by a
// Descriptor (Dummy is a separate socket-free loopback type),
// the same per-dialect-duplication fix §9 Design Notes calls for in
// the Reflector Protocol Handlers, applied here to the local side.
// Wire-exact framing for Icom/Homebrew is out of scope (spec §6:
// "bit-exact per their community specifications, not redefined
// here") — this package provides the plumbing (socket ownership,
// read loop, header/frame decode dispatch) a real Icom/Homebrew codec
// would plug into via Descriptor.
package repeaterproto

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
	"github.com/dstargateway/dstargateway/internal/queue"
)

// EventKind identifies what a Poll call surfaced.
type EventKind int

const (
	HeaderIn EventKind = iota
	DataIn
	PeerTimeout
)

// Event is one unit of radio-side traffic or housekeeping.
type Event struct {
	Kind EventKind
	Hdr  dstarconst.Header
	Data [12]byte
	End  bool
}

// Descriptor parameterizes Handler for one local repeater protocol.
type Descriptor struct {
	Name              string
	HeaderLen         int
	FrameLen          int
	KeepaliveInterval time.Duration
	ParseHeader       func(b []byte) (dstarconst.Header, bool)
	ParseFrame        func(b []byte) (data [12]byte, end bool, ok bool)
	BuildHeader       func(hdr dstarconst.Header) []byte
	BuildFrame        func(data [12]byte, end bool) []byte
}

const recvQueueDepth = 64

// Handler owns one UDP socket bound to the radio side. Unlike
// reflector.Handler it does not dial a single remote peer: it learns
// the current radio's address from the first packet of each
// transmission and replies there (§9 "weak lookup" — peers are
// identified by callsign/address, not an owning pointer).
type Handler struct {
	desc Descriptor
	conn *net.UDPConn
	log  *slog.Logger

	recv     *queue.Queue[[]byte]
	radioAddr *net.UDPAddr
	exit     chan struct{}
}

// New binds a UDP socket on listenAddr (host:port) for this protocol
// and starts its receive goroutine.
func New(desc Descriptor, listenAddr string, log *slog.Logger) (*Handler, error) {
	addr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("repeaterproto %s: resolve listen addr: %w", desc.Name, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("repeaterproto %s: listen: %w", desc.Name, err)
	}
	h := &Handler{
		desc: desc,
		conn: conn,
		log:  log,
		recv: queue.New[[]byte](recvQueueDepth),
		exit: make(chan struct{}),
	}
	go h.readLoop()
	return h, nil
}

func (h *Handler) readLoop() {
	buf := make([]byte, 2048)
	for {
		select {
		case <-h.exit:
			return
		default:
		}
		_ = h.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, addr, err := h.conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		pkt := make([]byte, n)
		copy(pkt, buf[:n])
		h.radioAddr = addr
		if err := h.recv.TryPush(pkt); err != nil {
			h.log.Warn("repeaterproto receive queue full, dropping packet", "protocol", h.desc.Name)
		}
	}
}

// Close releases the socket and stops the receive goroutine.
func (h *Handler) Close() error {
	close(h.exit)
	return h.conn.Close()
}

// WriteHeader sends a header to the last-known radio address.
func (h *Handler) WriteHeader(hdr dstarconst.Header) error {
	if h.radioAddr == nil {
		return fmt.Errorf("repeaterproto %s: no radio address known yet", h.desc.Name)
	}
	_, err := h.conn.WriteToUDP(h.desc.BuildHeader(hdr), h.radioAddr)
	return err
}

// WriteData sends one voice frame to the last-known radio address.
func (h *Handler) WriteData(data [12]byte, end bool) error {
	if h.radioAddr == nil {
		return fmt.Errorf("repeaterproto %s: no radio address known yet", h.desc.Name)
	}
	_, err := h.conn.WriteToUDP(h.desc.BuildFrame(data, end), h.radioAddr)
	return err
}

// Poll drains queued packets, decoding each per the Descriptor, and
// returns the resulting events.
func (h *Handler) Poll(dt time.Duration) []Event {
	var events []Event
	for {
		pkt, ok := h.recv.TryPop()
		if !ok {
			break
		}
		if ev, ok := h.decode(pkt); ok {
			events = append(events, ev)
		}
	}
	return events
}

func (h *Handler) decode(pkt []byte) (Event, bool) {
	if len(pkt) == h.desc.HeaderLen {
		if hdr, ok := h.desc.ParseHeader(pkt); ok {
			return Event{Kind: HeaderIn, Hdr: hdr}, true
		}
	}
	if len(pkt) == h.desc.FrameLen {
		if data, end, ok := h.desc.ParseFrame(pkt); ok {
			return Event{Kind: DataIn, Data: data, End: end}, true
		}
	}
	return Event{}, false
}
