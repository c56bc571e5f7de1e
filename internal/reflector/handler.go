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

// Package reflector implements the Reflector Protocol Handlers of
// §4.4: one UDP socket + decoder + link/unlink state machine per peer,
// all four dialects (DExtra, DPlus, DCS, XLX) sharing a single generic
// Handler parameterized by a DialectDescriptor instead of four
// near-duplicate implementations. Grounded on the receive-goroutine /
// channel / auth-state-machine shape of client/client.go's Homebrew
// protocol client, generalized to the pull-based poll(dt) interface
// §4.4 specifies.
package reflector

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
	"github.com/dstargateway/dstargateway/internal/queue"
	"github.com/dstargateway/dstargateway/internal/timer"
)

// EventKind identifies one of the six events §4.4 names.
type EventKind int

const (
	LinkedOk EventKind = iota
	LinkedFail
	Unlinked
	Header
	AmbeData
	Timeout
)

func (k EventKind) String() string {
	switch k {
	case LinkedOk:
		return "LinkedOk"
	case LinkedFail:
		return "LinkedFail"
	case Unlinked:
		return "Unlinked"
	case Header:
		return "Header"
	case AmbeData:
		return "AmbeData"
	case Timeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Event is a single occurrence reported by poll. StreamID/Seq/Data/Hdr
// are populated according to Kind.
type Event struct {
	Kind     EventKind
	StreamID uint16
	Seq      int
	Data     [12]byte
	Hdr      dstarconst.Header
	End      bool
}

// linkState is the handler's own small state machine, distinct from
// (and owned independently of) the repeater handler's session state
// machine in §4.5.
type linkState int

const (
	stateIdle linkState = iota
	stateLinking
	stateLinked
)

// DialectDescriptor supplies everything dialect-specific: wire sizes,
// timings, and the encode/decode functions for each packet kind. A
// single Handler generalizes over DExtra/DPlus/DCS/XLX by holding one
// of these (§9 Design Notes: "one generic handler, not four classes").
type DialectDescriptor struct {
	Dialect           dstarconst.Dialect
	KeepaliveInterval time.Duration
	LinkTimeout       time.Duration

	BuildLinkRequest func(own dstarconst.Callsign, module byte) []byte
	// ParseLinkResponse reports whether b is a link response, and if so
	// whether the link was accepted.
	ParseLinkResponse func(b []byte) (isResponse bool, accepted bool)
	BuildUnlink       func(own dstarconst.Callsign) []byte
	BuildKeepalive    func(own dstarconst.Callsign) []byte
	IsKeepalive       func(b []byte) bool

	BuildHeaderPacket func(streamID uint16, hdr dstarconst.Header) []byte
	ParseHeaderPacket func(b []byte) (streamID uint16, hdr dstarconst.Header, ok bool)

	BuildFramePacket func(streamID uint16, seq int, data [12]byte, end bool) []byte
	ParseFramePacket func(b []byte) (streamID uint16, seq int, data [12]byte, end bool, ok bool)
}

// Handler is a generic reflector peer: one UDP socket, one link state
// machine. Its readLoop goroutine only queues inbound packets; decoding,
// timers and events all happen in Poll(dt), on the gateway's
// single-threaded tick.
type Handler struct {
	desc DialectDescriptor
	own  dstarconst.Callsign
	log  *slog.Logger

	conn   *net.UDPConn
	target *net.UDPAddr

	state          linkState
	linkTimeout    *timer.Timer
	keepaliveTimer *timer.Timer

	recv   *queue.Queue[[]byte]
	exit   chan struct{}
	events []Event
}

// recvQueueDepth bounds the inbound packet queue; a reflector peer
// producing faster than the gateway tick drains is a policy violation
// upstream, not something this handler should block on.
const recvQueueDepth = 64

// New binds a UDP socket for this dialect. The socket is not connected
// to target until Link is called.
func New(desc DialectDescriptor, own dstarconst.Callsign, log *slog.Logger) (*Handler, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("reflector: listen: %w", err)
	}
	h := &Handler{
		desc: desc,
		own:  own,
		log:  log,
		conn: conn,
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
		n, err := h.conn.Read(buf)
		if err != nil {
			continue
		}
		pkt := make([]byte, n)
		copy(pkt, buf[:n])
		if err := h.recv.TryPush(pkt); err != nil {
			h.log.Warn("reflector inbound queue full, dropping packet", "dialect", h.desc.Dialect)
		}
	}
}

// Close stops the read loop and releases the socket.
func (h *Handler) Close() error {
	close(h.exit)
	return h.conn.Close()
}

// Link sends the dialect's connect handshake and transitions to
// Linking; poll will report LinkedOk/LinkedFail once the peer answers
// (§4.4).
func (h *Handler) Link(target *net.UDPAddr, module byte) error {
	h.target = target
	h.state = stateLinking
	h.linkTimeout = timer.New()
	h.linkTimeout.Start(h.desc.LinkTimeout)
	h.keepaliveTimer = timer.New()
	h.keepaliveTimer.Start(h.desc.KeepaliveInterval)
	_, err := h.conn.WriteToUDP(h.desc.BuildLinkRequest(h.own, module), target)
	return err
}

// Unlink sends the dialect's unlink datagram and returns to Idle
// immediately; retry policy belongs to the owning repeater handler,
// not this handler (§4.4 "the handler itself does not retry").
func (h *Handler) Unlink() error {
	if h.state == stateIdle || h.target == nil {
		return nil
	}
	_, err := h.conn.WriteToUDP(h.desc.BuildUnlink(h.own), h.target)
	h.state = stateIdle
	h.linkTimeout = nil
	h.keepaliveTimer = nil
	return err
}

// WriteHeader relays a repeater header onto the linked peer.
func (h *Handler) WriteHeader(streamID uint16, hdr dstarconst.Header) error {
	if h.state != stateLinked || h.target == nil {
		return nil
	}
	_, err := h.conn.WriteToUDP(h.desc.BuildHeaderPacket(streamID, hdr), h.target)
	return err
}

// WriteData relays one 12-byte AMBE+data frame.
func (h *Handler) WriteData(streamID uint16, seq int, data [12]byte) error {
	if h.state != stateLinked || h.target == nil {
		return nil
	}
	_, err := h.conn.WriteToUDP(h.desc.BuildFramePacket(streamID, seq, data, false), h.target)
	return err
}

// WriteEnd relays the terminal frame of a stream.
func (h *Handler) WriteEnd(streamID uint16) error {
	if h.state != stateLinked || h.target == nil {
		return nil
	}
	_, err := h.conn.WriteToUDP(h.desc.BuildFramePacket(streamID, 0, [12]byte{}, true), h.target)
	return err
}

// State reports the handler's own link state, for diagnostics/tests.
func (h *Handler) State() string {
	switch h.state {
	case stateIdle:
		return "Idle"
	case stateLinking:
		return "Linking"
	case stateLinked:
		return "Linked"
	default:
		return "Unknown"
	}
}

// Poll advances timers by dt, drains inbound packets, and returns
// every event produced. The caller (the owning repeater handler) is
// expected to call this once per gateway tick.
func (h *Handler) Poll(dt time.Duration) []Event {
	h.events = h.events[:0]

	if h.linkTimeout != nil {
		h.linkTimeout.Clock(dt)
		if h.linkTimeout.Expired() {
			h.linkTimeout = nil
			if h.state == stateLinking {
				h.state = stateIdle
				h.events = append(h.events, Event{Kind: LinkedFail})
			} else if h.state == stateLinked {
				h.state = stateIdle
				h.events = append(h.events, Event{Kind: Timeout})
			}
		}
	}

	if h.keepaliveTimer != nil {
		h.keepaliveTimer.Clock(dt)
		if h.keepaliveTimer.Expired() && h.state == stateLinked && h.target != nil {
			_, _ = h.conn.WriteToUDP(h.desc.BuildKeepalive(h.own), h.target)
			h.keepaliveTimer.Start(h.desc.KeepaliveInterval)
		}
	}

	for {
		pkt, ok := h.recv.TryPop()
		if !ok {
			break
		}
		h.handlePacket(pkt)
	}

	return h.events
}

func (h *Handler) handlePacket(pkt []byte) {
	if h.desc.IsKeepalive(pkt) {
		if h.linkTimeout != nil {
			h.linkTimeout.Start(h.desc.LinkTimeout)
		}
		return
	}

	if h.state == stateLinking {
		if isResp, accepted := h.desc.ParseLinkResponse(pkt); isResp {
			if accepted {
				h.state = stateLinked
				h.linkTimeout.Start(h.desc.LinkTimeout)
				h.events = append(h.events, Event{Kind: LinkedOk})
			} else {
				h.state = stateIdle
				h.linkTimeout = nil
				h.events = append(h.events, Event{Kind: LinkedFail})
			}
			return
		}
	}

	if h.state != stateLinked {
		return
	}

	if h.linkTimeout != nil {
		h.linkTimeout.Start(h.desc.LinkTimeout)
	}

	if streamID, hdr, ok := h.desc.ParseHeaderPacket(pkt); ok {
		h.events = append(h.events, Event{Kind: Header, StreamID: streamID, Hdr: hdr})
		return
	}
	if streamID, seq, data, end, ok := h.desc.ParseFramePacket(pkt); ok {
		h.events = append(h.events, Event{Kind: AmbeData, StreamID: streamID, Seq: seq, Data: data, End: end})
	}
}
