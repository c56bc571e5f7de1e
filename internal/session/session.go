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

package session

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
	"github.com/dstargateway/dstargateway/internal/dtmf"
	"github.com/dstargateway/dstargateway/internal/hostcache"
	"github.com/dstargateway/dstargateway/internal/ircddb"
	"github.com/dstargateway/dstargateway/internal/reflector"
	"github.com/dstargateway/dstargateway/internal/timer"
)

// watchdogTimeout is the 2s inactivity timer that ends a transmission
// (§3 Transmission, §4.5).
const watchdogTimeout = 2 * time.Second

// linkingTimeout is the retry delay after a failed link under the
// Fixed reconnect policy. Session runs no timer of its own while
// Linking: an attempt ends in Failed only when the target cannot be
// resolved, Link returns an error, or the peer reports LinkedFail or
// Timeout.
const linkingTimeout = 10 * time.Second

// silenceKeepaliveTime is the 25s passive-keepalive-failure threshold
// for a Fixed-policy link (§4.5 "Linked -> 25s silence AND
// policy=Fixed -> Relinking").
const silenceKeepaliveTime = 25 * time.Second

// Peer is the subset of reflector.Handler a Session needs, so tests
// can substitute a fake without a real UDP socket.
type Peer interface {
	Link(target *net.UDPAddr, module byte) error
	Unlink() error
	WriteHeader(streamID uint16, hdr dstarconst.Header) error
	WriteData(streamID uint16, seq int, data [12]byte) error
	WriteEnd(streamID uint16) error
	Poll(dt time.Duration) []reflector.Event
}

// Resolver is the subset of ircddb.MultiClient a Session needs for
// "/CALLSIGN" direct routing.
type Resolver interface {
	SendRepeater(ctx context.Context, repeaterCall string) (ircddb.RepeaterAnswer, error)
}

// Session is the Repeater Handler state machine for one configured
// band of one repeater (§4.5).
type Session struct {
	ownGateway dstarconst.Callsign
	module     byte

	Access AccessControl

	cache    *hostcache.Cache
	resolver Resolver
	peer     Peer
	log      *slog.Logger

	state     State
	watchdog  *timer.Timer
	retry     *timer.Timer
	silence   *timer.Timer
	reconnect dstarconst.ReconnectPolicy

	currentTarget  dstarconst.Callsign
	currentDialect dstarconst.Dialect
	streamID       uint16
	seq            int

	dtmfDecoder *dtmf.Decoder

	netOut []NetFrame
}

// NetFrame is one header or voice unit decoded from a linked peer and
// queued for the local repeater link, drained once per gateway tick by
// DrainToRadio.
type NetFrame struct {
	Hdr  *dstarconst.Header
	Data [12]byte
	End  bool
}

// New creates an Idle Session for the given band.
func New(ownGateway dstarconst.Callsign, module byte, cache *hostcache.Cache, resolver Resolver, peer Peer, log *slog.Logger) *Session {
	return &Session{
		ownGateway:  ownGateway,
		module:      module,
		cache:       cache,
		resolver:    resolver,
		peer:        peer,
		log:         log,
		state:       Idle,
		watchdog:    timer.New(),
		retry:       timer.New(),
		silence:     timer.New(),
		dtmfDecoder: dtmf.New(),
		reconnect:   dstarconst.ReconnectPolicy{Kind: dstarconst.ReconnectNever},
	}
}

// State reports the current link state.
func (s *Session) State() State { return s.state }

// SetReconnectPolicy configures the retry behavior applied on
// LinkedFail/Timeout (§4.5 "Failed -> retry timer -> Linking").
func (s *Session) SetReconnectPolicy(p dstarconst.ReconnectPolicy) {
	s.reconnect = p
}

// Clock advances every owned timer by dt and polls the reflector peer
// for events, applying whatever state transitions they produce.
func (s *Session) Clock(dt time.Duration) {
	if s.watchdog.Running() {
		s.watchdog.Clock(dt)
		if s.watchdog.Expired() && (s.state == Receiving || s.state == Transmitting) {
			s.endTransmission()
		}
	}

	if s.retry.Running() {
		s.retry.Clock(dt)
		if s.retry.Expired() && s.state == Failed {
			s.retry.Stop()
			s.beginLinking(s.currentTarget, s.currentDialect)
		}
	}

	if s.state == Linked && s.reconnect.Kind == dstarconst.ReconnectFixed {
		s.silence.Clock(dt)
		if s.silence.Expired() {
			s.silence.Stop()
			s.beginLinking(s.currentTarget, s.currentDialect)
			if s.state == Linking {
				s.state = Relinking
			}
		}
	}

	if s.peer == nil {
		return
	}
	for _, ev := range s.peer.Poll(dt) {
		s.handlePeerEvent(ev)
	}
}

func (s *Session) handlePeerEvent(ev reflector.Event) {
	switch ev.Kind {
	case reflector.LinkedOk:
		if s.state == Linking || s.state == Relinking {
			s.state = Linked
			s.retry.Stop()
			s.silence.Start(silenceKeepaliveTime)
			s.log.Info("linked", "target", s.currentTarget.String())
		}
	case reflector.LinkedFail, reflector.Timeout:
		if s.state == Linking || s.state == Linked || s.state == Relinking {
			s.state = Failed
			s.scheduleRetry()
			s.log.Warn("link failed, scheduling retry", "target", s.currentTarget.String())
		}
	case reflector.Unlinked:
		s.state = Idle
	case reflector.Header:
		s.HeaderFromNet(ev.Hdr)
	case reflector.AmbeData:
		s.DataFromNet(ev.Data, ev.End)
	}
}

func (s *Session) scheduleRetry() {
	switch s.reconnect.Kind {
	case dstarconst.ReconnectNever:
		return
	case dstarconst.ReconnectFixed:
		s.retry.Start(linkingTimeout)
	case dstarconst.ReconnectAfter:
		s.retry.Start(time.Duration(s.reconnect.Minutes) * time.Minute)
	}
}

// HeaderFromRadio handles a header arriving from the local repeater
// (§4.5 "Idle -> header from radio -> Receiving", plus the routing
// rule and the command/unlink/relink cases that apply regardless of
// current state).
func (s *Session) HeaderFromRadio(hdr dstarconst.Header) {
	route := ClassifyRoute(hdr.URCall)

	switch route.Kind {
	case RouteCommand:
		s.applyRadioCommand(hdr.URCall)
		return
	case RouteCallsign:
		s.beginCallsignRoute(route.Target)
	}

	if !s.Access.Allowed(hdr.MyCall.Base(), true) {
		s.log.Warn("denying transmission by access control", "call", hdr.MyCall.Base())
		return
	}

	s.streamID = hdr.StreamID
	s.seq = 0
	s.state = Receiving
	s.watchdog.Start(watchdogTimeout)
	s.dtmfDecoder.Reset()

	if route.Kind == RouteReflector && s.state2Linked() {
		_ = s.peer.WriteHeader(s.streamID, hdr)
	}
}

// state2Linked reports whether the session has a reflector target,
// which is what gates forwarding radio voice to the peer. It does not
// check the link state: a target that is still Linking, Relinking or
// Failed counts as well.
func (s *Session) state2Linked() bool {
	return s.currentTarget != (dstarconst.Callsign{})
}

// applyRadioCommand handles the three urCall command forms: unlink,
// relink, and link-to-new-target (§4.5 transition table rows for
// "DTMF UNLINK complete" and "DTMF ...target... complete", generalized
// to also fire on the equivalent urCall-encoded command since both
// paths canonicalize to the same action).
func (s *Session) applyRadioCommand(urCall dstarconst.Callsign) {
	switch {
	case dstarconst.IsUnlinkCommand(urCall):
		s.unlinkCurrent()
	case dstarconst.IsRelinkCommand(urCall), dstarconst.IsLinkCommand(urCall):
		target := dstarconst.PadCallsign(urCall.Base(), dstarconst.GatewayModule)
		s.beginLinking(target, s.currentDialect)
	}
}

// DataFromRadio forwards one voice frame while Receiving, decodes its
// DTMF content, and kicks the watchdog.
func (s *Session) DataFromRadio(data [12]byte, dtmfFrame [9]byte, end bool) {
	if s.state != Receiving {
		return
	}
	s.watchdog.Start(watchdogTimeout)
	s.dtmfDecoder.Decode(dtmfFrame, end)

	if s.currentTarget != (dstarconst.Callsign{}) {
		_ = s.peer.WriteData(s.streamID, s.seq, data)
		s.seq = (s.seq + 1) % dstarconst.SeqMod
	}

	if end {
		s.endTransmission()
	}
}

// endTransmission implements "Receiving -> end or watchdog -> Idle:
// emit end to peer-set". DTMF commands decoded during the just-ended
// transmission take effect only now, with the handler back in Idle
// (§5 Ordering guarantees).
func (s *Session) endTransmission() {
	if s.currentTarget != (dstarconst.Callsign{}) {
		_ = s.peer.WriteEnd(s.streamID)
	}
	s.watchdog.Stop()
	s.state = Idle

	if s.dtmfDecoder.HasCommand() {
		if target, ok := parseLinkCommand(s.dtmfDecoder.Translate()); ok {
			s.beginLinking(target, dstarconst.DCS)
		}
	}
}

// beginCallsignRoute resolves a "/CALLSIGN" target via IRCDDB and, if
// found, begins linking directly to that gateway (§4.5 routing case 2).
func (s *Session) beginCallsignRoute(callsign string) {
	if s.resolver == nil {
		return
	}
	ans, err := s.resolver.SendRepeater(context.Background(), callsign)
	if err != nil || ans.Empty() {
		return
	}
	target := dstarconst.GatewayCallsign(ans.GatewayCall)
	s.beginLinking(target, s.currentDialect)
}

// beginLinking implements the unlink-old/link-new half of "*any* ->
// DTMF ...target... complete -> Linking".
func (s *Session) beginLinking(target dstarconst.Callsign, dialect dstarconst.Dialect) {
	if s.peer == nil {
		return
	}
	if s.currentTarget != (dstarconst.Callsign{}) && s.currentTarget != target {
		_ = s.peer.Unlink()
	}
	s.currentTarget = target
	s.currentDialect = dialect
	s.state = Linking
	s.retry.Stop()
	s.silence.Stop()

	addr := s.resolveTargetAddr(target)
	if addr == nil {
		s.state = Failed
		s.scheduleRetry()
		return
	}
	if err := s.peer.Link(addr, target.Module()); err != nil {
		s.state = Failed
		s.scheduleRetry()
	}
}

func (s *Session) resolveTargetAddr(target dstarconst.Callsign) *net.UDPAddr {
	if s.cache == nil {
		return nil
	}
	rec, ok := s.cache.Lookup(target)
	if !ok {
		return nil
	}
	return &net.UDPAddr{IP: rec.IPv4, Port: 30001}
}

// unlinkCurrent implements "Linked -> DTMF UNLINK complete -> Unlinked".
func (s *Session) unlinkCurrent() {
	if s.peer != nil && s.currentTarget != (dstarconst.Callsign{}) {
		_ = s.peer.Unlink()
	}
	s.currentTarget = dstarconst.Callsign{}
	s.state = Idle
	s.retry.Stop()
	s.silence.Stop()
}

// HeaderFromNet handles a header arriving from a linked peer destined
// for this repeater (§4.5 "Idle -> header from net -> Transmitting:
// start 2s watchdog; push to radio"). The header is queued for
// DrainToRadio rather than written directly, since Session has no
// local repeater link of its own.
func (s *Session) HeaderFromNet(hdr dstarconst.Header) {
	if s.state != Idle {
		return
	}
	s.state = Transmitting
	s.watchdog.Start(watchdogTimeout)
	s.netOut = append(s.netOut, NetFrame{Hdr: &hdr})
}

// DataFromNet pushes a voice frame from the net toward the radio while
// Transmitting.
func (s *Session) DataFromNet(data [12]byte, end bool) {
	if s.state != Transmitting {
		return
	}
	s.watchdog.Start(watchdogTimeout)
	s.netOut = append(s.netOut, NetFrame{Data: data, End: end})
	if end {
		s.watchdog.Stop()
		s.state = Idle
	}
}

// DrainToRadio returns and clears the header/voice frames queued by
// HeaderFromNet/DataFromNet since the last call, for the gateway tick
// to push onto the local repeater link (§4.6).
func (s *Session) DrainToRadio() []NetFrame {
	out := s.netOut
	s.netOut = nil
	return out
}

// CurrentTarget reports the reflector callsign currently linked or
// being linked to, for diagnostics/tests.
func (s *Session) CurrentTarget() dstarconst.Callsign { return s.currentTarget }
