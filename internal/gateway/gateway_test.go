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

package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
	"github.com/dstargateway/dstargateway/internal/hostcache"
	"github.com/dstargateway/dstargateway/internal/hostsdir"
	"github.com/dstargateway/dstargateway/internal/ircddb"
	"github.com/dstargateway/dstargateway/internal/reflector"
	"github.com/dstargateway/dstargateway/internal/repeaterproto"
	"github.com/dstargateway/dstargateway/internal/session"
)

// fakePeer lets a test inject reflector events without a real UDP
// socket, mirroring internal/session's own test fake.
type fakePeer struct {
	events []reflector.Event
}

func (p *fakePeer) Link(target *net.UDPAddr, module byte) error { return nil }
func (p *fakePeer) Unlink() error                                { return nil }
func (p *fakePeer) WriteHeader(streamID uint16, hdr dstarconst.Header) error {
	return nil
}
func (p *fakePeer) WriteData(streamID uint16, seq int, data [12]byte) error {
	return nil
}
func (p *fakePeer) WriteEnd(streamID uint16) error { return nil }
func (p *fakePeer) Poll(dt time.Duration) []reflector.Event {
	ev := p.events
	p.events = nil
	return ev
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type unusedResolver struct{}

func (unusedResolver) SendRepeater(ctx context.Context, repeaterCall string) (ircddb.RepeaterAnswer, error) {
	return ircddb.RepeaterAnswer{}, errors.New("resolver should not be called in this test")
}

func TestTickDispatchesRadioHeaderIntoSessionAndStartsWatchdog(t *testing.T) {
	cache := hostcache.New()
	local := repeaterproto.NewDummy()
	sess := session.New(dstarconst.GatewayCallsign("W1AAA"), 'A', cache, unusedResolver{}, nil, discardLogger())

	hostsDir := hostsdir.New(cache, t.TempDir(), "", hostsdir.Enabled{}, hostsdir.WithReloadInterval(time.Hour))

	g := New(cache, hostsDir, nil, Reflectors{}, []*Band{{Module: 'A', Local: local, Session: sess}}, nil, nil, nil, discardLogger())

	hdr := dstarconst.Header{MyCall: dstarconst.PadCallsign("W2BBB", 'A'), URCall: dstarconst.URCallCQCQCQ}
	require.NoError(t, local.WriteHeader(hdr))

	g.tick(10 * time.Millisecond)

	assert.Equal(t, session.Receiving, sess.State())
}

func TestTickDispatchesNetHeaderFromPeerOntoLocalRadioLink(t *testing.T) {
	cache := hostcache.New()
	local := repeaterproto.NewDummy()
	peer := &fakePeer{events: []reflector.Event{
		{Kind: reflector.Header, Hdr: dstarconst.Header{MyCall: dstarconst.PadCallsign("FR1ZAB", 'A'), URCall: dstarconst.URCallCQCQCQ}},
	}}
	sess := session.New(dstarconst.GatewayCallsign("W1AAA"), 'A', cache, unusedResolver{}, peer, discardLogger())

	hostsDir := hostsdir.New(cache, t.TempDir(), "", hostsdir.Enabled{}, hostsdir.WithReloadInterval(time.Hour))
	g := New(cache, hostsDir, nil, Reflectors{}, []*Band{{Module: 'A', Local: local, Session: sess}}, nil, nil, nil, discardLogger())

	g.tick(10 * time.Millisecond)

	assert.Equal(t, session.Transmitting, sess.State())
	events := local.Poll(0)
	require.Len(t, events, 1)
	assert.Equal(t, repeaterproto.HeaderIn, events[0].Kind)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cache := hostcache.New()
	hostsDir := hostsdir.New(cache, t.TempDir(), "", hostsdir.Enabled{}, hostsdir.WithReloadInterval(time.Hour))
	g := New(cache, hostsDir, nil, Reflectors{}, nil, nil, nil, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
