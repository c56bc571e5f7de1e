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

// Package ircddb implements the Directory Client of §4.3: a long-lived
// text-protocol client per configured backend that resolves user and
// repeater callsigns to their home gateway, and a MultiClient that fans
// the same query across every backend and takes the first authoritative
// (non-empty address) answer, refreshing the Cache with source=IRCDDB.
// Grounded on the receive-goroutine/channel/auth-state-machine shape of
// client/client.go, generalized from a UDP Homebrew session to a
// line-oriented TCP directory session.
package ircddb

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
	"github.com/dstargateway/dstargateway/internal/hostcache"
)

// UserAnswer is the resolved "who owns this user callsign" result.
type UserAnswer struct {
	UserCall     string
	RepeaterCall string
	GatewayCall  string
	Address      net.IP
}

// RepeaterAnswer is the resolved "where is this repeater's gateway" result.
type RepeaterAnswer struct {
	RepeaterCall string
	GatewayCall  string
	Address      net.IP
}

// Empty reports whether the answer carries no address, i.e. is not
// authoritative.
func (a UserAnswer) Empty() bool { return a.Address == nil }

// Empty reports whether the answer carries no address.
func (a RepeaterAnswer) Empty() bool { return a.Address == nil }

// Dialer abstracts net.Dial so tests can supply an in-memory
// connection (net.Pipe) instead of a real TCP socket.
type Dialer func(ctx context.Context, addr string) (net.Conn, error)

func defaultDialer(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

// Backend is one configured IRCDDB server connection. It issues
// SENDU/SENDR commands and parses USER/RPTR response lines
// asynchronously; callers poll for a response with a timeout.
type Backend struct {
	name   string
	addr   string
	dial   Dialer
	log    *slog.Logger
	timeout time.Duration

	mu       sync.Mutex
	conn     net.Conn
	degraded bool

	userReplies     chan UserAnswer
	repeaterReplies chan RepeaterAnswer
}

// NewBackend creates a Backend bound to addr ("host:port"). The
// connection is established lazily on first use.
func NewBackend(name, addr string, log *slog.Logger) *Backend {
	return &Backend{
		name:            name,
		addr:            addr,
		dial:            defaultDialer,
		log:             log,
		timeout:         5 * time.Second,
		userReplies:     make(chan UserAnswer, 8),
		repeaterReplies: make(chan RepeaterAnswer, 8),
	}
}

// WithDialer overrides the transport, used by tests.
func (b *Backend) WithDialer(d Dialer) *Backend {
	b.dial = d
	return b
}

// Degraded reports whether the last query to this backend failed: a
// dial or write error, or no reply within the timeout.
// A degraded backend is still queried on subsequent calls (§4.3
// "marked degraded but not removed").
func (b *Backend) Degraded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.degraded
}

func (b *Backend) ensureConn(ctx context.Context) (net.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		return b.conn, nil
	}
	conn, err := b.dial(ctx, b.addr)
	if err != nil {
		return nil, err
	}
	b.conn = conn
	go b.readLoop(conn)
	return conn, nil
}

func (b *Backend) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "USER":
			if len(fields) < 5 {
				continue
			}
			b.userReplies <- UserAnswer{
				UserCall:     fields[1],
				RepeaterCall: fields[2],
				GatewayCall:  fields[3],
				Address:      net.ParseIP(fields[4]),
			}
		case "RPTR":
			if len(fields) < 4 {
				continue
			}
			b.repeaterReplies <- RepeaterAnswer{
				RepeaterCall: fields[1],
				GatewayCall:  fields[2],
				Address:      net.ParseIP(fields[3]),
			}
		}
	}
}

// SendUser issues SENDU and waits up to the backend timeout for a
// matching reply, marking the backend degraded on timeout.
func (b *Backend) SendUser(ctx context.Context, callsign string) (UserAnswer, error) {
	conn, err := b.ensureConn(ctx)
	if err != nil {
		b.markDegraded()
		return UserAnswer{}, fmt.Errorf("ircddb: %s: dial: %w", b.name, err)
	}
	if _, err := fmt.Fprintf(conn, "SENDU %s\n", strings.TrimSpace(callsign)); err != nil {
		b.markDegraded()
		return UserAnswer{}, fmt.Errorf("ircddb: %s: write: %w", b.name, err)
	}
	select {
	case ans := <-b.userReplies:
		b.clearDegraded()
		return ans, nil
	case <-time.After(b.timeout):
		b.markDegraded()
		return UserAnswer{}, fmt.Errorf("ircddb: %s: timed out waiting for SENDU reply", b.name)
	case <-ctx.Done():
		return UserAnswer{}, ctx.Err()
	}
}

// SendRepeater issues SENDR and waits for a matching reply.
func (b *Backend) SendRepeater(ctx context.Context, repeaterCall string) (RepeaterAnswer, error) {
	conn, err := b.ensureConn(ctx)
	if err != nil {
		b.markDegraded()
		return RepeaterAnswer{}, fmt.Errorf("ircddb: %s: dial: %w", b.name, err)
	}
	if _, err := fmt.Fprintf(conn, "SENDR %s\n", strings.TrimSpace(repeaterCall)); err != nil {
		b.markDegraded()
		return RepeaterAnswer{}, fmt.Errorf("ircddb: %s: write: %w", b.name, err)
	}
	select {
	case ans := <-b.repeaterReplies:
		b.clearDegraded()
		return ans, nil
	case <-time.After(b.timeout):
		b.markDegraded()
		return RepeaterAnswer{}, fmt.Errorf("ircddb: %s: timed out waiting for SENDR reply", b.name)
	case <-ctx.Done():
		return RepeaterAnswer{}, ctx.Err()
	}
}

func (b *Backend) markDegraded() {
	b.mu.Lock()
	b.degraded = true
	b.mu.Unlock()
}

func (b *Backend) clearDegraded() {
	b.mu.Lock()
	b.degraded = false
	b.mu.Unlock()
}

// MultiClient fans sendUser/sendRepeater queries across every
// configured backend concurrently and takes the first authoritative
// (non-empty address) answer (§4.3).
type MultiClient struct {
	backends []*Backend
	cache    *hostcache.Cache
	log      *slog.Logger
}

// NewMultiClient builds a MultiClient over the given backends.
func NewMultiClient(cache *hostcache.Cache, log *slog.Logger, backends ...*Backend) *MultiClient {
	return &MultiClient{backends: backends, cache: cache, log: log}
}

// SendUser queries every backend and returns the first authoritative
// answer. Cache is refreshed with the resolved gateway address.
func (m *MultiClient) SendUser(ctx context.Context, callsign string) (UserAnswer, error) {
	type result struct {
		ans UserAnswer
		err error
	}
	results := make(chan result, len(m.backends))
	for _, b := range m.backends {
		go func(b *Backend) {
			ans, err := b.SendUser(ctx, callsign)
			results <- result{ans, err}
		}(b)
	}

	var lastErr error
	for range m.backends {
		r := <-results
		if r.err != nil {
			lastErr = r.err
			continue
		}
		if r.ans.Empty() {
			continue
		}
		m.refreshCache(r.ans.GatewayCall, r.ans.Address)
		return r.ans, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("ircddb: no backend returned an authoritative answer for %q", callsign)
	}
	return UserAnswer{}, lastErr
}

// SendRepeater queries every backend and returns the first
// authoritative answer.
func (m *MultiClient) SendRepeater(ctx context.Context, repeaterCall string) (RepeaterAnswer, error) {
	type result struct {
		ans RepeaterAnswer
		err error
	}
	results := make(chan result, len(m.backends))
	for _, b := range m.backends {
		go func(b *Backend) {
			ans, err := b.SendRepeater(ctx, repeaterCall)
			results <- result{ans, err}
		}(b)
	}

	var lastErr error
	for range m.backends {
		r := <-results
		if r.err != nil {
			lastErr = r.err
			continue
		}
		if r.ans.Empty() {
			continue
		}
		m.refreshCache(r.ans.GatewayCall, r.ans.Address)
		return r.ans, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("ircddb: no backend returned an authoritative answer for %q", repeaterCall)
	}
	return RepeaterAnswer{}, lastErr
}

// Probe re-tests every degraded backend with a lightweight query,
// clearing its degraded flag on success. Intended to be driven by a
// periodic scheduler (§9.5) rather than waiting for the next real
// lookup to rediscover a backend has recovered.
func (m *MultiClient) Probe(ctx context.Context) {
	for _, b := range m.backends {
		if !b.Degraded() {
			continue
		}
		go func(b *Backend) {
			_, _ = b.SendRepeater(ctx, "PROBE")
		}(b)
	}
}

// refreshCache writes the resolved address into the Cache. IRCDDB's
// wire protocol carries no dialect field, so an existing record's
// dialect is preserved; a brand new record defaults to DExtra, the
// most common public reflector dialect.
func (m *MultiClient) refreshCache(gatewayCall string, addr net.IP) {
	if m.cache == nil || gatewayCall == "" || addr == nil {
		return
	}
	callsign := dstarconst.GatewayCallsign(gatewayCall)
	dialect := dstarconst.DExtra
	if existing, ok := m.cache.Lookup(callsign); ok {
		dialect = existing.Dialect
	}
	m.cache.UpdateGateway(callsign, addr, dialect, false, hostcache.SourceIRCDDB)
}
