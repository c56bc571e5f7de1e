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

// Package hostcache implements the Cache component of §4.1: a mapping
// from padded gateway callsign to gateway record, with wait-free reads
// and single-writer updates. It is backed by xsync.Map, the same
// lock-free concurrent map the teacher uses for its hub's active-stream
// and subscription bookkeeping.
package hostcache

import (
	"net"
	"sync"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
	"github.com/puzpuzpuz/xsync/v4"
)

// Source identifies where a gateway record came from. Priority for
// conflict resolution is HostsFile > IRCDDB > Dynamic (§4.1).
type Source int

const (
	SourceHostsFile Source = iota
	SourceIRCDDB
	SourceDynamic
)

func (s Source) priority() int {
	switch s {
	case SourceHostsFile:
		return 2
	case SourceIRCDDB:
		return 1
	default:
		return 0
	}
}

func (s Source) String() string {
	switch s {
	case SourceHostsFile:
		return "HostsFile"
	case SourceIRCDDB:
		return "IRCDDB"
	default:
		return "Dynamic"
	}
}

// Record is one Cache entry (§3 Data Model "Gateway record").
type Record struct {
	Callsign dstarconst.Callsign
	IPv4     net.IP
	Dialect  dstarconst.Dialect
	Locked   bool
	Source   Source
}

// UpdateResult reports what updateGateway actually did.
type UpdateResult int

const (
	Inserted UpdateResult = iota
	Updated
	Rejected
)

// Cache is the shared host directory. Reads never block on writes; a
// single writer mutex serializes callers of UpdateGateway/ClearSource so
// the read-check-write sequence against the locked/priority invariant
// is never interleaved, per §5 "Cache updates are linearized by a
// single writer". Lookup never takes writeMu, so readers stay wait-free.
type Cache struct {
	m       *xsync.Map[dstarconst.Callsign, Record]
	writeMu sync.Mutex
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{m: xsync.NewMap[dstarconst.Callsign, Record]()}
}

// Lookup is a wait-free read of the current snapshot for callsign.
func (c *Cache) Lookup(callsign dstarconst.Callsign) (Record, bool) {
	return c.m.Load(callsign)
}

// UpdateGateway applies the Cache's ordering invariant: an existing
// record, locked or not, is never overwritten by an update from a
// strictly lower priority source; among equal-or-higher priority the
// latest update wins.
func (c *Cache) UpdateGateway(callsign dstarconst.Callsign, ip net.IP, dialect dstarconst.Dialect, locked bool, source Source) UpdateResult {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	result := Inserted
	if old, loaded := c.m.Load(callsign); loaded {
		if source.priority() < old.Source.priority() {
			return Rejected
		}
		result = Updated
	}
	c.m.Store(callsign, Record{
		Callsign: callsign,
		IPv4:     ip,
		Dialect:  dialect,
		Locked:   locked,
		Source:   source,
	})
	return result
}

// ClearSource removes every record from the given source, used before a
// bulk reload of that source's data (§4.1 "clearSource used before a
// bulk reload").
func (c *Cache) ClearSource(source Source) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var stale []dstarconst.Callsign
	c.m.Range(func(key dstarconst.Callsign, rec Record) bool {
		if rec.Source == source {
			stale = append(stale, key)
		}
		return true
	})
	for _, key := range stale {
		c.m.Delete(key)
	}
}

// Len reports the number of records currently cached (used by metrics).
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(_ dstarconst.Callsign, _ Record) bool {
		n++
		return true
	})
	return n
}

// Snapshot returns a copy of every record, for diagnostics/tests.
func (c *Cache) Snapshot() []Record {
	var out []Record
	c.m.Range(func(_ dstarconst.Callsign, rec Record) bool {
		out = append(out, rec)
		return true
	})
	return out
}
