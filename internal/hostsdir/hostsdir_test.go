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

package hostsdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
	"github.com/dstargateway/dstargateway/internal/hostcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allEnabled() Enabled {
	return Enabled{DExtra: true, DPlus: true, DCS: true, XLX: true}
}

func TestClassicHostFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, dplusHostsFile),
		[]byte("REF001  127.0.0.1  1\n"),
		0o644,
	))

	cache := hostcache.New()
	m := New(cache, dir, "", allEnabled())
	require.NoError(t, m.Reload(context.Background()))

	rec, ok := cache.Lookup(dstarconst.GatewayCallsign("REF001"))
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", rec.IPv4.String())
	assert.Equal(t, dstarconst.DPlus, rec.Dialect)
	assert.True(t, rec.Locked)
	assert.Equal(t, hostcache.SourceHostsFile, rec.Source)
}

func TestJSONFeed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, jsonFeedName),
		[]byte(`{"reflectors":[{"name":"XRF012","reflector_type":"XRF","ipv4":"10.0.0.1"}]}`),
		0o644,
	))

	cache := hostcache.New()
	m := New(cache, dir, "", allEnabled())
	require.NoError(t, m.Reload(context.Background()))

	rec, ok := cache.Lookup(dstarconst.GatewayCallsign("XRF012"))
	require.True(t, ok)
	assert.Equal(t, dstarconst.DExtra, rec.Dialect)
	assert.False(t, rec.Locked)
}

func TestCustomDirectoryOverridesInternet(t *testing.T) {
	internet := t.TempDir()
	custom := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(internet, dextraHostsFile),
		[]byte("XRF001  10.0.0.1\n"),
		0o644,
	))
	require.NoError(t, os.WriteFile(
		filepath.Join(custom, dextraHostsFile),
		[]byte("XRF001  192.168.0.1  1\n"),
		0o644,
	))

	cache := hostcache.New()
	m := New(cache, internet, custom, allEnabled())
	require.NoError(t, m.Reload(context.Background()))

	rec, ok := cache.Lookup(dstarconst.GatewayCallsign("XRF001"))
	require.True(t, ok)
	assert.Equal(t, "192.168.0.1", rec.IPv4.String())
	assert.True(t, rec.Locked)
}

func TestReloadIsIdempotentAndDropsStaleEntries(t *testing.T) {
	dir := t.TempDir()
	hostsPath := filepath.Join(dir, dextraHostsFile)
	require.NoError(t, os.WriteFile(hostsPath, []byte("XRF001  10.0.0.1\nXRF002  10.0.0.2\n"), 0o644))

	cache := hostcache.New()
	m := New(cache, dir, "", allEnabled())
	require.NoError(t, m.Reload(context.Background()))
	assert.Equal(t, 2, cache.Len())

	require.NoError(t, os.WriteFile(hostsPath, []byte("XRF001  10.0.0.1\n"), 0o644))
	require.NoError(t, m.Reload(context.Background()))

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Lookup(dstarconst.GatewayCallsign("XRF002"))
	assert.False(t, ok)
}

func TestUnresolvableHostSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, dcsHostsFile),
		[]byte("DCS001  this.host.does.not.exist.invalid\n"),
		0o644,
	))

	cache := hostcache.New()
	m := New(cache, dir, "", allEnabled())
	require.NoError(t, m.Reload(context.Background()))

	assert.Equal(t, 0, cache.Len())
}

func TestDisabledDialectNotLoaded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, dplusHostsFile),
		[]byte("REF001  127.0.0.1\n"),
		0o644,
	))

	cache := hostcache.New()
	m := New(cache, dir, "", Enabled{DExtra: true})
	require.NoError(t, m.Reload(context.Background()))

	assert.Equal(t, 0, cache.Len())
}
