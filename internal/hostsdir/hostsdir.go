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

// Package hostsdir implements the Hosts Directory Refresher of §4.2: a
// 24-hour (configurable) reload timer that repopulates the Cache from
// either the classic four-file text format or a single JSON reflectors
// feed, with an optional download step and a local custom-files
// directory that is reloaded after the internet directory so operator
// overrides win. Grounded on Common/HostsFilesManager.cpp's
// loadReflectors/UpdateHostsFromInternet/UpdateHostsFromLocal split.
package hostsdir

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dstargateway/dstargateway/internal/dstarconst"
	"github.com/dstargateway/dstargateway/internal/hostcache"
)

// jsonFeedName is the file checked for before falling back to the
// classic per-dialect text files (§4.2 "chosen by presence of files").
const jsonFeedName = "reflectors.json"

const (
	dplusHostsFile  = "DPlus_Hosts.txt"
	dextraHostsFile = "DExtra_Hosts.txt"
	dcsHostsFile    = "DCS_Hosts.txt"
	xlxHostsFile    = "XLX_Hosts.txt"
)

// Enabled selects which dialects are loaded, mirroring
// setDextra/setDCS/setDPlus/setXLX.
type Enabled struct {
	DExtra bool
	DPlus  bool
	DCS    bool
	XLX    bool
}

// Downloader fetches dialect to destPath from wherever it is configured
// to live before a reload, e.g. over HTTP. A nil Downloader skips the
// fetch step and the reload proceeds with whatever files already exist.
type Downloader func(ctx context.Context, dialect dstarconst.Dialect, destPath string) error

// Manager owns the reload timer and the two directories.
type Manager struct {
	cache      *hostcache.Cache
	enabled    Enabled
	internetDir string
	customDir  string
	reload     time.Duration
	downloader Downloader
	log        *slog.Logger

	elapsed time.Duration
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithDownloader installs a fetch callback run before every reload.
func WithDownloader(d Downloader) Option {
	return func(m *Manager) { m.downloader = d }
}

// WithReloadInterval overrides the default 24-hour reload period.
func WithReloadInterval(d time.Duration) Option {
	return func(m *Manager) { m.reload = d }
}

// WithLogger overrides the default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// New builds a Manager. internetDir holds the downloaded/maintained
// feed; customDir, if non-empty, holds a local operator override
// loaded after internetDir on every reload.
func New(cache *hostcache.Cache, internetDir, customDir string, enabled Enabled, opts ...Option) *Manager {
	m := &Manager{
		cache:       cache,
		enabled:     enabled,
		internetDir: internetDir,
		customDir:   customDir,
		reload:      24 * time.Hour,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Clock advances the reload timer by dt, triggering an asynchronous
// reload on expiry (§4.2 "on expiry it runs a reload asynchronously").
func (m *Manager) Clock(dt time.Duration) {
	m.elapsed += dt
	if m.elapsed < m.reload {
		return
	}
	m.elapsed = 0
	m.log.Info("reloading hosts directory", "interval", m.reload)
	go m.ReloadAsync(context.Background())
}

// ReloadAsync runs Reload and logs the outcome; callers that want the
// error should call Reload directly (used by the USR1 signal handler
// which still wants async, fire-and-forget semantics, same as
// UpdateHostsAsync).
func (m *Manager) ReloadAsync(ctx context.Context) {
	if err := m.Reload(ctx); err != nil {
		m.log.Warn("hosts directory reload failed", "error", err)
	}
}

// Reload is UpdateHosts: internet directory first, then the custom
// directory so operator overrides win, per §4.2. The reload is
// idempotent: a full reload clears every prior HostsFile-sourced
// record before repopulating so removed entries don't linger.
func (m *Manager) Reload(ctx context.Context) error {
	m.cache.ClearSource(hostcache.SourceHostsFile)

	var firstErr error
	if m.internetDir != "" {
		if err := m.downloadAll(ctx, m.internetDir); err != nil {
			m.log.Warn("hosts directory download failed, reloading with files on disk", "error", err)
		}
		if err := m.loadDirectory(m.internetDir); err != nil {
			firstErr = err
		}
	}
	if m.customDir != "" {
		if err := m.loadDirectory(m.customDir); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Manager) downloadAll(ctx context.Context, dir string) error {
	if m.downloader == nil {
		return nil
	}
	dialects := []struct {
		on   bool
		d    dstarconst.Dialect
		file string
	}{
		{m.enabled.DPlus, dstarconst.DPlus, dplusHostsFile},
		{m.enabled.DExtra, dstarconst.DExtra, dextraHostsFile},
		{m.enabled.DCS, dstarconst.DCS, dcsHostsFile},
	}
	var firstErr error
	for _, dl := range dialects {
		if !dl.on {
			continue
		}
		dest := filepath.Join(dir, dl.file)
		if err := m.downloader(ctx, dl.d, dest); err != nil {
			m.log.Warn("download failed", "dialect", dl.d, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// loadDirectory picks the JSON feed if present, otherwise the classic
// per-file format (§4.2 "chosen by presence of files").
func (m *Manager) loadDirectory(dir string) error {
	jsonPath := filepath.Join(dir, jsonFeedName)
	if _, err := os.Stat(jsonPath); err == nil {
		return m.loadJSONFeed(jsonPath)
	}
	return m.loadClassic(dir)
}

type jsonFeed struct {
	Reflectors []jsonReflector `json:"reflectors"`
}

type jsonReflector struct {
	Name          string `json:"name"`
	ReflectorType string `json:"reflector_type"`
	IPv4          string `json:"ipv4"`
	Locked        bool   `json:"locked"`
}

func (m *Manager) loadJSONFeed(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("hostsdir: open %s: %w", path, err)
	}
	defer f.Close()

	var feed jsonFeed
	if err := json.NewDecoder(f).Decode(&feed); err != nil {
		return fmt.Errorf("hostsdir: parse %s: %w", path, err)
	}

	var dplusCount, dextraCount, dcsCount int
	for _, r := range feed.Reflectors {
		if r.IPv4 == "" {
			continue
		}
		ip := net.ParseIP(r.IPv4)
		if ip == nil {
			m.log.Warn("unresolvable ipv4 in reflectors feed", "name", r.Name)
			continue
		}
		callsign := dstarconst.GatewayCallsign(r.Name)

		switch r.ReflectorType {
		case "REF":
			if m.enabled.DPlus {
				m.cache.UpdateGateway(callsign, ip, dstarconst.DPlus, r.Locked, hostcache.SourceHostsFile)
				dplusCount++
			}
		case "XRF":
			if m.enabled.DExtra {
				m.cache.UpdateGateway(callsign, ip, dstarconst.DExtra, r.Locked, hostcache.SourceHostsFile)
				dextraCount++
			}
		case "DCS":
			if m.enabled.DCS {
				m.cache.UpdateGateway(callsign, ip, dstarconst.DCS, r.Locked, hostcache.SourceHostsFile)
				dcsCount++
			}
		default:
			m.log.Warn("unknown reflector_type in feed", "type", r.ReflectorType, "file", path)
		}
	}
	m.log.Info("loaded reflectors feed", "file", path, "dplus", dplusCount, "dextra", dextraCount, "dcs", dcsCount)
	return nil
}

func (m *Manager) loadClassic(dir string) error {
	files := []struct {
		on      bool
		d       dstarconst.Dialect
		name    string
	}{
		{m.enabled.DPlus, dstarconst.DPlus, dplusHostsFile},
		{m.enabled.DExtra, dstarconst.DExtra, dextraHostsFile},
		{m.enabled.DCS, dstarconst.DCS, dcsHostsFile},
		{m.enabled.XLX, dstarconst.XLX, xlxHostsFile},
	}
	var firstErr error
	for _, file := range files {
		if !file.on {
			continue
		}
		n, err := m.loadClassicFile(filepath.Join(dir, file.name), file.d)
		if err != nil {
			m.log.Warn("failed to load hosts file", "file", file.name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		m.log.Info("loaded hosts file", "file", file.name, "count", n)
	}
	return firstErr
}

// loadClassicFile parses "NAME  HOST  [LOCK]" lines, resolving HOST via
// DNS A-record lookup; unresolved lines are skipped with a warning
// (§4.2).
func (m *Manager) loadClassicFile(path string, dialect dstarconst.Dialect) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("hostsdir: open %s: %w", path, err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name, host := fields[0], fields[1]
		locked := len(fields) >= 3 && fields[2] == "1"

		ip, err := resolveHost(host)
		if err != nil {
			m.log.Warn("unresolvable host in classic hosts file", "name", name, "host", host, "error", err)
			continue
		}

		callsign := dstarconst.GatewayCallsign(name)
		m.cache.UpdateGateway(callsign, ip, dialect, locked, hostcache.SourceHostsFile)
		count++
	}
	return count, scanner.Err()
}

// resolveHost accepts either a literal dotted-quad or a DNS name,
// resolving the latter to its first A record.
func resolveHost(host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	addrs, err := net.LookupHost(host)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return ip, nil
		}
	}
	return nil, fmt.Errorf("no A record for %s", host)
}
