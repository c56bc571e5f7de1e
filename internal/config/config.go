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

// Package config loads and validates the gateway's INI-like
// configuration file: one hand-rolled parser (ini.go, justified in
// DESIGN.md — no library in the examples pack models the repeated
// numbered sections this format requires), a Config struct per
// section, and a sentinel-error Validate() per section in the
// teacher's internal/config/validate.go style.
package config

import "time"

// Config is the fully-parsed, defaulted, and validated gateway
// configuration (§6 External Interfaces).
type Config struct {
	Gateway      Gateway
	Log          Log
	MQTT         MQTT
	Paths        Paths
	HostsFiles   HostsFiles
	Repeaters    []Repeater
	IRCDDBs      []IRCDDB
	APRS         APRS
	Dextra       DialectTuning
	DPlus        DialectTuning
	DCS          DialectTuning
	XLX          DialectTuning
	AccessControl AccessControl
	Metrics      Metrics
}

// Metrics is the optional [Metrics] section: where the ambient
// Prometheus /metrics endpoint (§9.7) listens. Empty ListenAddress
// disables the endpoint.
type Metrics struct {
	ListenAddress string
}

// Gateway is [gateway] / [General] (§9 Design Notes: two schema
// aliases accepted on read, resolved by auto-detection in ini.go).
type Gateway struct {
	Callsign string
	Address  string // bind address for local repeater protocols
}

// Log is [Log].
type Log struct {
	Level LogLevel
	File  string // parsed but not used: logging always goes to the console
}

// MQTT is [MQTT].
type MQTT struct {
	Enabled  bool
	Host     string
	Port     int
	ClientID string
	Username string
	Password string
}

// Paths is [Paths]: on-disk locations for hosts files and echo/info
// "language" audio files.
type Paths struct {
	HostsFilesInternetDir string
	HostsFilesCustomDir   string
	LanguageDir           string
}

// HostsFiles is [Hosts Files]: which dialects load a directory at
// all, and the reload interval.
type HostsFiles struct {
	DExtra  bool
	DPlus   bool
	DCS     bool
	XLX     bool
	Reload  time.Duration
}

// Repeater is one [Repeater N] section (N = 1..4).
type Repeater struct {
	Callsign        string
	Band            byte // 'A'..'D'
	Protocol        string // "Icom", "Homebrew", "Dummy"
	ListenPort      int
	Reconnect       ReconnectKind
	ReconnectAfter  int // minutes, only meaningful when Reconnect == ReconnectAfter
	IRCDDBIndex     int // nonzero: "/CALLSIGN" routes for this band resolve through every enabled [IRCDDB N] backend; 0 = none
}

// IRCDDB is one [IRCDDB N] section (N = 1..4).
type IRCDDB struct {
	Host    string
	Port    int
	Enabled bool
}

// APRS is the optional [APRS] section.
type APRS struct {
	Enabled  bool
	Host     string
	Port     int
	Passcode string
}

// DialectTuning is the optional per-dialect section
// ([Dextra]/[D-Plus]/[DCS]/[XLX]). Only Enabled is used, to decide which
// reflector handlers start; KeepaliveInterval and LinkTimeout are parsed
// but the handlers keep the timings built into their dialect descriptors
// in internal/reflector.
type DialectTuning struct {
	Enabled           bool
	KeepaliveInterval time.Duration
	LinkTimeout       time.Duration
}

// AccessControl is the optional [Access Control] section: paths to
// newline-delimited callsign list files.
type AccessControl struct {
	WhitelistFile string
	BlacklistFile string
	RestrictFile  string
}
