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

package config

// LogLevel is the gateway's logging verbosity (§9.1 of the ambient stack).
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ReconnectKind is the string form of dstarconst.ReconnectKind as it
// appears in the config file's "Reconnect" key.
type ReconnectKind string

const (
	ReconnectNever ReconnectKind = "N"
	ReconnectFixed ReconnectKind = "F"
	ReconnectAfter ReconnectKind = "A"
)

// DialectName names a reflector dialect as written in config keys
// ("DExtra", "D-Plus", "DCS", "XLX").
type DialectName string

const (
	DialectDExtra DialectName = "DExtra"
	DialectDPlus  DialectName = "D-Plus"
	DialectDCS    DialectName = "DCS"
	DialectXLX    DialectName = "XLX"
)
