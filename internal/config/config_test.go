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

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLowercase = `
[gateway]
Callsign = W1AAA
Address = 0.0.0.0

[Log]
Level = info

[MQTT]
Enabled = false

[Paths]
HostsFilesInternetDir = /etc/dstargateway

[Hosts Files]
DExtra = true
DPlus = true
DCS = true
XLX = true
ReloadHours = 24

[Repeater 1]
Callsign = W1AAA
Band = A
Protocol = Homebrew
ListenPort = 40000
Reconnect = N

[IRCDDB 1]
Host = www.ircddb.net
Port = 9007
Enabled = true
`

const sampleTitleCase = `
[General]
Callsign = W1AAA

[Log]
Level = debug

[MQTT]
Enabled = false

[Paths]

[Hosts Files]

[Repeater 1]
Callsign = W1AAA
Band = B
Protocol = Icom
ListenPort = 40001
Reconnect = F
`

func TestLoadLowercaseSchema(t *testing.T) {
	cfg, err := Load(strings.NewReader(sampleLowercase))
	require.NoError(t, err)
	assert.Equal(t, "W1AAA", cfg.Gateway.Callsign)
	assert.Equal(t, LogLevelInfo, cfg.Log.Level)
	require.Len(t, cfg.Repeaters, 1)
	assert.Equal(t, byte('A'), cfg.Repeaters[0].Band)
	require.Len(t, cfg.IRCDDBs, 1)
	assert.Equal(t, "www.ircddb.net", cfg.IRCDDBs[0].Host)
}

func TestLoadTitleCaseSchema(t *testing.T) {
	cfg, err := Load(strings.NewReader(sampleTitleCase))
	require.NoError(t, err)
	assert.Equal(t, "W1AAA", cfg.Gateway.Callsign)
	assert.Equal(t, LogLevelDebug, cfg.Log.Level)
	require.Len(t, cfg.Repeaters, 1)
	assert.Equal(t, ReconnectFixed, cfg.Repeaters[0].Reconnect)
}

func TestLoadMissingCallsignFailsValidation(t *testing.T) {
	bad := strings.Replace(sampleLowercase, "Callsign = W1AAA\nAddress", "Address", 1)
	_, err := Load(strings.NewReader(bad))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayCallsignRequired)
}

func TestLoadNoRepeatersFailsValidation(t *testing.T) {
	withoutRepeater := strings.Split(sampleLowercase, "[Repeater 1]")[0]
	_, err := Load(strings.NewReader(withoutRepeater))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRepeatersConfigured)
}

func TestLoadInvalidReconnectAfterMinutes(t *testing.T) {
	withBadReconnect := sampleLowercase + "\n[Repeater 2]\nCallsign = W1AAB\nBand = B\nListenPort = 40001\nReconnect = A\nReconnectAfter = 7\n"
	_, err := Load(strings.NewReader(withBadReconnect))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidReconnectAfter)
}

func TestRepeaterSectionsUpToFourAreRead(t *testing.T) {
	multi := sampleLowercase +
		"\n[Repeater 2]\nCallsign = W1AAB\nBand = B\nListenPort = 40001\nReconnect = N\n" +
		"\n[Repeater 3]\nCallsign = W1AAC\nBand = C\nListenPort = 40002\nReconnect = N\n"
	cfg, err := Load(strings.NewReader(multi))
	require.NoError(t, err)
	assert.Len(t, cfg.Repeaters, 3)
}
