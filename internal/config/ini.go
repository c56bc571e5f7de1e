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
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// rawSection is one [Name] block's key/value pairs in file order.
type rawSection struct {
	name string
	kv   map[string]string
}

var numberedSection = regexp.MustCompile(`^(.+?)\s+(\d+)$`)

// parseINI reads the case-sensitive section/key format §6 specifies:
// `[Section]` headers, `key = value` or `key=value` lines, `;`/`#`
// full-line comments, blank lines ignored. No library in the examples
// pack models repeated numbered sections ([Repeater 1]..[Repeater 4]),
// so this scanner-based reader is the pragmatic choice (DESIGN.md).
func parseINI(r io.Reader) ([]rawSection, error) {
	scanner := bufio.NewScanner(r)
	var sections []rawSection
	var current *rawSection

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			sections = append(sections, rawSection{name: line[1 : len(line)-1], kv: map[string]string{}})
			current = &sections[len(sections)-1]
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("config line %d: key outside any section", lineNo)
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			return nil, fmt.Errorf("config line %d: expected key=value", lineNo)
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		current.kv[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sections, nil
}

func find(sections []rawSection, name string) *rawSection {
	for i := range sections {
		if sections[i].name == name {
			return &sections[i]
		}
	}
	return nil
}

func findNumbered(sections []rawSection, prefix string) map[int]*rawSection {
	out := map[int]*rawSection{}
	for i := range sections {
		m := numberedSection.FindStringSubmatch(sections[i].name)
		if m == nil || m[1] != prefix {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		out[n] = &sections[i]
	}
	return out
}

func (s *rawSection) str(key, def string) string {
	if s == nil {
		return def
	}
	if v, ok := s.kv[key]; ok {
		return v
	}
	return def
}

func (s *rawSection) intVal(key string, def int) (int, error) {
	if s == nil {
		return def, nil
	}
	v, ok := s.kv[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func (s *rawSection) boolVal(key string, def bool) (bool, error) {
	if s == nil {
		return def, nil
	}
	v, ok := s.kv[key]
	if !ok {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
}

// Load parses, defaults, and validates a gateway config file.
func Load(r io.Reader) (Config, error) {
	sections, err := parseINI(r)
	if err != nil {
		return Config{}, err
	}

	gatewaySection := find(sections, "gateway")
	schema := "lowercase"
	if general := find(sections, "General"); general != nil {
		gatewaySection = general
		schema = "TitleCase"
	}
	_ = schema // resolved per §9 Design Notes: General takes priority when both present

	cfg := Config{}

	cfg.Gateway = Gateway{
		Callsign: gatewaySection.str("Callsign", ""),
		Address:  gatewaySection.str("Address", "0.0.0.0"),
	}

	logSection := find(sections, "Log")
	cfg.Log = Log{
		Level: LogLevel(logSection.str("Level", string(LogLevelInfo))),
		File:  logSection.str("File", ""),
	}

	mqttSection := find(sections, "MQTT")
	mqttEnabled, err := mqttSection.boolVal("Enabled", false)
	if err != nil {
		return Config{}, err
	}
	mqttPort, err := mqttSection.intVal("Port", 1883)
	if err != nil {
		return Config{}, err
	}
	cfg.MQTT = MQTT{
		Enabled:  mqttEnabled,
		Host:     mqttSection.str("Host", ""),
		Port:     mqttPort,
		ClientID: mqttSection.str("ClientID", "dstargateway"),
		Username: mqttSection.str("Username", ""),
		Password: mqttSection.str("Password", ""),
	}

	pathsSection := find(sections, "Paths")
	cfg.Paths = Paths{
		HostsFilesInternetDir: pathsSection.str("HostsFilesInternetDir", "."),
		HostsFilesCustomDir:   pathsSection.str("HostsFilesCustomDir", "."),
		LanguageDir:           pathsSection.str("LanguageDir", "."),
	}

	hostsSection := find(sections, "Hosts Files")
	dextraOn, err := hostsSection.boolVal("DExtra", true)
	if err != nil {
		return Config{}, err
	}
	dplusOn, err := hostsSection.boolVal("DPlus", true)
	if err != nil {
		return Config{}, err
	}
	dcsOn, err := hostsSection.boolVal("DCS", true)
	if err != nil {
		return Config{}, err
	}
	xlxOn, err := hostsSection.boolVal("XLX", true)
	if err != nil {
		return Config{}, err
	}
	reloadHours, err := hostsSection.intVal("ReloadHours", 24)
	if err != nil {
		return Config{}, err
	}
	cfg.HostsFiles = HostsFiles{
		DExtra: dextraOn,
		DPlus:  dplusOn,
		DCS:    dcsOn,
		XLX:    xlxOn,
		Reload: time.Duration(reloadHours) * time.Hour,
	}

	cfg.Repeaters, err = loadRepeaters(sections)
	if err != nil {
		return Config{}, err
	}
	cfg.IRCDDBs, err = loadIRCDDBs(sections)
	if err != nil {
		return Config{}, err
	}

	aprsSection := find(sections, "APRS")
	aprsEnabled, err := aprsSection.boolVal("Enabled", false)
	if err != nil {
		return Config{}, err
	}
	aprsPort, err := aprsSection.intVal("Port", 14580)
	if err != nil {
		return Config{}, err
	}
	cfg.APRS = APRS{
		Enabled:  aprsEnabled,
		Host:     aprsSection.str("Host", ""),
		Port:     aprsPort,
		Passcode: aprsSection.str("Passcode", ""),
	}

	cfg.Dextra, err = loadDialectTuning(sections, "Dextra")
	if err != nil {
		return Config{}, err
	}
	cfg.DPlus, err = loadDialectTuning(sections, "D-Plus")
	if err != nil {
		return Config{}, err
	}
	cfg.DCS, err = loadDialectTuning(sections, "DCS")
	if err != nil {
		return Config{}, err
	}
	cfg.XLX, err = loadDialectTuning(sections, "XLX")
	if err != nil {
		return Config{}, err
	}

	accessSection := find(sections, "Access Control")
	cfg.AccessControl = AccessControl{
		WhitelistFile: accessSection.str("WhitelistFile", ""),
		BlacklistFile: accessSection.str("BlacklistFile", ""),
		RestrictFile:  accessSection.str("RestrictFile", ""),
	}

	metricsSection := find(sections, "Metrics")
	cfg.Metrics = Metrics{
		ListenAddress: metricsSection.str("ListenAddress", ""),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadRepeaters(sections []rawSection) ([]Repeater, error) {
	numbered := findNumbered(sections, "Repeater")
	var out []Repeater
	for n := 1; n <= 4; n++ {
		s, ok := numbered[n]
		if !ok {
			continue
		}
		port, err := s.intVal("ListenPort", 40000)
		if err != nil {
			return nil, err
		}
		reconnectAfter, err := s.intVal("ReconnectAfter", 0)
		if err != nil {
			return nil, err
		}
		ircddbIndex, err := s.intVal("IRCDDB", 0)
		if err != nil {
			return nil, err
		}
		band := s.str("Band", "A")
		var bandByte byte = 'A'
		if len(band) > 0 {
			bandByte = band[0]
		}
		out = append(out, Repeater{
			Callsign:       s.str("Callsign", ""),
			Band:           bandByte,
			Protocol:       s.str("Protocol", "Homebrew"),
			ListenPort:     port,
			Reconnect:      ReconnectKind(s.str("Reconnect", string(ReconnectNever))),
			ReconnectAfter: reconnectAfter,
			IRCDDBIndex:    ircddbIndex,
		})
	}
	return out, nil
}

func loadIRCDDBs(sections []rawSection) ([]IRCDDB, error) {
	numbered := findNumbered(sections, "IRCDDB")
	var out []IRCDDB
	for n := 1; n <= 4; n++ {
		s, ok := numbered[n]
		if !ok {
			continue
		}
		enabled, err := s.boolVal("Enabled", true)
		if err != nil {
			return nil, err
		}
		port, err := s.intVal("Port", 9007)
		if err != nil {
			return nil, err
		}
		out = append(out, IRCDDB{
			Host:    s.str("Host", ""),
			Port:    port,
			Enabled: enabled,
		})
	}
	return out, nil
}

func loadDialectTuning(sections []rawSection, name string) (DialectTuning, error) {
	s := find(sections, name)
	enabled, err := s.boolVal("Enabled", true)
	if err != nil {
		return DialectTuning{}, err
	}
	keepaliveSecs, err := s.intVal("KeepaliveSeconds", 1)
	if err != nil {
		return DialectTuning{}, err
	}
	timeoutSecs, err := s.intVal("LinkTimeoutSeconds", 25)
	if err != nil {
		return DialectTuning{}, err
	}
	return DialectTuning{
		Enabled:           enabled,
		KeepaliveInterval: time.Duration(keepaliveSecs) * time.Second,
		LinkTimeout:       time.Duration(timeoutSecs) * time.Second,
	}, nil
}
