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

// Package callsignlist loads a flat text file of callsigns (one per
// line) into an O(1) membership set, used for the whitelist, blacklist,
// and restrict lists of §4.5 Access control.
package callsignlist

import (
	"bufio"
	"os"
	"strings"
)

// List is a set of uppercase, space-trimmed callsigns.
type List struct {
	set map[string]struct{}
}

// Empty returns a List with no members.
func Empty() *List {
	return &List{set: make(map[string]struct{})}
}

// Load reads a callsign-per-line text file. Blank lines and lines
// starting with '#' are ignored. Missing files are treated as an empty
// list rather than an error, since every access-control list is
// optional.
func Load(path string) (*List, error) {
	l := Empty()
	if path == "" {
		return l, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		l.set[strings.ToUpper(line)] = struct{}{}
	}
	return l, scanner.Err()
}

// Contains reports whether callsign (any padding) is a member. Lookup
// trims trailing spaces so both padded and bare forms match; for an
// 8-byte callsign with a module letter, the 7-character base is tried too.
func (l *List) Contains(callsign string) bool {
	if l == nil {
		return false
	}
	key := strings.ToUpper(strings.TrimRight(callsign, " "))
	if _, ok := l.set[key]; ok {
		return true
	}
	if len(key) > 7 {
		_, ok := l.set[strings.TrimRight(key[:7], " ")]
		return ok
	}
	return false
}

// Len returns the number of callsigns loaded.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.set)
}
