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

// Package logging sets up the gateway's console logger: log/slog with
// github.com/lmittmann/tint as the colorized handler, the same pairing
// cmd/root.go uses, wrapped in a repeat-suppressing handler so a
// flapping peer or a jammed band doesn't flood the console with an
// identical line every tick. Grounded on BaseCommon/Log.h's
// m_repeat/m_last suppression counters and on the teacher's
// internal/logging channel-relay Logger, generalized from "two global
// loggers" (access/error) to one suppressing handler wrapping any
// handler.
package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/lmittmann/tint"
)

// Level is the gateway's logging verbosity, set from config.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds the gateway's root logger: one tint console handler
// wrapped with repeat-suppression. The configured level picks its
// stream: stdout for debug or info, stderr for warn or error; every
// record goes to that one stream.
func New(level Level) *slog.Logger {
	w := os.Stdout
	if level == LevelWarn || level == LevelError {
		w = os.Stderr
	}
	handler := tint.NewHandler(w, &tint.Options{Level: level.slogLevel()})
	return slog.New(NewSuppressingHandler(handler, defaultRepeatThreshold))
}

// defaultRepeatThreshold is the number of identical consecutive
// records emitted verbatim before suppression kicks in.
const defaultRepeatThreshold = 3

// SuppressingHandler drops identical consecutive log records after
// repeatThreshold occurrences, emitting a single "repeated N times"
// summary record when a different message finally breaks the run.
// Identity is (level, message, attrs-rendered-as-string): cheap and
// sufficient since the records this gateway emits at high frequency
// carry the same attribute set on every repeat (peer address, band).
type SuppressingHandler struct {
	next      slog.Handler
	threshold int

	mu        sync.Mutex
	lastKey   string
	lastCount int
	lastRec   slog.Record
}

// NewSuppressingHandler wraps next, suppressing runs of more than
// threshold identical records.
func NewSuppressingHandler(next slog.Handler, threshold int) *SuppressingHandler {
	return &SuppressingHandler{next: next, threshold: threshold}
}

func (h *SuppressingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SuppressingHandler) Handle(ctx context.Context, rec slog.Record) error {
	key := recordKey(rec)

	h.mu.Lock()
	defer h.mu.Unlock()

	if key == h.lastKey {
		h.lastCount++
		if h.lastCount <= h.threshold {
			return h.next.Handle(ctx, rec)
		}
		return nil
	}

	// New message: flush a summary for the suppressed run, if any.
	if h.lastCount > h.threshold {
		summary := slog.Record{Time: rec.Time, Level: h.lastRec.Level, Message: h.lastRec.Message, PC: h.lastRec.PC}
		summary.AddAttrs(slog.Int("repeated", h.lastCount-h.threshold))
		_ = h.next.Handle(ctx, summary)
	}

	h.lastKey = key
	h.lastCount = 1
	h.lastRec = rec
	return h.next.Handle(ctx, rec)
}

func (h *SuppressingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SuppressingHandler{next: h.next.WithAttrs(attrs), threshold: h.threshold}
}

func (h *SuppressingHandler) WithGroup(name string) slog.Handler {
	return &SuppressingHandler{next: h.next.WithGroup(name), threshold: h.threshold}
}

func recordKey(rec slog.Record) string {
	key := rec.Level.String() + "|" + rec.Message
	rec.Attrs(func(a slog.Attr) bool {
		key += "|" + a.Key + "=" + a.Value.String()
		return true
	})
	return key
}
