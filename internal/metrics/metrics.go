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

// Package metrics exposes a small Prometheus /metrics endpoint for
// per-dialect link counts, cache size, and per-peer malformed-frame
// counters (spec §7 "increment a per-peer counter"), grounded on the
// teacher's internal/metrics/prometheus.go registration pattern.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the gateway's registered collectors.
type Metrics struct {
	LinksActive        *prometheus.GaugeVec
	LinkAttemptsTotal   *prometheus.CounterVec
	CacheRecordsTotal   prometheus.Gauge
	MalformedFramesTotal *prometheus.CounterVec
	FramesForwardedTotal *prometheus.CounterVec
}

// New creates and registers the gateway's metrics.
func New() *Metrics {
	m := &Metrics{
		LinksActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dstargateway_links_active",
			Help: "Number of repeater bands currently linked, by dialect",
		}, []string{"dialect"}),
		LinkAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dstargateway_link_attempts_total",
			Help: "Total link attempts, by dialect and outcome",
		}, []string{"dialect", "outcome"}),
		CacheRecordsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dstargateway_cache_records_total",
			Help: "Number of gateway records currently held in the host cache",
		}),
		MalformedFramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dstargateway_malformed_frames_total",
			Help: "Total malformed frames dropped, by peer address",
		}, []string{"peer"}),
		FramesForwardedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dstargateway_frames_forwarded_total",
			Help: "Total voice frames forwarded, by direction",
		}, []string{"direction"}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(m.LinksActive)
	prometheus.MustRegister(m.LinkAttemptsTotal)
	prometheus.MustRegister(m.CacheRecordsTotal)
	prometheus.MustRegister(m.MalformedFramesTotal)
	prometheus.MustRegister(m.FramesForwardedTotal)
}

// RecordLinkAttempt increments the per-dialect attempt counter.
func (m *Metrics) RecordLinkAttempt(dialect, outcome string) {
	m.LinkAttemptsTotal.WithLabelValues(dialect, outcome).Inc()
}

// SetLinksActive sets the current linked-band count for a dialect.
func (m *Metrics) SetLinksActive(dialect string, n float64) {
	m.LinksActive.WithLabelValues(dialect).Set(n)
}

// SetCacheRecordsTotal sets the current host cache size.
func (m *Metrics) SetCacheRecordsTotal(n float64) {
	m.CacheRecordsTotal.Set(n)
}

// IncMalformedFrames increments the per-peer malformed-frame counter.
func (m *Metrics) IncMalformedFrames(peer string) {
	m.MalformedFramesTotal.WithLabelValues(peer).Inc()
}

// IncFramesForwarded increments the forwarded-frame counter for a direction.
func (m *Metrics) IncFramesForwarded(direction string) {
	m.FramesForwardedTotal.WithLabelValues(direction).Inc()
}
