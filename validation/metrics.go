// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package validation

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "e2elive"

// Metrics counts the work done by a run. Each run owns its registry.
type Metrics struct {
	registry   *prometheus.Registry
	rounds     *prometheus.CounterVec
	mismatches *prometheus.CounterVec
	trivial    prometheus.Counter
}

// NewMetrics returns zeroed counters registered on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rounds_total",
			Help:      "Rounds processed, by phase.",
		}, []string{"phase"}),
		mismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "mismatches_total",
			Help:      "Mismatches found, by phase.",
		}, []string{"phase"}),
		trivial: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "trivial_rounds_total",
			Help:      "Reverse rounds whose payload was byte-identical to the forward snapshot.",
		}),
	}
	m.registry.MustRegister(m.rounds, m.mismatches, m.trivial)
	return m
}

// Registry exposes the registry the counters live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the counters to path in the prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) round(phase string) {
	m.rounds.WithLabelValues(phase).Inc()
}

func (m *Metrics) mismatch(phase string) {
	m.mismatches.WithLabelValues(phase).Inc()
}

func (m *Metrics) trivialRound() {
	m.trivial.Inc()
}
