// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package facts

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSink holds Prometheus metrics for the fact sink.
type metricsSink struct {
	once sync.Once

	emitted      prometheus.Counter
	deduplicated prometheus.Counter
	written      prometheus.Counter
	flushes      prometheus.Counter

	flushDuration prometheus.Histogram
}

var sinkMetrics metricsSink

func (m *metricsSink) init() {
	m.once.Do(func() {
		m.emitted = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_sink_emitted_total", Help: "Triples emitted to the sink"})
		m.deduplicated = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_sink_deduplicated_total", Help: "Emits dropped as duplicates within a window"})
		m.written = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_sink_written_total", Help: "Triples appended to the output file"})
		m.flushes = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_sink_flushes_total", Help: "Window flushes"})

		buckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
		m.flushDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "jfacts_sink_flush_seconds", Help: "Duration of window flushes", Buckets: buckets})

		prometheus.MustRegister(m.emitted, m.deduplicated, m.written, m.flushes, m.flushDuration)
	})
}
