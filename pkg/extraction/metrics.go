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

package extraction

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsExtraction holds Prometheus metrics for the extraction engine.
type metricsExtraction struct {
	once sync.Once

	// Traversal
	followsExpanded prometheus.Counter
	followsSkipped  prometheus.Counter
	registerResets  prometheus.Counter

	// Type variables
	typeVarHits     prometheus.Counter
	typeVarResets   prometheus.Counter
	typeVarFailures prometheus.Counter

	// Units
	packagesExtracted prometheus.Counter
	packagesFailed    prometheus.Counter
	archivesProcessed prometheus.Counter

	// Durations
	packageDuration prometheus.Histogram
	archiveDuration prometheus.Histogram
}

var extMetrics metricsExtraction

func (m *metricsExtraction) init() {
	m.once.Do(func() {
		m.followsExpanded = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_follows_expanded_total", Help: "Followed entities that were expanded"})
		m.followsSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_follows_skipped_total", Help: "Followed entities left to their own package or already visited"})
		m.registerResets = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_register_resets_total", Help: "Visited register clears"})

		m.typeVarHits = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_typevar_memo_hits_total", Help: "Type variable owners served from the memo"})
		m.typeVarResets = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_typevar_memo_resets_total", Help: "Type variable memo clears"})
		m.typeVarFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_typevar_unresolved_total", Help: "Type variables whose declaring scope was not found"})

		m.packagesExtracted = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_packages_extracted_total", Help: "Packages extracted"})
		m.packagesFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_packages_failed_total", Help: "Packages whose extraction failed"})
		m.archivesProcessed = prometheus.NewCounter(prometheus.CounterOpts{Name: "jfacts_archives_processed_total", Help: "Jar archives processed"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.packageDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "jfacts_package_seconds", Help: "Duration of package extraction", Buckets: buckets})
		m.archiveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "jfacts_archive_seconds", Help: "Duration of archive extraction", Buckets: buckets})

		prometheus.MustRegister(
			m.followsExpanded, m.followsSkipped, m.registerResets,
			m.typeVarHits, m.typeVarResets, m.typeVarFailures,
			m.packagesExtracted, m.packagesFailed, m.archivesProcessed,
			m.packageDuration, m.archiveDuration,
		)
	})
}
