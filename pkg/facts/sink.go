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
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// DefaultThreshold is the number of emits after which the window is flushed.
const DefaultThreshold = 10000

// DefaultOutput is the output file used when none is configured.
const DefaultOutput = "triples.nt"

// FlushError reports an I/O failure while appending a window to the output
// file. It is fatal for the run.
type FlushError struct {
	Path    string
	Triples int
	Err     error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("flush %d triples to %s: %v", e.Triples, e.Path, e.Err)
}

func (e *FlushError) Unwrap() error { return e.Err }

// SinkConfig configures a Sink.
type SinkConfig struct {
	// Path of the N-Triples output file. Windows are appended to it.
	Path string
	// Threshold is the emit count that triggers a flush (default 10000).
	Threshold int
	Logger    *slog.Logger
}

// SinkStats summarises what a sink has done so far.
type SinkStats struct {
	Emitted      int64 // Emit calls
	Written      int64 // triples appended to the file
	Deduplicated int64 // emits dropped because the window already held the triple
	Flushes      int64
}

// Sink buffers triples in a set-like window and appends the window to the
// output file once more than Threshold emits have accumulated. Output order
// follows first emission within each window.
//
// The first flush failure is sticky: later emits are dropped and Err, Flush
// and Close all return the same *FlushError.
type Sink struct {
	path      string
	threshold int
	logger    *slog.Logger

	window  []Triple
	seen    map[Triple]struct{}
	counter int

	stats SinkStats
	err   error
}

// NewSink creates a sink writing to cfg.Path. The file is not touched until
// the first flush.
func NewSink(cfg SinkConfig) *Sink {
	if cfg.Path == "" {
		cfg.Path = DefaultOutput
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Sink{
		path:      cfg.Path,
		threshold: cfg.Threshold,
		logger:    cfg.Logger,
		seen:      make(map[Triple]struct{}),
	}
}

// Path returns the output file path.
func (s *Sink) Path() string { return s.path }

// Emit adds a triple to the current window, flushing first if the window
// has gone past the threshold.
func (s *Sink) Emit(t Triple) {
	if s.err != nil {
		return
	}
	s.counter++
	s.stats.Emitted++
	sinkMetrics.init()
	sinkMetrics.emitted.Inc()

	if _, dup := s.seen[t]; dup {
		s.stats.Deduplicated++
		sinkMetrics.deduplicated.Inc()
	} else {
		s.seen[t] = struct{}{}
		s.window = append(s.window, t)
	}

	if s.counter > s.threshold {
		_ = s.flush()
	}
}

// Err returns the sticky flush error, if any.
func (s *Sink) Err() error { return s.err }

// Stats returns a snapshot of the sink counters.
func (s *Sink) Stats() SinkStats { return s.stats }

// Pending returns the number of distinct triples waiting in the window.
func (s *Sink) Pending() int { return len(s.window) }

// Flush appends the current window to the output file and starts a new one.
func (s *Sink) Flush() error {
	if s.err != nil {
		return s.err
	}
	return s.flush()
}

// Close performs the final flush. It is safe to call more than once.
func (s *Sink) Close() error {
	return s.Flush()
}

func (s *Sink) flush() error {
	defer func() {
		s.window = nil
		s.seen = make(map[Triple]struct{})
		s.counter = 0
	}()
	if len(s.window) == 0 {
		return nil
	}

	start := time.Now()
	n := len(s.window)
	if err := s.appendWindow(); err != nil {
		s.err = &FlushError{Path: s.path, Triples: n, Err: err}
		s.logger.Error("facts.flush.error", "path", s.path, "triples", n, "err", err)
		return s.err
	}

	s.stats.Written += int64(n)
	s.stats.Flushes++
	sinkMetrics.init()
	sinkMetrics.flushes.Inc()
	sinkMetrics.written.Add(float64(n))
	sinkMetrics.flushDuration.Observe(time.Since(start).Seconds())
	s.logger.Debug("facts.flush", "path", s.path, "triples", n, "dur_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *Sink) appendWindow() error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := WriteTriples(w, s.window); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
