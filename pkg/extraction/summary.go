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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SummaryFile is the run summary file name inside the summary directory.
const SummaryFile = "last-run.json"

// RunSummary records what one extraction run did.
type RunSummary struct {
	RunID     string `json:"run_id"`
	ProjectID string `json:"project_id"`
	Output    string `json:"output"`

	FilesLoaded  int `json:"files_loaded"`
	FilesFailed  int `json:"files_failed"`
	SyntaxErrors int `json:"syntax_errors"`

	PackagesProcessed int      `json:"packages_processed"`
	PackagesFailed    int      `json:"packages_failed"`
	FailedPackages    []string `json:"failed_packages,omitempty"`
	ArchivesProcessed int      `json:"archives_processed"`
	ArchivesFailed    int      `json:"archives_failed"`

	TriplesEmitted int64 `json:"triples_emitted"`
	TriplesWritten int64 `json:"triples_written"`
	Flushes        int64 `json:"flushes"`

	RegisterResets  int   `json:"register_resets"`
	TypeVarResets   int   `json:"typevar_resets"`
	TypeVarFailures int64 `json:"typevar_failures"`
	FollowsExpanded int64 `json:"follows_expanded"`
	FollowsSkipped  int64 `json:"follows_skipped"`

	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// NewRunSummary starts a summary with a fresh run id.
func NewRunSummary(projectID string) *RunSummary {
	return &RunSummary{
		RunID:     uuid.NewString(),
		ProjectID: projectID,
		StartTime: time.Now().UTC().Format(time.RFC3339),
	}
}

// Finish stamps the end time and duration.
func (r *RunSummary) Finish(err error) {
	end := time.Now().UTC()
	r.EndTime = end.Format(time.RFC3339)
	if start, perr := time.Parse(time.RFC3339, r.StartTime); perr == nil {
		r.DurationMS = end.Sub(start).Milliseconds()
	}
	if err != nil {
		r.Error = err.Error()
	}
}

// Failed reports whether any package or archive failed.
func (r *RunSummary) Failed() bool {
	return r.PackagesFailed > 0 || r.ArchivesFailed > 0 || r.Error != ""
}

// SummaryStore persists the last run summary in a directory.
type SummaryStore struct {
	dir string
}

// NewSummaryStore returns a store writing into dir.
func NewSummaryStore(dir string) *SummaryStore {
	return &SummaryStore{dir: dir}
}

// Path returns the summary file path.
func (st *SummaryStore) Path() string {
	return filepath.Join(st.dir, SummaryFile)
}

// Load reads the last summary. It returns nil, nil when none exists.
func (st *SummaryStore) Load() (*RunSummary, error) {
	data, err := os.ReadFile(st.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read run summary: %w", err)
	}
	var r RunSummary
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse run summary: %w", err)
	}
	return &r, nil
}

// Save writes r atomically (temp file + rename).
func (st *SummaryStore) Save(r *RunSummary) error {
	if err := os.MkdirAll(st.dir, 0755); err != nil {
		return fmt.Errorf("create summary dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	path := st.Path()
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write run summary temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename run summary: %w", err)
	}
	return nil
}

// Clear removes the summary file.
func (st *SummaryStore) Clear() error {
	if err := os.Remove(st.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove run summary: %w", err)
	}
	return nil
}
