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

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase phase
		want  string
	}{
		{phaseLoading, "Parsing sources"},
		{phaseProject, "Discovering projects"},
		{phaseExtracting, "Extracting packages"},
		{phaseArchives, "Reading archives"},
		{phaseFlushing, "Writing facts"},
		{phase(42), "phase(42)"},
		{phase(-1), "phase(-1)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.phase.String())
		})
	}
}

func TestNewProgress(t *testing.T) {
	// stderr is not a terminal under go test, so every run is silent.
	for _, globals := range []GlobalFlags{{}, {Quiet: true}, {JSON: true}, {NoColor: true}} {
		p := newProgress(globals)
		assert.False(t, p.enabled(), "%+v", globals)
		assert.Nil(t, p.start(phaseExtracting, 10))
	}
}

func TestProgress_Disabled(t *testing.T) {
	var p progress
	bar := p.start(phaseArchives, 3)
	assert.Nil(t, bar)
	advance(bar)
	finish(bar)
}

func TestProgress_Phases(t *testing.T) {
	tests := []struct {
		name  string
		phase phase
		total int64
		steps int
	}{
		{"source files", phaseLoading, 3, 3},
		{"packages", phaseExtracting, 2, 2},
		{"archives", phaseArchives, 1, 1},
		{"no archives", phaseArchives, 0, 0},
		{"project spinner", phaseProject, -1, 1},
		{"flush spinner", phaseFlushing, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := progress{w: &buf, noColor: true}
			bar := p.start(tt.phase, tt.total)
			require.NotNil(t, bar)
			for i := 0; i < tt.steps; i++ {
				advance(bar)
			}
			assert.EqualValues(t, tt.steps, bar.State().CurrentNum)
			finish(bar)
			if tt.total > 0 {
				assert.True(t, bar.IsFinished())
			}
		})
	}
}
