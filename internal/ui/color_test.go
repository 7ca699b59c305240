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

package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func noColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = original })
}

func TestInitColors(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()

	color.NoColor = false
	InitColors(false)
	assert.False(t, color.NoColor)
	InitColors(true)
	assert.True(t, color.NoColor)
	InitColors(false)
	assert.True(t, color.NoColor, "a disabled terminal is never re-enabled")
}

func TestPrinter(t *testing.T) {
	noColor(t)

	tests := []struct {
		name  string
		print func(p *Printer)
		want  string
	}{
		{"success", func(p *Printer) { p.Success("wrote 12 facts") }, "✓ wrote 12 facts\n"},
		{"warning", func(p *Printer) { p.Warning("skipped lib/x.jar") }, "⚠ skipped lib/x.jar\n"},
		{"error", func(p *Printer) { p.Error("package p failed") }, "✗ package p failed\n"},
		{"info", func(p *Printer) { p.Info("loading sources") }, "ℹ loading sources\n"},
		{"header", func(p *Printer) { p.Header("Last Run") }, "Last Run\n========\n"},
		{"subheader", func(p *Printer) { p.SubHeader("Archives:") }, "Archives:\n"},
		{"printf", func(p *Printer) { p.Printf("    - %s\n", "core") }, "    - core\n"},
		{"field", func(p *Printer) { p.Field(10, "Facts:", 42) }, "  Facts:    42\n"},
		{"field overflow", func(p *Printer) { p.Field(3, "Packages:", 7) }, "  Packages: 7\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.print(NewPrinter(&buf))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestTextHelpers(t *testing.T) {
	noColor(t)

	assert.Equal(t, "Project ID:", Label("Project ID:"))
	assert.Equal(t, "/path/to/out.nt", DimText("/path/to/out.nt"))
	assert.Equal(t, "42", CountText(42))
	assert.Equal(t, "0", FailedText(0))
	assert.Equal(t, "3", FailedText(3))
}

func TestFailedText_Colored(t *testing.T) {
	original := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = original }()

	assert.Equal(t, "0", FailedText(0))
	assert.Contains(t, FailedText(2), "\x1b[")
}

func TestDurationText(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1234 * time.Microsecond, "1ms"},
		{250 * time.Millisecond, "250ms"},
		{1540 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DurationText(tt.in))
		})
	}
}
