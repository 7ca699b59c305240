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
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jfacts/internal/bootstrap"
	"github.com/kraklabs/jfacts/internal/errors"
	"github.com/kraklabs/jfacts/internal/output"
	"github.com/kraklabs/jfacts/internal/ui"
	"github.com/kraklabs/jfacts/pkg/extraction"
)

// StatusResult is the --json form of 'jfacts status'.
type StatusResult struct {
	ProjectID   string                 `json:"project_id"`
	Root        string                 `json:"root"`
	Modules     []string               `json:"modules,omitempty"`
	Output      string                 `json:"output"`
	OutputBytes int64                  `json:"output_bytes"`
	LastRun     *extraction.RunSummary `json:"last_run,omitempty"`
}

// runStatus executes the 'status' CLI command: show the project, its
// modules and the summary of the last run.
//
// Examples:
//
//	jfacts status
//	jfacts --json status
func runStatus(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: jfacts status [options]

Shows the project and the summary of the last extract or archive run.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(errors.ExitInput)
	}
	if *jsonOutput {
		globals.JSON = true
	}

	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		fatal(errors.NewConfigError("Cannot load jfacts configuration", err.Error(), "Run 'jfacts init' first", err), globals)
	}

	result, err := collectStatus(cfg)
	if err != nil {
		fatal(err, globals)
	}

	if globals.JSON {
		_ = output.JSON(result)
		return
	}
	printStatus(ui.Stdout, result)
}

// collectStatus gathers the status of cfg's project.
func collectStatus(cfg *Config) (*StatusResult, error) {
	result := &StatusResult{
		ProjectID: cfg.ProjectID,
		Root:      cfg.Root(),
		Output:    cfg.OutputPath(),
	}
	if modules, err := bootstrap.ListModules(cfg.Root(), nil); err == nil {
		result.Modules = modules
	}
	if fi, err := os.Stat(result.Output); err == nil {
		result.OutputBytes = fi.Size()
	}
	last, err := extraction.NewSummaryStore(cfg.StateDir()).Load()
	if err != nil {
		return nil, errors.NewConfigError("Cannot read the last run summary", err.Error(), "Run 'jfacts reset --yes' and extract again", err)
	}
	result.LastRun = last
	return result, nil
}

func printStatus(p *ui.Printer, r *StatusResult) {
	p.Header("jfacts Project Status")
	p.Field(12, "Project ID:", r.ProjectID)
	p.Field(12, "Root:", ui.DimText(r.Root))
	p.Field(12, "Output:", fmt.Sprintf("%s (%d bytes)", ui.DimText(r.Output), r.OutputBytes))
	if len(r.Modules) > 1 {
		p.Field(12, "Modules:", len(r.Modules))
		for _, m := range r.Modules[1:] {
			p.Printf("    - %s\n", m)
		}
	}
	p.Printf("\n")
	if r.LastRun == nil {
		p.Info("No extraction has run yet. Run 'jfacts extract'.")
		return
	}
	printRunSummary(p, r.LastRun)
}

// printRunSummary prints one run's counters.
func printRunSummary(p *ui.Printer, s *extraction.RunSummary) {
	p.SubHeader("Last Run:")
	p.Field(20, "Run ID:", s.RunID)
	p.Field(20, "Started:", s.StartTime)
	p.Field(20, "Duration:", ui.DurationText(time.Duration(s.DurationMS)*time.Millisecond))
	p.Field(20, "Source files:", ui.CountText(s.FilesLoaded))
	if s.SyntaxErrors > 0 || s.FilesFailed > 0 {
		p.Field(20, "Syntax errors:", ui.FailedText(s.SyntaxErrors))
		p.Field(20, "Unreadable files:", ui.FailedText(s.FilesFailed))
	}
	p.Field(20, "Packages:", ui.CountText(s.PackagesProcessed))
	p.Field(20, "Packages failed:", ui.FailedText(s.PackagesFailed))
	p.Field(20, "Archives:", ui.CountText(s.ArchivesProcessed))
	p.Field(20, "Archives failed:", ui.FailedText(s.ArchivesFailed))
	p.Field(20, "Triples emitted:", s.TriplesEmitted)
	p.Field(20, "Triples written:", s.TriplesWritten)
	p.Field(20, "Flushes:", s.Flushes)
	p.Field(20, "Register resets:", s.RegisterResets)
	p.Field(20, "Type-var resets:", s.TypeVarResets)
	p.Field(20, "Follows expanded:", s.FollowsExpanded)
	p.Field(20, "Follows skipped:", s.FollowsSkipped)

	for _, name := range s.FailedPackages {
		p.Error("package " + name)
	}
	switch {
	case s.Error != "":
		p.Error(s.Error)
	case s.Failed():
		p.Warning("Completed with failures")
	default:
		p.Success(fmt.Sprintf("Wrote %d facts to %s", s.TriplesWritten, s.Output))
	}
}
