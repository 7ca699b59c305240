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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jfacts/internal/errors"
	"github.com/kraklabs/jfacts/internal/ui"
	"github.com/kraklabs/jfacts/pkg/extraction"
)

func runReset(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: jfacts reset [options]

Removes the N-Triples output file and the last run summary. The project
file is kept.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(errors.ExitInput)
	}

	if !*confirm {
		fatal(errors.NewInputError(
			"Reset not confirmed",
			"This deletes the output file and the run summary",
			"Pass --yes to confirm",
		), globals)
	}

	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		fatal(errors.NewConfigError("Cannot load jfacts configuration", err.Error(), "Run 'jfacts init' first", err), globals)
	}

	removed, err := resetProject(cfg)
	if err != nil {
		fatal(errors.NewPermissionError("Reset failed", err.Error(), "Check permissions on the output file and .jfacts/", err), globals)
	}
	if len(removed) == 0 {
		ui.Info("Nothing to reset for project " + cfg.ProjectID)
		return
	}
	for _, path := range removed {
		ui.Successf("Removed %s", ui.DimText(path))
	}
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  jfacts extract    Extract the project again")
}

// resetProject deletes the output and the run summary, returning the paths
// that existed.
func resetProject(cfg *Config) ([]string, error) {
	var removed []string
	out := cfg.OutputPath()
	switch err := os.Remove(out); {
	case err == nil:
		removed = append(removed, out)
	case !os.IsNotExist(err):
		return removed, fmt.Errorf("remove output: %w", err)
	}

	store := extraction.NewSummaryStore(cfg.StateDir())
	if _, err := os.Stat(store.Path()); err == nil {
		removed = append(removed, store.Path())
	}
	if err := store.Clear(); err != nil {
		return removed, err
	}
	return removed, nil
}
