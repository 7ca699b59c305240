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
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jfacts/internal/errors"
)

// runArchive executes the 'archive' CLI command: extract the packages of
// compiled jars without reading any sources. It uses the project file when
// one is found and the defaults otherwise.
//
// Examples:
//
//	jfacts archive lib/guava.jar
//	jfacts archive -o deps.nt lib/*.jar
func runArchive(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	outputPath := fs.StringP("output", "o", "", "N-Triples output file")
	appendOutput := fs.Bool("append", false, "Append to the output file instead of replacing it")
	noGenerics := fs.Bool("no-generics", false, "Skip type variables and parameterized types")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: jfacts archive [options] <jar>...

Extracts the packages of compiled jars. Each class becomes a declaration
entity linked to its jar; no sources are read.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(errors.ExitInput)
	}
	if fs.NArg() == 0 {
		fatal(errors.NewInputError(
			"No archives given",
			"The archive command needs at least one jar path",
			"Run 'jfacts archive path/to/lib.jar'",
		), globals)
	}

	logger := globals.Logger()
	slog.SetDefault(logger)

	cfg, err := archiveConfig(globals.ConfigPath, fs.Args())
	if err != nil {
		fatal(errors.NewConfigError("Cannot load jfacts configuration", err.Error(), "Fix .jfacts/project.yaml or pass --config", err), globals)
	}
	if *outputPath != "" {
		cfg.Output = *outputPath
	}
	if *noGenerics {
		cfg.Features.Generics = false
	}
	if globals.Verbose > 0 {
		cfg.Features.Verbose = true
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	run := &pipeline{
		cfg:          cfg,
		logger:       logger,
		progress:     newProgress(globals),
		appendOutput: *appendOutput,
	}
	summary, err := run.Run(ctx)
	finishRun(summary, err, globals)
}

// archiveConfig loads the project file, or defaults rooted at the current
// directory when there is none, and makes jars the only input. Jar paths
// given on the command line are relative to the current directory.
func archiveConfig(configPath string, jars []string) (*Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		if configPath != "" || !stderrors.Is(err, errConfigNotFound) {
			return nil, err
		}
		cwd, werr := os.Getwd()
		if werr != nil {
			return nil, werr
		}
		cfg = DefaultConfig(filepath.Base(cwd))
		cfg.root = cwd
	}
	cfg.Archives = nil
	for _, jar := range jars {
		abs, err := filepath.Abs(jar)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", jar, err)
		}
		cfg.Archives = append(cfg.Archives, abs)
	}
	cfg.Features.ProjectStructure = false
	return cfg, nil
}
