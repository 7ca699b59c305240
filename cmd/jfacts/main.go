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

// Package main implements the jfacts CLI, which extracts WOC facts from
// Java projects into an N-Triples file.
//
// Usage:
//
//	jfacts init                     Create .jfacts/project.yaml
//	jfacts extract                  Extract the project's facts
//	jfacts archive <jar>...         Extract facts from compiled jars only
//	jfacts status [--json]          Show the last run summary
//	jfacts reset --yes              Remove the output and run summary
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/kraklabs/jfacts/internal/errors"
	"github.com/kraklabs/jfacts/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags are the flags accepted before the command name.
type GlobalFlags struct {
	JSON       bool
	NoColor    bool
	Quiet      bool
	Debug      bool
	Verbose    int
	ConfigPath string
}

// Logger builds the process logger. Logs go to stderr so that --json
// output on stdout stays parseable.
func (g GlobalFlags) Logger() *slog.Logger {
	level := slog.LevelInfo
	switch {
	case g.Debug || g.Verbose > 1:
		level = slog.LevelDebug
	case g.Quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	var (
		globals     GlobalFlags
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.BoolVar(&globals.JSON, "json", false, "Machine-readable output (implies --quiet)")
	flag.BoolVar(&globals.NoColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&globals.Quiet, "q", false, "Only log warnings and disable progress bars")
	flag.BoolVar(&globals.Debug, "debug", false, "Enable debug logging")
	flag.IntVar(&globals.Verbose, "v", 0, "Verbosity (1: log each unit, 2: debug)")
	flag.StringVar(&globals.ConfigPath, "config", "", "Path to .jfacts/project.yaml (default: search upwards from the current directory)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `jfacts - Java fact extraction

jfacts reads the sources of a Java project, resolves its declarations
against the JDK and the project's jars, and writes what it finds as
deduplicated WOC N-Triples.

Usage:
  jfacts [global options] <command> [options]

Commands:
  init          Create .jfacts/project.yaml configuration
  extract       Extract facts from the project's sources and jars
  archive       Extract facts from compiled jars only
  status        Show the last run summary
  reset         Remove the output file and run summary (destructive!)
  completion    Generate shell completion script (bash|zsh|fish)

Global Options:
  --json        Machine-readable output
  --no-color    Disable colored output
  --debug       Enable debug logging
  -q            Quiet: warnings only, no progress bars
  -v N          Verbosity
  --config      Path to .jfacts/project.yaml
  --version     Show version and exit

Examples:
  jfacts init -y                     Use defaults for the current directory
  jfacts extract                     Write facts to the configured output
  jfacts extract --no-statements     Declarations only
  jfacts archive lib/guava.jar       Facts of one jar
  jfacts --json status               Last run as JSON

Environment Variables:
  JFACTS_FLUSH_THRESHOLD     Emits per output flush (default 10000)
  JFACTS_REGISTER_CAPACITY   Visited-set capacity (default 2048)
  NO_COLOR                   Disable colored output

For detailed command help: jfacts <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("jfacts version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if globals.JSON {
		globals.Quiet = true
	}
	ui.InitColors(globals.NoColor || os.Getenv("NO_COLOR") != "")

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(errors.ExitInput)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "extract":
		runExtract(cmdArgs, globals)
	case "archive":
		runArchive(cmdArgs, globals)
	case "status":
		runStatus(cmdArgs, globals)
	case "reset":
		runReset(cmdArgs, globals)
	case "completion":
		runCompletion(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(errors.ExitInput)
	}
}

// fatal reports err the way the global flags ask for and exits.
func fatal(err error, globals GlobalFlags) {
	errors.Fatal(err, globals.JSON, globals.NoColor)
}
