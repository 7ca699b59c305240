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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jfacts/internal/bootstrap"
	"github.com/kraklabs/jfacts/internal/errors"
	"github.com/kraklabs/jfacts/internal/ui"
	"github.com/kraklabs/jfacts/pkg/project"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force, nonInteractive bool
	projectID, output     string
	roots, excludes, jars []string
}

// runInit executes the 'init' CLI command, creating .jfacts/project.yaml in
// the current directory.
//
// Examples:
//
//	jfacts init                           Interactive setup
//	jfacts init -y                        Use all defaults
//	jfacts init -y --root src/main/java   Only the main sources
func runInit(args []string, globals GlobalFlags) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		fatal(errors.NewInternalError("Cannot get current directory", err.Error(), "", err), globals)
	}

	configPath := ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !flags.force {
		fatal(errors.NewConfigError(
			"Configuration already exists",
			configPath+" is already present",
			"Use --force to overwrite it",
			nil,
		), globals)
	}

	cfg := createInitConfig(cwd, flags)
	if !flags.nonInteractive && !globals.JSON {
		runInteractiveConfig(bufio.NewReader(os.Stdin), cfg)
	}

	info, err := bootstrap.InitProject(bootstrap.ProjectConfig{ProjectID: cfg.ProjectID, Root: cwd}, globals.Logger())
	if err != nil {
		fatal(errors.NewPermissionError("Cannot initialize project", err.Error(), "Check write permissions in "+cwd, err), globals)
	}
	if err := SaveConfig(cfg, configPath); err != nil {
		fatal(errors.NewPermissionError("Cannot save configuration", err.Error(), "Check write permissions in "+info.ConfigDir, err), globals)
	}

	ui.Successf("Created %s", configPath)
	if info.Kind != project.KindDefault {
		ui.Infof("Detected %s build: %s", info.Kind, ui.DimText(info.BuildFile))
	}
	if addToGitignore(cwd) {
		ui.Info("Added .jfacts/ to .gitignore")
	}
	printNextSteps()
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVarP(&f.nonInteractive, "yes", "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier (default: directory name)")
	fs.StringVarP(&f.output, "output", "o", "", "N-Triples output file")
	fs.StringSliceVar(&f.roots, "root", nil, "Source root, directory, file or glob (repeatable)")
	fs.StringSliceVar(&f.excludes, "exclude", nil, "Exclude glob (repeatable)")
	fs.StringSliceVar(&f.jars, "jar", nil, "Classpath jar (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: jfacts init [options]

Creates .jfacts/project.yaml in the current directory.

Examples:
  jfacts init -y
  jfacts init -y --root src/main/java --exclude "**/generated/**"
  jfacts init --jar lib/dep.jar

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(errors.ExitInput)
	}
	return f
}

// createInitConfig builds the configuration from defaults, the detected
// build layout and the flags.
func createInitConfig(cwd string, f initFlags) *Config {
	pid := f.projectID
	if pid == "" {
		pid = filepath.Base(cwd)
	}
	cfg := DefaultConfig(pid)
	cfg.root = cwd
	cfg.Sources.Roots = defaultRoots(cwd)
	if len(f.roots) > 0 {
		cfg.Sources.Roots = f.roots
	}
	if f.output != "" {
		cfg.Output = f.output
	}
	cfg.Sources.Exclude = f.excludes
	cfg.Classpath.Jars = f.jars
	return cfg
}

// defaultRoots picks the conventional source directory of a single-module
// build, or the whole tree otherwise.
func defaultRoots(dir string) []string {
	kind, _ := project.Detect(dir)
	if kind == project.KindDefault {
		return []string{"."}
	}
	if modules, err := bootstrap.ListModules(dir, nil); err != nil || len(modules) > 1 {
		return []string{"."}
	}
	for _, rel := range []string{"src/main/java", "app/src/main/java"} {
		if fi, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err == nil && fi.IsDir() {
			return []string{rel}
		}
	}
	return []string{"."}
}

func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	ui.Header("jfacts Project Configuration")
	fmt.Println()

	cfg.ProjectID = prompt(reader, "Project ID", cfg.ProjectID)
	roots := prompt(reader, "Source roots (comma separated)", strings.Join(cfg.Sources.Roots, ","))
	cfg.Sources.Roots = splitList(roots)
	cfg.Output = prompt(reader, "Output file", cfg.Output)

	answer := strings.ToLower(prompt(reader, "Extract statements and expressions? (Y/n)", "y"))
	if answer == "n" || answer == "no" {
		cfg.Features.Statements = false
		cfg.Features.Expressions = false
	}
	fmt.Println()
}

// splitList splits a comma separated answer, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func printNextSteps() {
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit .jfacts/project.yaml if needed")
	fmt.Println("  2. Run 'jfacts extract' to write the facts")
	fmt.Println("  3. Run 'jfacts status' to check the run")
}

// prompt reads one line from reader. An empty answer returns defaultValue.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore appends .jfacts/ to dir's .gitignore when the file exists
// and does not list it yet. It reports whether the file was changed.
func addToGitignore(dir string) bool {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return false
	}

	for _, line := range strings.Split(string(content), "\n") {
		switch strings.TrimSpace(line) {
		case ".jfacts/", ".jfacts", "/.jfacts/", "/.jfacts":
			return false
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}
	_, err = f.WriteString("\n# jfacts state\n.jfacts/\n")
	return err == nil
}
