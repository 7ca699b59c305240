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

package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/jfacts/pkg/project"
)

// ConfigDirName is the per-project directory holding project.yaml, the
// default output file and the last run summary.
const ConfigDirName = ".jfacts"

// ProjectConfig holds configuration for initializing a project.
type ProjectConfig struct {
	// ProjectID is the logical project identifier.
	ProjectID string

	// Root is the directory holding the Java sources and build files.
	// Defaults to the current directory.
	Root string

	// ConfigDir is where jfacts keeps its state.
	// Defaults to <Root>/.jfacts
	ConfigDir string
}

// ProjectInfo holds information about an initialized project.
type ProjectInfo struct {
	ProjectID string
	Root      string
	ConfigDir string
	Kind      project.Kind
	BuildFile string

	// Tree is the detected project hierarchy. It is only set by
	// OpenProject.
	Tree *project.Project
}

func (c *ProjectConfig) applyDefaults() error {
	if c.Root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working dir: %w", err)
		}
		c.Root = cwd
	}
	abs, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	c.Root = abs
	if c.ConfigDir == "" {
		c.ConfigDir = filepath.Join(c.Root, ConfigDirName)
	}
	return nil
}

// InitProject initializes a new jfacts project.
// This function is idempotent: calling it multiple times is safe.
//
// The function:
//  1. Resolves the project root
//  2. Creates the configuration directory if it doesn't exist
//  3. Detects the build system from the root's build files
//
// Parameters:
//   - config: project configuration
//   - logger: optional logger (nil uses default)
//
// Returns:
//   - ProjectInfo: information about the initialized project
//   - error: if initialization fails
func InitProject(config ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Validate project ID
	if config.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	if info, err := os.Stat(config.Root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project root is not a directory: %s", config.Root)
	}

	logger.Info("bootstrap.project.init.start",
		"project_id", config.ProjectID,
		"root", config.Root,
		"config_dir", config.ConfigDir,
	)

	if err := os.MkdirAll(config.ConfigDir, 0750); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	kind, buildFile := project.Detect(config.Root)

	logger.Info("bootstrap.project.init.success",
		"project_id", config.ProjectID,
		"kind", kind.String(),
	)

	return &ProjectInfo{
		ProjectID: config.ProjectID,
		Root:      config.Root,
		ConfigDir: config.ConfigDir,
		Kind:      kind,
		BuildFile: buildFile,
	}, nil
}

// OpenProject opens an existing jfacts project and discovers its
// subproject tree.
func OpenProject(config ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Validate project ID
	if config.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	// Check if config directory exists
	if _, err := os.Stat(config.ConfigDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("project not found: %s (run 'jfacts init' first)", config.ConfigDir)
	}

	logger.Debug("bootstrap.project.open",
		"project_id", config.ProjectID,
		"root", config.Root,
	)

	tree, err := project.Discover(config.Root, logger)
	if err != nil {
		return nil, fmt.Errorf("discover project: %w", err)
	}

	return &ProjectInfo{
		ProjectID: config.ProjectID,
		Root:      config.Root,
		ConfigDir: config.ConfigDir,
		Kind:      tree.Kind,
		BuildFile: tree.BuildFile,
		Tree:      tree,
	}, nil
}

// ListModules returns the names of the projects under root, root first,
// in discovery order.
func ListModules(root string, logger *slog.Logger) ([]string, error) {
	tree, err := project.Discover(root, logger)
	if err != nil {
		return nil, fmt.Errorf("discover project: %w", err)
	}
	var names []string
	tree.Walk(func(p *project.Project) {
		names = append(names, p.Name)
	})
	return names, nil
}
