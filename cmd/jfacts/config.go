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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/jfacts/internal/bootstrap"
	"github.com/kraklabs/jfacts/pkg/extraction"
	"github.com/kraklabs/jfacts/pkg/facts"
)

// ConfigVersion is written by jfacts init.
const ConfigVersion = "1"

// ConfigFileName is the project file inside the config directory.
const ConfigFileName = "project.yaml"

// Config is the content of .jfacts/project.yaml.
type Config struct {
	Version   string          `yaml:"version"`
	ProjectID string          `yaml:"project_id"`
	Output    string          `yaml:"output"`
	Sources   SourcesConfig   `yaml:"sources"`
	Classpath ClasspathConfig `yaml:"classpath"`
	Archives  []string        `yaml:"archives,omitempty"`
	Features  FeaturesConfig  `yaml:"features"`
	Limits    LimitsConfig    `yaml:"limits"`

	// root is the directory holding .jfacts. Relative paths in the file
	// resolve against it.
	root string
}

// SourcesConfig selects the Java sources.
type SourcesConfig struct {
	Roots       []string `yaml:"roots"`
	Exclude     []string `yaml:"exclude,omitempty"`
	MaxFileSize int64    `yaml:"max_file_size,omitempty"`
	Workers     int      `yaml:"workers,omitempty"`
}

// ClasspathConfig lists the compiled metadata used to resolve names that
// are not declared in the sources.
type ClasspathConfig struct {
	JDK      bool     `yaml:"jdk"`
	Catalogs []string `yaml:"catalogs,omitempty"`
	Jars     []string `yaml:"jars,omitempty"`
	Cache    int      `yaml:"cache,omitempty"`
}

// FeaturesConfig mirrors extraction.Options.
type FeaturesConfig struct {
	Statements       bool `yaml:"statements"`
	Expressions      bool `yaml:"expressions"`
	Generics         bool `yaml:"generics"`
	ProjectStructure bool `yaml:"project_structure"`
	ExploreArchives  bool `yaml:"explore_archives"`
	Verbose          bool `yaml:"verbose"`
}

// LimitsConfig bounds memory use. Zero means the default, which the
// JFACTS_* environment variables can override.
type LimitsConfig struct {
	FlushThreshold   int `yaml:"flush_threshold,omitempty"`
	RegisterCapacity int `yaml:"register_capacity,omitempty"`
	TypeVarCache     int `yaml:"typevar_cache,omitempty"`
}

// DefaultConfig returns the configuration jfacts init writes.
func DefaultConfig(projectID string) *Config {
	opts := extraction.DefaultOptions()
	return &Config{
		Version:   ConfigVersion,
		ProjectID: projectID,
		Output:    facts.DefaultOutput,
		Sources:   SourcesConfig{Roots: []string{"."}},
		Classpath: ClasspathConfig{JDK: true},
		Features: FeaturesConfig{
			Statements:       opts.Statements,
			Expressions:      opts.Expressions,
			Generics:         opts.Generics,
			ProjectStructure: opts.ProjectStructure,
			ExploreArchives:  opts.ExploreArchives,
			Verbose:          opts.Verbose,
		},
	}
}

// Options converts the feature switches.
func (c *Config) Options() extraction.Options {
	return extraction.Options{
		Statements:       c.Features.Statements,
		Expressions:      c.Features.Expressions,
		Generics:         c.Features.Generics,
		ProjectStructure: c.Features.ProjectStructure,
		ExploreArchives:  c.Features.ExploreArchives,
		Verbose:          c.Features.Verbose,
	}
}

// Root returns the project root.
func (c *Config) Root() string { return c.root }

// Path resolves p against the project root.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.root, p)
}

// Paths resolves each of ps against the project root.
func (c *Config) Paths(ps []string) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, c.Path(p))
	}
	return out
}

// OutputPath is the absolute N-Triples output path.
func (c *Config) OutputPath() string {
	if c.Output == "" {
		return c.Path(facts.DefaultOutput)
	}
	return c.Path(c.Output)
}

// StateDir is where run summaries are kept.
func (c *Config) StateDir() string {
	return ConfigDir(c.root)
}

// Bootstrap returns the project configuration for internal/bootstrap.
func (c *Config) Bootstrap() bootstrap.ProjectConfig {
	return bootstrap.ProjectConfig{ProjectID: c.ProjectID, Root: c.root, ConfigDir: c.StateDir()}
}

func (c *Config) validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if len(c.Sources.Roots) == 0 && len(c.Archives) == 0 {
		return fmt.Errorf("sources.roots or archives must list at least one path")
	}
	if c.Limits.FlushThreshold < 0 || c.Limits.RegisterCapacity < 0 || c.Limits.TypeVarCache < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	return nil
}

var errConfigNotFound = errors.New("project file not found")

// ConfigDir returns the configuration directory of a project root.
func ConfigDir(root string) string {
	return filepath.Join(root, bootstrap.ConfigDirName)
}

// ConfigPath returns the project file of a project root.
func ConfigPath(root string) string {
	return filepath.Join(ConfigDir(root), ConfigFileName)
}

// findConfig walks up from dir to the nearest project file.
func findConfig(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := ConfigPath(abs)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("%w: no %s/%s in %s or any parent (run 'jfacts init' first)", errConfigNotFound, bootstrap.ConfigDirName, ConfigFileName, dir)
		}
		abs = parent
	}
}

// LoadConfig reads the project file at path. An empty path searches upwards
// from the current directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working dir: %w", err)
		}
		if path, err = findConfig(cwd); err != nil {
			return nil, err
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	data, err := os.ReadFile(abs) //nolint:gosec // G304: user-selected config file
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", abs, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", abs, err)
	}
	cfg.root = filepath.Dir(filepath.Dir(abs))
	return cfg, nil
}

// SaveConfig writes cfg to path, creating its directory.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# jfacts project configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
