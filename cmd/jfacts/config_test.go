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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jfacts/pkg/extraction"
	"github.com/kraklabs/jfacts/pkg/facts"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("shop")

	assert.Equal(t, ConfigVersion, cfg.Version)
	assert.Equal(t, "shop", cfg.ProjectID)
	assert.Equal(t, facts.DefaultOutput, cfg.Output)
	assert.Equal(t, []string{"."}, cfg.Sources.Roots)
	assert.True(t, cfg.Classpath.JDK)
	assert.Equal(t, extraction.DefaultOptions(), cfg.Options())
}

func TestSaveAndLoadConfig(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig("shop")
	cfg.Output = "out/facts.nt"
	cfg.Sources.Roots = []string{"src/main/java"}
	cfg.Sources.Exclude = []string{"**/generated/**"}
	cfg.Classpath.Jars = []string{"lib/dep.jar"}
	cfg.Features.Expressions = false
	cfg.Limits.FlushThreshold = 500

	path := ConfigPath(root)
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, root, loaded.Root())
	assert.Equal(t, "shop", loaded.ProjectID)
	assert.Equal(t, filepath.Join(root, "out", "facts.nt"), loaded.OutputPath())
	assert.Equal(t, []string{filepath.Join(root, "src/main/java")}, loaded.Paths(loaded.Sources.Roots))
	assert.Equal(t, []string{"**/generated/**"}, loaded.Sources.Exclude)
	assert.Equal(t, []string{"lib/dep.jar"}, loaded.Classpath.Jars)
	assert.False(t, loaded.Options().Expressions)
	assert.True(t, loaded.Options().Statements)
	assert.Equal(t, 500, loaded.Limits.FlushThreshold)
	assert.Equal(t, filepath.Join(root, ".jfacts"), loaded.StateDir())

	bc := loaded.Bootstrap()
	assert.Equal(t, "shop", bc.ProjectID)
	assert.Equal(t, root, bc.Root)
	assert.Equal(t, loaded.StateDir(), bc.ConfigDir)
}

func TestLoadConfig_SearchesUpwards(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, SaveConfig(DefaultConfig("shop"), ConfigPath(root)))
	sub := filepath.Join(root, "src", "main")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	t.Chdir(sub)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "shop", cfg.ProjectID)

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(cfg.Root())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadConfig_NotFound(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errConfigNotFound))
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "project_id: [", "parse"},
		{"missing project id", "output: x.nt\n", "project_id is required"},
		{"no inputs", "project_id: p\nsources:\n  roots: []\n", "at least one path"},
		{"negative limit", "project_id: p\nlimits:\n  register_capacity: -1\n", "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ConfigPath(t.TempDir())
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig_KeepsDefaultsForMissingKeys(t *testing.T) {
	path := ConfigPath(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("project_id: p\nfeatures:\n  generics: false\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, cfg.Sources.Roots)
	assert.True(t, cfg.Classpath.JDK)
	assert.False(t, cfg.Features.Generics)
	assert.True(t, cfg.Features.Statements)
}

func TestConfig_Path(t *testing.T) {
	cfg := &Config{root: "/work/shop"}
	assert.Equal(t, "", cfg.Path(""))
	assert.Equal(t, "/abs/x.jar", cfg.Path("/abs/x.jar"))
	assert.Equal(t, filepath.Join("/work/shop", "lib", "x.jar"), cfg.Path("lib/x.jar"))
	assert.Equal(t, filepath.Join("/work/shop", facts.DefaultOutput), cfg.OutputPath())
}
