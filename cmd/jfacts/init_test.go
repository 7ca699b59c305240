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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jtest "github.com/kraklabs/jfacts/internal/testing"
)

func TestDefaultRoots(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  []string
	}{
		{
			name:  "no build file",
			files: map[string]string{"src/main/java/p/A.java": "package p;"},
			want:  []string{"."},
		},
		{
			name:  "maven layout",
			files: map[string]string{
				"pom.xml":                "<project></project>",
				"src/main/java/p/A.java": "package p;",
			},
			want: []string{"src/main/java"},
		},
		{
			name:  "app layout",
			files: map[string]string{
				"build.gradle":               "",
				"app/src/main/java/p/A.java": "package p;",
			},
			want: []string{"app/src/main/java"},
		},
		{
			name:  "maven without conventional dir",
			files: map[string]string{
				"pom.xml":    "<project></project>",
				"src/A.java": "class A {}",
			},
			want: []string{"."},
		},
		{
			name:  "multi-module",
			files: map[string]string{
				"settings.gradle":             "include 'core'",
				"build.gradle":                "",
				"core/build.gradle":           "",
				"src/main/java/p/A.java":      "package p;",
				"core/src/main/java/p/B.java": "package p;",
			},
			want: []string{"."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := jtest.WriteTree(t, tt.files)
			assert.Equal(t, tt.want, defaultRoots(root))
		})
	}
}

func TestCreateInitConfig(t *testing.T) {
	root := jtest.WriteTree(t, map[string]string{
		"pom.xml":                "<project></project>",
		"src/main/java/p/A.java": "package p;",
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := createInitConfig(root, initFlags{})
		assert.Equal(t, filepath.Base(root), cfg.ProjectID)
		assert.Equal(t, root, cfg.Root())
		assert.Equal(t, []string{"src/main/java"}, cfg.Sources.Roots)
		assert.Equal(t, filepath.Join(root, "triples.nt"), cfg.OutputPath())
		assert.True(t, cfg.Classpath.JDK)
		require.NoError(t, cfg.validate())
	})

	t.Run("flags", func(t *testing.T) {
		cfg := createInitConfig(root, initFlags{
			projectID: "acme",
			output:    "out/facts.nt",
			roots:     []string{"src"},
			excludes:  []string{"**/gen/**"},
			jars:      []string{"lib/dep.jar"},
		})
		assert.Equal(t, "acme", cfg.ProjectID)
		assert.Equal(t, []string{"src"}, cfg.Sources.Roots)
		assert.Equal(t, []string{"**/gen/**"}, cfg.Sources.Exclude)
		assert.Equal(t, []string{"lib/dep.jar"}, cfg.Classpath.Jars)
		assert.Equal(t, filepath.Join(root, "out", "facts.nt"), cfg.OutputPath())
	})
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"src", "test"}, splitList(" src, ,test,"))
	assert.Nil(t, splitList(""))
}

func TestAddToGitignore(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		changed bool
		want    string
	}{
		{name: "no gitignore", content: nil, changed: false},
		{name: "appends", content: ptr("target/\n"), changed: true, want: "target/\n\n# jfacts state\n.jfacts/\n"},
		{name: "missing trailing newline", content: ptr("target/"), changed: true, want: "target/\n\n# jfacts state\n.jfacts/\n"},
		{name: "already listed", content: ptr("/.jfacts\n"), changed: false, want: "/.jfacts\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, ".gitignore")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o600))
			}

			assert.Equal(t, tt.changed, addToGitignore(dir))

			data, err := os.ReadFile(path)
			if tt.content == nil {
				assert.True(t, os.IsNotExist(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func ptr(s string) *string { return &s }
