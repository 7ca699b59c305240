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

package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  Kind
	}{
		{name: "plain directory", files: nil, want: KindDefault},
		{name: "maven", files: []string{"pom.xml"}, want: KindMaven},
		{name: "gradle", files: []string{"build.gradle"}, want: KindGradle},
		{name: "gradle kotlin dsl", files: []string{"build.gradle.kts"}, want: KindGradle},
		{name: "android", files: []string{"build.gradle", "src/main/AndroidManifest.xml"}, want: KindAndroid},
		{name: "maven wins over gradle", files: []string{"build.gradle", "pom.xml"}, want: KindMaven},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, filepath.Join(dir, f), "x")
			}
			kind, build := Detect(dir)
			assert.Equal(t, tt.want, kind)
			if tt.want == KindDefault {
				assert.Empty(t, build)
			} else {
				assert.NotEmpty(t, build)
			}
		})
	}
}

func TestDiscover_MavenModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pom.xml"), `<project>
  <modules>
    <module>core</module>
    <module>api</module>
    <module>missing</module>
  </modules>
</project>
`)
	writeFile(t, filepath.Join(root, "core", "pom.xml"), "<project/>")
	writeFile(t, filepath.Join(root, "api", "src", "A.java"), "class A {}")

	p, err := Discover(root, nil)
	require.NoError(t, err)
	assert.Equal(t, KindMaven, p.Kind)
	require.Len(t, p.SubProjects, 2)
	assert.Equal(t, []string{"api", "core"}, p.SubProjectNames())

	api := p.SubProjects[0]
	assert.Equal(t, KindDefault, api.Kind)
	assert.Same(t, p, api.Parent)
	assert.Same(t, p, api.Root())
	assert.Equal(t, KindMaven, p.SubProjects[1].Kind)
	assert.Contains(t, p.BuildFileContent(), "<module>core</module>")
}

func TestDiscover_GradleSettings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "build.gradle"), "plugins {}\n")
	writeFile(t, filepath.Join(root, "settings.gradle"), "rootProject.name = 'demo'\ninclude ':app', ':libs:util'\n")
	writeFile(t, filepath.Join(root, "app", "build.gradle"), "android {}\n")
	writeFile(t, filepath.Join(root, "app", "src", "main", "AndroidManifest.xml"), "<manifest/>")
	writeFile(t, filepath.Join(root, "libs", "util", "build.gradle"), "")

	p, err := Discover(root, nil)
	require.NoError(t, err)
	assert.Equal(t, KindGradle, p.Kind)
	require.Len(t, p.SubProjects, 2)
	assert.Equal(t, KindAndroid, p.SubProjects[0].Kind)
	assert.Equal(t, "util", p.SubProjects[1].Name)
	assert.Equal(t, []*Project{p}, p.SubProjects[1].Ancestors())
	assert.Equal(t, "plugins {}", p.BuildFileContent())
}

func TestProject_JavaFilesSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "Zed.java"), "")
	writeFile(t, filepath.Join(root, "a", "Alpha.java"), "")
	writeFile(t, filepath.Join(root, "README.md"), "")

	p, err := Discover(root, nil)
	require.NoError(t, err)
	files, err := p.JavaFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha.java", "Zed.java"}, files)
	assert.Empty(t, p.BuildFileContent())
}

func TestProject_Walk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pom.xml"), "<modules><module>m</module></modules>")
	writeFile(t, filepath.Join(root, "m", "pom.xml"), "<modules><module>n</module></modules>")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "m", "n"), 0o755))

	p, err := Discover(root, nil)
	require.NoError(t, err)
	var names []string
	p.Walk(func(sp *Project) { names = append(names, sp.Name) })
	assert.Equal(t, []string{filepath.Base(root), "m", "n"}, names)
}

func TestDiscover_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, path, "x")
	_, err := Discover(path, nil)
	assert.Error(t, err)
}
