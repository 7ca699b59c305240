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

// Package project discovers the build layout of a Java source tree: the
// build system of each directory and the tree of its subprojects.
//
// Discovery only reads build files. It never runs Maven or Gradle, so
// subprojects are taken from the <module> entries of a pom.xml and from the
// include statements of a Gradle settings file.
package project

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Kind is the build system of a project directory.
type Kind uint8

const (
	KindDefault Kind = iota
	KindMaven
	KindGradle
	KindAndroid
)

func (k Kind) String() string {
	switch k {
	case KindMaven:
		return "maven"
	case KindGradle:
		return "gradle"
	case KindAndroid:
		return "android"
	}
	return "default"
}

// Build file names, in detection order.
const (
	MavenBuildFile      = "pom.xml"
	GradleBuildFile     = "build.gradle"
	GradleKtsBuildFile  = "build.gradle.kts"
	GradleSettings      = "settings.gradle"
	GradleKtsSettings   = "settings.gradle.kts"
	AndroidManifestPath = "src/main/AndroidManifest.xml"
)

// Project is one directory of the build tree.
type Project struct {
	Name        string // directory base name
	Dir         string // absolute path
	Kind        Kind
	BuildFile   string // absolute path of the build file, "" if none
	Parent      *Project
	SubProjects []*Project
}

// Root returns the outermost project.
func (p *Project) Root() *Project {
	for p.Parent != nil {
		p = p.Parent
	}
	return p
}

// Ancestors returns the enclosing projects, nearest first.
func (p *Project) Ancestors() []*Project {
	var out []*Project
	for a := p.Parent; a != nil; a = a.Parent {
		out = append(out, a)
	}
	return out
}

// BuildFileContent returns the build file text, or "" when there is no
// build file or it cannot be read.
func (p *Project) BuildFileContent() string {
	if p.BuildFile == "" {
		return ""
	}
	data, err := os.ReadFile(p.BuildFile)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(data), "\n")
}

// SubProjectNames returns the sorted names of the direct subprojects.
func (p *Project) SubProjectNames() []string {
	names := make([]string, 0, len(p.SubProjects))
	for _, sp := range p.SubProjects {
		names = append(names, sp.Name)
	}
	sort.Strings(names)
	return names
}

// JavaFiles returns the sorted base names of every .java file below the
// project directory, subprojects included.
func (p *Project) JavaFiles() ([]string, error) {
	var names []string
	err := filepath.WalkDir(p.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".java") {
			names = append(names, d.Name())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", p.Dir, err)
	}
	sort.Strings(names)
	return names, nil
}

// Walk calls fn for p and every subproject, depth first.
func (p *Project) Walk(fn func(*Project)) {
	fn(p)
	for _, sp := range p.SubProjects {
		sp.Walk(fn)
	}
}

// Detect returns the build system of dir and its build file. Maven wins
// over Gradle when both are present.
func Detect(dir string) (Kind, string) {
	if isFile(filepath.Join(dir, MavenBuildFile)) {
		return KindMaven, filepath.Join(dir, MavenBuildFile)
	}
	for _, name := range []string{GradleBuildFile, GradleKtsBuildFile} {
		path := filepath.Join(dir, name)
		if !isFile(path) {
			continue
		}
		if isFile(filepath.Join(dir, filepath.FromSlash(AndroidManifestPath))) {
			return KindAndroid, path
		}
		return KindGradle, path
	}
	return KindDefault, ""
}

// Discover builds the project tree rooted at dir.
func Discover(dir string, logger *slog.Logger) (*Project, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat project dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path is not a directory: %s", abs)
	}
	d := &discoverer{logger: logger, seen: make(map[string]bool)}
	return d.load(abs, nil), nil
}

type discoverer struct {
	logger *slog.Logger
	seen   map[string]bool
}

func (d *discoverer) load(dir string, parent *Project) *Project {
	d.seen[dir] = true
	kind, build := Detect(dir)
	p := &Project{Name: filepath.Base(dir), Dir: dir, Kind: kind, BuildFile: build, Parent: parent}

	var subDirs []string
	switch kind {
	case KindMaven:
		subDirs = mavenModules(dir, p.BuildFileContent())
	case KindGradle, KindAndroid:
		subDirs = gradleIncludes(dir)
	}
	for _, sub := range subDirs {
		if d.seen[sub] {
			continue
		}
		if !isDir(sub) {
			d.logger.Warn("project.subproject.missing", "project", p.Name, "dir", sub)
			continue
		}
		p.SubProjects = append(p.SubProjects, d.load(sub, p))
	}
	sort.Slice(p.SubProjects, func(i, j int) bool { return p.SubProjects[i].Dir < p.SubProjects[j].Dir })
	if len(p.SubProjects) > 0 {
		d.logger.Debug("project.subprojects", "project", p.Name, "count", len(p.SubProjects))
	}
	return p
}

var moduleTag = regexp.MustCompile(`<module>\s*([^<]+?)\s*</module>`)

// mavenModules lists the module directories declared in a pom.xml.
func mavenModules(dir, pom string) []string {
	var out []string
	for _, m := range moduleTag.FindAllStringSubmatch(pom, -1) {
		out = append(out, filepath.Clean(filepath.Join(dir, filepath.FromSlash(m[1]))))
	}
	return out
}

var (
	includeLine  = regexp.MustCompile(`(?m)^\s*include\b(.*)$`)
	quotedString = regexp.MustCompile(`["']([^"']+)["']`)
)

// gradleIncludes lists the subproject directories included by the settings
// file of dir. A path ":a:b" maps to the directory a/b.
func gradleIncludes(dir string) []string {
	var settings []byte
	for _, name := range []string{GradleSettings, GradleKtsSettings} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			settings = data
			break
		}
	}
	if settings == nil {
		return nil
	}
	var out []string
	for _, line := range includeLine.FindAllStringSubmatch(string(settings), -1) {
		for _, q := range quotedString.FindAllStringSubmatch(line[1], -1) {
			rel := strings.Trim(q[1], ":")
			if rel == "" {
				continue
			}
			rel = strings.ReplaceAll(rel, ":", "/")
			out = append(out, filepath.Clean(filepath.Join(dir, filepath.FromSlash(rel))))
		}
	}
	return out
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
