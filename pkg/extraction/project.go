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

package extraction

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kraklabs/jfacts/pkg/ontology"
	"github.com/kraklabs/jfacts/pkg/project"
)

// projectEntity is a directory of the build tree.
type projectEntity struct {
	core
	p *project.Project
}

func (s *Session) projectEntity(p *project.Project, parent Entity) *projectEntity {
	return &projectEntity{core: core{s: s, parent: parent}, p: p}
}

func (e *projectEntity) Kind() Kind     { return KindProject }
func (e *projectEntity) declared() bool { return true }

// URI is "ancestors-name-code". Ancestor project names come nearest first.
// The code hashes the sorted subproject names and the build file content,
// or the sorted .java file names when there is no build file.
func (e *projectEntity) URI() string {
	return e.once(func() string {
		var b strings.Builder
		for a := e.parent; a != nil; a = a.Parent() {
			if pe, ok := a.(*projectEntity); ok {
				b.WriteString(pe.p.Name)
				b.WriteString(Separator)
			}
		}
		b.WriteString(e.p.Name)
		b.WriteString(Separator)
		b.WriteString(e.code())
		return b.String()
	})
}

func (e *projectEntity) code() string {
	if e.p.BuildFile == "" {
		files, err := e.p.JavaFiles()
		if err != nil {
			e.s.logger.Warn("extract.project.walk", "project", e.p.Name, "err", err)
			return "0"
		}
		return strconv.Itoa(int(javaArrayHash(files)))
	}
	subs := javaArrayHash(e.p.SubProjectNames())
	build := javaStringHash(e.p.BuildFileContent())
	return strconv.Itoa(int(subs)) + Separator + strconv.Itoa(int(build))
}

func (e *projectEntity) class() string {
	switch e.p.Kind {
	case project.KindMaven:
		return ontology.MavenProject
	case project.KindGradle, project.KindAndroid:
		return ontology.GradleProject
	}
	return ontology.Project
}

func (e *projectEntity) extract(s *Session) {
	s.tagType(e, e.class())
	if e.p.BuildFile != "" {
		s.tagString(e, ontology.HasBuildFile, e.p.BuildFileContent())
	}
	for _, sp := range e.p.SubProjects {
		sub := s.projectEntity(sp, e)
		s.link(e, ontology.HasSubProject, sub)
		s.Extract(sub)
	}
	s.tagString(e, ontology.Label, e.p.Name)
}

// jarEntity is a jar archive and the packages of its classes.
type jarEntity struct {
	core
	path     string
	packages []*packageEntity
}

func (j *jarEntity) Kind() Kind     { return KindJar }
func (j *jarEntity) declared() bool { return false }

func (j *jarEntity) fileName() string { return filepath.Base(j.path) }

// URI is "file.jar-code", the code hashing the sorted package names.
func (j *jarEntity) URI() string {
	return j.once(func() string {
		names := make([]string, 0, len(j.packages))
		for _, p := range j.packages {
			names = append(names, p.name)
		}
		sort.Strings(names)
		return j.fileName() + Separator + strconv.Itoa(int(javaArrayHash(names)))
	})
}

func (j *jarEntity) extract(s *Session) {
	if s.opts.ProjectStructure {
		s.tagString(j, ontology.Label, j.fileName())
		s.tagType(j, ontology.JarFile)
		if s.project != nil {
			s.link(s.project, ontology.HasDependency, j)
		}
	}
	for _, p := range j.packages {
		s.Extract(p)
	}
}
