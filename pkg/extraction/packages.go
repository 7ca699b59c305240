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
	"strings"

	"github.com/kraklabs/jfacts/pkg/model"
	"github.com/kraklabs/jfacts/pkg/ontology"
)

// unnamedPackage names the default package in URIs.
const unnamedPackage = "unnamed package"

// packageEntity is a package and the top-level types it owns. Source
// packages carry their declarations; archive packages list compiled types.
type packageEntity struct {
	core
	name     string
	doc      string
	source   bool
	types    []Entity
	typesSet bool
}

// packageEntity wraps a loaded source package.
func (s *Session) packageEntity(pkg *model.Package, parent Entity) *packageEntity {
	p := &packageEntity{core: core{s: s, parent: parent}, name: pkg.Name, doc: pkg.Doc, source: true}
	p.types = make([]Entity, 0, len(pkg.Types))
	for _, t := range pkg.Types {
		p.types = append(p.types, s.declEntity(t, p))
	}
	p.typesSet = true
	return p
}

// archivePackage wraps a package known only from compiled classes. The
// classes are expanded with their members, since nothing else owns them.
func (s *Session) archivePackage(name string, classes []*model.ClassInfo, parent Entity) *packageEntity {
	p := &packageEntity{core: core{s: s, parent: parent}, name: name}
	for _, ci := range classes {
		t := s.namedEntity(model.Named(ci.Name), p)
		if nt := asNamedType(t); nt != nil {
			nt.members = true
		}
		p.types = append(p.types, t)
	}
	p.typesSet = true
	return p
}

func asNamedType(e Entity) *namedType {
	switch t := e.(type) {
	case *classEntity:
		return &t.namedType
	case *interfaceEntity:
		return &t.namedType
	case *annotationEntity:
		return &t.namedType
	}
	return nil
}

func (p *packageEntity) Kind() Kind     { return KindPackage }
func (p *packageEntity) declared() bool { return p.source }

func (p *packageEntity) displayName() string {
	if p.name == "" {
		return unnamedPackage
	}
	return p.name
}

// URI is the qualified name, with spaces replaced for the unnamed package.
func (p *packageEntity) URI() string {
	return p.once(func() string { return strings.ReplaceAll(p.displayName(), " ", Separator) })
}

func (p *packageEntity) extract(s *Session) {
	if !p.typesSet || len(p.types) == 0 {
		return
	}
	s.tagType(p, ontology.Package)
	s.tagName(p, p.displayName())
	s.tagLabel(p, p.displayName())
	for _, t := range p.types {
		s.link(p, ontology.IsPackageOf, t)
		s.link(t, ontology.HasPackage, p)
		s.verbose("extract.type", "type", t.URI())
		s.Extract(t)
	}
	if s.opts.ProjectStructure {
		s.link(p, ontology.HasProject, p.holder())
	}
	if p.source {
		s.tagComment(p, p.doc)
	}
}

// holder is what the package belongs to: the jar for archive packages, the
// attached project otherwise.
func (p *packageEntity) holder() Entity {
	if p.parent != nil {
		return p.parent
	}
	if p.s.project != nil {
		return p.s.project
	}
	return nil
}
