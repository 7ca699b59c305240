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

package model

import "sort"

// Program is a fully loaded set of packages together with the classpath used
// to resolve references that leave it.
type Program struct {
	Packages  []*Package
	Classpath Classpath
}

// Package groups the compilation units that declare the same package.
type Package struct {
	Name  string // "" for the unnamed package
	Doc   string // package-info.java comment
	Units []*CompilationUnit
	Types []*TypeDecl // top-level types of every unit
}

// CompilationUnit is one parsed source file.
type CompilationUnit struct {
	Path    string
	Package string
	Imports []string
	Types   []*TypeDecl
}

// Package returns the package named name, or nil.
func (p *Program) Package(name string) *Package {
	for _, pkg := range p.Packages {
		if pkg.Name == name {
			return pkg
		}
	}
	return nil
}

// AddUnit files u under its package, creating the package on first use.
func (p *Program) AddUnit(u *CompilationUnit) *Package {
	pkg := p.Package(u.Package)
	if pkg == nil {
		pkg = &Package{Name: u.Package}
		p.Packages = append(p.Packages, pkg)
	}
	pkg.Units = append(pkg.Units, u)
	pkg.Types = append(pkg.Types, u.Types...)
	return pkg
}

// Sort orders packages by name and types by qualified name so that
// extraction order does not depend on file system traversal.
func (p *Program) Sort() {
	sort.Slice(p.Packages, func(i, j int) bool { return p.Packages[i].Name < p.Packages[j].Name })
	for _, pkg := range p.Packages {
		sort.SliceStable(pkg.Types, func(i, j int) bool {
			return pkg.Types[i].QualifiedName < pkg.Types[j].QualifiedName
		})
		sort.SliceStable(pkg.Units, func(i, j int) bool { return pkg.Units[i].Path < pkg.Units[j].Path })
	}
}

// Lookup finds a source type by binary name, descending into nested types.
func (p *Program) Lookup(name string) *TypeDecl {
	pkg := p.Package(PackageOf(name))
	if pkg == nil {
		return nil
	}
	for _, t := range pkg.Types {
		if d := findNested(t, name); d != nil {
			return d
		}
	}
	return nil
}

func findNested(d *TypeDecl, name string) *TypeDecl {
	if d.QualifiedName == name {
		return d
	}
	for _, n := range d.Nested {
		if found := findNested(n, name); found != nil {
			return found
		}
	}
	return nil
}

// TypeCount returns the number of top-level types in the program.
func (p *Program) TypeCount() int {
	n := 0
	for _, pkg := range p.Packages {
		n += len(pkg.Types)
	}
	return n
}
