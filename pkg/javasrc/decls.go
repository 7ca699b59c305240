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

package javasrc

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/jfacts/pkg/model"
)

// importSet holds the imports of a compilation unit, keyed the way name
// lookup consults them. Owners are dotted source names.
type importSet struct {
	single         map[string]string // simple name -> dotted type name
	onDemand       []string          // package or type whose members are imported
	static         map[string]string // member name -> dotted owner
	staticOnDemand []string
}

func newImportSet() *importSet {
	return &importSet{single: make(map[string]string), static: make(map[string]string)}
}

// typeInfo pairs a declaration with the syntax it was built from. Counters
// number the anonymous classes, local classes and lambdas of the type.
type typeInfo struct {
	decl    *model.TypeDecl
	node    *sitter.Node // declaration, or the class body of an anonymous class
	body    *sitter.Node
	file    *sourceFile
	outer   *typeInfo
	annots  []*sitter.Node
	members []*member
	nested  []*typeInfo

	lambdas    int
	anonymous  int
	localNames map[string]int
}

// member is a field or executable in declaration order.
type member struct {
	field      *model.FieldDecl
	method     *model.MethodDecl
	node       *sitter.Node
	typ        *sitter.Node // field type
	declarator *sitter.Node // variable_declarator, enum_constant or record component
	annots     []*sitter.Node
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// buildUnit reads the package, imports and type skeletons of the file.
// Types, bodies and annotations are resolved once every file is parsed.
func (f *sourceFile) buildUnit() {
	f.imports = newImportSet()
	f.unit = &model.CompilationUnit{Path: f.path}
	var tops []*sitter.Node
	for _, c := range namedChildren(f.root) {
		switch c.Type() {
		case "package_declaration":
			f.unit.Package = f.text(childOfType(c, "scoped_identifier", "identifier"))
			if filepath.Base(f.path) == "package-info.java" {
				f.doc = f.docOf(c)
			}
		case "import_declaration":
			f.addImport(c)
		default:
			if _, ok := declKinds[c.Type()]; ok {
				tops = append(tops, c)
			}
		}
	}
	f.mainType = f.pickMainType(tops)
	for _, c := range tops {
		name := f.text(c.ChildByFieldName("name"))
		ti := f.buildType(c, declKinds[c.Type()], nil, qualify(f.unit.Package, name))
		f.types = append(f.types, ti)
		f.unit.Types = append(f.unit.Types, ti.decl)
	}
}

// pickMainType prefers the type named after the file, then the first one.
func (f *sourceFile) pickMainType(tops []*sitter.Node) string {
	if len(tops) == 0 {
		return ""
	}
	base := strings.TrimSuffix(filepath.Base(f.path), ".java")
	for _, c := range tops {
		if f.text(c.ChildByFieldName("name")) == base {
			return qualify(f.unit.Package, base)
		}
	}
	return qualify(f.unit.Package, f.text(tops[0].ChildByFieldName("name")))
}

func (f *sourceFile) addImport(n *sitter.Node) {
	name := f.text(childOfType(n, "scoped_identifier", "identifier"))
	if name == "" {
		return
	}
	static := hasChild(n, "static")
	wildcard := hasChild(n, "asterisk") || strings.HasSuffix(strings.TrimSuffix(strings.TrimSpace(f.text(n)), ";"), "*")

	rendered := name
	if wildcard {
		rendered += ".*"
	}
	if static {
		rendered = "static " + rendered
	}
	f.unit.Imports = append(f.unit.Imports, rendered)

	switch {
	case static && wildcard:
		f.imports.staticOnDemand = append(f.imports.staticOnDemand, name)
	case static:
		i := strings.LastIndex(name, ".")
		if i > 0 {
			f.imports.static[name[i+1:]] = name[:i]
		}
	case wildcard:
		f.imports.onDemand = append(f.imports.onDemand, name)
	default:
		f.imports.single[model.SimpleName(name)] = name
	}
}

func (f *sourceFile) buildType(node *sitter.Node, kind model.DeclKind, outer *typeInfo, qualified string) *typeInfo {
	mods, annots := f.modifiers(node)
	decl := &model.TypeDecl{
		Kind:          kind,
		Name:          f.text(node.ChildByFieldName("name")),
		QualifiedName: qualified,
		Package:       f.unit.Package,
		Modifiers:     mods | implicitTypeModifiers(node, kind, outer),
		Doc:           f.docOf(node),
		Source:        f.text(node),
		Pos:           f.pos(node),
	}
	ti := &typeInfo{decl: decl, node: node, body: node.ChildByFieldName("body"), file: f, outer: outer, annots: annots}
	if outer != nil {
		decl.Outer = outer.decl
	}
	if node.Type() == "record_declaration" {
		f.recordComponents(ti)
	}
	f.buildMembers(ti, ti.body)
	return ti
}

func implicitTypeModifiers(node *sitter.Node, kind model.DeclKind, outer *typeInfo) model.Modifiers {
	var m model.Modifiers
	record := node.Type() == "record_declaration"
	if record {
		m |= model.ModFinal
	}
	if outer == nil {
		return m
	}
	if inInterface(outer) {
		m |= model.ModPublic | model.ModStatic
	}
	if kind != model.DeclClass || record {
		m |= model.ModStatic
	}
	return m
}

func inInterface(ti *typeInfo) bool {
	return ti.decl.Kind == model.DeclInterface || ti.decl.Kind == model.DeclAnnotation
}

// buildMembers collects the fields, executables and member types of a
// class, interface, enum or annotation body in source order.
func (f *sourceFile) buildMembers(ti *typeInfo, body *sitter.Node) {
	for _, c := range namedChildren(body) {
		switch c.Type() {
		case "field_declaration", "constant_declaration":
			f.fieldMembers(ti, c)
		case "method_declaration", "annotation_type_element_declaration":
			f.methodMember(ti, c, false)
		case "constructor_declaration", "compact_constructor_declaration":
			f.methodMember(ti, c, true)
		case "enum_constant":
			f.enumConstant(ti, c)
		case "enum_body_declarations":
			f.buildMembers(ti, c)
		default:
			kind, ok := declKinds[c.Type()]
			if !ok {
				continue
			}
			name := f.text(c.ChildByFieldName("name"))
			nested := f.buildType(c, kind, ti, ti.decl.QualifiedName+"$"+name)
			ti.decl.Nested = append(ti.decl.Nested, nested.decl)
			ti.nested = append(ti.nested, nested)
		}
	}
}

func (f *sourceFile) fieldMembers(ti *typeInfo, n *sitter.Node) {
	mods, annots := f.modifiers(n)
	if inInterface(ti) {
		mods |= model.ModPublic | model.ModStatic | model.ModFinal
	}
	doc := f.docOf(n)
	typ := n.ChildByFieldName("type")
	for _, d := range namedChildren(n) {
		if d.Type() != "variable_declarator" {
			continue
		}
		fd := &model.FieldDecl{
			Name:      f.text(d.ChildByFieldName("name")),
			Modifiers: mods,
			Doc:       doc,
			Source:    f.text(n),
			Pos:       f.pos(n),
			Owner:     ti.decl,
		}
		ti.decl.Fields = append(ti.decl.Fields, fd)
		ti.members = append(ti.members, &member{field: fd, node: n, typ: typ, declarator: d, annots: annots})
	}
}

func (f *sourceFile) methodMember(ti *typeInfo, n *sitter.Node, ctor bool) {
	mods, annots := f.modifiers(n)
	md := &model.MethodDecl{
		Name:        f.text(n.ChildByFieldName("name")),
		Constructor: ctor,
		Owner:       ti.decl,
		Doc:         f.docOf(n),
		Source:      f.text(n),
		Pos:         f.pos(n),
	}
	switch {
	case ctor:
		md.Name = ti.decl.Name
		if ti.decl.Kind == model.DeclEnum {
			mods |= model.ModPrivate
		}
	case inInterface(ti):
		if mods&model.ModPrivate == 0 {
			mods |= model.ModPublic
		}
		if n.ChildByFieldName("body") == nil && mods&(model.ModStatic|model.ModDefault|model.ModPrivate) == 0 {
			mods |= model.ModAbstract
		}
	}
	md.Modifiers = mods
	if ctor {
		ti.decl.Constructors = append(ti.decl.Constructors, md)
	} else {
		ti.decl.Methods = append(ti.decl.Methods, md)
	}
	ti.members = append(ti.members, &member{method: md, node: n, annots: annots})
}

func (f *sourceFile) enumConstant(ti *typeInfo, n *sitter.Node) {
	_, annots := f.modifiers(n)
	fd := &model.FieldDecl{
		Name:      f.text(n.ChildByFieldName("name")),
		Type:      ti.decl.Ref(),
		Modifiers: model.ModPublic | model.ModStatic | model.ModFinal,
		Doc:       f.docOf(n),
		Source:    f.text(n),
		Pos:       f.pos(n),
		Owner:     ti.decl,
	}
	ti.decl.Fields = append(ti.decl.Fields, fd)
	ti.members = append(ti.members, &member{field: fd, node: n, declarator: n, annots: annots})
}

// recordComponents turns the header of a record into private final fields.
func (f *sourceFile) recordComponents(ti *typeInfo) {
	for _, p := range namedChildren(ti.node.ChildByFieldName("parameters")) {
		if p.Type() != "formal_parameter" {
			continue
		}
		_, annots := f.modifiers(p)
		fd := &model.FieldDecl{
			Name:      f.text(p.ChildByFieldName("name")),
			Modifiers: model.ModPrivate | model.ModFinal,
			Source:    f.text(p),
			Pos:       f.pos(p),
			Owner:     ti.decl,
		}
		ti.decl.Fields = append(ti.decl.Fields, fd)
		ti.members = append(ti.members, &member{field: fd, node: p, typ: p.ChildByFieldName("type"), declarator: p, annots: annots})
	}
}

// recordComponentParams are the implicit parameters of a compact
// canonical constructor.
func recordComponentParams(ti *typeInfo) []*model.ParamDecl {
	var out []*model.ParamDecl
	for _, m := range ti.members {
		if m.field == nil || m.declarator.Type() != "formal_parameter" {
			continue
		}
		out = append(out, &model.ParamDecl{Name: m.field.Name, Type: m.field.Type, Pos: m.field.Pos})
	}
	return out
}

func (ti *typeInfo) nextLocalName(name string) int {
	if ti.localNames == nil {
		ti.localNames = make(map[string]int)
	}
	ti.localNames[name]++
	return ti.localNames[name]
}
