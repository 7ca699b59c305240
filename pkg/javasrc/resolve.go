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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/jfacts/pkg/model"
)

// javaLang lists java.lang types that resolve even when no JDK metadata is
// on the classpath.
var javaLang = map[string]bool{
	"Object": true, "String": true, "Class": true, "Enum": true, "Record": true,
	"Boolean": true, "Byte": true, "Character": true, "Short": true, "Integer": true,
	"Long": true, "Float": true, "Double": true, "Number": true, "Void": true,
	"Math": true, "System": true, "Thread": true, "Runnable": true, "Iterable": true,
	"Comparable": true, "CharSequence": true, "StringBuilder": true, "StringBuffer": true,
	"Cloneable": true, "AutoCloseable": true, "ThreadLocal": true, "Process": true,
	"Throwable": true, "Exception": true, "RuntimeException": true, "Error": true,
	"IllegalArgumentException": true, "IllegalStateException": true,
	"NullPointerException": true, "UnsupportedOperationException": true,
	"IndexOutOfBoundsException": true, "ArrayIndexOutOfBoundsException": true,
	"ClassCastException": true, "ArithmeticException": true, "NumberFormatException": true,
	"InterruptedException": true, "CloneNotSupportedException": true,
	"ClassNotFoundException": true, "AssertionError": true, "StackOverflowError": true,
	"OutOfMemoryError": true, "Override": true, "Deprecated": true,
	"SuppressWarnings": true, "FunctionalInterface": true, "SafeVarargs": true,
}

// resolver looks names up in the loaded program and on the classpath.
type resolver struct {
	classpath model.Classpath
	index     map[string]*typeInfo // member types by binary name
}

func newResolver(cp model.Classpath) *resolver {
	return &resolver{classpath: cp, index: make(map[string]*typeInfo)}
}

// register indexes ti and its member types. The first declaration of a
// name wins.
func (r *resolver) register(ti *typeInfo) {
	if _, dup := r.index[ti.decl.QualifiedName]; !dup {
		r.index[ti.decl.QualifiedName] = ti
	}
	for _, n := range ti.nested {
		r.register(n)
	}
}

func (r *resolver) classInfo(name string) *model.ClassInfo {
	if r.classpath == nil {
		return nil
	}
	ci, _ := r.classpath.Lookup(name)
	return ci
}

func (r *resolver) known(name string) bool {
	if _, ok := r.index[name]; ok {
		return true
	}
	return r.classInfo(name) != nil
}

// named builds a reference to name, attaching the source declaration when
// the type is part of the program.
func (r *resolver) named(name string, args ...*model.TypeRef) *model.TypeRef {
	ref := model.Named(name, args...)
	if ti, ok := r.index[name]; ok {
		ref.Decl = ti.decl
	}
	return ref
}

func (r *resolver) declOf(t *model.TypeRef) *model.TypeDecl {
	if t == nil || t.Kind != model.RefNamed {
		return nil
	}
	if t.Decl != nil {
		return t.Decl
	}
	if ti, ok := r.index[t.Name]; ok {
		return ti.decl
	}
	return nil
}

func (r *resolver) isInterface(t *model.TypeRef) bool {
	if d := r.declOf(t); d != nil {
		return d.Kind == model.DeclInterface || d.Kind == model.DeclAnnotation
	}
	if t == nil {
		return false
	}
	if ci := r.classInfo(t.Name); ci != nil {
		k := ci.Kind()
		return k == model.DeclInterface || k == model.DeclAnnotation
	}
	return false
}

// binaryOf turns a dotted source name into the binary name of a known type,
// trying the longest package prefix first. It returns "" when no split
// names a type.
func (r *resolver) binaryOf(dotted string) string {
	segs := strings.Split(dotted, ".")
	for split := len(segs) - 1; split >= 0; split-- {
		cand := qualify(strings.Join(segs[:split], "."), strings.Join(segs[split:], "$"))
		if r.known(cand) {
			return cand
		}
	}
	return ""
}

// variable is a local, resource, catch or lambda parameter (local set) or a
// formal parameter of the enclosing executable (param set).
type variable struct {
	local *model.LocalVar
	param *model.ParamDecl
}

func (v *variable) typ() *model.TypeRef {
	if v.local != nil {
		return v.local.Type
	}
	return v.param.Type
}

// scope is one frame of the lexical environment. Type frames make the
// members of typ visible; executable frames carry the return type.
type scope struct {
	parent     *scope
	file       *sourceFile
	typ        *typeInfo
	typeParams []*model.TypeParam
	vars       map[string]*variable
	classes    map[string]*typeInfo
	method     *model.MethodDecl // enclosing executable, nil in initializers

	executable bool
	lambda     bool
	ret        *model.TypeRef
}

func fileScope(f *sourceFile) *scope { return &scope{file: f} }

func (sc *scope) child() *scope {
	return &scope{parent: sc, file: sc.file, method: sc.method}
}

func (sc *scope) withType(ti *typeInfo) *scope {
	return &scope{parent: sc, file: sc.file, typ: ti}
}

func (sc *scope) declare(name string, v *variable) {
	if name == "" {
		return
	}
	if sc.vars == nil {
		sc.vars = make(map[string]*variable)
	}
	sc.vars[name] = v
}

func (sc *scope) declareClass(name string, ti *typeInfo) {
	if sc.classes == nil {
		sc.classes = make(map[string]*typeInfo)
	}
	sc.classes[name] = ti
}

// enclosingType returns the innermost type frame.
func (sc *scope) enclosingType() *typeInfo {
	for fr := sc; fr != nil; fr = fr.parent {
		if fr.typ != nil {
			return fr.typ
		}
	}
	return nil
}

// returnType is the declared return type seen by a return statement, or
// nil inside lambdas.
func (sc *scope) returnType() *model.TypeRef {
	for fr := sc; fr != nil; fr = fr.parent {
		switch {
		case fr.lambda:
			return nil
		case fr.executable:
			return fr.ret
		case fr.typ != nil:
			return nil
		}
	}
	return nil
}

func findTypeParam(params []*model.TypeParam, name string) *model.TypeParam {
	for _, p := range params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// resolveSimple resolves a simple type name: type variables in scope,
// local classes, member types of the enclosing types, single-type imports,
// the current package, on-demand imports and finally java.lang. Unresolved
// names come back as name-only references with ok false.
func (r *resolver) resolveSimple(sc *scope, name string) (*model.TypeRef, bool) {
	for fr := sc; fr != nil; fr = fr.parent {
		if tp := findTypeParam(fr.typeParams, name); tp != nil {
			return tp.Ref(), true
		}
		if ti := fr.classes[name]; ti != nil {
			return ti.decl.Ref(), true
		}
		if fr.typ == nil {
			continue
		}
		d := fr.typ.decl
		if tp := findTypeParam(d.TypeParams, name); tp != nil {
			return tp.Ref(), true
		}
		if !d.Anonymous && d.Name == name {
			return d.Ref(), true
		}
		if ref := r.memberType(d.Ref(), name); ref != nil {
			return ref, true
		}
	}

	f := sc.file
	if dotted, ok := f.imports.single[name]; ok {
		if bin := r.binaryOf(dotted); bin != "" {
			return r.named(bin), true
		}
		return model.Named(dotted), true
	}
	if cand := qualify(f.unit.Package, name); r.known(cand) {
		return r.named(cand), true
	}
	for _, owner := range f.imports.onDemand {
		if bin := r.binaryOf(owner); bin != "" && r.known(bin+"$"+name) {
			return r.named(bin + "$" + name), true
		}
		if cand := owner + "." + name; r.known(cand) {
			return r.named(cand), true
		}
	}
	if cand := "java.lang." + name; javaLang[name] || r.known(cand) {
		return r.named(cand), true
	}
	return model.Named(name), false
}

// resolveDotted resolves a qualified type name such as "Map.Entry" or
// "java.util.Map.Entry".
func (r *resolver) resolveDotted(sc *scope, dotted string) *model.TypeRef {
	segs := strings.Split(dotted, ".")
	if head, ok := r.resolveSimple(sc, segs[0]); ok && head.Kind == model.RefNamed {
		ref := head
		for _, s := range segs[1:] {
			if m := r.memberType(ref, s); m != nil {
				ref = m
				continue
			}
			ref = r.named(ref.Name + "$" + s)
		}
		return ref
	}
	if bin := r.binaryOf(dotted); bin != "" {
		return r.named(bin)
	}
	return model.Named(dotted)
}

// dottedTypeName strips type arguments, annotations and blanks from the
// spelling of a scoped type.
func dottedTypeName(s string) string {
	var b strings.Builder
	depth := 0
	skipAnnotation := false
	for _, c := range s {
		switch {
		case c == '<':
			depth++
		case c == '>':
			depth--
		case depth > 0:
		case c == '@':
			skipAnnotation = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			skipAnnotation = false
		case skipAnnotation:
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// typeOf converts a type node. It returns nil for "var" and for nodes that
// do not spell a type.
func (r *resolver) typeOf(sc *scope, n *sitter.Node) *model.TypeRef {
	if n == nil {
		return nil
	}
	f := sc.file
	switch n.Type() {
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		return model.Primitive(f.text(n))
	case "type_identifier", "identifier":
		name := f.text(n)
		if name == "var" {
			return nil
		}
		ref, _ := r.resolveSimple(sc, name)
		return ref
	case "scoped_type_identifier", "scoped_identifier":
		return r.resolveDotted(sc, dottedTypeName(f.text(n)))
	case "generic_type":
		base := r.typeOf(sc, firstTypeChild(n))
		if base == nil || base.Kind != model.RefNamed {
			return base
		}
		targs := childOfType(n, "type_arguments")
		args := r.typeArgs(sc, targs)
		if targs != nil && len(args) == 0 {
			base.Diamond = true
		}
		base.Args = args
		return base
	case "array_type":
		elem := r.typeOf(sc, n.ChildByFieldName("element"))
		if elem == nil {
			return nil
		}
		return model.ArrayOf(elem, f.dims(n.ChildByFieldName("dimensions")))
	case "annotated_type":
		types := typeChildren(n)
		if len(types) == 0 {
			return nil
		}
		return r.typeOf(sc, types[len(types)-1])
	case "wildcard":
		bound := firstTypeChild(n)
		if bound == nil {
			return model.Wildcard(true)
		}
		return model.Wildcard(!hasChild(n, "super"), r.typeOf(sc, bound))
	}
	return nil
}

func (r *resolver) typeArgs(sc *scope, n *sitter.Node) []*model.TypeRef {
	var args []*model.TypeRef
	for _, c := range namedChildren(n) {
		if t := r.typeOf(sc, c); t != nil {
			args = append(args, t)
		}
	}
	return args
}

func (r *resolver) annotations(sc *scope, nodes []*sitter.Node) []*model.TypeRef {
	var out []*model.TypeRef
	for _, a := range nodes {
		name := sc.file.text(a.ChildByFieldName("name"))
		if name == "" {
			continue
		}
		if strings.Contains(name, ".") {
			out = append(out, r.resolveDotted(sc, name))
			continue
		}
		ref, _ := r.resolveSimple(sc, name)
		out = append(out, ref)
	}
	return out
}

func typeParamsNode(n *sitter.Node) *sitter.Node {
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		return tp
	}
	return childOfType(n, "type_parameters")
}

// typeParams reads formal type parameters. set publishes the names before
// bounds are resolved so that bounds may mention them.
func (r *resolver) typeParams(sc *scope, n *sitter.Node, set func([]*model.TypeParam)) {
	if n == nil {
		return
	}
	var (
		params []*model.TypeParam
		bounds []*sitter.Node
	)
	for _, c := range namedChildren(n) {
		if c.Type() != "type_parameter" {
			continue
		}
		name := sc.file.text(childOfType(c, "type_identifier", "identifier"))
		params = append(params, &model.TypeParam{Name: name})
		bounds = append(bounds, childOfType(c, "type_bound"))
	}
	set(params)
	for i, b := range bounds {
		for _, t := range typeChildren(b) {
			if ref := r.typeOf(sc, t); ref != nil {
				params[i].Bounds = append(params[i].Bounds, ref)
			}
		}
	}
}

// resolveHeader resolves the type parameters, supertypes and annotations
// of ti and its member types.
func (r *resolver) resolveHeader(ti *typeInfo, sc *scope) {
	tsc := sc.withType(ti)
	d := ti.decl
	r.typeParams(tsc, typeParamsNode(ti.node), func(p []*model.TypeParam) { d.TypeParams = p })
	if sup := childOfType(ti.node, "superclass"); sup != nil {
		d.Super = r.typeOf(tsc, firstTypeChild(sup))
	}
	for _, kind := range []string{"super_interfaces", "extends_interfaces"} {
		list := childOfType(childOfType(ti.node, kind), "type_list")
		for _, t := range typeChildren(list) {
			if ref := r.typeOf(tsc, t); ref != nil {
				d.Interfaces = append(d.Interfaces, ref)
			}
		}
	}
	switch {
	case d.Kind == model.DeclEnum:
		d.Super = r.named("java.lang.Enum", d.Ref())
	case ti.node.Type() == "record_declaration":
		d.Super = r.named("java.lang.Record")
	}
	d.Annotations = r.annotations(tsc, ti.annots)
	for _, n := range ti.nested {
		r.resolveHeader(n, tsc)
	}
}

// resolveMembers resolves field types and executable signatures of ti and
// its member types.
func (r *resolver) resolveMembers(ti *typeInfo, sc *scope) {
	tsc := sc.withType(ti)
	for _, m := range ti.members {
		switch {
		case m.field != nil:
			r.resolveField(tsc, m)
		case m.method != nil:
			r.resolveMethod(tsc, ti, m)
		}
	}
	for _, n := range ti.nested {
		r.resolveMembers(n, tsc)
	}
}

func (r *resolver) resolveField(sc *scope, m *member) {
	fd := m.field
	fd.Annotations = r.annotations(sc, m.annots)
	if fd.Type != nil {
		return
	}
	t := r.typeOf(sc, m.typ)
	if t == nil {
		return
	}
	fd.Type = model.ArrayOf(t, sc.file.dims(m.declarator.ChildByFieldName("dimensions")))
}

func (r *resolver) resolveMethod(sc *scope, ti *typeInfo, m *member) {
	n, md := m.node, m.method
	msc := sc.child()
	r.typeParams(msc, typeParamsNode(n), func(p []*model.TypeParam) {
		md.TypeParams = p
		msc.typeParams = p
	})
	md.Annotations = r.annotations(msc, m.annots)
	if !md.Constructor {
		if t := r.typeOf(msc, n.ChildByFieldName("type")); t != nil {
			md.Return = model.ArrayOf(t, sc.file.dims(n.ChildByFieldName("dimensions")))
		}
	}
	if n.Type() == "compact_constructor_declaration" {
		md.Params = recordComponentParams(ti)
	} else {
		md.Params = r.params(msc, n.ChildByFieldName("parameters"))
	}
	for _, t := range typeChildren(childOfType(n, "throws")) {
		if ref := r.typeOf(msc, t); ref != nil {
			md.Throws = append(md.Throws, ref)
		}
	}
}

func (r *resolver) params(sc *scope, n *sitter.Node) []*model.ParamDecl {
	f := sc.file
	var out []*model.ParamDecl
	for _, c := range namedChildren(n) {
		mods, annots := f.modifiers(c)
		switch c.Type() {
		case "formal_parameter":
			t := r.typeOf(sc, c.ChildByFieldName("type"))
			out = append(out, &model.ParamDecl{
				Name:        f.text(c.ChildByFieldName("name")),
				Type:        model.ArrayOf(t, f.dims(c.ChildByFieldName("dimensions"))),
				Modifiers:   mods,
				Annotations: r.annotations(sc, annots),
				Pos:         f.pos(c),
			})
		case "spread_parameter":
			t := r.typeOf(sc, firstTypeChild(c))
			d := childOfType(c, "variable_declarator")
			if t == nil || d == nil {
				continue
			}
			out = append(out, &model.ParamDecl{
				Name:        f.text(d.ChildByFieldName("name")),
				Type:        model.ArrayOf(t, 1+f.dims(d.ChildByFieldName("dimensions"))),
				VarArgs:     true,
				Modifiers:   mods,
				Annotations: r.annotations(sc, annots),
				Pos:         f.pos(c),
			})
		}
	}
	return out
}
