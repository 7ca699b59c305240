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
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/jfacts/pkg/model"
)

// bodyBuilder converts executable bodies and initializers of one file.
// Lambdas and method references passed as arguments wait in pending until
// the invoked method, and so their target type, is known.
type bodyBuilder struct {
	r       *resolver
	f       *sourceFile
	pending map[*model.Expr]*sitter.Node
}

func newBodyBuilder(r *resolver, f *sourceFile) *bodyBuilder {
	return &bodyBuilder{r: r, f: f, pending: make(map[*model.Expr]*sitter.Node)}
}

// typeBodies fills field initializers and executable bodies of ti and its
// member types. Initializer blocks are not modelled.
func (b *bodyBuilder) typeBodies(ti *typeInfo, sc *scope) {
	tsc := sc.withType(ti)
	for _, m := range ti.members {
		switch {
		case m.field != nil:
			b.fieldInit(tsc, ti, m)
		case m.method != nil:
			b.methodBody(tsc, m)
		}
	}
	for _, n := range ti.nested {
		b.typeBodies(n, tsc)
	}
}

func (b *bodyBuilder) fieldInit(sc *scope, ti *typeInfo, m *member) {
	f := b.f
	fd := m.field
	isc := sc.child()
	isc.executable = true
	switch m.declarator.Type() {
	case "enum_constant":
		args := b.args(isc, m.declarator.ChildByFieldName("arguments"))
		ctor := b.r.constructor(ti.decl.Ref(), args)
		if ctor != nil {
			b.complete(isc, args, ctor)
		}
		init := &model.Expr{
			Kind:   model.ExprNew,
			Source: f.text(m.declarator),
			Pos:    f.pos(m.declarator),
			Type:   ti.decl.Ref(),
			Args:   args,
			Method: ctor,
		}
		if body := m.declarator.ChildByFieldName("body"); body != nil {
			init.Anonymous = b.anonymous(isc, m.declarator, body, ti.decl.Ref())
		}
		fd.Init = init
	case "variable_declarator":
		value := m.declarator.ChildByFieldName("value")
		if value == nil {
			return
		}
		fd.Init = b.exprTo(isc, value, fd.Type)
	}
}

func (b *bodyBuilder) methodBody(sc *scope, m *member) {
	body := m.node.ChildByFieldName("body")
	if body == nil {
		return
	}
	md := m.method
	msc := sc.child()
	msc.method = md
	msc.executable = true
	msc.typeParams = md.TypeParams
	msc.ret = md.Return
	for _, p := range md.Params {
		msc.declare(p.Name, &variable{param: p})
	}
	md.Body = b.block(msc, body)
}

func (b *bodyBuilder) block(sc *scope, n *sitter.Node) *model.Stmt {
	return &model.Stmt{
		Kind:       model.StmtBlock,
		Source:     b.f.text(n),
		Pos:        b.f.pos(n),
		Statements: b.stmts(sc.child(), n),
	}
}

func (b *bodyBuilder) stmts(sc *scope, n *sitter.Node) []*model.Stmt {
	var out []*model.Stmt
	for _, c := range namedChildren(n) {
		out = append(out, b.stmt(sc, c)...)
	}
	return out
}

// stmtOne converts a statement in a position that holds exactly one.
func (b *bodyBuilder) stmtOne(sc *scope, n *sitter.Node) *model.Stmt {
	if n == nil {
		return nil
	}
	ss := b.stmt(sc, n)
	switch len(ss) {
	case 0:
		return nil
	case 1:
		return ss[0]
	}
	return &model.Stmt{Kind: model.StmtBlock, Source: b.f.text(n), Pos: b.f.pos(n), Statements: ss}
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if cs := namedChildren(n); len(cs) > 0 {
		return cs[0]
	}
	return nil
}

func lastNamed(n *sitter.Node) *sitter.Node {
	if cs := namedChildren(n); len(cs) > 0 {
		return cs[len(cs)-1]
	}
	return nil
}

// stmt converts one statement. Local variable declarations yield one
// statement per declarator.
func (b *bodyBuilder) stmt(sc *scope, n *sitter.Node) []*model.Stmt {
	f := b.f
	st := &model.Stmt{Source: f.text(n), Pos: f.pos(n)}
	switch n.Type() {
	case "local_variable_declaration":
		return b.localVars(sc, n)
	case "block":
		return []*model.Stmt{b.block(sc, n)}
	case "expression_statement":
		inner := firstNamed(n)
		if inner != nil && inner.Type() == "switch_expression" {
			sw := b.switchStmt(sc, inner)
			sw.Source, sw.Pos = st.Source, st.Pos
			return []*model.Stmt{sw}
		}
		st.Kind = model.StmtExpression
		st.Expr = b.expr(sc, inner)
	case "if_statement":
		st.Kind = model.StmtIf
		st.Cond = b.expr(sc, n.ChildByFieldName("condition"))
		st.Then = b.stmtOne(sc.child(), n.ChildByFieldName("consequence"))
		st.Else = b.stmtOne(sc.child(), n.ChildByFieldName("alternative"))
	case "while_statement":
		st.Kind = model.StmtWhile
		st.Cond = b.expr(sc, n.ChildByFieldName("condition"))
		st.Body = b.stmtOne(sc.child(), n.ChildByFieldName("body"))
	case "do_statement":
		st.Kind = model.StmtDo
		st.Body = b.stmtOne(sc.child(), n.ChildByFieldName("body"))
		st.Cond = b.expr(sc, n.ChildByFieldName("condition"))
	case "for_statement":
		b.forStmt(sc.child(), n, st)
	case "enhanced_for_statement":
		b.forEachStmt(sc.child(), n, st)
	case "switch_expression", "switch_statement":
		sw := b.switchStmt(sc, n)
		return []*model.Stmt{sw}
	case "try_statement", "try_with_resources_statement":
		b.tryStmt(sc, n, st)
	case "return_statement":
		st.Kind = model.StmtReturn
		if e := firstNamed(n); e != nil {
			st.Expr = b.exprTo(sc, e, sc.returnType())
		}
	case "throw_statement":
		st.Kind = model.StmtThrow
		st.Expr = b.expr(sc, firstNamed(n))
	case "break_statement", "continue_statement":
		st.Kind = model.StmtBreak
		if n.Type() == "continue_statement" {
			st.Kind = model.StmtContinue
		}
		st.Target = f.text(childOfType(n, "identifier"))
	case "yield_statement":
		st.Kind = model.StmtOther
		st.Expr = b.expr(sc, firstNamed(n))
	case "assert_statement":
		st.Kind = model.StmtAssert
		cs := namedChildren(n)
		if len(cs) > 0 {
			st.Cond = b.expr(sc, cs[0])
		}
		if len(cs) > 1 {
			st.Expr = b.expr(sc, cs[1])
		}
	case "synchronized_statement":
		st.Kind = model.StmtSynchronized
		st.Expr = b.expr(sc, childOfType(n, "parenthesized_expression"))
		st.Body = b.block(sc, n.ChildByFieldName("body"))
	case "labeled_statement":
		ss := b.stmt(sc, lastNamed(n))
		if len(ss) > 0 {
			ss[0].Label = f.text(childOfType(n, "identifier"))
		}
		return ss
	case "explicit_constructor_invocation":
		st.Kind = model.StmtExpression
		st.Expr = b.constructorCall(sc, n)
	default:
		if kind, ok := declKinds[n.Type()]; ok {
			return []*model.Stmt{b.localClass(sc, n, kind)}
		}
		st.Kind = model.StmtOther
	}
	return []*model.Stmt{st}
}

func (b *bodyBuilder) exprStmt(sc *scope, n *sitter.Node) *model.Stmt {
	return &model.Stmt{Kind: model.StmtExpression, Source: b.f.text(n), Pos: b.f.pos(n), Expr: b.expr(sc, n)}
}

// localVars declares each variable after its initializer is converted, so
// "int x = x + 1" does not see itself. The first declarator's statement
// spans the type and modifiers as well.
func (b *bodyBuilder) localVars(sc *scope, n *sitter.Node) []*model.Stmt {
	f := b.f
	mods, annots := f.modifiers(n)
	annotRefs := b.r.annotations(sc, annots)
	declared := b.r.typeOf(sc, n.ChildByFieldName("type"))
	var out []*model.Stmt
	for _, d := range namedChildren(n) {
		if d.Type() != "variable_declarator" {
			continue
		}
		var (
			source string
			pos    *model.Position
		)
		if len(out) == 0 {
			source = string(f.content[n.StartByte():d.EndByte()])
			pos = f.span(n, d)
		} else {
			source, pos = f.text(d), f.pos(d)
		}
		v := &model.LocalVar{
			Name:        f.text(d.ChildByFieldName("name")),
			Modifiers:   mods,
			Annotations: annotRefs,
			Source:      source,
			Pos:         pos,
		}
		if declared != nil {
			v.Type = model.ArrayOf(declared, f.dims(d.ChildByFieldName("dimensions")))
		}
		if value := d.ChildByFieldName("value"); value != nil {
			v.Init = b.exprTo(sc, value, v.Type)
			if v.Type == nil {
				v.Type = implicit(v.Init.Type)
			}
		}
		sc.declare(v.Name, &variable{local: v})
		out = append(out, &model.Stmt{Kind: model.StmtLocalVar, Source: source, Pos: pos, Var: v})
	}
	return out
}

// implicit copies an inferred type and marks it as not written in source.
func implicit(t *model.TypeRef) *model.TypeRef {
	if t.IsNull() {
		return nil
	}
	cp := *t
	cp.Implicit = true
	return &cp
}

// forStmt splits the header on its semicolons. A declaration in the init
// part carries its own semicolon.
func (b *bodyBuilder) forStmt(sc *scope, n *sitter.Node, st *model.Stmt) {
	st.Kind = model.StmtFor
	phase := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch {
		case c.Type() == ";":
			phase++
		case c.Type() == ")":
			phase = 3
		case !c.IsNamed() || isComment(c):
		case phase == 0 && c.Type() == "local_variable_declaration":
			st.Init = append(st.Init, b.localVars(sc, c)...)
			phase = 1
		case phase == 0:
			st.Init = append(st.Init, b.exprStmt(sc, c))
		case phase == 1:
			st.Cond = b.expr(sc, c)
		case phase == 2:
			st.Update = append(st.Update, b.exprStmt(sc, c))
		default:
			st.Body = b.stmtOne(sc.child(), c)
		}
	}
}

func (b *bodyBuilder) forEachStmt(sc *scope, n *sitter.Node, st *model.Stmt) {
	f := b.f
	st.Kind = model.StmtForEach
	st.Expr = b.expr(sc, n.ChildByFieldName("value"))
	mods, annots := f.modifiers(n)
	name := n.ChildByFieldName("name")
	v := &model.LocalVar{
		Name:        f.text(name),
		Modifiers:   mods,
		Annotations: b.r.annotations(sc, annots),
		Source:      f.text(name),
		Pos:         f.pos(name),
	}
	if t := b.r.typeOf(sc, n.ChildByFieldName("type")); t != nil {
		v.Type = model.ArrayOf(t, f.dims(n.ChildByFieldName("dimensions")))
	} else if st.Expr != nil {
		v.Type = implicit(b.elementType(sc, st.Expr.Type))
	}
	sc.declare(v.Name, &variable{local: v})
	st.Var = v
	st.Body = b.stmtOne(sc.child(), n.ChildByFieldName("body"))
}

// elementType is the type iterated over by an enhanced for loop.
func (b *bodyBuilder) elementType(sc *scope, t *model.TypeRef) *model.TypeRef {
	if t == nil {
		return nil
	}
	if t.Kind == model.RefArray {
		return t.Elem
	}
	var elem *model.TypeRef
	b.r.hierarchy(t, func(h *supertype) bool {
		if h.ref.Name == "java.lang.Iterable" {
			if len(h.ref.Args) == 1 {
				elem = capture(h.ref.Args[0])
			}
			return false
		}
		return true
	})
	return b.inScope(sc, elem)
}

// switchStmt builds a switch from either grammar shape. Grouped labels
// share the statements that follow the last of them.
func (b *bodyBuilder) switchStmt(sc *scope, n *sitter.Node) *model.Stmt {
	f := b.f
	st := &model.Stmt{Kind: model.StmtSwitch, Source: f.text(n), Pos: f.pos(n)}
	st.Expr = b.expr(sc, n.ChildByFieldName("condition"))
	var selector *model.TypeRef
	if st.Expr != nil {
		selector = st.Expr.Type
	}
	bsc := sc.child()
	for _, c := range namedChildren(n.ChildByFieldName("body")) {
		switch c.Type() {
		case "switch_block_statement_group":
			var last *model.SwitchCase
			for _, g := range namedChildren(c) {
				if g.Type() == "switch_label" {
					last = b.switchCase(bsc, g, selector)
					st.Cases = append(st.Cases, last)
					continue
				}
				if last != nil {
					last.Statements = append(last.Statements, b.stmt(bsc, g)...)
				}
			}
		case "switch_rule":
			sw := b.switchCase(bsc, childOfType(c, "switch_label"), selector)
			sw.Source, sw.Pos = f.text(c), f.pos(c)
			if body := lastNamed(c); body != nil && body.Type() != "switch_label" {
				sw.Statements = b.stmt(bsc.child(), body)
			}
			st.Cases = append(st.Cases, sw)
		}
	}
	return st
}

// switchCase converts a label. Enum constants in labels are written
// unqualified and resolve against the selector's type.
func (b *bodyBuilder) switchCase(sc *scope, label *sitter.Node, selector *model.TypeRef) *model.SwitchCase {
	sw := &model.SwitchCase{Source: b.f.text(label), Pos: b.f.pos(label)}
	e := firstNamed(label)
	if e == nil {
		return sw
	}
	if e.Type() == "identifier" && b.isEnum(selector) {
		name := b.f.text(e)
		if fr, t := b.r.findField(selector, name); fr != nil {
			sw.Expr = &model.Expr{Kind: model.ExprFieldAccess, Source: name, Pos: b.f.pos(e), Field: fr, Type: t}
			return sw
		}
	}
	sw.Expr = b.expr(sc, e)
	return sw
}

func (b *bodyBuilder) isEnum(t *model.TypeRef) bool {
	if t == nil || t.Kind != model.RefNamed {
		return false
	}
	if d := b.r.declOf(t); d != nil {
		return d.Kind == model.DeclEnum
	}
	if ci := b.r.classInfo(t.Name); ci != nil {
		return ci.Kind() == model.DeclEnum
	}
	return false
}

// tryStmt converts try and try-with-resources. A multi-catch parameter is
// typed as its first alternative.
func (b *bodyBuilder) tryStmt(sc *scope, n *sitter.Node, st *model.Stmt) {
	f := b.f
	st.Kind = model.StmtTry
	rsc := sc.child()
	for _, res := range namedChildren(n.ChildByFieldName("resources")) {
		if res.Type() != "resource" {
			continue
		}
		if v := b.resource(rsc, res); v != nil {
			st.Resources = append(st.Resources, v)
		}
	}
	st.Body = b.block(rsc, n.ChildByFieldName("body"))
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "catch_clause":
			st.Catches = append(st.Catches, b.catchClause(sc, c))
		case "finally_clause":
			if blk := childOfType(c, "block"); blk != nil {
				st.Finally = b.block(sc, blk)
				st.Finally.Source, st.Finally.Pos = f.text(c), f.pos(c)
			}
		}
	}
}

// resource declares a try resource. Resources naming an existing variable
// declare nothing.
func (b *bodyBuilder) resource(sc *scope, n *sitter.Node) *model.LocalVar {
	f := b.f
	typ := n.ChildByFieldName("type")
	value := n.ChildByFieldName("value")
	if typ == nil || value == nil {
		return nil
	}
	mods, annots := f.modifiers(n)
	v := &model.LocalVar{
		Name:        f.text(n.ChildByFieldName("name")),
		Type:        b.r.typeOf(sc, typ),
		Modifiers:   mods,
		Annotations: b.r.annotations(sc, annots),
		Source:      f.text(n),
		Pos:         f.pos(n),
	}
	v.Init = b.exprTo(sc, value, v.Type)
	if v.Type == nil {
		v.Type = implicit(v.Init.Type)
	}
	sc.declare(v.Name, &variable{local: v})
	return v
}

func (b *bodyBuilder) catchClause(sc *scope, n *sitter.Node) *model.Catch {
	f := b.f
	c := &model.Catch{Source: f.text(n), Pos: f.pos(n)}
	csc := sc.child()
	if param := childOfType(n, "catch_formal_parameter"); param != nil {
		for _, t := range typeChildren(childOfType(param, "catch_type")) {
			if ref := b.r.typeOf(sc, t); ref != nil {
				c.Types = append(c.Types, ref)
			}
		}
		mods, annots := f.modifiers(param)
		c.Param = &model.LocalVar{
			Name:        f.text(param.ChildByFieldName("name")),
			Modifiers:   mods,
			Annotations: b.r.annotations(sc, annots),
			Source:      f.text(param),
			Pos:         f.pos(param),
		}
		if len(c.Types) > 0 {
			c.Param.Type = c.Types[0]
		}
		csc.declare(c.Param.Name, &variable{local: c.Param})
	}
	c.Body = b.block(csc, n.ChildByFieldName("body"))
	return c
}

// localClass declares a class inside a body. Its binary name numbers the
// classes of the same simple name within the enclosing type.
func (b *bodyBuilder) localClass(sc *scope, n *sitter.Node, kind model.DeclKind) *model.Stmt {
	f := b.f
	encl := sc.enclosingType()
	name := f.text(n.ChildByFieldName("name"))
	qualified := encl.decl.QualifiedName + "$" + strconv.Itoa(encl.nextLocalName(name)) + name
	ti := f.buildType(n, kind, encl, qualified)
	ti.decl.Local = true
	ti.decl.EnclosingMethod = sc.method
	sc.declareClass(name, ti)
	b.r.resolveHeader(ti, sc)
	b.r.resolveMembers(ti, sc)
	b.typeBodies(ti, sc)
	return &model.Stmt{Kind: model.StmtClass, Source: f.text(n), Pos: f.pos(n), Class: ti.decl}
}

// anonymous builds the class body of an instance creation. Anonymous
// classes are numbered within the innermost enclosing type.
func (b *bodyBuilder) anonymous(sc *scope, n, body *sitter.Node, super *model.TypeRef) *model.TypeDecl {
	f := b.f
	encl := sc.enclosingType()
	encl.anonymous++
	ordinal := strconv.Itoa(encl.anonymous)
	decl := &model.TypeDecl{
		Kind:            model.DeclClass,
		Name:            ordinal,
		QualifiedName:   encl.decl.QualifiedName + "$" + ordinal,
		Package:         f.unit.Package,
		Source:          f.text(n),
		Pos:             f.pos(n),
		Anonymous:       true,
		Outer:           encl.decl,
		EnclosingMethod: sc.method,
	}
	switch {
	case super == nil:
	case b.r.isInterface(super):
		decl.Super = b.r.named(objectName)
		decl.Interfaces = []*model.TypeRef{super}
	default:
		decl.Super = super
	}
	ti := &typeInfo{decl: decl, node: body, body: body, file: f, outer: encl}
	f.buildMembers(ti, body)
	b.r.resolveHeader(ti, sc)
	b.r.resolveMembers(ti, sc)
	b.typeBodies(ti, sc)
	return decl
}
