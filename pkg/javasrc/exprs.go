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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/jfacts/pkg/model"
)

// exprTo converts n where a value of type t is expected. The target type
// types lambdas and method references.
func (b *bodyBuilder) exprTo(sc *scope, n *sitter.Node, t *model.TypeRef) *model.Expr {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "parenthesized_expression":
		return b.exprTo(sc, firstNamed(n), t)
	case "lambda_expression", "method_reference":
		e := b.functional(n)
		b.fillFunctional(sc, e, n, t)
		return e
	case "array_initializer":
		return b.arrayInit(sc, n, t)
	case "ternary_expression":
		e := b.expr(sc, n)
		if e.Type == nil {
			e.Type = t
		}
		return e
	}
	return b.expr(sc, n)
}

// expr converts an expression node. Unrecognised forms become ExprOther
// with their operands converted.
func (b *bodyBuilder) expr(sc *scope, n *sitter.Node) *model.Expr {
	if n == nil {
		return nil
	}
	f := b.f
	e := &model.Expr{Kind: model.ExprOther, Source: f.text(n), Pos: f.pos(n)}
	switch n.Type() {
	case "parenthesized_expression":
		return b.expr(sc, firstNamed(n))
	case "assignment_expression":
		e.Kind = model.ExprAssignment
		e.Left = b.expr(sc, n.ChildByFieldName("left"))
		if e.Left != nil {
			e.Type = e.Left.Type
		}
		e.Right = b.exprTo(sc, n.ChildByFieldName("right"), e.Type)
	case "method_invocation":
		b.invocation(sc, n, e)
	case "object_creation_expression":
		b.creation(sc, n, e)
	case "lambda_expression", "method_reference":
		return b.exprTo(sc, n, nil)
	case "identifier":
		return b.identifier(sc, n)
	case "field_access":
		return b.fieldAccess(sc, n)
	case "this":
		e.Kind = model.ExprThis
		if ti := sc.enclosingType(); ti != nil {
			e.Type = ti.decl.Ref()
		}
	case "super":
		e.Kind = model.ExprThis
		e.Type = b.superOf(sc)
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal",
		"decimal_floating_point_literal", "hex_floating_point_literal", "true", "false",
		"character_literal", "string_literal", "text_block", "null_literal":
		e.Kind = model.ExprLiteral
		e.Type = b.literalType(n)
	case "class_literal":
		t := b.r.typeOf(sc, firstNamed(n))
		if t != nil {
			e.TypeRefs = []*model.TypeRef{t}
			arg := t
			if t.Kind == model.RefPrimitive {
				arg = b.r.named(boxed(t.Name))
			}
			e.Type = b.r.named("java.lang.Class", arg)
		}
	case "cast_expression":
		t := b.r.typeOf(sc, n.ChildByFieldName("type"))
		if t != nil {
			e.TypeRefs = []*model.TypeRef{t}
		}
		e.Type = t
		e.Operands = []*model.Expr{b.exprTo(sc, n.ChildByFieldName("value"), t)}
	case "instanceof_expression":
		b.instanceOf(sc, n, e)
	case "binary_expression":
		l := b.expr(sc, n.ChildByFieldName("left"))
		r := b.expr(sc, n.ChildByFieldName("right"))
		e.Operands = []*model.Expr{l, r}
		e.Type = binaryType(b.r, f.text(n.ChildByFieldName("operator")), typeOfExpr(l), typeOfExpr(r))
	case "unary_expression":
		op := b.expr(sc, n.ChildByFieldName("operand"))
		e.Operands = []*model.Expr{op}
		if f.text(n.ChildByFieldName("operator")) == "!" {
			e.Type = model.Primitive("boolean")
		} else {
			e.Type = unaryPromote(typeOfExpr(op))
		}
	case "update_expression":
		op := b.expr(sc, firstNamed(n))
		e.Operands = []*model.Expr{op}
		e.Type = typeOfExpr(op)
	case "ternary_expression":
		cond := b.expr(sc, n.ChildByFieldName("condition"))
		then := b.expr(sc, n.ChildByFieldName("consequence"))
		alt := b.expr(sc, n.ChildByFieldName("alternative"))
		e.Operands = []*model.Expr{cond, then, alt}
		switch {
		case then != nil && !then.Type.IsNull():
			e.Type = then.Type
		case alt != nil && !alt.Type.IsNull():
			e.Type = alt.Type
		}
	case "array_access":
		arr := b.expr(sc, n.ChildByFieldName("array"))
		idx := b.expr(sc, n.ChildByFieldName("index"))
		e.Operands = []*model.Expr{arr, idx}
		if t := typeOfExpr(arr); t != nil && t.Kind == model.RefArray {
			e.Type = t.Elem
		}
	case "array_creation_expression":
		b.arrayCreation(sc, n, e)
	case "array_initializer":
		return b.arrayInit(sc, n, nil)
	case "switch_expression":
		b.switchExpr(sc, n, e)
	default:
		for _, c := range namedChildren(n) {
			if !isTypeNode(c) {
				e.Operands = append(e.Operands, b.expr(sc, c))
			}
		}
	}
	return e
}

func typeOfExpr(e *model.Expr) *model.TypeRef {
	if e == nil {
		return nil
	}
	return e.Type
}

// identifier resolves a simple name: a variable or field in the innermost
// frame that declares it, a statically imported field, then a type.
func (b *bodyBuilder) identifier(sc *scope, n *sitter.Node) *model.Expr {
	f := b.f
	name := f.text(n)
	e := &model.Expr{Kind: model.ExprOther, Source: name, Pos: f.pos(n)}
	for fr := sc; fr != nil; fr = fr.parent {
		if v := fr.vars[name]; v != nil {
			e.Kind = model.ExprVariable
			e.Var = v.local
			e.Type = v.typ()
			return e
		}
		if fr.typ == nil {
			continue
		}
		if fref, t := b.r.findField(fr.typ.decl.Ref(), name); fref != nil {
			e.Kind = model.ExprFieldAccess
			e.Field = fref
			e.Type = b.inScope(sc, t)
			return e
		}
	}
	if fref, t := b.staticField(name); fref != nil {
		e.Kind = model.ExprFieldAccess
		e.Field = fref
		e.Type = b.inScope(sc, t)
		return e
	}
	if t, ok := b.r.resolveSimple(sc, name); ok && t.Kind == model.RefNamed {
		return typeAccess(e, t)
	}
	return e
}

func typeAccess(e *model.Expr, t *model.TypeRef) *model.Expr {
	e.Kind = model.ExprTypeAccess
	e.Type = t
	e.TypeRefs = []*model.TypeRef{t}
	return e
}

// staticOwners lists the types whose static member name is imported.
func (b *bodyBuilder) staticOwners(name string) []*model.TypeRef {
	imp := b.f.imports
	var owners []*model.TypeRef
	if owner, ok := imp.static[name]; ok {
		if bin := b.r.binaryOf(owner); bin != "" {
			owners = append(owners, b.r.named(bin))
		} else {
			owners = append(owners, model.Named(owner))
		}
	}
	for _, owner := range imp.staticOnDemand {
		if bin := b.r.binaryOf(owner); bin != "" {
			owners = append(owners, b.r.named(bin))
		}
	}
	return owners
}

func (b *bodyBuilder) staticField(name string) (*model.FieldRef, *model.TypeRef) {
	for _, owner := range b.staticOwners(name) {
		if fref, t := b.r.findField(owner, name); fref != nil {
			return fref, t
		}
	}
	return nil, nil
}

// fieldAccess handles "a.b": a field of an expression or type, a member
// type, the length of an array, or a longer package-qualified type name.
func (b *bodyBuilder) fieldAccess(sc *scope, n *sitter.Node) *model.Expr {
	f := b.f
	e := &model.Expr{Kind: model.ExprOther, Source: f.text(n), Pos: f.pos(n)}
	objNode := n.ChildByFieldName("object")
	fieldNode := n.ChildByFieldName("field")
	name := f.text(fieldNode)

	if fieldNode != nil && fieldNode.Type() == "this" {
		e.Kind = model.ExprThis
		if t := b.r.typeOf(sc, objNode); t != nil {
			e.Type = t
			e.TypeRefs = []*model.TypeRef{t}
		}
		return e
	}

	var obj *model.Expr
	if objNode != nil && objNode.Type() == "super" {
		obj = &model.Expr{Kind: model.ExprThis, Source: "super", Pos: f.pos(objNode), Type: b.superOf(sc)}
	} else {
		obj = b.expr(sc, objNode)
	}
	if obj == nil {
		return e
	}
	e.Target = obj

	if obj.Kind == model.ExprOther && obj.Type == nil && isNameNode(objNode) {
		if bin := b.r.binaryOf(dottedTypeName(e.Source)); bin != "" {
			e.Target = nil
			return typeAccess(e, b.r.named(bin))
		}
		return e
	}
	t := obj.Type
	if t == nil {
		return e
	}
	if t.Kind == model.RefArray && name == "length" {
		e.Kind = model.ExprFieldAccess
		e.Type = model.Primitive("int")
		return e
	}
	e.Kind = model.ExprFieldAccess
	if fref, ft := b.r.findField(t, name); fref != nil {
		e.Field = fref
		e.Type = b.inScope(sc, ft)
		return e
	}
	if obj.Kind == model.ExprTypeAccess {
		if m := b.r.memberType(t, name); m != nil {
			e.Target = nil
			return typeAccess(e, m)
		}
	}
	return e
}

func isNameNode(n *sitter.Node) bool {
	return n != nil && (n.Type() == "identifier" || n.Type() == "field_access")
}

func (b *bodyBuilder) superOf(sc *scope) *model.TypeRef {
	if ti := sc.enclosingType(); ti != nil && ti.decl.Super != nil {
		return ti.decl.Super
	}
	return b.r.named(objectName)
}

// invocation resolves a method call against its receiver's static type,
// or against the enclosing types and static imports when unqualified.
func (b *bodyBuilder) invocation(sc *scope, n *sitter.Node, e *model.Expr) {
	f := b.f
	e.Kind = model.ExprInvocation
	name := f.text(n.ChildByFieldName("name"))
	objNode := n.ChildByFieldName("object")
	e.Args = b.args(sc, n.ChildByFieldName("arguments"))

	var (
		ref *model.MethodRef
		ret *model.TypeRef
	)
	switch {
	case objNode == nil:
		ref, ret = b.unqualifiedMethod(sc, name, e.Args)
	case objNode.Type() == "super":
		super := b.superOf(sc)
		e.Target = &model.Expr{Kind: model.ExprThis, Source: "super", Pos: f.pos(objNode), Type: super}
		ref, ret = b.r.method(super, name, e.Args)
	case hasChild(n, "super"):
		// Iface.super.m() calls the default method of a direct superinterface.
		iface := b.r.typeOf(sc, objNode)
		if iface != nil {
			e.Target = typeAccess(&model.Expr{Source: f.text(objNode), Pos: f.pos(objNode)}, iface)
			ref, ret = b.r.method(iface, name, e.Args)
		}
	default:
		e.Target = b.expr(sc, objNode)
		recv := typeOfExpr(e.Target)
		if recv != nil {
			ref, ret = b.r.method(recv, name, e.Args)
			if ref == nil && recv.Kind == model.RefNamed && b.resolved(recv) {
				ref = &model.MethodRef{Owner: recv.Raw(), Name: name, Params: argTypes(e.Args)}
			}
		}
	}
	e.Method = ref
	b.complete(sc, e.Args, ref)
	if ref != nil {
		e.Type = b.inScope(sc, methodVarsErased(ref, ret))
	}
}

// resolved reports whether a named type was resolved to a qualified name,
// even if nothing is known about its members.
func (b *bodyBuilder) resolved(t *model.TypeRef) bool {
	return t.Decl != nil || strings.Contains(t.Name, ".") || b.r.known(t.Name)
}

// unqualifiedMethod looks an unqualified call up in the enclosing types,
// innermost first, then in the statically imported members.
func (b *bodyBuilder) unqualifiedMethod(sc *scope, name string, args []*model.Expr) (*model.MethodRef, *model.TypeRef) {
	for fr := sc; fr != nil; fr = fr.parent {
		if fr.typ == nil {
			continue
		}
		if ref, ret := b.r.method(fr.typ.decl.Ref(), name, args); ref != nil {
			return ref, ret
		}
	}
	for _, owner := range b.staticOwners(name) {
		if ref, ret := b.r.method(owner, name, args); ref != nil {
			return ref, ret
		}
	}
	return nil, nil
}

// methodVarsErased replaces the method's own type variables in its return
// type with their bounds. Inference is not modelled.
func methodVarsErased(ref *model.MethodRef, ret *model.TypeRef) *model.TypeRef {
	var params []*model.TypeParam
	switch {
	case ref.Decl != nil:
		params = ref.Decl.TypeParams
	case ref.Info != nil:
		params = ref.Info.TypeParams
	}
	if len(params) == 0 || ret == nil {
		return ret
	}
	subst := make(map[string]*model.TypeRef, len(params))
	for _, p := range params {
		subst[p.Name] = eraseVar(p.Bounds)
	}
	return substitute(ret, subst)
}

func eraseVar(bounds []*model.TypeRef) *model.TypeRef {
	if len(bounds) > 0 && bounds[0].Kind == model.RefNamed {
		return bounds[0].Raw()
	}
	return model.Named(objectName)
}

// inScope erases type variables that are not declared by an enclosing
// type or executable, such as those of a raw receiver.
func (b *bodyBuilder) inScope(sc *scope, t *model.TypeRef) *model.TypeRef {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case model.RefTypeVar:
		if visibleTypeVar(sc, t.Name) {
			return t
		}
		return eraseVar(t.Bounds)
	case model.RefArray:
		if elem := b.inScope(sc, t.Elem); elem != t.Elem {
			return &model.TypeRef{Kind: model.RefArray, Elem: elem}
		}
	case model.RefNamed, model.RefWildcard:
		if len(t.Args) == 0 && len(t.Bounds) == 0 {
			return t
		}
		cp := *t
		cp.Args = b.inScopeAll(sc, t.Args)
		cp.Bounds = b.inScopeAll(sc, t.Bounds)
		return &cp
	}
	return t
}

func (b *bodyBuilder) inScopeAll(sc *scope, ts []*model.TypeRef) []*model.TypeRef {
	if len(ts) == 0 {
		return ts
	}
	out := make([]*model.TypeRef, len(ts))
	for i, t := range ts {
		out[i] = b.inScope(sc, t)
	}
	return out
}

func visibleTypeVar(sc *scope, name string) bool {
	for fr := sc; fr != nil; fr = fr.parent {
		if findTypeParam(fr.typeParams, name) != nil {
			return true
		}
		if fr.typ != nil && findTypeParam(fr.typ.decl.TypeParams, name) != nil {
			return true
		}
	}
	return false
}

// capture reads a wildcard argument as its bound.
func capture(t *model.TypeRef) *model.TypeRef {
	if t == nil || t.Kind != model.RefWildcard {
		return t
	}
	if len(t.Bounds) == 0 {
		return model.Named(objectName)
	}
	return t.Bounds[0]
}

// args converts an argument list. Lambdas and method references are left
// pending for complete.
func (b *bodyBuilder) args(sc *scope, n *sitter.Node) []*model.Expr {
	var out []*model.Expr
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "lambda_expression", "method_reference":
			e := b.functional(c)
			b.pending[e] = c
			out = append(out, e)
		default:
			out = append(out, b.expr(sc, c))
		}
	}
	return out
}

// complete converts the pending arguments of a call now that the callee,
// possibly nil, is known.
func (b *bodyBuilder) complete(sc *scope, args []*model.Expr, ref *model.MethodRef) {
	var (
		params  []*model.TypeRef
		varargs bool
	)
	if ref != nil {
		params = ref.Params
		switch {
		case ref.Decl != nil:
			varargs = ref.Decl.VarArgs()
		case ref.Info != nil:
			varargs = ref.Info.VarArgs()
		}
	}
	for i, a := range args {
		n, ok := b.pending[a]
		if !ok {
			continue
		}
		delete(b.pending, a)
		var t *model.TypeRef
		switch {
		case varargs && i >= len(params)-1 && len(params) > 0:
			t = params[len(params)-1].Elem
		case i < len(params):
			t = params[i]
		}
		b.fillFunctional(sc, a, n, t)
	}
}

func (b *bodyBuilder) functional(n *sitter.Node) *model.Expr {
	e := &model.Expr{Kind: model.ExprLambda, Source: b.f.text(n), Pos: b.f.pos(n)}
	if n.Type() == "method_reference" {
		e.Kind = model.ExprMethodRef
	}
	return e
}

func (b *bodyBuilder) fillFunctional(sc *scope, e *model.Expr, n *sitter.Node, t *model.TypeRef) {
	if t != nil && t.Kind != model.RefNamed {
		t = nil
	}
	if n.Type() == "method_reference" {
		b.methodReference(sc, n, e, t)
		return
	}
	b.lambda(sc, n, e, t)
}

// lambda converts a lambda body in its own frame. Lambdas are named
// lambda$N in source order within the enclosing type, from 0.
func (b *bodyBuilder) lambda(sc *scope, n *sitter.Node, e *model.Expr, t *model.TypeRef) {
	f := b.f
	ti := sc.enclosingType()
	l := &model.Lambda{Type: t, Source: e.Source, Pos: e.Pos}
	if ti != nil {
		l.Name = "lambda$" + strconv.Itoa(ti.lambdas)
		ti.lambdas++
	}
	e.Lambda = l
	e.Type = t

	var sam []*model.TypeRef
	if t != nil {
		sam = b.r.functionalParams(t)
	}
	samType := func(i int) *model.TypeRef {
		if i < len(sam) {
			return implicit(b.inScope(sc, capture(sam[i])))
		}
		return nil
	}

	lsc := sc.child()
	lsc.lambda = true
	params := n.ChildByFieldName("parameters")
	switch {
	case params == nil:
	case params.Type() == "identifier":
		l.Params = append(l.Params, &model.LocalVar{Name: f.text(params), Type: samType(0), Source: f.text(params), Pos: f.pos(params)})
	case params.Type() == "formal_parameters":
		for i, p := range b.r.params(lsc, params) {
			v := &model.LocalVar{Name: p.Name, Type: p.Type, Modifiers: p.Modifiers, Annotations: p.Annotations, Pos: p.Pos}
			if v.Type == nil {
				v.Type = samType(i)
			}
			l.Params = append(l.Params, v)
		}
	default:
		for i, id := range namedChildren(params) {
			if id.Type() != "identifier" {
				continue
			}
			l.Params = append(l.Params, &model.LocalVar{Name: f.text(id), Type: samType(i), Source: f.text(id), Pos: f.pos(id)})
		}
	}
	for _, p := range l.Params {
		if p.Source == "" {
			p.Source = p.Name
		}
		lsc.declare(p.Name, &variable{local: p})
	}

	body := n.ChildByFieldName("body")
	if body != nil && body.Type() == "block" {
		l.Body = b.block(lsc, body)
	} else {
		l.Expr = b.expr(lsc, body)
	}
}

// methodReference resolves "X::m" by name on the type or the receiver
// expression. "X::new" refers to a constructor of X.
func (b *bodyBuilder) methodReference(sc *scope, n *sitter.Node, e *model.Expr, t *model.TypeRef) {
	f := b.f
	e.Type = t
	cs := namedChildren(n)
	if len(cs) == 0 {
		return
	}
	left := cs[0]
	isNew := hasChild(n, "new")
	name := ""
	if id := cs[len(cs)-1]; len(cs) > 1 && id.Type() == "identifier" {
		name = f.text(id)
	}

	var recv *model.TypeRef
	switch {
	case left.Type() == "super":
		recv = b.superOf(sc)
		e.Target = &model.Expr{Kind: model.ExprThis, Source: "super", Pos: f.pos(left), Type: recv}
	case isTypeNode(left) && left.Type() != "type_identifier":
		recv = b.r.typeOf(sc, left)
		if recv != nil {
			e.TypeRefs = []*model.TypeRef{recv}
		}
	default:
		e.Target = b.expr(sc, left)
		recv = typeOfExpr(e.Target)
		if e.Target != nil && e.Target.Kind == model.ExprTypeAccess {
			e.TypeRefs = e.Target.TypeRefs
		}
	}
	if recv == nil || recv.Kind != model.RefNamed {
		return
	}

	var ref *model.MethodRef
	switch {
	case isNew:
		ref = b.r.anyConstructor(recv)
	case name != "":
		ref = b.r.methodByName(recv, name)
		if ref == nil && b.resolved(recv) {
			ref = &model.MethodRef{Owner: recv.Raw(), Name: name}
		}
	}
	if ref != nil {
		cp := *ref
		cp.FromMethodReference = true
		e.Method = &cp
	}
}

// creation converts "new T(...)", including anonymous class bodies and
// inner class creation through an outer instance.
func (b *bodyBuilder) creation(sc *scope, n *sitter.Node, e *model.Expr) {
	f := b.f
	e.Kind = model.ExprNew
	typeNode := n.ChildByFieldName("type")

	var outer *model.Expr
	if first := qualifyingInstance(n); first != nil {
		outer = b.expr(sc, first)
		e.Target = outer
	}

	var t *model.TypeRef
	if outer != nil && outer.Type != nil {
		t = b.r.memberType(outer.Type, dottedTypeName(f.text(typeNode)))
	}
	if t == nil {
		t = b.r.typeOf(sc, typeNode)
	}
	e.Type = t
	if t != nil {
		e.TypeRefs = []*model.TypeRef{t}
	}
	e.Args = b.args(sc, n.ChildByFieldName("arguments"))

	body := childOfType(n, "class_body")
	if body == nil || !b.r.isInterface(t) {
		e.Method = b.r.constructor(t, e.Args)
	}
	b.complete(sc, e.Args, e.Method)
	if body != nil {
		e.Anonymous = b.anonymous(sc, n, body, t)
	}
}

// qualifyingInstance returns the expression before ".new", if any.
func qualifyingInstance(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch {
		case c.Type() == "new":
			return nil
		case c.IsNamed() && !isComment(c):
			return c
		}
	}
	return nil
}

// constructorCall converts this(...) and super(...) at the start of a
// constructor body.
func (b *bodyBuilder) constructorCall(sc *scope, n *sitter.Node) *model.Expr {
	f := b.f
	e := &model.Expr{Kind: model.ExprInvocation, Source: f.text(n), Pos: f.pos(n)}
	e.Args = b.args(sc, n.ChildByFieldName("arguments"))
	if obj := n.ChildByFieldName("object"); obj != nil {
		e.Target = b.expr(sc, obj)
	}
	var owner *model.TypeRef
	ctor := n.ChildByFieldName("constructor")
	switch {
	case ctor != nil && ctor.Type() == "this":
		if ti := sc.enclosingType(); ti != nil {
			owner = ti.decl.Ref()
		}
	default:
		owner = b.superOf(sc)
	}
	e.Method = b.r.constructor(owner, e.Args)
	b.complete(sc, e.Args, e.Method)
	return e
}

// instanceOf converts a type test, declaring a pattern variable when one
// is bound.
func (b *bodyBuilder) instanceOf(sc *scope, n *sitter.Node, e *model.Expr) {
	f := b.f
	e.Type = model.Primitive("boolean")
	e.Operands = []*model.Expr{b.expr(sc, n.ChildByFieldName("left"))}
	typeNode := n.ChildByFieldName("right")
	nameNode := n.ChildByFieldName("name")
	if pattern := childOfType(n, "type_pattern"); pattern != nil {
		typeNode = firstTypeChild(pattern)
		nameNode = childOfType(pattern, "identifier")
	}
	if typeNode == nil {
		typeNode = firstTypeChild(n)
	}
	t := b.r.typeOf(sc, typeNode)
	if t == nil {
		return
	}
	e.TypeRefs = []*model.TypeRef{t}
	if nameNode != nil {
		v := &model.LocalVar{Name: f.text(nameNode), Type: t, Source: f.text(nameNode), Pos: f.pos(nameNode)}
		sc.declare(v.Name, &variable{local: v})
	}
}

func (b *bodyBuilder) arrayCreation(sc *scope, n *sitter.Node, e *model.Expr) {
	f := b.f
	elem := b.r.typeOf(sc, n.ChildByFieldName("type"))
	dims := 0
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "dimensions_expr":
			dims++
			e.Operands = append(e.Operands, b.expr(sc, firstNamed(c)))
		case "dimensions":
			dims += f.dims(c)
		}
	}
	if elem != nil {
		e.Type = model.ArrayOf(elem, dims)
		e.TypeRefs = []*model.TypeRef{e.Type}
	}
	if value := n.ChildByFieldName("value"); value != nil {
		e.Operands = append(e.Operands, b.arrayInit(sc, value, e.Type))
	}
}

func (b *bodyBuilder) arrayInit(sc *scope, n *sitter.Node, t *model.TypeRef) *model.Expr {
	e := &model.Expr{Kind: model.ExprOther, Source: b.f.text(n), Pos: b.f.pos(n), Type: t}
	var elem *model.TypeRef
	if t != nil && t.Kind == model.RefArray {
		elem = t.Elem
	}
	for _, c := range namedChildren(n) {
		e.Operands = append(e.Operands, b.exprTo(sc, c, elem))
	}
	return e
}

// switchExpr keeps the selector and the values of expression-bodied rules.
func (b *bodyBuilder) switchExpr(sc *scope, n *sitter.Node, e *model.Expr) {
	e.Operands = append(e.Operands, b.expr(sc, n.ChildByFieldName("condition")))
	for _, rule := range namedChildren(n.ChildByFieldName("body")) {
		if rule.Type() != "switch_rule" {
			continue
		}
		body := lastNamed(rule)
		if body == nil || body.Type() != "expression_statement" {
			continue
		}
		v := b.expr(sc.child(), firstNamed(body))
		e.Operands = append(e.Operands, v)
		if e.Type == nil && v != nil && !v.Type.IsNull() {
			e.Type = v.Type
		}
	}
}

func (b *bodyBuilder) literalType(n *sitter.Node) *model.TypeRef {
	text := b.f.text(n)
	switch n.Type() {
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		if strings.HasSuffix(text, "l") || strings.HasSuffix(text, "L") {
			return model.Primitive("long")
		}
		return model.Primitive("int")
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		if strings.HasSuffix(text, "f") || strings.HasSuffix(text, "F") {
			return model.Primitive("float")
		}
		return model.Primitive("double")
	case "true", "false":
		return model.Primitive("boolean")
	case "character_literal":
		return model.Primitive("char")
	case "string_literal", "text_block":
		return b.r.named("java.lang.String")
	}
	return model.NullType()
}

func primitiveOf(t *model.TypeRef) string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case model.RefPrimitive:
		return t.Name
	case model.RefNamed:
		if p := unboxed(t.Name); p != t.Name {
			return p
		}
	}
	return ""
}

func isString(t *model.TypeRef) bool {
	return t != nil && t.Kind == model.RefNamed && t.Name == "java.lang.String"
}

// binaryType applies string concatenation and binary numeric promotion.
func binaryType(r *resolver, op string, l, rt *model.TypeRef) *model.TypeRef {
	switch op {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		return model.Primitive("boolean")
	case "+":
		if isString(l) || isString(rt) {
			return r.named("java.lang.String")
		}
	case "<<", ">>", ">>>":
		return unaryPromote(l)
	case "&", "|", "^":
		if primitiveOf(l) == "boolean" && primitiveOf(rt) == "boolean" {
			return model.Primitive("boolean")
		}
	}
	a, c := primitiveOf(l), primitiveOf(rt)
	if numericRank[a] == 0 || numericRank[c] == 0 {
		return nil
	}
	for _, p := range []string{"double", "float", "long"} {
		if a == p || c == p {
			return model.Primitive(p)
		}
	}
	return model.Primitive("int")
}

func unaryPromote(t *model.TypeRef) *model.TypeRef {
	switch p := primitiveOf(t); p {
	case "byte", "short", "char":
		return model.Primitive("int")
	case "int", "long", "float", "double":
		return model.Primitive(p)
	}
	return nil
}
