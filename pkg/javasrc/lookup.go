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
	"github.com/kraklabs/jfacts/pkg/model"
)

const objectName = "java.lang.Object"

// supertype is one step of a hierarchy walk. subst maps the type
// parameters of the visited type to the arguments it was reached with.
type supertype struct {
	ref   *model.TypeRef
	decl  *model.TypeDecl
	info  *model.ClassInfo
	subst map[string]*model.TypeRef
}

func (r *resolver) supertype(ref *model.TypeRef) *supertype {
	h := &supertype{ref: ref, decl: r.declOf(ref)}
	var params []*model.TypeParam
	if h.decl != nil {
		params = h.decl.TypeParams
	} else {
		h.info = r.classInfo(ref.Name)
		if h.info != nil {
			params = h.info.TypeParams
		}
	}
	for i, p := range params {
		if i >= len(ref.Args) {
			break
		}
		arg := ref.Args[i]
		if arg.Kind == model.RefWildcard {
			if len(arg.Bounds) == 0 {
				continue
			}
			arg = arg.Bounds[0]
		}
		if h.subst == nil {
			h.subst = make(map[string]*model.TypeRef)
		}
		h.subst[p.Name] = arg
	}
	return h
}

func (h *supertype) supers() []*model.TypeRef {
	var raw []*model.TypeRef
	switch {
	case h.decl != nil:
		if h.decl.Super != nil {
			raw = append(raw, h.decl.Super)
		}
		raw = append(raw, h.decl.Interfaces...)
	case h.info != nil:
		if h.info.Super != nil {
			raw = append(raw, h.info.Super)
		}
		raw = append(raw, h.info.Interfaces...)
	}
	out := make([]*model.TypeRef, 0, len(raw))
	for _, t := range raw {
		out = append(out, substitute(t, h.subst))
	}
	return out
}

// hierarchy visits start and its supertypes breadth first, most derived
// first, ending with java.lang.Object. visit returns false to stop.
func (r *resolver) hierarchy(start *model.TypeRef, visit func(h *supertype) bool) {
	start = referenceBase(start)
	if start == nil {
		start = r.named(objectName)
	}
	seen := make(map[string]bool)
	queue := []*model.TypeRef{start}
	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		if ref == nil || ref.Kind != model.RefNamed || seen[ref.Name] {
			continue
		}
		seen[ref.Name] = true
		h := r.supertype(ref)
		if !visit(h) {
			return
		}
		queue = append(queue, h.supers()...)
	}
	if !seen[objectName] {
		visit(r.supertype(r.named(objectName)))
	}
}

// referenceBase returns the class-like type whose members t exposes: type
// variables and wildcards by their first bound, arrays as Object.
func referenceBase(t *model.TypeRef) *model.TypeRef {
	for t != nil {
		switch t.Kind {
		case model.RefNamed:
			return t
		case model.RefTypeVar, model.RefWildcard:
			if len(t.Bounds) == 0 {
				return nil
			}
			t = t.Bounds[0]
		default:
			return nil
		}
	}
	return nil
}

// substitute replaces type variables bound in subst.
func substitute(t *model.TypeRef, subst map[string]*model.TypeRef) *model.TypeRef {
	if t == nil || len(subst) == 0 {
		return t
	}
	switch t.Kind {
	case model.RefTypeVar:
		if s, ok := subst[t.Name]; ok {
			return s
		}
	case model.RefArray:
		if elem := substitute(t.Elem, subst); elem != t.Elem {
			return &model.TypeRef{Kind: model.RefArray, Elem: elem}
		}
	case model.RefWildcard, model.RefNamed:
		if len(t.Args) == 0 && len(t.Bounds) == 0 {
			return t
		}
		cp := *t
		cp.Args = substituteAll(t.Args, subst)
		cp.Bounds = substituteAll(t.Bounds, subst)
		return &cp
	}
	return t
}

func substituteAll(ts []*model.TypeRef, subst map[string]*model.TypeRef) []*model.TypeRef {
	if len(ts) == 0 {
		return ts
	}
	out := make([]*model.TypeRef, len(ts))
	for i, t := range ts {
		out[i] = substitute(t, subst)
	}
	return out
}

// findField looks name up in t and its supertypes. The returned type has
// the receiver's type arguments applied.
func (r *resolver) findField(t *model.TypeRef, name string) (*model.FieldRef, *model.TypeRef) {
	var (
		found *model.FieldRef
		typ   *model.TypeRef
	)
	r.hierarchy(t, func(h *supertype) bool {
		switch {
		case h.decl != nil:
			if fd := h.decl.FindField(name); fd != nil {
				found, typ = fd.Ref(), substitute(fd.Type, h.subst)
				return false
			}
		case h.info != nil:
			if fi := h.info.FindField(name); fi != nil {
				found = &model.FieldRef{Owner: r.named(h.info.Name), Name: name, Type: fi.Type, Info: fi}
				typ = substitute(fi.Type, h.subst)
				return false
			}
		}
		return true
	})
	return found, typ
}

// memberType finds a member type named name, inherited ones included.
func (r *resolver) memberType(t *model.TypeRef, name string) *model.TypeRef {
	var found *model.TypeRef
	r.hierarchy(t, func(h *supertype) bool {
		switch {
		case h.decl != nil:
			for _, n := range h.decl.Nested {
				if n.Name == name {
					found = n.Ref()
					return false
				}
			}
		case h.info != nil:
			if cand := h.info.Name + "$" + name; r.known(cand) {
				found = r.named(cand)
				return false
			}
		}
		return true
	})
	return found
}

// candidate is an executable considered for a call site.
type candidate struct {
	ref     *model.MethodRef
	varargs bool
	subst   map[string]*model.TypeRef
}

func (r *resolver) methodsNamed(h *supertype, name string) []candidate {
	var out []candidate
	switch {
	case h.decl != nil:
		for _, m := range h.decl.FindMethods(name) {
			out = append(out, candidate{ref: m.Ref(), varargs: m.VarArgs(), subst: h.subst})
		}
	case h.info != nil:
		for _, m := range h.info.DeclaredMethods() {
			if m.Name != name {
				continue
			}
			ref := &model.MethodRef{Owner: r.named(h.info.Name), Name: name, Params: m.Params, Return: m.Return, Info: m}
			out = append(out, candidate{ref: ref, varargs: m.VarArgs(), subst: h.subst})
		}
	}
	return out
}

// method picks the most applicable method named name for args on recv and
// returns it with its return type as seen through recv.
func (r *resolver) method(recv *model.TypeRef, name string, args []*model.Expr) (*model.MethodRef, *model.TypeRef) {
	var (
		best      *candidate
		bestScore int
	)
	r.hierarchy(recv, func(h *supertype) bool {
		for _, c := range r.methodsNamed(h, name) {
			score, ok := r.applicable(c.ref.Params, c.varargs, args)
			if ok && (best == nil || score > bestScore) {
				c := c
				best, bestScore = &c, score
			}
		}
		return true
	})
	if best == nil {
		return nil, nil
	}
	return best.ref, substitute(best.ref.Return, best.subst)
}

// methodByName returns the first method named name, for method references
// whose arity is unknown.
func (r *resolver) methodByName(recv *model.TypeRef, name string) *model.MethodRef {
	var found *model.MethodRef
	r.hierarchy(recv, func(h *supertype) bool {
		if cs := r.methodsNamed(h, name); len(cs) > 0 {
			found = cs[0].ref
			return false
		}
		return true
	})
	return found
}

// constructor picks the constructor of t for args. Source classes without
// constructors get their implicit default one; types found nowhere get a
// reference built from the argument types.
func (r *resolver) constructor(t *model.TypeRef, args []*model.Expr) *model.MethodRef {
	if t == nil || t.Kind != model.RefNamed {
		return nil
	}
	if d := r.declOf(t); d != nil {
		if len(d.Constructors) == 0 {
			return &model.MethodRef{Owner: d.Ref(), Name: d.Name, Constructor: true}
		}
		var (
			best      *model.MethodRef
			bestScore int
		)
		for _, c := range d.Constructors {
			score, ok := r.applicable(declParamTypes(c), c.VarArgs(), args)
			if ok && (best == nil || score > bestScore) {
				best, bestScore = c.Ref(), score
			}
		}
		if best != nil {
			return best
		}
		return unresolvedConstructor(d.Ref(), args)
	}
	owner := r.named(t.Name)
	if ci := r.classInfo(t.Name); ci != nil {
		var (
			best      *model.MethodInfo
			bestScore int
		)
		for _, m := range ci.Constructors() {
			score, ok := r.applicable(m.Params, m.VarArgs(), args)
			if ok && (best == nil || score > bestScore) {
				best, bestScore = m, score
			}
		}
		if best != nil {
			return &model.MethodRef{Owner: owner, Name: ci.SimpleName(), Constructor: true, Params: best.Params, Info: best}
		}
	}
	return unresolvedConstructor(owner, args)
}

func unresolvedConstructor(owner *model.TypeRef, args []*model.Expr) *model.MethodRef {
	return &model.MethodRef{Owner: owner, Name: model.SimpleName(owner.Name), Constructor: true, Params: argTypes(args)}
}

// anyConstructor serves "Type::new".
func (r *resolver) anyConstructor(t *model.TypeRef) *model.MethodRef {
	if d := r.declOf(t); d != nil {
		if len(d.Constructors) > 0 {
			return d.Constructors[0].Ref()
		}
		return &model.MethodRef{Owner: d.Ref(), Name: d.Name, Constructor: true}
	}
	if ci := r.classInfo(t.Name); ci != nil {
		if cs := ci.Constructors(); len(cs) > 0 {
			return &model.MethodRef{Owner: r.named(t.Name), Name: ci.SimpleName(), Constructor: true, Params: cs[0].Params, Info: cs[0]}
		}
	}
	return &model.MethodRef{Owner: r.named(t.Name), Name: model.SimpleName(t.Name), Constructor: true}
}

// functionalParams returns the parameter types of the single abstract
// method of a functional interface, with t's type arguments applied.
func (r *resolver) functionalParams(t *model.TypeRef) []*model.TypeRef {
	var params []*model.TypeRef
	r.hierarchy(t, func(h *supertype) bool {
		switch {
		case h.decl != nil:
			for _, m := range h.decl.Methods {
				if m.Modifiers.Has(model.ModAbstract) && !objectMethod(m.Name) {
					params = substituteAll(declParamTypes(m), h.subst)
					return false
				}
			}
		case h.info != nil:
			for _, m := range h.info.DeclaredMethods() {
				if m.Access&model.AccAbstract != 0 && !objectMethod(m.Name) {
					params = substituteAll(m.Params, h.subst)
					return false
				}
			}
		}
		return true
	})
	return params
}

func objectMethod(name string) bool {
	switch name {
	case "equals", "hashCode", "toString":
		return true
	}
	return false
}

func declParamTypes(m *model.MethodDecl) []*model.TypeRef {
	out := make([]*model.TypeRef, 0, len(m.Params))
	for _, p := range m.Params {
		out = append(out, p.Type)
	}
	return out
}

func argTypes(args []*model.Expr) []*model.TypeRef {
	out := make([]*model.TypeRef, 0, len(args))
	for _, a := range args {
		if a == nil || a.Type.IsNull() {
			out = append(out, model.Named(objectName))
			continue
		}
		out = append(out, a.Type)
	}
	return out
}

// applicable scores a parameter list against call arguments. Exact arity
// beats variable arity; each argument adds how closely its static type
// matches the parameter.
func (r *resolver) applicable(params []*model.TypeRef, varargs bool, args []*model.Expr) (int, bool) {
	n := len(params)
	score := 0
	switch {
	case len(args) == n:
		score = 1000
	case varargs && len(args) >= n-1:
	default:
		return 0, false
	}
	for i, a := range args {
		var p *model.TypeRef
		switch {
		case varargs && i >= n-1 && (len(args) != n || !isArrayArg(a)):
			p = params[n-1].Elem
		case i < n:
			p = params[i]
		}
		score += r.argScore(a, p)
	}
	return score, true
}

func isArrayArg(a *model.Expr) bool {
	return a != nil && a.Type != nil && a.Type.Kind == model.RefArray
}

func (r *resolver) argScore(a *model.Expr, p *model.TypeRef) int {
	if a == nil || a.Type.IsNull() || p == nil {
		return 0
	}
	at := a.Type
	if p.Kind == model.RefTypeVar || p.Kind == model.RefWildcard {
		return 1
	}
	switch {
	case at.Erasure() == p.Erasure():
		return 4
	case boxed(at.Erasure()) == boxed(p.Erasure()):
		return 3
	case at.Kind == model.RefPrimitive && p.Kind == model.RefPrimitive:
		if widens(at.Name, p.Name) {
			return 2
		}
		return -10
	case p.Kind == model.RefNamed && at.Kind != model.RefPrimitive && r.isSubtype(at, p.Name):
		return 2
	case p.Kind == model.RefNamed && p.Name == objectName:
		return 1
	}
	return -5
}

func (r *resolver) isSubtype(t *model.TypeRef, name string) bool {
	found := false
	r.hierarchy(t, func(h *supertype) bool {
		if h.ref.Name == name {
			found = true
			return false
		}
		return true
	})
	return found
}

var boxes = map[string]string{
	"boolean": "java.lang.Boolean",
	"byte":    "java.lang.Byte",
	"char":    "java.lang.Character",
	"short":   "java.lang.Short",
	"int":     "java.lang.Integer",
	"long":    "java.lang.Long",
	"float":   "java.lang.Float",
	"double":  "java.lang.Double",
	"void":    "java.lang.Void",
}

func boxed(name string) string {
	if b, ok := boxes[name]; ok {
		return b
	}
	return name
}

func unboxed(name string) string {
	for p, b := range boxes {
		if b == name {
			return p
		}
	}
	return name
}

var numericRank = map[string]int{
	"byte": 1, "short": 2, "char": 2, "int": 3, "long": 4, "float": 5, "double": 6,
}

func widens(from, to string) bool {
	a, okA := numericRank[from]
	b, okB := numericRank[to]
	return okA && okB && a <= b
}
