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
	"github.com/kraklabs/jfacts/pkg/facts"
	"github.com/kraklabs/jfacts/pkg/model"
	"github.com/kraklabs/jfacts/pkg/ontology"
)

// executable is the part shared by methods and constructors. The source
// declaration and compiled metadata are looked up once, at construction.
type executable struct {
	core
	ref  *model.MethodRef
	decl *model.MethodDecl
	info *model.MethodInfo

	owner     Entity
	requested *requests
}

// executableEntity wraps an executable reference. A nil parent defaults to
// the declaring type when the URI is first built.
func (s *Session) executableEntity(ref *model.MethodRef, parent Entity) Entity {
	if ref == nil {
		return nil
	}
	ex := executable{core: core{s: s, parent: parent}, ref: ref, decl: ref.Decl, info: ref.Info}
	s.resolveExecutable(&ex)
	if ref.Constructor {
		return &constructorEntity{ex}
	}
	return &methodEntity{ex}
}

func (s *Session) resolveExecutable(ex *executable) {
	owner := ex.ownerName()
	if ex.decl == nil {
		if d := s.lookupSource(owner); d != nil {
			candidates := d.Constructors
			if !ex.ref.Constructor {
				candidates = d.FindMethods(ex.ref.Name)
			}
			for _, m := range candidates {
				if paramsMatch(declParamTypes(m), ex.ref.Params) {
					ex.decl = m
					break
				}
			}
		}
	}
	if ex.decl != nil || ex.info != nil {
		return
	}
	ci := s.lookupClass(owner)
	if ci == nil {
		return
	}
	name := ex.ref.Name
	if ex.ref.Constructor {
		name = "<init>"
	}
	for _, m := range ci.Methods {
		if m.Name == name && paramsMatch(m.Params, ex.ref.Params) {
			ex.info = m
			return
		}
	}
}

func declParamTypes(m *model.MethodDecl) []*model.TypeRef {
	out := make([]*model.TypeRef, 0, len(m.Params))
	for _, p := range m.Params {
		out = append(out, p.Type)
	}
	return out
}

// paramsMatch compares parameter lists by erasure. Type variables match
// anything since their erasure depends on bounds the caller may not know.
func paramsMatch(a, b []*model.TypeRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i].Innermost(), b[i].Innermost()
		if x == nil || y == nil {
			continue
		}
		if x.Kind == model.RefTypeVar || y.Kind == model.RefTypeVar {
			continue
		}
		if a[i].Erasure() != b[i].Erasure() {
			return false
		}
	}
	return true
}

func (e *executable) declared() bool { return e.decl != nil }

func (e *executable) ownerName() string {
	if e.decl != nil && e.decl.Owner != nil {
		return e.decl.Owner.QualifiedName
	}
	if e.ref.Owner != nil {
		return e.ref.Owner.Name
	}
	return ""
}

// ownerEntity returns the declaring type.
func (e *executable) ownerEntity() Entity {
	if e.owner == nil {
		if e.decl != nil && e.decl.Owner != nil {
			e.owner = e.s.declEntity(e.decl.Owner, nil)
		} else if name := e.ownerName(); name != "" {
			e.owner = e.s.namedEntity(model.Named(name), nil)
		}
	}
	return e.owner
}

func (e *executable) name() string {
	if e.decl != nil {
		return e.decl.Name
	}
	return e.ref.Name
}

func (e *executable) typeParams() []*model.TypeParam {
	switch {
	case e.decl != nil:
		return e.decl.TypeParams
	case e.info != nil:
		return e.info.TypeParams
	}
	return nil
}

func (e *executable) enclosingGeneric() genericDecl {
	if g, ok := e.ownerEntity().(genericDecl); ok {
		return g
	}
	return nil
}

func (e *executable) modifiers() (model.Modifiers, bool) {
	switch {
	case e.decl != nil:
		return e.decl.Modifiers, true
	case e.info != nil:
		return model.ModifiersFromAccess(e.info.Access, model.AccessMethod), true
	}
	return 0, false
}

func (e *executable) varArgs() bool {
	switch {
	case e.decl != nil:
		return e.decl.VarArgs()
	case e.info != nil:
		return e.info.VarArgs()
	}
	return false
}

func (e *executable) parameters(self Entity) []Entity {
	var out []Entity
	if e.decl != nil {
		for i, p := range e.decl.Params {
			out = append(out, &paramEntity{core: core{s: e.s, parent: self}, decl: p, typ: p.Type, position: i, doc: e.decl.Doc})
		}
		return out
	}
	params := e.ref.Params
	if params == nil && e.info != nil {
		params = e.info.Params
	}
	for i, t := range params {
		if t.IsNull() {
			continue
		}
		out = append(out, &paramEntity{core: core{s: e.s, parent: self}, typ: t, position: i})
	}
	return out
}

// requestedResources lists the executables, fields and types the body uses.
// It is empty until the executable has been extracted.
func (e *executable) requestedResources() []Entity {
	if e.requested == nil {
		return nil
	}
	return e.requested.resources()
}

func (e *executable) extractCommon(s *Session, self Entity, class string) {
	s.tagName(self, e.name())
	s.tagLabel(self, e.name())
	s.tagType(self, class)
	tagDeclaredBy(s, self, e.ownerEntity())
	for _, p := range e.parameters(self) {
		s.link(self, ontology.HasParameter, p)
		s.Extract(p)
	}
	if mods, ok := e.modifiers(); ok {
		tagModifiers(s, self, mods)
	}
	s.literal(self, ontology.IsVarArgs, facts.Bool(e.varArgs()))
	if e.decl == nil {
		return
	}
	e.requested = s.scanRequests(self, e.decl)
	e.requested.tag(s, self)
	tagAnnotations(s, self, e.decl.Annotations)
	s.tagComment(self, e.decl.Doc)
	s.tagSource(self, e.decl.Source)
	for _, ref := range e.decl.Throws {
		s.link(self, ontology.Throws, s.typeEntity(ref, self))
	}
	if s.opts.Statements {
		tagBody(s, self, e.decl.Body, 0)
	}
}

type methodEntity struct{ executable }

func (m *methodEntity) Kind() Kind { return KindMethod }

// URI is "Owner-Owner-name(p1-p2)": the parent followed by the normalized
// reflection signature.
func (m *methodEntity) URI() string {
	return m.once(func() string {
		if m.parent == nil {
			m.parent = m.ownerEntity()
		}
		uri := m.ref.Signature()
		if m.parent != nil {
			uri = m.parent.URI() + Separator + uri
		}
		return normalize(uri)
	})
}

func (m *methodEntity) returnType() *model.TypeRef {
	switch {
	case m.ref.Return != nil:
		return m.ref.Return
	case m.decl != nil && m.decl.Return != nil:
		return m.decl.Return
	case m.info != nil && m.info.Return != nil:
		return m.info.Return
	}
	return model.Primitive("void")
}

func (m *methodEntity) extract(s *Session) {
	m.extractCommon(s, m, ontology.Method)
	ret := s.typeEntity(m.returnType(), m)
	s.link(m, ontology.HasReturnType, ret)
	s.Follow(ret)
	if m.decl == nil {
		return
	}
	if o := s.overridden(m); o != nil {
		s.link(m, ontology.Overrides, o)
		s.Follow(o)
	}
	tagFormalTypeParams(s, m, m.decl.TypeParams)
	if desc := model.DocTag(m.decl.Doc, "return", ""); desc != "" {
		s.tagString(m, ontology.HasReturnDesc, desc)
	}
}

type constructorEntity struct{ executable }

func (c *constructorEntity) Kind() Kind { return KindConstructor }

// URI is the normalized signature alone: "Owner(p1-p2)".
func (c *constructorEntity) URI() string {
	return c.once(func() string { return normalize(c.ref.Signature()) })
}

func (c *constructorEntity) extract(s *Session) {
	c.extractCommon(s, c, ontology.Constructor)
	if c.decl != nil {
		tagFormalTypeParams(s, c, c.decl.TypeParams)
	}
}

// overridden finds the nearest supertype method m overrides, searching
// superclasses before interfaces, breadth first.
func (s *Session) overridden(m *methodEntity) Entity {
	if m.decl != nil && (m.decl.Modifiers.Has(model.ModStatic) || m.decl.Modifiers.Has(model.ModPrivate)) {
		return nil
	}
	params := m.ref.Params
	seen := map[string]bool{}
	queue := s.supertypes(m.ownerName())
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		if d := s.lookupSource(name); d != nil {
			for _, cand := range d.FindMethods(m.ref.Name) {
				if paramsMatch(declParamTypes(cand), params) {
					return s.executableEntity(cand.Ref(), nil)
				}
			}
		} else if ci := s.lookupClass(name); ci != nil {
			for _, cand := range ci.DeclaredMethods() {
				if cand.Name == m.ref.Name && paramsMatch(cand.Params, params) {
					return s.executableEntity(methodRefFromInfo(ci.Name, cand), nil)
				}
			}
		}
		queue = append(queue, s.supertypes(name)...)
	}
	return nil
}

// supertypes returns the direct supertypes of a class-like name.
func (s *Session) supertypes(name string) []string {
	var refs []*model.TypeRef
	if d := s.lookupSource(name); d != nil {
		refs = append(refs, d.Super)
		refs = append(refs, d.Interfaces...)
	} else if ci := s.lookupClass(name); ci != nil {
		refs = append(refs, ci.Super)
		refs = append(refs, ci.Interfaces...)
	}
	var out []string
	for _, r := range refs {
		if r != nil && r.Kind == model.RefNamed {
			out = append(out, r.Name)
		}
	}
	return out
}

// paramEntity is a formal parameter. Compiled parameters only carry a type.
type paramEntity struct {
	core
	decl     *model.ParamDecl
	typ      *model.TypeRef
	position int
	doc      string // Javadoc of the declaring executable
}

func (p *paramEntity) Kind() Kind     { return KindParameter }
func (p *paramEntity) declared() bool { return p.decl != nil }

func (p *paramEntity) URI() string {
	return p.once(func() string { return p.childURI("parameter", p.position) })
}

func (p *paramEntity) extract(s *Session) {
	s.tagType(p, ontology.Parameter)
	tagTypedElement(s, p, s.typeEntity(p.typ, p.parent))
	s.tagInt(p, ontology.HasPosition, p.position)
	if p.decl == nil {
		return
	}
	tagAnnotations(s, p, p.decl.Annotations)
	s.tagName(p, p.decl.Name)
	s.tagLabel(p, p.decl.Name)
	if c := model.DocTag(p.doc, "param", p.decl.Name); c != "" {
		s.tagComment(p, c)
	}
}

// fieldEntity is a field, addressed as "DeclaringType-name".
type fieldEntity struct {
	core
	ref  *model.FieldRef
	decl *model.FieldDecl
	info *model.FieldInfo

	owner Entity
}

func (s *Session) fieldEntity(ref *model.FieldRef, parent Entity) Entity {
	if ref == nil {
		return nil
	}
	f := &fieldEntity{core: core{s: s, parent: parent}, ref: ref, decl: ref.Decl, info: ref.Info}
	owner := f.ownerName()
	if f.decl == nil {
		if d := s.lookupSource(owner); d != nil {
			f.decl = d.FindField(ref.Name)
		}
	}
	if f.decl == nil && f.info == nil {
		if ci := s.lookupClass(owner); ci != nil {
			f.info = ci.FindField(ref.Name)
		}
	}
	return f
}

func (f *fieldEntity) Kind() Kind     { return KindField }
func (f *fieldEntity) declared() bool { return f.decl != nil }

func (f *fieldEntity) ownerName() string {
	if f.decl != nil && f.decl.Owner != nil {
		return f.decl.Owner.QualifiedName
	}
	if f.ref.Owner != nil {
		return f.ref.Owner.Name
	}
	return ""
}

func (f *fieldEntity) ownerEntity() Entity {
	if f.owner == nil {
		if f.decl != nil && f.decl.Owner != nil {
			f.owner = f.s.declEntity(f.decl.Owner, nil)
		} else if name := f.ownerName(); name != "" {
			f.owner = f.s.namedEntity(model.Named(name), nil)
		}
	}
	return f.owner
}

func (f *fieldEntity) URI() string {
	return f.once(func() string {
		if owner := f.ownerEntity(); owner != nil {
			return owner.URI() + Separator + f.ref.Name
		}
		return f.ref.Name
	})
}

func (f *fieldEntity) fieldType() *model.TypeRef {
	switch {
	case f.ref.Type != nil:
		return f.ref.Type
	case f.decl != nil && f.decl.Type != nil:
		return f.decl.Type
	case f.info != nil && f.info.Type != nil:
		return f.info.Type
	}
	return f.ref.Owner
}

func (f *fieldEntity) extract(s *Session) {
	s.tagName(f, f.ref.Name)
	s.tagLabel(f, f.ref.Name)
	s.tagType(f, ontology.Field)
	owner := f.ownerEntity()
	tagDeclaredBy(s, f, owner)
	tagTypedElement(s, f, s.typeEntity(f.fieldType(), owner))
	switch {
	case f.decl != nil:
		tagModifiers(s, f, f.decl.Modifiers)
	case f.info != nil:
		tagModifiers(s, f, model.ModifiersFromAccess(f.info.Access, model.AccessField))
	}
	if f.decl == nil {
		return
	}
	s.tagSource(f, f.decl.Source)
	s.tagComment(f, f.decl.Doc)
	tagAnnotations(s, f, f.decl.Annotations)
	if s.opts.Statements {
		s.Extract(&fieldDeclEntity{core: core{s: s, parent: f}, decl: f.decl})
	}
}

// localVarEntity is a local variable, anchored to the executable, lambda or
// type whose body declares it.
type localVarEntity struct {
	core
	v *model.LocalVar
}

func isLocalScope(e Entity) bool {
	return isExecutable(e) || isTypeDecl(e) || e.Kind() == KindLambda
}

func (s *Session) localVarEntity(v *model.LocalVar, parent Entity) Entity {
	if v == nil {
		return nil
	}
	anchor := parent
	if parent != nil && !isLocalScope(parent) {
		if a := ancestor(parent, isLocalScope); a != nil {
			anchor = a
		}
	}
	return &localVarEntity{core: core{s: s, parent: anchor}, v: v}
}

func (l *localVarEntity) Kind() Kind     { return KindLocalVariable }
func (l *localVarEntity) declared() bool { return true }

func (l *localVarEntity) URI() string {
	return l.once(func() string { return l.parentURI() + Separator + l.v.Name })
}

// typeScope is the nearest executable or type, used to resolve type
// variables in the variable's declared type.
func (l *localVarEntity) typeScope() Entity {
	if l.parent == nil || isExecutable(l.parent) || isTypeDecl(l.parent) {
		return l.parent
	}
	return ancestor(l.parent, func(e Entity) bool { return isExecutable(e) || isTypeDecl(e) })
}

func (l *localVarEntity) extract(s *Session) {
	s.tagType(l, ontology.LocalVariable)
	s.tagName(l, l.v.Name)
	s.tagLabel(l, l.v.Name)
	tagTypedElement(s, l, s.typeEntity(l.v.Type, l.typeScope()))
	tagModifiers(s, l, l.v.Modifiers)
	tagDeclaredBy(s, l, l.parent)
	s.tagSource(l, l.v.Source)
}

// lambdaEntity is a lambda expression, addressed by its synthetic name
// under the enclosing executable.
type lambdaEntity struct {
	core
	l *model.Lambda
}

func (s *Session) lambdaEntity(l *model.Lambda, parent Entity) Entity {
	if l == nil {
		return nil
	}
	return &lambdaEntity{core: core{s: s, parent: parent}, l: l}
}

func (l *lambdaEntity) Kind() Kind     { return KindLambda }
func (l *lambdaEntity) declared() bool { return true }

func (l *lambdaEntity) URI() string {
	return l.once(func() string { return l.parentURI() + Separator + "lambda" + Separator + l.l.Name })
}

func (l *lambdaEntity) extract(s *Session) {
	s.tagType(l, ontology.LambdaExpression)
	s.tagSource(l, l.l.Source)
	if l.l.Type.IsNull() {
		return
	}
	implemented := s.typeEntity(l.l.Type, l.parent)
	s.link(l, ontology.Implements, implemented)
	s.Follow(implemented)
}

// anonymousEntity is an anonymous class body, anchored to the executable
// that instantiates it (or the outer type for field initializers).
type anonymousEntity struct {
	core
	decl      *model.TypeDecl
	requested entitySet
}

func (s *Session) anonymousEntity(decl *model.TypeDecl, parent Entity) Entity {
	if parent == nil {
		switch {
		case decl.EnclosingMethod != nil:
			parent = s.executableEntity(decl.EnclosingMethod.Ref(), nil)
		case decl.Outer != nil:
			parent = s.declEntity(decl.Outer, nil)
		}
	}
	return &anonymousEntity{core: core{s: s, parent: parent}, decl: decl}
}

func (a *anonymousEntity) Kind() Kind     { return KindAnonymousClass }
func (a *anonymousEntity) declared() bool { return true }

func (a *anonymousEntity) URI() string {
	return a.once(func() string { return a.parentURI() + Separator + "anonymous-class" + Separator + a.decl.Name })
}

func (a *anonymousEntity) typeParams() []*model.TypeParam { return nil }

func (a *anonymousEntity) enclosingGeneric() genericDecl {
	if g, ok := a.parent.(genericDecl); ok {
		return g
	}
	if a.parent == nil {
		return nil
	}
	if g := ancestor(a.parent, func(e Entity) bool { _, ok := e.(genericDecl); return ok }); g != nil {
		return g.(genericDecl)
	}
	return nil
}

// requestedResources lists what the class body uses, for the enclosing
// executable to reference.
func (a *anonymousEntity) requestedResources() []Entity { return a.requested.items }

func (a *anonymousEntity) extract(s *Session) {
	s.tagType(a, ontology.AnonymousClass)
	a.tagSuperType(s)
	s.tagComment(a, a.decl.Doc)
	for _, fd := range a.decl.Fields {
		f := s.fieldEntity(fd.Ref(), a)
		s.Extract(f)
		a.requested.add(s.typeEntity(fd.Type, a))
	}
	for _, md := range a.decl.Methods {
		m := s.executableEntity(md.Ref(), a)
		s.Extract(m)
		if ex, ok := m.(*methodEntity); ok {
			for _, r := range ex.requestedResources() {
				a.requested.add(r)
			}
		}
	}
	s.tagSource(a, a.decl.Source)
	for _, n := range a.decl.Nested {
		nested := s.declEntity(n, nil)
		s.link(nested, ontology.IsDeclaredBy, a)
		s.Extract(nested)
	}
}

// tagSuperType links the instantiated type: the first interface with
// implements, or the superclass with extends.
func (a *anonymousEntity) tagSuperType(s *Session) {
	predicate := ontology.Extends
	ref := a.decl.Super
	if len(a.decl.Interfaces) > 0 {
		predicate = ontology.Implements
		ref = a.decl.Interfaces[0]
	}
	if ref == nil {
		ref = model.Named("java.lang.Object")
	}
	super := s.typeEntity(ref, a.parent)
	s.link(a, predicate, super)
	a.requested.add(super)
	s.Follow(super)
}
