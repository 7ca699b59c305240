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
	"strconv"
	"strings"

	"github.com/kraklabs/jfacts/pkg/model"
	"github.com/kraklabs/jfacts/pkg/ontology"
)

// typeEntity wraps a type reference in the entity of its kind. It returns
// nil for absent references and the null type.
func (s *Session) typeEntity(ref *model.TypeRef, parent Entity) Entity {
	if ref.IsNull() {
		return nil
	}
	switch ref.Kind {
	case model.RefPrimitive:
		return &primitiveEntity{core: core{s: s, parent: parent}, ref: ref}
	case model.RefArray:
		return &arrayEntity{core: core{s: s, parent: parent}, ref: ref}
	case model.RefTypeVar, model.RefWildcard:
		tv := &typeVarEntity{core: core{s: s}, ref: ref}
		tv.SetParent(parent)
		return tv
	}
	if ref.IsParameterized() {
		if s.opts.Generics {
			return &parameterizedEntity{core: core{s: s, parent: parent}, ref: ref}
		}
		ref = ref.Raw()
	}
	return s.namedEntity(ref, parent)
}

// namedEntity wraps a class-like reference, choosing the source or compiled
// declaration provider once. Names found nowhere are treated as classes.
func (s *Session) namedEntity(ref *model.TypeRef, parent Entity) Entity {
	decl := ref.Decl
	if decl == nil {
		decl = s.lookupSource(ref.Name)
	}
	var (
		prov typeProvider
		kind = KindClass
	)
	switch {
	case decl != nil && decl.Anonymous:
		return s.anonymousEntity(decl, parent)
	case decl != nil:
		prov = sourceType{decl: decl}
		kind = kindOfDecl(decl.Kind)
	default:
		ci := s.lookupClass(ref.Name)
		prov = compiledType{name: ref.Name, info: ci}
		if ci != nil {
			kind = kindOfDecl(ci.Kind())
		}
	}
	nt := namedType{core: core{s: s, parent: parent}, kind: kind, name: ref.Name, prov: prov}
	switch kind {
	case KindInterface:
		return &interfaceEntity{nt}
	case KindAnnotation:
		return &annotationEntity{nt}
	default:
		return &classEntity{nt}
	}
}

// declEntity wraps a type declared in the loaded program.
func (s *Session) declEntity(decl *model.TypeDecl, parent Entity) Entity {
	return s.namedEntity(decl.Ref(), parent)
}

func kindOfDecl(k model.DeclKind) Kind {
	switch k {
	case model.DeclInterface:
		return KindInterface
	case model.DeclEnum:
		return KindEnum
	case model.DeclAnnotation:
		return KindAnnotation
	default:
		return KindClass
	}
}

// typeProvider is the declaration behind a named type entity.
type typeProvider interface {
	source() *model.TypeDecl            // nil when only compiled metadata is known
	modifiers() (model.Modifiers, bool) // false when nothing is known
	superclass() *model.TypeRef
	interfaces() []*model.TypeRef
	typeParams() []*model.TypeParam
	fields() []*model.FieldRef
	methods() []*model.MethodRef
	constructors() []*model.MethodRef
	// enclosingMethod is the executable a local or anonymous class is
	// declared in; declaringType is the lexically enclosing type.
	enclosingMethod(s *Session) *model.MethodRef
	declaringType() string
}

type sourceType struct{ decl *model.TypeDecl }

func (p sourceType) source() *model.TypeDecl            { return p.decl }
func (p sourceType) modifiers() (model.Modifiers, bool) { return p.decl.Modifiers, true }
func (p sourceType) superclass() *model.TypeRef         { return p.decl.Super }
func (p sourceType) interfaces() []*model.TypeRef       { return p.decl.Interfaces }
func (p sourceType) typeParams() []*model.TypeParam     { return p.decl.TypeParams }

func (p sourceType) fields() []*model.FieldRef {
	out := make([]*model.FieldRef, 0, len(p.decl.Fields))
	for _, f := range p.decl.Fields {
		out = append(out, f.Ref())
	}
	return out
}

func (p sourceType) methods() []*model.MethodRef {
	out := make([]*model.MethodRef, 0, len(p.decl.Methods))
	for _, m := range p.decl.Methods {
		out = append(out, m.Ref())
	}
	return out
}

func (p sourceType) constructors() []*model.MethodRef {
	out := make([]*model.MethodRef, 0, len(p.decl.Constructors))
	for _, m := range p.decl.Constructors {
		out = append(out, m.Ref())
	}
	return out
}

func (p sourceType) enclosingMethod(*Session) *model.MethodRef {
	if p.decl.EnclosingMethod == nil {
		return nil
	}
	return p.decl.EnclosingMethod.Ref()
}

func (p sourceType) declaringType() string {
	if p.decl.Outer == nil {
		return ""
	}
	return p.decl.Outer.QualifiedName
}

// compiledType reads class-file or catalog metadata. info is nil when the
// name could not be found on the classpath.
type compiledType struct {
	name string
	info *model.ClassInfo
}

func (p compiledType) source() *model.TypeDecl { return nil }

func (p compiledType) modifiers() (model.Modifiers, bool) {
	if p.info == nil {
		return 0, false
	}
	return model.ModifiersFromAccess(p.info.Access, model.AccessClass), true
}

func (p compiledType) superclass() *model.TypeRef {
	if p.info == nil {
		return nil
	}
	return p.info.Super
}

func (p compiledType) interfaces() []*model.TypeRef {
	if p.info == nil {
		return nil
	}
	return p.info.Interfaces
}

func (p compiledType) typeParams() []*model.TypeParam {
	if p.info == nil {
		return nil
	}
	return p.info.TypeParams
}

func (p compiledType) fields() []*model.FieldRef {
	if p.info == nil {
		return nil
	}
	out := make([]*model.FieldRef, 0, len(p.info.Fields))
	for _, f := range p.info.Fields {
		out = append(out, fieldRefFromInfo(p.name, f))
	}
	return out
}

func (p compiledType) methods() []*model.MethodRef {
	if p.info == nil {
		return nil
	}
	var out []*model.MethodRef
	for _, m := range p.info.DeclaredMethods() {
		out = append(out, methodRefFromInfo(p.name, m))
	}
	return out
}

func (p compiledType) constructors() []*model.MethodRef {
	if p.info == nil {
		return nil
	}
	var out []*model.MethodRef
	for _, m := range p.info.Constructors() {
		out = append(out, methodRefFromInfo(p.name, m))
	}
	return out
}

func (p compiledType) enclosingMethod(s *Session) *model.MethodRef {
	if p.info == nil || p.info.EnclosingMethod == nil {
		return nil
	}
	outer := s.lookupClass(p.info.EnclosingClass)
	if outer == nil {
		return nil
	}
	key := p.info.EnclosingMethod
	for _, m := range outer.Methods {
		if m.Name == key.Name && (key.Descriptor == "" || m.Descriptor == key.Descriptor) {
			return methodRefFromInfo(outer.Name, m)
		}
	}
	return nil
}

func (p compiledType) declaringType() string {
	if p.info == nil {
		return ""
	}
	if p.info.DeclaringClass != "" {
		return p.info.DeclaringClass
	}
	return p.info.EnclosingClass
}

func methodRefFromInfo(owner string, m *model.MethodInfo) *model.MethodRef {
	name := m.Name
	if m.IsConstructor() {
		name = model.SimpleName(owner)
	}
	return &model.MethodRef{
		Owner:       model.Named(owner),
		Name:        name,
		Constructor: m.IsConstructor(),
		Params:      m.Params,
		Return:      m.Return,
		Info:        m,
	}
}

func fieldRefFromInfo(owner string, f *model.FieldInfo) *model.FieldRef {
	return &model.FieldRef{Owner: model.Named(owner), Name: f.Name, Type: f.Type, Info: f}
}

// namedType is the part shared by classes, enums, interfaces and
// annotations. Its URI is the binary qualified name.
type namedType struct {
	core
	kind Kind
	name string
	prov typeProvider

	// members forces member facts for a compiled type, as archive
	// packages own the types they list.
	members bool
}

func (t *namedType) URI() string    { return t.once(func() string { return typeURI(t.name) }) }
func (t *namedType) Kind() Kind     { return t.kind }
func (t *namedType) declared() bool { return t.prov.source() != nil }

func (t *namedType) typeParams() []*model.TypeParam { return t.prov.typeParams() }

func (t *namedType) enclosingGeneric() genericDecl {
	if m := t.prov.enclosingMethod(t.s); m != nil {
		if g, ok := t.s.executableEntity(m, nil).(genericDecl); ok {
			return g
		}
	}
	if outer := t.prov.declaringType(); outer != "" {
		if g, ok := t.s.namedEntity(model.Named(outer), nil).(genericDecl); ok {
			return g
		}
	}
	return nil
}

func (t *namedType) simpleName() string {
	if d := t.prov.source(); d != nil {
		return d.Name
	}
	return model.SimpleName(t.name)
}

func (t *namedType) canonicalName() string { return strings.ReplaceAll(t.name, "$", ".") }

func (t *namedType) tagSuperInterfaces(s *Session, self Entity, predicate string) {
	for _, ref := range t.prov.interfaces() {
		iface := s.typeEntity(ref, self)
		s.link(self, predicate, iface)
		s.Follow(iface)
	}
}

func (t *namedType) tagModifiers(s *Session, self Entity) {
	if mods, ok := t.prov.modifiers(); ok {
		tagModifiers(s, self, mods)
	}
}

func (t *namedType) tagFields(s *Session, self Entity) {
	var fields []Entity
	for _, ref := range t.prov.fields() {
		f := s.fieldEntity(ref, self)
		fields = append(fields, f)
		s.link(self, ontology.HasField, f)
	}
	for _, f := range fields {
		s.Extract(f)
	}
}

func (t *namedType) tagMethods(s *Session, self Entity) {
	var methods []Entity
	for _, ref := range t.prov.methods() {
		m := s.executableEntity(ref, self)
		methods = append(methods, m)
		s.link(self, ontology.HasMethod, m)
	}
	for _, m := range methods {
		s.Extract(m)
	}
}

func (t *namedType) tagConstructors(s *Session, self Entity) {
	var ctors []Entity
	for _, ref := range t.prov.constructors() {
		c := s.executableEntity(ref, self)
		ctors = append(ctors, c)
		s.link(self, ontology.HasConstructor, c)
	}
	for _, c := range ctors {
		s.Extract(c)
	}
}

func (t *namedType) tagNested(s *Session, self Entity) {
	d := t.prov.source()
	if d == nil {
		return
	}
	for _, n := range d.Nested {
		nested := s.declEntity(n, nil)
		s.link(nested, ontology.IsDeclaredBy, self)
		s.Extract(nested)
	}
}

// classEntity is a class or an enum.
type classEntity struct{ namedType }

func (c *classEntity) extract(s *Session) {
	class := ontology.Class
	if c.kind == KindEnum {
		class = ontology.Enum
	}
	s.tagType(c, class)
	s.tagString(c, ontology.HasSimpleName, c.simpleName())
	s.tagString(c, ontology.HasCanonicalName, c.canonicalName())
	s.tagLabel(c, c.simpleName())
	c.tagSuperclass(s)
	c.tagSuperInterfaces(s, c, ontology.Implements)
	c.tagModifiers(s, c)

	decl := c.prov.source()
	if decl != nil || c.members || s.opts.ExploreArchives {
		c.tagFields(s, c)
		c.tagConstructors(s, c)
		c.tagMethods(s, c)
	}
	if decl != nil {
		tagAnnotations(s, c, decl.Annotations)
		s.tagComment(c, decl.Doc)
		s.tagSource(c, decl.Source)
		c.tagNested(s, c)
		tagFormalTypeParams(s, c, decl.TypeParams)
	}
}

func (c *classEntity) tagSuperclass(s *Session) {
	if c.name == "java.lang.Object" {
		return
	}
	ref := c.prov.superclass()
	if ref == nil {
		ref = model.Named("java.lang.Object")
	}
	super := s.typeEntity(ref, c)
	s.link(c, ontology.Extends, super)
	s.Follow(super)
}

type interfaceEntity struct{ namedType }

func (i *interfaceEntity) extract(s *Session) {
	s.tagType(i, ontology.Interface)
	s.tagName(i, i.simpleName())
	s.tagLabel(i, i.simpleName())
	i.tagSuperInterfaces(s, i, ontology.Extends)
	i.tagModifiers(s, i)

	decl := i.prov.source()
	if decl != nil || i.members || s.opts.ExploreArchives {
		i.tagFields(s, i)
		i.tagMethods(s, i)
	}
	if decl != nil {
		tagAnnotations(s, i, decl.Annotations)
		s.tagSource(i, decl.Source)
		s.tagComment(i, decl.Doc)
		tagFormalTypeParams(s, i, decl.TypeParams)
	}
}

type annotationEntity struct{ namedType }

func (a *annotationEntity) extract(s *Session) {
	s.tagType(a, ontology.Annotation)
	s.tagName(a, a.simpleName())
	s.tagLabel(a, a.simpleName())
	if decl := a.prov.source(); decl != nil {
		s.tagComment(a, decl.Doc)
		s.tagSource(a, decl.Source)
	}
}

// primitiveEntity URIs capitalise the keyword: int is "Int".
type primitiveEntity struct {
	core
	ref *model.TypeRef
}

func (p *primitiveEntity) Kind() Kind { return KindPrimitive }

func (p *primitiveEntity) URI() string {
	return p.once(func() string {
		if p.ref.Name == "" {
			return ""
		}
		return strings.ToUpper(p.ref.Name[:1]) + p.ref.Name[1:]
	})
}

func (p *primitiveEntity) extract(s *Session) {
	s.tagType(p, ontology.PrimitiveType)
	s.tagName(p, p.ref.Name)
}

// arrayEntity keeps its immediate component, so int[][] is an array of
// int[], itself an array of Int.
type arrayEntity struct {
	core
	ref       *model.TypeRef
	component Entity
}

func (a *arrayEntity) Kind() Kind { return KindArray }

func (a *arrayEntity) componentEntity() Entity {
	if a.component == nil {
		a.component = a.s.typeEntity(a.ref.Elem, a.parent)
	}
	return a.component
}

func (a *arrayEntity) URI() string {
	return a.once(func() string {
		c := a.componentEntity()
		if c == nil {
			return "[]"
		}
		return c.URI() + "[]"
	})
}

// name lowercases primitive components so int[][] reads "int[][]".
func (a *arrayEntity) name() string {
	inner := a.ref.Innermost()
	dims := strings.Repeat("[]", a.ref.Dimensions())
	if inner != nil && inner.Kind == model.RefPrimitive {
		return inner.Name + dims
	}
	c := a.componentEntity()
	if c == nil {
		return dims
	}
	return c.URI() + "[]"
}

func (a *arrayEntity) extract(s *Session) {
	s.tagType(a, ontology.ArrayType)
	s.tagName(a, a.name())
	s.tagLabel(a, a.name())
	c := a.componentEntity()
	s.link(a, ontology.IsArrayOf, c)
	s.Follow(c)
	s.tagInt(a, ontology.HasDimensions, a.ref.Dimensions())
}

// parameterizedEntity is a generic type applied to arguments. Its URI
// embeds the argument URIs, or a fixed suffix for the diamond.
type parameterizedEntity struct {
	core
	ref  *model.TypeRef
	args []Entity
}

func (p *parameterizedEntity) Kind() Kind { return KindParameterized }

func (p *parameterizedEntity) diamond() bool {
	return p.ref.Diamond || (len(p.ref.Args) > 0 && p.ref.Args[0].Implicit)
}

func (p *parameterizedEntity) arguments() []Entity {
	if p.args == nil {
		p.args = make([]Entity, 0, len(p.ref.Args))
		for _, arg := range p.ref.Args {
			p.args = append(p.args, p.s.typeEntity(arg, p.parent))
		}
	}
	return p.args
}

func (p *parameterizedEntity) URI() string {
	return p.once(func() string {
		if p.diamond() {
			return p.ref.Name + Separator + "diamond"
		}
		parts := make([]string, 0, len(p.ref.Args))
		for _, a := range p.arguments() {
			if a != nil {
				parts = append(parts, a.URI())
			}
		}
		uri := p.ref.Name + "[" + strings.Join(parts, Separator) + "]"
		return strings.ReplaceAll(uri, " ", "_")
	})
}

func (p *parameterizedEntity) extract(s *Session) {
	s.tagType(p, ontology.ParameterizedType)
	generic := s.namedEntity(p.ref.Raw(), p)
	s.Follow(generic)
	s.link(p, ontology.HasGenericType, generic)
	if p.diamond() {
		return
	}
	for i, arg := range p.arguments() {
		if arg == nil {
			continue
		}
		ta := &typeArgumentEntity{core: core{s: s, parent: p}, argument: arg, position: i}
		s.link(p, ontology.HasActualTypeArg, ta)
		s.Extract(ta)
	}
}

// typeArgumentEntity links a parameterized type to one actual argument.
type typeArgumentEntity struct {
	core
	argument Entity
	position int
}

func (t *typeArgumentEntity) Kind() Kind { return KindTypeArgument }

func (t *typeArgumentEntity) URI() string {
	return t.once(func() string { return t.parentURI() + Separator + strconv.Itoa(t.position) })
}

func (t *typeArgumentEntity) extract(s *Session) {
	s.tagType(t, ontology.TypeArgument)
	s.link(t, ontology.HasType, t.argument)
	s.Follow(t.argument)
	s.tagInt(t, ontology.HasPosition, t.position)
}

// typeVarEntity is a type variable or a wildcard. Assigning a parent to a
// type variable resolves the generic declaration that introduces it.
type typeVarEntity struct {
	core
	ref      *model.TypeRef
	owner    Entity
	position int
}

func (t *typeVarEntity) Kind() Kind {
	if t.wildcard() {
		return KindWildcard
	}
	return KindTypeVariable
}

func (t *typeVarEntity) wildcard() bool { return t.ref.Kind == model.RefWildcard }

func (t *typeVarEntity) SetParent(p Entity) {
	t.parent = p
	t.owner = nil
	if p == nil || !t.s.opts.Generics || t.wildcard() {
		return
	}
	t.owner = t.s.resolveOwner(t.ref.Name, p)
	if t.owner == nil {
		t.s.stats.TypeVarFailures++
		extMetrics.init()
		extMetrics.typeVarFailures.Inc()
		t.s.logger.Debug("typevar.unresolved", "name", t.ref.Name, "context", p.URI())
	}
}

func (t *typeVarEntity) URI() string {
	return t.once(func() string {
		if !t.s.opts.Generics || t.parent == nil {
			return t.ref.Name
		}
		if t.wildcard() {
			return t.wildcardURI()
		}
		if t.owner == nil {
			return t.ref.Name
		}
		return t.ref.Name + ":" + t.owner.URI()
	})
}

func (t *typeVarEntity) wildcardURI() string {
	const sep = "_"
	var b strings.Builder
	b.WriteString("?")
	if len(t.ref.Bounds) > 0 {
		b.WriteString(sep)
		if t.ref.Upper {
			b.WriteString("extends")
		} else {
			b.WriteString("super")
		}
	}
	for _, bound := range t.ref.Bounds {
		if e := t.s.typeEntity(bound, t.parent); e != nil {
			b.WriteString(sep)
			b.WriteString(e.URI())
		}
	}
	return b.String()
}

func (t *typeVarEntity) extract(s *Session) {
	if !s.opts.Generics {
		return
	}
	if t.wildcard() {
		s.tagType(t, ontology.Wildcard)
	} else {
		s.tagType(t, ontology.TypeVariable)
	}
	for _, ref := range t.ref.Bounds {
		bound := s.typeEntity(ref, t.parent)
		if t.wildcard() && !t.ref.Upper {
			s.link(t, ontology.HasSuperBound, bound)
		} else {
			s.link(t, ontology.Extends, bound)
		}
		s.Follow(bound)
	}
	s.tagInt(t, ontology.HasPosition, t.position)
}
