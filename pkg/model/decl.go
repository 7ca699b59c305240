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

import "strings"

// Position locates a node in its compilation unit. Lines and columns are
// 1-based; EndColumn is inclusive.
type Position struct {
	File      string
	MainType  string // binary name of the compilation unit's main type
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

// Modifiers is a set of Java modifier keywords.
type Modifiers uint16

const (
	ModPublic Modifiers = 1 << iota
	ModPrivate
	ModProtected
	ModStatic
	ModFinal
	ModSynchronized
	ModVolatile
	ModTransient
	ModNative
	ModAbstract
	ModStrict
	ModDefault // default interface method
)

// Has reports whether every modifier in m2 is set.
func (m Modifiers) Has(m2 Modifiers) bool { return m&m2 == m2 }

var modifierKeywords = map[string]Modifiers{
	"public":       ModPublic,
	"private":      ModPrivate,
	"protected":    ModProtected,
	"static":       ModStatic,
	"final":        ModFinal,
	"synchronized": ModSynchronized,
	"volatile":     ModVolatile,
	"transient":    ModTransient,
	"native":       ModNative,
	"abstract":     ModAbstract,
	"strictfp":     ModStrict,
	"default":      ModDefault,
}

// ModifierFromKeyword maps a source keyword to its modifier bit.
func ModifierFromKeyword(kw string) (Modifiers, bool) {
	m, ok := modifierKeywords[kw]
	return m, ok
}

// DeclKind tells class-like declarations apart.
type DeclKind uint8

const (
	DeclClass DeclKind = iota
	DeclInterface
	DeclEnum
	DeclAnnotation
)

func (k DeclKind) String() string {
	switch k {
	case DeclInterface:
		return "interface"
	case DeclEnum:
		return "enum"
	case DeclAnnotation:
		return "annotation"
	default:
		return "class"
	}
}

// TypeParam is a formal type parameter with its declared bounds.
type TypeParam struct {
	Name   string
	Bounds []*TypeRef
}

// Ref returns a type variable reference carrying the parameter's bounds.
func (p *TypeParam) Ref() *TypeRef {
	return TypeVar(p.Name, p.Bounds...)
}

// HasTypeParam reports whether params declares name.
func HasTypeParam(params []*TypeParam, name string) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// TypeDecl is a class, interface, enum or annotation declared in source.
type TypeDecl struct {
	Kind          DeclKind
	Name          string // simple name; anonymous classes use their ordinal ("1")
	QualifiedName string // binary name, e.g. "pkg.Outer$Inner" or "pkg.Outer$1"
	Package       string

	Modifiers   Modifiers
	TypeParams  []*TypeParam
	Super       *TypeRef
	Interfaces  []*TypeRef
	Annotations []*TypeRef

	Fields       []*FieldDecl
	Methods      []*MethodDecl
	Constructors []*MethodDecl
	Nested       []*TypeDecl

	Doc    string
	Source string
	Pos    *Position

	Anonymous bool
	Local     bool

	// Outer is the lexically enclosing type. EnclosingMethod is set for local
	// and anonymous classes declared inside an executable body.
	Outer           *TypeDecl
	EnclosingMethod *MethodDecl
}

// Ref returns a reference to d.
func (d *TypeDecl) Ref() *TypeRef {
	return &TypeRef{Kind: RefNamed, Name: d.QualifiedName, Decl: d}
}

// FindField returns the field named name declared directly by d.
func (d *TypeDecl) FindField(name string) *FieldDecl {
	for _, f := range d.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FindMethods returns the methods named name declared directly by d.
func (d *TypeDecl) FindMethods(name string) []*MethodDecl {
	var out []*MethodDecl
	for _, m := range d.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// FieldDecl is a field declared in source.
type FieldDecl struct {
	Name        string
	Type        *TypeRef
	Modifiers   Modifiers
	Annotations []*TypeRef
	Init        *Expr
	Doc         string
	Source      string
	Pos         *Position
	Owner       *TypeDecl
}

// Ref returns a reference to f.
func (f *FieldDecl) Ref() *FieldRef {
	return &FieldRef{Owner: f.Owner.Ref(), Name: f.Name, Type: f.Type, Decl: f}
}

// ParamDecl is a formal parameter of a source executable.
type ParamDecl struct {
	Name        string
	Type        *TypeRef
	VarArgs     bool
	Modifiers   Modifiers
	Annotations []*TypeRef
	Pos         *Position
}

// MethodDecl is a method or constructor declared in source.
type MethodDecl struct {
	Name        string // constructors carry the simple name of their type
	Constructor bool
	Owner       *TypeDecl

	Modifiers   Modifiers
	TypeParams  []*TypeParam
	Params      []*ParamDecl
	Return      *TypeRef // nil for constructors
	Throws      []*TypeRef
	Annotations []*TypeRef

	Body   *Stmt // nil for abstract and native methods
	Doc    string
	Source string
	Pos    *Position
}

// Ref returns an executable reference to m.
func (m *MethodDecl) Ref() *MethodRef {
	params := make([]*TypeRef, 0, len(m.Params))
	for _, p := range m.Params {
		params = append(params, p.Type)
	}
	return &MethodRef{
		Owner:       m.Owner.Ref(),
		Name:        m.Name,
		Constructor: m.Constructor,
		Params:      params,
		Return:      m.Return,
		Decl:        m,
	}
}

// VarArgs reports whether the last parameter is variadic.
func (m *MethodDecl) VarArgs() bool {
	return len(m.Params) > 0 && m.Params[len(m.Params)-1].VarArgs
}

// MethodRef is a reference to an executable, resolved to its source
// declaration or compiled metadata when possible.
type MethodRef struct {
	Owner       *TypeRef // declaring type
	Name        string
	Constructor bool
	Params      []*TypeRef
	Return      *TypeRef

	Decl *MethodDecl  // source declaration
	Info *MethodInfo  // compiled metadata
	// FromMethodReference marks references created by "Type::method"
	// expressions.
	FromMethodReference bool
}

// Signature renders the reference the way reflection prints executables:
// "pkg.Type#name(p1,p2)" for methods and "pkg.Type(p1,p2)" for constructors.
func (r *MethodRef) Signature() string {
	params := make([]string, 0, len(r.Params))
	for _, p := range r.Params {
		params = append(params, p.Erasure())
	}
	owner := ""
	if r.Owner != nil {
		owner = r.Owner.Name
	}
	head := owner
	if !r.Constructor {
		head = owner + "#" + r.Name
	}
	return head + "(" + strings.Join(params, ",") + ")"
}

// FieldRef is a reference to a field.
type FieldRef struct {
	Owner *TypeRef
	Name  string
	Type  *TypeRef

	Decl *FieldDecl
	Info *FieldInfo
}

// LocalVar is a local variable, resource or catch parameter declared in a body.
type LocalVar struct {
	Name        string
	Type        *TypeRef
	Init        *Expr
	Modifiers   Modifiers
	Annotations []*TypeRef
	Source      string
	Pos         *Position
}

// Lambda is a lambda expression's synthetic executable.
type Lambda struct {
	Name   string    // lambda$N, numbered per enclosing type
	Type   *TypeRef  // functional interface, when known
	Params []*LocalVar
	Body   *Stmt // block bodies
	Expr   *Expr // expression bodies
	Source string
	Pos    *Position
}
