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

import (
	"fmt"
	"strings"
)

// RefKind is the shape of a type reference, fixed by the loader.
type RefKind uint8

const (
	RefNamed     RefKind = iota // class, interface, enum or annotation
	RefPrimitive                // int, boolean, void, ...
	RefArray
	RefTypeVar
	RefWildcard
	RefNull // static type of the null literal
)

// NullTypeName is the marker name carried by null type references.
const NullTypeName = "<nulltype>"

// TypeRef is a resolved (or best-effort) reference to a type.
//
// Named references use binary qualified names with '$' for nested types
// ("java.util.Map$Entry"). Arrays keep their immediate component in Elem, so
// int[][] is an array of int[].
type TypeRef struct {
	Kind RefKind
	Name string

	// Named types.
	Args    []*TypeRef // actual type arguments
	Diamond bool       // written as <> in source

	// Arrays.
	Elem *TypeRef

	// Type variables and wildcards.
	Bounds []*TypeRef
	Upper  bool // wildcard "? extends"

	// Implicit references are inferred, not written in source.
	Implicit bool

	// Decl is the source declaration, set when the type is part of the
	// loaded program.
	Decl *TypeDecl
}

// Named builds a reference to a class-like type.
func Named(name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: RefNamed, Name: name, Args: args}
}

// Primitive builds a primitive type reference.
func Primitive(name string) *TypeRef {
	return &TypeRef{Kind: RefPrimitive, Name: name}
}

// ArrayOf wraps elem in dims array dimensions.
func ArrayOf(elem *TypeRef, dims int) *TypeRef {
	t := elem
	for i := 0; i < dims; i++ {
		t = &TypeRef{Kind: RefArray, Elem: t}
	}
	return t
}

// TypeVar builds a type variable reference.
func TypeVar(name string, bounds ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: RefTypeVar, Name: name, Bounds: bounds}
}

// Wildcard builds a wildcard reference. upper selects "extends" over "super".
func Wildcard(upper bool, bounds ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: RefWildcard, Name: "?", Upper: upper, Bounds: bounds}
}

// NullType returns the null type marker.
func NullType() *TypeRef {
	return &TypeRef{Kind: RefNull, Name: NullTypeName}
}

// IsNull reports whether t is absent or the null type marker.
func (t *TypeRef) IsNull() bool {
	return t == nil || t.Kind == RefNull
}

// IsParameterized reports whether t carries actual type arguments.
func (t *TypeRef) IsParameterized() bool {
	return t != nil && t.Kind == RefNamed && (len(t.Args) > 0 || t.Diamond)
}

// Raw returns t without its type arguments.
func (t *TypeRef) Raw() *TypeRef {
	if t == nil || t.Kind != RefNamed || !t.IsParameterized() {
		return t
	}
	return &TypeRef{Kind: RefNamed, Name: t.Name, Implicit: t.Implicit, Decl: t.Decl}
}

// Dimensions returns the number of array dimensions of t.
func (t *TypeRef) Dimensions() int {
	n := 0
	for cur := t; cur != nil && cur.Kind == RefArray; cur = cur.Elem {
		n++
	}
	return n
}

// Innermost returns the non-array component of t.
func (t *TypeRef) Innermost() *TypeRef {
	cur := t
	for cur != nil && cur.Kind == RefArray {
		cur = cur.Elem
	}
	return cur
}

// SimpleName returns the unqualified name of t.
func (t *TypeRef) SimpleName() string {
	if t == nil {
		return ""
	}
	if t.Kind == RefArray {
		return t.Elem.SimpleName() + "[]"
	}
	return SimpleName(t.Name)
}

// Package returns the package part of a named reference's binary name.
func (t *TypeRef) Package() string {
	if t == nil || t.Kind != RefNamed {
		return ""
	}
	if t.Decl != nil {
		return t.Decl.Package
	}
	return PackageOf(t.Name)
}

// Erasure renders t the way executable signatures spell parameter types.
func (t *TypeRef) Erasure() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case RefArray:
		return t.Elem.Erasure() + "[]"
	case RefTypeVar, RefWildcard:
		if len(t.Bounds) > 0 && (t.Kind == RefTypeVar || t.Upper) {
			return t.Bounds[0].Erasure()
		}
		return "java.lang.Object"
	default:
		return t.Name
	}
}

// String renders t in Java syntax.
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case RefArray:
		return t.Elem.String() + "[]"
	case RefWildcard:
		if len(t.Bounds) == 0 {
			return "?"
		}
		clause := " super "
		if t.Upper {
			clause = " extends "
		}
		return "?" + clause + joinTypes(t.Bounds, " & ")
	case RefNamed:
		if t.Diamond {
			return t.Name + "<>"
		}
		if len(t.Args) > 0 {
			return t.Name + "<" + joinTypes(t.Args, ", ") + ">"
		}
		return t.Name
	default:
		return t.Name
	}
}

func joinTypes(types []*TypeRef, sep string) string {
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, sep)
}

// SimpleName strips the package and enclosing type from a binary name.
func SimpleName(name string) string {
	if i := strings.LastIndexAny(name, ".$"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// PackageOf returns the package of a binary class name. Nested types keep
// the package of their top-level type because '$' separates them.
func PackageOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return ""
}

var primitives = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true, "void": true,
}

// IsPrimitiveName reports whether name is a Java primitive keyword.
func IsPrimitiveName(name string) bool { return primitives[name] }

// ParseTypeString parses a Java type written with qualified names, such as
// "java.util.Map<K, java.util.List<V>>[]" or "? extends T". Names that are
// listed in typeVars become type variables. It is used by class catalogs.
func ParseTypeString(s string, typeVars ...string) (*TypeRef, error) {
	p := typeParser{src: strings.TrimSpace(s), vars: make(map[string]bool)}
	for _, v := range typeVars {
		p.vars[v] = true
	}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("parse type %q: unexpected %q", s, p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	src  string
	pos  int
	vars map[string]bool
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) parse() (*TypeRef, error) {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], "?") {
		p.pos++
		p.skipSpace()
		rest := p.src[p.pos:]
		var upper bool
		switch {
		case strings.HasPrefix(rest, "extends "):
			upper = true
			p.pos += len("extends ")
		case strings.HasPrefix(rest, "super "):
			p.pos += len("super ")
		default:
			return Wildcard(true), nil
		}
		bound, err := p.parse()
		if err != nil {
			return nil, err
		}
		return Wildcard(upper, bound), nil
	}

	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("<>,[] ", p.src[p.pos]) < 0 {
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		return nil, fmt.Errorf("parse type %q: missing name at %d", p.src, start)
	}

	var t *TypeRef
	switch {
	case IsPrimitiveName(name):
		t = Primitive(name)
	case p.vars[name]:
		t = TypeVar(name)
	default:
		t = Named(name)
	}

	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		p.pos++
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '>' {
			p.pos++
			t.Diamond = true
		} else {
			for {
				arg, err := p.parse()
				if err != nil {
					return nil, err
				}
				t.Args = append(t.Args, arg)
				p.skipSpace()
				if p.pos >= len(p.src) {
					return nil, fmt.Errorf("parse type %q: unterminated arguments", p.src)
				}
				if p.src[p.pos] == ',' {
					p.pos++
					continue
				}
				if p.src[p.pos] == '>' {
					p.pos++
					break
				}
				return nil, fmt.Errorf("parse type %q: unexpected %q", p.src, p.src[p.pos])
			}
		}
	}

	for {
		p.skipSpace()
		if !strings.HasPrefix(p.src[p.pos:], "[]") {
			break
		}
		p.pos += 2
		t = ArrayOf(t, 1)
	}
	return t, nil
}
