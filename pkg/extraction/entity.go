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
	"regexp"
	"strings"

	"github.com/kraklabs/jfacts/pkg/ontology"
)

// Separator joins the parts of a relative URI.
const Separator = "-"

// Kind identifies the fact-emission algorithm of an entity.
type Kind uint8

const (
	KindPackage Kind = iota
	KindClass
	KindInterface
	KindEnum
	KindAnnotation
	KindPrimitive
	KindArray
	KindTypeVariable
	KindWildcard
	KindParameterized
	KindTypeArgument
	KindAnonymousClass
	KindField
	KindMethod
	KindConstructor
	KindParameter
	KindLocalVariable
	KindLambda
	KindStatement
	KindSwitchLabel
	KindCatch
	KindFinally
	KindFieldDeclaration
	KindStatementExpressionList
	KindExpression
	KindArgument
	KindProject
	KindJar
)

var kindNames = [...]string{
	KindPackage:                 "package",
	KindClass:                   "class",
	KindInterface:               "interface",
	KindEnum:                    "enum",
	KindAnnotation:              "annotation",
	KindPrimitive:               "primitive",
	KindArray:                   "array",
	KindTypeVariable:            "type_variable",
	KindWildcard:                "wildcard",
	KindParameterized:           "parameterized_type",
	KindTypeArgument:            "type_argument",
	KindAnonymousClass:          "anonymous_class",
	KindField:                   "field",
	KindMethod:                  "method",
	KindConstructor:             "constructor",
	KindParameter:               "parameter",
	KindLocalVariable:           "local_variable",
	KindLambda:                  "lambda",
	KindStatement:               "statement",
	KindSwitchLabel:             "switch_label",
	KindCatch:                   "catch",
	KindFinally:                 "finally",
	KindFieldDeclaration:        "field_declaration",
	KindStatementExpressionList: "statement_expression_list",
	KindExpression:              "expression",
	KindArgument:                "argument",
	KindProject:                 "project",
	KindJar:                     "jar",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// named reports whether entities of kind k are program declarations that a
// follow may skip because their own package extracts them.
func (k Kind) named() bool {
	switch k {
	case KindPackage, KindClass, KindInterface, KindEnum, KindAnnotation,
		KindPrimitive, KindArray, KindTypeVariable, KindWildcard, KindAnonymousClass,
		KindField, KindMethod, KindConstructor, KindParameter, KindLocalVariable, KindLambda:
		return true
	}
	return false
}

// Entity is one node of the fact graph. The set of implementations is closed.
type Entity interface {
	// URI returns the relative URI. It is computed on first call and never
	// changes afterwards.
	URI() string
	Parent() Entity
	SetParent(p Entity)
	Kind() Kind

	// declared reports whether the element's source declaration is part of
	// the loaded program.
	declared() bool
	extract(s *Session)
}

// IRI returns the absolute IRI of e.
func IRI(e Entity) string { return ontology.Resource(e.URI()) }

// core carries the state shared by every entity kind.
type core struct {
	s      *Session
	parent Entity

	uri    string
	uriSet bool
}

func (c *core) Parent() Entity     { return c.parent }
func (c *core) SetParent(p Entity) { c.parent = p }
func (c *core) declared() bool     { return false }

// once computes the relative URI with build on the first call only.
func (c *core) once(build func() string) string {
	if !c.uriSet {
		c.uri = build()
		c.uriSet = true
	}
	return c.uri
}

// parentURI returns the parent's URI or "" without a parent.
func (c *core) parentURI() string {
	if c.parent == nil {
		return ""
	}
	return c.parent.URI()
}

// ancestor returns the nearest ancestor of e satisfying match.
func ancestor(e Entity, match func(Entity) bool) Entity {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if match(p) {
			return p
		}
	}
	return nil
}

func isExecutable(e Entity) bool {
	k := e.Kind()
	return k == KindMethod || k == KindConstructor
}

func isTypeDecl(e Entity) bool {
	switch e.Kind() {
	case KindClass, KindInterface, KindEnum, KindAnnotation, KindAnonymousClass:
		return true
	}
	return false
}

var uriReplacer = strings.NewReplacer(", ", Separator, ",", Separator, "#", Separator, " ", Separator)

// normalize replaces the characters that may not appear in a relative URI
// segment with the separator.
func normalize(s string) string { return uriReplacer.Replace(s) }

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])|([A-Z])([A-Z][a-z])|([A-Za-z])([^A-Za-z ])`)

// splitCamelCase turns "parseHTTPHeader2" into "parse HTTP Header 2".
func splitCamelCase(s string) string {
	for {
		out := camelBoundary.ReplaceAllStringFunc(s, func(m string) string {
			return m[:1] + " " + m[1:]
		})
		if out == s {
			return strings.TrimSpace(collapseSpaces(out))
		}
		s = out
	}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// javaStringHash reproduces java.lang.String#hashCode so project and jar
// codes match what JVM tooling computes for the same names.
func javaStringHash(s string) int32 {
	var h int32
	for _, r := range utf16Units(s) {
		h = 31*h + int32(r)
	}
	return h
}

// javaArrayHash reproduces java.util.Arrays#hashCode over strings.
func javaArrayHash(items []string) int32 {
	var h int32 = 1
	for _, it := range items {
		h = 31*h + javaStringHash(it)
	}
	return h
}

func utf16Units(s string) []uint16 {
	out := make([]uint16, 0, len(s))
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
			continue
		}
		out = append(out, uint16(r))
	}
	return out
}
