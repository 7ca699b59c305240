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

// Package facts holds the triple model and the batching N-Triples sink every
// extracted fact is written through.
package facts

import "strconv"

// ObjectKind discriminates the object position of a triple.
type ObjectKind uint8

const (
	// KindResource is an IRI pointing at another node.
	KindResource ObjectKind = iota
	// KindString is a plain string literal.
	KindString
	// KindInteger is an xsd:integer literal.
	KindInteger
	// KindBoolean is an xsd:boolean literal.
	KindBoolean
)

// Object is either a resource IRI or a typed literal. It is comparable so
// triples can be used as map keys for window deduplication.
type Object struct {
	Kind  ObjectKind
	Value string
}

// Resource builds a resource object from an absolute IRI.
func Resource(iri string) Object { return Object{Kind: KindResource, Value: iri} }

// String builds a plain string literal.
func String(s string) Object { return Object{Kind: KindString, Value: s} }

// Int builds an xsd:integer literal.
func Int(n int) Object { return Object{Kind: KindInteger, Value: strconv.Itoa(n)} }

// Bool builds an xsd:boolean literal.
func Bool(b bool) Object { return Object{Kind: KindBoolean, Value: strconv.FormatBool(b)} }

// IsResource reports whether the object references another node.
func (o Object) IsResource() bool { return o.Kind == KindResource }

// Triple is one (subject, predicate, object) fact. Subject and predicate are
// absolute IRIs.
type Triple struct {
	Subject   string
	Predicate string
	Object    Object
}

// Emitter receives facts. Emit never blocks on I/O failures: sinks record the
// first failure and report it through Err.
type Emitter interface {
	Emit(t Triple)
	Err() error
}
