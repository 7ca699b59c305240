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

package facts

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFormatTriple(t *testing.T) {
	const s = "http://rdf.webofcode.org/woc/pkg.Foo"
	const p = "http://rdf.webofcode.org/woc/hasName"

	tests := []struct {
		name string
		obj  Object
		want string
	}{
		{"resource", Resource("http://rdf.webofcode.org/woc/pkg.Bar"), "<" + s + "> <" + p + "> <http://rdf.webofcode.org/woc/pkg.Bar> ."},
		{"string", String("Foo"), "<" + s + "> <" + p + "> \"Foo\" ."},
		{"escaped string", String("a \"b\"\n\tc\\"), "<" + s + "> <" + p + "> \"a \\\"b\\\"\\n\\tc\\\\\" ."},
		{"integer", Int(42), "<" + s + "> <" + p + "> \"42\"^^<http://www.w3.org/2001/XMLSchema#integer> ."},
		{"boolean", Bool(true), "<" + s + "> <" + p + "> \"true\"^^<http://www.w3.org/2001/XMLSchema#boolean> ."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTriple(Triple{Subject: s, Predicate: p, Object: tt.obj})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEscapeIRI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pkg.Foo-pkg.Foo-bar(int)", "pkg.Foo-pkg.Foo-bar(int)"},
		{"java.util.List[java.lang.String]", "java.util.List[java.lang.String]"},
		{"a b", "a%20b"},
		{"x<init>", "x%3Cinit%3E"},
		{"a|b^c", "a%7Cb%5Ec"},
		{"s\x01x", "s%01x"},
		{"a\x1fb", "a%1Fb"},
		{"caf\xe9", "caf\uFFFD"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeIRI(tt.in))
		})
	}
}

func TestEscapeString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "int x = 1;", "int x = 1;"},
		{"short escapes", "a\bb\fc", `a\bb\fc`},
		{"nul", "a\x00b", `a\u0000b`},
		{"other controls", "\x01\x1b\x7f", `\u0001\u001B\u007F`},
		{"latin-1 byte", "caf\xe9", "caf\uFFFD"},
		{"valid utf-8 kept", "naïve €", "naïve €"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeString(tt.in))
		})
	}
}

func TestFormatTriple_AlwaysValidUTF8(t *testing.T) {
	got := FormatTriple(Triple{Subject: "s\x01x", Predicate: "p", Object: String("caf\xe9 \x00 \b")})
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "<s%01x> <p> \"caf\uFFFD \\u0000 \\b\" .", got)
	for _, r := range got {
		assert.False(t, r < 0x20, "raw control character %U in %q", r, got)
	}
}
