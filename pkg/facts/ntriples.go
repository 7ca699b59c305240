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
	"fmt"
	"io"
	"strings"

	"github.com/kraklabs/jfacts/pkg/ontology"
)

// FormatTriple renders a triple as one N-Triples line, without the newline.
func FormatTriple(t Triple) string {
	return fmt.Sprintf("<%s> <%s> %s .", escapeIRI(t.Subject), escapeIRI(t.Predicate), formatObject(t.Object))
}

// WriteTriples writes each triple on its own line.
func WriteTriples(w io.Writer, triples []Triple) error {
	for _, t := range triples {
		if _, err := io.WriteString(w, FormatTriple(t)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func formatObject(o Object) string {
	switch o.Kind {
	case KindResource:
		return "<" + escapeIRI(o.Value) + ">"
	case KindInteger:
		return fmt.Sprintf("%q^^<%s>", o.Value, ontology.XSDInteger)
	case KindBoolean:
		return fmt.Sprintf("%q^^<%s>", o.Value, ontology.XSDBoolean)
	default:
		return fmt.Sprintf("\"%s\"", escapeString(o.Value))
	}
}

// escapeString escapes a string literal body. Invalid UTF-8, which legacy
// encoded sources can carry, becomes U+FFFD and C0 controls without a short
// escape are written as \uXXXX.
func escapeString(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7F {
				fmt.Fprintf(&sb, `\u%04X`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// escapeIRI percent-encodes the characters N-Triples forbids inside IRIREF.
// Java names carry generic brackets and signatures, so some of them show up
// in relative URIs.
func escapeIRI(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if strings.IndexFunc(s, iriForbidden) < 0 {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		if iriForbidden(r) {
			fmt.Fprintf(&sb, "%%%02X", r)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func iriForbidden(r rune) bool {
	return r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r)
}
