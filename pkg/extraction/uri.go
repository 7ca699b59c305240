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
)

// Tags inserted in position-addressed URIs.
const (
	uriTagStatement  = "statement"
	uriTagExpression = "expression"
)

// noPosition replaces line-column-endColumn when a node has no position.
const noPosition = "-1"

// typeURI is the relative URI of a class-like type: its binary name.
func typeURI(name string) string { return normalize(name) }

// positionURI addresses a statement-level node by its position in the main
// type of its compilation unit: "pkg.Main-tag-line-col-endcol". Without a
// position it hangs off the parent as "parent-tag--1".
func (c *core) positionURI(pos *model.Position, tag string) string {
	var b strings.Builder
	if pos == nil || pos.MainType == "" {
		b.WriteString(c.parentURI())
		if tag != "" {
			b.WriteString(Separator)
			b.WriteString(tag)
		}
		b.WriteString(Separator)
		b.WriteString(noPosition)
		c.s.logger.Warn("extract.position.missing", "parent", c.parentURI(), "tag", tag)
		return b.String()
	}
	b.WriteString(typeURI(pos.MainType))
	if tag != "" {
		b.WriteString(Separator)
		b.WriteString(tag)
	}
	for _, n := range []int{pos.Line, pos.Column, pos.EndColumn} {
		b.WriteString(Separator)
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// childURI appends a tagged ordinal to the parent URI: "parent-tag-i".
func (c *core) childURI(tag string, i int) string {
	return c.parentURI() + Separator + tag + Separator + strconv.Itoa(i)
}
