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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/jfacts/pkg/model"
)

// sourceFile is one parsed compilation unit. The tree stays open until the
// whole program has been built, since bodies are read in a later pass.
type sourceFile struct {
	path     string
	content  []byte
	tree     *sitter.Tree
	root     *sitter.Node
	mainType string

	unit    *model.CompilationUnit
	imports *importSet
	doc     string // package-info comment
	types   []*typeInfo
	errors  int
}

func (f *sourceFile) close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

func (f *sourceFile) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.content)
}

// pos converts a node span to a 1-based position with an inclusive end
// column.
func (f *sourceFile) pos(n *sitter.Node) *model.Position {
	if n == nil {
		return nil
	}
	start, end := n.StartPoint(), n.EndPoint()
	return &model.Position{
		File:      f.path,
		MainType:  f.mainType,
		Line:      int(start.Row) + 1,
		Column:    int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		EndColumn: int(end.Column),
	}
}

// span is pos for a range covering from and to.
func (f *sourceFile) span(from, to *sitter.Node) *model.Position {
	p := f.pos(from)
	end := to.EndPoint()
	p.EndLine = int(end.Row) + 1
	p.EndColumn = int(end.Column)
	return p
}

// docOf returns the cleaned Javadoc comment directly preceding n.
func (f *sourceFile) docOf(n *sitter.Node) string {
	prev := n.PrevSibling()
	if prev == nil || !isComment(prev) {
		return ""
	}
	raw := f.text(prev)
	if !strings.HasPrefix(raw, "/**") {
		return ""
	}
	return model.CleanDoc(raw)
}

// modifiers reads the keyword modifiers of a declaration and returns its
// annotation nodes for later resolution.
func (f *sourceFile) modifiers(n *sitter.Node) (model.Modifiers, []*sitter.Node) {
	mods := childOfType(n, "modifiers")
	if mods == nil {
		return 0, nil
	}
	var (
		out    model.Modifiers
		annots []*sitter.Node
	)
	for i := 0; i < int(mods.ChildCount()); i++ {
		c := mods.Child(i)
		switch c.Type() {
		case "annotation", "marker_annotation":
			annots = append(annots, c)
		default:
			if m, ok := model.ModifierFromKeyword(c.Type()); ok {
				out |= m
			}
		}
	}
	return out, annots
}

func isComment(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "line_comment", "block_comment":
		return true
	}
	return false
}

// namedChildren returns the named children of n, comments excluded.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || isComment(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// childOfType returns the first child of n, named or not, whose type is one
// of types.
func childOfType(n *sitter.Node, types ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

// hasChild reports whether n has a direct child, named or not, of type typ.
// Keywords are children whose type is their spelling.
func hasChild(n *sitter.Node, typ string) bool {
	return childOfType(n, typ) != nil
}

var typeNodes = map[string]bool{
	"type_identifier":        true,
	"scoped_type_identifier": true,
	"generic_type":           true,
	"array_type":             true,
	"integral_type":          true,
	"floating_point_type":    true,
	"boolean_type":           true,
	"void_type":              true,
	"annotated_type":         true,
}

func isTypeNode(n *sitter.Node) bool { return n != nil && typeNodes[n.Type()] }

// firstTypeChild returns the first named child of n that spells a type.
func firstTypeChild(n *sitter.Node) *sitter.Node {
	for _, c := range namedChildren(n) {
		if isTypeNode(c) {
			return c
		}
	}
	return nil
}

// typeChildren returns every named child of n that spells a type.
func typeChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(n) {
		if isTypeNode(c) {
			out = append(out, c)
		}
	}
	return out
}

func (f *sourceFile) dims(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	return strings.Count(f.text(n), "[")
}

var declKinds = map[string]model.DeclKind{
	"class_declaration":           model.DeclClass,
	"record_declaration":          model.DeclClass,
	"interface_declaration":       model.DeclInterface,
	"enum_declaration":            model.DeclEnum,
	"annotation_type_declaration": model.DeclAnnotation,
}

// countErrors counts ERROR and MISSING nodes below n.
func countErrors(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	if n.IsError() || n.IsMissing() {
		count++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += countErrors(n.Child(i))
	}
	return count
}
