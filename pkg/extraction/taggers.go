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
	"github.com/kraklabs/jfacts/pkg/model"
	"github.com/kraklabs/jfacts/pkg/ontology"
)

// Taggers shared by several entity kinds.

var (
	accessIndividuals = []struct {
		mod model.Modifiers
		iri string
	}{
		{model.ModPublic, ontology.Public},
		{model.ModPrivate, ontology.Private},
		{model.ModProtected, ontology.Protected},
	}
	flagIndividuals = []struct {
		mod model.Modifiers
		iri string
	}{
		{model.ModAbstract, ontology.Abstract},
		{model.ModFinal, ontology.Final},
		{model.ModStatic, ontology.Static},
		{model.ModSynchronized, ontology.Synchronized},
		{model.ModVolatile, ontology.Volatile},
	}
)

// modifierIRIs lists the modifier individuals of mods: one access level
// (package-private maps to Default), then the other flags.
func modifierIRIs(mods model.Modifiers) []string {
	access := ontology.Default
	for _, a := range accessIndividuals {
		if mods.Has(a.mod) {
			access = a.iri
			break
		}
	}
	out := []string{access}
	for _, f := range flagIndividuals {
		if mods.Has(f.mod) {
			out = append(out, f.iri)
		}
	}
	return out
}

func tagModifiers(s *Session, e Entity, mods model.Modifiers) {
	for _, iri := range modifierIRIs(mods) {
		s.linkIRI(e, ontology.HasModifier, iri)
	}
}

func tagAnnotations(s *Session, e Entity, annotations []*model.TypeRef) {
	for _, ref := range annotations {
		a := s.typeEntity(ref, nil)
		s.link(e, ontology.HasAnnotation, a)
		s.Follow(a)
	}
}

// tagFormalTypeParams emits the type parameters declared by decl, each
// resolved against decl itself.
func tagFormalTypeParams(s *Session, decl Entity, params []*model.TypeParam) {
	if !s.opts.Generics {
		return
	}
	for i, p := range params {
		tv := &typeVarEntity{core: core{s: s}, ref: p.Ref(), position: i}
		tv.SetParent(decl)
		s.link(decl, ontology.HasFormalTypeArg, tv)
		s.Extract(tv)
	}
}

// tagStatements emits stmts as ordered children of holder, chained with
// hasNextStatement.
func tagStatements(s *Session, holder Entity, stmts []*model.Stmt) {
	var prev Entity
	for i, st := range stmts {
		cur := s.stmtEntity(st, holder, i)
		if prev != nil {
			s.link(prev, ontology.HasNextStatement, cur)
		}
		s.link(holder, ontology.HasSubStatement, cur)
		s.Extract(cur)
		prev = cur
	}
}

func tagBody(s *Session, holder Entity, body *model.Stmt, position int) {
	if body == nil {
		return
	}
	b := s.stmtEntity(body, holder, position)
	s.link(holder, ontology.HasBody, b)
	s.Extract(b)
}

// tagExpression emits an owned sub-expression under predicate.
func tagExpression(s *Session, holder Entity, predicate string, ex *model.Expr) {
	if ex == nil {
		return
	}
	e := s.exprEntity(ex, holder)
	s.link(holder, predicate, e)
	s.Extract(e)
}

// tagTypedElement emits hasType for a typed element and follows the type.
func tagTypedElement(s *Session, e Entity, typ Entity) {
	s.link(e, ontology.HasType, typ)
	s.Follow(typ)
}

func tagDeclaredBy(s *Session, e, declarer Entity) {
	s.link(e, ontology.IsDeclaredBy, declarer)
	s.Follow(declarer)
}
