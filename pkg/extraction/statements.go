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
	"strings"

	"github.com/kraklabs/jfacts/pkg/model"
	"github.com/kraklabs/jfacts/pkg/ontology"
)

var stmtClasses = map[model.StmtKind]string{
	model.StmtOther:        ontology.Statement,
	model.StmtBlock:        ontology.BlockStatement,
	model.StmtIf:           ontology.IfThenElse,
	model.StmtSwitch:       ontology.SwitchStatement,
	model.StmtWhile:        ontology.WhileStatement,
	model.StmtDo:           ontology.DoStatement,
	model.StmtFor:          ontology.ForStatement,
	model.StmtForEach:      ontology.ForEachStatement,
	model.StmtTry:          ontology.TryStatement,
	model.StmtReturn:       ontology.ReturnStatement,
	model.StmtThrow:        ontology.ThrowStatement,
	model.StmtBreak:        ontology.BreakStatement,
	model.StmtContinue:     ontology.ContinueStatement,
	model.StmtAssert:       ontology.AssertStatement,
	model.StmtSynchronized: ontology.SyncStatement,
	model.StmtLocalVar:     ontology.LocalVarDecl,
	model.StmtClass:        ontology.ClassDeclStatement,
	model.StmtExpression:   ontology.ExpressionStmt,
}

// stmtEntity is a statement. Its facts depend on the kind the loader
// assigned.
type stmtEntity struct {
	core
	st       *model.Stmt
	position int
}

func (s *Session) stmtEntity(st *model.Stmt, parent Entity, position int) Entity {
	return &stmtEntity{core: core{s: s, parent: parent}, st: st, position: position}
}

func (e *stmtEntity) Kind() Kind     { return KindStatement }
func (e *stmtEntity) declared() bool { return true }

func (e *stmtEntity) URI() string {
	return e.once(func() string { return e.positionURI(e.st.Pos, uriTagStatement) })
}

func (e *stmtEntity) extract(s *Session) {
	st := e.st
	class, ok := stmtClasses[st.Kind]
	if !ok {
		class = ontology.Statement
	}
	s.tagType(e, class)
	s.tagInt(e, ontology.HasPosition, e.position)
	s.tagLine(e, st.Pos)
	s.tagSource(e, st.Source)
	if st.Label != "" {
		s.tagString(e, ontology.HasLabel, st.Label)
	}

	switch st.Kind {
	case model.StmtBlock:
		tagStatements(s, e, st.Statements)
		s.tagEndLine(e, st.Pos)
	case model.StmtIf:
		tagExpression(s, e, ontology.HasCondition, st.Cond)
		e.tagBranch(s, ontology.HasThenBranch, st.Then, 0)
		e.tagBranch(s, ontology.HasElseBranch, st.Else, 1)
	case model.StmtWhile, model.StmtDo:
		tagBody(s, e, st.Body, 0)
		tagExpression(s, e, ontology.HasCondition, st.Cond)
	case model.StmtFor:
		tagBody(s, e, st.Body, 0)
		e.tagForList(s, ontology.HasForInit, st.Init, 0)
		tagExpression(s, e, ontology.HasCondition, st.Cond)
		e.tagForList(s, ontology.HasForUpdate, st.Update, 2)
	case model.StmtForEach:
		tagBody(s, e, st.Body, 0)
		tagExpression(s, e, ontology.HasSubExpression, st.Expr)
		if v := s.localVarEntity(st.Var, e); v != nil {
			s.link(e, ontology.HasVariable, v)
			s.Extract(v)
		}
	case model.StmtSwitch:
		tagExpression(s, e, ontology.HasSubExpression, st.Expr)
		e.tagSwitchLabels(s)
	case model.StmtTry:
		tagBody(s, e, st.Body, 0)
		e.tagCatches(s)
		if st.Finally != nil {
			f := &finallyEntity{core: core{s: s, parent: e}, block: st.Finally}
			s.link(e, ontology.HasFinallyClause, f)
			s.Extract(f)
		}
		for _, res := range st.Resources {
			v := s.localVarEntity(res, e)
			s.link(e, ontology.HasResource, v)
			s.Extract(v)
		}
	case model.StmtReturn:
		tagExpression(s, e, ontology.HasReturnedExpr, st.Expr)
	case model.StmtThrow:
		tagExpression(s, e, ontology.HasThrownExpr, st.Expr)
	case model.StmtBreak, model.StmtContinue:
		if st.Target != "" {
			s.tagString(e, ontology.HasTargetedLabel, st.Target)
		}
	case model.StmtAssert:
		tagExpression(s, e, ontology.HasSubExpression, st.Expr)
		tagExpression(s, e, ontology.HasAssertExpr, st.Cond)
	case model.StmtSynchronized:
		tagBody(s, e, st.Body, 0)
		tagExpression(s, e, ontology.HasSubExpression, st.Expr)
	case model.StmtLocalVar:
		if v := s.localVarEntity(st.Var, e); v != nil {
			s.link(v, ontology.HasDeclaration, e)
			s.Extract(v)
			if st.Var.Init != nil {
				tagExpression(s, e, ontology.HasInitializer, st.Var.Init)
			}
		}
	case model.StmtClass:
		if st.Class != nil {
			scope := ancestor(e, func(x Entity) bool { return isExecutable(x) || isTypeDecl(x) })
			class := s.declEntity(st.Class, scope)
			s.link(class, ontology.HasDeclaration, e)
			s.Extract(class)
		}
	case model.StmtExpression:
		tagExpression(s, e, ontology.HasSubExpression, st.Expr)
	}
}

func (e *stmtEntity) tagBranch(s *Session, predicate string, st *model.Stmt, position int) {
	if st == nil {
		return
	}
	b := s.stmtEntity(st, e, position)
	s.link(e, predicate, b)
	s.Extract(b)
}

// tagForList emits the init or update items of a for loop. The items hang
// off a statement-expression list in position 0 (init) or 2 (update).
func (e *stmtEntity) tagForList(s *Session, predicate string, items []*model.Stmt, position int) {
	if len(items) == 0 {
		return
	}
	list := &stmtExprListEntity{core: core{s: s, parent: e}, items: items, position: position}
	for i, item := range items {
		st := s.stmtEntity(item, list, i)
		s.link(e, predicate, st)
		s.Extract(st)
	}
	s.Extract(list)
}

func (e *stmtEntity) tagSwitchLabels(s *Session) {
	labels := make([]*switchLabelEntity, 0, len(e.st.Cases))
	for _, c := range e.st.Cases {
		labels = append(labels, &switchLabelEntity{core: core{s: s, parent: e}, c: c})
	}
	for i, l := range labels {
		if i+1 < len(labels) {
			l.next = labels[i+1]
		}
		s.link(e, ontology.HasSwitchLabel, l)
		s.Extract(l)
	}
}

func (e *stmtEntity) tagCatches(s *Session) {
	var prev Entity
	for i, c := range e.st.Catches {
		cur := &catchEntity{core: core{s: s, parent: e}, c: c, position: i}
		s.link(e, ontology.HasCatchClause, cur)
		if prev != nil {
			s.link(prev, ontology.HasNextStatement, cur)
		}
		s.Extract(cur)
		prev = cur
	}
}

// switchLabelEntity is a case or default group of a switch.
type switchLabelEntity struct {
	core
	c    *model.SwitchCase
	next *switchLabelEntity
}

func (l *switchLabelEntity) Kind() Kind     { return KindSwitchLabel }
func (l *switchLabelEntity) declared() bool { return true }

func (l *switchLabelEntity) URI() string {
	return l.once(func() string { return l.positionURI(l.c.Pos, "") })
}

func (l *switchLabelEntity) extract(s *Session) {
	if l.c.Expr != nil {
		s.tagType(l, ontology.CaseLabeledBlock)
	} else {
		s.tagType(l, ontology.DefaultLabeled)
	}
	tagStatements(s, l, l.c.Statements)
	s.tagLine(l, l.c.Pos)
	s.tagEndLine(l, l.c.Pos)
	if l.next != nil {
		s.link(l, ontology.HasNextStatement, l.next)
	}
	tagExpression(s, l, ontology.HasSubExpression, l.c.Expr)
}

// catchEntity is a catch clause of a try statement.
type catchEntity struct {
	core
	c        *model.Catch
	position int
}

func (c *catchEntity) Kind() Kind     { return KindCatch }
func (c *catchEntity) declared() bool { return true }

func (c *catchEntity) URI() string {
	return c.once(func() string { return c.positionURI(c.c.Pos, "") })
}

func (c *catchEntity) extract(s *Session) {
	s.tagType(c, ontology.CatchBlock)
	s.tagSource(c, c.c.Source)
	s.tagLine(c, c.c.Pos)
	if c.c.Body != nil {
		tagStatements(s, c, c.c.Body.Statements)
	}
	s.tagEndLine(c, c.c.Pos)
	scope := ancestor(c, isExecutable)
	for _, ref := range c.c.Types {
		t := s.typeEntity(ref, scope)
		s.link(c, ontology.HasCatchFormalParam, t)
		s.Follow(t)
	}
}

// finallyEntity is the finally block of a try statement.
type finallyEntity struct {
	core
	block *model.Stmt
}

func (f *finallyEntity) Kind() Kind     { return KindFinally }
func (f *finallyEntity) declared() bool { return true }

func (f *finallyEntity) URI() string {
	return f.once(func() string { return f.positionURI(f.block.Pos, "") })
}

func (f *finallyEntity) extract(s *Session) {
	s.tagType(f, ontology.FinallyBlock)
	tagStatements(s, f, f.block.Statements)
	s.tagSource(f, f.block.Source)
	s.tagLine(f, f.block.Pos)
	s.tagEndLine(f, f.block.Pos)
}

// fieldDeclEntity is the declaration site of a field with its initializer.
type fieldDeclEntity struct {
	core
	decl *model.FieldDecl
}

func (d *fieldDeclEntity) Kind() Kind     { return KindFieldDeclaration }
func (d *fieldDeclEntity) declared() bool { return true }

func (d *fieldDeclEntity) URI() string {
	return d.once(func() string { return d.positionURI(d.decl.Pos, "") })
}

func (d *fieldDeclEntity) extract(s *Session) {
	s.tagLine(d, d.decl.Pos)
	s.link(d.parent, ontology.HasDeclaration, d)
	tagExpression(s, d, ontology.HasInitializer, d.decl.Init)
	s.tagSource(d, d.decl.Source)
}

// stmtExprListEntity groups the init or update items of a for loop.
type stmtExprListEntity struct {
	core
	items    []*model.Stmt
	position int
}

func (l *stmtExprListEntity) Kind() Kind     { return KindStatementExpressionList }
func (l *stmtExprListEntity) declared() bool { return true }

func (l *stmtExprListEntity) URI() string {
	return l.once(func() string { return l.childURI("statement-expression-list", l.position) })
}

func (l *stmtExprListEntity) source() string {
	parts := make([]string, 0, len(l.items))
	for _, it := range l.items {
		parts = append(parts, it.Source)
	}
	return strings.Join(parts, ", ")
}

func (l *stmtExprListEntity) extract(s *Session) {
	s.tagType(l, ontology.StmtExpressionList)
	s.tagSource(l, l.source())
}
