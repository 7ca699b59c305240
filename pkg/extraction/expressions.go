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

	"github.com/kraklabs/jfacts/pkg/model"
	"github.com/kraklabs/jfacts/pkg/ontology"
)

// exprEntity is an expression. Assignments, invocations and instance
// creations get their own facts when expressions are enabled.
type exprEntity struct {
	core
	ex *model.Expr
}

func (s *Session) exprEntity(ex *model.Expr, parent Entity) Entity {
	if ex == nil {
		return nil
	}
	return &exprEntity{core: core{s: s, parent: parent}, ex: ex}
}

func (e *exprEntity) Kind() Kind     { return KindExpression }
func (e *exprEntity) declared() bool { return true }

func (e *exprEntity) URI() string {
	return e.once(func() string { return e.positionURI(e.ex.Pos, uriTagExpression) })
}

func (e *exprEntity) class() string {
	if !e.s.opts.Expressions {
		return ontology.Expression
	}
	switch e.ex.Kind {
	case model.ExprAssignment:
		return ontology.AssignmentExpr
	case model.ExprInvocation:
		return ontology.MethodInvocation
	case model.ExprNew:
		return ontology.InstanceCreation
	}
	return ontology.Expression
}

// scope is the nearest declaration that can introduce type variables.
func (e *exprEntity) scope() Entity {
	return ancestor(e, func(x Entity) bool { _, ok := x.(genericDecl); return ok })
}

func (e *exprEntity) extract(s *Session) {
	s.tagType(e, e.class())
	if !e.ex.Type.IsNull() {
		tagTypedElement(s, e, s.typeEntity(e.ex.Type, e.scope()))
	}
	s.tagSource(e, e.ex.Source)
	s.tagLine(e, e.ex.Pos)
	if !s.opts.Expressions {
		return
	}
	switch e.ex.Kind {
	case model.ExprAssignment:
		tagExpression(s, e, ontology.HasLeftHandSide, e.ex.Left)
		tagExpression(s, e, ontology.HasSubExpression, e.ex.Right)
	case model.ExprInvocation:
		e.tagInvokes(s)
		e.tagArguments(s)
		e.tagTarget(s)
	case model.ExprNew:
		e.tagInvokes(s)
		e.tagArguments(s)
	}
}

func (e *exprEntity) tagInvokes(s *Session) {
	m := e.ex.Method
	if m == nil {
		return
	}
	exec := s.executableEntity(m, nil)
	s.link(e, ontology.Invokes, exec)
	s.Follow(exec)
}

func (e *exprEntity) tagArguments(s *Session) {
	for i, arg := range e.ex.Args {
		a := &argumentEntity{core: core{s: s, parent: e}, position: i}
		a.expr = s.exprEntity(arg, a)
		s.link(e, ontology.HasArgument, a)
		s.Extract(a)
	}
}

// tagTarget links the receiver: a type for static calls, otherwise the
// receiver expression.
func (e *exprEntity) tagTarget(s *Session) {
	target := e.ex.Target
	if target == nil {
		return
	}
	if target.Kind == model.ExprTypeAccess {
		ref := target.Type
		if ref.IsNull() && len(target.TypeRefs) > 0 {
			ref = target.TypeRefs[0]
		}
		t := s.typeEntity(ref, nil)
		s.link(e, ontology.HasTarget, t)
		s.Follow(t)
		return
	}
	tagExpression(s, e, ontology.HasTarget, target)
}

// argumentEntity is the position-indexed link between an invocation and
// one actual argument.
type argumentEntity struct {
	core
	expr     Entity
	position int
}

func (a *argumentEntity) Kind() Kind     { return KindArgument }
func (a *argumentEntity) declared() bool { return true }

// URI is "expression-argument-i". An argument whose expression has no
// position is addressed from the invocation instead, since the expression
// would otherwise be addressed from the argument.
func (a *argumentEntity) URI() string {
	return a.once(func() string {
		if ex, ok := a.expr.(*exprEntity); ok && ex.ex.Pos != nil && ex.ex.Pos.MainType != "" {
			return ex.URI() + Separator + "argument" + Separator + strconv.Itoa(a.position)
		}
		return a.childURI("argument", a.position)
	})
}

func (a *argumentEntity) extract(s *Session) {
	s.tagType(a, ontology.ActualArgument)
	s.tagInt(a, ontology.HasPosition, a.position)
	s.link(a, ontology.HasSubExpression, a.expr)
	s.Extract(a.expr)
}
