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

// StmtKind tags a statement node. Tags are assigned once by the loader.
type StmtKind uint8

const (
	StmtOther StmtKind = iota
	StmtBlock
	StmtIf
	StmtSwitch
	StmtWhile
	StmtDo
	StmtFor
	StmtForEach
	StmtTry
	StmtReturn
	StmtThrow
	StmtBreak
	StmtContinue
	StmtAssert
	StmtSynchronized
	StmtLocalVar
	StmtClass
	StmtExpression
)

// Stmt is a statement node. Only the fields relevant to Kind are set.
type Stmt struct {
	Kind   StmtKind
	Label  string // "label:" prefix
	Source string
	Pos    *Position

	Statements []*Stmt // Block

	Cond *Expr // If, While, Do, For; Assert condition
	Expr *Expr // Return, Throw, Switch selector, ForEach iterable,
	// Synchronized lock, Assert message, Expression statements
	Then *Stmt
	Else *Stmt
	Body *Stmt // loops, Try, Synchronized

	Init   []*Stmt // For
	Update []*Stmt // For

	Var   *LocalVar // LocalVar declarations, ForEach variable
	Class *TypeDecl // local class declarations

	Cases     []*SwitchCase
	Catches   []*Catch
	Finally   *Stmt // block
	Resources []*LocalVar

	Target string // Break and Continue label
}

// SwitchCase is one labelled group of a switch statement.
type SwitchCase struct {
	Expr       *Expr // nil for default
	Statements []*Stmt
	Source     string
	Pos        *Position
}

// Catch is a catch clause. Types holds every alternative of a multi-catch.
type Catch struct {
	Param  *LocalVar
	Types  []*TypeRef
	Body   *Stmt
	Source string
	Pos    *Position
}

// ExprKind tags an expression node.
type ExprKind uint8

const (
	ExprOther ExprKind = iota
	ExprAssignment
	ExprInvocation
	ExprNew
	ExprLambda
	ExprMethodRef
	ExprFieldAccess
	ExprVariable
	ExprTypeAccess
	ExprLiteral
	ExprThis
)

// Expr is an expression node. Only the fields relevant to Kind are set.
type Expr struct {
	Kind   ExprKind
	Source string
	Pos    *Position
	Type   *TypeRef // static type when known

	Target *Expr // invocation or field access receiver
	Args   []*Expr
	Method *MethodRef // invocations, constructor calls and method references
	Field  *FieldRef
	Var    *LocalVar // access to a local variable

	Left  *Expr // assignment target
	Right *Expr // assigned value

	Operands []*Expr // everything else: operators, conditionals, casts...

	Lambda    *Lambda
	Anonymous *TypeDecl // class body of "new T() { ... }"

	// TypeRefs lists types spelled out by the expression itself: cast
	// targets, instanceof operands, class literals, static receivers and
	// instantiated types.
	TypeRefs []*TypeRef
}

// Visitor receives statements and expressions during a walk. Exactly one of
// s and e is non-nil. Returning false skips the node's children.
type Visitor func(s *Stmt, e *Expr) bool

// Walk visits s and everything below it in source order. Lambda bodies are
// entered; the bodies of local and anonymous classes are not.
func Walk(s *Stmt, visit Visitor) {
	if s == nil || !visit(s, nil) {
		return
	}
	for _, st := range s.Statements {
		Walk(st, visit)
	}
	for _, st := range s.Init {
		Walk(st, visit)
	}
	WalkExpr(s.Cond, visit)
	WalkExpr(s.Expr, visit)
	for _, st := range s.Update {
		Walk(st, visit)
	}
	if s.Var != nil {
		WalkExpr(s.Var.Init, visit)
	}
	for _, r := range s.Resources {
		WalkExpr(r.Init, visit)
	}
	Walk(s.Then, visit)
	Walk(s.Else, visit)
	Walk(s.Body, visit)
	for _, c := range s.Cases {
		WalkExpr(c.Expr, visit)
		for _, st := range c.Statements {
			Walk(st, visit)
		}
	}
	for _, c := range s.Catches {
		Walk(c.Body, visit)
	}
	Walk(s.Finally, visit)
}

// WalkExpr visits e and its sub-expressions.
func WalkExpr(e *Expr, visit Visitor) {
	if e == nil || !visit(nil, e) {
		return
	}
	WalkExpr(e.Target, visit)
	WalkExpr(e.Left, visit)
	WalkExpr(e.Right, visit)
	for _, a := range e.Args {
		WalkExpr(a, visit)
	}
	for _, o := range e.Operands {
		WalkExpr(o, visit)
	}
	if e.Lambda != nil {
		Walk(e.Lambda.Body, visit)
		WalkExpr(e.Lambda.Expr, visit)
	}
}
