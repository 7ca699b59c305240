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

// entitySet keeps entities in first-insertion order, unique by URI.
type entitySet struct {
	seen  map[string]struct{}
	items []Entity
}

func (es *entitySet) add(e Entity) {
	if e == nil {
		return
	}
	if es.seen == nil {
		es.seen = make(map[string]struct{})
	}
	uri := e.URI()
	if _, ok := es.seen[uri]; ok {
		return
	}
	es.seen[uri] = struct{}{}
	es.items = append(es.items, e)
}

// requests are the resources an executable body uses.
type requests struct {
	returns     entitySet
	types       entitySet
	executables entitySet
	fields      entitySet
	locals      entitySet
	lambdas     entitySet
	anonymous   entitySet
}

// resources returns what an enclosing executable inherits from this body:
// executables, fields and types.
func (r *requests) resources() []Entity {
	out := make([]Entity, 0, len(r.executables.items)+len(r.fields.items)+len(r.types.items))
	out = append(out, r.executables.items...)
	out = append(out, r.fields.items...)
	out = append(out, r.types.items...)
	return out
}

// scanRequests walks the body of decl, including lambda bodies but not
// the bodies of local or anonymous classes, and collects what it uses.
func (s *Session) scanRequests(exec Entity, decl *model.MethodDecl) *requests {
	r := &requests{}
	addType := func(ref *model.TypeRef) {
		if ref.IsNull() || ref.Implicit {
			return
		}
		r.types.add(s.typeEntity(ref, exec))
	}
	for _, t := range decl.Throws {
		addType(t)
	}
	model.Walk(decl.Body, func(st *model.Stmt, ex *model.Expr) bool {
		if st != nil {
			if st.Var != nil {
				addType(st.Var.Type)
			}
			for _, res := range st.Resources {
				addType(res.Type)
			}
			for _, c := range st.Catches {
				for _, t := range c.Types {
					addType(t)
				}
			}
			if st.Kind == model.StmtReturn {
				r.returns.add(s.returnedVariable(exec, st.Expr))
			}
			return true
		}
		for _, t := range ex.TypeRefs {
			addType(t)
		}
		if ex.Method != nil && !ex.Method.FromMethodReference {
			r.executables.add(s.executableEntity(ex.Method, nil))
		}
		if ex.Field != nil {
			r.fields.add(s.fieldEntity(ex.Field, nil))
		}
		if ex.Var != nil {
			r.locals.add(s.localVarEntity(ex.Var, exec))
		}
		if ex.Lambda != nil {
			r.lambdas.add(s.lambdaEntity(ex.Lambda, exec))
		}
		if ex.Anonymous != nil {
			r.anonymous.add(s.anonymousEntity(ex.Anonymous, exec))
		}
		return true
	})
	return r
}

// returnedVariable returns the variable a return statement hands back, if
// the returned expression is a plain variable or field access.
func (s *Session) returnedVariable(exec Entity, ex *model.Expr) Entity {
	if ex == nil {
		return nil
	}
	switch {
	case ex.Var != nil:
		return s.localVarEntity(ex.Var, exec)
	case ex.Kind == model.ExprFieldAccess && ex.Field != nil:
		return s.fieldEntity(ex.Field, nil)
	}
	return nil
}

func (r *requests) tag(s *Session, exec Entity) {
	for _, v := range r.returns.items {
		s.link(exec, ontology.Returns, v)
	}
	for _, t := range r.types.items {
		s.link(exec, ontology.References, t)
		s.Follow(t)
	}
	for _, e := range r.executables.items {
		s.link(exec, ontology.References, e)
		if c, ok := e.(*constructorEntity); ok {
			owner := c.ownerEntity()
			s.link(exec, ontology.Constructs, owner)
			s.Follow(owner)
		}
		s.Follow(e)
	}
	for _, f := range r.fields.items {
		s.link(exec, ontology.References, f)
		s.Follow(f)
	}
	for _, l := range r.locals.items {
		s.link(exec, ontology.References, l)
		s.Extract(l)
	}
	for _, l := range r.lambdas.items {
		s.link(exec, ontology.References, l)
		s.Extract(l)
	}
	for _, a := range r.anonymous.items {
		s.link(exec, ontology.Constructs, a)
		s.Extract(a)
		if anon, ok := a.(*anonymousEntity); ok {
			for _, res := range anon.requestedResources() {
				s.link(exec, ontology.References, res)
			}
		}
	}
}
