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

import "github.com/kraklabs/jfacts/pkg/model"

// DefaultTypeVarCacheSize bounds the type-variable memo.
const DefaultTypeVarCacheSize = 384

// TypeVarCache memoizes the declaring scope of type variables, keyed by
// variable name and the URI of the context they were found in. Every store
// counts; once the count passes the limit the whole memo is dropped.
type TypeVarCache struct {
	limit  int
	count  int
	table  map[string]map[string]Entity
	resets int
}

// NewTypeVarCache returns a memo bounded at limit stores, or the default
// bound when limit is not positive.
func NewTypeVarCache(limit int) *TypeVarCache {
	if limit <= 0 {
		limit = DefaultTypeVarCacheSize
	}
	return &TypeVarCache{limit: limit, table: make(map[string]map[string]Entity)}
}

// Get returns the owner memoized for name in context.
func (c *TypeVarCache) Get(name, context string) (Entity, bool) {
	owner, ok := c.table[name][context]
	return owner, ok
}

// Put memoizes owner as the scope declaring name in context.
func (c *TypeVarCache) Put(name, context string, owner Entity) {
	c.count++
	if c.count > c.limit {
		c.count = 0
		c.table = make(map[string]map[string]Entity)
		c.resets++
		extMetrics.init()
		extMetrics.typeVarResets.Inc()
	}
	contexts := c.table[name]
	if contexts == nil {
		contexts = make(map[string]Entity)
		c.table[name] = contexts
	}
	contexts[context] = owner
}

// Len returns the number of memoized entries.
func (c *TypeVarCache) Len() int {
	n := 0
	for _, contexts := range c.table {
		n += len(contexts)
	}
	return n
}

// Resets returns how many times the memo has been cleared.
func (c *TypeVarCache) Resets() int { return c.resets }

// genericDecl is implemented by entities that can declare formal type
// parameters: named types, anonymous classes and executables.
type genericDecl interface {
	Entity
	typeParams() []*model.TypeParam
	// enclosingGeneric returns the next declaration whose type parameters
	// are in scope, or nil at the top of the chain.
	enclosingGeneric() genericDecl
}

// resolveOwner finds the generic declaration introducing name, starting at
// candidate. It returns nil when no declaration in scope declares it.
func (s *Session) resolveOwner(name string, candidate Entity) Entity {
	if candidate == nil {
		return nil
	}
	key := candidate.URI()
	if owner, ok := s.typeVars.Get(name, key); ok {
		extMetrics.init()
		extMetrics.typeVarHits.Inc()
		return owner
	}

	var start genericDecl
	if g, ok := candidate.(genericDecl); ok {
		start = g
	} else if a := ancestor(candidate, func(e Entity) bool { _, ok := e.(genericDecl); return ok }); a != nil {
		start = a.(genericDecl)
	}

	// Each step moves outwards; the depth bound guards against malformed
	// enclosing links in compiled metadata.
	const maxDepth = 64
	for g, depth := start, 0; g != nil && depth < maxDepth; g, depth = g.enclosingGeneric(), depth+1 {
		if model.HasTypeParam(g.typeParams(), name) {
			s.typeVars.Put(name, key, g)
			return g
		}
	}
	return nil
}
