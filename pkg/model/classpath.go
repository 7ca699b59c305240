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

import (
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// JVM access flags, as stored in class files.
const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSynchronized = 0x0020 // methods only; ACC_SUPER on classes
	AccVolatile     = 0x0040 // fields only; ACC_BRIDGE on methods
	AccVarargs      = 0x0080 // methods only; ACC_TRANSIENT on fields
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccStrict       = 0x0800
	AccSynthetic    = 0x1000
	AccAnnotation   = 0x2000
	AccEnum         = 0x4000
)

// AccessTarget says which member kind an access word belongs to, since some
// bits mean different things on classes, fields and methods.
type AccessTarget uint8

const (
	AccessClass AccessTarget = iota
	AccessField
	AccessMethod
)

// ModifiersFromAccess converts JVM access flags to source modifiers.
func ModifiersFromAccess(access uint16, target AccessTarget) Modifiers {
	var m Modifiers
	if access&AccPublic != 0 {
		m |= ModPublic
	}
	if access&AccPrivate != 0 {
		m |= ModPrivate
	}
	if access&AccProtected != 0 {
		m |= ModProtected
	}
	if access&AccStatic != 0 {
		m |= ModStatic
	}
	if access&AccFinal != 0 {
		m |= ModFinal
	}
	if access&AccAbstract != 0 {
		m |= ModAbstract
	}
	switch target {
	case AccessMethod:
		if access&AccSynchronized != 0 {
			m |= ModSynchronized
		}
		if access&AccNative != 0 {
			m |= ModNative
		}
	case AccessField:
		if access&AccVolatile != 0 {
			m |= ModVolatile
		}
		if access&AccVarargs != 0 {
			m |= ModTransient
		}
	}
	return m
}

// ClassInfo is the compiled metadata of a class, decoded from a class file or
// read from a catalog.
type ClassInfo struct {
	Name       string // binary name, e.g. "java.util.Map$Entry"
	Access     uint16
	Super      *TypeRef // nil for java.lang.Object and interfaces without one
	Interfaces []*TypeRef
	TypeParams []*TypeParam

	Fields  []*FieldInfo
	Methods []*MethodInfo // constructors are named "<init>"

	// DeclaringClass is set for member classes. EnclosingClass and
	// EnclosingMethod are set for local and anonymous classes.
	DeclaringClass  string
	EnclosingClass  string
	EnclosingMethod *MethodKey
	Anonymous       bool
}

// Kind derives the declaration kind from the access flags.
func (c *ClassInfo) Kind() DeclKind {
	switch {
	case c.Access&AccAnnotation != 0:
		return DeclAnnotation
	case c.Access&AccInterface != 0:
		return DeclInterface
	case c.Access&AccEnum != 0:
		return DeclEnum
	default:
		return DeclClass
	}
}

// Package returns the package of the class.
func (c *ClassInfo) Package() string { return PackageOf(c.Name) }

// SimpleName returns the class name without package or outer class.
func (c *ClassInfo) SimpleName() string { return SimpleName(c.Name) }

// Constructors returns the "<init>" methods.
func (c *ClassInfo) Constructors() []*MethodInfo {
	var out []*MethodInfo
	for _, m := range c.Methods {
		if m.IsConstructor() {
			out = append(out, m)
		}
	}
	return out
}

// DeclaredMethods returns methods other than constructors and static
// initialisers.
func (c *ClassInfo) DeclaredMethods() []*MethodInfo {
	var out []*MethodInfo
	for _, m := range c.Methods {
		if !m.IsConstructor() && m.Name != "<clinit>" {
			out = append(out, m)
		}
	}
	return out
}

// FindMethod returns the first method named name with the given arity, or
// any arity when arity is negative.
func (c *ClassInfo) FindMethod(name string, arity int) *MethodInfo {
	for _, m := range c.Methods {
		if m.Name == name && (arity < 0 || len(m.Params) == arity) {
			return m
		}
	}
	return nil
}

// FindField returns the field named name.
func (c *ClassInfo) FindField(name string) *FieldInfo {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// MethodKey identifies a method by name and JVM descriptor.
type MethodKey struct {
	Name       string
	Descriptor string
}

// MethodInfo is the compiled metadata of a method or constructor.
type MethodInfo struct {
	Name       string
	Descriptor string
	Access     uint16
	TypeParams []*TypeParam
	Params     []*TypeRef
	Return     *TypeRef
	Throws     []*TypeRef
}

// IsConstructor reports whether m is an instance initialiser.
func (m *MethodInfo) IsConstructor() bool { return m.Name == "<init>" }

// VarArgs reports whether the method is variadic.
func (m *MethodInfo) VarArgs() bool { return m.Access&AccVarargs != 0 }

// FieldInfo is the compiled metadata of a field.
type FieldInfo struct {
	Name   string
	Access uint16
	Type   *TypeRef
}

// Classpath looks up compiled class metadata by binary name.
type Classpath interface {
	Lookup(name string) (*ClassInfo, bool)
}

// MapClasspath is an in-memory classpath. The zero value is empty and ready
// to use.
type MapClasspath struct {
	mu      sync.RWMutex
	classes map[string]*ClassInfo
}

// NewMapClasspath builds a classpath holding infos.
func NewMapClasspath(infos ...*ClassInfo) *MapClasspath {
	cp := &MapClasspath{}
	for _, ci := range infos {
		cp.Add(ci)
	}
	return cp
}

// Add registers ci, replacing any class with the same name.
func (cp *MapClasspath) Add(ci *ClassInfo) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.classes == nil {
		cp.classes = make(map[string]*ClassInfo)
	}
	cp.classes[ci.Name] = ci
}

// Lookup implements Classpath.
func (cp *MapClasspath) Lookup(name string) (*ClassInfo, bool) {
	cp.mu.RLock()
	defer cp.mu.RUnlock()
	ci, ok := cp.classes[name]
	return ci, ok
}

// Names returns the registered class names in sorted order.
func (cp *MapClasspath) Names() []string {
	cp.mu.RLock()
	defer cp.mu.RUnlock()
	names := make([]string, 0, len(cp.classes))
	for n := range cp.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of classes.
func (cp *MapClasspath) Len() int {
	cp.mu.RLock()
	defer cp.mu.RUnlock()
	return len(cp.classes)
}

// Chain consults each classpath in order and returns the first hit.
type Chain []Classpath

// Lookup implements Classpath.
func (c Chain) Lookup(name string) (*ClassInfo, bool) {
	for _, cp := range c {
		if cp == nil {
			continue
		}
		if ci, ok := cp.Lookup(name); ok {
			return ci, true
		}
	}
	return nil, false
}

// CachedClasspath keeps recently decoded classes in a bounded LRU in front
// of a slower classpath such as a set of jar archives. Misses are cached too.
type CachedClasspath struct {
	inner Classpath
	cache *lru.Cache[string, *ClassInfo]
}

// DefaultCacheSize bounds CachedClasspath when no size is given.
const DefaultCacheSize = 4096

// NewCachedClasspath wraps inner with an LRU of size entries.
func NewCachedClasspath(inner Classpath, size int) *CachedClasspath {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, *ClassInfo](size)
	return &CachedClasspath{inner: inner, cache: cache}
}

// Lookup implements Classpath.
func (c *CachedClasspath) Lookup(name string) (*ClassInfo, bool) {
	if ci, ok := c.cache.Get(name); ok {
		return ci, ci != nil
	}
	ci, ok := c.inner.Lookup(name)
	if !ok {
		ci = nil
	}
	c.cache.Add(name, ci)
	return ci, ok
}

// Len returns the number of cached entries, misses included.
func (c *CachedClasspath) Len() int { return c.cache.Len() }
