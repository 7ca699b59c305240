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
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog is the YAML description of compiled classes, used for libraries
// whose class files are not at hand (the JDK in particular).
//
//	classes:
//	  - name: java.util.List
//	    kind: interface
//	    modifiers: [public, abstract]
//	    type_params: [E]
//	    interfaces: ["java.util.Collection<E>"]
//	    methods:
//	      - {name: add, params: [E], returns: boolean, modifiers: [public, abstract]}
type Catalog struct {
	Classes []CatalogClass `yaml:"classes"`
}

// CatalogClass describes one class of a catalog.
type CatalogClass struct {
	Name       string          `yaml:"name"`
	Kind       string          `yaml:"kind"`
	Modifiers  []string        `yaml:"modifiers"`
	TypeParams []string        `yaml:"type_params"`
	Super      string          `yaml:"super"`
	Interfaces []string        `yaml:"interfaces"`
	Fields     []CatalogField  `yaml:"fields"`
	Methods    []CatalogMethod `yaml:"methods"`
}

// CatalogField describes a field.
type CatalogField struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Modifiers []string `yaml:"modifiers"`
}

// CatalogMethod describes a method; constructors use the name "<init>".
type CatalogMethod struct {
	Name       string   `yaml:"name"`
	TypeParams []string `yaml:"type_params"`
	Params     []string `yaml:"params"`
	Returns    string   `yaml:"returns"`
	Throws     []string `yaml:"throws"`
	Modifiers  []string `yaml:"modifiers"`
	VarArgs    bool     `yaml:"varargs"`
}

// LoadCatalog reads a catalog file into a classpath.
func LoadCatalog(path string) (*MapClasspath, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cp, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cp, nil
}

// ParseCatalog decodes catalog YAML into a classpath.
func ParseCatalog(data []byte) (*MapClasspath, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	cp := NewMapClasspath()
	for _, cc := range cat.Classes {
		ci, err := cc.classInfo()
		if err != nil {
			return nil, err
		}
		cp.Add(ci)
	}
	return cp, nil
}

func (cc CatalogClass) classInfo() (*ClassInfo, error) {
	if cc.Name == "" {
		return nil, fmt.Errorf("catalog class without name")
	}
	ci := &ClassInfo{Name: cc.Name, Access: accessFromKeywords(cc.Modifiers)}
	switch cc.Kind {
	case "", "class":
	case "interface":
		ci.Access |= AccInterface | AccAbstract
	case "enum":
		ci.Access |= AccEnum
	case "annotation":
		ci.Access |= AccInterface | AccAbstract | AccAnnotation
	default:
		return nil, fmt.Errorf("class %s: unknown kind %q", cc.Name, cc.Kind)
	}

	vars := cc.TypeParams
	for _, name := range cc.TypeParams {
		ci.TypeParams = append(ci.TypeParams, &TypeParam{Name: name})
	}
	var err error
	if cc.Super != "" {
		if ci.Super, err = ParseTypeString(cc.Super, vars...); err != nil {
			return nil, fmt.Errorf("class %s: %w", cc.Name, err)
		}
	} else if ci.Kind() == DeclClass && cc.Name != "java.lang.Object" {
		ci.Super = Named("java.lang.Object")
	}
	for _, s := range cc.Interfaces {
		t, err := ParseTypeString(s, vars...)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", cc.Name, err)
		}
		ci.Interfaces = append(ci.Interfaces, t)
	}
	for _, f := range cc.Fields {
		t, err := ParseTypeString(f.Type, vars...)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", cc.Name, f.Name, err)
		}
		ci.Fields = append(ci.Fields, &FieldInfo{Name: f.Name, Type: t, Access: accessFromKeywords(f.Modifiers)})
	}
	for _, m := range cc.Methods {
		mi, err := m.methodInfo(vars)
		if err != nil {
			return nil, fmt.Errorf("method %s.%s: %w", cc.Name, m.Name, err)
		}
		ci.Methods = append(ci.Methods, mi)
	}
	return ci, nil
}

func (cm CatalogMethod) methodInfo(classVars []string) (*MethodInfo, error) {
	vars := append(append([]string{}, classVars...), cm.TypeParams...)
	mi := &MethodInfo{Name: cm.Name, Access: accessFromKeywords(cm.Modifiers)}
	if cm.VarArgs {
		mi.Access |= AccVarargs
	}
	for _, name := range cm.TypeParams {
		mi.TypeParams = append(mi.TypeParams, &TypeParam{Name: name})
	}
	for _, p := range cm.Params {
		t, err := ParseTypeString(p, vars...)
		if err != nil {
			return nil, err
		}
		mi.Params = append(mi.Params, t)
	}
	for _, p := range cm.Throws {
		t, err := ParseTypeString(p, vars...)
		if err != nil {
			return nil, err
		}
		mi.Throws = append(mi.Throws, t)
	}
	if !mi.IsConstructor() {
		ret := cm.Returns
		if ret == "" {
			ret = "void"
		}
		t, err := ParseTypeString(ret, vars...)
		if err != nil {
			return nil, err
		}
		mi.Return = t
	}
	return mi, nil
}

func accessFromKeywords(keywords []string) uint16 {
	var access uint16
	for _, kw := range keywords {
		switch kw {
		case "public":
			access |= AccPublic
		case "private":
			access |= AccPrivate
		case "protected":
			access |= AccProtected
		case "static":
			access |= AccStatic
		case "final":
			access |= AccFinal
		case "synchronized":
			access |= AccSynchronized
		case "volatile":
			access |= AccVolatile
		case "native":
			access |= AccNative
		case "abstract":
			access |= AccAbstract
		}
	}
	return access
}

//go:embed jdk.yaml
var jdkCatalog []byte

var (
	jdkOnce sync.Once
	jdkCP   *MapClasspath
	jdkErr  error
)

// JDK returns the built-in catalog of core java.lang and java.util classes.
func JDK() (*MapClasspath, error) {
	jdkOnce.Do(func() {
		jdkCP, jdkErr = ParseCatalog(jdkCatalog)
	})
	return jdkCP, jdkErr
}
