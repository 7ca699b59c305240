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

package classfile

import (
	"fmt"
	"strings"

	"github.com/kraklabs/jfacts/pkg/model"
)

var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// sigParser reads field descriptors, method descriptors and the generic
// Signature attribute grammar, which is a superset of descriptors.
type sigParser struct {
	s   string
	pos int
}

func (p *sigParser) eof() bool { return p.pos >= len(p.s) }

func (p *sigParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *sigParser) expect(c byte) error {
	if p.peek() != c {
		return fmt.Errorf("signature %q: expected %q at %d", p.s, c, p.pos)
	}
	p.pos++
	return nil
}

// identifier reads up to one of the signature delimiters.
func (p *sigParser) identifier() string {
	start := p.pos
	for !p.eof() && !strings.ContainsRune(";<>:./", rune(p.s[p.pos])) {
		p.pos++
	}
	return p.s[start:p.pos]
}

// javaType reads a JavaTypeSignature, including void.
func (p *sigParser) javaType() (*model.TypeRef, error) {
	c := p.peek()
	if name, ok := baseTypes[c]; ok {
		p.pos++
		return model.Primitive(name), nil
	}
	return p.referenceType()
}

func (p *sigParser) referenceType() (*model.TypeRef, error) {
	switch p.peek() {
	case 'L':
		return p.classType()
	case 'T':
		p.pos++
		name := p.identifier()
		if err := p.expect(';'); err != nil {
			return nil, err
		}
		return model.TypeVar(name), nil
	case '[':
		p.pos++
		elem, err := p.javaType()
		if err != nil {
			return nil, err
		}
		return model.ArrayOf(elem, 1), nil
	}
	return nil, fmt.Errorf("signature %q: unexpected %q at %d", p.s, p.peek(), p.pos)
}

// classType reads "Lpkg/Outer<A>.Inner<B>;". Nested segments join with '$'
// and only the innermost arguments are kept.
func (p *sigParser) classType() (*model.TypeRef, error) {
	if err := p.expect('L'); err != nil {
		return nil, err
	}
	var (
		name strings.Builder
		args []*model.TypeRef
	)
	for {
		seg := p.identifier()
		name.WriteString(seg)
		switch p.peek() {
		case '/':
			p.pos++
			name.WriteByte('.')
			continue
		case '<':
			var err error
			if args, err = p.typeArguments(); err != nil {
				return nil, err
			}
		}
		if p.peek() == '.' {
			p.pos++
			name.WriteByte('$')
			args = nil
			continue
		}
		if err := p.expect(';'); err != nil {
			return nil, err
		}
		return model.Named(name.String(), args...), nil
	}
}

func (p *sigParser) typeArguments() ([]*model.TypeRef, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	var args []*model.TypeRef
	for p.peek() != '>' {
		if p.eof() {
			return nil, fmt.Errorf("signature %q: unterminated type arguments", p.s)
		}
		switch p.peek() {
		case '*':
			p.pos++
			args = append(args, model.Wildcard(true))
		case '+', '-':
			upper := p.peek() == '+'
			p.pos++
			bound, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			args = append(args, model.Wildcard(upper, bound))
		default:
			arg, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	}
	p.pos++
	return args, nil
}

// typeParams reads an optional "<T:Ljava/lang/Object;U::Ljava/lang/Comparable;>".
func (p *sigParser) typeParams() ([]*model.TypeParam, error) {
	if p.peek() != '<' {
		return nil, nil
	}
	p.pos++
	var out []*model.TypeParam
	for p.peek() != '>' {
		if p.eof() {
			return nil, fmt.Errorf("signature %q: unterminated type parameters", p.s)
		}
		tp := &model.TypeParam{Name: p.identifier()}
		for p.peek() == ':' {
			p.pos++
			c := p.peek()
			if c == ':' || c == '>' {
				continue
			}
			bound, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			tp.Bounds = append(tp.Bounds, bound)
		}
		out = append(out, tp)
	}
	p.pos++
	return out, nil
}

// classSignature is the decoded Signature attribute of a class.
type classSignature struct {
	typeParams []*model.TypeParam
	super      *model.TypeRef
	interfaces []*model.TypeRef
}

func parseClassSignature(s string) (*classSignature, error) {
	p := &sigParser{s: s}
	tps, err := p.typeParams()
	if err != nil {
		return nil, err
	}
	sig := &classSignature{typeParams: tps}
	if sig.super, err = p.classType(); err != nil {
		return nil, err
	}
	for !p.eof() {
		iface, err := p.classType()
		if err != nil {
			return nil, err
		}
		sig.interfaces = append(sig.interfaces, iface)
	}
	return sig, nil
}

// methodSignature is a decoded method descriptor or Signature attribute.
type methodSignature struct {
	typeParams []*model.TypeParam
	params     []*model.TypeRef
	ret        *model.TypeRef
	throws     []*model.TypeRef
}

func parseMethodSignature(s string) (*methodSignature, error) {
	p := &sigParser{s: s}
	tps, err := p.typeParams()
	if err != nil {
		return nil, err
	}
	sig := &methodSignature{typeParams: tps}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	for p.peek() != ')' {
		if p.eof() {
			return nil, fmt.Errorf("signature %q: unterminated parameters", s)
		}
		t, err := p.javaType()
		if err != nil {
			return nil, err
		}
		sig.params = append(sig.params, t)
	}
	p.pos++
	if sig.ret, err = p.javaType(); err != nil {
		return nil, err
	}
	for p.peek() == '^' {
		p.pos++
		t, err := p.referenceType()
		if err != nil {
			return nil, err
		}
		sig.throws = append(sig.throws, t)
	}
	return sig, nil
}

// parseFieldType reads a field descriptor or field Signature attribute.
func parseFieldType(s string) (*model.TypeRef, error) {
	p := &sigParser{s: s}
	t, err := p.javaType()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, fmt.Errorf("signature %q: trailing data at %d", s, p.pos)
	}
	return t, nil
}

// binaryName turns an internal name ("java/util/Map$Entry") into a binary
// name ("java.util.Map$Entry").
func binaryName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}
