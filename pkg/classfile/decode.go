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

// Package classfile decodes JVM class files and jar archives into the
// compiled metadata the extractor follows when a declaration has no source.
//
// Only the structure is read: access flags, the class hierarchy, fields,
// methods with their descriptors and generic signatures, declared
// exceptions and nesting. Code attributes are skipped.
package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/kraklabs/jfacts/pkg/model"
)

const magic = 0xCAFEBABE

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// ErrNotClassFile is returned when the magic number is wrong.
var ErrNotClassFile = errors.New("not a class file")

type cpEntry struct {
	tag  byte
	utf8 string
	a, b uint16 // class name index, name-and-type name/descriptor
}

// reader is a bounds-checked big-endian cursor. The first out-of-range read
// sets err and every later read returns zero.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("truncated class file at offset %d", r.pos)
		return false
	}
	return true
}

func (r *reader) u1() byte {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v
}

type decoder struct {
	r    reader
	pool []cpEntry
}

// Decode reads one class file.
func Decode(data []byte) (*model.ClassInfo, error) {
	d := &decoder{r: reader{data: data}}
	ci, err := d.decode()
	if err != nil {
		return nil, err
	}
	if d.r.err != nil {
		return nil, d.r.err
	}
	return ci, nil
}

func (d *decoder) decode() (*model.ClassInfo, error) {
	if d.r.u4() != magic {
		if d.r.err != nil {
			return nil, d.r.err
		}
		return nil, ErrNotClassFile
	}
	d.r.u2() // minor
	d.r.u2() // major
	if err := d.readPool(); err != nil {
		return nil, err
	}

	ci := &model.ClassInfo{Access: d.r.u2()}
	thisIdx := d.r.u2()
	ci.Name = binaryName(d.className(thisIdx))
	if ci.Name == "" {
		return nil, fmt.Errorf("class file without a name")
	}
	if super := d.className(d.r.u2()); super != "" {
		ci.Super = model.Named(binaryName(super))
	}
	for n := d.r.u2(); n > 0 && d.r.err == nil; n-- {
		ci.Interfaces = append(ci.Interfaces, model.Named(binaryName(d.className(d.r.u2()))))
	}
	for n := d.r.u2(); n > 0 && d.r.err == nil; n-- {
		f, err := d.field()
		if err != nil {
			return nil, err
		}
		ci.Fields = append(ci.Fields, f)
	}
	for n := d.r.u2(); n > 0 && d.r.err == nil; n-- {
		m, err := d.method()
		if err != nil {
			return nil, err
		}
		ci.Methods = append(ci.Methods, m)
	}
	if err := d.classAttributes(ci, thisIdx); err != nil {
		return nil, err
	}
	return ci, nil
}

func (d *decoder) readPool() error {
	count := int(d.r.u2())
	d.pool = make([]cpEntry, count)
	for i := 1; i < count; i++ {
		e := cpEntry{tag: d.r.u1()}
		switch e.tag {
		case tagUtf8:
			n := int(d.r.u2())
			e.utf8 = decodeModifiedUTF8(d.r.bytes(n))
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			e.a = d.r.u2()
		case tagNameAndType, tagFieldref, tagMethodref, tagInterfaceMethodref, tagDynamic, tagInvokeDynamic:
			e.a = d.r.u2()
			e.b = d.r.u2()
		case tagInteger, tagFloat:
			d.r.u4()
		case tagLong, tagDouble:
			d.r.u4()
			d.r.u4()
			d.pool[i] = e
			i++ // eight-byte constants take two slots
			continue
		case tagMethodHandle:
			d.r.u1()
			d.r.u2()
		default:
			if d.r.err != nil {
				return d.r.err
			}
			return fmt.Errorf("unknown constant pool tag %d at index %d", e.tag, i)
		}
		if d.r.err != nil {
			return d.r.err
		}
		d.pool[i] = e
	}
	return d.r.err
}

func (d *decoder) entry(idx uint16) (cpEntry, bool) {
	if idx == 0 || int(idx) >= len(d.pool) {
		return cpEntry{}, false
	}
	return d.pool[idx], true
}

func (d *decoder) utf8(idx uint16) string {
	e, ok := d.entry(idx)
	if !ok || e.tag != tagUtf8 {
		return ""
	}
	return e.utf8
}

func (d *decoder) className(idx uint16) string {
	e, ok := d.entry(idx)
	if !ok || e.tag != tagClass {
		return ""
	}
	return d.utf8(e.a)
}

func (d *decoder) nameAndType(idx uint16) (string, string) {
	e, ok := d.entry(idx)
	if !ok || e.tag != tagNameAndType {
		return "", ""
	}
	return d.utf8(e.a), d.utf8(e.b)
}

// attributes calls fn for each attribute with a cursor over its body.
func (d *decoder) attributes(fn func(name string, body *reader)) {
	for n := d.r.u2(); n > 0 && d.r.err == nil; n-- {
		name := d.utf8(d.r.u2())
		length := int(d.r.u4())
		body := d.r.bytes(length)
		if d.r.err != nil {
			return
		}
		fn(name, &reader{data: body})
	}
}

func (d *decoder) field() (*model.FieldInfo, error) {
	f := &model.FieldInfo{Access: d.r.u2(), Name: d.utf8(d.r.u2())}
	desc := d.utf8(d.r.u2())
	var signature string
	d.attributes(func(name string, body *reader) {
		if name == "Signature" {
			signature = d.utf8(body.u2())
		}
	})
	if d.r.err != nil {
		return nil, d.r.err
	}
	src := desc
	if signature != "" {
		src = signature
	}
	t, err := parseFieldType(src)
	if err != nil && signature != "" {
		t, err = parseFieldType(desc)
	}
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	f.Type = t
	return f, nil
}

func (d *decoder) method() (*model.MethodInfo, error) {
	m := &model.MethodInfo{Access: d.r.u2(), Name: d.utf8(d.r.u2())}
	m.Descriptor = d.utf8(d.r.u2())
	var (
		signature  string
		exceptions []*model.TypeRef
	)
	d.attributes(func(name string, body *reader) {
		switch name {
		case "Signature":
			signature = d.utf8(body.u2())
		case "Exceptions":
			for n := body.u2(); n > 0 && body.err == nil; n-- {
				exceptions = append(exceptions, model.Named(binaryName(d.className(body.u2()))))
			}
		}
	})
	if d.r.err != nil {
		return nil, d.r.err
	}

	desc, err := parseMethodSignature(m.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", m.Name, err)
	}
	sig := desc
	if signature != "" {
		if generic, gerr := parseMethodSignature(signature); gerr == nil {
			sig = generic
		}
	}
	m.TypeParams = sig.typeParams
	m.Params = sig.params
	m.Return = sig.ret
	m.Throws = sig.throws
	if len(m.Throws) == 0 {
		m.Throws = exceptions
	}
	return m, nil
}

func (d *decoder) classAttributes(ci *model.ClassInfo, thisIdx uint16) error {
	var signature string
	d.attributes(func(name string, body *reader) {
		switch name {
		case "Signature":
			signature = d.utf8(body.u2())
		case "InnerClasses":
			for n := body.u2(); n > 0 && body.err == nil; n-- {
				inner, outer, innerName, access := body.u2(), body.u2(), body.u2(), body.u2()
				if inner != thisIdx {
					continue
				}
				ci.Access = access
				if outer != 0 {
					ci.DeclaringClass = binaryName(d.className(outer))
				}
				ci.Anonymous = innerName == 0
			}
		case "EnclosingMethod":
			ci.EnclosingClass = binaryName(d.className(body.u2()))
			if name, desc := d.nameAndType(body.u2()); name != "" {
				ci.EnclosingMethod = &model.MethodKey{Name: name, Descriptor: desc}
			}
		}
	})
	if d.r.err != nil {
		return d.r.err
	}
	if signature != "" {
		// A broken generic signature leaves the erased hierarchy in place.
		if sig, err := parseClassSignature(signature); err == nil {
			ci.TypeParams = sig.typeParams
			ci.Super = sig.super
			ci.Interfaces = sig.interfaces
		}
	}
	if ci.Access&model.AccInterface != 0 && ci.Super != nil && ci.Super.Name == "java.lang.Object" {
		ci.Super = nil
	}
	return nil
}

// decodeModifiedUTF8 decodes the class file string encoding, which spells
// NUL as C0 80 and supplementary characters as surrogate pairs.
func decodeModifiedUTF8(b []byte) string {
	plain := true
	for _, c := range b {
		if c == 0xC0 || c == 0xED {
			plain = false
			break
		}
	}
	if plain && utf8.Valid(b) {
		return string(b)
	}
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			units = append(units, utf8.RuneError)
			i++
		}
	}
	return string(utf16.Decode(units))
}
