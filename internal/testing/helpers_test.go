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

package testing

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jfacts/pkg/facts"
	"github.com/kraklabs/jfacts/pkg/ontology"
)

// TestFactRecorder verifies recording and the query helpers.
func TestFactRecorder(t *testing.T) {
	rec := NewFactRecorder()
	require.NoError(t, rec.Err())

	typ := facts.Triple{Subject: ontology.Resource("p.Foo"), Predicate: ontology.Type, Object: facts.Resource(ontology.Class)}
	rec.Emit(typ)
	rec.Emit(typ)
	rec.Emit(facts.Triple{Subject: ontology.Resource("p.Foo"), Predicate: ontology.HasPackage, Object: facts.Resource(ontology.Resource("p"))})
	rec.Emit(facts.Triple{Subject: ontology.Resource("p.Foo"), Predicate: ontology.HasSimpleName, Object: facts.String("Foo")})

	assert.Equal(t, 4, rec.Len())
	assert.Len(t, rec.Distinct(), 3)
	assert.Equal(t, 2, rec.Count("p.Foo", ontology.Type, facts.Resource(ontology.Class)))
	assert.True(t, rec.IsA("p.Foo", ontology.Class))
	assert.False(t, rec.IsA("p.Foo", ontology.Interface))
	assert.True(t, rec.Links("p.Foo", ontology.HasPackage, "p"))
	assert.Equal(t, []string{"Foo"}, rec.Objects("p.Foo", ontology.HasSimpleName))
	assert.Equal(t, []string{"p"}, rec.Objects("p.Foo", ontology.HasPackage))
	assert.Equal(t, []string{"p.Foo"}, rec.Subjects(ontology.Class))

	rec.Reset()
	assert.Zero(t, rec.Len())
}

// TestFactRecorder_Fail verifies injected sink errors surface through Err.
func TestFactRecorder_Fail(t *testing.T) {
	rec := NewFactRecorder()
	boom := errors.New("disk full")
	rec.Fail(boom)
	assert.ErrorIs(t, rec.Err(), boom)
}

// TestLoadJava verifies fixtures are loaded against the JDK catalog.
func TestLoadJava(t *testing.T) {
	prog := LoadJava(t, map[string]string{
		"p/Foo.java": "package p;\npublic class Foo { String name() { return \"foo\"; } }\n",
	})
	require.Len(t, prog.Packages, 1)
	assert.Equal(t, "p", prog.Packages[0].Name)

	foo := prog.Lookup("p.Foo")
	require.NotNil(t, foo)
	require.Len(t, foo.Methods, 1)
	assert.Equal(t, "java.lang.String", foo.Methods[0].Return.Name)
}

// TestWriteTree verifies files land under a fresh directory.
func TestWriteTree(t *testing.T) {
	root := WriteTree(t, map[string]string{
		"pom.xml":                  "<project/>",
		"src/main/java/p/Foo.java": "package p; class Foo {}",
	})

	data, err := os.ReadFile(filepath.Join(root, "src", "main", "java", "p", "Foo.java"))
	require.NoError(t, err)
	assert.Equal(t, "package p; class Foo {}", string(data))
	assert.FileExists(t, filepath.Join(root, "pom.xml"))
}
