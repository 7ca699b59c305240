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

// Package testing provides test helpers for jfacts packages.
//
// # Recording Facts
//
// FactRecorder stands in for the N-Triples sink. It records every emitted
// triple, duplicates included, and answers queries by relative URI:
//
//	func TestMyFeature(t *testing.T) {
//	    rec := testing.NewFactRecorder()
//	    x := extraction.NewExtractor(extraction.Config{Output: rec})
//	    require.NoError(t, x.ExtractProgram(ctx, prog))
//
//	    assert.True(t, rec.IsA("p.Foo", ontology.Class))
//	    assert.True(t, rec.Links("p.Foo", ontology.HasPackage, "p"))
//	}
//
// # Java Fixtures
//
// LoadJava builds a program from in-memory sources against the bundled JDK
// catalog. WriteTree lays files out on disk for project detection and
// discovery tests.
//
// Packages imported by this one cannot use it from internal tests, as that
// would form an import cycle.
package testing
