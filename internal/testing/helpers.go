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
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/kraklabs/jfacts/pkg/facts"
	"github.com/kraklabs/jfacts/pkg/javasrc"
	"github.com/kraklabs/jfacts/pkg/model"
	"github.com/kraklabs/jfacts/pkg/ontology"
)

// FactRecorder is an in-memory facts.Emitter. It keeps every emitted triple
// in order, duplicates included, so tests can check both content and
// emission counts.
//
// Example:
//
//	rec := testing.NewFactRecorder()
//	x := extraction.NewExtractor(extraction.Config{Output: rec})
//	...
//	assert.True(t, rec.Has("p.Foo", ontology.Type, facts.Resource(ontology.Class)))
type FactRecorder struct {
	mu      sync.Mutex
	triples []facts.Triple
	err     error
}

// NewFactRecorder returns an empty recorder.
func NewFactRecorder() *FactRecorder { return &FactRecorder{} }

// Emit records t.
func (r *FactRecorder) Emit(t facts.Triple) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triples = append(r.triples, t)
}

// Err returns the error injected with Fail.
func (r *FactRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Fail makes Err report err, simulating a sink that could not flush.
func (r *FactRecorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Triples returns a copy of everything emitted so far.
func (r *FactRecorder) Triples() []facts.Triple {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]facts.Triple(nil), r.triples...)
}

// Len returns the number of Emit calls.
func (r *FactRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.triples)
}

// Reset forgets every recorded triple.
func (r *FactRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triples = nil
}

// Has reports whether subject predicate object was emitted. The subject is a
// relative entity URI.
func (r *FactRecorder) Has(subject, predicate string, object facts.Object) bool {
	return r.Count(subject, predicate, object) > 0
}

// Count returns how many times subject predicate object was emitted.
func (r *FactRecorder) Count(subject, predicate string, object facts.Object) int {
	want := facts.Triple{Subject: ontology.Resource(subject), Predicate: predicate, Object: object}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.triples {
		if t == want {
			n++
		}
	}
	return n
}

// Links reports whether subject predicate object was emitted with both ends
// given as relative URIs.
func (r *FactRecorder) Links(subject, predicate, object string) bool {
	return r.Has(subject, predicate, facts.Resource(ontology.Resource(object)))
}

// IsA reports whether subject was typed with class.
func (r *FactRecorder) IsA(subject, class string) bool {
	return r.Has(subject, ontology.Type, facts.Resource(class))
}

// Objects returns the distinct object values emitted for subject and
// predicate, sorted. Resource objects are returned relative to the WOC
// namespace when they live in it.
func (r *FactRecorder) Objects(subject, predicate string) []string {
	iri := ontology.Resource(subject)
	seen := make(map[string]bool)
	r.mu.Lock()
	for _, t := range r.triples {
		if t.Subject != iri || t.Predicate != predicate {
			continue
		}
		v := t.Object.Value
		if t.Object.IsResource() {
			v = strings.TrimPrefix(v, ontology.WOC)
		}
		seen[v] = true
	}
	r.mu.Unlock()
	return sortedKeys(seen)
}

// Subjects returns the distinct relative subjects typed with class, sorted.
func (r *FactRecorder) Subjects(class string) []string {
	seen := make(map[string]bool)
	r.mu.Lock()
	for _, t := range r.triples {
		if t.Predicate == ontology.Type && t.Object.Value == class {
			seen[strings.TrimPrefix(t.Subject, ontology.WOC)] = true
		}
	}
	r.mu.Unlock()
	return sortedKeys(seen)
}

// Distinct returns the set of distinct triples.
func (r *FactRecorder) Distinct() map[facts.Triple]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[facts.Triple]int, len(r.triples))
	for _, t := range r.triples {
		out[t]++
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LoadJava builds a program from in-memory sources, keyed by path, on top
// of the bundled JDK catalog. It fails the test when a file cannot be
// loaded.
//
// Example:
//
//	prog := testing.LoadJava(t, map[string]string{
//	    "p/Foo.java": "package p; class Foo {}",
//	})
func LoadJava(t *testing.T, files map[string]string) *model.Program {
	t.Helper()

	jdk, err := model.JDK()
	if err != nil {
		t.Fatalf("failed to load JDK catalog: %v", err)
	}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	sources := make([]javasrc.SourceFile, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, javasrc.SourceFile{Path: p, Content: []byte(files[p])})
	}

	loader := javasrc.NewLoader(javasrc.Options{Logger: QuietLogger(), Classpath: jdk})
	prog, stats, err := loader.LoadSources(context.Background(), sources)
	if err != nil {
		t.Fatalf("failed to load sources: %v", err)
	}
	if stats.Failed > 0 {
		t.Fatalf("failed to build %d source file(s)", stats.Failed)
	}
	return prog
}

// WriteTree writes files, keyed by slash-separated relative path, under a
// fresh temporary directory and returns its path.
//
// Example:
//
//	root := testing.WriteTree(t, map[string]string{
//	    "pom.xml":                    "<project/>",
//	    "src/main/java/p/Foo.java":   "package p; class Foo {}",
//	})
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return root
}
