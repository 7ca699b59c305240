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
	"log/slog"

	"github.com/kraklabs/jfacts/pkg/facts"
	"github.com/kraklabs/jfacts/pkg/model"
	"github.com/kraklabs/jfacts/pkg/ontology"
)

// Options are the feature switches of a run.
type Options struct {
	Statements       bool // statement facts and executable bodies
	Expressions      bool // specialised expression kinds
	Generics         bool // type variables and parameterized types
	ProjectStructure bool // project entities and hasProject links
	ExploreArchives  bool // expand compiled-only declarations on every follow
	Verbose          bool // log each unit at info level
}

// DefaultOptions enables everything except archive exploration.
func DefaultOptions() Options {
	return Options{Statements: true, Expressions: true, Generics: true, ProjectStructure: true}
}

// Session is the state of one extraction run.
type Session struct {
	out       facts.Emitter
	opts      Options
	register  *Register
	typeVars  *TypeVarCache
	classpath model.Classpath
	sources   func(name string) *model.TypeDecl
	logger    *slog.Logger

	// exploring holds the URIs being expanded by explore-mode follows.
	// A compiled type reached again while its own expansion is still on
	// the stack is not re-entered.
	exploring map[string]bool

	project *projectEntity
	stats   SessionStats
}

// SessionStats counts traversal decisions.
type SessionStats struct {
	Extracted       int64
	FollowsExpanded int64
	FollowsSkipped  int64
	TypeVarFailures int64
}

// SessionConfig configures NewSession.
type SessionConfig struct {
	Output           facts.Emitter
	Options          Options
	Classpath        model.Classpath
	RegisterCapacity int
	TypeVarLimit     int
	Logger           *slog.Logger
}

// NewSession builds a session writing to cfg.Output.
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cp := cfg.Classpath
	if cp == nil {
		cp = model.NewMapClasspath()
	}
	return &Session{
		out:       cfg.Output,
		opts:      cfg.Options,
		register:  NewRegister(cfg.RegisterCapacity),
		typeVars:  NewTypeVarCache(cfg.TypeVarLimit),
		classpath: cp,
		sources:   func(string) *model.TypeDecl { return nil },
		logger:    logger,
		exploring: make(map[string]bool),
	}
}

// Options returns the feature switches.
func (s *Session) Options() Options { return s.opts }

// Register returns the visited register.
func (s *Session) Register() *Register { return s.register }

// TypeVars returns the type-variable memo.
func (s *Session) TypeVars() *TypeVarCache { return s.typeVars }

// Stats returns the traversal counters.
func (s *Session) Stats() SessionStats { return s.stats }

// Err reports the sticky output error, if any.
func (s *Session) Err() error { return s.out.Err() }

// Extract expands e unconditionally. It is used for owned children.
func (s *Session) Extract(e Entity) {
	if e == nil {
		return
	}
	s.stats.Extracted++
	e.extract(s)
}

// Follow expands a referenced entity according to the traversal policy:
// parameterized types are gated by the register; declarations whose source
// is loaded are left to their own package; compiled-only declarations are
// expanded once per register window, or every time when exploring archives.
// Everything else is owned by its referrer and always expanded.
func (s *Session) Follow(e Entity) {
	if e == nil {
		return
	}
	kind := e.Kind()
	switch {
	case kind == KindParameterized:
		s.gated(e)
	case kind.named():
		if e.declared() {
			s.skip(e)
			return
		}
		if !s.opts.ExploreArchives {
			s.gated(e)
			return
		}
		uri := e.URI()
		if s.exploring[uri] {
			s.skip(e)
			return
		}
		s.exploring[uri] = true
		s.expand(e)
		delete(s.exploring, uri)
	default:
		s.Extract(e)
	}
}

func (s *Session) gated(e Entity) {
	if s.register.Add(e.URI()) {
		s.expand(e)
		return
	}
	s.skip(e)
}

func (s *Session) expand(e Entity) {
	s.stats.FollowsExpanded++
	extMetrics.init()
	extMetrics.followsExpanded.Inc()
	s.Extract(e)
}

func (s *Session) skip(Entity) {
	s.stats.FollowsSkipped++
	extMetrics.init()
	extMetrics.followsSkipped.Inc()
}

// Fact helpers. A nil subject or object emits nothing.

func (s *Session) link(subject Entity, predicate string, object Entity) {
	if subject == nil || object == nil {
		return
	}
	s.out.Emit(facts.Triple{Subject: IRI(subject), Predicate: predicate, Object: facts.Resource(IRI(object))})
}

func (s *Session) linkIRI(subject Entity, predicate, iri string) {
	if subject == nil {
		return
	}
	s.out.Emit(facts.Triple{Subject: IRI(subject), Predicate: predicate, Object: facts.Resource(iri)})
}

func (s *Session) literal(subject Entity, predicate string, value facts.Object) {
	if subject == nil {
		return
	}
	s.out.Emit(facts.Triple{Subject: IRI(subject), Predicate: predicate, Object: value})
}

func (s *Session) tagType(e Entity, class string) { s.linkIRI(e, ontology.Type, class) }

func (s *Session) tagString(e Entity, predicate, value string) {
	s.literal(e, predicate, facts.String(value))
}

func (s *Session) tagInt(e Entity, predicate string, value int) {
	s.literal(e, predicate, facts.Int(value))
}

func (s *Session) tagSource(e Entity, source string) {
	if source != "" {
		s.tagString(e, ontology.HasSourceCode, source)
	}
}

func (s *Session) tagComment(e Entity, doc string) {
	if doc != "" {
		s.tagString(e, ontology.Comment, doc)
	}
}

func (s *Session) tagName(e Entity, name string) {
	s.tagString(e, ontology.HasName, name)
}

func (s *Session) tagLabel(e Entity, name string) {
	s.tagString(e, ontology.Label, splitCamelCase(name))
}

func (s *Session) tagLine(e Entity, pos *model.Position) {
	if pos != nil {
		s.tagInt(e, ontology.HasLine, pos.Line)
	}
}

func (s *Session) tagEndLine(e Entity, pos *model.Position) {
	if pos != nil {
		s.tagInt(e, ontology.HasEndLine, pos.EndLine)
	}
}

// lookupClass returns compiled metadata for a binary class name.
func (s *Session) lookupClass(name string) *model.ClassInfo {
	if name == "" {
		return nil
	}
	ci, ok := s.classpath.Lookup(name)
	if !ok {
		return nil
	}
	return ci
}

// lookupSource returns the loaded source declaration of a binary name.
func (s *Session) lookupSource(name string) *model.TypeDecl {
	if name == "" {
		return nil
	}
	return s.sources(name)
}

func (s *Session) verbose(msg string, args ...any) {
	if s.opts.Verbose {
		s.logger.Info(msg, args...)
		return
	}
	s.logger.Debug(msg, args...)
}
