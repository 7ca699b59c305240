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

package javasrc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/jfacts/pkg/model"
)

// DefaultMaxFileSize skips generated sources too large to be useful.
const DefaultMaxFileSize = 2 * 1024 * 1024

// Options configures a Loader.
type Options struct {
	Logger *slog.Logger

	// Classpath supplies compiled metadata for names outside the sources.
	Classpath model.Classpath

	// Excludes are doublestar globs matched against root-relative paths.
	Excludes []string

	// Workers bounds parallel parsing. Zero means GOMAXPROCS.
	Workers int

	// MaxFileSize skips larger files during discovery. Zero disables it.
	MaxFileSize int64

	// OnFile is called after each file is parsed, from any goroutine.
	OnFile func(path string)
}

// Loader turns Java sources into a model.Program.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(opts Options) *Loader {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Loader{opts: opts, logger: opts.Logger}
}

// SourceFile is an in-memory compilation unit.
type SourceFile struct {
	Path    string
	Content []byte
}

// Stats summarises a load.
type Stats struct {
	Files        int
	Failed       int // unreadable files and files whose bodies could not be built
	SyntaxErrors int // ERROR and MISSING nodes across all files
}

// Load discovers, reads and loads the sources under roots.
func (l *Loader) Load(ctx context.Context, roots ...string) (*model.Program, *Stats, error) {
	paths, err := l.Discover(roots...)
	if err != nil {
		return nil, nil, err
	}
	var (
		sources []SourceFile
		failed  int
	)
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("javasrc.read.failed", "path", path, "err", err)
			failed++
			continue
		}
		sources = append(sources, SourceFile{Path: path, Content: content})
	}
	prog, stats, err := l.LoadSources(ctx, sources)
	if stats != nil {
		stats.Failed += failed
	}
	return prog, stats, err
}

// LoadSources builds a program from in-memory sources. Files are parsed in
// parallel, declarations resolved once all types are known, and bodies
// built in parallel again.
func (l *Loader) LoadSources(ctx context.Context, sources []SourceFile) (*model.Program, *Stats, error) {
	start := time.Now()
	l.logger.Info("javasrc.load.start", "files", len(sources), "workers", l.opts.Workers)

	files := make([]*sourceFile, len(sources))
	defer func() {
		for _, f := range files {
			if f != nil {
				f.close()
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := l.parseFile(gctx, src)
			if err != nil {
				return err
			}
			files[i] = f
			if l.opts.OnFile != nil {
				l.opts.OnFile(src.Path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	r := newResolver(l.opts.Classpath)
	for _, f := range files {
		for _, ti := range f.types {
			r.register(ti)
		}
	}
	for _, f := range files {
		for _, ti := range f.types {
			r.resolveHeader(ti, fileScope(f))
		}
	}
	for _, f := range files {
		for _, ti := range f.types {
			r.resolveMembers(ti, fileScope(f))
		}
	}

	var failed atomic.Int64
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)
	for _, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := l.buildBodies(r, f); err != nil {
				l.logger.Warn("javasrc.bodies.failed", "path", f.path, "err", err)
				failed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	prog := &model.Program{Classpath: l.opts.Classpath}
	stats := &Stats{Files: len(files), Failed: int(failed.Load())}
	for _, f := range files {
		pkg := prog.AddUnit(f.unit)
		if f.doc != "" {
			pkg.Doc = f.doc
		}
		stats.SyntaxErrors += f.errors
	}
	prog.Sort()

	l.logger.Info("javasrc.load.complete",
		"files", stats.Files,
		"packages", len(prog.Packages),
		"types", prog.TypeCount(),
		"syntax_errors", stats.SyntaxErrors,
		"failed", stats.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return prog, stats, nil
}

// parseFile parses one file and builds its declaration skeletons. The
// grammar is error tolerant, so syntax errors are logged and counted.
func (l *Loader) parseFile(ctx context.Context, src SourceFile) (*sourceFile, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src.Content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.Path, err)
	}
	f := &sourceFile{path: src.Path, content: src.Content, tree: tree, root: tree.RootNode()}
	if f.root.HasError() {
		f.errors = countErrors(f.root)
		if f.errors > 0 {
			l.logger.Warn("javasrc.parse.syntax_errors",
				"path", src.Path,
				"error_count", f.errors,
			)
		}
	}
	f.buildUnit()
	return f, nil
}

// buildBodies converts the bodies of one file. A panic on malformed syntax
// fails the file, not the load.
func (l *Loader) buildBodies(r *resolver, f *sourceFile) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	b := newBodyBuilder(r, f)
	for _, ti := range f.types {
		b.typeBodies(ti, fileScope(f))
	}
	return nil
}
