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
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kraklabs/jfacts/pkg/facts"
	"github.com/kraklabs/jfacts/pkg/model"
	"github.com/kraklabs/jfacts/pkg/project"
)

// Archive is a jar whose classes have been decoded.
type Archive interface {
	Path() string
	Classes() []*model.ClassInfo
}

// Config configures an Extractor.
type Config struct {
	Output           facts.Emitter
	Options          Options
	Classpath        model.Classpath
	RegisterCapacity int // default DefaultRegisterCapacity
	TypeVarLimit     int // default DefaultTypeVarCacheSize
	Logger           *slog.Logger

	// OnPackage is called after each package, failed or not.
	OnPackage func(name string, err error)
}

// Extractor drives one Session over sources, the project tree and jars.
type Extractor struct {
	s         *Session
	logger    *slog.Logger
	onPackage func(string, error)

	packagesProcessed int
	failed            []string
	archivesProcessed int
	archivesFailed    int
}

// NewExtractor returns an extractor writing to cfg.Output.
func NewExtractor(cfg Config) *Extractor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := NewSession(SessionConfig{
		Output:           cfg.Output,
		Options:          cfg.Options,
		Classpath:        cfg.Classpath,
		RegisterCapacity: cfg.RegisterCapacity,
		TypeVarLimit:     cfg.TypeVarLimit,
		Logger:           logger,
	})
	return &Extractor{s: s, logger: logger, onPackage: cfg.OnPackage}
}

// Session returns the underlying session.
func (x *Extractor) Session() *Session { return x.s }

// AttachProject makes p the main project: source packages extracted
// afterwards get hasProject links to it, and jars become its dependencies.
// It must be called before ExtractProgram for those links to appear.
func (x *Extractor) AttachProject(p *project.Project) {
	if p == nil {
		x.s.project = nil
		return
	}
	x.s.project = x.s.projectEntity(p, nil)
}

// ExtractProject emits the facts of the attached project tree. It does
// nothing when project structure is off or no project is attached.
func (x *Extractor) ExtractProject() error {
	if !x.s.opts.ProjectStructure || x.s.project == nil {
		return nil
	}
	x.logger.Info("extract.project.start", "project", x.s.project.p.Name, "kind", x.s.project.p.Kind.String())
	x.s.Extract(x.s.project)
	return x.s.Err()
}

// ExtractProgram extracts every package of prog in order. A package that
// fails is logged and skipped. Sink failures and cancellation stop the run.
func (x *Extractor) ExtractProgram(ctx context.Context, prog *model.Program) error {
	if prog.Classpath != nil {
		x.s.classpath = model.Chain{prog.Classpath, x.s.classpath}
	}
	x.s.sources = prog.Lookup

	x.logger.Info("extract.program.start", "packages", len(prog.Packages), "types", prog.TypeCount())
	for _, pkg := range prog.Packages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("extract program: %w", err)
		}
		err := x.ExtractPackage(pkg)
		if x.onPackage != nil {
			x.onPackage(pkg.Name, err)
		}
		if serr := x.s.Err(); serr != nil {
			return serr
		}
	}
	x.logger.Info("extract.program.complete",
		"packages", x.packagesProcessed,
		"failed", len(x.failed),
		"follows_expanded", x.s.stats.FollowsExpanded,
		"follows_skipped", x.s.stats.FollowsSkipped,
	)
	return nil
}

// ExtractPackage extracts one source package. A panic inside extraction is
// reported as the package's error.
func (x *Extractor) ExtractPackage(pkg *model.Package) (err error) {
	start := time.Now()
	extMetrics.init()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract package %q: panic: %v", pkg.Name, r)
		}
		extMetrics.packageDuration.Observe(time.Since(start).Seconds())
		x.packagesProcessed++
		if err != nil {
			x.failed = append(x.failed, pkg.Name)
			extMetrics.packagesFailed.Inc()
			x.logger.Warn("extract.package.failed", "package", pkg.Name, "err", err)
			return
		}
		extMetrics.packagesExtracted.Inc()
	}()

	x.logger.Debug("extract.package.start", "package", pkg.Name, "types", len(pkg.Types))
	var parent Entity
	if x.s.opts.ProjectStructure && x.s.project != nil {
		parent = x.s.project
	}
	p := x.s.packageEntity(pkg, parent)
	x.s.verbose("extract.package", "package", p.URI())
	x.s.Extract(p)
	return x.s.Err()
}

// ProcessArchive extracts the packages of a jar from its compiled classes.
// The archive's classes also join the classpath for later lookups.
func (x *Extractor) ProcessArchive(ctx context.Context, a Archive) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("process archive: %w", err)
	}
	start := time.Now()
	extMetrics.init()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("process archive %s: panic: %v", a.Path(), r)
		}
		extMetrics.archiveDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			x.archivesFailed++
			x.logger.Warn("extract.archive.failed", "archive", a.Path(), "err", err)
			return
		}
		x.archivesProcessed++
		extMetrics.archivesProcessed.Inc()
	}()

	classes := a.Classes()
	x.s.classpath = model.Chain{model.NewMapClasspath(classes...), x.s.classpath}

	jar := &jarEntity{core: core{s: x.s}, path: a.Path()}
	for _, name := range sortedPackages(classes) {
		jar.packages = append(jar.packages, x.s.archivePackage(name, groupClasses(classes, name), jar))
	}
	x.logger.Info("extract.archive.start", "archive", a.Path(), "classes", len(classes), "packages", len(jar.packages))
	x.s.Extract(jar)
	return x.s.Err()
}

// Summary fills the traversal and unit counters of r.
func (x *Extractor) Summary(r *RunSummary) {
	r.PackagesProcessed = x.packagesProcessed
	r.PackagesFailed = len(x.failed)
	r.FailedPackages = append([]string(nil), x.failed...)
	r.ArchivesProcessed = x.archivesProcessed
	r.ArchivesFailed = x.archivesFailed
	r.RegisterResets = x.s.register.Resets()
	r.TypeVarResets = x.s.typeVars.Resets()
	r.TypeVarFailures = x.s.stats.TypeVarFailures
	r.FollowsExpanded = x.s.stats.FollowsExpanded
	r.FollowsSkipped = x.s.stats.FollowsSkipped
}

// archiveClass reports whether a compiled class is listed by its package.
// Anonymous and local classes belong to the executable or initializer that
// creates them.
func archiveClass(ci *model.ClassInfo) bool {
	return !ci.Anonymous && ci.EnclosingMethod == nil && ci.EnclosingClass == ""
}

func sortedPackages(classes []*model.ClassInfo) []string {
	seen := make(map[string]bool)
	var names []string
	for _, ci := range classes {
		if !archiveClass(ci) {
			continue
		}
		name := ci.Package()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func groupClasses(classes []*model.ClassInfo, pkg string) []*model.ClassInfo {
	var out []*model.ClassInfo
	for _, ci := range classes {
		if archiveClass(ci) && ci.Package() == pkg {
			out = append(out, ci)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
