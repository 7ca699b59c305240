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

package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jfacts/internal/bootstrap"
	"github.com/kraklabs/jfacts/internal/contract"
	"github.com/kraklabs/jfacts/internal/errors"
	"github.com/kraklabs/jfacts/internal/output"
	"github.com/kraklabs/jfacts/internal/ui"
	"github.com/kraklabs/jfacts/pkg/classfile"
	"github.com/kraklabs/jfacts/pkg/extraction"
	"github.com/kraklabs/jfacts/pkg/facts"
	"github.com/kraklabs/jfacts/pkg/javasrc"
	"github.com/kraklabs/jfacts/pkg/model"
)

// extractFlags are the command-line overrides of the project file.
type extractFlags struct {
	output           string
	appendOutput     bool
	noStatements     bool
	noExpressions    bool
	noGenerics       bool
	noProject        bool
	exploreArchives  bool
	flushThreshold   int
	registerCapacity int
	workers          int
	metricsAddr      string
	archives         []string
	excludes         []string
}

func (f *extractFlags) register(fs *flag.FlagSet) {
	fs.StringVarP(&f.output, "output", "o", "", "N-Triples output file (default: the project file's output)")
	fs.BoolVar(&f.appendOutput, "append", false, "Append to the output file instead of replacing it")
	fs.BoolVar(&f.noStatements, "no-statements", false, "Skip statements and executable bodies")
	fs.BoolVar(&f.noExpressions, "no-expressions", false, "Skip specialised expression kinds")
	fs.BoolVar(&f.noGenerics, "no-generics", false, "Skip type variables and parameterized types")
	fs.BoolVar(&f.noProject, "no-project", false, "Skip project entities")
	fs.BoolVar(&f.exploreArchives, "explore-archives", false, "Expand compiled-only declarations on every follow")
	fs.IntVar(&f.flushThreshold, "flush-threshold", 0, "Emits per output flush (default $JFACTS_FLUSH_THRESHOLD or 10000)")
	fs.IntVar(&f.registerCapacity, "register-capacity", 0, "Visited-set capacity (default $JFACTS_REGISTER_CAPACITY or 2048)")
	fs.IntVar(&f.workers, "workers", 0, "Parallel source parsers (default: number of CPUs)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	fs.StringSliceVar(&f.archives, "archive", nil, "Extra jar to extract (repeatable)")
	fs.StringSliceVar(&f.excludes, "exclude", nil, "Extra exclude glob for sources (repeatable)")
}

// apply merges the flags into cfg.
func (f *extractFlags) apply(cfg *Config, globals GlobalFlags) {
	if f.output != "" {
		cfg.Output = f.output
	}
	if f.noStatements {
		cfg.Features.Statements = false
	}
	if f.noExpressions {
		cfg.Features.Expressions = false
	}
	if f.noGenerics {
		cfg.Features.Generics = false
	}
	if f.noProject {
		cfg.Features.ProjectStructure = false
	}
	if f.exploreArchives {
		cfg.Features.ExploreArchives = true
	}
	if globals.Verbose > 0 {
		cfg.Features.Verbose = true
	}
	if f.flushThreshold != 0 {
		cfg.Limits.FlushThreshold = f.flushThreshold
	}
	if f.registerCapacity != 0 {
		cfg.Limits.RegisterCapacity = f.registerCapacity
	}
	if f.workers > 0 {
		cfg.Sources.Workers = f.workers
	}
	cfg.Archives = append(cfg.Archives, f.archives...)
	cfg.Sources.Exclude = append(cfg.Sources.Exclude, f.excludes...)
}

// runExtract executes the 'extract' CLI command: load the sources, extract
// every package, then every configured archive, into the output file.
//
// Examples:
//
//	jfacts extract
//	jfacts extract -o out/facts.nt --no-statements
//	jfacts extract --archive lib/dep.jar --metrics-addr :9090
func runExtract(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	var f extractFlags
	f.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: jfacts extract [options]

Extracts the facts of the project described by .jfacts/project.yaml.
The output file is replaced unless --append is given.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(errors.ExitInput)
	}

	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		fatal(errors.NewConfigError(
			"Cannot load jfacts configuration",
			err.Error(),
			"Run 'jfacts init' in the project root or pass --config",
			err,
		), globals)
	}
	f.apply(cfg, globals)

	logger := globals.Logger()
	slog.SetDefault(logger)

	stop := startMetricsServer(f.metricsAddr, logger)
	defer stop()

	ctx, cancel := signalContext(logger)
	defer cancel()

	run := &pipeline{
		cfg:          cfg,
		logger:       logger,
		progress:     newProgress(globals),
		appendOutput: f.appendOutput,
		withSources:  true,
	}
	summary, err := run.Run(ctx)
	finishRun(summary, err, globals)
}

// finishRun prints the summary and exits with the run's status.
func finishRun(summary *extraction.RunSummary, err error, globals GlobalFlags) {
	if summary != nil {
		if globals.JSON {
			_ = output.JSON(summary)
		} else {
			printRunSummary(ui.Stdout, summary)
		}
	}
	fatal(runError(summary, err), globals)
}

// runError is the error a finished run exits with: its own failure, or a
// partial error when some packages or archives failed.
func runError(summary *extraction.RunSummary, err error) error {
	if err != nil {
		return err
	}
	if summary == nil || !summary.Failed() {
		return nil
	}
	return errors.NewPartialError(
		"Extraction finished with failures",
		fmt.Sprintf("%d packages and %d archives failed", summary.PackagesFailed, summary.ArchivesFailed),
		"Run 'jfacts status' for the list and rerun with --debug",
		nil,
	)
}

// signalContext is cancelled on SIGINT or SIGTERM. Extraction stops between
// packages and what was emitted so far is flushed.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("shutdown.signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// startMetricsServer serves /metrics on addr. The returned function shuts
// the server down; it is a no-op when addr is empty.
func startMetricsServer(addr string, logger *slog.Logger) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// pipeline is one extraction run over a project's sources and archives.
type pipeline struct {
	cfg          *Config
	logger       *slog.Logger
	progress     progress
	appendOutput bool
	withSources  bool

	archivesUnreadable int
}

// Run executes the pipeline and saves its summary. The summary is returned
// even when the run fails.
func (p *pipeline) Run(ctx context.Context) (*extraction.RunSummary, error) {
	cfg := p.cfg
	summary := extraction.NewRunSummary(cfg.ProjectID)
	summary.Output = cfg.OutputPath()

	err := p.run(ctx, summary)
	summary.Finish(err)

	store := extraction.NewSummaryStore(cfg.StateDir())
	if serr := store.Save(summary); serr != nil {
		p.logger.Warn("extract.summary.save_failed", "path", store.Path(), "err", serr)
	}
	p.logger.Info("extract.complete",
		"run_id", summary.RunID,
		"packages", summary.PackagesProcessed,
		"packages_failed", summary.PackagesFailed,
		"archives", summary.ArchivesProcessed,
		"triples", summary.TriplesWritten,
		"duration_ms", summary.DurationMS,
	)
	return summary, err
}

func (p *pipeline) run(ctx context.Context, summary *extraction.RunSummary) error {
	cfg := p.cfg
	flush := cfg.Limits.FlushThreshold
	if flush == 0 {
		flush = contract.FlushThreshold()
	}
	capacity := cfg.Limits.RegisterCapacity
	if capacity == 0 {
		capacity = contract.RegisterCapacity()
	}
	if res := contract.ValidateLimits(flush, capacity); !res.OK {
		return errors.NewInputError("Invalid limits", res.Message, "Fix the limits in .jfacts/project.yaml or the JFACTS_* environment")
	}

	if err := p.prepareOutput(summary.Output); err != nil {
		return err
	}

	cp, err := buildClasspath(cfg, p.logger)
	if err != nil {
		return err
	}

	sink := facts.NewSink(facts.SinkConfig{Path: summary.Output, Threshold: flush, Logger: p.logger})
	var pkgBar *progressbar.ProgressBar
	x := extraction.NewExtractor(extraction.Config{
		Output:           sink,
		Options:          cfg.Options(),
		Classpath:        cp,
		RegisterCapacity: capacity,
		TypeVarLimit:     cfg.Limits.TypeVarCache,
		Logger:           p.logger,
		OnPackage:        func(string, error) { advance(pkgBar) },
	})

	runErr := p.extract(ctx, x, cp, summary, &pkgBar)

	spin := p.progress.start(phaseFlushing, -1)
	closeErr := sink.Close()
	finish(spin)
	x.Summary(summary)
	summary.ArchivesFailed += p.archivesUnreadable
	stats := sink.Stats()
	summary.TriplesEmitted = stats.Emitted
	summary.TriplesWritten = stats.Written
	summary.Flushes = stats.Flushes

	if runErr == nil {
		runErr = closeErr
	}
	return classifyRunError(runErr)
}

func (p *pipeline) extract(ctx context.Context, x *extraction.Extractor, cp model.Classpath, summary *extraction.RunSummary, pkgBar **progressbar.ProgressBar) error {
	cfg := p.cfg
	if p.withSources {
		if cfg.Features.ProjectStructure {
			spin := p.progress.start(phaseProject, -1)
			info, err := bootstrap.OpenProject(cfg.Bootstrap(), p.logger)
			finish(spin)
			if err != nil {
				return errors.NewConfigError("Cannot open project", err.Error(), "Run 'jfacts init' in the project root", err)
			}
			x.AttachProject(info.Tree)
			if err := x.ExtractProject(); err != nil {
				return err
			}
		}

		prog, err := p.loadSources(ctx, cp, summary)
		if err != nil {
			return err
		}
		*pkgBar = p.progress.start(phaseExtracting, int64(len(prog.Packages)))
		err = x.ExtractProgram(ctx, prog)
		finish(*pkgBar)
		if err != nil {
			return err
		}
	}

	if len(cfg.Archives) == 0 {
		return nil
	}
	bar := p.progress.start(phaseArchives, int64(len(cfg.Archives)))
	defer finish(bar)
	for _, path := range cfg.Paths(cfg.Archives) {
		if err := ctx.Err(); err != nil {
			return err
		}
		a, err := classfile.OpenArchive(path, classfile.ArchiveOptions{Logger: p.logger})
		advance(bar)
		if err != nil {
			p.archivesUnreadable++
			p.logger.Warn("extract.archive.unreadable", "archive", path, "err", err)
			continue
		}
		if a.Skipped() > 0 {
			p.logger.Warn("extract.archive.skipped_entries", "archive", path, "skipped", a.Skipped())
		}
		if err := x.ProcessArchive(ctx, a); err != nil {
			var fe *facts.FlushError
			if stderrors.As(err, &fe) || stderrors.Is(err, context.Canceled) {
				return err
			}
		}
	}
	return nil
}

// loadSources parses the configured source roots.
func (p *pipeline) loadSources(ctx context.Context, cp model.Classpath, summary *extraction.RunSummary) (*model.Program, error) {
	cfg := p.cfg
	roots := cfg.Paths(cfg.Sources.Roots)
	var bar *progressbar.ProgressBar
	loader := javasrc.NewLoader(javasrc.Options{
		Logger:      p.logger,
		Classpath:   cp,
		Excludes:    cfg.Sources.Exclude,
		Workers:     cfg.Sources.Workers,
		MaxFileSize: cfg.Sources.MaxFileSize,
		OnFile:      func(string) { advance(bar) },
	})
	files, err := loader.Discover(roots...)
	if err != nil {
		return nil, errors.NewLoadError("Cannot find Java sources", err.Error(), "Check sources.roots in .jfacts/project.yaml", err)
	}
	if len(files) == 0 {
		p.logger.Warn("extract.sources.empty", "roots", roots)
	}

	bar = p.progress.start(phaseLoading, int64(len(files)))
	prog, stats, err := loader.Load(ctx, roots...)
	finish(bar)
	if err != nil {
		if stderrors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errors.NewLoadError("Cannot load Java sources", err.Error(), "Rerun with --debug for details", err)
	}
	summary.FilesLoaded = stats.Files
	summary.FilesFailed = stats.Failed
	summary.SyntaxErrors = stats.SyntaxErrors
	return prog, nil
}

// prepareOutput creates the output directory and removes a previous output
// unless appending.
func (p *pipeline) prepareOutput(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.NewOutputError("Cannot create output directory", err.Error(), "Check permissions or pass a different --output", err)
	}
	if p.appendOutput {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewOutputError("Cannot replace output file", err.Error(), "Check permissions or pass --append", err)
	}
	return nil
}

// buildClasspath chains the configured catalogs, jars and the bundled JDK
// behind one LRU cache.
func buildClasspath(cfg *Config, logger *slog.Logger) (model.Classpath, error) {
	var chain model.Chain
	for _, path := range cfg.Paths(cfg.Classpath.Catalogs) {
		cat, err := model.LoadCatalog(path)
		if err != nil {
			return nil, errors.NewLoadError("Cannot load class catalog", err.Error(), "Check classpath.catalogs in .jfacts/project.yaml", err)
		}
		logger.Debug("extract.classpath.catalog", "path", path, "classes", cat.Len())
		chain = append(chain, cat)
	}
	for _, path := range cfg.Paths(cfg.Classpath.Jars) {
		a, err := classfile.OpenArchive(path, classfile.ArchiveOptions{Logger: logger})
		if err != nil {
			return nil, errors.NewLoadError("Cannot open classpath jar", err.Error(), "Check classpath.jars in .jfacts/project.yaml", err)
		}
		logger.Debug("extract.classpath.jar", "path", path, "classes", len(a.Classes()))
		chain = append(chain, a)
	}
	if cfg.Classpath.JDK {
		jdk, err := model.JDK()
		if err != nil {
			return nil, errors.NewInternalError("Cannot load the bundled JDK catalog", err.Error(), "This is a bug. Please report it", err)
		}
		chain = append(chain, jdk)
	}
	return model.NewCachedClasspath(chain, cfg.Classpath.Cache), nil
}

// classifyRunError maps a run failure to its exit category.
func classifyRunError(err error) error {
	if err == nil {
		return nil
	}
	var ue *errors.UserError
	if stderrors.As(err, &ue) {
		return ue
	}
	var fe *facts.FlushError
	if stderrors.As(err, &fe) {
		return errors.NewOutputError("Cannot write facts", fe.Error(), "Check disk space and permissions, then rerun jfacts extract", err)
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.NewPartialError("Extraction interrupted", "The run was cancelled; the output holds the facts emitted so far", "Rerun jfacts extract", err)
	}
	return errors.NewInternalError("Extraction failed", err.Error(), "This is a bug. Please report it with the --debug log", err)
}
