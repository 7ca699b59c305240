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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jfacts/internal/errors"
	jtest "github.com/kraklabs/jfacts/internal/testing"
	"github.com/kraklabs/jfacts/pkg/extraction"
	"github.com/kraklabs/jfacts/pkg/facts"
	"github.com/kraklabs/jfacts/pkg/ontology"
)

const shopSource = `package shop;

import java.util.List;

public class Cart {
    private List<String> items;

    public int size() {
        return items.size();
    }
}
`

// newProject writes files and a default project file under a temp root
// and loads it back.
func newProject(t *testing.T, files map[string]string, edit func(*Config)) *Config {
	t.Helper()
	root := jtest.WriteTree(t, files)
	cfg := DefaultConfig("shop")
	if edit != nil {
		edit(cfg)
	}
	require.NoError(t, SaveConfig(cfg, ConfigPath(root)))
	loaded, err := LoadConfig(ConfigPath(root))
	require.NoError(t, err)
	return loaded
}

func newPipeline(cfg *Config) *pipeline {
	return &pipeline{cfg: cfg, logger: jtest.QuietLogger(), withSources: true}
}

func readOutput(t *testing.T, cfg *Config) string {
	t.Helper()
	data, err := os.ReadFile(cfg.OutputPath())
	require.NoError(t, err)
	return string(data)
}

func TestPipeline_Extract(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"pom.xml":                      "<project></project>\n",
		"src/main/java/shop/Cart.java": shopSource,
	}, nil)

	summary, err := newPipeline(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "shop", summary.ProjectID)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.FilesLoaded)
	assert.Equal(t, 1, summary.PackagesProcessed)
	assert.Zero(t, summary.PackagesFailed)
	assert.Positive(t, summary.TriplesWritten)
	assert.LessOrEqual(t, summary.TriplesWritten, summary.TriplesEmitted)
	assert.Positive(t, summary.Flushes)
	assert.False(t, summary.Failed())
	assert.NotEmpty(t, summary.EndTime)

	out := readOutput(t, cfg)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, int(summary.TriplesWritten))
	cart := "<" + ontology.WOC + "shop.Cart>"
	assert.Contains(t, out, cart+" <"+ontology.Type+"> <"+ontology.Class+"> .")
	assert.Contains(t, out, " <"+ontology.HasProject+"> ")

	saved, err := extraction.NewSummaryStore(cfg.StateDir()).Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, summary.RunID, saved.RunID)
	assert.Equal(t, summary.TriplesWritten, saved.TriplesWritten)
}

func TestPipeline_Options(t *testing.T) {
	cfg := newProject(t, map[string]string{"shop/Cart.java": shopSource}, func(c *Config) {
		c.Features.ProjectStructure = false
		c.Features.Statements = false
	})

	_, err := newPipeline(cfg).Run(context.Background())
	require.NoError(t, err)

	out := readOutput(t, cfg)
	assert.NotContains(t, out, ontology.HasProject)
	assert.NotContains(t, out, ontology.HasBody)
	assert.Contains(t, out, ontology.WOC+"shop.Cart")
}

func TestPipeline_OutputReplacement(t *testing.T) {
	tests := []struct {
		name       string
		append     bool
		keepsStale bool
	}{
		{"replace", false, false},
		{"append", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newProject(t, map[string]string{"shop/Cart.java": shopSource}, nil)
			stale := "<urn:stale> <urn:p> <urn:o> .\n"
			require.NoError(t, os.WriteFile(cfg.OutputPath(), []byte(stale), 0o644))

			p := newPipeline(cfg)
			p.appendOutput = tt.append
			_, err := p.Run(context.Background())
			require.NoError(t, err)

			out := readOutput(t, cfg)
			assert.Equal(t, tt.keepsStale, strings.HasPrefix(out, stale))
			assert.Contains(t, out, "shop.Cart")
		})
	}
}

func TestPipeline_UnreadableArchive(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"shop/Cart.java": shopSource,
		"lib/broken.jar": "not a zip",
	}, func(c *Config) {
		c.Archives = []string{"lib/broken.jar", "lib/missing.jar"}
	})

	summary, err := newPipeline(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ArchivesFailed)
	assert.Zero(t, summary.ArchivesProcessed)
	assert.True(t, summary.Failed())
	assert.Contains(t, readOutput(t, cfg), "shop.Cart")
}

func TestPipeline_Errors(t *testing.T) {
	tests := []struct {
		name     string
		edit     func(*Config)
		ctx      func() context.Context
		wantCode int
	}{
		{
			name:     "register capacity too small",
			edit:     func(c *Config) { c.Limits.RegisterCapacity = 1 },
			wantCode: errors.ExitInput,
		},
		{
			name:     "missing catalog",
			edit:     func(c *Config) { c.Classpath.Catalogs = []string{"missing.yaml"} },
			wantCode: errors.ExitLoad,
		},
		{
			name:     "missing classpath jar",
			edit:     func(c *Config) { c.Classpath.Jars = []string{"missing.jar"} },
			wantCode: errors.ExitLoad,
		},
		{
			name: "cancelled",
			ctx:  func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantCode: errors.ExitPartial,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newProject(t, map[string]string{"shop/Cart.java": shopSource}, tt.edit)
			ctx := context.Background()
			if tt.ctx != nil {
				ctx = tt.ctx()
			}

			summary, err := newPipeline(cfg).Run(ctx)
			require.Error(t, err)
			require.NotNil(t, summary)
			assert.NotEmpty(t, summary.Error)

			var ue *errors.UserError
			require.True(t, stderrors.As(err, &ue))
			assert.Equal(t, tt.wantCode, ue.ExitCode)

			saved, lerr := extraction.NewSummaryStore(cfg.StateDir()).Load()
			require.NoError(t, lerr)
			require.NotNil(t, saved)
			assert.Equal(t, summary.Error, saved.Error)
		})
	}
}

func TestExtractFlags_Apply(t *testing.T) {
	cfg := DefaultConfig("shop")
	cfg.Archives = []string{"a.jar"}
	f := extractFlags{
		output:           "out.nt",
		noStatements:     true,
		noGenerics:       true,
		exploreArchives:  true,
		flushThreshold:   50,
		registerCapacity: 64,
		workers:          3,
		archives:         []string{"b.jar"},
		excludes:         []string{"**/gen/**"},
	}
	f.apply(cfg, GlobalFlags{Verbose: 1})

	opts := cfg.Options()
	assert.Equal(t, "out.nt", cfg.Output)
	assert.False(t, opts.Statements)
	assert.True(t, opts.Expressions)
	assert.False(t, opts.Generics)
	assert.True(t, opts.ProjectStructure)
	assert.True(t, opts.ExploreArchives)
	assert.True(t, opts.Verbose)
	assert.Equal(t, 50, cfg.Limits.FlushThreshold)
	assert.Equal(t, 64, cfg.Limits.RegisterCapacity)
	assert.Equal(t, 3, cfg.Sources.Workers)
	assert.Equal(t, []string{"a.jar", "b.jar"}, cfg.Archives)
	assert.Equal(t, []string{"**/gen/**"}, cfg.Sources.Exclude)
}

func TestClassifyRunError(t *testing.T) {
	input := errors.NewInputError("bad", "", "")
	tests := []struct {
		name     string
		err      error
		wantCode int
		wraps    error
	}{
		{"flush failure", fmt.Errorf("extract: %w", &facts.FlushError{Path: "x.nt", Triples: 3, Err: os.ErrPermission}), errors.ExitOutput, os.ErrPermission},
		{"cancelled", fmt.Errorf("extract program: %w", context.Canceled), errors.ExitPartial, context.Canceled},
		{"user error passes through", input, errors.ExitInput, nil},
		{"anything else", stderrors.New("boom"), errors.ExitInternal, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyRunError(tt.err)
			var ue *errors.UserError
			require.True(t, stderrors.As(got, &ue))
			assert.Equal(t, tt.wantCode, ue.ExitCode)
			assert.Equal(t, tt.wantCode, errors.ExitCode(got))
			if tt.wraps != nil {
				assert.ErrorIs(t, got, tt.wraps)
			}
		})
	}
	assert.NoError(t, classifyRunError(nil))
}

func TestRunError(t *testing.T) {
	clean := extraction.NewRunSummary("shop")
	failed := extraction.NewRunSummary("shop")
	failed.PackagesFailed = 2
	failed.FailedPackages = []string{"shop.a", "shop.b"}
	flush := classifyRunError(&facts.FlushError{Path: "x.nt", Err: os.ErrPermission})

	assert.NoError(t, runError(clean, nil))
	assert.NoError(t, runError(nil, nil))
	assert.Same(t, flush, runError(failed, flush), "the run's own failure wins")

	err := runError(failed, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ExitPartial, errors.ExitCode(err))
	var ue *errors.UserError
	require.True(t, stderrors.As(err, &ue))
	assert.Equal(t, "2 packages and 0 archives failed", ue.Cause)
}

func TestBuildClasspath(t *testing.T) {
	root := t.TempDir()
	catalog := filepath.Join(root, "extra.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte("classes:\n  - name: com.acme.Widget\n    kind: class\n"), 0o644))

	cfg := DefaultConfig("shop")
	cfg.root = root
	cfg.Classpath.Catalogs = []string{"extra.yaml"}

	cp, err := buildClasspath(cfg, jtest.QuietLogger())
	require.NoError(t, err)
	_, ok := cp.Lookup("com.acme.Widget")
	assert.True(t, ok)
	_, ok = cp.Lookup("java.lang.String")
	assert.True(t, ok)
	_, ok = cp.Lookup("com.acme.Missing")
	assert.False(t, ok)

	cfg.Classpath.JDK = false
	cp, err = buildClasspath(cfg, jtest.QuietLogger())
	require.NoError(t, err)
	_, ok = cp.Lookup("java.lang.String")
	assert.False(t, ok)
}
