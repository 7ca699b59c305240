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
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/kraklabs/jfacts/pkg/model"
)

// maxClassSize bounds the bytes read from one archive entry.
const maxClassSize = 64 << 20

// Archive is a jar whose class entries have been decoded.
type Archive struct {
	path    string
	classes []*model.ClassInfo
	byName  map[string]*model.ClassInfo
	skipped int
}

// ArchiveOptions configures OpenArchive.
type ArchiveOptions struct {
	Logger *slog.Logger
}

// OpenArchive reads every .class entry of the jar at path. Entries that fail
// to decode are skipped and counted. Module and package descriptors are
// ignored.
func OpenArchive(jarPath string, opts ArchiveOptions) (*Archive, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	zr, err := zip.OpenReader(jarPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	a := &Archive{path: jarPath, byName: make(map[string]*model.ClassInfo)}
	for _, f := range zr.File {
		if !isClassEntry(f.Name) {
			continue
		}
		ci, err := readEntry(f)
		if err != nil {
			a.skipped++
			logger.Debug("classfile.entry.skipped", "archive", jarPath, "entry", f.Name, "err", err)
			continue
		}
		if _, dup := a.byName[ci.Name]; dup {
			continue
		}
		a.byName[ci.Name] = ci
		a.classes = append(a.classes, ci)
	}
	sort.Slice(a.classes, func(i, j int) bool { return a.classes[i].Name < a.classes[j].Name })
	logger.Debug("classfile.archive.open", "archive", jarPath, "classes", len(a.classes), "skipped", a.skipped)
	return a, nil
}

func isClassEntry(name string) bool {
	if !strings.HasSuffix(name, ".class") {
		return false
	}
	base := path.Base(name)
	if base == "module-info.class" || base == "package-info.class" {
		return false
	}
	// Multi-release variants duplicate the base entries.
	return !strings.HasPrefix(name, "META-INF/")
}

func readEntry(f *zip.File) (*model.ClassInfo, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxClassSize))
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Path returns the jar path.
func (a *Archive) Path() string { return a.path }

// Classes returns the decoded classes sorted by name.
func (a *Archive) Classes() []*model.ClassInfo { return a.classes }

// Skipped returns how many class entries could not be decoded.
func (a *Archive) Skipped() int { return a.skipped }

// Lookup implements model.Classpath.
func (a *Archive) Lookup(name string) (*model.ClassInfo, bool) {
	ci, ok := a.byName[name]
	return ci, ok
}

// Names returns the binary names of the decoded classes.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.classes))
	for _, ci := range a.classes {
		names = append(names, ci.Name)
	}
	return names
}
