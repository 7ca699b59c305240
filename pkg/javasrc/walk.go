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
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// skippedDirs are build outputs and tool state that never hold sources.
var skippedDirs = map[string]bool{
	"target":       true,
	"build":        true,
	"bin":          true,
	"out":          true,
	"classes":      true,
	"node_modules": true,
	"vendor":       true,
	"test-output":  true,
}

// Discover lists the .java files under roots in sorted order. A root may be
// a directory, a single file or a glob. Hidden and build directories are
// skipped, as is anything matching one of the exclude globs.
func (l *Loader) Discover(roots ...string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range roots {
		expanded, err := expandRoot(pattern)
		if err != nil {
			return nil, err
		}
		for _, root := range expanded {
			found, err := l.walkRoot(root)
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", root, err)
			}
			for _, f := range found {
				if !seen[f] {
					seen[f] = true
					files = append(files, f)
				}
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func expandRoot(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	return matches, nil
}

func (l *Loader) walkRoot(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if isJavaFile(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.logger.Warn("javasrc.walk.error", "path", path, "err", err)
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if l.skipDir(d.Name(), relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isJavaFile(path) || l.excluded(relPath) {
			return nil
		}
		if l.opts.MaxFileSize > 0 {
			if fi, err := d.Info(); err == nil && fi.Size() > l.opts.MaxFileSize {
				l.logger.Warn("javasrc.walk.skip_large_file",
					"path", relPath,
					"size", fi.Size(),
					"limit", l.opts.MaxFileSize,
				)
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func (l *Loader) skipDir(name, relPath string) bool {
	if strings.HasPrefix(name, ".") || skippedDirs[name] {
		return true
	}
	return l.excluded(relPath)
}

// excluded matches a root-relative path against the exclude globs.
func (l *Loader) excluded(relPath string) bool {
	normalized := filepath.ToSlash(relPath)
	for _, pattern := range l.opts.Excludes {
		if ok, _ := doublestar.Match(pattern, normalized); ok {
			return true
		}
	}
	return false
}

func isJavaFile(path string) bool {
	return strings.HasSuffix(path, ".java")
}
