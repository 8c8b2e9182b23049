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

// Package repoload walks a local repository and turns its files into the
// ingestion package's SourceFile inputs, deriving each file's module and
// package qualified names from its path — filesystem discovery sits
// outside the symbol-resolution core itself.
package repoload

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kraklabs/symgraph/pkg/ingestion"
)

// Options controls which files are loaded.
type Options struct {
	// ProjectName is the repository root identifier prepended to every
	// derived QN, per the "project.package.module" data model.
	ProjectName      string
	Exclude          []string
	MaxFileSizeBytes int64
}

func DefaultOptions() Options {
	return Options{
		Exclude:          []string{".git/**", "node_modules/**", "vendor/**", "dist/**", "build/**"},
		MaxFileSizeBytes: 1 << 20,
	}
}

// Stats tallies what a Load call skipped, so callers can report it rather
// than silently under-counting (no-silent-caps).
type Stats struct {
	FilesLoaded  int
	FilesSkipped int
	BytesSkipped int64
}

// Load walks rootPath and returns one SourceFile per matching, readable,
// within-size-limit file whose extension has a registered LanguageAdapter.
// Files with unrecognized extensions are silently excluded here (the
// scanner would skip them anyway); files that are too large or unreadable
// are counted in Stats and logged.
func Load(rootPath string, opts Options, logger *slog.Logger) ([]ingestion.SourceFile, Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, Stats{}, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}

	var files []ingestion.SourceFile
	var stats Stats

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("repoload.walk.error", "path", path, "err", err)
			return nil
		}

		relPath, relErr := filepath.Rel(rootPath, path)
		if relErr != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		for _, pattern := range opts.Exclude {
			if matched, _ := doublestar.PathMatch(pattern, relPath); matched {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			return nil
		}

		if _, ok := ingestion.AdapterForExtension(filepath.Ext(path)); !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("repoload.stat.error", "path", path, "err", err)
			return nil
		}
		if opts.MaxFileSizeBytes > 0 && info.Size() > opts.MaxFileSizeBytes {
			logger.Warn("repoload.file_too_large", "path", path, "size", info.Size())
			stats.FilesSkipped++
			stats.BytesSkipped += info.Size()
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("repoload.read.error", "path", path, "err", err)
			stats.FilesSkipped++
			return nil
		}

		moduleQN, packageQN := deriveQNs(relPath, opts.ProjectName)
		files = append(files, ingestion.SourceFile{
			Path: path, Content: content, ModuleQN: moduleQN, PackageQN: packageQN,
		})
		stats.FilesLoaded++
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk %s: %w", rootPath, err)
	}

	return files, stats, nil
}

// deriveQNs turns a slash-separated relative path into a dotted module QN
// and its enclosing package QN, per the "project.package.module" shape:
// projectName is the repository root identifier and is always the leading
// component. A package-initializer file (__init__.* or index.*) binds the
// package itself as its module QN rather than appending its own name.
func deriveQNs(relPath, projectName string) (moduleQN, packageQN string) {
	relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath))
	parts := strings.Split(relPath, "/")

	base := parts[len(parts)-1]
	dir := parts[:len(parts)-1]
	rawPackageQN := strings.Join(dir, ".")

	if base == "__init__" || base == "index" {
		return ingestion.JoinQN(projectName, rawPackageQN), ingestion.JoinQN(projectName, parentOf(rawPackageQN))
	}

	rawModuleQN := strings.Join(parts, ".")
	return ingestion.JoinQN(projectName, rawModuleQN), ingestion.JoinQN(projectName, rawPackageQN)
}

func parentOf(qn string) string {
	idx := strings.LastIndex(qn, ".")
	if idx < 0 {
		return ""
	}
	return qn[:idx]
}
