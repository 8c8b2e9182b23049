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

package ingestion

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// SourceFile is one file the Structure Scanner is asked to process: its
// disk path plus the pre-computed module/package qualified names a
// repository loader has already derived from directory layout.
type SourceFile struct {
	Path      string
	Content   []byte
	ModuleQN  string
	PackageQN string
}

// ScanOutcome pairs one file's raw ScanResult with its originating path, or
// an error when the file could not be parsed.
type ScanOutcome struct {
	Path   string
	Result *ScanResult
	Err    error
}

// ScannerStats tallies per-run counters surfaced to the status command.
type ScannerStats struct {
	FilesScanned int64
	ParseErrors  int64
}

// Scanner is the Structure Scanner (pass 1 of 4): it drives a
// LanguageAdapter per file, sequentially or with per-file worker-pool
// parallelism depending on input size, and feeds every extracted
// function/class/lambda straight into the Function Registry and Class
// Inheritance Table as it goes — the two tables are append-only and safe
// for concurrent Insert/AddParent calls during this pass.
type Scanner struct {
	registry    *Registry
	inheritance *InheritanceTable
	logger      *slog.Logger
}

func NewScanner(registry *Registry, inheritance *InheritanceTable, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{registry: registry, inheritance: inheritance, logger: logger}
}

// Scan runs pass 1 across files, returning one ScanOutcome per input file
// (in input order) for later passes to consume, plus aggregate stats. A
// per-file parse error is logged and that file's outcome carries Err, but
// scanning continues for the rest: per-file parse errors are logged and
// skipped, never fatal.
func (s *Scanner) Scan(ctx context.Context, files []SourceFile, numWorkers int) ([]ScanOutcome, ScannerStats) {
	if len(files) == 0 {
		return nil, ScannerStats{}
	}
	if len(files) < 8 || numWorkers <= 1 {
		return s.scanSequential(files)
	}
	return s.scanParallel(ctx, files, numWorkers)
}

func (s *Scanner) scanSequential(files []SourceFile) ([]ScanOutcome, ScannerStats) {
	outcomes := make([]ScanOutcome, len(files))
	var stats ScannerStats
	for i, f := range files {
		outcomes[i] = s.scanOne(f)
		stats.FilesScanned++
		if outcomes[i].Err != nil {
			stats.ParseErrors++
		}
	}
	return outcomes, stats
}

func (s *Scanner) scanParallel(ctx context.Context, files []SourceFile, numWorkers int) ([]ScanOutcome, ScannerStats) {
	outcomes := make([]ScanOutcome, len(files))
	jobs := make(chan int, len(files))
	var wg sync.WaitGroup
	var scanned, errs int64

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				outcomes[i] = s.scanOne(files[i])
				atomic.AddInt64(&scanned, 1)
				if outcomes[i].Err != nil {
					atomic.AddInt64(&errs, 1)
				}
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes, ScannerStats{FilesScanned: scanned, ParseErrors: errs}
}

// scanOne parses a single file via its extension's LanguageAdapter and
// records the resulting declarations in the Registry/InheritanceTable.
// Files with no registered adapter are skipped silently: grammar/extension
// support is scoped to whatever the grammar layer provides, new
// languages are an extension point, not an error.
func (s *Scanner) scanOne(f SourceFile) ScanOutcome {
	adapter, ok := AdapterForExtension(filepath.Ext(f.Path))
	if !ok {
		return ScanOutcome{Path: f.Path}
	}

	result, err := adapter.Scan(f.Content, f.Path, f.ModuleQN, f.PackageQN)
	if err != nil {
		s.logger.Warn("ingestion.scanner.parse_error", "path", f.Path, "err", err)
		return ScanOutcome{Path: f.Path, Err: err}
	}

	for _, fn := range result.Functions {
		if err := s.registry.Insert(fn.QN, fn.Kind); err != nil {
			s.logger.Warn("ingestion.scanner.duplicate_symbol", "qn", fn.QN, "path", f.Path)
		}
	}
	for _, t := range result.Types {
		if err := s.registry.Insert(t.QN, KindClass); err != nil {
			s.logger.Warn("ingestion.scanner.duplicate_symbol", "qn", t.QN, "path", f.Path)
		}
		for _, parentName := range result.ClassParents[t.QN] {
			s.inheritance.AddParent(t.QN, parentName)
		}
	}

	return ScanOutcome{Path: f.Path, Result: result}
}
