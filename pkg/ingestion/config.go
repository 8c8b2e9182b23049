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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for one ingestion run, loaded from
// .symgraph/project.yaml.
type Config struct {
	// ProjectName is the repository root identifier prepended as the first
	// component of every qualified name this run produces
	// ("project.package.module.Class.method"). Falls back to the repo
	// directory's base name when left unset.
	ProjectName string `yaml:"project_name"`

	// RepoPath is the local filesystem path to scan.
	RepoPath string `yaml:"repo_path"`

	// GraphPath is the sqlite database file the graph writer targets.
	GraphPath string `yaml:"graph_path"`

	// ExcludeGlobs are doublestar patterns for files/directories to skip.
	ExcludeGlobs []string `yaml:"exclude_globs"`

	// MaxFileSizeBytes is the largest file the scanner will read (default 1MB).
	// Files exceeding this are skipped with a warning.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`

	// Concurrency is shown by `symgraph config` but is not passed to the
	// pipeline: pass 1 always uses runtime.NumCPU() workers, capped at 8.
	Concurrency int `yaml:"concurrency"`

	// SuffixFallbackEnabled toggles Phase 6 of the Call Resolver.
	// Defaults to true.
	SuffixFallbackEnabled bool `yaml:"suffix_fallback_enabled"`

	// MetricsAddr, if non-empty, serves Prometheus metrics at this address.
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns the configuration used when no project.yaml exists.
func DefaultConfig() Config {
	return Config{
		GraphPath:             ".symgraph/graph.db",
		ExcludeGlobs:          []string{".git/**", "node_modules/**", "vendor/**", "dist/**", "build/**"},
		MaxFileSizeBytes:      1 << 20,
		SuffixFallbackEnabled: true,
	}
}

// LoadConfig reads and merges a project.yaml over DefaultConfig. A missing
// file is not an error: callers get defaults, matching init-less operation
// for small repos.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) ResolverConfig() ResolverConfig {
	return ResolverConfig{EnableSuffixFallback: c.SuffixFallbackEnabled}
}
