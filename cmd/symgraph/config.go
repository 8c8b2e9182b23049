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
	"encoding/json"
	"fmt"

	"github.com/kraklabs/symgraph/internal/errors"
	"github.com/kraklabs/symgraph/internal/ui"
	"github.com/kraklabs/symgraph/pkg/ingestion"
)

func runConfig(args []string, configPath string, globals GlobalFlags) {
	cfg, err := ingestion.LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load configuration", err), globals.JSON)
	}

	if globals.JSON {
		data, _ := json.MarshalIndent(cfg, "", "  ")
		fmt.Println(string(data))
		return
	}

	ui.Header("symgraph Configuration")
	fmt.Printf("%s %s\n", ui.Label("Repo Path:"), cfg.RepoPath)
	fmt.Printf("%s %s\n", ui.Label("Graph Path:"), cfg.GraphPath)
	fmt.Printf("%s %d\n", ui.Label("Concurrency:"), cfg.Concurrency)
	fmt.Printf("%s %t\n", ui.Label("Suffix Fallback:"), cfg.SuffixFallbackEnabled)
	ui.SubHeader("Exclude Globs:")
	for _, pattern := range cfg.ExcludeGlobs {
		fmt.Printf("  - %s\n", ui.DimText(pattern))
	}
}
