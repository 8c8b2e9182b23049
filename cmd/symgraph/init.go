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
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/symgraph/internal/errors"
	"github.com/kraklabs/symgraph/internal/ui"
	"github.com/kraklabs/symgraph/pkg/ingestion"
)

func runInit(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing project.yaml")
	_ = fs.Parse(args)

	if _, err := os.Stat(configPath); err == nil && !*force {
		errors.FatalError(errors.NewInputError(
			"project.yaml already exists",
			nil,
			"pass --force to overwrite it",
		), globals.JSON)
	}

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError("cannot determine working directory", err), globals.JSON)
	}

	cfg := ingestion.DefaultConfig()
	cfg.RepoPath = cwd
	cfg.ProjectName = filepath.Base(cwd)

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			errors.FatalError(errors.NewPermissionError("cannot create .symgraph directory", err), globals.JSON)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		errors.FatalError(errors.NewInternalError("cannot marshal default configuration", err), globals.JSON)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		errors.FatalError(errors.NewPermissionError("cannot write project.yaml", err), globals.JSON)
	}

	ui.Successf("Created %s", configPath)
}
