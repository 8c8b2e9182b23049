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

	flag "github.com/spf13/pflag"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kraklabs/symgraph/internal/errors"
	"github.com/kraklabs/symgraph/internal/ui"
	"github.com/kraklabs/symgraph/pkg/ingestion"
)

type labelCount struct {
	Label string
	Count int64
}

type typeCount struct {
	Type  string
	Count int64
}

func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := ingestion.LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load configuration", err), globals.JSON)
	}

	db, err := gorm.Open(sqlite.Open(cfg.GraphPath), &gorm.Config{})
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("cannot open graph database", err,
			"run 'symgraph index' first"), globals.JSON)
	}
	sqlDB, _ := db.DB()
	defer func() { _ = sqlDB.Close() }()

	var labels []labelCount
	db.Table("file_rows").Select("label, count(*) as count").Group("label").Scan(&labels)

	var edges []typeCount
	db.Table("edge_rows").Select("type, count(*) as count").Group("type").Scan(&edges)

	if globals.JSON {
		data, _ := json.Marshal(map[string]any{"nodes": labels, "edges": edges})
		fmt.Println(string(data))
		return
	}

	ui.Header("Graph Status")
	ui.SubHeader("Nodes:")
	for _, l := range labels {
		fmt.Printf("  %s: %s\n", l.Label, ui.CountText(int(l.Count)))
	}
	ui.SubHeader("Relationships:")
	for _, e := range edges {
		fmt.Printf("  %s: %s\n", e.Type, ui.CountText(int(e.Count)))
	}
}
