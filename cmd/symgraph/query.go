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
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kraklabs/symgraph/internal/errors"
	"github.com/kraklabs/symgraph/pkg/ingestion"
)

// queryResult mirrors the column/row shape a SELECT produces: generic
// enough for both table and JSON rendering regardless of the query's
// projected columns.
type queryResult struct {
	Headers []string
	Rows    [][]any
}

// runQuery executes a read-only SQL SELECT against the indexed graph.
//
// The graph is a plain sqlite database (file_rows, edge_rows) rather than
// a Datalog store, so callers write ordinary SQL instead of a query DSL:
//
//	symgraph query "select id, properties from file_rows where label = 'Function' limit 10"
//	symgraph --json query "select type, count(*) from edge_rows group by type"
func runQuery(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")
	limit := fs.Int("limit", 0, "Append a LIMIT clause (0 = no limit)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symgraph query [options] <sql>

Description:
  Run a read-only SQL query against the indexed graph database.

  Two tables back the graph: file_rows (nodes, one row per File/Function/
  Type, with a JSON properties blob) and edge_rows (relationships, keyed
  by type/from_id/to_id, also with a JSON properties blob).

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  symgraph query "select id, properties from file_rows where label = 'Function' limit 20"
  symgraph query "select type, count(*) from edge_rows group by type"
  symgraph --json query "select * from edge_rows where from_id = 'pkg.mod.Foo'"
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewInputError(
			"a SQL query argument is required",
			nil,
			"run 'symgraph query --help' for examples",
		), globals.JSON)
	}

	script := strings.TrimSpace(fs.Arg(0))
	if !strings.HasPrefix(strings.ToLower(script), "select") {
		errors.FatalError(errors.NewInputError(
			"only read-only SELECT statements are allowed",
			nil,
			"the graph database is a build artifact; modify it by re-running 'symgraph index'",
		), globals.JSON)
	}
	if *limit > 0 && !strings.Contains(strings.ToLower(script), "limit") {
		script = fmt.Sprintf("%s limit %d", script, *limit)
	}

	cfg, err := ingestion.LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load configuration", err), globals.JSON)
	}
	if _, err := os.Stat(cfg.GraphPath); os.IsNotExist(err) {
		errors.FatalError(errors.NewDatabaseError(
			"graph database not found", err,
			"run 'symgraph index' first",
		), globals.JSON)
	}

	db, err := gorm.Open(sqlite.Open(cfg.GraphPath), &gorm.Config{})
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("cannot open graph database", err), globals.JSON)
	}
	sqlDB, _ := db.DB()
	defer func() { _ = sqlDB.Close() }()

	result, err := runSelect(sqlDB, script, *timeout)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("query execution failed", err,
			"check your SQL syntax; only SELECT statements over file_rows/edge_rows are supported"), globals.JSON)
	}

	if len(result.Rows) == 0 && !globals.JSON {
		fmt.Fprintln(os.Stderr, "warning: query returned no results")
	}

	if globals.JSON {
		printQueryJSON(result)
	} else {
		printQueryTable(result)
	}
}

func runSelect(db *sql.DB, script string, timeout time.Duration) (*queryResult, error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	rows, err := db.QueryContext(ctx, script)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &queryResult{Headers: cols}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]any, len(cols))
		for i, v := range raw {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

func printQueryJSON(result *queryResult) {
	output := map[string]any{
		"headers": result.Headers,
		"rows":    result.Rows,
		"count":   len(result.Rows),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

func printQueryTable(result *queryResult) {
	if len(result.Rows) == 0 {
		fmt.Println("No results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, h := range result.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, strings.ToUpper(h))
	}
	fmt.Fprintln(w)
	for i := range result.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, "---")
	}
	fmt.Fprintln(w)
	for _, row := range result.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, formatCell(cell))
		}
		fmt.Fprintln(w)
	}
	_ = w.Flush()
	fmt.Printf("\n(%d rows)\n", len(result.Rows))
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "<null>"
	case string:
		if len(val) > 60 {
			return val[:57] + "..."
		}
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	default:
		s := fmt.Sprintf("%v", val)
		if len(s) > 60 {
			return s[:57] + "..."
		}
		return s
	}
}
