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

// Package main implements the symgraph CLI for building and querying a
// source-code symbol graph.
//
// Usage:
//
//	symgraph init                 Create .symgraph/project.yaml
//	symgraph index                Scan the repository and write the graph
//	symgraph status               Show graph statistics
//	symgraph query <sql>          Run a read-only SQL query against the graph
//	symgraph config               Show the effective configuration
//	symgraph watch                Re-index on file changes
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/symgraph/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
)

// GlobalFlags holds flags shared by every subcommand.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", ".symgraph/project.yaml", "Path to project.yaml")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v info, -vv debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output")
	)
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `symgraph - source-code symbol graph builder

Usage:
  symgraph <command> [options]

Commands:
  init      Create .symgraph/project.yaml
  index     Scan the repository and write the graph
  status    Show graph statistics
  query     Run a read-only SQL query against the graph
  config    Show the effective configuration
  watch     Re-index on file changes

Global Options:
  --json          Output in JSON format
  --no-color      Disable color output
  -v, --verbose   Increase verbosity
  -q, --quiet     Suppress non-essential output
  -c, --config    Path to project.yaml
  -V, --version   Show version and exit
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("symgraph version %s (%s)\n", version, commit)
		os.Exit(0)
	}

	if *jsonOutput {
		*quiet = true
	}
	ui.InitColors(*noColor)

	globals := GlobalFlags{JSON: *jsonOutput, NoColor: *noColor, Verbose: *verbose, Quiet: *quiet}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command, cmdArgs := args[0], args[1:]
	switch command {
	case "init":
		runInit(cmdArgs, *configPath, globals)
	case "index":
		runIndex(cmdArgs, *configPath, globals)
	case "status":
		runStatus(cmdArgs, *configPath, globals)
	case "query":
		runQuery(cmdArgs, *configPath, globals)
	case "config":
		runConfig(cmdArgs, *configPath, globals)
	case "watch":
		runWatch(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
