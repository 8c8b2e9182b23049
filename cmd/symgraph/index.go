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
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/symgraph/internal/errors"
	"github.com/kraklabs/symgraph/internal/ui"
	"github.com/kraklabs/symgraph/pkg/graph"
	"github.com/kraklabs/symgraph/pkg/ingestion"
	"github.com/kraklabs/symgraph/pkg/repoload"
)

func runIndex(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics at this address (e.g. :9090)")
	_ = fs.Parse(args)

	cfg, err := ingestion.LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load configuration", err), globals.JSON)
	}
	if cfg.RepoPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			errors.FatalError(errors.NewInternalError("cannot determine working directory", err), globals.JSON)
		}
		cfg.RepoPath = cwd
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = filepath.Base(cfg.RepoPath)
	}
	addr := *metricsAddr
	if addr == "" {
		addr = cfg.MetricsAddr
	}

	logLevel := slog.LevelWarn
	if globals.Verbose == 1 {
		logLevel = slog.LevelInfo
	} else if globals.Verbose >= 2 {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			logger.Info("metrics.http.start", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown.signal")
		cancel()
	}()

	if !globals.Quiet {
		ui.Header("Indexing " + cfg.RepoPath)
	}

	files, loadStats, err := repoload.Load(cfg.RepoPath, repoload.Options{
		ProjectName: cfg.ProjectName, Exclude: cfg.ExcludeGlobs, MaxFileSizeBytes: cfg.MaxFileSizeBytes,
	}, logger)
	if err != nil {
		errors.FatalError(errors.NewInternalError("failed to walk repository", err), globals.JSON)
	}
	if loadStats.FilesSkipped > 0 {
		ui.Warningf("skipped %d files (%d bytes) over the size limit", loadStats.FilesSkipped, loadStats.BytesSkipped)
	}

	writer, err := graph.OpenSQLiteWriter(cfg.GraphPath, globals.Verbose >= 2)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("cannot open graph database", err,
			"delete the file at graph_path to rebuild from scratch"), globals.JSON)
	}
	defer func() { _ = writer.Close() }()

	pipeline := ingestion.NewPipeline(cfg.ResolverConfig(), logger)

	bar := ui.NewProgressBar(int64(len(files)), "scanning")
	result, err := pipeline.Run(ctx, files)
	_ = bar.Finish()
	if err != nil {
		errors.FatalError(errors.NewInternalError("indexing failed", err), globals.JSON)
	}

	if err := writeGraph(writer, result); err != nil {
		errors.FatalError(errors.NewDatabaseError("failed to write graph", err), globals.JSON)
	}

	if globals.JSON {
		fmt.Printf(`{"files":%d,"functions":%d,"types":%d,"calls_resolved":%d,"calls_total":%d,"duration_ms":%d}`+"\n",
			len(result.Files), len(result.Functions), len(result.Types),
			len(result.Calls), result.ResolverStats.Unresolved+len(result.Calls), result.Duration.Milliseconds())
		return
	}

	ui.Header("Indexing Complete")
	fmt.Printf("Files Scanned: %s\n", ui.CountText(int(result.ScannerStats.FilesScanned)))
	fmt.Printf("Functions Extracted: %s\n", ui.CountText(len(result.Functions)))
	fmt.Printf("Types Extracted: %s\n", ui.CountText(len(result.Types)))
	fmt.Printf("Calls Resolved: %s\n", ui.CountText(len(result.Calls)))
	if result.ResolverStats.Unresolved > 0 {
		ui.Warningf("%d calls could not be resolved", result.ResolverStats.Unresolved)
	}
	fmt.Printf("%s %s\n", ui.Label("Duration:"), ui.DimText(result.Duration.String()))
}

func writeGraph(w *graph.SQLiteWriter, result *ingestion.PipelineResult) error {
	var nodes []graph.Node
	for _, f := range result.Files {
		nodes = append(nodes, graph.Node{Label: graph.LabelFile, Properties: map[string]any{
			"id": f.ID, "path": f.Path, "module_qn": f.ModuleQN,
		}})
	}
	for _, fn := range result.Functions {
		nodes = append(nodes, graph.Node{Label: graph.LabelFunction, Properties: map[string]any{
			"id": fn.ID, "qn": fn.QN, "name": fn.Name, "kind": string(fn.Kind), "class_qn": fn.ClassQN,
		}})
	}
	for _, t := range result.Types {
		nodes = append(nodes, graph.Node{Label: graph.LabelType, Properties: map[string]any{
			"id": t.ID, "qn": t.QN, "name": t.Name, "kind": t.Kind,
		}})
	}
	if err := w.EnsureNodeBatch(nodes); err != nil {
		return err
	}

	var rels []graph.Relationship
	for _, e := range result.Defines {
		rels = append(rels, graph.Relationship{Type: graph.RelDefines, FromID: e.FromQN, ToID: e.ToQN})
	}
	for _, e := range result.Inherits {
		rels = append(rels, graph.Relationship{Type: graph.RelInherits, FromID: e.ClassQN, ToID: e.ParentQN,
			Properties: map[string]any{"order": e.Order}})
	}
	for _, e := range result.Imports {
		rels = append(rels, graph.Relationship{Type: graph.RelImports, FromID: e.ModuleQN, ToID: e.TargetQN,
			Properties: map[string]any{"local_name": e.LocalName, "line": e.StartLine}})
	}
	for _, e := range result.Calls {
		rels = append(rels, graph.Relationship{Type: graph.RelCalls, FromID: e.CallerQN, ToID: e.CalleeQN,
			Properties: map[string]any{"line": e.CallLine}})
	}
	for _, e := range result.Implements {
		rels = append(rels, graph.Relationship{Type: graph.RelImplements, FromID: e.TypeQN, ToID: e.InterfaceQN})
	}
	return w.EnsureRelationshipBatch(rels)
}
