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
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/symgraph/internal/errors"
	"github.com/kraklabs/symgraph/internal/ui"
	"github.com/kraklabs/symgraph/pkg/graph"
	"github.com/kraklabs/symgraph/pkg/ingestion"
	"github.com/kraklabs/symgraph/pkg/repoload"
)

var watchSkipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	"dist": true, "build": true, ".symgraph": true, "bin": true,
}

const watchDebounce = 2 * time.Second

func runWatch(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
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

	logLevel := slog.LevelWarn
	if globals.Verbose == 1 {
		logLevel = slog.LevelInfo
	} else if globals.Verbose >= 2 {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		errors.FatalError(errors.NewInternalError("cannot start filesystem watcher", err), globals.JSON)
	}
	defer watcher.Close()

	watchCount, skipped := addWatchDirs(watcher, cfg.RepoPath)
	if !globals.Quiet {
		ui.Header("Watching " + cfg.RepoPath)
		fmt.Printf("watching %s directories, skipped %d hidden/system directories\n",
			ui.CountText(watchCount), skipped)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("watch.shutdown.signal")
		cancel()
	}()

	reindexer := &reindexState{cfg: cfg, logger: logger}
	reindexer.run(ctx, globals) // index once on startup so watch reflects current state

	var debounceTimer *time.Timer
	var timerCh <-chan time.Time
	eventCount := 0

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			eventCount++
			logger.Debug("watch.event", "path", event.Name, "op", event.Op.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(watchDebounce)
			timerCh = debounceTimer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch.fsnotify.error", "err", err)
		case <-timerCh:
			timerCh = nil
			logger.Info("watch.reindex.trigger", "events", eventCount)
			reindexer.run(ctx, globals)
		}
	}
}

// addWatchDirs recursively registers every directory under root with the
// watcher, skipping build output and vcs/package-manager directories that
// would otherwise generate a debounce storm on every index run.
func addWatchDirs(watcher *fsnotify.Watcher, root string) (watched int, skippedDirs int) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if watchSkipDirs[base] || (strings.HasPrefix(base, ".") && base != ".") {
			skippedDirs++
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err == nil {
			watched++
		} else if os.IsPermission(err) {
			return filepath.SkipDir
		}
		return nil
	})
	return watched, skippedDirs
}

// reindexState serializes watch-triggered reindex runs: a debounce firing
// while a previous run is still in flight is dropped rather than queued,
// since the in-flight run will already pick up the same changes.
type reindexState struct {
	cfg        ingestion.Config
	logger     *slog.Logger
	mu         sync.Mutex
	inProgress bool
}

func (r *reindexState) run(ctx context.Context, globals GlobalFlags) {
	r.mu.Lock()
	if r.inProgress {
		r.mu.Unlock()
		r.logger.Debug("watch.reindex.skip", "reason", "already in progress")
		return
	}
	r.inProgress = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.inProgress = false
		r.mu.Unlock()
	}()

	start := time.Now()
	files, loadStats, err := repoload.Load(r.cfg.RepoPath, repoload.Options{
		ProjectName: r.cfg.ProjectName, Exclude: r.cfg.ExcludeGlobs, MaxFileSizeBytes: r.cfg.MaxFileSizeBytes,
	}, r.logger)
	if err != nil {
		r.logger.Warn("watch.reindex.load.error", "err", err)
		return
	}

	writer, err := graph.OpenSQLiteWriter(r.cfg.GraphPath, globals.Verbose >= 2)
	if err != nil {
		r.logger.Warn("watch.reindex.graph.error", "err", err)
		return
	}
	defer func() { _ = writer.Close() }()

	pipeline := ingestion.NewPipeline(r.cfg.ResolverConfig(), r.logger)
	result, err := pipeline.Run(ctx, files)
	if err != nil {
		r.logger.Warn("watch.reindex.pipeline.error", "err", err)
		return
	}
	if err := writeGraph(writer, result); err != nil {
		r.logger.Warn("watch.reindex.write.error", "err", err)
		return
	}

	if !globals.Quiet {
		ui.Successf("reindexed %d files in %s (skipped %d oversized)",
			loadStats.FilesLoaded, time.Since(start).Round(time.Millisecond), loadStats.FilesSkipped)
	}
}
