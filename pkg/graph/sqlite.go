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

package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// fileRow and edgeRow are the gorm-mapped tables behind the Writer
// interface; fileRow holds nodes of every label (File, Function, Type). Properties beyond the columns every row needs are
// kept as a JSON blob rather than one column per possible property, since
// the node/edge label vocabulary is fixed but their property sets vary per
// label.
type fileRow struct {
	ID         string `gorm:"primaryKey"`
	Label      string `gorm:"index"`
	Properties string
}

type edgeRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Type       string `gorm:"uniqueIndex:idx_edge_identity"`
	FromID     string `gorm:"uniqueIndex:idx_edge_identity"`
	ToID       string `gorm:"uniqueIndex:idx_edge_identity"`
	Properties string
}

// SQLiteWriter implements Writer over a local sqlite database, replacing
// the CozoDB CGO binding the teacher's storage layer assumed (DESIGN.md:
// CozoDB's vendored library and header are absent from this environment).
type SQLiteWriter struct {
	db *gorm.DB
}

// OpenSQLiteWriter connects to (creating if absent) a sqlite file at path
// and runs migrations, mirroring the teacher's db.Connect/db.Migrate split.
func OpenSQLiteWriter(path string, debug bool) (*SQLiteWriter, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create graph directory: %w", err)
		}
	}

	cfg := &gorm.Config{}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open graph db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}
	if err := db.AutoMigrate(&fileRow{}, &edgeRow{}); err != nil {
		return nil, fmt.Errorf("migrate graph db: %w", err)
	}
	return &SQLiteWriter{db: db}, nil
}

func (w *SQLiteWriter) EnsureNodeBatch(nodes []Node) error {
	if len(nodes) == 0 {
		return nil
	}
	rows := make([]fileRow, 0, len(nodes))
	for _, n := range nodes {
		id, _ := n.Properties["id"].(string)
		if id == "" {
			return fmt.Errorf("node of label %s missing id property", n.Label)
		}
		props, err := json.Marshal(n.Properties)
		if err != nil {
			return fmt.Errorf("marshal node properties: %w", err)
		}
		rows = append(rows, fileRow{ID: id, Label: string(n.Label), Properties: string(props)})
	}
	return w.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"label", "properties"}),
	}).CreateInBatches(rows, 500).Error
}

func (w *SQLiteWriter) EnsureRelationshipBatch(rels []Relationship) error {
	if len(rels) == 0 {
		return nil
	}
	rows := make([]edgeRow, 0, len(rels))
	for _, r := range rels {
		props, err := json.Marshal(r.Properties)
		if err != nil {
			return fmt.Errorf("marshal relationship properties: %w", err)
		}
		rows = append(rows, edgeRow{Type: string(r.Type), FromID: r.FromID, ToID: r.ToID, Properties: string(props)})
	}
	// Relationship identity is (type, from, to); a unique index enforces
	// idempotent re-ingestion without accumulating duplicate edges.
	return w.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}, {Name: "from_id"}, {Name: "to_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"properties"}),
	}).CreateInBatches(rows, 500).Error
}

func (w *SQLiteWriter) Close() error {
	sqlDB, err := w.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
