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

// Package graph is the external graph-writer boundary: the ingestion core
// only ever calls EnsureNodeBatch/EnsureRelationshipBatch, never a
// storage-specific API, so a different backend is a different Writer
// implementation away.
package graph

// NodeLabel and RelationshipType name the fixed vocabulary the ingestion
// core writes: three node labels, five edge types.
type NodeLabel string

const (
	LabelFile     NodeLabel = "File"
	LabelFunction NodeLabel = "Function"
	LabelType     NodeLabel = "Type"
)

type RelationshipType string

const (
	RelDefines  RelationshipType = "DEFINES"
	RelImports  RelationshipType = "IMPORTS"
	RelInherits   RelationshipType = "INHERITS"
	RelCalls      RelationshipType = "CALLS"
	RelImplements RelationshipType = "IMPLEMENTS"
)

// Node is one upsert unit: a label plus a property bag keyed by field name.
// "id" is always present and is the upsert key.
type Node struct {
	Label      NodeLabel
	Properties map[string]any
}

// Relationship connects two endpoints named by FromID and ToID. The index
// command fills them with qualified names, which match a node's "qn" (or a
// File node's "module_qn") property rather than its "id".
type Relationship struct {
	Type       RelationshipType
	FromID     string
	ToID       string
	Properties map[string]any
}

// Writer is the storage boundary the ingestion pipeline depends on.
// Implementations must make EnsureNodeBatch/EnsureRelationshipBatch
// idempotent: re-running ingestion against unchanged source re-upserts the
// same rows rather than duplicating them.
type Writer interface {
	EnsureNodeBatch(nodes []Node) error
	EnsureRelationshipBatch(rels []Relationship) error
	Close() error
}
