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

// Package ingestion implements the symbol-resolution pipeline: a four-pass
// build (structure scan, import resolution, type inference, call
// resolution) that turns a parsed repository into nodes and edges for a
// graph backend.
package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// Kind classifies a registry entry.
type Kind string

const (
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
	KindClass    Kind = "class"
	KindModule   Kind = "module"
)

// FileEntity represents a source file in the repository.
type FileEntity struct {
	ID       string
	Path     string
	Hash     string
	Language string
	Size     int64
	ModuleQN string // qualified name of the module this file represents
}

// FunctionEntity represents a function or method declaration.
type FunctionEntity struct {
	ID        string
	QN        string // fully qualified name, e.g. project.pkg.Class.method
	Name      string // short/local name, e.g. method
	Kind      Kind   // KindFunction or KindMethod
	Signature string
	FilePath  string
	ClassQN   string // enclosing class QN, empty for free functions
	CodeText  string
	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int
}

// TypeEntity represents a class/interface/struct declaration.
type TypeEntity struct {
	ID        string
	QN        string
	Name      string
	Kind      string // "class", "interface", "struct", "type"
	FilePath  string
	CodeText  string
	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int
}

// DefinesEdge: module/class -> function or class -> method (containment).
type DefinesEdge struct {
	FromQN string
	ToQN   string
}

// DefinesTypeEdge: file/module -> type.
type DefinesTypeEdge struct {
	FileID string
	TypeID string
}

// InheritsEdge: class -> declared parent, in source order.
type InheritsEdge struct {
	ClassQN  string
	ParentQN string
	Order    int
}

// ImportEdge: module -> imported QN.
type ImportEdge struct {
	ModuleQN  string
	TargetQN  string
	LocalName string
	StartLine int
}

// CallsEdge: caller QN -> callee QN.
type CallsEdge struct {
	CallerQN string
	CalleeQN string
	CallLine int
}

// ImplementsEdge: concrete type QN -> interface QN, a structural match
// derived by comparing method sets rather than a declared relationship
// (Go's interfaces, and duck-typed protocols in the other languages,
// carry no "implements" keyword for the Structure Scanner to record).
type ImplementsEdge struct {
	TypeQN      string
	InterfaceQN string
}

// UnresolvedCall is a syntactic call site awaiting resolution in Pass 4.
type UnresolvedCall struct {
	CallerQN     string
	CalleeName   string // textual callee expression as it appeared in source
	ModuleQN     string
	ClassContext string // enclosing ClassQN, if the caller is a method
	FilePath     string
	Line         int
}

// GenerateFileID produces a deterministic ID for a file, keyed by its
// normalized repo-relative path.
func GenerateFileID(path string) string {
	h := sha256.Sum256([]byte(normalizePath(path)))
	return "file:" + hex.EncodeToString(h[:16])
}

// GenerateFunctionID produces a deterministic ID for a function/method.
// Signature is deliberately excluded so parser improvements that refine
// signature extraction do not change IDs across runs.
func GenerateFunctionID(filePath, name string, startLine, endLine, startCol, endCol int) string {
	h := sha256.New()
	h.Write([]byte(normalizePath(filePath)))
	h.Write([]byte("|"))
	h.Write([]byte(name))
	h.Write([]byte("|"))
	_, _ = fmt.Fprintf(h, "%d:%d-%d:%d", startLine, startCol, endLine, endCol)
	return "func:" + hex.EncodeToString(h.Sum(nil))[:16]
}

// GenerateTypeID produces a deterministic ID for a type/class declaration.
func GenerateTypeID(filePath, name string, startLine, endLine int) string {
	h := sha256.New()
	h.Write([]byte(normalizePath(filePath)))
	h.Write([]byte("|"))
	h.Write([]byte(name))
	h.Write([]byte("|"))
	_, _ = fmt.Fprintf(h, "%d-%d", startLine, endLine)
	return "typ:" + hex.EncodeToString(h.Sum(nil))[:16]
}

// GenerateImportID produces a deterministic ID for an import binding.
func GenerateImportID(modulePath, localName, target string) string {
	h := sha256.New()
	h.Write([]byte(normalizePath(modulePath)))
	h.Write([]byte("|"))
	h.Write([]byte(localName))
	h.Write([]byte("|"))
	h.Write([]byte(target))
	return "imp:" + hex.EncodeToString(h.Sum(nil))[:16]
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
