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

package ingestion

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	tstypescript "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// LanguageConfig declares, for one supported language, which node-type
// names denote modules, classes, and functions, and how calls/imports are
// shaped in its grammar: a language-configuration record declaring which
// node-type names denote modules, classes, and functions.
type LanguageConfig struct {
	Name           string
	Extensions     []string
	WireSeparator  bool // true for ecosystems that natively use `::`
	ClassNodeTypes []string
	FuncNodeTypes  []string
	CallNodeTypes  []string
}

// ScanResult is everything the Structure Scanner (Pass 1) extracts from one
// file, before import resolution (Pass 2) rewrites its raw class-parent
// names and raw imports into the global tables.
type ScanResult struct {
	ModuleQN     string
	PackageQN    string
	Functions    []FunctionEntity
	Types        []TypeEntity
	Defines      []DefinesEdge
	DefinesTypes []DefinesTypeEdge
	// ClassParents: ClassQN -> ordered list of best-effort parent names (as
	// written in source; resolved to QNs in Pass 2).
	ClassParents map[string][]string
	Imports      []RawImport
	// Calls: per-caller QN, raw call sites in inner-first emission order.
	Calls []UnresolvedCall
	// Assignments: per-caller QN, straight-line assignments for Pass 3.
	Assignments map[string][]Assignment
	// ParamAnnotations: per-caller QN, parameter name -> declared class name.
	ParamAnnotations map[string]map[string]string
	// ClassContext: per-caller QN, the enclosing ClassQN (empty for free
	// functions).
	ClassContext map[string]string
}

func newScanResult(moduleQN, packageQN string) *ScanResult {
	return &ScanResult{
		ModuleQN:         moduleQN,
		PackageQN:        packageQN,
		ClassParents:     make(map[string][]string),
		Assignments:      make(map[string][]Assignment),
		ParamAnnotations: make(map[string]map[string]string),
		ClassContext:     make(map[string]string),
	}
}

// LanguageAdapter is the grammar/query layer the core consumes: given a
// file's content and its module/package QNs, produce a ScanResult.
type LanguageAdapter interface {
	Config() LanguageConfig
	Scan(content []byte, filePath, moduleQN, packageQN string) (*ScanResult, error)
}

// TreeSitterParsers pools one *sitter.Parser per language, mirroring the
// teacher's sync.Pool-per-language pattern so repeated parses in Pass 1's
// per-file parallelism don't pay ts_parser_new's setup cost every call.
type TreeSitterParsers struct {
	once sync.Once
	pyP  sync.Pool
	jsP  sync.Pool
	tsP  sync.Pool
	goP  sync.Pool
	jvP  sync.Pool
}

var defaultParsers TreeSitterParsers

func (t *TreeSitterParsers) init() {
	t.once.Do(func() {
		t.pyP.New = func() any { p := sitter.NewParser(); p.SetLanguage(python.GetLanguage()); return p }
		t.jsP.New = func() any { p := sitter.NewParser(); p.SetLanguage(javascript.GetLanguage()); return p }
		t.tsP.New = func() any { p := sitter.NewParser(); p.SetLanguage(tstypescript.GetLanguage()); return p }
		t.goP.New = func() any { p := sitter.NewParser(); p.SetLanguage(golang.GetLanguage()); return p }
		t.jvP.New = func() any { p := sitter.NewParser(); p.SetLanguage(java.GetLanguage()); return p }
	})
}

func (t *TreeSitterParsers) parse(pool *sync.Pool, content []byte) (*sitter.Tree, error) {
	t.init()
	parser := pool.Get().(*sitter.Parser)
	defer pool.Put(parser)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	return tree, nil
}

func countErrors(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	n := 0
	if node.IsError() {
		n++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		n += countErrors(node.Child(i))
	}
	return n
}

func nodeText(content []byte, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(content[n.StartByte():n.EndByte()])
}

func nodeRange(n *sitter.Node) (startLine, endLine, startCol, endCol int) {
	return int(n.StartPoint().Row) + 1, int(n.EndPoint().Row) + 1,
		int(n.StartPoint().Column) + 1, int(n.EndPoint().Column) + 1
}

// collectCalls walks the subtree rooted at node and emits one
// UnresolvedCall per call-expression node, in inner-first order: a node's
// descendants are always visited (and therefore emitted) before the node
// itself, so nested calls are extracted inner-first.
func collectCalls(node *sitter.Node, content []byte, callerQN, moduleQN, classContext, filePath string, callNodeTypes map[string]bool, calleeField string, out *[]UnresolvedCall) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectCalls(node.Child(i), content, callerQN, moduleQN, classContext, filePath, callNodeTypes, calleeField, out)
	}
	if callNodeTypes[node.Type()] {
		fn := node.ChildByFieldName(calleeField)
		if fn == nil {
			return
		}
		calleeName := nodeText(content, fn)
		if calleeName == "" {
			return
		}
		*out = append(*out, UnresolvedCall{
			CallerQN:     callerQN,
			CalleeName:   calleeName,
			ModuleQN:     moduleQN,
			ClassContext: classContext,
			FilePath:     filePath,
			Line:         int(node.StartPoint().Row) + 1,
		})
	}
}

// Registry of language adapters, keyed by file extension, populated by
// each lang_*.go's init().
var languageAdapters = map[string]LanguageAdapter{}

func registerLanguage(a LanguageAdapter) {
	for _, ext := range a.Config().Extensions {
		languageAdapters[ext] = a
	}
}

// AdapterForExtension returns the registered adapter for a file extension
// (including the leading dot, e.g. ".py"), if one is registered.
func AdapterForExtension(ext string) (LanguageAdapter, bool) {
	a, ok := languageAdapters[ext]
	return a, ok
}
