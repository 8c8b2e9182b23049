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
	"fmt"
	"sync"
)

// DuplicateSymbolError indicates two declarations registered the same QN.
// First registration wins; this is logged as a warning by the scanner, not
// treated as fatal — a structural bug, not an abort condition.
type DuplicateSymbolError struct {
	QN string
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("duplicate symbol: %s", e.QN)
}

// trieNode is one level of the reversed-component suffix trie. Children are
// keyed by dotted component (not character).
type trieNode struct {
	children map[string]*trieNode
	qns      []string // QNs whose reversed-component path terminates here, insertion order
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

// Registry is the Function Registry: a QN -> Kind map with suffix lookup
// via a reversed-component trie. It is append-only during Pass 1 and
// sealed thereafter: Insert after Seal returns an error. Reads take a
// shared read lock.
type Registry struct {
	mu      sync.RWMutex
	byQN    map[string]Kind
	order   []string // insertion order, for deterministic traversal
	suffix  *trieNode
	sealed  bool
}

// NewRegistry constructs an empty Function Registry.
func NewRegistry() *Registry {
	return &Registry{
		byQN:   make(map[string]Kind),
		suffix: newTrieNode(),
	}
}

// Insert registers qn with the given kind. Returns DuplicateSymbolError if
// qn is already present; the existing entry is left untouched (first
// wins).
func (r *Registry) Insert(qn string, kind Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("registry: insert after seal: %s", qn)
	}
	if _, exists := r.byQN[qn]; exists {
		return &DuplicateSymbolError{QN: qn}
	}
	r.byQN[qn] = kind
	r.order = append(r.order, qn)
	r.insertSuffix(qn)
	return nil
}

func (r *Registry) insertSuffix(qn string) {
	parts := SplitQN(qn)
	node := r.suffix
	for i := len(parts) - 1; i >= 0; i-- {
		child, ok := node.children[parts[i]]
		if !ok {
			child = newTrieNode()
			node.children[parts[i]] = child
		}
		node = child
	}
	node.qns = append(node.qns, qn)
}

// Seal freezes the registry: every later Insert fails. The pipeline calls
// it once structure scanning and import folding are complete.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Lookup performs an exact QN match.
func (r *Registry) Lookup(qn string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.byQN[qn]
	return k, ok
}

// FindEndingWith returns all registered QNs whose dotted-path suffix
// equals tail (tail may itself be dotted, e.g. "Class.method"), in
// insertion order.
func (r *Registry) FindEndingWith(tail string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parts := SplitQN(tail)
	node := r.suffix
	for i := len(parts) - 1; i >= 0; i-- {
		child, ok := node.children[parts[i]]
		if !ok {
			return nil
		}
		node = child
	}
	return collectDeterministic(node, r.order)
}

// collectDeterministic gathers every QN stored at or below node, ordered to
// match global insertion order (the trie's own per-node qns slices are
// already insertion-ordered, but a tail can terminate above multiple
// branches, so we re-sort against the registry's global order for a total,
// deterministic sequence).
func collectDeterministic(node *trieNode, globalOrder []string) []string {
	set := make(map[string]bool)
	var gather func(n *trieNode)
	gather = func(n *trieNode) {
		for _, qn := range n.qns {
			set[qn] = true
		}
		for _, c := range n.children {
			gather(c)
		}
	}
	gather(node)
	if len(set) == 0 {
		return nil
	}
	var out []string
	for _, qn := range globalOrder {
		if set[qn] {
			out = append(out, qn)
		}
	}
	return out
}

// Len returns the number of registered QNs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byQN)
}

// All returns every registered QN in insertion order. Intended for tests
// and diagnostics, not hot paths.
func (r *Registry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
