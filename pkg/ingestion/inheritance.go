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

import "sync"

// InheritanceTable maps a ClassQN to its ordered list of declared parent
// QNs (or best-effort short names, prior to Pass 2 rewriting them to full
// QNs). Order is significant for inheritance-walk tie-breaks.
type InheritanceTable struct {
	mu      sync.RWMutex
	parents map[string][]string
	sealed  bool
}

// NewInheritanceTable constructs an empty table.
func NewInheritanceTable() *InheritanceTable {
	return &InheritanceTable{parents: make(map[string][]string)}
}

// AddParent appends parentQN (or a best-effort short name) to classQN's
// parent list, preserving source-declared order.
func (t *InheritanceTable) AddParent(classQN, parentQN string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parents[classQN] = append(t.parents[classQN], parentQN)
}

// RewriteParent replaces a best-effort short name recorded for classQN with
// its resolved QN, once the Import Map makes that possible in Pass 2. It is
// a no-op if oldName is not present.
func (t *InheritanceTable) RewriteParent(classQN, oldName, resolvedQN string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	parents := t.parents[classQN]
	for i, p := range parents {
		if p == oldName {
			parents[i] = resolvedQN
		}
	}
}

// Seal marks the table as complete. It does not reject later AddParent
// or RewriteParent calls.
func (t *InheritanceTable) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sealed = true
}

// Parents returns the ordered parent list for classQN.
func (t *InheritanceTable) Parents(classQN string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.parents[classQN]))
	copy(out, t.parents[classQN])
	return out
}

// Walk performs a breadth-first inheritance walk: starting from classQN's
// declared parents (in order), probe "Parent.methodName" against probe;
// the first hit wins. A visited set guards against cycles in pathological
// input.
func (t *InheritanceTable) Walk(classQN, methodName string, probe func(qn string) bool) (string, bool) {
	visited := map[string]bool{classQN: true}
	queue := t.Parents(classQN)
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		if visited[parent] {
			continue
		}
		visited[parent] = true

		candidate := JoinQN(parent, methodName)
		if probe(candidate) {
			return candidate, true
		}
		for _, grandparent := range t.Parents(parent) {
			if !visited[grandparent] {
				queue = append(queue, grandparent)
			}
		}
	}
	return "", false
}
