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
	"strings"
	"sync"
)

// ModuleImportMap is a single module's LocalName -> TargetQN bindings,
// including wildcard entries keyed "*<tag>" -> PackageQN.
type ModuleImportMap struct {
	bindings     map[string]string
	wildcardKeys []string // insertion order, so wildcard probing is deterministic
}

func newModuleImportMap() *ModuleImportMap {
	return &ModuleImportMap{bindings: make(map[string]string)}
}

// Bind records LocalName -> TargetQN.
func (m *ModuleImportMap) Bind(localName, targetQN string) {
	m.bindings[localName] = targetQN
}

// BindWildcard records a wildcard import of an entire package. tag
// disambiguates multiple wildcard imports in the same module.
func (m *ModuleImportMap) BindWildcard(tag, packageQN string) {
	key := "*" + tag
	m.bindings[key] = packageQN
	m.wildcardKeys = append(m.wildcardKeys, key)
}

// Resolve looks up a plain local name.
func (m *ModuleImportMap) Resolve(localName string) (string, bool) {
	qn, ok := m.bindings[localName]
	return qn, ok
}

// WildcardPackages returns every wildcard-imported package QN, in the
// order the wildcard imports were declared.
func (m *ModuleImportMap) WildcardPackages() []string {
	out := make([]string, 0, len(m.wildcardKeys))
	for _, k := range m.wildcardKeys {
		out = append(out, m.bindings[k])
	}
	return out
}

// ImportMap partitions ModuleImportMaps by module QN. Pass 2 writers touch
// disjoint partitions (one per module), so the only shared state is the
// outer map's bookkeeping, guarded by a mutex.
type ImportMap struct {
	mu      sync.RWMutex
	modules map[string]*ModuleImportMap
	sealed  bool
}

// NewImportMap constructs an empty Import Map.
func NewImportMap() *ImportMap {
	return &ImportMap{modules: make(map[string]*ModuleImportMap)}
}

// ForModule returns (creating if needed) the module's own import map
// partition.
func (im *ImportMap) ForModule(moduleQN string) *ModuleImportMap {
	im.mu.Lock()
	defer im.mu.Unlock()
	m, ok := im.modules[moduleQN]
	if !ok {
		m = newModuleImportMap()
		im.modules[moduleQN] = m
	}
	return m
}

// Seal marks the map as complete. It does not reject later Bind,
// BindWildcard or ApplyImport calls.
func (im *ImportMap) Seal() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.sealed = true
}

// Lookup resolves localName within moduleQN's partition.
func (im *ImportMap) Lookup(moduleQN, localName string) (string, bool) {
	im.mu.RLock()
	m, ok := im.modules[moduleQN]
	im.mu.RUnlock()
	if !ok {
		return "", false
	}
	return m.Resolve(localName)
}

// WildcardPackages returns moduleQN's wildcard-imported packages.
func (im *ImportMap) WildcardPackages(moduleQN string) []string {
	im.mu.RLock()
	m, ok := im.modules[moduleQN]
	im.mu.RUnlock()
	if !ok {
		return nil
	}
	return m.WildcardPackages()
}

// RawImport is the abstract shape an Import Processor extracts from a
// syntax tree before it is folded into the ImportMap. It captures enough
// information to realize every import form the language supports.
type RawImport struct {
	// Path is the dotted import path as written, e.g. "pkg.sub".
	Path string
	// Alias is the bound local name; empty means "bind the natural name"
	// (the top segment for plain `import pkg.sub`, or the last component
	// for `from pkg import X`).
	Alias string
	// FromPackage is set for `from pkg import X` forms; empty for plain
	// `import pkg.sub`.
	FromPackage string
	// Names holds one or more `X` / `X as Y` members for `from pkg import
	// (a, b as B)` grouped forms. When non-empty, FromPackage applies to
	// each and Alias/Path are ignored.
	Names []ImportedName
	// Wildcard marks `from pkg import *`.
	Wildcard bool
	// RelativeDots counts leading dots for `from . import X` /
	// `from .. import X`; 0 means absolute.
	RelativeDots int
	StartLine    int
}

// ImportedName is one member of a grouped `from pkg import (a, b as B)`.
type ImportedName struct {
	Name  string
	Alias string
}

// ApplyImport folds a single RawImport into moduleQN's import map
// partition, handling every import form the language supports.
// currentPackageQN is the enclosing package QN, used to resolve relative
// imports. wildcardSeq
// supplies a monotonically increasing counter so repeated wildcard imports
// in one module get distinct tags.
func (im *ImportMap) ApplyImport(moduleQN, currentPackageQN string, raw RawImport, wildcardSeq func() int) []ImportEdge {
	m := im.ForModule(moduleQN)
	var edges []ImportEdge

	resolveBase := func(path string) string {
		if raw.RelativeDots <= 0 {
			return path
		}
		pkg := currentPackageQN
		for i := 1; i < raw.RelativeDots; i++ {
			pkg = ParentQN(pkg)
		}
		return JoinQN(pkg, path)
	}

	switch {
	case raw.Wildcard:
		pkgQN := resolveBase(raw.FromPackage)
		tag := fmt.Sprintf("w%d", wildcardSeq())
		m.BindWildcard(tag, pkgQN)
		edges = append(edges, ImportEdge{ModuleQN: moduleQN, TargetQN: pkgQN, LocalName: "*" + tag, StartLine: raw.StartLine})

	case len(raw.Names) > 0:
		base := resolveBase(raw.FromPackage)
		for _, n := range raw.Names {
			local := n.Alias
			if local == "" {
				local = n.Name
			}
			target := JoinQN(base, n.Name)
			m.Bind(local, target)
			edges = append(edges, ImportEdge{ModuleQN: moduleQN, TargetQN: target, LocalName: local, StartLine: raw.StartLine})
		}

	case raw.FromPackage != "" || raw.RelativeDots > 0:
		// from pkg import X [as Y], or relative `from . import X`
		base := resolveBase(raw.FromPackage)
		local := raw.Alias
		if local == "" {
			local = raw.Path
		}
		target := JoinQN(base, raw.Path)
		m.Bind(local, target)
		edges = append(edges, ImportEdge{ModuleQN: moduleQN, TargetQN: target, LocalName: local, StartLine: raw.StartLine})

	case raw.Alias != "":
		// import pkg.sub as P
		m.Bind(raw.Alias, raw.Path)
		edges = append(edges, ImportEdge{ModuleQN: moduleQN, TargetQN: raw.Path, LocalName: raw.Alias, StartLine: raw.StartLine})

	default:
		// import pkg.sub: bind both the top segment and the full
		// dotted path for qualified access.
		top := strings.SplitN(raw.Path, QNSeparator, 2)[0]
		m.Bind(top, top)
		m.Bind(raw.Path, raw.Path)
		edges = append(edges,
			ImportEdge{ModuleQN: moduleQN, TargetQN: top, LocalName: top, StartLine: raw.StartLine},
			ImportEdge{ModuleQN: moduleQN, TargetQN: raw.Path, LocalName: raw.Path, StartLine: raw.StartLine},
		)
	}

	return edges
}
