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
	"log/slog"
	"runtime"
	"strings"
	"sync"
)

// ResolverConfig toggles resolver behavior.
type ResolverConfig struct {
	// EnableSuffixFallback gates Phase 6, the last-resort suffix-trie
	// lookup. Enabled by default; callers that want precision over recall
	// may disable it.
	EnableSuffixFallback bool
}

// DefaultResolverConfig enables suffix fallback.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{EnableSuffixFallback: true}
}

// CallResolver implements the seven-phase resolution precedence over a
// sealed Registry, InheritanceTable and ImportMap.
type CallResolver struct {
	registry    *Registry
	inheritance *InheritanceTable
	imports     *ImportMap
	config      ResolverConfig
	logger      *slog.Logger

	// localTypesByCaller supplies the per-callable Local Variable Type Map
	// built in Pass 3, keyed by caller QN.
	localTypesByCaller map[string]*LocalTypeMap

	// resolveShortName turns a local variable's bound class name (as
	// recorded by type inference, possibly a short name) into a ClassQN,
	// via the Import Map or same-module registry lookup. Supplied by the
	// pipeline since it needs module context.
	resolveShortName func(moduleQN, shortName string) (string, bool)

	mu    sync.Mutex
	stats ResolverStats
}

// ResolverStats counts how many calls each phase resolved, useful for
// judging the suffix-fallback precision/recall tradeoff.
type ResolverStats struct {
	Phase0SuperCalls      int
	Phase1MethodChains    int
	Phase2ImportExact     int
	Phase3QualifiedDotted int
	Phase4Wildcard        int
	Phase5SameModule      int
	Phase6SuffixFallback  int
	Unresolved            int
}

// NewCallResolver constructs a resolver over the sealed tables built in
// Passes 1-3.
func NewCallResolver(registry *Registry, inheritance *InheritanceTable, imports *ImportMap, config ResolverConfig, logger *slog.Logger) *CallResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallResolver{
		registry:           registry,
		inheritance:        inheritance,
		imports:            imports,
		config:             config,
		logger:             logger,
		localTypesByCaller: make(map[string]*LocalTypeMap),
	}
}

// SetLocalTypes installs the Pass-3 Local Variable Type Map for callerQN.
func (r *CallResolver) SetLocalTypes(callerQN string, m *LocalTypeMap) {
	r.localTypesByCaller[callerQN] = m
}

// SetShortNameResolver installs the callback used to turn a short class
// name bound by type inference into a ClassQN.
func (r *CallResolver) SetShortNameResolver(f func(moduleQN, shortName string) (string, bool)) {
	r.resolveShortName = f
}

// Stats returns a snapshot of per-phase resolution counts.
func (r *CallResolver) Stats() ResolverStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// ResolveCalls resolves every unresolved call, returning the CALLS edges
// to emit. Mirrors the source behaviour's sequential/parallel split: below
// 1000 calls the overhead of a worker pool isn't worth it.
func (r *CallResolver) ResolveCalls(calls []UnresolvedCall) []CallsEdge {
	if len(calls) < 1000 {
		return r.resolveSequential(calls)
	}
	return r.resolveParallel(calls)
}

func (r *CallResolver) resolveSequential(calls []UnresolvedCall) []CallsEdge {
	seen := make(map[string]bool)
	var out []CallsEdge
	for _, c := range calls {
		if qn, ok := r.Resolve(c); ok {
			key := c.CallerQN + "->" + qn
			if !seen[key] {
				seen[key] = true
				out = append(out, CallsEdge{CallerQN: c.CallerQN, CalleeQN: qn, CallLine: c.Line})
			}
		}
	}
	return out
}

func (r *CallResolver) resolveParallel(calls []UnresolvedCall) []CallsEdge {
	numWorkers := runtime.NumCPU()
	if numWorkers > 8 {
		numWorkers = 8
	}

	jobs := make(chan int, len(calls))
	type result struct {
		caller, callee string
		line           int
	}
	results := make(chan result, len(calls))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c := calls[i]
				if qn, ok := r.Resolve(c); ok {
					results <- result{caller: c.CallerQN, callee: qn, line: c.Line}
				}
			}
		}()
	}
	for i := range calls {
		jobs <- i
	}
	close(jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[string]bool)
	var out []CallsEdge
	for res := range results {
		key := res.caller + "->" + res.callee
		if !seen[key] {
			seen[key] = true
			out = append(out, CallsEdge{CallerQN: res.caller, CalleeQN: res.callee, CallLine: res.line})
		}
	}
	return out
}

func (r *CallResolver) probe(qn string) bool {
	_, ok := r.registry.Lookup(qn)
	return ok
}

func (r *CallResolver) recordPhase(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch n {
	case 0:
		r.stats.Phase0SuperCalls++
	case 1:
		r.stats.Phase1MethodChains++
	case 2:
		r.stats.Phase2ImportExact++
	case 3:
		r.stats.Phase3QualifiedDotted++
	case 4:
		r.stats.Phase4Wildcard++
	case 5:
		r.stats.Phase5SameModule++
	case 6:
		r.stats.Phase6SuffixFallback++
	default:
		r.stats.Unresolved++
	}
}

// Resolve implements the phase-ordered precedence. Each phase, if
// it produces a hit, terminates the search: later phases are never
// consulted.
func (r *CallResolver) Resolve(call UnresolvedCall) (string, bool) {
	name := call.CalleeName

	// Phase 0 — super calls.
	if strings.HasPrefix(name, "super()") {
		if call.ClassContext == "" {
			r.recordPhase(-1)
			return "", false
		}
		method := strings.TrimPrefix(name, "super()")
		method = strings.TrimPrefix(method, ".")
		if qn, ok := r.inheritance.Walk(call.ClassContext, method, r.probe); ok {
			r.recordPhase(0)
			return qn, true
		}
		r.recordPhase(-1)
		return "", false
	}

	// Phase 1 — method chains.
	if looksLikeChain(name) {
		if qn, ok := r.resolveMethodChain(call); ok {
			r.recordPhase(1)
			return qn, true
		}
	}

	// Phase 2 — import-map exact.
	if target, ok := r.imports.Lookup(call.ModuleQN, name); ok {
		if _, ok := r.registry.Lookup(target); ok {
			r.recordPhase(2)
			return target, true
		}
	}

	// Phase 3 — qualified dotted calls.
	if strings.Contains(name, ".") {
		if qn, ok := r.resolveQualifiedDotted(call); ok {
			r.recordPhase(3)
			return qn, true
		}
	}

	// Phase 4 — wildcard expansion.
	for _, pkgQN := range r.imports.WildcardPackages(call.ModuleQN) {
		candidate := JoinQN(pkgQN, name)
		if r.probe(candidate) {
			r.recordPhase(4)
			return candidate, true
		}
		wireForm := pkgQN + WireSeparator + name
		if r.probe(wireForm) {
			r.recordPhase(4)
			return wireForm, true
		}
	}

	// Phase 5 — same-module shortcut.
	sameModule := JoinQN(call.ModuleQN, name)
	if r.probe(sameModule) {
		r.recordPhase(5)
		return sameModule, true
	}

	// Phase 6 — suffix fallback (heuristic).
	if r.config.EnableSuffixFallback {
		candidates := r.registry.FindEndingWith(name)
		if len(candidates) > 0 {
			best := r.closestByImportDistance(call.ModuleQN, candidates)
			r.recordPhase(6)
			return best, true
		}
	}

	r.recordPhase(-1)
	return "", false
}

// looksLikeChain reports whether call_name contains both parens and at
// least one interior dotted component carrying parens, per Phase 1's
// trigger condition.
func looksLikeChain(name string) bool {
	if !strings.Contains(name, "(") || !strings.Contains(name, ")") {
		return false
	}
	closeIdx := strings.Index(name, ")")
	if closeIdx < 0 || closeIdx == len(name)-1 {
		return false
	}
	return strings.Contains(name[closeIdx:], ".")
}

// splitChainTerminal extracts the terminal ".method" (the last "." not
// inside parens) and the preceding object expression.
func splitChainTerminal(name string) (objExpr, method string, ok bool) {
	depth := 0
	lastDot := -1
	for i, ch := range name {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case '.':
			if depth == 0 {
				lastDot = i
			}
		}
	}
	if lastDot < 0 {
		return "", "", false
	}
	method = name[lastDot+1:]
	method = strings.TrimSuffix(method, "()")
	return name[:lastDot], method, true
}

func (r *CallResolver) resolveMethodChain(call UnresolvedCall) (string, bool) {
	objExpr, method, ok := splitChainTerminal(call.CalleeName)
	if !ok {
		return "", false
	}
	localTypes := r.localTypesByCaller[call.CallerQN]
	if localTypes == nil {
		return "", false
	}
	inferredType, ok := localTypes.Lookup(objExpr)
	if !ok {
		return "", false
	}
	classQN := r.resolveClassName(call.ModuleQN, inferredType)
	candidate := JoinQN(classQN, method)
	if r.probe(candidate) {
		return candidate, true
	}
	return r.inheritance.Walk(classQN, method, r.probe)
}

// resolveClassName turns a short class name (as bound by type inference)
// into a ClassQN via the short-name resolver callback, falling back to the
// name itself when it is already absolute or no resolver was installed.
func (r *CallResolver) resolveClassName(moduleQN, name string) string {
	if r.resolveShortName == nil {
		return name
	}
	if qn, ok := r.resolveShortName(moduleQN, name); ok {
		return qn
	}
	return name
}

// resolveQualifiedDotted implements Phase 3: self-attribute form and
// class-name form.
func (r *CallResolver) resolveQualifiedDotted(call UnresolvedCall) (string, bool) {
	name := call.CalleeName
	lastDot := strings.LastIndex(name, ".")
	attrRef := name[:lastDot]
	method := name[lastDot+1:]

	localTypes := r.localTypesByCaller[call.CallerQN]

	// Self-attribute form: self.attr[.deeper].method
	if strings.HasPrefix(attrRef, "self.") || attrRef == "self" {
		if localTypes != nil {
			if t, ok := localTypes.Lookup(attrRef); ok {
				classQN := r.resolveClassName(call.ModuleQN, t)
				candidate := JoinQN(classQN, method)
				if r.probe(candidate) {
					return candidate, true
				}
				return r.inheritance.Walk(classQN, method, r.probe)
			}
		}
	}

	// Class-name form: Name.rest
	firstDot := strings.Index(name, ".")
	head := name[:firstDot]
	rest := name[firstDot+1:]

	if target, ok := r.imports.Lookup(call.ModuleQN, head); ok {
		candidate := JoinQN(target, rest)
		if r.probe(candidate) {
			return candidate, true
		}
	}
	if localTypes != nil {
		if t, ok := localTypes.Lookup(head); ok {
			classQN := r.resolveClassName(call.ModuleQN, t)
			candidate := JoinQN(classQN, method)
			if r.probe(candidate) {
				return candidate, true
			}
			return r.inheritance.Walk(classQN, method, r.probe)
		}
	}

	return "", false
}

// closestByImportDistance picks the candidate with the lowest import
// distance to callerModuleQN. Ties break by insertion
// order, which candidates already preserve since FindEndingWith returns
// them in that order.
func (r *CallResolver) closestByImportDistance(callerModuleQN string, candidates []string) string {
	callerParts := SplitQN(callerModuleQN)
	callerParentPkg := ParentQN(callerModuleQN)

	best := candidates[0]
	bestDist := importDistance(callerParts, callerParentPkg, best)
	for _, c := range candidates[1:] {
		d := importDistance(callerParts, callerParentPkg, c)
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

func importDistance(callerParts []string, callerParentPkg, candidateQN string) int {
	candidateParts := SplitQN(candidateQN)
	prefix := CommonPrefixLen(callerParts, candidateParts)
	maxLen := len(callerParts)
	if len(candidateParts) > maxLen {
		maxLen = len(candidateParts)
	}
	dist := maxLen - prefix
	if IsNestedUnderParentPackage(candidateQN, callerParentPkg) {
		dist--
	}
	return dist
}
