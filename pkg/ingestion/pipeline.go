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
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/kraklabs/symgraph/pkg/sigparse"
)

// PipelineResult is the full set of batches a graph writer needs to upsert
// after one run, plus per-pass counters that `symgraph index` reports.
type PipelineResult struct {
	Files         []FileEntity
	Functions     []FunctionEntity
	Types         []TypeEntity
	Defines       []DefinesEdge
	DefinesTypes  []DefinesTypeEdge
	Inherits      []InheritsEdge
	Imports       []ImportEdge
	Calls         []CallsEdge
	Implements    []ImplementsEdge
	ScannerStats  ScannerStats
	ResolverStats ResolverStats
	Duration      time.Duration
}

// Pipeline drives the four ordered passes over a fixed file set, with a
// global barrier between each: Structure Scanner, Import Resolver, Type
// Inference, Call Processor. Every pass completes for every file before
// the next pass reads any of its output, and a re-run against unchanged
// input reproduces the same tables — table construction holds no
// run-local timestamps or counters keyed by
// wall-clock state.
type Pipeline struct {
	registry      *Registry
	inheritance   *InheritanceTable
	imports       *ImportMap
	resolverConf  ResolverConfig
	logger        *slog.Logger
	numWorkers    int
}

func NewPipeline(resolverConf ResolverConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		registry:     NewRegistry(),
		inheritance:  NewInheritanceTable(),
		imports:      NewImportMap(),
		resolverConf: resolverConf,
		logger:       logger,
		numWorkers:   workers,
	}
}

func (p *Pipeline) Run(ctx context.Context, files []SourceFile) (*PipelineResult, error) {
	start := time.Now()

	// Pass 1: Structure Scanner.
	scanner := NewScanner(p.registry, p.inheritance, p.logger)
	outcomes, scanStats := scanner.Scan(ctx, files, p.numWorkers)
	p.logger.Info("ingestion.pipeline.pass1.complete", "files", scanStats.FilesScanned, "parse_errors", scanStats.ParseErrors)

	// Pass 2: Import Resolver. Builds the Import Map from every file's raw
	// imports, then rewrites each class's best-effort parent names into
	// resolved QNs now that imports are available (the inheritance walk
	// needs fully-qualified parent names, not source-literal ones).
	var fileEntities []FileEntity
	var functions []FunctionEntity
	var types []TypeEntity
	var defines []DefinesEdge
	var definesTypes []DefinesTypeEdge
	var importEdges []ImportEdge
	resultsByPath := make(map[string]*ScanResult, len(outcomes))

	wildcardSeq := make(map[string]int)
	for _, o := range outcomes {
		if o.Result == nil {
			continue
		}
		resultsByPath[o.Path] = o.Result
		functions = append(functions, o.Result.Functions...)
		types = append(types, o.Result.Types...)
		defines = append(defines, o.Result.Defines...)
		definesTypes = append(definesTypes, o.Result.DefinesTypes...)
		fileEntities = append(fileEntities, FileEntity{
			ID: GenerateFileID(o.Path), Path: o.Path, ModuleQN: o.Result.ModuleQN,
		})

		moduleQN := o.Result.ModuleQN
		seq := wildcardSeq[moduleQN]
		for _, raw := range o.Result.Imports {
			edges := p.imports.ApplyImport(moduleQN, o.Result.PackageQN, raw, func() int { seq++; return seq })
			importEdges = append(importEdges, edges...)
		}
		wildcardSeq[moduleQN] = seq
	}

	for qn, parentNames := range collectClassParents(resultsByPath) {
		for _, raw := range parentNames {
			p.inheritance.AddParent(qn, raw)
		}
	}
	p.rewriteInheritanceParents(resultsByPath)
	p.registry.Seal()
	p.inheritance.Seal()
	p.imports.Seal()
	p.logger.Info("ingestion.pipeline.pass2.complete", "import_edges", len(importEdges))

	// Pass 3: Type Inference Engine. Builds one LocalTypeMap per callable,
	// independent across callables, so this pass parallelizes trivially —
	// but is run sequentially here since it is typically far cheaper than
	// parsing or resolution.
	resolver := NewCallResolver(p.registry, p.inheritance, p.imports, p.resolverConf, p.logger)
	resolver.SetShortNameResolver(p.resolveShortName)
	returnType := p.returnTypeProbe(functions)

	var allCalls []UnresolvedCall
	typedCallables := 0
	for _, res := range resultsByPath {
		knownClass := p.knownClassProbe(res.ModuleQN)
		for callerQN, assignments := range res.Assignments {
			localTypes := InferLocalTypes(res.ParamAnnotations[callerQN], assignments, knownClass, returnType)
			resolver.SetLocalTypes(callerQN, localTypes)
			typedCallables++
		}
		for callerQN, annotations := range res.ParamAnnotations {
			if _, ok := res.Assignments[callerQN]; ok {
				continue
			}
			resolver.SetLocalTypes(callerQN, InferLocalTypes(annotations, nil, knownClass, returnType))
			typedCallables++
		}
		allCalls = append(allCalls, res.Calls...)
	}
	p.logger.Info("ingestion.pipeline.pass3.complete", "callables_typed", typedCallables)

	// Pass 4: Call Processor.
	callEdges := resolver.ResolveCalls(allCalls)
	p.logger.Info("ingestion.pipeline.pass4.complete", "calls_resolved", len(callEdges), "calls_total", len(allCalls))

	// Structural, not part of the ordered pass sequence: matches method
	// sets against interface declarations regardless of pass order, so it
	// runs once against the final Functions/Types batches.
	implementsEdges := BuildImplementsIndex(types, functions)

	return &PipelineResult{
		Files: fileEntities, Functions: functions, Types: types,
		Defines: defines, DefinesTypes: definesTypes,
		Inherits: p.inheritsEdges(), Imports: importEdges, Calls: callEdges,
		Implements:   implementsEdges,
		ScannerStats: scanStats, ResolverStats: resolver.Stats(),
		Duration: time.Since(start),
	}, nil
}

func collectClassParents(resultsByPath map[string]*ScanResult) map[string][]string {
	out := make(map[string][]string)
	for _, res := range resultsByPath {
		for qn, parents := range res.ClassParents {
			out[qn] = append(out[qn], parents...)
		}
	}
	return out
}

// rewriteInheritanceParents resolves each class's source-literal parent
// names into fully-qualified QNs: a same-module class, an imported name,
// or (if unresolvable) left as-is so the inheritance walk still attempts a
// literal match rather than silently dropping the edge.
func (p *Pipeline) rewriteInheritanceParents(resultsByPath map[string]*ScanResult) {
	for _, res := range resultsByPath {
		for classQN, rawParents := range res.ClassParents {
			for _, raw := range rawParents {
				resolved := p.resolveShortName(res.ModuleQN, raw)
				if resolved != raw {
					p.inheritance.RewriteParent(classQN, raw, resolved)
				}
			}
		}
	}
}

// inheritsEdges flattens the sealed InheritanceTable into ordered edges.
// The table itself doesn't expose its key set, so this walks every
// registered QN and emits the parents recorded for each.
func (p *Pipeline) inheritsEdges() []InheritsEdge {
	var edges []InheritsEdge
	for _, qn := range p.registry.All() {
		parents := p.inheritance.Parents(qn)
		for i, parent := range parents {
			edges = append(edges, InheritsEdge{ClassQN: qn, ParentQN: parent, Order: i})
		}
	}
	return edges
}

// resolveShortName is the CallResolver's short-name -> QN resolver,
// checking the module's import bindings before assuming a bare name is
// already module-local.
func (p *Pipeline) resolveShortName(moduleQN, shortName string) (string, bool) {
	if target, ok := p.imports.Lookup(moduleQN, shortName); ok {
		return target, true
	}
	candidate := JoinQN(moduleQN, shortName)
	if _, ok := p.registry.Lookup(candidate); ok {
		return candidate, true
	}
	return shortName, false
}

// knownClassProbe binds a caller's module context so a bare class name in
// `x = ClassName(...)` can be resolved the same way an import or a
// same-module declaration would be, before falling back to treating name
// as already fully qualified.
func (p *Pipeline) knownClassProbe(moduleQN string) KnownClassProbe {
	return func(name string) (string, bool) {
		if qn, ok := p.resolveShortName(moduleQN, name); ok {
			if kind, ok := p.registry.Lookup(qn); ok && kind == KindClass {
				return qn, true
			}
		}
		if kind, ok := p.registry.Lookup(name); ok && kind == KindClass {
			return name, true
		}
		return "", false
	}
}

// returnTypeProbe reports a statically declared return class for Go
// methods, parsed from the opaque signature text recorded during scanning;
// other languages' grammars don't expose a structured return-type field, so
// rule 3 falls through to the fluent-builder heuristic for those. The
// parsed short type name must still resolve to a known class QN within the
// receiver's module — an unresolvable name is treated as "not declared"
// rather than risking a wrong class QN.
func (p *Pipeline) returnTypeProbe(functions []FunctionEntity) ReturnTypeProbe {
	sigByQN := make(map[string]string, len(functions))
	for _, fn := range functions {
		if fn.Signature != "" {
			sigByQN[fn.QN] = fn.Signature
		}
	}
	return func(typeQN, method string) (string, bool) {
		sig, ok := sigByQN[JoinQN(typeQN, method)]
		if !ok || !strings.HasPrefix(strings.TrimSpace(sig), "func") {
			return "", false
		}
		short, ok := sigparse.ParseGoReturnType(sig)
		if !ok {
			return "", false
		}
		return p.resolveShortName(ParentQN(typeQN), short)
	}
}
