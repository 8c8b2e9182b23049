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
	"testing"

	"github.com/stretchr/testify/require"
)

func sealedRegistry(t *testing.T, entries map[string]Kind) *Registry {
	t.Helper()
	r := NewRegistry()
	for qn, kind := range entries {
		require.NoError(t, r.Insert(qn, kind))
	}
	r.Seal()
	return r
}

func newResolver(registry *Registry, inheritance *InheritanceTable, imports *ImportMap) *CallResolver {
	if inheritance == nil {
		inheritance = NewInheritanceTable()
	}
	inheritance.Seal()
	if imports == nil {
		imports = NewImportMap()
	}
	imports.Seal()
	return NewCallResolver(registry, inheritance, imports, DefaultResolverConfig(), nil)
}

func TestCallResolver_Phase5_SameModuleShortcut(t *testing.T) {
	registry := sealedRegistry(t, map[string]Kind{
		"app.handlers.HandleUser": KindFunction,
	})
	resolver := newResolver(registry, nil, nil)

	qn, ok := resolver.Resolve(UnresolvedCall{
		CallerQN: "app.handlers.Router", CalleeName: "HandleUser", ModuleQN: "app.handlers",
	})
	require.True(t, ok)
	require.Equal(t, "app.handlers.HandleUser", qn)
	require.Equal(t, 1, resolver.Stats().Phase5SameModule)
}

func TestCallResolver_Phase2_ImportExact(t *testing.T) {
	registry := sealedRegistry(t, map[string]Kind{
		"app.handlers.HandleUser": KindFunction,
	})
	imports := NewImportMap()
	imports.ForModule("app.routes").Bind("HandleUser", "app.handlers.HandleUser")
	resolver := newResolver(registry, nil, imports)

	qn, ok := resolver.Resolve(UnresolvedCall{
		CallerQN: "app.routes.RegisterAuth", CalleeName: "HandleUser", ModuleQN: "app.routes",
	})
	require.True(t, ok)
	require.Equal(t, "app.handlers.HandleUser", qn)
	require.Equal(t, 1, resolver.Stats().Phase2ImportExact)
}

func TestCallResolver_Phase3_QualifiedDotted(t *testing.T) {
	registry := sealedRegistry(t, map[string]Kind{
		"app.handlers.HandleUser": KindFunction,
	})
	imports := NewImportMap()
	imports.ForModule("app.routes").Bind("handlers", "app.handlers")
	resolver := newResolver(registry, nil, imports)

	qn, ok := resolver.Resolve(UnresolvedCall{
		CallerQN: "app.routes.RegisterAuth", CalleeName: "handlers.HandleUser", ModuleQN: "app.routes",
	})
	require.True(t, ok)
	require.Equal(t, "app.handlers.HandleUser", qn)
	require.Equal(t, 1, resolver.Stats().Phase3QualifiedDotted)
}

func TestCallResolver_Phase4_WildcardExpansion(t *testing.T) {
	registry := sealedRegistry(t, map[string]Kind{
		"app.handlers.HandleUser": KindFunction,
	})
	imports := NewImportMap()
	imports.ForModule("app.routes").BindWildcard("w0", "app.handlers")
	resolver := newResolver(registry, nil, imports)

	qn, ok := resolver.Resolve(UnresolvedCall{
		CallerQN: "app.routes.RegisterAuth", CalleeName: "HandleUser", ModuleQN: "app.routes",
	})
	require.True(t, ok)
	require.Equal(t, "app.handlers.HandleUser", qn)
	require.Equal(t, 1, resolver.Stats().Phase4Wildcard)
}

func TestCallResolver_Phase0_SuperCall(t *testing.T) {
	registry := sealedRegistry(t, map[string]Kind{
		"app.models.Base.save": KindMethod,
	})
	inheritance := NewInheritanceTable()
	inheritance.AddParent("app.models.User", "app.models.Base")
	resolver := newResolver(registry, inheritance, nil)

	qn, ok := resolver.Resolve(UnresolvedCall{
		CallerQN: "app.models.User.save", CalleeName: "super().save", ModuleQN: "app.models",
		ClassContext: "app.models.User",
	})
	require.True(t, ok)
	require.Equal(t, "app.models.Base.save", qn)
	require.Equal(t, 1, resolver.Stats().Phase0SuperCalls)
}

func TestCallResolver_Phase0_SuperCall_NoClassContext(t *testing.T) {
	registry := sealedRegistry(t, map[string]Kind{"app.models.Base.save": KindMethod})
	resolver := newResolver(registry, nil, nil)

	_, ok := resolver.Resolve(UnresolvedCall{
		CallerQN: "app.models.orphan", CalleeName: "super().save", ModuleQN: "app.models",
	})
	require.False(t, ok)
}

func TestCallResolver_Phase1_MethodChain(t *testing.T) {
	registry := sealedRegistry(t, map[string]Kind{
		"app.models.User.save": KindMethod,
	})
	resolver := newResolver(registry, nil, nil)
	localTypes := NewLocalTypeMap(nil)
	// "self.builder()" is the receiver expression of the chain's terminal
	// ".save()" call; Phase 1 only triggers when a "." follows a closing
	// paren, i.e. an actual chain rather than a single dotted call.
	localTypes.Bind("self.builder()", "app.models.User")
	resolver.SetLocalTypes("app.handlers.Create", localTypes)
	resolver.SetShortNameResolver(func(moduleQN, shortName string) (string, bool) {
		return shortName, true
	})

	qn, ok := resolver.Resolve(UnresolvedCall{
		CallerQN: "app.handlers.Create", CalleeName: "self.builder().save()", ModuleQN: "app.handlers",
	})
	require.True(t, ok)
	require.Equal(t, "app.models.User.save", qn)
	require.Equal(t, 1, resolver.Stats().Phase1MethodChains)
}

func TestCallResolver_Phase6_SuffixFallback(t *testing.T) {
	registry := sealedRegistry(t, map[string]Kind{
		"app.util.strings.Trim": KindFunction,
	})
	resolver := newResolver(registry, nil, nil)

	qn, ok := resolver.Resolve(UnresolvedCall{
		CallerQN: "app.unrelated.Caller", CalleeName: "Trim", ModuleQN: "app.unrelated",
	})
	require.True(t, ok)
	require.Equal(t, "app.util.strings.Trim", qn)
	require.Equal(t, 1, resolver.Stats().Phase6SuffixFallback)
}

func TestCallResolver_Phase6_DisabledBySetting(t *testing.T) {
	registry := sealedRegistry(t, map[string]Kind{
		"app.util.strings.Trim": KindFunction,
	})
	inheritance := NewInheritanceTable()
	inheritance.Seal()
	imports := NewImportMap()
	imports.Seal()
	resolver := NewCallResolver(registry, inheritance, imports, ResolverConfig{EnableSuffixFallback: false}, nil)

	_, ok := resolver.Resolve(UnresolvedCall{
		CallerQN: "app.unrelated.Caller", CalleeName: "Trim", ModuleQN: "app.unrelated",
	})
	require.False(t, ok)
}

func TestCallResolver_Unresolved(t *testing.T) {
	registry := sealedRegistry(t, map[string]Kind{})
	resolver := newResolver(registry, nil, nil)

	_, ok := resolver.Resolve(UnresolvedCall{
		CallerQN: "app.x.Caller", CalleeName: "NothingLikeThis", ModuleQN: "app.x",
	})
	require.False(t, ok)
	require.Equal(t, 1, resolver.Stats().Unresolved)
}

func TestCallResolver_ResolveCalls_DedupesRepeatedEdges(t *testing.T) {
	registry := sealedRegistry(t, map[string]Kind{
		"app.handlers.HandleUser": KindFunction,
	})
	resolver := newResolver(registry, nil, nil)

	calls := []UnresolvedCall{
		{CallerQN: "app.handlers.Router", CalleeName: "HandleUser", ModuleQN: "app.handlers", Line: 10},
		{CallerQN: "app.handlers.Router", CalleeName: "HandleUser", ModuleQN: "app.handlers", Line: 20},
	}
	edges := resolver.ResolveCalls(calls)
	require.Len(t, edges, 1, "the same caller->callee pair should not produce duplicate edges")
}

func TestCallResolver_PhasePrecedence_EarlierPhaseWins(t *testing.T) {
	// Both an import binding (Phase 2) and a same-module declaration
	// (Phase 5) could resolve "Helper"; Phase 2 must win since it runs first.
	registry := sealedRegistry(t, map[string]Kind{
		"app.external.Helper": KindFunction,
		"app.local.Helper":    KindFunction,
	})
	imports := NewImportMap()
	imports.ForModule("app.local").Bind("Helper", "app.external.Helper")
	resolver := newResolver(registry, nil, imports)

	qn, ok := resolver.Resolve(UnresolvedCall{
		CallerQN: "app.local.Caller", CalleeName: "Helper", ModuleQN: "app.local",
	})
	require.True(t, ok)
	require.Equal(t, "app.external.Helper", qn)
}
