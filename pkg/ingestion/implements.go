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

import "regexp"

// interfaceMethodPattern matches method declarations inside an interface
// body's raw source text, e.g. "Write(data []byte) error" or "Flush() error".
var interfaceMethodPattern = regexp.MustCompile(`(?m)^\s*([A-Z][a-zA-Z0-9_]*)\s*\(`)

// BuildImplementsIndex finds concrete types whose receiver-method set is a
// superset of some interface's declared methods. This is purely structural
// (no cross-module resolution, so it needs only Pass 1 output; the
// pipeline runs it once after Pass 4) and deliberately approximate: it matches
// on method name alone, not parameter/return types, mirroring how Go's own
// interface satisfaction is a name-and-arity affair rather than a declared
// relationship the Structure Scanner could record directly.
func BuildImplementsIndex(types []TypeEntity, functions []FunctionEntity) []ImplementsEdge {
	interfaces := extractInterfaceMethods(types)
	if len(interfaces) == 0 {
		return nil
	}
	typeMethods := buildTypeMethodSets(functions)

	interfaceQNs := make(map[string]bool, len(interfaces))
	for _, iface := range interfaces {
		interfaceQNs[iface.qn] = true
	}

	var edges []ImplementsEdge
	for _, iface := range interfaces {
		if len(iface.methods) == 0 {
			continue
		}
		for typeQN, methods := range typeMethods {
			if interfaceQNs[typeQN] {
				continue // an interface never "implements" itself
			}
			if hasAllMethods(methods, iface.methods) {
				edges = append(edges, ImplementsEdge{TypeQN: typeQN, InterfaceQN: iface.qn})
			}
		}
	}
	return edges
}

type interfaceInfo struct {
	qn      string
	methods []string
}

func extractInterfaceMethods(types []TypeEntity) []interfaceInfo {
	var result []interfaceInfo
	for _, t := range types {
		if t.Kind != "interface" {
			continue
		}
		matches := interfaceMethodPattern.FindAllStringSubmatch(t.CodeText, -1)
		var methods []string
		for _, m := range matches {
			if len(m) > 1 {
				methods = append(methods, m[1])
			}
		}
		result = append(result, interfaceInfo{qn: t.QN, methods: methods})
	}
	return result
}

// buildTypeMethodSets maps a type's ClassQN to the set of method short
// names it declares, from FunctionEntity.ClassQN/Name pairs recorded by the
// Structure Scanner.
func buildTypeMethodSets(functions []FunctionEntity) map[string]map[string]bool {
	typeMethods := make(map[string]map[string]bool)
	for _, fn := range functions {
		if fn.ClassQN == "" {
			continue
		}
		if typeMethods[fn.ClassQN] == nil {
			typeMethods[fn.ClassQN] = make(map[string]bool)
		}
		typeMethods[fn.ClassQN][fn.Name] = true
	}
	return typeMethods
}

func hasAllMethods(methods map[string]bool, required []string) bool {
	for _, m := range required {
		if !methods[m] {
			return false
		}
	}
	return true
}
