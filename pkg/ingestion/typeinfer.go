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

// LocalTypeMap is a per-callable Expression -> ClassName map. A missing
// key means "unknown type." It is never shared across callables.
type LocalTypeMap struct {
	bindings map[string]string
}

// NewLocalTypeMap constructs an empty map, optionally seeded from
// parameter annotations (rule 4: seeded before body processing).
func NewLocalTypeMap(paramAnnotations map[string]string) *LocalTypeMap {
	m := &LocalTypeMap{bindings: make(map[string]string)}
	for name, class := range paramAnnotations {
		if class != "" {
			m.bindings[name] = class
		}
	}
	return m
}

// Bind records expr -> className, overwriting any prior binding (straight
// line code: last assignment wins).
func (m *LocalTypeMap) Bind(expr, className string) {
	m.bindings[expr] = className
}

// Lookup returns the inferred class for expr, if known.
func (m *LocalTypeMap) Lookup(expr string) (string, bool) {
	c, ok := m.bindings[expr]
	return c, ok
}

// Assignment is one straight-line assignment statement as extracted by a
// language adapter, in source order.
type Assignment struct {
	// Target is the bound expression: a bare identifier ("x") or a dotted
	// self-attribute path ("self.attr").
	Target string
	// Constructed is the class name being instantiated, for
	// `x = ClassName(...)` / `self.attr = ClassName(...)` forms (rules 1-2).
	// Empty if the RHS of this assignment is not a call at all.
	Constructed string
}

// KnownClassProbe reports whether name denotes a known class, either via
// the Import Map or a same-module Function Registry entry of Kind=Class.
type KnownClassProbe func(name string) (classQN string, ok bool)

// ReturnTypeProbe resolves TypeQN.method's statically declared return
// class, when syntactically available. ok=false means "not declared";
// callers fall back to the fluent-builder heuristic (return TypeQN itself).
type ReturnTypeProbe func(typeQN, method string) (returnClassQN string, ok bool)

// InferLocalTypes builds a Local Variable Type Map for one callable body,
// applying the assignment-inference rules in source order so later
// assignments overwrite earlier ones for the same target.
func InferLocalTypes(paramAnnotations map[string]string, assignments []Assignment, knownClass KnownClassProbe, returnType ReturnTypeProbe) *LocalTypeMap {
	m := NewLocalTypeMap(paramAnnotations)

	for _, a := range assignments {
		if a.Constructed == "" {
			continue
		}
		// Rules 1 & 2: x = ClassName(...) / self.attr = ClassName(...), when
		// the callee names a known class.
		if classQN, ok := knownClass(a.Constructed); ok {
			m.Bind(a.Target, classQN)
			continue
		}
		// Rule 3: otherwise treat the RHS as a general call whose return
		// type may be inferable; unbound if it is not.
		if t, ok := inferCallReturnType(a.Constructed, m, returnType); ok {
			m.Bind(a.Target, t)
		}
	}

	return m
}

// inferCallReturnType implements the recursive case: expr is
// "Recv.method(args)" textually reduced to "Recv.method"; if
// Recv's type is known, return the statically declared return class of
// TypeQN.method when returnType reports one, else TypeQN itself
// (fluent-builder heuristic). Whether TypeQN.method is registered is not
// checked.
func inferCallReturnType(calleeExpr string, m *LocalTypeMap, returnType ReturnTypeProbe) (string, bool) {
	recv, method, ok := splitLastDotted(calleeExpr)
	if !ok {
		return "", false
	}
	recvType, ok := m.Lookup(recv)
	if !ok {
		return "", false
	}
	if rt, ok := returnType(recvType, method); ok && rt != "" {
		return rt, true
	}
	// Fluent-builder heuristic: with no declared return type, assume the
	// method returns the receiver's own type, whether or not the method is
	// registered on it.
	return recvType, true
}

// splitLastDotted splits "a.b.c" into ("a.b", "c"); returns ok=false if
// there is no dot.
func splitLastDotted(s string) (prefix, last string, ok bool) {
	idx := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}
