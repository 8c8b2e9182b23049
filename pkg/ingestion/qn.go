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

import "strings"

// WireSeparator is the `::`-separated wire form used by ecosystems that
// natively delimit qualified names that way. The data model always uses
// `.`; the rewrite only happens at the external boundary.
const WireSeparator = "::"

// QNSeparator is the canonical in-process separator.
const QNSeparator = "."

// JoinQN concatenates non-empty path components with the canonical
// separator.
func JoinQN(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, QNSeparator)
}

// SplitQN splits a qualified name into its dotted components.
func SplitQN(qn string) []string {
	if qn == "" {
		return nil
	}
	return strings.Split(qn, QNSeparator)
}

// ParentQN returns the QN of the immediate lexical parent (strips the last
// component), or "" if qn has no dotted parent.
func ParentQN(qn string) string {
	idx := strings.LastIndex(qn, QNSeparator)
	if idx < 0 {
		return ""
	}
	return qn[:idx]
}

// LastComponent returns the final dotted component of a QN.
func LastComponent(qn string) string {
	idx := strings.LastIndex(qn, QNSeparator)
	if idx < 0 {
		return qn
	}
	return qn[idx+1:]
}

// ToWireForm rewrites the separator for ecosystems that use `::` natively.
func ToWireForm(qn string) string {
	return strings.ReplaceAll(qn, QNSeparator, WireSeparator)
}

// FromWireForm rewrites a `::`-separated external name back to the
// canonical dotted form.
func FromWireForm(name string) string {
	return strings.ReplaceAll(name, WireSeparator, QNSeparator)
}

// CommonPrefixLen returns the number of leading dotted components shared
// by two QN component lists.
func CommonPrefixLen(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// IsNestedUnderParentPackage reports whether candidateQN lives anywhere
// beneath callerParentPkg (the caller's own enclosing package), at any
// depth, not just as a direct child. An empty callerParentPkg never
// matches.
func IsNestedUnderParentPackage(candidateQN, callerParentPkg string) bool {
	if callerParentPkg == "" {
		return false
	}
	return strings.HasPrefix(candidateQN, callerParentPkg+QNSeparator)
}
