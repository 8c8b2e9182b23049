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
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
)

func init() {
	registerLanguage(&javaAdapter{})
}

var javaCallNodeTypes = map[string]bool{"method_invocation": true, "object_creation_expression": true}

type javaAdapter struct{}

func (javaAdapter) Config() LanguageConfig {
	return LanguageConfig{
		Name:           "java",
		Extensions:     []string{".java"},
		ClassNodeTypes: []string{"class_declaration", "interface_declaration"},
		FuncNodeTypes:  []string{"method_declaration", "constructor_declaration"},
		CallNodeTypes:  []string{"method_invocation", "object_creation_expression"},
	}
}

func (javaAdapter) Scan(content []byte, filePath, moduleQN, packageQN string) (*ScanResult, error) {
	tree, err := defaultParsers.parse(&defaultParsers.jvP, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if n := countErrors(root); n > 0 {
			slog.Default().Warn("ingestion.parser.java.syntax_errors", "path", filePath, "errors", n)
		}
	}

	res := newScanResult(moduleQN, packageQN)
	walkJavaScope(root, content, filePath, moduleQN, "", "", res)
	collectJavaImports(root, content, res)
	return res, nil
}

// walkJavaScope handles class_declaration's superclass/interfaces fields
// directly: the extends clause (at most one type) is recorded first, then each
// implemented interface, preserving source-declared order in ClassParents.
func walkJavaScope(node *sitter.Node, content []byte, filePath, moduleQN, scopeQN, classQN string, res *ScanResult) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "class_declaration", "interface_declaration":
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		name := nodeText(content, nameNode)
		parent := scopeQN
		if parent == "" {
			parent = moduleQN
		}
		qn := JoinQN(parent, name)
		kind := "class"
		if node.Type() == "interface_declaration" {
			kind = "interface"
		}
		startLine, endLine, startCol, endCol := nodeRange(node)
		res.Types = append(res.Types, TypeEntity{
			ID: GenerateTypeID(filePath, qn, startLine, endLine), QN: qn, Name: name, Kind: kind,
			FilePath: filePath, CodeText: nodeText(content, node),
			StartLine: startLine, EndLine: endLine, StartCol: startCol, EndCol: endCol,
		})
		res.Defines = append(res.Defines, DefinesEdge{FromQN: parent, ToQN: qn})

		if superclass := node.ChildByFieldName("superclass"); superclass != nil {
			if t := javaTypeIdentifier(superclass, content); t != "" {
				res.ClassParents[qn] = append(res.ClassParents[qn], t)
			}
		}
		if interfaces := node.ChildByFieldName("interfaces"); interfaces != nil {
			for _, t := range javaTypeListIdentifiers(interfaces, content) {
				res.ClassParents[qn] = append(res.ClassParents[qn], t)
			}
		}
		// extends_interfaces covers `interface A extends B, C`.
		if ext := node.ChildByFieldName("extends_interfaces"); ext != nil {
			for _, t := range javaTypeListIdentifiers(ext, content) {
				res.ClassParents[qn] = append(res.ClassParents[qn], t)
			}
		}

		if body := node.ChildByFieldName("body"); body != nil {
			walkJavaScope(body, content, filePath, moduleQN, qn, qn, res)
		}
		return

	case "method_declaration", "constructor_declaration":
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		name := nodeText(content, nameNode)
		parent := scopeQN
		if parent == "" {
			parent = moduleQN
		}
		qn := JoinQN(parent, name)
		kind := KindMethod
		if classQN == "" {
			kind = KindFunction
		}
		paramsNode := node.ChildByFieldName("parameters")
		signature := fmt.Sprintf("%s%s", name, nodeText(content, paramsNode))
		startLine, endLine, startCol, endCol := nodeRange(node)
		res.Functions = append(res.Functions, FunctionEntity{
			ID: GenerateFunctionID(filePath, qn, startLine, endLine, startCol, endCol),
			QN: qn, Name: name, Kind: kind, Signature: signature, FilePath: filePath, ClassQN: classQN,
			CodeText: nodeText(content, node), StartLine: startLine, EndLine: endLine, StartCol: startCol, EndCol: endCol,
		})
		res.Defines = append(res.Defines, DefinesEdge{FromQN: parent, ToQN: qn})
		res.ClassContext[qn] = classQN

		if annotations := javaParamAnnotations(paramsNode, content); len(annotations) > 0 {
			res.ParamAnnotations[qn] = annotations
		}

		if body := node.ChildByFieldName("body"); body != nil {
			collectJavaAssignments(body, content, qn, res)
			collectCalls(body, content, qn, moduleQN, classQN, filePath, javaCallNodeTypes, "name", &res.Calls)
			collectJavaConstructorCalls(body, content, qn, moduleQN, classQN, filePath, res)
		}
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkJavaScope(node.Child(i), content, filePath, moduleQN, scopeQN, classQN, res)
	}
}

// collectJavaConstructorCalls handles object_creation_expression, whose
// callee is carried in the "type" field rather than "name"/"function".
func collectJavaConstructorCalls(node *sitter.Node, content []byte, callerQN, moduleQN, classContext, filePath string, res *ScanResult) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectJavaConstructorCalls(node.Child(i), content, callerQN, moduleQN, classContext, filePath, res)
	}
	if node.Type() != "object_creation_expression" {
		return
	}
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	res.Calls = append(res.Calls, UnresolvedCall{
		CallerQN: callerQN, CalleeName: nodeText(content, typeNode), ModuleQN: moduleQN,
		ClassContext: classContext, FilePath: filePath, Line: int(node.StartPoint().Row) + 1,
	})
}

func javaTypeIdentifier(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c.Type() == "type_identifier" || c.Type() == "scoped_type_identifier" || c.Type() == "generic_type" {
			return identifierHead(c, content)
		}
	}
	return ""
}

func javaTypeListIdentifiers(node *sitter.Node, content []byte) []string {
	var out []string
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c.Type() == "type_list" {
			for j := 0; j < int(c.ChildCount()); j++ {
				gc := c.Child(j)
				if gc.Type() == "type_identifier" || gc.Type() == "scoped_type_identifier" || gc.Type() == "generic_type" {
					out = append(out, identifierHead(gc, content))
				}
			}
			continue
		}
		if c.Type() == "type_identifier" || c.Type() == "scoped_type_identifier" || c.Type() == "generic_type" {
			out = append(out, identifierHead(c, content))
		}
	}
	return out
}

// identifierHead strips generic type arguments, returning the bare name
// (e.g. "List<String>" -> "List").
func identifierHead(node *sitter.Node, content []byte) string {
	if node.Type() == "generic_type" {
		if base := node.Child(0); base != nil {
			return nodeText(content, base)
		}
		return ""
	}
	return nodeText(content, node)
}

func javaParamAnnotations(paramsNode *sitter.Node, content []byte) map[string]string {
	if paramsNode == nil {
		return nil
	}
	out := make(map[string]string)
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		if child.Type() != "formal_parameter" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		typeNode := child.ChildByFieldName("type")
		if nameNode != nil && typeNode != nil {
			out[nodeText(content, nameNode)] = nodeText(content, typeNode)
		}
	}
	return out
}

func collectJavaAssignments(node *sitter.Node, content []byte, callerQN string, res *ScanResult) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "local_variable_declaration":
		typeNode := node.ChildByFieldName("type")
		declClass := ""
		if typeNode != nil {
			declClass = nodeText(content, typeNode)
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			decl := node.Child(i)
			if decl.Type() != "variable_declarator" {
				continue
			}
			nameNode := decl.ChildByFieldName("name")
			valueNode := decl.ChildByFieldName("value")
			if nameNode == nil {
				continue
			}
			if valueNode != nil && valueNode.Type() == "object_creation_expression" {
				res.Assignments[callerQN] = append(res.Assignments[callerQN], Assignment{
					Target: nodeText(content, nameNode), Constructed: declClass,
				})
			}
		}
	case "assignment_expression":
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left != nil && right != nil && right.Type() == "method_invocation" {
			if fn := right.ChildByFieldName("name"); fn != nil {
				obj := right.ChildByFieldName("object")
				callee := nodeText(content, fn)
				if obj != nil {
					callee = nodeText(content, obj) + "." + callee
				}
				res.Assignments[callerQN] = append(res.Assignments[callerQN], Assignment{
					Target: nodeText(content, left), Constructed: callee,
				})
			}
		}
	}
	if node.Type() == "method_declaration" || node.Type() == "constructor_declaration" || node.Type() == "class_declaration" {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectJavaAssignments(node.Child(i), content, callerQN, res)
	}
}

func collectJavaImports(node *sitter.Node, content []byte, res *ScanResult) {
	if node == nil {
		return
	}
	if node.Type() == "import_declaration" {
		wildcard := false
		var pathNode *sitter.Node
		for i := 0; i < int(node.ChildCount()); i++ {
			c := node.Child(i)
			if c.Type() == "asterisk" {
				wildcard = true
			}
			if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
				pathNode = c
			}
		}
		if pathNode == nil {
			return
		}
		full := nodeText(content, pathNode)
		startLine := int(node.StartPoint().Row) + 1
		if wildcard {
			res.Imports = append(res.Imports, RawImport{FromPackage: full, Wildcard: true, StartLine: startLine})
			return
		}
		res.Imports = append(res.Imports, RawImport{Path: full, StartLine: startLine})
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectJavaImports(node.Child(i), content, res)
	}
}
