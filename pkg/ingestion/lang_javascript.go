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
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

func init() {
	registerLanguage(&javascriptAdapter{})
}

var jsCallNodeTypes = map[string]bool{"call_expression": true}

type javascriptAdapter struct{}

func (javascriptAdapter) Config() LanguageConfig {
	return LanguageConfig{
		Name:           "javascript",
		Extensions:     []string{".js", ".jsx", ".mjs", ".ts", ".tsx"},
		ClassNodeTypes: []string{"class_declaration"},
		FuncNodeTypes:  []string{"function_declaration", "method_definition", "arrow_function"},
		CallNodeTypes:  []string{"call_expression"},
	}
}

func (javascriptAdapter) Scan(content []byte, filePath, moduleQN, packageQN string) (*ScanResult, error) {
	pool := &defaultParsers.jsP
	if ext := filepath.Ext(filePath); ext == ".ts" || ext == ".tsx" {
		pool = &defaultParsers.tsP
	}
	tree, err := defaultParsers.parse(pool, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if n := countErrors(root); n > 0 {
			slog.Default().Warn("ingestion.parser.javascript.syntax_errors", "path", filePath, "errors", n)
		}
	}

	res := newScanResult(moduleQN, packageQN)
	anon := 0
	walkJSScope(root, content, filePath, moduleQN, "", "", res, &anon)
	collectJSImports(root, content, res)
	return res, nil
}

func walkJSScope(node *sitter.Node, content []byte, filePath, moduleQN, scopeQN, classQN string, res *ScanResult, anon *int) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "class_declaration":
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
		startLine, endLine, startCol, endCol := nodeRange(node)
		res.Types = append(res.Types, TypeEntity{
			ID: GenerateTypeID(filePath, qn, startLine, endLine), QN: qn, Name: name, Kind: "class",
			FilePath: filePath, CodeText: nodeText(content, node),
			StartLine: startLine, EndLine: endLine, StartCol: startCol, EndCol: endCol,
		})
		res.Defines = append(res.Defines, DefinesEdge{FromQN: parent, ToQN: qn})

		for i := 0; i < int(node.ChildCount()); i++ {
			if node.Child(i).Type() == "class_heritage" {
				heritage := node.Child(i)
				for j := 0; j < int(heritage.ChildCount()); j++ {
					hc := heritage.Child(j)
					if hc.Type() == "identifier" || hc.Type() == "member_expression" {
						res.ClassParents[qn] = append(res.ClassParents[qn], nodeText(content, hc))
					}
				}
			}
		}

		if body := node.ChildByFieldName("body"); body != nil {
			walkJSScope(body, content, filePath, moduleQN, qn, qn, res, anon)
		}
		return

	case "function_declaration", "method_definition":
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
		kind := KindFunction
		if classQN != "" {
			kind = KindMethod
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

		if annotations := jsParamAnnotations(paramsNode, content); len(annotations) > 0 {
			res.ParamAnnotations[qn] = annotations
		}

		if body := node.ChildByFieldName("body"); body != nil {
			collectJSAssignments(body, content, qn, res)
			collectCalls(body, content, qn, moduleQN, classQN, filePath, jsCallNodeTypes, "function", &res.Calls)
			walkJSScope(body, content, filePath, moduleQN, qn, "", res, anon)
		}
		return

	case "variable_declarator":
		nameNode := node.ChildByFieldName("name")
		valueNode := node.ChildByFieldName("value")
		if nameNode != nil && valueNode != nil {
			vt := valueNode.Type()
			if vt == "arrow_function" || vt == "function_expression" || vt == "function" {
				name := nodeText(content, nameNode)
				parent := scopeQN
				if parent == "" {
					parent = moduleQN
				}
				qn := JoinQN(parent, name)
				startLine, endLine, startCol, endCol := nodeRange(node)
				res.Functions = append(res.Functions, FunctionEntity{
					ID: GenerateFunctionID(filePath, qn, startLine, endLine, startCol, endCol),
					QN: qn, Name: name, Kind: KindFunction, FilePath: filePath,
					CodeText: nodeText(content, node), StartLine: startLine, EndLine: endLine, StartCol: startCol, EndCol: endCol,
				})
				res.Defines = append(res.Defines, DefinesEdge{FromQN: parent, ToQN: qn})
				if body := valueNode.ChildByFieldName("body"); body != nil {
					collectJSAssignments(body, content, qn, res)
					collectCalls(body, content, qn, moduleQN, "", filePath, jsCallNodeTypes, "function", &res.Calls)
					walkJSScope(body, content, filePath, moduleQN, qn, "", res, anon)
				}
				return
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkJSScope(node.Child(i), content, filePath, moduleQN, scopeQN, classQN, res, anon)
	}
}

func jsParamAnnotations(paramsNode *sitter.Node, content []byte) map[string]string {
	if paramsNode == nil {
		return nil
	}
	out := make(map[string]string)
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		if child.Type() != "required_parameter" && child.Type() != "optional_parameter" {
			continue
		}
		patternNode := child.ChildByFieldName("pattern")
		typeNode := child.ChildByFieldName("type")
		if patternNode != nil && typeNode != nil {
			out[nodeText(content, patternNode)] = strings.TrimPrefix(nodeText(content, typeNode), ":")
		}
	}
	return out
}

func collectJSAssignments(node *sitter.Node, content []byte, callerQN string, res *ScanResult) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "assignment_expression":
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left != nil && right != nil {
			recordJSAssignment(content, callerQN, left, right, res)
		}
	case "variable_declarator":
		nameNode := node.ChildByFieldName("name")
		valueNode := node.ChildByFieldName("value")
		if nameNode != nil && valueNode != nil {
			recordJSAssignment(content, callerQN, nameNode, valueNode, res)
		}
	}
	if node.Type() == "function_declaration" || node.Type() == "method_definition" ||
		node.Type() == "class_declaration" || node.Type() == "arrow_function" || node.Type() == "function_expression" {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectJSAssignments(node.Child(i), content, callerQN, res)
	}
}

func recordJSAssignment(content []byte, callerQN string, left, right *sitter.Node, res *ScanResult) {
	if right.Type() != "new_expression" && right.Type() != "call_expression" {
		return
	}
	calleeField := "constructor"
	if right.Type() == "call_expression" {
		calleeField = "function"
	}
	callee := right.ChildByFieldName(calleeField)
	if callee == nil {
		return
	}
	res.Assignments[callerQN] = append(res.Assignments[callerQN], Assignment{
		Target:      nodeText(content, left),
		Constructed: nodeText(content, callee),
	})
}

func collectJSImports(node *sitter.Node, content []byte, res *ScanResult) {
	if node == nil {
		return
	}
	if node.Type() == "import_statement" {
		sourceNode := node.ChildByFieldName("source")
		pkg := strings.Trim(nodeText(content, sourceNode), "\"'`")
		startLine := int(node.StartPoint().Row) + 1

		var clause *sitter.Node
		for i := 0; i < int(node.ChildCount()); i++ {
			if c := node.Child(i); c.Type() == "import_clause" {
				clause = c
				break
			}
		}
		if clause == nil {
			return // side-effect-only import: `import 'pkg'`
		}
		for i := 0; i < int(clause.ChildCount()); i++ {
			part := clause.Child(i)
			switch part.Type() {
			case "identifier":
				// default import
				res.Imports = append(res.Imports, RawImport{FromPackage: pkg, Names: []ImportedName{{Name: "default", Alias: nodeText(content, part)}}, StartLine: startLine})
			case "namespace_import":
				if id := lastIdentifierChild(part, content); id != "" {
					res.Imports = append(res.Imports, RawImport{Path: pkg, Alias: id, StartLine: startLine})
				}
			case "named_imports":
				var names []ImportedName
				for j := 0; j < int(part.ChildCount()); j++ {
					spec := part.Child(j)
					if spec.Type() != "import_specifier" {
						continue
					}
					nameNode := spec.ChildByFieldName("name")
					aliasNode := spec.ChildByFieldName("alias")
					if nameNode == nil {
						continue
					}
					imported := ImportedName{Name: nodeText(content, nameNode)}
					if aliasNode != nil {
						imported.Alias = nodeText(content, aliasNode)
					}
					names = append(names, imported)
				}
				if len(names) > 0 {
					res.Imports = append(res.Imports, RawImport{FromPackage: pkg, Names: names, StartLine: startLine})
				}
			}
		}
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectJSImports(node.Child(i), content, res)
	}
}

func lastIdentifierChild(node *sitter.Node, content []byte) string {
	for i := int(node.ChildCount()) - 1; i >= 0; i-- {
		if node.Child(i).Type() == "identifier" {
			return nodeText(content, node.Child(i))
		}
	}
	return ""
}
