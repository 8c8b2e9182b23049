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
	registerLanguage(&pythonAdapter{})
}

var pythonCallNodeTypes = map[string]bool{"call": true}

type pythonAdapter struct{}

func (pythonAdapter) Config() LanguageConfig {
	return LanguageConfig{
		Name:           "python",
		Extensions:     []string{".py"},
		ClassNodeTypes: []string{"class_definition"},
		FuncNodeTypes:  []string{"function_definition", "lambda"},
		CallNodeTypes:  []string{"call"},
	}
}

// Scan implements the Structure Scanner for Python-family sources: classes
// become ClassQN nodes with ordered best-effort parent names, methods
// nest under their class, module-level defs sit directly under the module.
// For an __init__.py file, repoload passes the containing package QN as
// moduleQN, so the package itself is the module.
func (pythonAdapter) Scan(content []byte, filePath, moduleQN, packageQN string) (*ScanResult, error) {
	tree, err := defaultParsers.parse(&defaultParsers.pyP, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if n := countErrors(root); n > 0 {
			slog.Default().Warn("ingestion.parser.python.syntax_errors", "path", filePath, "errors", n)
		}
	}

	res := newScanResult(moduleQN, packageQN)
	lambdaCounter := 0
	walkPythonScope(root, content, filePath, moduleQN, "", "", res, &lambdaCounter)
	collectPythonImports(root, content, res)
	return res, nil
}

// collectPythonImports walks top-level and nested import statements,
// producing the RawImport shapes consumed by ImportMap.ApplyImport for
// every import form the language supports.
func collectPythonImports(node *sitter.Node, content []byte, res *ScanResult) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "import_statement":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "dotted_name":
				res.Imports = append(res.Imports, RawImport{Path: nodeText(content, child), StartLine: int(node.StartPoint().Row) + 1})
			case "aliased_import":
				nameNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				if nameNode != nil && aliasNode != nil {
					res.Imports = append(res.Imports, RawImport{
						Path: nodeText(content, nameNode), Alias: nodeText(content, aliasNode),
						StartLine: int(node.StartPoint().Row) + 1,
					})
				}
			}
		}
		return

	case "import_from_statement":
		moduleNode := node.ChildByFieldName("module_name")
		fromPkg, dots := pythonFromModulePath(content, moduleNode)
		startLine := int(node.StartPoint().Row) + 1

		var names []ImportedName
		wildcard := false
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "wildcard_import":
				wildcard = true
			case "dotted_name":
				if child == moduleNode {
					continue
				}
				names = append(names, ImportedName{Name: nodeText(content, child)})
			case "aliased_import":
				nameNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				if nameNode != nil && aliasNode != nil {
					names = append(names, ImportedName{Name: nodeText(content, nameNode), Alias: nodeText(content, aliasNode)})
				}
			}
		}

		if wildcard {
			res.Imports = append(res.Imports, RawImport{FromPackage: fromPkg, RelativeDots: dots, Wildcard: true, StartLine: startLine})
		} else if len(names) > 0 {
			res.Imports = append(res.Imports, RawImport{FromPackage: fromPkg, RelativeDots: dots, Names: names, StartLine: startLine})
		}
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collectPythonImports(node.Child(i), content, res)
	}
}

// pythonFromModulePath extracts the dotted package path and relative-dot
// count from an import_from_statement's module_name field, which may be a
// plain dotted_name or a relative_import node ("." / ".." prefixes).
func pythonFromModulePath(content []byte, moduleNode *sitter.Node) (path string, dots int) {
	if moduleNode == nil {
		return "", 0
	}
	if moduleNode.Type() != "relative_import" {
		return nodeText(content, moduleNode), 0
	}
	text := nodeText(content, moduleNode)
	for _, r := range text {
		if r == '.' {
			dots++
		} else {
			break
		}
	}
	path = text[dots:]
	return path, dots
}

// walkPythonScope recursively walks module/class/function bodies, tracking
// the enclosing QN (scopeQN) and, when inside a class body, the
// ClassQN so nested functions are classified as methods.
func walkPythonScope(node *sitter.Node, content []byte, filePath, moduleQN, scopeQN, classQN string, res *ScanResult, lambdaCounter *int) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "class_definition":
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
		te := TypeEntity{
			ID: GenerateTypeID(filePath, qn, startLine, endLine), QN: qn, Name: name, Kind: "class",
			FilePath: filePath, CodeText: nodeText(content, node),
			StartLine: startLine, EndLine: endLine, StartCol: startCol, EndCol: endCol,
		}
		res.Types = append(res.Types, te)
		res.Defines = append(res.Defines, DefinesEdge{FromQN: parent, ToQN: qn})

		if supers := node.ChildByFieldName("superclasses"); supers != nil {
			for i := 0; i < int(supers.ChildCount()); i++ {
				child := supers.Child(i)
				if child.Type() == "identifier" || child.Type() == "attribute" {
					res.ClassParents[qn] = append(res.ClassParents[qn], nodeText(content, child))
				}
			}
		}

		if body := node.ChildByFieldName("body"); body != nil {
			walkPythonScope(body, content, filePath, moduleQN, qn, qn, res, lambdaCounter)
		}
		return

	case "function_definition":
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
		params := nodeText(content, paramsNode)
		retNode := node.ChildByFieldName("return_type")
		signature := fmt.Sprintf("def %s%s", name, params)
		if retNode != nil {
			signature += " -> " + nodeText(content, retNode)
		}
		startLine, endLine, startCol, endCol := nodeRange(node)
		fe := FunctionEntity{
			ID: GenerateFunctionID(filePath, qn, startLine, endLine, startCol, endCol),
			QN: qn, Name: name, Kind: kind, Signature: signature, FilePath: filePath, ClassQN: classQN,
			CodeText: nodeText(content, node), StartLine: startLine, EndLine: endLine, StartCol: startCol, EndCol: endCol,
		}
		res.Functions = append(res.Functions, fe)
		res.Defines = append(res.Defines, DefinesEdge{FromQN: parent, ToQN: qn})
		res.ClassContext[qn] = classQN

		if annotations := pythonParamAnnotations(paramsNode, content); len(annotations) > 0 {
			res.ParamAnnotations[qn] = annotations
		}

		if body := node.ChildByFieldName("body"); body != nil {
			collectPythonAssignments(body, content, qn, res)
			collectCalls(body, content, qn, moduleQN, classQN, filePath, pythonCallNodeTypes, "function", &res.Calls)
			walkPythonScope(body, content, filePath, moduleQN, qn, "", res, lambdaCounter)
		}
		return

	case "lambda":
		*lambdaCounter++
		name := fmt.Sprintf("$lambda_%d", *lambdaCounter)
		parent := scopeQN
		if parent == "" {
			parent = moduleQN
		}
		qn := JoinQN(parent, name)
		startLine, endLine, startCol, endCol := nodeRange(node)
		fe := FunctionEntity{
			ID: GenerateFunctionID(filePath, qn, startLine, endLine, startCol, endCol),
			QN: qn, Name: name, Kind: KindFunction, FilePath: filePath,
			CodeText: nodeText(content, node), StartLine: startLine, EndLine: endLine, StartCol: startCol, EndCol: endCol,
		}
		res.Functions = append(res.Functions, fe)
		res.Defines = append(res.Defines, DefinesEdge{FromQN: parent, ToQN: qn})
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkPythonScope(node.Child(i), content, filePath, moduleQN, scopeQN, classQN, res, lambdaCounter)
	}
}

// pythonParamAnnotations extracts `name: Type` annotations from a
// parameters node, seeding the Local Variable Type Map per rule 4.
func pythonParamAnnotations(paramsNode *sitter.Node, content []byte) map[string]string {
	if paramsNode == nil {
		return nil
	}
	out := make(map[string]string)
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		if child.Type() != "typed_parameter" {
			continue
		}
		var pname string
		for j := 0; j < int(child.ChildCount()); j++ {
			gc := child.Child(j)
			if gc.Type() == "identifier" && pname == "" {
				pname = nodeText(content, gc)
			}
		}
		typeNode := child.ChildByFieldName("type")
		if pname != "" && typeNode != nil {
			out[pname] = nodeText(content, typeNode)
		}
	}
	return out
}

// collectPythonAssignments walks a function body collecting straight-line
// assignment statements in source order (callers rely on slice order for
// "last assignment wins").
func collectPythonAssignments(node *sitter.Node, content []byte, callerQN string, res *ScanResult) {
	if node == nil {
		return
	}
	if node.Type() == "assignment" {
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left != nil && right != nil {
			target := nodeText(content, left)
			if isPythonAssignTarget(left.Type()) && right.Type() == "call" {
				if fn := right.ChildByFieldName("function"); fn != nil {
					res.Assignments[callerQN] = append(res.Assignments[callerQN], Assignment{
						Target:      target,
						Constructed: nodeText(content, fn),
					})
				}
			}
		}
	}
	// Do not descend into nested function/class bodies; those have their
	// own independent local variable type maps.
	if node.Type() == "function_definition" || node.Type() == "class_definition" || node.Type() == "lambda" {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectPythonAssignments(node.Child(i), content, callerQN, res)
	}
}

func isPythonAssignTarget(nodeType string) bool {
	return nodeType == "identifier" || nodeType == "attribute"
}
