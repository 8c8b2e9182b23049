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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

func init() {
	registerLanguage(&goAdapter{})
}

var goCallNodeTypes = map[string]bool{"call_expression": true}

type goAdapter struct{}

func (goAdapter) Config() LanguageConfig {
	return LanguageConfig{
		Name:           "go",
		Extensions:     []string{".go"},
		ClassNodeTypes: []string{"type_declaration"},
		FuncNodeTypes:  []string{"function_declaration", "method_declaration", "func_literal"},
		CallNodeTypes:  []string{"call_expression"},
	}
}

// Scan treats a receiver's base type name as the ClassQN a method nests
// under, so struct types double as the classes of the Structure Scanner's
// data model even though Go has no inheritance keyword: embedded fields
// populate ClassParents as a best-effort analogue, walked the same way an
// `extends` clause would be.
func (goAdapter) Scan(content []byte, filePath, moduleQN, packageQN string) (*ScanResult, error) {
	tree, err := defaultParsers.parse(&defaultParsers.goP, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if n := countErrors(root); n > 0 {
			slog.Default().Warn("ingestion.parser.go.syntax_errors", "path", filePath, "errors", n)
		}
	}

	res := newScanResult(moduleQN, packageQN)
	anon := 0
	walkGoTypes(root, content, filePath, moduleQN, res)
	walkGoFuncs(root, content, filePath, moduleQN, res, &anon)
	collectGoImports(root, content, res)
	return res, nil
}

// walkGoTypes registers struct/interface type declarations and their
// embedded-field parents before walkGoFuncs assigns methods to them, since
// a method_declaration's receiver may appear earlier in the file than its
// type_declaration.
func walkGoTypes(node *sitter.Node, content []byte, filePath, moduleQN string, res *ScanResult) {
	if node == nil {
		return
	}
	if node.Type() == "type_declaration" {
		for i := 0; i < int(node.ChildCount()); i++ {
			spec := node.Child(i)
			if spec.Type() != "type_spec" {
				continue
			}
			nameNode := spec.ChildByFieldName("name")
			typeNode := spec.ChildByFieldName("type")
			if nameNode == nil || typeNode == nil {
				continue
			}
			name := nodeText(content, nameNode)
			qn := JoinQN(moduleQN, name)
			kind := "type"
			switch typeNode.Type() {
			case "struct_type":
				kind = "struct"
			case "interface_type":
				kind = "interface"
			}
			startLine, endLine, startCol, endCol := nodeRange(spec)
			res.Types = append(res.Types, TypeEntity{
				ID: GenerateTypeID(filePath, qn, startLine, endLine), QN: qn, Name: name, Kind: kind,
				FilePath: filePath, CodeText: nodeText(content, spec),
				StartLine: startLine, EndLine: endLine, StartCol: startCol, EndCol: endCol,
			})
			res.Defines = append(res.Defines, DefinesEdge{FromQN: moduleQN, ToQN: qn})

			if typeNode.Type() == "struct_type" {
				for _, embed := range goEmbeddedFieldNames(typeNode, content) {
					res.ClassParents[qn] = append(res.ClassParents[qn], embed)
				}
			}
		}
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkGoTypes(node.Child(i), content, filePath, moduleQN, res)
	}
}

// goEmbeddedFieldNames finds field_declaration_list entries with no name
// field: an embedded type in Go's grammar.
func goEmbeddedFieldNames(structType *sitter.Node, content []byte) []string {
	var out []string
	fields := structType.ChildByFieldName("body")
	if fields == nil {
		return out
	}
	for i := 0; i < int(fields.ChildCount()); i++ {
		field := fields.Child(i)
		if field.Type() != "field_declaration" {
			continue
		}
		if field.ChildByFieldName("name") != nil {
			continue
		}
		typeNode := field.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		out = append(out, extractGoBaseTypeName(typeNode, content))
	}
	return out
}

func extractGoBaseTypeName(typeNode *sitter.Node, content []byte) string {
	if typeNode == nil {
		return ""
	}
	switch typeNode.Type() {
	case "pointer_type":
		for i := 0; i < int(typeNode.ChildCount()); i++ {
			child := typeNode.Child(i)
			if child.Type() != "*" {
				return extractGoBaseTypeName(child, content)
			}
		}
	case "qualified_type":
		if nameNode := typeNode.ChildByFieldName("name"); nameNode != nil {
			return nodeText(content, nameNode)
		}
	case "generic_type":
		if nameNode := typeNode.ChildByFieldName("type"); nameNode != nil {
			return nodeText(content, nameNode)
		}
	}
	text := nodeText(content, typeNode)
	text = strings.TrimPrefix(text, "*")
	if idx := strings.Index(text, "["); idx > 0 {
		text = text[:idx]
	}
	return text
}

func walkGoFuncs(node *sitter.Node, content []byte, filePath, moduleQN string, res *ScanResult, anon *int) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "function_declaration":
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		name := nodeText(content, nameNode)
		qn := JoinQN(moduleQN, name)
		emitGoFunc(node, content, filePath, moduleQN, qn, "", name, res)
		return

	case "method_declaration":
		nameNode := node.ChildByFieldName("name")
		receiverNode := node.ChildByFieldName("receiver")
		if nameNode == nil {
			return
		}
		name := nodeText(content, nameNode)
		classQN := ""
		if receiverNode != nil {
			if recvType := goReceiverType(receiverNode, content); recvType != "" {
				classQN = JoinQN(moduleQN, recvType)
			}
		}
		parent := classQN
		if parent == "" {
			parent = moduleQN
		}
		qn := JoinQN(parent, name)
		emitGoFunc(node, content, filePath, moduleQN, qn, classQN, name, res)
		return

	case "func_literal":
		*anon++
		name := fmt.Sprintf("$anon_%d", *anon)
		qn := JoinQN(moduleQN, name)
		emitGoFunc(node, content, filePath, moduleQN, qn, "", name, res)
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkGoFuncs(node.Child(i), content, filePath, moduleQN, res, anon)
	}
}

func emitGoFunc(node *sitter.Node, content []byte, filePath, moduleQN, qn, classQN, name string, res *ScanResult) {
	kind := KindFunction
	if classQN != "" {
		kind = KindMethod
	}
	paramsNode := node.ChildByFieldName("parameters")
	resultNode := node.ChildByFieldName("result")
	signature := fmt.Sprintf("func %s%s", name, nodeText(content, paramsNode))
	if resultNode != nil {
		signature += " " + nodeText(content, resultNode)
	}
	startLine, endLine, startCol, endCol := nodeRange(node)
	parent := classQN
	if parent == "" {
		parent = moduleQN
	}
	res.Functions = append(res.Functions, FunctionEntity{
		ID: GenerateFunctionID(filePath, qn, startLine, endLine, startCol, endCol),
		QN: qn, Name: name, Kind: kind, Signature: signature, FilePath: filePath, ClassQN: classQN,
		CodeText: nodeText(content, node), StartLine: startLine, EndLine: endLine, StartCol: startCol, EndCol: endCol,
	})
	res.Defines = append(res.Defines, DefinesEdge{FromQN: parent, ToQN: qn})
	res.ClassContext[qn] = classQN

	if annotations := goParamAnnotations(paramsNode, content); len(annotations) > 0 {
		res.ParamAnnotations[qn] = annotations
	}

	if body := node.ChildByFieldName("body"); body != nil {
		collectGoAssignments(body, content, qn, res)
		collectCalls(body, content, qn, moduleQN, classQN, filePath, goCallNodeTypes, "function", &res.Calls)
	}
}

func goReceiverType(receiverNode *sitter.Node, content []byte) string {
	for i := 0; i < int(receiverNode.ChildCount()); i++ {
		param := receiverNode.Child(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		if typeNode := param.ChildByFieldName("type"); typeNode != nil {
			return extractGoBaseTypeName(typeNode, content)
		}
	}
	return ""
}

func goParamAnnotations(paramsNode *sitter.Node, content []byte) map[string]string {
	if paramsNode == nil {
		return nil
	}
	out := make(map[string]string)
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		param := paramsNode.Child(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		typeName := extractGoBaseTypeName(typeNode, content)
		for j := 0; j < int(param.ChildCount()); j++ {
			if param.Child(j).Type() == "identifier" {
				out[nodeText(content, param.Child(j))] = typeName
			}
		}
	}
	return out
}

func collectGoAssignments(node *sitter.Node, content []byte, callerQN string, res *ScanResult) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "short_var_declaration":
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		recordGoAssignment(content, callerQN, left, right, res)
	case "assignment_statement":
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		recordGoAssignment(content, callerQN, left, right, res)
	}
	if node.Type() == "function_declaration" || node.Type() == "method_declaration" || node.Type() == "func_literal" {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectGoAssignments(node.Child(i), content, callerQN, res)
	}
}

func recordGoAssignment(content []byte, callerQN string, left, right *sitter.Node, res *ScanResult) {
	if left == nil || right == nil {
		return
	}
	// Go's multi-assignment (a, b := f()) shares a single right-hand node
	// list; only the single-target, single-call-expression form is
	// inferable within straight-line scope.
	if left.Type() == "expression_list" && left.ChildCount() != 1 {
		return
	}
	if right.Type() == "expression_list" && right.ChildCount() != 1 {
		return
	}
	target := left
	if target.Type() == "expression_list" {
		target = target.Child(0)
	}
	value := right
	if value.Type() == "expression_list" {
		value = value.Child(0)
	}
	if value.Type() != "call_expression" {
		return
	}
	fn := value.ChildByFieldName("function")
	if fn == nil {
		return
	}
	res.Assignments[callerQN] = append(res.Assignments[callerQN], Assignment{
		Target:      nodeText(content, target),
		Constructed: nodeText(content, fn),
	})
}

func collectGoImports(node *sitter.Node, content []byte, res *ScanResult) {
	if node == nil {
		return
	}
	if node.Type() != "import_declaration" {
		for i := 0; i < int(node.ChildCount()); i++ {
			collectGoImports(node.Child(i), content, res)
		}
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import_spec":
			emitGoImportSpec(child, content, res)
		case "import_spec_list":
			for j := 0; j < int(child.ChildCount()); j++ {
				if spec := child.Child(j); spec.Type() == "import_spec" {
					emitGoImportSpec(spec, content, res)
				}
			}
		}
	}
}

func emitGoImportSpec(node *sitter.Node, content []byte, res *ScanResult) {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	path := strings.Trim(nodeText(content, pathNode), `"`)
	startLine := int(node.StartPoint().Row) + 1

	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		alias := nodeText(content, nameNode)
		if alias == "_" {
			return // blank import: no binding to resolve through
		}
		if alias == "." {
			res.Imports = append(res.Imports, RawImport{FromPackage: path, Wildcard: true, StartLine: startLine})
			return
		}
		res.Imports = append(res.Imports, RawImport{Path: path, Alias: alias, StartLine: startLine})
		return
	}
	res.Imports = append(res.Imports, RawImport{Path: path, StartLine: startLine})
}
