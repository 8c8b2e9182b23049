// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import "testing"

func TestNewLocalTypeMap_SeededFromParamAnnotations(t *testing.T) {
	m := NewLocalTypeMap(map[string]string{
		"self": "app.models.User",
		"ctx":  "",
	})
	if c, ok := m.Lookup("self"); !ok || c != "app.models.User" {
		t.Fatalf("Lookup(self) = (%q, %v), want (app.models.User, true)", c, ok)
	}
	if _, ok := m.Lookup("ctx"); ok {
		t.Error("expected an empty-class annotation to be skipped, not bound")
	}
}

func TestLocalTypeMap_BindOverwritesLastAssignmentWins(t *testing.T) {
	m := NewLocalTypeMap(nil)
	m.Bind("x", "app.models.User")
	m.Bind("x", "app.models.Account")
	if c, ok := m.Lookup("x"); !ok || c != "app.models.Account" {
		t.Fatalf("Lookup(x) = (%q, %v), want (app.models.Account, true) after reassignment", c, ok)
	}
}

func alwaysUnknownClass(string) (string, bool) { return "", false }

func TestInferLocalTypes_Rule1_PlainConstructorCall(t *testing.T) {
	assignments := []Assignment{
		{Target: "u", Constructed: "User"},
	}
	known := func(name string) (string, bool) {
		if name == "User" {
			return "app.models.User", true
		}
		return "", false
	}
	m := InferLocalTypes(nil, assignments, known, nil)
	if c, ok := m.Lookup("u"); !ok || c != "app.models.User" {
		t.Fatalf("Lookup(u) = (%q, %v), want (app.models.User, true)", c, ok)
	}
}

func TestInferLocalTypes_Rule2_SelfAttributeConstructorCall(t *testing.T) {
	assignments := []Assignment{
		{Target: "self.repo", Constructed: "Repository"},
	}
	known := func(name string) (string, bool) {
		if name == "Repository" {
			return "app.storage.Repository", true
		}
		return "", false
	}
	m := InferLocalTypes(nil, assignments, known, nil)
	if c, ok := m.Lookup("self.repo"); !ok || c != "app.storage.Repository" {
		t.Fatalf("Lookup(self.repo) = (%q, %v), want (app.storage.Repository, true)", c, ok)
	}
}

func TestInferLocalTypes_Rule3_DeclaredReturnType(t *testing.T) {
	paramAnnotations := map[string]string{"self": "app.storage.Repository"}
	assignments := []Assignment{
		{Target: "u", Constructed: "self.find"},
	}
	returnType := func(typeQN, method string) (string, bool) {
		if typeQN == "app.storage.Repository" && method == "find" {
			return "app.models.User", true
		}
		return "", false
	}
	m := InferLocalTypes(paramAnnotations, assignments, alwaysUnknownClass, returnType)
	if c, ok := m.Lookup("u"); !ok || c != "app.models.User" {
		t.Fatalf("Lookup(u) = (%q, %v), want (app.models.User, true)", c, ok)
	}
}

func TestInferLocalTypes_Rule3_FluentBuilderHeuristic(t *testing.T) {
	paramAnnotations := map[string]string{"self": "app.query.Builder"}
	assignments := []Assignment{
		{Target: "b", Constructed: "self.withFilter"},
	}
	returnType := func(typeQN, method string) (string, bool) { return "", false }
	m := InferLocalTypes(paramAnnotations, assignments, alwaysUnknownClass, returnType)
	if c, ok := m.Lookup("b"); !ok || c != "app.query.Builder" {
		t.Fatalf("Lookup(b) = (%q, %v), want the fluent-builder heuristic to fall back to the receiver's own type", c, ok)
	}
}

func TestInferLocalTypes_UnknownReceiverLeavesTargetUnbound(t *testing.T) {
	assignments := []Assignment{
		{Target: "x", Constructed: "unknownVar.doThing"},
	}
	m := InferLocalTypes(nil, assignments, alwaysUnknownClass, nil)
	if _, ok := m.Lookup("x"); ok {
		t.Error("expected target to remain unbound when the receiver's type is unknown")
	}
}

func TestInferLocalTypes_NonCallAssignmentSkipped(t *testing.T) {
	assignments := []Assignment{
		{Target: "x", Constructed: ""},
	}
	m := InferLocalTypes(nil, assignments, alwaysUnknownClass, nil)
	if _, ok := m.Lookup("x"); ok {
		t.Error("expected a non-call assignment (empty Constructed) to leave the target unbound")
	}
}

func TestInferLocalTypes_LaterAssignmentOverwritesEarlier(t *testing.T) {
	assignments := []Assignment{
		{Target: "x", Constructed: "User"},
		{Target: "x", Constructed: "Account"},
	}
	known := func(name string) (string, bool) {
		switch name {
		case "User":
			return "app.models.User", true
		case "Account":
			return "app.models.Account", true
		}
		return "", false
	}
	m := InferLocalTypes(nil, assignments, known, nil)
	if c, ok := m.Lookup("x"); !ok || c != "app.models.Account" {
		t.Fatalf("Lookup(x) = (%q, %v), want the later straight-line assignment to win: app.models.Account", c, ok)
	}
}
