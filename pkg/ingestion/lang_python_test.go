// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import "testing"

func TestPythonAdapter_Config(t *testing.T) {
	cfg := pythonAdapter{}.Config()
	if cfg.Name != "python" {
		t.Errorf("Name = %q, want python", cfg.Name)
	}
	if len(cfg.Extensions) != 1 || cfg.Extensions[0] != ".py" {
		t.Errorf("Extensions = %v, want [.py]", cfg.Extensions)
	}
}

func TestPythonAdapter_Scan_ClassAndMethod(t *testing.T) {
	src := `class User(Base):
    def __init__(self, name):
        self.name = name

    def save(self):
        pass
`
	res, err := pythonAdapter{}.Scan([]byte(src), "user.py", "app.models", "app.models")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if len(res.Types) != 1 || res.Types[0].QN != "app.models.User" {
		t.Fatalf("Types = %+v, want one class app.models.User", res.Types)
	}

	parents := res.ClassParents["app.models.User"]
	if len(parents) != 1 || parents[0] != "Base" {
		t.Fatalf("ClassParents[app.models.User] = %v, want [Base]", parents)
	}

	var save *FunctionEntity
	for i := range res.Functions {
		if res.Functions[i].Name == "save" {
			save = &res.Functions[i]
		}
	}
	if save == nil {
		t.Fatal("expected a save method entity")
	}
	if save.Kind != KindMethod || save.ClassQN != "app.models.User" || save.QN != "app.models.User.save" {
		t.Errorf("save entity = %+v, want Kind=method ClassQN=app.models.User QN=app.models.User.save", save)
	}
}

func TestPythonAdapter_Scan_ModuleLevelFunction(t *testing.T) {
	src := `def helper(x):
    return x
`
	res, err := pythonAdapter{}.Scan([]byte(src), "util.py", "app.util", "app.util")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(res.Functions) != 1 || res.Functions[0].Kind != KindFunction || res.Functions[0].QN != "app.util.helper" {
		t.Fatalf("Functions = %+v, want one free function app.util.helper", res.Functions)
	}
}

func TestPythonAdapter_Scan_Calls(t *testing.T) {
	src := `def a():
    b()

def b():
    pass
`
	res, err := pythonAdapter{}.Scan([]byte(src), "calls.py", "app", "app")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	var found bool
	for _, c := range res.Calls {
		if c.CallerQN == "app.a" && c.CalleeName == "b" {
			found = true
		}
	}
	if !found {
		t.Errorf("Calls = %+v, want a call from app.a to b", res.Calls)
	}
}

func TestPythonAdapter_Scan_Imports(t *testing.T) {
	src := `import os
import numpy as np
from app.models import User
from app.models import Account as Acc
from . import sibling
from app.utils import *
`
	res, err := pythonAdapter{}.Scan([]byte(src), "main.py", "app", "app")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	var plain, aliased, fromImport, fromAliased, relative, wildcard bool
	for _, imp := range res.Imports {
		switch {
		case imp.Path == "os" && imp.Alias == "":
			plain = true
		case imp.Path == "numpy" && imp.Alias == "np":
			aliased = true
		case imp.FromPackage == "app.models" && len(imp.Names) == 1 && imp.Names[0].Name == "User" && imp.Names[0].Alias == "":
			fromImport = true
		case imp.FromPackage == "app.models" && len(imp.Names) == 1 && imp.Names[0].Name == "Account" && imp.Names[0].Alias == "Acc":
			fromAliased = true
		case imp.RelativeDots == 1 && len(imp.Names) == 1 && imp.Names[0].Name == "sibling":
			relative = true
		case imp.Wildcard && imp.FromPackage == "app.utils":
			wildcard = true
		}
	}
	if !plain {
		t.Error("expected a plain import of os")
	}
	if !aliased {
		t.Error("expected numpy imported as np")
	}
	if !fromImport {
		t.Error("expected from app.models import User")
	}
	if !fromAliased {
		t.Error("expected from app.models import Account as Acc")
	}
	if !relative {
		t.Error("expected a relative 'from . import sibling'")
	}
	if !wildcard {
		t.Error("expected a wildcard 'from app.utils import *'")
	}
}

func TestPythonAdapter_Scan_AssignmentFromConstructorCall(t *testing.T) {
	src := `def f():
    u = User()
    return u
`
	res, err := pythonAdapter{}.Scan([]byte(src), "assign.py", "app", "app")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	assignments := res.Assignments["app.f"]
	var found bool
	for _, a := range assignments {
		if a.Target == "u" && a.Constructed == "User" {
			found = true
		}
	}
	if !found {
		t.Errorf("Assignments[app.f] = %+v, want target u constructed via User", assignments)
	}
}

func TestPythonAdapter_Scan_ParamAnnotations(t *testing.T) {
	src := `def f(name: str, count: int):
    pass
`
	res, err := pythonAdapter{}.Scan([]byte(src), "params.py", "app", "app")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	annotations := res.ParamAnnotations["app.f"]
	if annotations["name"] != "str" || annotations["count"] != "int" {
		t.Errorf("ParamAnnotations[app.f] = %v, want name=str count=int", annotations)
	}
}
