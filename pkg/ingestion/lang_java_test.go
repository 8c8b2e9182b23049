// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import "testing"

func TestJavaAdapter_Config(t *testing.T) {
	cfg := javaAdapter{}.Config()
	if cfg.Name != "java" {
		t.Errorf("Name = %q, want java", cfg.Name)
	}
	if len(cfg.Extensions) != 1 || cfg.Extensions[0] != ".java" {
		t.Errorf("Extensions = %v, want [.java]", cfg.Extensions)
	}
}

func TestJavaAdapter_Scan_ClassExtendsAndImplements(t *testing.T) {
	src := `package app.models;

class Admin extends User implements Auditable {
  void promote() {
  }
}
`
	res, err := javaAdapter{}.Scan([]byte(src), "Admin.java", "app.models", "app.models")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if len(res.Types) != 1 || res.Types[0].QN != "app.models.Admin" || res.Types[0].Kind != "class" {
		t.Fatalf("Types = %+v, want one class app.models.Admin", res.Types)
	}

	parents := res.ClassParents["app.models.Admin"]
	if len(parents) != 2 || parents[0] != "User" || parents[1] != "Auditable" {
		t.Fatalf("ClassParents[app.models.Admin] = %v, want [User Auditable]", parents)
	}

	var promote *FunctionEntity
	for i := range res.Functions {
		if res.Functions[i].Name == "promote" {
			promote = &res.Functions[i]
		}
	}
	if promote == nil {
		t.Fatal("expected a promote method entity")
	}
	if promote.Kind != KindMethod || promote.ClassQN != "app.models.Admin" {
		t.Errorf("promote entity = %+v, want Kind=method ClassQN=app.models.Admin", promote)
	}
}

func TestJavaAdapter_Scan_InterfaceDeclaration(t *testing.T) {
	src := `interface Closer {
  void close();
}
`
	res, err := javaAdapter{}.Scan([]byte(src), "Closer.java", "app.io", "app.io")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(res.Types) != 1 || res.Types[0].Kind != "interface" || res.Types[0].QN != "app.io.Closer" {
		t.Fatalf("Types = %+v, want one interface app.io.Closer", res.Types)
	}
}

func TestJavaAdapter_Scan_MethodInvocationCall(t *testing.T) {
	src := `class Service {
  void run() {
    helper();
  }

  void helper() {
  }
}
`
	res, err := javaAdapter{}.Scan([]byte(src), "Service.java", "app", "app")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	var found bool
	for _, c := range res.Calls {
		if c.CallerQN == "app.Service.run" && c.CalleeName == "helper" {
			found = true
		}
	}
	if !found {
		t.Errorf("Calls = %+v, want a call from app.Service.run to helper", res.Calls)
	}
}

func TestJavaAdapter_Scan_ObjectCreationAssignment(t *testing.T) {
	src := `class Factory {
  void build() {
    User u = new User();
  }
}
`
	res, err := javaAdapter{}.Scan([]byte(src), "Factory.java", "app", "app")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	assignments := res.Assignments["app.Factory.build"]
	var found bool
	for _, a := range assignments {
		if a.Target == "u" && a.Constructed == "User" {
			found = true
		}
	}
	if !found {
		t.Errorf("Assignments[app.Factory.build] = %+v, want target u constructed via User", assignments)
	}
}

func TestJavaAdapter_Scan_Imports(t *testing.T) {
	src := `import app.models.User;
import app.utils.*;

class Main {
}
`
	res, err := javaAdapter{}.Scan([]byte(src), "Main.java", "app", "app")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	var plain, wildcard bool
	for _, imp := range res.Imports {
		if imp.Path == "app.models.User" {
			plain = true
		}
		if imp.Wildcard && imp.FromPackage == "app.utils" {
			wildcard = true
		}
	}
	if !plain {
		t.Error("expected a plain import of app.models.User")
	}
	if !wildcard {
		t.Error("expected a wildcard import of app.utils.*")
	}
}

func TestJavaAdapter_Scan_ParamAnnotations(t *testing.T) {
	src := `class Service {
  void run(String name, int count) {
  }
}
`
	res, err := javaAdapter{}.Scan([]byte(src), "Service.java", "app", "app")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	annotations := res.ParamAnnotations["app.Service.run"]
	if annotations["name"] != "String" || annotations["count"] != "int" {
		t.Errorf("ParamAnnotations[app.Service.run] = %v, want name=String count=int", annotations)
	}
}
