// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"context"
	"testing"
)

func goSourceFile(path, pkg, src string) SourceFile {
	return SourceFile{Path: path, Content: []byte(src), ModuleQN: pkg, PackageQN: pkg}
}

func TestScanner_Scan_Empty(t *testing.T) {
	s := NewScanner(NewRegistry(), NewInheritanceTable(), nil)
	outcomes, stats := s.Scan(context.Background(), nil, 4)
	if outcomes != nil {
		t.Errorf("outcomes = %v, want nil for no input files", outcomes)
	}
	if stats.FilesScanned != 0 {
		t.Errorf("FilesScanned = %d, want 0", stats.FilesScanned)
	}
}

func TestScanner_Scan_PopulatesRegistryAndInheritance(t *testing.T) {
	registry := NewRegistry()
	inheritance := NewInheritanceTable()
	s := NewScanner(registry, inheritance, nil)

	files := []SourceFile{
		goSourceFile("base.go", "app", "package app\n\ntype Base struct{}\n"),
		goSourceFile("admin.go", "app", "package app\n\ntype Admin struct {\n\tBase\n}\n"),
	}

	outcomes, stats := s.Scan(context.Background(), files, 4)
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}
	if stats.FilesScanned != 2 || stats.ParseErrors != 0 {
		t.Fatalf("stats = %+v, want 2 scanned, 0 errors", stats)
	}

	if _, ok := registry.Lookup("app.Base"); !ok {
		t.Error("expected app.Base to be registered")
	}
	if _, ok := registry.Lookup("app.Admin"); !ok {
		t.Error("expected app.Admin to be registered")
	}

	parents := inheritance.Parents("app.Admin")
	if len(parents) != 1 || parents[0] != "Base" {
		t.Errorf("Parents(app.Admin) = %v, want [Base]", parents)
	}
}

func TestScanner_Scan_UnknownExtensionSkippedSilently(t *testing.T) {
	s := NewScanner(NewRegistry(), NewInheritanceTable(), nil)
	files := []SourceFile{
		{Path: "README.md", Content: []byte("# hello"), ModuleQN: "app", PackageQN: "app"},
	}
	outcomes, stats := s.Scan(context.Background(), files, 4)
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	if outcomes[0].Err != nil {
		t.Errorf("expected no error for an unrecognized extension, got %v", outcomes[0].Err)
	}
	if outcomes[0].Result != nil {
		t.Errorf("expected a nil Result for an unrecognized extension, got %+v", outcomes[0].Result)
	}
	if stats.FilesScanned != 1 {
		t.Errorf("FilesScanned = %d, want 1", stats.FilesScanned)
	}
}

func TestScanner_Scan_DuplicateSymbolDoesNotAbort(t *testing.T) {
	registry := NewRegistry()
	s := NewScanner(registry, NewInheritanceTable(), nil)

	files := []SourceFile{
		goSourceFile("a.go", "app", "package app\n\nfunc F() {}\n"),
		goSourceFile("b.go", "app", "package app\n\nfunc F() {}\n"),
	}

	outcomes, stats := s.Scan(context.Background(), files, 4)
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}
	// Duplicate symbol registration is logged, not surfaced as a ScanOutcome error.
	for _, o := range outcomes {
		if o.Err != nil {
			t.Errorf("unexpected outcome error: %v", o.Err)
		}
	}
	if stats.ParseErrors != 0 {
		t.Errorf("ParseErrors = %d, want 0 (duplicate symbols are not parse errors)", stats.ParseErrors)
	}
	if kind, ok := registry.Lookup("app.F"); !ok || kind != KindFunction {
		t.Errorf("Lookup(app.F) = (%v, %v), want (function, true)", kind, ok)
	}
}

func TestScanner_Scan_SequentialVsParallelDispatch(t *testing.T) {
	// Fewer than 8 files always takes the sequential path regardless of
	// numWorkers; this exercises both dispatch branches without asserting
	// on internal scheduling, only on externally observable results.
	small := make([]SourceFile, 3)
	for i := range small {
		small[i] = goSourceFile("f.go", "app", "package app\n\nfunc F() {}\n")
	}
	sSeq := NewScanner(NewRegistry(), NewInheritanceTable(), nil)
	outcomesSeq, statsSeq := sSeq.Scan(context.Background(), small, 4)
	if len(outcomesSeq) != 3 || statsSeq.FilesScanned != 3 {
		t.Fatalf("sequential path: outcomes=%d stats=%+v, want 3/3", len(outcomesSeq), statsSeq)
	}

	large := make([]SourceFile, 10)
	for i := range large {
		large[i] = goSourceFile("f.go", "app", "package app\n\nfunc F() {}\n")
	}
	sPar := NewScanner(NewRegistry(), NewInheritanceTable(), nil)
	outcomesPar, statsPar := sPar.Scan(context.Background(), large, 4)
	if len(outcomesPar) != 10 || statsPar.FilesScanned != 10 {
		t.Fatalf("parallel path: outcomes=%d stats=%+v, want 10/10", len(outcomesPar), statsPar)
	}
}
