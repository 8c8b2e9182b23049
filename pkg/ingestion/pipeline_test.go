// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"context"
	"testing"
)

func TestPipeline_Run_EndToEnd(t *testing.T) {
	p := NewPipeline(DefaultConfig().ResolverConfig(), nil)

	files := []SourceFile{
		{
			Path:      "base.go",
			ModuleQN:  "app.models",
			PackageQN: "app.models",
			Content: []byte(`package models

type Base struct{}

func (b *Base) Touch() {}
`),
		},
		{
			Path:      "admin.go",
			ModuleQN:  "app.models",
			PackageQN: "app.models",
			Content: []byte(`package models

type Admin struct {
	Base
}

func (a *Admin) Promote() {
	touch()
}

func touch() {}
`),
		},
	}

	result, err := p.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Files) != 2 {
		t.Fatalf("Files = %d, want 2", len(result.Files))
	}
	if result.ScannerStats.FilesScanned != 2 || result.ScannerStats.ParseErrors != 0 {
		t.Fatalf("ScannerStats = %+v, want 2 scanned, 0 errors", result.ScannerStats)
	}

	var hasBase, hasAdmin bool
	for _, ty := range result.Types {
		switch ty.QN {
		case "app.models.Base":
			hasBase = true
		case "app.models.Admin":
			hasAdmin = true
		}
	}
	if !hasBase || !hasAdmin {
		t.Fatalf("Types = %+v, want Base and Admin", result.Types)
	}

	var foundInherit bool
	for _, e := range result.Inherits {
		if e.ClassQN == "app.models.Admin" && e.ParentQN == "app.models.Base" {
			foundInherit = true
		}
	}
	if !foundInherit {
		t.Fatalf("Inherits = %+v, want Admin -> Base (resolved to its full QN)", result.Inherits)
	}

	var foundCall bool
	for _, e := range result.Calls {
		if e.CallerQN == "app.models.Admin.Promote" && e.CalleeQN == "app.models.touch" {
			foundCall = true
		}
	}
	if !foundCall {
		t.Fatalf("Calls = %+v, want Admin.Promote -> app.models.touch resolved via the same-module shortcut", result.Calls)
	}
}

func TestPipeline_Run_DeterministicAcrossReruns(t *testing.T) {
	files := []SourceFile{
		{
			Path:      "util.go",
			ModuleQN:  "app.util",
			PackageQN: "app.util",
			Content: []byte(`package util

func Trim(s string) string { return s }
`),
		},
		{
			Path:      "main.go",
			ModuleQN:  "app.main",
			PackageQN: "app.main",
			Content: []byte(`package main

import "app.util"

func run() {
	util.Trim("x")
}
`),
		},
	}

	run := func() *PipelineResult {
		p := NewPipeline(DefaultConfig().ResolverConfig(), nil)
		res, err := p.Run(context.Background(), files)
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		return res
	}

	first := run()
	second := run()

	if len(first.Calls) != len(second.Calls) {
		t.Fatalf("Calls count differs across reruns: %d vs %d", len(first.Calls), len(second.Calls))
	}
	for i := range first.Calls {
		if first.Calls[i] != second.Calls[i] {
			t.Errorf("Calls[%d] differs across reruns: %+v vs %+v", i, first.Calls[i], second.Calls[i])
		}
	}
}

func TestPipeline_Run_ImplementsStructuralMatch(t *testing.T) {
	p := NewPipeline(DefaultConfig().ResolverConfig(), nil)

	files := []SourceFile{
		{
			Path:      "iface.go",
			ModuleQN:  "app.io",
			PackageQN: "app.io",
			Content: []byte(`package io

type Closer interface {
	Close() error
}
`),
		},
		{
			Path:      "file.go",
			ModuleQN:  "app.io",
			PackageQN: "app.io",
			Content: []byte(`package io

type File struct{}

func (f *File) Close() error { return nil }
`),
		},
	}

	result, err := p.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var found bool
	for _, e := range result.Implements {
		if e.TypeQN == "app.io.File" && e.InterfaceQN == "app.io.Closer" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Implements = %+v, want File to structurally implement Closer", result.Implements)
	}
}
