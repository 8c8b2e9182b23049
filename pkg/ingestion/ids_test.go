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

import "testing"

func TestGenerateFileID_SamePathIsStableAcrossRuns(t *testing.T) {
	path := "project/models/repo.py"

	id1 := GenerateFileID(path)
	id2 := GenerateFileID(path)

	if id1 != id2 {
		t.Errorf("GenerateFileID should be deterministic across pipeline reruns: got %q and %q", id1, id2)
	}
	if !hasPrefix(id1, "file:") {
		t.Errorf("GenerateFileID should start with 'file:': got %q", id1)
	}
}

func TestGenerateFileID_SiblingFilesDontCollide(t *testing.T) {
	id1 := GenerateFileID("project/models/repo.py")
	id2 := GenerateFileID("project/models/user.py")

	if id1 == id2 {
		t.Errorf("distinct files in the same package should not share an ID: both got %q", id1)
	}
}

func TestGenerateFileID_NormalizesRelativePathPrefix(t *testing.T) {
	id1 := GenerateFileID("./project/models/repo.py")
	id2 := GenerateFileID("project/models/repo.py")

	if id1 != id2 {
		t.Errorf("a leading ./ should not change the file ID: got %q and %q", id1, id2)
	}
}

func TestGenerateFunctionID_SameDeclarationIsStableAcrossRuns(t *testing.T) {
	id1 := GenerateFunctionID("project/models/repo.py", "find_by_id", 10, 15, 1, 20)
	id2 := GenerateFunctionID("project/models/repo.py", "find_by_id", 10, 15, 1, 20)

	if id1 != id2 {
		t.Errorf("GenerateFunctionID should be deterministic across pipeline reruns: got %q and %q", id1, id2)
	}
	if !hasPrefix(id1, "func:") {
		t.Errorf("GenerateFunctionID should start with 'func:': got %q", id1)
	}
}

func TestGenerateFunctionID_OverloadedNameSameFileDiffersByRange(t *testing.T) {
	// Two methods named "save" on different classes in the same file must
	// not collide just because the name repeats.
	id1 := GenerateFunctionID("project/models/repo.py", "save", 10, 15, 1, 20)
	id2 := GenerateFunctionID("project/models/repo.py", "save", 40, 45, 1, 20)

	if id1 == id2 {
		t.Errorf("two distinct declarations named %q should not share an ID: both got %q", "save", id1)
	}
}

func TestGenerateFunctionID_DifferentNameSameRangeDiffers(t *testing.T) {
	id1 := GenerateFunctionID("project/models/repo.py", "find_by_id", 10, 15, 1, 20)
	id2 := GenerateFunctionID("project/models/repo.py", "find_by_name", 10, 15, 1, 20)

	if id1 == id2 {
		t.Errorf("renaming a declaration should change its ID: both got %q", id1)
	}
}

func TestGenerateFunctionID_ColumnRangeDistinguishesNestedDeclarations(t *testing.T) {
	// Two functions can open on the same line (e.g. a one-liner plus a
	// nested lambda assigned on that line); columns are what keeps them apart.
	id1 := GenerateFunctionID("project/models/repo.py", "handler", 10, 10, 1, 20)
	id2 := GenerateFunctionID("project/models/repo.py", "handler", 10, 10, 25, 40)

	if id1 == id2 {
		t.Errorf("declarations at different columns on the same line should not collide: both got %q", id1)
	}
}

func TestGenerateFunctionID_SignatureRefinementDoesNotChangeID(t *testing.T) {
	// Signature text is deliberately excluded from the ID so that parser
	// improvements to signature extraction don't invalidate prior graph rows.
	id1 := GenerateFunctionID("project/models/repo.py", "find_by_id", 10, 12, 1, 20)
	id2 := GenerateFunctionID("project/models/repo.py", "find_by_id", 10, 12, 1, 20)

	if id1 != id2 {
		t.Errorf("identical ranges should always produce the same ID regardless of signature text: got %q and %q", id1, id2)
	}
}

func TestGenerateTypeID_SameDeclarationIsStableAcrossRuns(t *testing.T) {
	id1 := GenerateTypeID("project/vehicles/car.py", "Car", 5, 40)
	id2 := GenerateTypeID("project/vehicles/car.py", "Car", 5, 40)

	if id1 != id2 {
		t.Errorf("GenerateTypeID should be deterministic across pipeline reruns: got %q and %q", id1, id2)
	}
	if !hasPrefix(id1, "typ:") {
		t.Errorf("GenerateTypeID should start with 'typ:': got %q", id1)
	}
}

func TestGenerateTypeID_SiblingClassesDontCollide(t *testing.T) {
	id1 := GenerateTypeID("project/vehicles/car.py", "Car", 5, 40)
	id2 := GenerateTypeID("project/vehicles/car.py", "Vehicle", 5, 40)

	if id1 == id2 {
		t.Errorf("Car and Vehicle declared at the same range should not share an ID: both got %q", id1)
	}
}

func TestGenerateImportID_SameBindingIsStableAcrossRuns(t *testing.T) {
	id1 := GenerateImportID("project.handlers", "ff", "project.a.b.f")
	id2 := GenerateImportID("project.handlers", "ff", "project.a.b.f")

	if id1 != id2 {
		t.Errorf("GenerateImportID should be deterministic across pipeline reruns: got %q and %q", id1, id2)
	}
	if !hasPrefix(id1, "imp:") {
		t.Errorf("GenerateImportID should start with 'imp:': got %q", id1)
	}
}

func TestGenerateImportID_SameAliasDifferentTargetDiffers(t *testing.T) {
	// "import numpy as np" vs. a later "import other_lib as np" rebinding
	// the same local name in the same module must not collide.
	id1 := GenerateImportID("project.main", "np", "numpy")
	id2 := GenerateImportID("project.main", "np", "other_lib")

	if id1 == id2 {
		t.Errorf("rebinding alias %q to a different target should change the ID: both got %q", "np", id1)
	}
}

// hasPrefix avoids pulling in the strings package for a single check.
func hasPrefix(s, prefix string) bool {
	if len(prefix) > len(s) {
		return false
	}
	return s[:len(prefix)] == prefix
}
