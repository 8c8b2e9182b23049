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

// Package errors distinguishes user-facing errors (bad config, bad
// permissions, bad input) from internal ones, so the CLI can print the
// former as a short message and the latter with enough detail to file a
// bug report. Fatal, user-facing failures surface here; per-file or
// per-symbol problems are logged by the ingestion core and don't abort.
package errors

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Kind classifies why a run stopped.
type Kind string

const (
	KindConfig     Kind = "config"
	KindInput      Kind = "input"
	KindPermission Kind = "permission"
	KindNetwork    Kind = "network"
	KindDatabase   Kind = "database"
	KindInternal   Kind = "internal"
)

// UserError is a fatal error with a Kind, a short message, and optional
// remediation hints shown to the operator.
type UserError struct {
	Kind    Kind
	Message string
	Hints   []string
	Cause   error
}

func (e *UserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Cause }

func newError(kind Kind, message string, cause error, hints ...string) *UserError {
	return &UserError{Kind: kind, Message: message, Cause: cause, Hints: hints}
}

func NewConfigError(message string, cause error, hints ...string) *UserError {
	return newError(KindConfig, message, cause, hints...)
}

func NewInputError(message string, cause error, hints ...string) *UserError {
	return newError(KindInput, message, cause, hints...)
}

func NewPermissionError(message string, cause error, hints ...string) *UserError {
	return newError(KindPermission, message, cause, hints...)
}

func NewNetworkError(message string, cause error, hints ...string) *UserError {
	return newError(KindNetwork, message, cause, hints...)
}

func NewDatabaseError(message string, cause error, hints ...string) *UserError {
	return newError(KindDatabase, message, cause, hints...)
}

func NewInternalError(message string, cause error, hints ...string) *UserError {
	return newError(KindInternal, message, cause, hints...)
}

// FatalError prints err and exits 1. jsonOutput selects a machine-readable
// form for scripted callers instead of the colored human form.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	if jsonOutput {
		fmt.Fprintf(os.Stderr, `{"error": %q}`+"\n", err.Error())
		os.Exit(1)
	}

	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Fprintln(os.Stderr, "error:", err.Error())
	if ue, ok := err.(*UserError); ok {
		for _, hint := range ue.Hints {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
		}
	}
	os.Exit(1)
}
