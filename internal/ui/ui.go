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

// Package ui centralizes terminal output formatting for the CLI: color
// only applies when stdout is a real terminal, so piped/CI output stays
// plain.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

var (
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed)
	Cyan   = color.New(color.FgCyan)
	Dim    = color.New(color.Faint)
)

func init() {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// InitColors applies an explicit --no-color override on top of the
// terminal-detection default set by init().
func InitColors(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

func Header(title string) {
	fmt.Println()
	_, _ = Cyan.Add(color.Bold).Println(title)
	_, _ = Dim.Println(dashes(len(title)))
}

func SubHeader(title string) {
	fmt.Println()
	_, _ = Cyan.Println(title)
}

func Label(text string) string {
	return color.New(color.Bold).Sprint(text)
}

func DimText(text string) string {
	return Dim.Sprint(text)
}

func CountText(n int) string {
	return color.New(color.Bold).Sprintf("%d", n)
}

func Info(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

func Successf(format string, args ...any) {
	_, _ = Green.Printf(format+"\n", args...)
}

func Warningf(format string, args ...any) {
	_, _ = Yellow.Printf("warning: "+format+"\n", args...)
}

// NewProgressBar returns a terminal progress bar, or a no-op bar when
// stdout isn't a terminal or color.NoColor has been forced (JSON/quiet
// modes shouldn't have a bar corrupting their output).
func NewProgressBar(total int64, description string) *progressbar.ProgressBar {
	if color.NoColor {
		return progressbar.DefaultSilent(total, description)
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func dashes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}
