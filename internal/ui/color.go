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

// Package ui provides terminal output helpers for the jfacts CLI.
//
// Colors respect the --no-color flag and the NO_COLOR environment variable,
// and are disabled when the output is not a TTY.
//
//   - Red: errors and failed packages
//   - Yellow: warnings and skipped input
//   - Green: completed runs
//   - Cyan: counts and neutral messages
//   - Bold: headers and labels
//   - Dim: paths
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors configures global color output. Call it once after flag
// parsing. Color stays off when stdout is not a terminal.
func InitColors(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Printer writes status lines to one writer.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Stdout is the printer used by the package-level helpers.
var Stdout = NewPrinter(os.Stdout)

func (p *Printer) line(c *color.Color, prefix, msg string) {
	_, _ = c.Fprintln(p.w, prefix+msg)
}

// Success prints "✓ msg" in green.
func (p *Printer) Success(msg string) { p.line(Green, "✓ ", msg) }

// Warning prints "⚠ msg" in yellow.
func (p *Printer) Warning(msg string) { p.line(Yellow, "⚠ ", msg) }

// Error prints "✗ msg" in red.
func (p *Printer) Error(msg string) { p.line(Red, "✗ ", msg) }

// Info prints "ℹ msg" in cyan.
func (p *Printer) Info(msg string) { p.line(Cyan, "ℹ ", msg) }

// Header prints text in bold, underlined with '='.
func (p *Printer) Header(text string) {
	_, _ = Bold.Fprintln(p.w, text)
	_, _ = fmt.Fprintln(p.w, strings.Repeat("=", len([]rune(text))))
}

// SubHeader prints text in bold.
func (p *Printer) SubHeader(text string) {
	_, _ = Bold.Fprintln(p.w, text)
}

// Printf writes uncolored text.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

// Field prints an indented "label value" row with the label padded to width.
func (p *Printer) Field(width int, label string, value any) {
	pad := width - len([]rune(label))
	if pad < 1 {
		pad = 1
	}
	_, _ = fmt.Fprintf(p.w, "  %s%s%v\n", Label(label), strings.Repeat(" ", pad), value)
}

func Success(msg string)                  { Stdout.Success(msg) }
func Successf(format string, args ...any) { Stdout.Success(fmt.Sprintf(format, args...)) }
func Warning(msg string)                  { Stdout.Warning(msg) }
func Warningf(format string, args ...any) { Stdout.Warning(fmt.Sprintf(format, args...)) }
func Error(msg string)                    { Stdout.Error(msg) }
func Errorf(format string, args ...any)   { Stdout.Error(fmt.Sprintf(format, args...)) }
func Info(msg string)                     { Stdout.Info(msg) }
func Infof(format string, args ...any)    { Stdout.Info(fmt.Sprintf(format, args...)) }
func Header(text string)                  { Stdout.Header(text) }
func SubHeader(text string)               { Stdout.SubHeader(text) }

// Label returns text in bold.
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns text dimmed, for paths.
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText returns a count in cyan.
func CountText(count int) string {
	return Cyan.Sprint(count)
}

// FailedText returns a failure count, red when non-zero.
func FailedText(count int) string {
	if count == 0 {
		return fmt.Sprint(count)
	}
	return Red.Sprint(count)
}

// DurationText rounds d for display: milliseconds under a second, tenths of
// a second otherwise.
func DurationText(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
