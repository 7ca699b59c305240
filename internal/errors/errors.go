// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors carries the user-facing failures of the jfacts CLI and the
// exit codes they map to.
//
// A UserError says what failed, why, and what to do about it:
//
//	return errors.NewOutputError(
//	    "Cannot write facts",
//	    "The output file triples.nt is not writable",
//	    "Check permissions or pass a different --output",
//	    err,
//	)
//
// Commands hand failures to Fatal, which prints them as text or JSON and
// exits with the matching code:
//
//	Error: Cannot write facts
//	Cause: The output file triples.nt is not writable
//	Fix:   Check permissions or pass a different --output
//
// Exit codes 1 to 6 are configuration, output, loading, input, permission
// and lookup failures. ExitPartial (7) marks an extraction that finished
// while some packages or archives failed; the facts of everything else were
// written. ExitInternal (10) is a bug.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes.
const (
	ExitSuccess    = 0
	ExitConfig     = 1
	ExitOutput     = 2
	ExitLoad       = 3
	ExitInput      = 4
	ExitPermission = 5
	ExitNotFound   = 6
	ExitPartial    = 7
	ExitInternal   = 10
)

var kinds = map[int]string{
	ExitSuccess:    "ok",
	ExitConfig:     "config",
	ExitOutput:     "output",
	ExitLoad:       "load",
	ExitInput:      "input",
	ExitPermission: "permission",
	ExitNotFound:   "not_found",
	ExitPartial:    "partial",
	ExitInternal:   "internal",
}

// Kind names an exit code for machine readers. Unknown codes are "internal".
func Kind(code int) string {
	if k, ok := kinds[code]; ok {
		return k
	}
	return kinds[ExitInternal]
}

// UserError is a failure explained to the person running jfacts.
type UserError struct {
	Message  string // what failed
	Cause    string // why, when known
	Fix      string // the next step, when there is one
	ExitCode int
	Err      error
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error { return e.Err }

// NewConfigError reports a missing or invalid .jfacts/project.yaml.
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitConfig, Err: err}
}

// NewOutputError reports a fact file that cannot be created, replaced or
// flushed. A sink failure always stops the run.
func NewOutputError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitOutput, Err: err}
}

// NewLoadError reports sources, catalogs or jars that could not be read.
func NewLoadError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitLoad, Err: err}
}

// NewInputError reports bad flags, arguments or limits.
func NewInputError(msg, cause, fix string) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInput}
}

func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitPermission, Err: err}
}

func NewNotFoundError(msg, cause, fix string) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitNotFound}
}

// NewPartialError reports a run whose output is usable but incomplete:
// failed packages or archives, or an interrupted extraction. err may be nil.
func NewPartialError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitPartial, Err: err}
}

// NewInternalError reports a bug.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInternal, Err: err}
}

// ExitCode returns the code a process failing with err exits with.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ue *UserError
	if stderrors.As(err, &ue) {
		return ue.ExitCode
	}
	return ExitInternal
}

// Format renders the error as labelled lines, colored unless noColor is set
// or NO_COLOR is in the environment. Empty sections are left out.
func (e *UserError) Format(noColor bool) string {
	plain := noColor || os.Getenv("NO_COLOR") != ""
	sections := []struct {
		label string
		text  string
		attrs []color.Attribute
	}{
		{"Error: ", e.Message, []color.Attribute{color.FgRed, color.Bold}},
		{"Cause: ", e.Cause, []color.Attribute{color.FgYellow}},
		{"Fix:   ", e.Fix, []color.Attribute{color.FgGreen}},
	}
	var sb strings.Builder
	for i, sec := range sections {
		if i > 0 && sec.text == "" {
			continue
		}
		c := color.New(sec.attrs...)
		if plain {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
		sb.WriteString(c.Sprint(sec.label))
		sb.WriteString(sec.text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ErrorJSON is the --json rendering of a failure.
type ErrorJSON struct {
	Error    string `json:"error"`
	Kind     string `json:"kind"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Kind:     Kind(e.ExitCode),
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// Report writes err to w, as JSON when jsonOutput is set, and returns the
// exit code for it. Errors that are not UserErrors are reported as internal.
func Report(w io.Writer, err error, jsonOutput, noColor bool) int {
	if err == nil {
		return ExitSuccess
	}
	var ue *UserError
	if !stderrors.As(err, &ue) {
		ue = NewInternalError(err.Error(), "", "", err)
	}
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(ue.ToJSON()); encErr != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	} else {
		fmt.Fprint(w, ue.Format(noColor))
	}
	return ue.ExitCode
}

// Fatal reports err on stderr and exits. It returns only when err is nil.
func Fatal(err error, jsonOutput, noColor bool) {
	if err == nil {
		return
	}
	os.Exit(Report(os.Stderr, err, jsonOutput, noColor))
}
