// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package output writes the machine-readable side of the jfacts CLI.
//
// Commands run with --json print their result with JSON and report failures
// with JSONError, which keeps the exit code of a structured error:
//
//	summary, err := store.Load()
//	if err != nil {
//	    output.JSONError(err)
//	    os.Exit(errors.ExitConfig)
//	}
//	_ = output.JSON(summary)
//
// Human-readable output lives in package ui.
package output

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/kraklabs/jfacts/internal/errors"
)

// JSON writes data to stdout, indented by two spaces.
func JSON(data any) error {
	return JSONTo(os.Stdout, data)
}

// JSONTo writes data to w, indented by two spaces.
func JSONTo(w io.Writer, data any) error {
	return encode(w, data, true)
}

// JSONCompactTo writes data to w on a single line.
func JSONCompactTo(w io.Writer, data any) error {
	return encode(w, data, false)
}

// JSONLinesTo writes one compact document per element.
func JSONLinesTo[T any](w io.Writer, items []T) error {
	for _, item := range items {
		if err := encode(w, item, false); err != nil {
			return err
		}
	}
	return nil
}

func encode(w io.Writer, data any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// ErrorJSON is the --json form of a failure.
type ErrorJSON = errors.ErrorJSON

// NewErrorJSON describes err. A UserError anywhere in the chain supplies
// the cause, fix and exit code; anything else is internal.
func NewErrorJSON(err error) ErrorJSON {
	var ue *errors.UserError
	if stderrors.As(err, &ue) {
		return ue.ToJSON()
	}
	return ErrorJSON{Error: err.Error(), Kind: errors.Kind(errors.ExitInternal), ExitCode: errors.ExitInternal}
}

// JSONError writes err to stderr.
func JSONError(err error) error {
	return JSONErrorTo(os.Stderr, err)
}

// JSONErrorTo writes err to w.
func JSONErrorTo(w io.Writer, err error) error {
	if encErr := encode(w, NewErrorJSON(err), true); encErr != nil {
		return fmt.Errorf("JSON error encoding failed: %w", encErr)
	}
	return nil
}
