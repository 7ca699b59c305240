// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package errors

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_ExitCodes(t *testing.T) {
	cause := os.ErrPermission
	tests := []struct {
		name string
		err  *UserError
		code int
		kind string
	}{
		{"config", NewConfigError("Cannot load jfacts configuration", "", "", cause), ExitConfig, "config"},
		{"output", NewOutputError("Cannot write facts", "", "", cause), ExitOutput, "output"},
		{"load", NewLoadError("Cannot open archive", "", "", cause), ExitLoad, "load"},
		{"input", NewInputError("Invalid limits", "", ""), ExitInput, "input"},
		{"permission", NewPermissionError("Reset failed", "", "", cause), ExitPermission, "permission"},
		{"not found", NewNotFoundError("No run summary", "", ""), ExitNotFound, "not_found"},
		{"partial", NewPartialError("Extraction finished with failures", "", "", nil), ExitPartial, "partial"},
		{"internal", NewInternalError("Extraction failed", "", "", cause), ExitInternal, "internal"},
	}
	seen := make(map[int]string)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.ExitCode)
			assert.Equal(t, tt.code, ExitCode(tt.err))
			assert.Equal(t, tt.kind, Kind(tt.code))
		})
		prev, dup := seen[tt.code]
		assert.False(t, dup, "%s and %s share exit code %d", prev, tt.name, tt.code)
		seen[tt.code] = tt.name
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitInternal, ExitCode(stderrors.New("boom")))
	assert.Equal(t, ExitPartial, ExitCode(fmt.Errorf("extract: %w",
		NewPartialError("Extraction interrupted", "", "", context.Canceled))))
	assert.Equal(t, "internal", Kind(42))
}

func TestUserError_Chain(t *testing.T) {
	interrupted := NewPartialError("Extraction interrupted", "The run was cancelled", "Rerun jfacts extract", context.Canceled)
	assert.Equal(t, "Extraction interrupted: context canceled", interrupted.Error())
	assert.ErrorIs(t, interrupted, context.Canceled)

	wrapped := fmt.Errorf("finish: %w", interrupted)
	var ue *UserError
	require.True(t, stderrors.As(wrapped, &ue))
	assert.Same(t, interrupted, ue)

	failed := NewPartialError("Extraction finished with failures", "1 packages and 0 archives failed", "", nil)
	assert.Equal(t, "Extraction finished with failures", failed.Error())
	assert.NoError(t, failed.Unwrap())
}

func TestUserError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *UserError
		want string
	}{
		{
			name: "all sections",
			err:  NewPartialError(
				"Extraction finished with failures",
				"2 packages and 1 archives failed",
				"Run 'jfacts status' for the list and rerun with --debug",
				nil,
			),
			want: "Error: Extraction finished with failures\n" +
				"Cause: 2 packages and 1 archives failed\n" +
				"Fix:   Run 'jfacts status' for the list and rerun with --debug\n",
		},
		{
			name: "empty cause and fix are left out",
			err:  NewInputError("Invalid limits", "", ""),
			want: "Error: Invalid limits\n",
		},
		{
			name: "empty message keeps the label",
			err:  NewInputError("", "", "Pass --root"),
			want: "Error: \nFix:   Pass --root\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Format(true))
		})
	}
}

func TestUserError_FormatColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	err := NewOutputError("Cannot write facts", "The disk is full", "", nil)

	colored := err.Format(false)
	assert.Contains(t, colored, "\x1b[")
	assert.Contains(t, colored, "Cannot write facts")

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, "Error: Cannot write facts\nCause: The disk is full\n", err.Format(false))
}

func TestUserError_ToJSON(t *testing.T) {
	err := NewPartialError("Extraction finished with failures", "1 packages and 0 archives failed", "", nil)
	data, mErr := json.Marshal(err.ToJSON())
	require.NoError(t, mErr)
	assert.JSONEq(t, `{
		"error": "Extraction finished with failures",
		"kind": "partial",
		"cause": "1 packages and 0 archives failed",
		"exit_code": 7
	}`, string(data))
}

func TestReport(t *testing.T) {
	partial := NewPartialError("Extraction interrupted", "The run was cancelled", "Rerun jfacts extract", context.Canceled)
	tests := []struct {
		name     string
		err      error
		json     bool
		wantCode int
		want     string
	}{
		{
			name:     "text",
			err:      partial,
			wantCode: ExitPartial,
			want:     "Error: Extraction interrupted\nCause: The run was cancelled\nFix:   Rerun jfacts extract\n",
		},
		{
			name:     "plain error is internal",
			err:      stderrors.New("boom"),
			wantCode: ExitInternal,
			want:     "Error: boom\n",
		},
		{
			name:     "json",
			err:      fmt.Errorf("extract: %w", partial),
			json:     true,
			wantCode: ExitPartial,
			want:     `{
  "error": "Extraction interrupted",
  "kind": "partial",
  "cause": "The run was cancelled",
  "fix": "Rerun jfacts extract",
  "exit_code": 7
}
`,
		},
		{
			name:     "json plain error",
			err:      stderrors.New("boom"),
			json:     true,
			wantCode: ExitInternal,
			want:     "{\n  \"error\": \"boom\",\n  \"kind\": \"internal\",\n  \"exit_code\": 10\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.wantCode, Report(&buf, tt.err, tt.json, true))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	t.Run("nil writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Equal(t, ExitSuccess, Report(&buf, nil, false, true))
		assert.Zero(t, buf.Len())
		Fatal(nil, false, true)
	})
}
