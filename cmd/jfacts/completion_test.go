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

package main

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jfacts/internal/errors"
)

func TestWriteCompletion(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "complete -F _jfacts_completion jfacts"},
		{"zsh", "#compdef jfacts"},
		{"fish", "complete -c jfacts"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeCompletion(&buf, []string{tt.shell}))
			assert.Contains(t, buf.String(), tt.want)
			for _, cmd := range []string{"init", "extract", "archive", "status", "reset"} {
				assert.Contains(t, buf.String(), cmd)
			}
		})
	}
}

func TestWriteCompletion_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no shell", nil, "Invalid arguments"},
		{"two shells", []string{"bash", "zsh"}, "Invalid arguments"},
		{"unknown shell", []string{"powershell"}, "Unsupported shell"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := writeCompletion(&buf, tt.args)
			var ue *errors.UserError
			require.True(t, stderrors.As(err, &ue))
			assert.Equal(t, errors.ExitInput, ue.ExitCode)
			assert.Equal(t, tt.want, ue.Message)
			assert.Zero(t, buf.Len())
		})
	}
}
