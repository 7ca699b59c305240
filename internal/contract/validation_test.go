// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlushThreshold(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"unset", "", DefaultFlushThreshold},
		{"override", "500", 500},
		{"not a number", "many", DefaultFlushThreshold},
		{"negative", "-3", DefaultFlushThreshold},
		{"zero", "0", DefaultFlushThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvFlushThreshold, tt.env)
			assert.Equal(t, tt.want, FlushThreshold())
		})
	}
}

func TestRegisterCapacity(t *testing.T) {
	t.Setenv(EnvRegisterCapacity, "")
	assert.Equal(t, DefaultRegisterCapacity, RegisterCapacity())

	t.Setenv(EnvRegisterCapacity, "64")
	assert.Equal(t, 64, RegisterCapacity())
}

func TestValidateLimits(t *testing.T) {
	tests := []struct {
		name     string
		flush    int
		capacity int
		ok       bool
	}{
		{"defaults", 0, 0, true},
		{"explicit", 100, 1024, true},
		{"negative threshold", -1, 0, false},
		{"negative capacity", 0, -1, false},
		{"capacity too small", 0, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateLimits(tt.flush, tt.capacity)
			assert.Equal(t, tt.ok, res.OK)
			if !tt.ok {
				assert.NotEmpty(t, res.Message)
			}
		})
	}
}
