// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kraklabs/jfacts/pkg/extraction"
	"github.com/kraklabs/jfacts/pkg/facts"
)

const (
	// DefaultFlushThreshold is the number of emits buffered before the sink
	// appends its window to the output file.
	DefaultFlushThreshold = facts.DefaultThreshold

	// DefaultRegisterCapacity bounds the visited register of followed
	// types. The register is cleared once half of it is used.
	DefaultRegisterCapacity = extraction.DefaultRegisterCapacity

	// MinRegisterCapacity keeps the clear-at-half window useful.
	MinRegisterCapacity = 2

	// EnvFlushThreshold overrides DefaultFlushThreshold.
	EnvFlushThreshold = "JFACTS_FLUSH_THRESHOLD"

	// EnvRegisterCapacity overrides DefaultRegisterCapacity.
	EnvRegisterCapacity = "JFACTS_REGISTER_CAPACITY"
)

// FlushThreshold returns the effective sink flush threshold.
// Controlled via env JFACTS_FLUSH_THRESHOLD; falls back to DefaultFlushThreshold.
func FlushThreshold() int {
	return envInt(EnvFlushThreshold, DefaultFlushThreshold)
}

// RegisterCapacity returns the effective visited-register capacity.
// Controlled via env JFACTS_REGISTER_CAPACITY; falls back to DefaultRegisterCapacity.
func RegisterCapacity() int {
	return envInt(EnvRegisterCapacity, DefaultRegisterCapacity)
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidateLimits checks configured limits before a run. Zero means the
// default and is always accepted.
func ValidateLimits(flushThreshold, registerCapacity int) *ValidationResult {
	switch {
	case flushThreshold < 0:
		return &ValidationResult{Message: fmt.Sprintf("flush threshold must be positive, got %d", flushThreshold)}
	case registerCapacity < 0:
		return &ValidationResult{Message: fmt.Sprintf("register capacity must be positive, got %d", registerCapacity)}
	case registerCapacity > 0 && registerCapacity < MinRegisterCapacity:
		return &ValidationResult{Message: fmt.Sprintf("register capacity must be at least %d, got %d", MinRegisterCapacity, registerCapacity)}
	}
	return &ValidationResult{OK: true}
}
