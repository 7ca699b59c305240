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

// Package contract provides run limits and their environment overrides.
//
// # Flush Threshold
//
// The fact sink buffers emitted triples and appends them to the output file
// once the threshold is passed:
//
//	// Default is 10000 emits
//	threshold := contract.FlushThreshold()
//
// # Register Capacity
//
// The visited register remembers which referenced types were already
// expanded. It is cleared once half of the capacity is used:
//
//	capacity := contract.RegisterCapacity()
//
//	// Validate configured values before a run
//	result := contract.ValidateLimits(cfg.FlushThreshold, cfg.RegisterCapacity)
//	if !result.OK {
//	    log.Printf("Validation failed: %s", result.Message)
//	}
//
// # Configuration via Environment
//
// Both limits can be adjusted through the environment, which takes
// precedence over the compiled defaults:
//
//	export JFACTS_FLUSH_THRESHOLD=50000
//	export JFACTS_REGISTER_CAPACITY=8192
//
// If a variable is not set or not a positive integer, the default is used.
package contract
