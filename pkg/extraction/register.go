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

package extraction

// DefaultRegisterCapacity is the nominal size of the visited register.
const DefaultRegisterCapacity = 2048

// Register is the bounded visited-set that gates follows. Every insertion
// attempt counts toward its load; once the count passes half the capacity
// the set is dropped and counting restarts, so an entity followed before a
// reset may be expanded again after it.
type Register struct {
	capacity int
	load     int
	count    int
	seen     map[string]struct{}
	resets   int
}

// NewRegister returns a register of the given capacity, or the default one
// when capacity is not positive.
func NewRegister(capacity int) *Register {
	if capacity <= 0 {
		capacity = DefaultRegisterCapacity
	}
	load := capacity / 2
	if load < 1 {
		load = 1
	}
	return &Register{capacity: capacity, load: load, seen: make(map[string]struct{}, load)}
}

// Add records uri and reports whether it was not yet present.
func (r *Register) Add(uri string) bool {
	r.count++
	if r.count > r.load {
		r.count = 0
		r.seen = make(map[string]struct{}, r.load)
		r.resets++
		extMetrics.init()
		extMetrics.registerResets.Inc()
	}
	if _, ok := r.seen[uri]; ok {
		return false
	}
	r.seen[uri] = struct{}{}
	return true
}

// Contains reports whether uri is in the current window.
func (r *Register) Contains(uri string) bool {
	_, ok := r.seen[uri]
	return ok
}

// Len returns the number of URIs currently held.
func (r *Register) Len() int { return len(r.seen) }

// Capacity returns the configured capacity.
func (r *Register) Capacity() int { return r.capacity }

// Resets returns how many times the register has been cleared.
func (r *Register) Resets() int { return r.resets }
