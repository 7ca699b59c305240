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

// Package extraction walks a loaded Java program and emits its facts.
//
// Every program element is wrapped in an Entity. An entity knows its parent,
// computes its relative URI once, and emits its own facts when extracted.
// Owned children (members, parameters, statements) are extracted directly;
// referenced elements (used types, invoked methods, read fields) are
// followed, which expands them at most once per register window unless
// their source is part of the program, in which case their own package
// extracts them.
//
// # Session state
//
// All cross-package state lives on a Session: the visited register that
// gates follows, the type-variable memo, the classpath and the output
// emitter. Both caches are bounded and clear themselves once half full.
//
// # Orchestration
//
// Extractor drives a Session over a model.Program package by package, then
// over the project tree and any jar archives:
//
//	ex := extraction.NewExtractor(extraction.Config{Output: sink, Options: opts})
//	if err := ex.ExtractProgram(ctx, prog); err != nil { ... }
//	ex.AttachProject(root)
//	ex.ProcessArchive(ctx, jar)
package extraction
