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

package model

import "strings"

// CleanDoc turns a raw "/** ... */" comment into its text, dropping the
// delimiters and the leading asterisks of each line.
func CleanDoc(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "/**")
	s = strings.TrimPrefix(s, "/*")
	s = strings.TrimSuffix(s, "*/")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		out = append(out, strings.TrimSpace(l))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// DocTag returns the text of the first block tag named tag, e.g. "return".
// For "param" tags, name selects the parameter. Missing tags yield "".
func DocTag(doc, tag, name string) string {
	if doc == "" {
		return ""
	}
	marker := "@" + tag
	var (
		found bool
		text  []string
	)
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "@") {
			if found {
				break
			}
			rest, ok := strings.CutPrefix(line, marker)
			if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
				continue
			}
			rest = strings.TrimSpace(rest)
			if name != "" {
				word, tail, _ := strings.Cut(rest, " ")
				if word != name {
					continue
				}
				rest = strings.TrimSpace(tail)
			}
			found = true
			if rest != "" {
				text = append(text, rest)
			}
			continue
		}
		if found && line != "" {
			text = append(text, line)
		}
	}
	return strings.Join(text, " ")
}

// DocBody returns the description part of doc, before the first block tag.
func DocBody(doc string) string {
	var out []string
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "@") {
			break
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
