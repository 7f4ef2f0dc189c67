// Copyright 2024 ResourceFM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"strings"
)

// ReservedChars are the characters a node name must not contain.
const ReservedChars = `\/:*?"<>|`

// NormalizePath converts a user-supplied path to canonical form.
// One leading slash and any trailing slashes are removed. Internal
// empty segments and dot segments are kept; callers reject them.
func NormalizePath(path string) string {
	path = strings.TrimPrefix(path, "/")
	return strings.TrimRight(path, "/")
}

// DisplayPath renders a canonical path with a leading slash.
func DisplayPath(path string) string {
	return "/" + strings.TrimRight(path, "/")
}

// DisplayDirPath renders a directory path the way listings show it.
func DisplayDirPath(path string) string {
	display := DisplayPath(path)
	if display == "/" {
		return display
	}
	return display + "/"
}

// SplitPath splits a path into its components
func SplitPath(path string) []string {
	path = NormalizePath(path)
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// JoinPath joins canonical path components, skipping empty ones
func JoinPath(parts ...string) string {
	var kept []string
	for _, p := range parts {
		p = NormalizePath(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// ParentPath returns the parent directory of a path
func ParentPath(path string) string {
	path = NormalizePath(path)
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// BaseName returns the base name of a path
func BaseName(path string) string {
	path = NormalizePath(path)
	return path[strings.LastIndex(path, "/")+1:]
}

// Extension returns the lowercase extension of a name without the dot.
// Leading dots do not start an extension, so ".profile" has none.
func Extension(name string) string {
	name = BaseName(name)
	trimmed := strings.TrimLeft(name, ".")
	idx := strings.LastIndex(trimmed, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(trimmed[idx+1:])
}

// IsDotSegment reports whether a path component is "." or "..".
func IsDotSegment(part string) bool {
	return part == "." || part == ".."
}

// HasDotSegment reports whether any component of a path is "." or "..".
func HasDotSegment(path string) bool {
	for _, part := range SplitPath(path) {
		if IsDotSegment(part) {
			return true
		}
	}
	return false
}

// ValidateName checks a proposed child name.
func ValidateName(name string) error {
	if name == "" || IsDotSegment(name) {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, ReservedChars) {
		return ErrInvalidName
	}
	return nil
}
