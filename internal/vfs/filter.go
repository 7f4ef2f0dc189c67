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

package vfs

import (
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"resourcefm/internal/common"
)

// HiddenFilter hides tree entries matching gitignore-style patterns from
// list and tree output. Hidden entries stay addressable by path.
type HiddenFilter struct {
	matcher *ignore.GitIgnore
}

// NewHiddenFilter compiles patterns. Blank lines and comments are ignored
// the way a .gitignore file treats them. It returns nil when nothing is
// hidden; a nil filter hides nothing.
func NewHiddenFilter(patterns []string) *HiddenFilter {
	var lines []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		lines = append(lines, p)
	}
	if len(lines) == 0 {
		return nil
	}
	return &HiddenFilter{matcher: ignore.CompileIgnoreLines(lines...)}
}

// Hidden reports whether the entry at canonical path p is hidden.
func (f *HiddenFilter) Hidden(p string, isDir bool) bool {
	if f == nil {
		return false
	}
	p = common.NormalizePath(p)
	if p == "" {
		return false
	}
	if isDir && f.matcher.MatchesPath(p+"/") {
		return true
	}
	return f.matcher.MatchesPath(p)
}
