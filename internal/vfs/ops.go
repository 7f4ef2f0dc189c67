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
	"fmt"
	"strings"
)

// Op enumerates the gateway operations.
type Op int

const (
	OpUnknown Op = iota
	OpList
	OpInspect
	OpCreateFolder
	OpCreateFile
	OpUpload
	OpRename
	OpMove
	OpDelete
	OpRead
	OpWrite
	OpDownload
	OpTree
	OpDataTree
)

// modeNames holds the wire name of each operation.
var modeNames = map[Op]string{
	OpList:         "getfolder",
	OpInspect:      "getinfo",
	OpCreateFolder: "addfolder",
	OpCreateFile:   "addnew",
	OpUpload:       "add",
	OpRename:       "rename",
	OpMove:         "move",
	OpDelete:       "delete",
	OpRead:         "getfile",
	OpWrite:        "savefile",
	OpDownload:     "download",
	OpTree:         "filetree",
	OpDataTree:     "datatree",
}

var opsByMode = func() map[string]Op {
	m := make(map[string]Op, len(modeNames))
	for op, name := range modeNames {
		m[name] = op
	}
	return m
}()

// ParseOp maps a mode name to its Op. Matching is case-insensitive.
func ParseOp(mode string) (Op, error) {
	if op, ok := opsByMode[strings.ToLower(strings.TrimSpace(mode))]; ok {
		return op, nil
	}
	return OpUnknown, fmt.Errorf("unknown mode %q", mode)
}

// String returns the wire name.
func (op Op) String() string {
	if s, ok := modeNames[op]; ok {
		return s
	}
	return "unknown"
}

// Ops returns every known operation in declaration order.
func Ops() []Op {
	ops := make([]Op, 0, len(modeNames))
	for op := OpList; op <= OpDataTree; op++ {
		ops = append(ops, op)
	}
	return ops
}

// Mutates reports whether op can change the tree.
func (op Op) Mutates() bool {
	switch op {
	case OpCreateFolder, OpCreateFile, OpUpload, OpRename, OpMove, OpDelete, OpWrite:
		return true
	}
	return false
}

// DefaultProtected lists the operations that require authorization unless
// configured otherwise: every operation that can change the tree.
func DefaultProtected() []Op {
	var ops []Op
	for _, op := range Ops() {
		if op.Mutates() {
			ops = append(ops, op)
		}
	}
	return ops
}

// ParseOps parses a list of mode names.
func ParseOps(modes []string) ([]Op, error) {
	ops := make([]Op, 0, len(modes))
	for _, m := range modes {
		op, err := ParseOp(m)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}
