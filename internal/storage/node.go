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

package storage

import "time"

// RootID is the id of the root directory in every store.
const RootID int64 = 1

// Kind distinguishes directories from files.
type Kind uint8

const (
	KindDir Kind = iota + 1
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// KindFromMode maps POSIX type bits to a Kind.
func KindFromMode(mode uint32) Kind {
	if mode&ModeMask == ModeDir {
		return KindDir
	}
	return KindFile
}

// Node is a single directory or file in a store.
// Width and Height are set for files whose content decodes as an image.
type Node struct {
	ID       int64
	ParentID int64
	Name     string
	Kind     Kind
	Size     int64
	Mtime    time.Time
	Width    int
	Height   int
}

// IsDir returns true if the node is a directory
func (n *Node) IsDir() bool {
	return n.Kind == KindDir
}

// IsFile returns true if the node is a regular file
func (n *Node) IsFile() bool {
	return n.Kind == KindFile
}

// IsRoot returns true for the root directory
func (n *Node) IsRoot() bool {
	return n.ID == RootID
}

// HasDimensions reports whether pixel dimensions are known.
func (n *Node) HasDimensions() bool {
	return n.Width > 0 && n.Height > 0
}

// Stats summarizes a store's contents.
type Stats struct {
	Dirs  int64
	Files int64
	Bytes int64
}
