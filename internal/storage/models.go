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

import (
	"time"

	"github.com/uptrace/bun"
)

// Bun ORM models for the resourcefm tree tables.
// Times are stored as Unix timestamps.

// SchemaInfoModel represents the schema_info table
type SchemaInfoModel struct {
	bun.BaseModel `bun:"table:schema_info"`

	Key   string `bun:"key,pk"`
	Value string `bun:"value,notnull"`
}

// InodeModel represents the inodes table
type InodeModel struct {
	bun.BaseModel `bun:"table:inodes"`

	Ino    int64 `bun:"ino,pk"`
	Mode   int64 `bun:"mode,notnull"`
	Size   int64 `bun:"size,notnull"`
	Mtime  int64 `bun:"mtime,notnull"`
	Ctime  int64 `bun:"ctime,notnull"`
	Width  int64 `bun:"width,notnull"`
	Height int64 `bun:"height,notnull"`
}

// DentryModel represents the dentries table.
// Seq orders siblings by insertion.
type DentryModel struct {
	bun.BaseModel `bun:"table:dentries"`

	ParentIno int64  `bun:"parent_ino,pk"`
	Name      string `bun:"name,pk"`
	Ino       int64  `bun:"ino,notnull"`
	Seq       int64  `bun:"seq,notnull"`
}

// ContentModel represents the content table (chunked file data)
type ContentModel struct {
	bun.BaseModel `bun:"table:content"`

	Ino      int64  `bun:"ino,pk"`
	ChunkIdx int64  `bun:"chunk_idx,pk"`
	Data     []byte `bun:"data,notnull"`
}

// nodeRow is the joined dentries/inodes projection used by listings.
type nodeRow struct {
	ParentIno int64
	Name      string
	Ino       int64
	Mode      int64
	Size      int64
	Mtime     int64
	Width     int64
	Height    int64
}

func (r *nodeRow) toNode() *Node {
	return &Node{
		ID:       r.Ino,
		ParentID: r.ParentIno,
		Name:     r.Name,
		Kind:     KindFromMode(uint32(r.Mode)),
		Size:     r.Size,
		Mtime:    time.Unix(r.Mtime, 0),
		Width:    int(r.Width),
		Height:   int(r.Height),
	}
}

// rootNode builds the Node for the root inode, which has no dentry.
func rootNode(m *InodeModel) *Node {
	return &Node{
		ID:    m.Ino,
		Kind:  KindDir,
		Mtime: time.Unix(m.Mtime, 0),
	}
}
