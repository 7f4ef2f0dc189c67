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

// Package vfs implements the resource tree gateway: path resolution, one
// handler per file manager operation, dispatch by operation name, and a
// uniform status envelope for every result.
package vfs

import (
	"context"

	"resourcefm/internal/storage"
)

// Store is the directory store the gateway operates on. Children are keyed
// by name within a directory node; node ids are stable for the lifetime of
// the store.
type Store interface {
	Root(ctx context.Context) (*storage.Node, error)
	Get(ctx context.Context, id int64) (*storage.Node, error)
	Lookup(ctx context.Context, parent int64, name string) (*storage.Node, error)
	ListDir(ctx context.Context, dir int64) ([]*storage.Node, error)
	Mkdir(ctx context.Context, parent int64, name string) (*storage.Node, error)
	CreateFile(ctx context.Context, parent int64, name string, data []byte) (*storage.Node, error)
	Remove(ctx context.Context, parent int64, name string) error
	Rename(ctx context.Context, parent int64, oldName, newName string) error
	Move(ctx context.Context, srcParent int64, name string, dstParent int64) error
	ReadFile(ctx context.Context, id int64) ([]byte, error)
	WriteFile(ctx context.Context, id int64, data []byte) error
	Close() error
}

// StatsStore is implemented by stores that can summarize their contents.
type StatsStore interface {
	Stats(ctx context.Context) (*storage.Stats, error)
}

var (
	_ Store = (*storage.DataFile)(nil)
	_ Store = (*storage.MemTree)(nil)
	_ Store = (*storage.BillyStore)(nil)
)
