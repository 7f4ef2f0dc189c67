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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "github.com/tursodatabase/go-libsql"
	"github.com/uptrace/bun"

	"resourcefm/internal/cache"
	"resourcefm/internal/common"
	"resourcefm/internal/util"
)

// lookupKey is a cache key for Lookup results.
type lookupKey struct {
	parent int64
	name   string
}

// DataFile is a SQLite-backed resource tree.
//
// Nodes live in an arena of inodes addressed by stable numbers; dentries
// link each node to its parent by name and record sibling insertion order.
type DataFile struct {
	path  string
	db    *sql.DB
	bunDB *BunDB

	// writeMu serializes mutations from this process. Cross-process writers
	// are serialized by SQLite itself.
	writeMu sync.Mutex

	// cacheMu orders lookup fills against invalidations. A fill is dropped
	// when generation moved since its read started.
	cacheMu    sync.Mutex
	generation uint64
	lookups    *cache.LRU[lookupKey, Node]
}

// Options configures Create and Open.
type Options struct {
	Context   DBContext
	CacheSize int
}

// execPragma runs a PRAGMA statement using Query (not Exec) because libsql
// returns rows for PRAGMA statements.
func execPragma(db *sql.DB, pragma string) error {
	rows, err := db.Query(pragma)
	if err != nil {
		return err
	}
	rows.Close()
	return nil
}

// applyPragmas sets essential PRAGMAs after opening a libsql connection.
// libsql ignores DSN-based _pragma=value parameters.
func applyPragmas(db *sql.DB, ctx DBContext) error {
	// busy_timeout first so journal_mode=WAL waits for locks.
	if err := execPragma(db, fmt.Sprintf("PRAGMA busy_timeout = %d", GetBusyTimeout(ctx))); err != nil {
		return fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	if err := execPragma(db, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to set journal_mode=WAL: %w", err)
	}
	if err := execPragma(db, "PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous=NORMAL: %w", err)
	}
	if err := execPragma(db, "PRAGMA cache_size = -8000"); err != nil {
		return fmt.Errorf("failed to set cache_size: %w", err)
	}
	return nil
}

// Create creates a new data file with default options.
func Create(path string) (*DataFile, error) {
	return CreateWithOptions(path, Options{})
}

// CreateWithOptions creates a new data file. It fails if path exists.
func CreateWithOptions(path string, opts Options) (*DataFile, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file already exists: %s", path)
	}

	db, err := sql.Open("libsql", BuildDSN(path, opts.Context))
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	fail := func(format string, err error) (*DataFile, error) {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf(format, err)
	}

	if err := applyPragmas(db, opts.Context); err != nil {
		return fail("%w", err)
	}
	if err := execStatements(db, dataFileSchema); err != nil {
		return fail("failed to create schema: %w", err)
	}
	if err := execStatements(db, initRootDir, SchemaVersion, DefaultDirMode); err != nil {
		return fail("failed to initialize root: %w", err)
	}

	return newDataFile(path, db, opts)
}

// Open opens an existing data file with default options.
func Open(path string) (*DataFile, error) {
	return OpenWithOptions(path, Options{})
}

// OpenWithOptions opens an existing data file.
func OpenWithOptions(path string, opts Options) (*DataFile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	db, err := sql.Open("libsql", BuildDSN(path, opts.Context))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := applyPragmas(db, opts.Context); err != nil {
		db.Close()
		return nil, err
	}

	fileType, err := NewBunDB(db).GetSchemaInfo(context.Background(), "type")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read schema info: %w", err)
	}
	if fileType != "tree" {
		db.Close()
		return nil, fmt.Errorf("not a resourcefm data file (type=%q)", fileType)
	}

	return newDataFile(path, db, opts)
}

// OpenOrCreate opens path, creating a fresh data file when it does not exist.
func OpenOrCreate(path string, opts Options) (*DataFile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return CreateWithOptions(path, opts)
	}
	return OpenWithOptions(path, opts)
}

func newDataFile(path string, db *sql.DB, opts Options) (*DataFile, error) {
	lookups, err := cache.NewLRU[lookupKey, Node](opts.CacheSize, 0)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create lookup cache: %w", err)
	}
	return &DataFile{
		path:    path,
		db:      db,
		bunDB:   NewBunDB(db),
		lookups: lookups,
	}, nil
}

// Close checkpoints the WAL into the main database and closes the connection.
func (df *DataFile) Close() error {
	if df.db == nil {
		return nil
	}

	// PRAGMA wal_checkpoint returns rows, so Query is required.
	if rows, err := df.db.Query("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Warnf("WAL checkpoint failed: %v", err)
	} else {
		rows.Close()
	}

	if err := df.db.Close(); err != nil {
		return err
	}
	df.db = nil

	os.Remove(df.path + "-wal")
	os.Remove(df.path + "-shm")
	return nil
}

// Path returns the file path
func (df *DataFile) Path() string {
	return df.path
}

// CacheStats returns lookup cache counters.
func (df *DataFile) CacheStats() cache.Stats {
	return df.lookups.Stats()
}

// Stats counts directories, files and stored bytes.
func (df *DataFile) Stats(ctx context.Context) (*Stats, error) {
	return util.DoValue(ctx, util.DefaultLockRetry, func() (*Stats, error) {
		return df.bunDB.GetStats(ctx)
	})
}

// mutate runs fn in a transaction, retrying on transient lock errors.
func (df *DataFile) mutate(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	df.writeMu.Lock()
	defer df.writeMu.Unlock()

	err := util.DefaultLockRetry.Do(ctx, func() error {
		return df.bunDB.RunInTx(ctx, nil, fn)
	})
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", common.ErrExists, err)
	}
	return err
}

// --- Reads ---

// Root returns the root directory.
func (df *DataFile) Root(ctx context.Context) (*Node, error) {
	m, err := df.bunDB.GetInodeWith(df.bunDB, ctx, RootID)
	if err != nil {
		return nil, fmt.Errorf("root inode: %w", err)
	}
	return rootNode(m), nil
}

// Get returns the node with the given id.
func (df *DataFile) Get(ctx context.Context, id int64) (*Node, error) {
	if id == RootID {
		return df.Root(ctx)
	}
	return df.bunDB.GetNodeWith(df.bunDB, ctx, id)
}

// Lookup resolves name inside the directory parent.
func (df *DataFile) Lookup(ctx context.Context, parent int64, name string) (*Node, error) {
	key := lookupKey{parent, name}
	if n, ok := df.lookups.Get(key); ok {
		return &n, nil
	}
	gen := df.lookupGeneration()
	n, err := df.bunDB.LookupWith(df.bunDB, ctx, parent, name)
	if err != nil {
		return nil, err
	}
	df.fillLookup(key, *n, gen)
	return n, nil
}

func (df *DataFile) lookupGeneration() uint64 {
	df.cacheMu.Lock()
	defer df.cacheMu.Unlock()
	return df.generation
}

// fillLookup caches n unless a mutation invalidated entries after gen was read.
func (df *DataFile) fillLookup(key lookupKey, n Node, gen uint64) {
	df.cacheMu.Lock()
	defer df.cacheMu.Unlock()
	if df.generation == gen {
		df.lookups.Set(key, n)
	}
}

// invalidate drops the given keys, plus every entry under the parents in
// under, and advances the generation.
func (df *DataFile) invalidate(keys []lookupKey, under map[int64]struct{}) {
	df.cacheMu.Lock()
	defer df.cacheMu.Unlock()
	df.generation++
	for _, k := range keys {
		df.lookups.Delete(k)
	}
	if len(under) > 0 {
		df.lookups.DeleteFunc(func(k lookupKey) bool {
			_, ok := under[k.parent]
			return ok
		})
	}
}

// ListDir returns the children of dir in insertion order.
func (df *DataFile) ListDir(ctx context.Context, dir int64) ([]*Node, error) {
	n, err := df.Get(ctx, dir)
	if err != nil {
		return nil, err
	}
	if !n.IsDir() {
		return nil, common.ErrNotDir
	}
	return df.bunDB.ListDirWith(df.bunDB, ctx, dir)
}

// ReadFile returns the content of file id.
func (df *DataFile) ReadFile(ctx context.Context, id int64) ([]byte, error) {
	n, err := df.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.IsDir() {
		return nil, common.ErrIsDir
	}
	return df.bunDB.ReadContentWith(df.bunDB, ctx, id)
}

// --- Mutations ---

// requireDirWith checks that ino exists and is a directory.
func (df *DataFile) requireDirWith(idb bun.IDB, ctx context.Context, ino int64) error {
	m, err := df.bunDB.GetInodeWith(idb, ctx, ino)
	if err != nil {
		return err
	}
	if KindFromMode(uint32(m.Mode)) != KindDir {
		return common.ErrNotDir
	}
	return nil
}

// requireAbsentWith fails with ErrExists when parent already has name.
func (df *DataFile) requireAbsentWith(idb bun.IDB, ctx context.Context, parent int64, name string) error {
	_, err := df.bunDB.LookupWith(idb, ctx, parent, name)
	if err == nil {
		return common.ErrExists
	}
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}

func (df *DataFile) createNode(ctx context.Context, parent int64, name string, mode int64, data []byte) (*Node, error) {
	var created *Node
	err := df.mutate(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := df.requireDirWith(tx, ctx, parent); err != nil {
			return err
		}
		if err := df.requireAbsentWith(tx, ctx, parent, name); err != nil {
			return err
		}

		now := time.Now().Unix()
		m := &InodeModel{Mode: mode, Size: int64(len(data)), Mtime: now, Ctime: now}
		if mode&ModeMask == ModeFile {
			w, h := ProbeImage(name, data)
			m.Width, m.Height = int64(w), int64(h)
		}
		if err := df.bunDB.InsertInodeWith(tx, ctx, m); err != nil {
			return err
		}
		if err := df.bunDB.InsertDentryWith(tx, ctx, parent, name, m.Ino); err != nil {
			return err
		}
		if len(data) > 0 {
			if err := df.bunDB.ReplaceContentWith(tx, ctx, m.Ino, data); err != nil {
				return err
			}
		}
		created = &Node{
			ID:       m.Ino,
			ParentID: parent,
			Name:     name,
			Kind:     KindFromMode(uint32(mode)),
			Size:     m.Size,
			Mtime:    time.Unix(now, 0),
			Width:    int(m.Width),
			Height:   int(m.Height),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Mkdir creates an empty directory name inside parent.
func (df *DataFile) Mkdir(ctx context.Context, parent int64, name string) (*Node, error) {
	return df.createNode(ctx, parent, name, DefaultDirMode, nil)
}

// CreateFile creates file name inside parent with the given content.
func (df *DataFile) CreateFile(ctx context.Context, parent int64, name string, data []byte) (*Node, error) {
	return df.createNode(ctx, parent, name, DefaultFileMode, data)
}

// WriteFile replaces the content of file id.
func (df *DataFile) WriteFile(ctx context.Context, id int64, data []byte) error {
	if id == RootID {
		return common.ErrIsDir
	}
	var target *Node
	err := df.mutate(ctx, func(ctx context.Context, tx bun.Tx) error {
		n, err := df.bunDB.GetNodeWith(tx, ctx, id)
		if err != nil {
			return err
		}
		if n.IsDir() {
			return common.ErrIsDir
		}
		if err := df.bunDB.ReplaceContentWith(tx, ctx, id, data); err != nil {
			return err
		}
		w, h := ProbeImage(n.Name, data)
		target = n
		return df.bunDB.UpdateInodeContentWith(tx, ctx, id, int64(len(data)), time.Now().Unix(), w, h)
	})
	if target != nil {
		df.invalidate([]lookupKey{{target.ParentID, target.Name}}, nil)
	}
	return err
}

// Remove deletes name from parent, including any subtree below it.
func (df *DataFile) Remove(ctx context.Context, parent int64, name string) error {
	var removed map[int64]struct{}
	err := df.mutate(ctx, func(ctx context.Context, tx bun.Tx) error {
		n, err := df.bunDB.LookupWith(tx, ctx, parent, name)
		if err != nil {
			return err
		}
		inos, err := df.bunDB.SubtreeWith(tx, ctx, n.ID)
		if err != nil {
			return err
		}
		removed = make(map[int64]struct{}, len(inos))
		for _, ino := range inos {
			removed[ino] = struct{}{}
		}
		return df.bunDB.DeleteNodesWith(tx, ctx, inos)
	})
	df.invalidate([]lookupKey{{parent, name}}, removed)
	return err
}

// Rename changes the name of a child of parent, keeping its position.
func (df *DataFile) Rename(ctx context.Context, parent int64, oldName, newName string) error {
	if oldName == newName {
		_, err := df.Lookup(ctx, parent, oldName)
		return err
	}
	err := df.mutate(ctx, func(ctx context.Context, tx bun.Tx) error {
		n, err := df.bunDB.LookupWith(tx, ctx, parent, oldName)
		if err != nil {
			return err
		}
		if err := df.requireAbsentWith(tx, ctx, parent, newName); err != nil {
			return err
		}
		if err := df.bunDB.RenameDentryWith(tx, ctx, parent, oldName, newName); err != nil {
			return err
		}
		return df.bunDB.TouchInodeWith(tx, ctx, n.ID, time.Now().Unix())
	})
	df.invalidate([]lookupKey{{parent, oldName}, {parent, newName}}, nil)
	return err
}

// Move re-parents name from srcParent into dstParent. The moved subtree is
// unchanged. Moving a directory into itself or a descendant fails with
// common.ErrInvalidPath.
func (df *DataFile) Move(ctx context.Context, srcParent int64, name string, dstParent int64) error {
	err := df.mutate(ctx, func(ctx context.Context, tx bun.Tx) error {
		n, err := df.bunDB.LookupWith(tx, ctx, srcParent, name)
		if err != nil {
			return err
		}
		if err := df.requireDirWith(tx, ctx, dstParent); err != nil {
			return err
		}
		if srcParent == dstParent {
			return common.ErrExists
		}
		ancestors, err := df.bunDB.AncestorsWith(tx, ctx, dstParent)
		if err != nil {
			return err
		}
		for _, ino := range ancestors {
			if ino == n.ID {
				return common.ErrInvalidPath
			}
		}
		if err := df.requireAbsentWith(tx, ctx, dstParent, name); err != nil {
			return err
		}
		return df.bunDB.MoveDentryWith(tx, ctx, n.ID, dstParent)
	})
	df.invalidate([]lookupKey{{srcParent, name}, {dstParent, name}}, nil)
	return err
}
