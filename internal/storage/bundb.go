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

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"resourcefm/internal/common"
)

// BunDB wraps a Bun database instance for type-safe queries.
// Methods suffixed With accept a bun.IDB so they can run inside a transaction.
type BunDB struct {
	*bun.DB
}

// NewBunDB wraps an existing *sql.DB with Bun's query builder.
func NewBunDB(sqlDB *sql.DB) *BunDB {
	return &BunDB{DB: bun.NewDB(sqlDB, sqlitedialect.New())}
}

// notFound maps sql.ErrNoRows to common.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	return err
}

// --- Schema Info ---

// GetSchemaInfo retrieves a schema_info value. Missing keys return "".
func (db *BunDB) GetSchemaInfo(ctx context.Context, key string) (string, error) {
	var info SchemaInfoModel
	err := db.NewSelect().Model(&info).Where("key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return info.Value, nil
}

// --- Inodes ---

// GetInodeWith fetches an inode by number.
func (db *BunDB) GetInodeWith(idb bun.IDB, ctx context.Context, ino int64) (*InodeModel, error) {
	var m InodeModel
	err := idb.NewSelect().Model(&m).Where("ino = ?", ino).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// nextInoWith returns the next unused inode number.
func (db *BunDB) nextInoWith(idb bun.IDB, ctx context.Context) (int64, error) {
	var maxIno sql.NullInt64
	if err := idb.NewRaw(`SELECT MAX(ino) FROM inodes`).Scan(ctx, &maxIno); err != nil {
		return 0, err
	}
	if !maxIno.Valid {
		return RootID + 1, nil
	}
	return maxIno.Int64 + 1, nil
}

// InsertInodeWith assigns an inode number to m and inserts it.
func (db *BunDB) InsertInodeWith(idb bun.IDB, ctx context.Context, m *InodeModel) error {
	ino, err := db.nextInoWith(idb, ctx)
	if err != nil {
		return err
	}
	m.Ino = ino
	_, err = idb.NewInsert().Model(m).Exec(ctx)
	return err
}

// UpdateInodeContentWith records new size, mtime and image dimensions.
func (db *BunDB) UpdateInodeContentWith(idb bun.IDB, ctx context.Context, ino, size, mtime int64, width, height int) error {
	_, err := idb.NewUpdate().
		Model((*InodeModel)(nil)).
		Set("size = ?", size).
		Set("mtime = ?", mtime).
		Set("ctime = ?", mtime).
		Set("width = ?", width).
		Set("height = ?", height).
		Where("ino = ?", ino).
		Exec(ctx)
	return err
}

// TouchInodeWith sets ctime on metadata-only changes such as rename.
func (db *BunDB) TouchInodeWith(idb bun.IDB, ctx context.Context, ino, ctime int64) error {
	_, err := idb.NewUpdate().
		Model((*InodeModel)(nil)).
		Set("ctime = ?", ctime).
		Where("ino = ?", ino).
		Exec(ctx)
	return err
}

// --- Dentries ---

const nodeSelect = `
SELECT d.parent_ino, d.name, d.ino, i.mode, i.size, i.mtime, i.width, i.height
FROM dentries d JOIN inodes i ON i.ino = d.ino`

// LookupWith resolves name inside parent.
func (db *BunDB) LookupWith(idb bun.IDB, ctx context.Context, parent int64, name string) (*Node, error) {
	var rows []nodeRow
	err := idb.NewRaw(nodeSelect+` WHERE d.parent_ino = ? AND d.name = ? LIMIT 1`, parent, name).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.ErrNotFound
	}
	return rows[0].toNode(), nil
}

// GetNodeWith resolves a non-root inode together with its dentry.
func (db *BunDB) GetNodeWith(idb bun.IDB, ctx context.Context, ino int64) (*Node, error) {
	var rows []nodeRow
	if err := idb.NewRaw(nodeSelect+` WHERE d.ino = ? LIMIT 1`, ino).Scan(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.ErrNotFound
	}
	return rows[0].toNode(), nil
}

// ListDirWith returns the children of parent in insertion order.
func (db *BunDB) ListDirWith(idb bun.IDB, ctx context.Context, parent int64) ([]*Node, error) {
	var rows []nodeRow
	if err := idb.NewRaw(nodeSelect+` WHERE d.parent_ino = ? ORDER BY d.seq`, parent).Scan(ctx, &rows); err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(rows))
	for i := range rows {
		nodes = append(nodes, rows[i].toNode())
	}
	return nodes, nil
}

// nextSeqWith returns the sequence number for a new child of parent.
func (db *BunDB) nextSeqWith(idb bun.IDB, ctx context.Context, parent int64) (int64, error) {
	var maxSeq sql.NullInt64
	if err := idb.NewRaw(`SELECT MAX(seq) FROM dentries WHERE parent_ino = ?`, parent).Scan(ctx, &maxSeq); err != nil {
		return 0, err
	}
	return maxSeq.Int64 + 1, nil
}

// InsertDentryWith appends a child entry at the end of parent's order.
func (db *BunDB) InsertDentryWith(idb bun.IDB, ctx context.Context, parent int64, name string, ino int64) error {
	seq, err := db.nextSeqWith(idb, ctx, parent)
	if err != nil {
		return err
	}
	_, err = idb.NewInsert().
		Model(&DentryModel{ParentIno: parent, Name: name, Ino: ino, Seq: seq}).
		Exec(ctx)
	return err
}

// RenameDentryWith changes an entry's name in place, keeping its position.
func (db *BunDB) RenameDentryWith(idb bun.IDB, ctx context.Context, parent int64, oldName, newName string) error {
	res, err := idb.NewUpdate().
		Model((*DentryModel)(nil)).
		Set("name = ?", newName).
		Where("parent_ino = ? AND name = ?", parent, oldName).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// MoveDentryWith reparents ino, appending it to newParent's order.
func (db *BunDB) MoveDentryWith(idb bun.IDB, ctx context.Context, ino, newParent int64) error {
	seq, err := db.nextSeqWith(idb, ctx, newParent)
	if err != nil {
		return err
	}
	_, err = idb.NewUpdate().
		Model((*DentryModel)(nil)).
		Set("parent_ino = ?", newParent).
		Set("seq = ?", seq).
		Where("ino = ?", ino).
		Exec(ctx)
	return err
}

// AncestorsWith returns the inode numbers from ino up to the root, inclusive.
func (db *BunDB) AncestorsWith(idb bun.IDB, ctx context.Context, ino int64) ([]int64, error) {
	var inos []int64
	err := idb.NewRaw(`
WITH RECURSIVE up(ino) AS (
    SELECT ?
    UNION ALL
    SELECT d.parent_ino FROM dentries d JOIN up ON d.ino = up.ino
)
SELECT ino FROM up`, ino).Scan(ctx, &inos)
	return inos, err
}

// SubtreeWith returns ino and every inode below it.
func (db *BunDB) SubtreeWith(idb bun.IDB, ctx context.Context, ino int64) ([]int64, error) {
	var inos []int64
	err := idb.NewRaw(`
WITH RECURSIVE sub(ino) AS (
    SELECT ?
    UNION ALL
    SELECT d.ino FROM dentries d JOIN sub ON d.parent_ino = sub.ino
)
SELECT ino FROM sub`, ino).Scan(ctx, &inos)
	return inos, err
}

// DeleteNodesWith removes the given inodes with their dentries and content.
func (db *BunDB) DeleteNodesWith(idb bun.IDB, ctx context.Context, inos []int64) error {
	if len(inos) == 0 {
		return nil
	}
	if _, err := idb.NewDelete().Model((*ContentModel)(nil)).Where("ino IN (?)", bun.In(inos)).Exec(ctx); err != nil {
		return err
	}
	if _, err := idb.NewDelete().Model((*DentryModel)(nil)).Where("ino IN (?)", bun.In(inos)).Exec(ctx); err != nil {
		return err
	}
	_, err := idb.NewDelete().Model((*InodeModel)(nil)).Where("ino IN (?)", bun.In(inos)).Exec(ctx)
	return err
}

// --- Content ---

// ReadContentWith concatenates the chunks of ino.
func (db *BunDB) ReadContentWith(idb bun.IDB, ctx context.Context, ino int64) ([]byte, error) {
	var chunks []ContentModel
	err := idb.NewSelect().
		Model(&chunks).
		Where("ino = ?", ino).
		Order("chunk_idx ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	size := 0
	for i := range chunks {
		size += len(chunks[i].Data)
	}
	data := make([]byte, 0, size)
	for i := range chunks {
		data = append(data, chunks[i].Data...)
	}
	return data, nil
}

// ReplaceContentWith discards existing chunks of ino and stores data.
func (db *BunDB) ReplaceContentWith(idb bun.IDB, ctx context.Context, ino int64, data []byte) error {
	if _, err := idb.NewDelete().Model((*ContentModel)(nil)).Where("ino = ?", ino).Exec(ctx); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	chunks := make([]ContentModel, 0, (len(data)+ChunkSize-1)/ChunkSize)
	for idx, off := int64(0), 0; off < len(data); idx, off = idx+1, off+ChunkSize {
		end := off + ChunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, ContentModel{Ino: ino, ChunkIdx: idx, Data: data[off:end]})
	}
	_, err := idb.NewInsert().Model(&chunks).Exec(ctx)
	return err
}

// --- Stats ---

type statsRow struct {
	Dirs  int64
	Files int64
	Bytes int64
}

// GetStats counts directories, files and stored bytes, excluding the root.
func (db *BunDB) GetStats(ctx context.Context) (*Stats, error) {
	var rows []statsRow
	err := db.NewRaw(`
SELECT
    COALESCE(SUM(CASE WHEN (mode & ?) = ? THEN 1 ELSE 0 END), 0) AS dirs,
    COALESCE(SUM(CASE WHEN (mode & ?) = ? THEN 1 ELSE 0 END), 0) AS files,
    COALESCE(SUM(size), 0) AS bytes
FROM inodes WHERE ino != ?`, ModeMask, ModeDir, ModeMask, ModeFile, RootID).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Stats{}, nil
	}
	return &Stats{Dirs: rows[0].Dirs, Files: rows[0].Files, Bytes: rows[0].Bytes}, nil
}
