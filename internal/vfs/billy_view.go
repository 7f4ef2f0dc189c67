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
	"bytes"
	"context"
	"os"
	"path"
	"time"

	billy "github.com/go-git/go-billy/v5"
	nfsfile "github.com/willscott/go-nfs/file"

	"resourcefm/internal/common"
	"resourcefm/internal/storage"
)

// BillyView exposes a gateway's tree as a read-only billy.Filesystem for
// the NFS export. Hidden entries are omitted from directory reads.
type BillyView struct {
	ctx context.Context
	g   *Gateway
	uid uint32
	gid uint32
}

// NewBillyView creates a view over g. ctx bounds every store call the view
// makes.
func NewBillyView(ctx context.Context, g *Gateway) *BillyView {
	return &BillyView{
		ctx: ctx,
		g:   g,
		uid: uint32(os.Getuid()),
		gid: uint32(os.Getgid()),
	}
}

var _ billy.Filesystem = (*BillyView)(nil)

func (b *BillyView) node(filename string) (*storage.Node, error) {
	n, err := b.g.resolve(b.ctx, common.NormalizePath(filename))
	if err != nil {
		if missing(err) {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	return n, nil
}

func (b *BillyView) Create(filename string) (billy.File, error) {
	return nil, common.ErrReadOnly
}

func (b *BillyView) Open(filename string) (billy.File, error) {
	return b.OpenFile(filename, os.O_RDONLY, 0)
}

func (b *BillyView) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, common.ErrReadOnly
	}
	n, err := b.node(filename)
	if err != nil {
		return nil, err
	}
	var data []byte
	if n.IsFile() {
		data, err = b.g.store.ReadFile(b.ctx, n.ID)
		if err != nil {
			return nil, err
		}
	}
	return &viewFile{name: filename, r: bytes.NewReader(data)}, nil
}

func (b *BillyView) Stat(filename string) (os.FileInfo, error) {
	n, err := b.node(filename)
	if err != nil {
		return nil, err
	}
	return b.info(n), nil
}

func (b *BillyView) Lstat(filename string) (os.FileInfo, error) {
	return b.Stat(filename)
}

func (b *BillyView) ReadDir(dirname string) ([]os.FileInfo, error) {
	p := common.NormalizePath(dirname)
	n, err := b.node(p)
	if err != nil {
		return nil, err
	}
	if !n.IsDir() {
		return nil, common.ErrNotDir
	}

	children, err := b.g.store.ListDir(b.ctx, n.ID)
	if err != nil {
		return nil, err
	}
	infos := make([]os.FileInfo, 0, len(children))
	for _, child := range children {
		if b.g.hidden.Hidden(common.JoinPath(p, child.Name), child.IsDir()) {
			continue
		}
		infos = append(infos, b.info(child))
	}
	return infos, nil
}

func (b *BillyView) Rename(oldpath, newpath string) error          { return common.ErrReadOnly }
func (b *BillyView) Remove(filename string) error                  { return common.ErrReadOnly }
func (b *BillyView) MkdirAll(filename string, _ os.FileMode) error { return common.ErrReadOnly }
func (b *BillyView) Symlink(target, link string) error             { return common.ErrReadOnly }

func (b *BillyView) TempFile(dir, prefix string) (billy.File, error) {
	return nil, common.ErrReadOnly
}

func (b *BillyView) Readlink(link string) (string, error) {
	return "", os.ErrInvalid
}

func (b *BillyView) Join(elem ...string) string {
	return path.Join(elem...)
}

func (b *BillyView) Chroot(p string) (billy.Filesystem, error) {
	return nil, os.ErrInvalid
}

func (b *BillyView) Root() string {
	return "/"
}

func (b *BillyView) Capabilities() billy.Capability {
	return billy.ReadCapability | billy.SeekCapability
}

func (b *BillyView) info(n *storage.Node) *viewInfo {
	return &viewInfo{node: n, uid: b.uid, gid: b.gid}
}

// viewFile is an open file snapshot. Content is read once at open.
type viewFile struct {
	name string
	r    *bytes.Reader
}

func (f *viewFile) Name() string                                 { return f.name }
func (f *viewFile) Read(p []byte) (int, error)                   { return f.r.Read(p) }
func (f *viewFile) ReadAt(p []byte, off int64) (int, error)      { return f.r.ReadAt(p, off) }
func (f *viewFile) Seek(offset int64, whence int) (int64, error) { return f.r.Seek(offset, whence) }
func (f *viewFile) Write(p []byte) (int, error)                  { return 0, common.ErrReadOnly }
func (f *viewFile) Truncate(size int64) error                    { return common.ErrReadOnly }
func (f *viewFile) Close() error                                 { return nil }
func (f *viewFile) Lock() error                                  { return nil }
func (f *viewFile) Unlock() error                                { return nil }

type viewInfo struct {
	node *storage.Node
	uid  uint32
	gid  uint32
}

func (fi *viewInfo) Name() string {
	if fi.node.IsRoot() {
		return "/"
	}
	return fi.node.Name
}

func (fi *viewInfo) Size() int64 { return fi.node.Size }
func (fi *viewInfo) IsDir() bool { return fi.node.IsDir() }

func (fi *viewInfo) Mode() os.FileMode {
	if fi.node.IsDir() {
		return os.ModeDir | 0555
	}
	return 0444
}

func (fi *viewInfo) ModTime() time.Time {
	if fi.node.Mtime.IsZero() {
		return time.Unix(0, 0)
	}
	return fi.node.Mtime
}

// Sys returns the go-nfs file info; go-nfs only reads ids and link counts
// from this type.
func (fi *viewInfo) Sys() interface{} {
	return &nfsfile.FileInfo{
		Nlink:  1,
		UID:    fi.uid,
		GID:    fi.gid,
		Fileid: uint64(fi.node.ID),
	}
}

