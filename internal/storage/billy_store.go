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
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"resourcefm/internal/common"
)

// BillyStore is a resource tree backed by a go-billy filesystem, either a
// host directory (osfs) or memory (memfs).
//
// Node ids are handed out on first sight of a path and follow the node
// through renames and moves for the lifetime of the store. Listings use
// the filesystem's native name order.
type BillyStore struct {
	fs billy.Filesystem

	mu     sync.Mutex
	paths  map[int64]string
	ids    map[string]int64
	nextID int64
}

// NewBillyStore wraps fs. The root of fs becomes the tree root.
func NewBillyStore(fs billy.Filesystem) *BillyStore {
	return &BillyStore{
		fs:     fs,
		paths:  map[int64]string{RootID: ""},
		ids:    map[string]int64{"": RootID},
		nextID: RootID + 1,
	}
}

// OpenDirectory exposes the host directory root as a tree.
func OpenDirectory(root string) (*BillyStore, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("root directory %s: %w", root, common.ErrNotDir)
	}
	return NewBillyStore(osfs.New(root)), nil
}

// NewMemoryBillyStore returns an empty store over memfs.
func NewMemoryBillyStore() *BillyStore {
	return NewBillyStore(memfs.New())
}

// Filesystem returns the underlying billy filesystem.
func (s *BillyStore) Filesystem() billy.Filesystem {
	return s.fs
}

// fsPath converts a canonical path to a billy path.
func fsPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func (s *BillyStore) pathOf(id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.paths[id]
	if !ok {
		return "", common.ErrNotFound
	}
	return p, nil
}

func (s *BillyStore) idOf(p string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.ids[p]; ok {
		return id
	}
	id := s.nextID
	s.nextID++
	s.ids[p] = id
	s.paths[id] = p
	return id
}

// remap rewrites every tracked path under from to live under to.
// An empty to forgets them instead.
func (s *BillyStore) remap(from, to string, forget bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.paths {
		if p != from && !strings.HasPrefix(p, from+"/") {
			continue
		}
		delete(s.ids, p)
		if forget {
			delete(s.paths, id)
			continue
		}
		np := to + strings.TrimPrefix(p, from)
		s.paths[id] = np
		s.ids[np] = id
	}
}

func (s *BillyStore) stat(p string) (os.FileInfo, error) {
	fi, err := s.fs.Stat(fsPath(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return fi, nil
}

func (s *BillyStore) node(p string, fi os.FileInfo) *Node {
	n := &Node{
		ID:    s.idOf(p),
		Name:  common.BaseName(p),
		Kind:  KindFile,
		Size:  fi.Size(),
		Mtime: fi.ModTime(),
	}
	if p != "" {
		n.ParentID = s.idOf(common.ParentPath(p))
	}
	if fi.IsDir() {
		n.Kind = KindDir
		n.Size = 0
	} else if probeExtensions[common.Extension(n.Name)] {
		if data, err := util.ReadFile(s.fs, fsPath(p)); err == nil {
			n.Width, n.Height = ProbeImage(n.Name, data)
		}
	}
	return n
}

func (s *BillyStore) dirPath(id int64) (string, error) {
	p, err := s.pathOf(id)
	if err != nil {
		return "", err
	}
	fi, err := s.stat(p)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", common.ErrNotDir
	}
	return p, nil
}

// Root returns the root directory.
func (s *BillyStore) Root(ctx context.Context) (*Node, error) {
	return s.Get(ctx, RootID)
}

// Get returns the node with the given id.
func (s *BillyStore) Get(_ context.Context, id int64) (*Node, error) {
	p, err := s.pathOf(id)
	if err != nil {
		return nil, err
	}
	fi, err := s.stat(p)
	if err != nil {
		return nil, err
	}
	return s.node(p, fi), nil
}

// Lookup resolves name inside parent.
func (s *BillyStore) Lookup(_ context.Context, parent int64, name string) (*Node, error) {
	dir, err := s.dirPath(parent)
	if err != nil {
		return nil, err
	}
	p := common.JoinPath(dir, name)
	fi, err := s.stat(p)
	if err != nil {
		return nil, err
	}
	return s.node(p, fi), nil
}

// ListDir returns the children of dir in name order.
func (s *BillyStore) ListDir(_ context.Context, dir int64) ([]*Node, error) {
	p, err := s.dirPath(dir)
	if err != nil {
		return nil, err
	}
	infos, err := s.fs.ReadDir(fsPath(p))
	if err != nil {
		return nil, err
	}
	out := make([]*Node, 0, len(infos))
	for _, fi := range infos {
		out = append(out, s.node(common.JoinPath(p, fi.Name()), fi))
	}
	return out, nil
}

// ReadFile returns the content of file id.
func (s *BillyStore) ReadFile(_ context.Context, id int64) ([]byte, error) {
	p, err := s.pathOf(id)
	if err != nil {
		return nil, err
	}
	fi, err := s.stat(p)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, common.ErrIsDir
	}
	return util.ReadFile(s.fs, fsPath(p))
}

func (s *BillyStore) absentChild(parent int64, name string) (string, error) {
	dir, err := s.dirPath(parent)
	if err != nil {
		return "", err
	}
	p := common.JoinPath(dir, name)
	if _, err := s.stat(p); err == nil {
		return "", common.ErrExists
	} else if !errors.Is(err, common.ErrNotFound) {
		return "", err
	}
	return p, nil
}

// Mkdir creates an empty directory name inside parent.
func (s *BillyStore) Mkdir(ctx context.Context, parent int64, name string) (*Node, error) {
	p, err := s.absentChild(parent, name)
	if err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(p, 0o755); err != nil {
		return nil, err
	}
	return s.Get(ctx, s.idOf(p))
}

// CreateFile creates file name inside parent with the given content.
func (s *BillyStore) CreateFile(ctx context.Context, parent int64, name string, data []byte) (*Node, error) {
	p, err := s.absentChild(parent, name)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, common.ErrExists
		}
		return nil, err
	}
	_, werr := f.Write(data)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return nil, werr
	}
	return s.Get(ctx, s.idOf(p))
}

// WriteFile replaces the content of file id.
func (s *BillyStore) WriteFile(_ context.Context, id int64, data []byte) error {
	p, err := s.pathOf(id)
	if err != nil {
		return err
	}
	fi, err := s.stat(p)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return common.ErrIsDir
	}
	return util.WriteFile(s.fs, p, data, 0o644)
}

// Remove deletes name from parent together with its subtree.
func (s *BillyStore) Remove(_ context.Context, parent int64, name string) error {
	dir, err := s.dirPath(parent)
	if err != nil {
		return err
	}
	p := common.JoinPath(dir, name)
	if _, err := s.stat(p); err != nil {
		return err
	}
	if err := util.RemoveAll(s.fs, p); err != nil {
		return err
	}
	s.remap(p, "", true)
	return nil
}

// Rename changes the name of a child of parent.
func (s *BillyStore) Rename(_ context.Context, parent int64, oldName, newName string) error {
	dir, err := s.dirPath(parent)
	if err != nil {
		return err
	}
	from := common.JoinPath(dir, oldName)
	if _, err := s.stat(from); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	to, err := s.absentChild(parent, newName)
	if err != nil {
		return err
	}
	if err := s.fs.Rename(from, to); err != nil {
		return err
	}
	s.remap(from, to, false)
	return nil
}

// Move re-parents name from srcParent into dstParent.
func (s *BillyStore) Move(_ context.Context, srcParent int64, name string, dstParent int64) error {
	srcDir, err := s.dirPath(srcParent)
	if err != nil {
		return err
	}
	from := common.JoinPath(srcDir, name)
	if _, err := s.stat(from); err != nil {
		return err
	}
	to, err := s.absentChild(dstParent, name)
	if err != nil {
		return err
	}
	if strings.HasPrefix(to, from+"/") {
		return common.ErrInvalidPath
	}
	if err := s.fs.Rename(from, to); err != nil {
		return err
	}
	s.remap(from, to, false)
	return nil
}

// Stats walks the filesystem counting directories, files and bytes.
func (s *BillyStore) Stats(_ context.Context) (*Stats, error) {
	var st Stats
	err := util.Walk(s.fs, "/", func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		switch {
		case p == "/" || p == "":
		case fi.IsDir():
			st.Dirs++
		default:
			st.Files++
			st.Bytes += fi.Size()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Close is a no-op; the filesystem outlives the store.
func (s *BillyStore) Close() error {
	return nil
}
