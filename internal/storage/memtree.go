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
	"slices"
	"sync"
	"time"

	"resourcefm/internal/common"
)

// memNode is one arena slot. Directories index their children by name and
// keep a separate slice for insertion order.
type memNode struct {
	Node
	children []int64
	index    map[string]int64
	data     []byte
}

// MemTree is an in-memory resource tree. Nodes are kept in an arena keyed
// by id and refer to their parent by id only.
type MemTree struct {
	mu     sync.RWMutex
	nodes  map[int64]*memNode
	nextID int64
	now    func() time.Time
}

// NewMemTree returns a tree holding only the root directory.
func NewMemTree() *MemTree {
	t := &MemTree{
		nodes:  make(map[int64]*memNode),
		nextID: RootID + 1,
		now:    time.Now,
	}
	t.nodes[RootID] = &memNode{
		Node:  Node{ID: RootID, Kind: KindDir, Mtime: t.now()},
		index: make(map[string]int64),
	}
	return t
}

func (t *MemTree) get(id int64) (*memNode, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return n, nil
}

func (t *MemTree) dir(id int64) (*memNode, error) {
	n, err := t.get(id)
	if err != nil {
		return nil, err
	}
	if !n.IsDir() {
		return nil, common.ErrNotDir
	}
	return n, nil
}

func (t *MemTree) child(parent int64, name string) (*memNode, *memNode, error) {
	p, err := t.dir(parent)
	if err != nil {
		return nil, nil, err
	}
	id, ok := p.index[name]
	if !ok {
		return p, nil, common.ErrNotFound
	}
	return p, t.nodes[id], nil
}

func snapshot(n *memNode) *Node {
	out := n.Node
	return &out
}

// Root returns the root directory.
func (t *MemTree) Root(ctx context.Context) (*Node, error) {
	return t.Get(ctx, RootID)
}

// Get returns the node with the given id.
func (t *MemTree) Get(_ context.Context, id int64) (*Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.get(id)
	if err != nil {
		return nil, err
	}
	return snapshot(n), nil
}

// Lookup resolves name inside parent.
func (t *MemTree) Lookup(_ context.Context, parent int64, name string) (*Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, c, err := t.child(parent, name)
	if err != nil {
		return nil, err
	}
	return snapshot(c), nil
}

// ListDir returns the children of dir in insertion order.
func (t *MemTree) ListDir(_ context.Context, dir int64) ([]*Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, err := t.dir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]*Node, 0, len(d.children))
	for _, id := range d.children {
		out = append(out, snapshot(t.nodes[id]))
	}
	return out, nil
}

// ReadFile returns a copy of the content of file id.
func (t *MemTree) ReadFile(_ context.Context, id int64) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.get(id)
	if err != nil {
		return nil, err
	}
	if n.IsDir() {
		return nil, common.ErrIsDir
	}
	return slices.Clone(n.data), nil
}

func (t *MemTree) insert(parent int64, name string, kind Kind, data []byte) (*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.dir(parent)
	if err != nil {
		return nil, err
	}
	if _, ok := p.index[name]; ok {
		return nil, common.ErrExists
	}

	n := &memNode{Node: Node{
		ID:       t.nextID,
		ParentID: parent,
		Name:     name,
		Kind:     kind,
		Mtime:    t.now(),
	}}
	t.nextID++
	if kind == KindDir {
		n.index = make(map[string]int64)
	} else {
		n.setData(data)
	}
	t.nodes[n.ID] = n
	p.index[name] = n.ID
	p.children = append(p.children, n.ID)
	return snapshot(n), nil
}

func (n *memNode) setData(data []byte) {
	n.data = slices.Clone(data)
	n.Size = int64(len(data))
	n.Width, n.Height = ProbeImage(n.Name, data)
}

// Mkdir creates an empty directory name inside parent.
func (t *MemTree) Mkdir(_ context.Context, parent int64, name string) (*Node, error) {
	return t.insert(parent, name, KindDir, nil)
}

// CreateFile creates file name inside parent with the given content.
func (t *MemTree) CreateFile(_ context.Context, parent int64, name string, data []byte) (*Node, error) {
	return t.insert(parent, name, KindFile, data)
}

// WriteFile replaces the content of file id.
func (t *MemTree) WriteFile(_ context.Context, id int64, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.get(id)
	if err != nil {
		return err
	}
	if n.IsDir() {
		return common.ErrIsDir
	}
	n.setData(data)
	n.Mtime = t.now()
	return nil
}

// Remove deletes name from parent together with its subtree.
func (t *MemTree) Remove(_ context.Context, parent int64, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, c, err := t.child(parent, name)
	if err != nil {
		return err
	}
	p.unlink(name, c.ID)

	stack := []int64{c.ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, t.nodes[id].children...)
		delete(t.nodes, id)
	}
	return nil
}

func (n *memNode) unlink(name string, id int64) {
	delete(n.index, name)
	n.children = slices.DeleteFunc(n.children, func(c int64) bool { return c == id })
}

// Rename changes the name of a child of parent, keeping its position.
func (t *MemTree) Rename(_ context.Context, parent int64, oldName, newName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, c, err := t.child(parent, oldName)
	if err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if _, ok := p.index[newName]; ok {
		return common.ErrExists
	}
	delete(p.index, oldName)
	p.index[newName] = c.ID
	c.Name = newName
	return nil
}

// Move re-parents name from srcParent into dstParent.
func (t *MemTree) Move(_ context.Context, srcParent int64, name string, dstParent int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	src, c, err := t.child(srcParent, name)
	if err != nil {
		return err
	}
	dst, err := t.dir(dstParent)
	if err != nil {
		return err
	}
	if _, ok := dst.index[name]; ok {
		return common.ErrExists
	}
	for id := dstParent; ; {
		if id == c.ID {
			return common.ErrInvalidPath
		}
		if id == RootID {
			break
		}
		id = t.nodes[id].ParentID
	}

	src.unlink(name, c.ID)
	dst.index[name] = c.ID
	dst.children = append(dst.children, c.ID)
	c.ParentID = dstParent
	return nil
}

// Stats counts directories, files and stored bytes.
func (t *MemTree) Stats(_ context.Context) (*Stats, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var s Stats
	for id, n := range t.nodes {
		switch {
		case id == RootID:
		case n.IsDir():
			s.Dirs++
		default:
			s.Files++
			s.Bytes += n.Size
		}
	}
	return &s, nil
}

// Close is a no-op; the tree is discarded with the process.
func (t *MemTree) Close() error {
	return nil
}
