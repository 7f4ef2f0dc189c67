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
	"resourcefm/internal/common"
	"resourcefm/internal/storage"
)

func (g *Gateway) list(oc *opContext, raw string) (Result, error) {
	p := common.NormalizePath(raw)
	res := &ListResult{Path: common.DisplayPath(p), Items: []Summary{}}

	dir, err := g.resolveDir(oc.ctx, p)
	if err != nil {
		if missing(err) {
			res.Status = fail(CodeNotFound, msgFileNotFound)
			return res, nil
		}
		return nil, storeError("list", err)
	}

	children, err := g.store.ListDir(oc.ctx, dir.ID)
	if err != nil {
		return nil, storeError("list", err)
	}

	var files []Summary
	for _, child := range children {
		childPath := common.JoinPath(p, child.Name)
		if g.hidden.Hidden(childPath, child.IsDir()) {
			continue
		}
		s := g.summarize(childPath, child, true)
		if child.IsDir() {
			res.Items = append(res.Items, s)
		} else {
			files = append(files, s)
		}
	}
	res.Items = append(res.Items, files...)
	return res, nil
}

func (g *Gateway) inspect(oc *opContext, raw string) (Result, error) {
	p := common.NormalizePath(raw)
	node, err := g.resolve(oc.ctx, p)
	if err != nil {
		if missing(err) {
			return &Summary{
				Filename: common.BaseName(p),
				Path:     common.DisplayPath(p),
				Status:   fail(CodeNotFound, msgFileNotFound),
			}, nil
		}
		return nil, storeError("inspect", err)
	}
	s := g.summarize(p, node, false)
	return &s, nil
}

// walkFunc visits one visible child of a directory during a tree walk.
type walkFunc func(p string, n *storage.Node) error

// walkVisible calls fn for each visible child of dir in store order.
func (g *Gateway) walkVisible(oc *opContext, dirPath string, dir *storage.Node, fn walkFunc) error {
	children, err := g.store.ListDir(oc.ctx, dir.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		childPath := common.JoinPath(dirPath, child.Name)
		if g.hidden.Hidden(childPath, child.IsDir()) {
			continue
		}
		if err := fn(childPath, child); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) tree(oc *opContext, foldersOnly bool) (Result, error) {
	root, err := g.store.Root(oc.ctx)
	if err != nil {
		return nil, storeError("filetree", err)
	}
	rootNode := TreeNode{Title: "/", Key: "/", IsFolder: true, Expand: true}
	if err := g.fillTree(oc, "", root, &rootNode, foldersOnly); err != nil {
		return nil, storeError("filetree", err)
	}
	return &TreeResult{Root: rootNode}, nil
}

func (g *Gateway) fillTree(oc *opContext, dirPath string, dir *storage.Node, into *TreeNode, foldersOnly bool) error {
	into.Children = []TreeNode{}
	return g.walkVisible(oc, dirPath, dir, func(p string, n *storage.Node) error {
		if !n.IsDir() {
			if !foldersOnly {
				into.Children = append(into.Children, TreeNode{Title: n.Name, Key: common.DisplayPath(p)})
			}
			return nil
		}
		child := TreeNode{Title: n.Name, Key: common.DisplayPath(p), IsFolder: true}
		if err := g.fillTree(oc, p, n, &child, foldersOnly); err != nil {
			return err
		}
		into.Children = append(into.Children, child)
		return nil
	})
}

func (g *Gateway) dataTree(oc *opContext) (Result, error) {
	root, err := g.store.Root(oc.ctx)
	if err != nil {
		return nil, storeError("datatree", err)
	}
	items, err := g.dataTreeItems(oc, "", root)
	if err != nil {
		return nil, storeError("datatree", err)
	}
	return &DataTreeResult{Items: items}, nil
}

func (g *Gateway) dataTreeItems(oc *opContext, dirPath string, dir *storage.Node) ([]any, error) {
	items := []any{}
	err := g.walkVisible(oc, dirPath, dir, func(p string, n *storage.Node) error {
		if !n.IsDir() {
			items = append(items, g.summarize(p, n, false))
			return nil
		}
		children, err := g.dataTreeItems(oc, p, n)
		if err != nil {
			return err
		}
		items = append(items, DataTreeItem{
			Label:    n.Name,
			Folder:   true,
			Path:     common.DisplayPath(p),
			Children: children,
		})
		return nil
	})
	return items, err
}
