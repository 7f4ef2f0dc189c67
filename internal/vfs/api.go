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

import "context"

// Typed entry points for in-process callers. They run the same handlers as
// Do but skip the authorization check.

func (g *Gateway) call(ctx context.Context, op Op, params map[string]string, fn handler) (Result, error) {
	oc := g.newOpContext(ctx, NewRequest(op.String(), params), op)
	return fn(oc)
}

// List returns the visible children of the directory at p, directories first.
func (g *Gateway) List(ctx context.Context, p string) (*ListResult, error) {
	r, err := g.call(ctx, OpList, map[string]string{ParamPath: p}, func(oc *opContext) (Result, error) {
		return g.list(oc, p)
	})
	if err != nil {
		return nil, err
	}
	return r.(*ListResult), nil
}

// Inspect returns the summary of the node at p.
func (g *Gateway) Inspect(ctx context.Context, p string) (*Summary, error) {
	r, err := g.call(ctx, OpInspect, map[string]string{ParamPath: p}, func(oc *opContext) (Result, error) {
		return g.inspect(oc, p)
	})
	if err != nil {
		return nil, err
	}
	return r.(*Summary), nil
}

func (g *Gateway) CreateFolder(ctx context.Context, parent, name string) (*CreateResult, error) {
	r, err := g.call(ctx, OpCreateFolder, map[string]string{ParamPath: parent, ParamName: name}, func(oc *opContext) (Result, error) {
		return g.createFolder(oc, parent, name)
	})
	if err != nil {
		return nil, err
	}
	return r.(*CreateResult), nil
}

func (g *Gateway) CreateFile(ctx context.Context, parent, name string) (*CreateResult, error) {
	r, err := g.call(ctx, OpCreateFile, map[string]string{ParamPath: parent, ParamName: name}, func(oc *opContext) (Result, error) {
		return g.createFile(oc, parent, name)
	})
	if err != nil {
		return nil, err
	}
	return r.(*CreateResult), nil
}

// Upload stores up under parent, or at replacePath when it is non-empty.
func (g *Gateway) Upload(ctx context.Context, parent string, up *Upload, replacePath string) (*UploadResult, error) {
	params := map[string]string{ParamCurrentPath: parent, ParamReplacePath: replacePath}
	r, err := g.call(ctx, OpUpload, params, func(oc *opContext) (Result, error) {
		return g.upload(oc, parent, up, replacePath)
	})
	if err != nil {
		return nil, err
	}
	return r.(*UploadResult), nil
}

func (g *Gateway) Rename(ctx context.Context, p, newName string) (*RenameResult, error) {
	r, err := g.call(ctx, OpRename, map[string]string{ParamOld: p, ParamNew: newName}, func(oc *opContext) (Result, error) {
		return g.rename(oc, p, newName)
	})
	if err != nil {
		return nil, err
	}
	return r.(*RenameResult), nil
}

func (g *Gateway) Move(ctx context.Context, p, destDir string) (*MoveResult, error) {
	r, err := g.call(ctx, OpMove, map[string]string{ParamPath: p, ParamDirectory: destDir}, func(oc *opContext) (Result, error) {
		return g.move(oc, p, destDir)
	})
	if err != nil {
		return nil, err
	}
	return r.(*MoveResult), nil
}

func (g *Gateway) Delete(ctx context.Context, p string) (*DeleteResult, error) {
	r, err := g.call(ctx, OpDelete, map[string]string{ParamPath: p}, func(oc *opContext) (Result, error) {
		return g.delete(oc, p)
	})
	if err != nil {
		return nil, err
	}
	return r.(*DeleteResult), nil
}

func (g *Gateway) Read(ctx context.Context, p string) (*ReadResult, error) {
	r, err := g.call(ctx, OpRead, map[string]string{ParamPath: p}, func(oc *opContext) (Result, error) {
		return g.read(oc, p)
	})
	if err != nil {
		return nil, err
	}
	return r.(*ReadResult), nil
}

// Write saves content at p. See write for the normalization applied.
func (g *Gateway) Write(ctx context.Context, p, content string, relativeURLs bool) (*WriteResult, error) {
	r, err := g.call(ctx, OpWrite, map[string]string{ParamPath: p}, func(oc *opContext) (Result, error) {
		return g.write(oc, p, content, relativeURLs)
	})
	if err != nil {
		return nil, err
	}
	return r.(*WriteResult), nil
}

func (g *Gateway) Download(ctx context.Context, p string) (*DownloadResult, error) {
	r, err := g.call(ctx, OpDownload, map[string]string{ParamPath: p}, func(oc *opContext) (Result, error) {
		return g.download(oc, p)
	})
	if err != nil {
		return nil, err
	}
	return r.(*DownloadResult), nil
}

func (g *Gateway) Tree(ctx context.Context, foldersOnly bool) (*TreeResult, error) {
	r, err := g.call(ctx, OpTree, nil, func(oc *opContext) (Result, error) {
		return g.tree(oc, foldersOnly)
	})
	if err != nil {
		return nil, err
	}
	return r.(*TreeResult), nil
}

func (g *Gateway) DataTree(ctx context.Context) (*DataTreeResult, error) {
	r, err := g.call(ctx, OpDataTree, nil, func(oc *opContext) (Result, error) {
		return g.dataTree(oc)
	})
	if err != nil {
		return nil, err
	}
	return r.(*DataTreeResult), nil
}
