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
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"resourcefm/internal/common"
	"resourcefm/internal/storage"
)

// Config tunes gateway behavior. Zero values select the defaults.
type Config struct {
	// PreviewBaseURL prefixes preview links in summaries.
	PreviewBaseURL string
	// ImageExtensions are read as metadata only and previewed inline.
	ImageExtensions []string
	// Hidden holds gitignore-style patterns excluded from list and tree.
	Hidden []string
	// Protected overrides DefaultProtected when non-nil.
	Protected []Op
	// Authorizer guards protected operations. Nil allows everything.
	Authorizer Authorizer
	// RelativeURLsBase is the public URL of the tree root, used when a
	// write asks for url(...) references to be made relative.
	RelativeURLsBase string
}

// DefaultImageExtensions are used when Config.ImageExtensions is empty.
var DefaultImageExtensions = []string{"png", "gif", "jpg", "jpeg", "ico"}

// Gateway runs file manager operations against a Store.
// It holds no locks of its own; each call is a validate-then-mutate
// sequence against the store.
type Gateway struct {
	store      Store
	cfg        Config
	images     map[string]bool
	protected  map[Op]bool
	hidden     *HiddenFilter
	handlers   map[Op]handler
	authorizer Authorizer
}

// New creates a gateway over store.
func New(store Store, cfg Config) *Gateway {
	g := &Gateway{
		store:      store,
		cfg:        cfg,
		images:     make(map[string]bool),
		protected:  make(map[Op]bool),
		hidden:     NewHiddenFilter(cfg.Hidden),
		authorizer: cfg.Authorizer,
	}

	exts := cfg.ImageExtensions
	if len(exts) == 0 {
		exts = DefaultImageExtensions
	}
	for _, ext := range exts {
		g.images[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	protected := cfg.Protected
	if protected == nil {
		protected = DefaultProtected()
	}
	for _, op := range protected {
		g.protected[op] = true
	}

	g.handlers = g.dispatchTable()
	return g
}

// IsProtected reports whether op requires authorization.
func (g *Gateway) IsProtected(op Op) bool {
	return g.protected[op]
}

// opContext is threaded through every handler.
type opContext struct {
	ctx context.Context
	req *Request
	log *log.Entry
}

func (g *Gateway) newOpContext(ctx context.Context, req *Request, op Op) *opContext {
	return &opContext{
		ctx: ctx,
		req: req,
		log: log.WithFields(log.Fields{"request_id": req.ID, "mode": op.String()}),
	}
}

// --- Node Resolver ---

// resolve walks canonical path p from the root. Any missing segment, a
// traversal through a file, an empty segment, or a "." / ".." segment
// yields common.ErrNotFound.
func (g *Gateway) resolve(ctx context.Context, p string) (*storage.Node, error) {
	if common.HasDotSegment(p) {
		return nil, common.ErrNotFound
	}
	node, err := g.store.Root(ctx)
	if err != nil {
		return nil, err
	}
	for _, seg := range common.SplitPath(p) {
		if seg == "" || !node.IsDir() {
			return nil, common.ErrNotFound
		}
		node, err = g.store.Lookup(ctx, node.ID, seg)
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// resolveDir resolves p and requires a directory.
func (g *Gateway) resolveDir(ctx context.Context, p string) (*storage.Node, error) {
	node, err := g.resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	if !node.IsDir() {
		return nil, common.ErrNotFound
	}
	return node, nil
}

// lookupChild finds name in dir, treating dot segments as absent.
func (g *Gateway) lookupChild(ctx context.Context, dir *storage.Node, name string) (*storage.Node, error) {
	if name == "" || common.IsDotSegment(name) {
		return nil, common.ErrNotFound
	}
	return g.store.Lookup(ctx, dir.ID, name)
}

// exists reports whether dir has a child called name.
func (g *Gateway) exists(ctx context.Context, dir *storage.Node, name string) (bool, error) {
	_, err := g.lookupChild(ctx, dir, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// missing reports whether err is a resolution miss rather than a store fault.
func missing(err error) bool {
	return errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrNotDir)
}

// storeError wraps an unexpected store failure for the transport.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
