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
	"errors"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"resourcefm/internal/common"
)

func (g *Gateway) read(oc *opContext, raw string) (Result, error) {
	p := common.NormalizePath(raw)
	res := &ReadResult{Ext: common.Extension(p)}

	node, err := g.resolve(oc.ctx, p)
	if err != nil {
		if missing(err) {
			res.Status = fail(CodeNotFound, msgFileNotFound)
			return res, nil
		}
		return nil, storeError("getfile", err)
	}
	if node.IsDir() {
		res.Status = fail(CodeInvalidPath, msgInvalidPath)
		return res, nil
	}

	if g.isImage(node.Name) {
		info := g.summarize(p, node, false)
		res.Info = &info
		return res, nil
	}

	data, err := g.store.ReadFile(oc.ctx, node.ID)
	if err != nil {
		return nil, storeError("getfile", err)
	}
	if !utf8.Valid(data) {
		oc.log.Debug("content is not text, returning metadata")
		info := g.summarize(p, node, false)
		res.Info = &info
		return res, nil
	}
	contents := string(data)
	res.Contents = &contents
	return res, nil
}

// write replaces the content of the file at rawPath, creating it when the
// parent directory exists. Surrounding whitespace is trimmed and CRLF line
// endings become LF.
func (g *Gateway) write(oc *opContext, rawPath, value string, relativeURLs bool) (Result, error) {
	p := common.NormalizePath(rawPath)
	parent, name := common.ParentPath(p), common.BaseName(p)
	res := &WriteResult{Path: common.DisplayPath(p)}

	dir, err := g.resolveDir(oc.ctx, parent)
	if err != nil {
		if missing(err) {
			res.Status = fail(CodeInvalidParent, msgInvalidParent)
			return res, nil
		}
		return nil, storeError("savefile", err)
	}
	if p == "" {
		res.Status = fail(CodeInvalidPath, msgInvalidPath)
		return res, nil
	}

	value = strings.ReplaceAll(strings.TrimSpace(value), "\r\n", "\n")
	if relativeURLs && g.cfg.RelativeURLsBase != "" {
		value = relativizeURLs(value, g.cfg.RelativeURLsBase, p)
	}

	existing, err := g.lookupChild(oc.ctx, dir, name)
	switch {
	case err == nil && existing.IsDir():
		res.Status = fail(CodeInvalidPath, msgInvalidPath)
		return res, nil
	case err == nil:
		err = g.store.WriteFile(oc.ctx, existing.ID, []byte(value))
	case errors.Is(err, common.ErrNotFound):
		if common.ValidateName(name) != nil {
			res.Status = fail(CodeInvalidName, msgInvalidFileName)
			return res, nil
		}
		_, err = g.store.CreateFile(oc.ctx, dir.ID, name, []byte(value))
	}
	if err != nil {
		return nil, storeError("savefile", err)
	}
	oc.log.WithField("bytes", len(value)).Info("saved")
	return res, nil
}

func (g *Gateway) download(oc *opContext, raw string) (Result, error) {
	p := common.NormalizePath(raw)
	res := &DownloadResult{Name: common.BaseName(p)}

	node, err := g.resolve(oc.ctx, p)
	if err != nil {
		if missing(err) {
			res.Status = fail(CodeNotFound, msgFileNotFound)
			return res, nil
		}
		return nil, storeError("download", err)
	}
	if node.IsDir() {
		res.Status = fail(CodeInvalidPath, msgInvalidPath)
		return res, nil
	}

	res.Data, err = g.store.ReadFile(oc.ctx, node.ID)
	if err != nil {
		return nil, storeError("download", err)
	}
	return res, nil
}

var cssURL = regexp.MustCompile(`url\(([^)]+)\)`)

// relativizeURLs rewrites url(...) references on the same host as base so
// they are relative to the directory holding the file at canonical path p.
func relativizeURLs(value, base, p string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return value
	}
	fromDir := path.Join("/", baseURL.Path, common.ParentPath(p))

	for _, m := range cssURL.FindAllStringSubmatch(value, -1) {
		ref := strings.Trim(strings.TrimSpace(m[1]), `'"`)
		asset, err := url.Parse(ref)
		if err != nil || asset.Host != baseURL.Host {
			continue
		}
		value = strings.ReplaceAll(value, ref, relPath(fromDir, asset.Path))
	}
	return value
}

// relPath returns the slash path of target relative to directory from.
// Both must be absolute.
func relPath(from, target string) string {
	f := common.SplitPath(path.Clean(from))
	t := common.SplitPath(path.Clean(target))

	i := 0
	for i < len(f) && i < len(t) && f[i] == t[i] {
		i++
	}
	parts := make([]string, 0, len(f)-i+len(t)-i)
	for range f[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, t[i:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}
