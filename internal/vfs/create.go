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
	"io"

	log "github.com/sirupsen/logrus"

	"resourcefm/internal/common"
	"resourcefm/internal/storage"
)

func (g *Gateway) createFolder(oc *opContext, rawParent, name string) (Result, error) {
	parent := common.NormalizePath(rawParent)
	res := &CreateResult{Parent: common.DisplayPath(parent), Name: name}

	st, dir, err := g.checkNewChild(oc, parent, name, msgInvalidFolderName, msgFolderExists)
	if err != nil || !st.OK() {
		res.Status = st
		return res, err
	}

	if _, err := g.store.Mkdir(oc.ctx, dir.ID, name); err != nil {
		if errors.Is(err, common.ErrExists) {
			res.Status = fail(CodeAlreadyExists, msgFolderExists)
			return res, nil
		}
		return nil, storeError("addfolder", err)
	}
	oc.log.WithField("name", name).Info("folder created")
	return res, nil
}

func (g *Gateway) createFile(oc *opContext, rawParent, name string) (Result, error) {
	parent := common.NormalizePath(rawParent)
	res := &CreateResult{Parent: common.DisplayPath(parent), Name: name}

	st, dir, err := g.checkNewChild(oc, parent, name, msgInvalidFileName, msgFileExists)
	if err != nil || !st.OK() {
		res.Status = st
		return res, err
	}

	if _, err := g.store.CreateFile(oc.ctx, dir.ID, name, nil); err != nil {
		if errors.Is(err, common.ErrExists) {
			res.Status = fail(CodeAlreadyExists, msgFileExists)
			return res, nil
		}
		return nil, storeError("addnew", err)
	}
	oc.log.WithField("name", name).Info("file created")
	return res, nil
}

// checkNewChild runs the InvalidParent, InvalidName, AlreadyExists chain
// shared by the create operations and returns the resolved parent.
func (g *Gateway) checkNewChild(oc *opContext, parent, name, badName, taken string) (Status, *storage.Node, error) {
	dir, err := g.resolveDir(oc.ctx, parent)
	if err != nil {
		if missing(err) {
			return fail(CodeInvalidParent, msgInvalidParent), nil, nil
		}
		return Status{}, nil, storeError("resolve parent", err)
	}
	if common.ValidateName(name) != nil {
		return fail(CodeInvalidName, badName), nil, nil
	}
	found, err := g.exists(oc.ctx, dir, name)
	if err != nil {
		return Status{}, nil, storeError("lookup", err)
	}
	if found {
		return fail(CodeAlreadyExists, taken), nil, nil
	}
	return Status{}, dir, nil
}

// upload stores an uploaded file under currentPath. With replacePath set,
// the upload is written to that exact path instead, overwriting any file
// already there.
func (g *Gateway) upload(oc *opContext, currentPath string, up *Upload, replacePath string) (Result, error) {
	parent := common.NormalizePath(currentPath)
	res := &UploadResult{Path: common.DisplayPath(parent)}
	if up == nil || up.Body == nil {
		res.Parent = common.DisplayPath(parent)
		res.Status = fail(CodeInvalidPayload, msgInvalidPayload)
		return res, nil
	}
	res.Name = up.Filename

	replacing := replacePath != ""
	target := common.JoinPath(parent, up.Filename)
	if replacing {
		target = common.NormalizePath(replacePath)
		parent = common.ParentPath(target)
	}
	res.Parent = common.DisplayPath(parent)
	name := common.BaseName(target)

	dir, err := g.resolveDir(oc.ctx, parent)
	if err != nil {
		if missing(err) {
			res.Status = fail(CodeInvalidParent, msgInvalidParent)
			return res, nil
		}
		return nil, storeError("add", err)
	}

	if replacing {
		if target == "" || common.IsDotSegment(name) {
			res.Status = fail(CodeInvalidPath, msgInvalidPath)
			return res, nil
		}
	} else if common.ValidateName(up.Filename) != nil {
		res.Status = fail(CodeInvalidName, msgInvalidFileName)
		return res, nil
	}

	existing, err := g.lookupChild(oc.ctx, dir, name)
	switch {
	case err == nil && !replacing:
		res.Status = fail(CodeAlreadyExists, msgFileExists)
		return res, nil
	case err == nil && existing.IsDir():
		res.Status = fail(CodeInvalidPath, msgInvalidPath)
		return res, nil
	case err != nil && !errors.Is(err, common.ErrNotFound):
		return nil, storeError("add", err)
	}
	// Replacing may overwrite any existing file but never creates a bad name
	if replacing && existing == nil && common.ValidateName(name) != nil {
		res.Status = fail(CodeInvalidName, msgInvalidFileName)
		return res, nil
	}

	data, err := io.ReadAll(up.Body)
	if err != nil {
		oc.log.WithError(err).Warn("upload payload unreadable")
		res.Status = fail(CodeInvalidPayload, msgInvalidPayload)
		return res, nil
	}

	if existing != nil {
		err = g.store.WriteFile(oc.ctx, existing.ID, data)
	} else {
		_, err = g.store.CreateFile(oc.ctx, dir.ID, name, data)
	}
	if err != nil {
		if errors.Is(err, common.ErrExists) {
			res.Status = fail(CodeAlreadyExists, msgFileExists)
			return res, nil
		}
		return nil, storeError("add", err)
	}
	oc.log.WithFields(log.Fields{"target": target, "bytes": len(data)}).Info("upload stored")
	return res, nil
}
