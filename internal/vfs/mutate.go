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

	"resourcefm/internal/common"
)

func (g *Gateway) rename(oc *opContext, rawPath, newName string) (Result, error) {
	p := common.NormalizePath(rawPath)
	parent, oldName := common.ParentPath(p), common.BaseName(p)
	res := &RenameResult{
		OldParent: common.DisplayPath(parent),
		OldName:   oldName,
		NewParent: common.DisplayPath(parent),
		NewName:   newName,
	}

	dir, err := g.resolveDir(oc.ctx, parent)
	if err != nil {
		if missing(err) {
			res.Status = fail(CodeInvalidParent, msgInvalidParent)
			return res, nil
		}
		return nil, storeError("rename", err)
	}
	if p == "" {
		res.Status = fail(CodeInvalidPath, msgInvalidPath)
		return res, nil
	}
	if _, err := g.lookupChild(oc.ctx, dir, oldName); err != nil {
		if missing(err) {
			res.Status = fail(CodeNotFound, msgFileNotFound)
			return res, nil
		}
		return nil, storeError("rename", err)
	}
	if newName == oldName {
		return res, nil
	}
	if common.ValidateName(newName) != nil {
		res.Status = fail(CodeInvalidName, msgInvalidFileName)
		return res, nil
	}

	taken, err := g.exists(oc.ctx, dir, newName)
	if err != nil {
		return nil, storeError("rename", err)
	}
	if taken {
		res.Status = fail(CodeAlreadyExists, msgFileExists)
		return res, nil
	}

	if err := g.store.Rename(oc.ctx, dir.ID, oldName, newName); err != nil {
		if errors.Is(err, common.ErrExists) {
			res.Status = fail(CodeAlreadyExists, msgFileExists)
			return res, nil
		}
		return nil, storeError("rename", err)
	}
	oc.log.WithField("new_name", newName).Info("renamed")
	return res, nil
}

// move re-parents the node at rawPath under rawDir. The source parent and
// the destination are both resolved before either failure is reported, so
// a missing source parent wins over a missing destination.
func (g *Gateway) move(oc *opContext, rawPath, rawDir string) (Result, error) {
	p := common.NormalizePath(rawPath)
	dest := common.NormalizePath(rawDir)
	parent, name := common.ParentPath(p), common.BaseName(p)
	res := &MoveResult{NewPath: common.DisplayPath(common.JoinPath(dest, name))}

	srcDir, srcErr := g.resolveDir(oc.ctx, parent)
	dstDir, dstErr := g.resolveDir(oc.ctx, dest)
	for _, err := range []error{srcErr, dstErr} {
		if err != nil && !missing(err) {
			return nil, storeError("move", err)
		}
	}

	switch {
	case srcErr != nil:
		res.Status = fail(CodeInvalidParent, msgInvalidParent)
		return res, nil
	case dstErr != nil:
		res.Status = fail(CodeDestinationNotFound, msgDestinationMissing)
		return res, nil
	case p == "":
		res.Status = fail(CodeInvalidPath, msgInvalidPath)
		return res, nil
	}

	if _, err := g.lookupChild(oc.ctx, srcDir, name); err != nil {
		if missing(err) {
			res.Status = fail(CodeSourceNotFound, msgFileNotFound)
			return res, nil
		}
		return nil, storeError("move", err)
	}

	taken, err := g.exists(oc.ctx, dstDir, name)
	if err != nil {
		return nil, storeError("move", err)
	}
	if taken {
		res.Status = fail(CodeAlreadyExists, msgFileExists)
		return res, nil
	}

	if err := g.store.Move(oc.ctx, srcDir.ID, name, dstDir.ID); err != nil {
		switch {
		case errors.Is(err, common.ErrExists):
			res.Status = fail(CodeAlreadyExists, msgFileExists)
			return res, nil
		case errors.Is(err, common.ErrInvalidPath):
			res.Status = fail(CodeInvalidPath, msgInvalidPath)
			return res, nil
		}
		return nil, storeError("move", err)
	}
	oc.log.WithField("new_path", res.NewPath).Info("moved")
	return res, nil
}

func (g *Gateway) delete(oc *opContext, rawPath string) (Result, error) {
	p := common.NormalizePath(rawPath)
	parent, name := common.ParentPath(p), common.BaseName(p)
	res := &DeleteResult{Path: common.DisplayPath(p)}

	dir, err := g.resolveDir(oc.ctx, parent)
	if err != nil {
		if missing(err) {
			res.Status = fail(CodeInvalidParent, msgInvalidParent)
			return res, nil
		}
		return nil, storeError("delete", err)
	}
	if p == "" {
		res.Status = fail(CodeInvalidPath, msgInvalidPath)
		return res, nil
	}
	if _, err := g.lookupChild(oc.ctx, dir, name); err != nil {
		if missing(err) {
			res.Status = fail(CodeNotFound, msgFileNotFound)
			return res, nil
		}
		return nil, storeError("delete", err)
	}

	if err := g.store.Remove(oc.ctx, dir.ID, name); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			res.Status = fail(CodeNotFound, msgFileNotFound)
			return res, nil
		}
		return nil, storeError("delete", err)
	}
	oc.log.Info("deleted")
	return res, nil
}
