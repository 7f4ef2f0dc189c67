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
	"time"

	log "github.com/sirupsen/logrus"
)

type handler func(oc *opContext) (Result, error)

// Response pairs a result with the operation that produced it.
type Response struct {
	RequestID string
	Op        Op
	Result    Result
}

// Status returns the result's status envelope.
func (r *Response) Status() Status {
	return r.Result.status()
}

func (g *Gateway) dispatchTable() map[Op]handler {
	return map[Op]handler{
		OpList: func(oc *opContext) (Result, error) {
			return g.list(oc, oc.req.Param(ParamPath))
		},
		OpInspect: func(oc *opContext) (Result, error) {
			return g.inspect(oc, oc.req.Param(ParamPath))
		},
		OpCreateFolder: func(oc *opContext) (Result, error) {
			return g.createFolder(oc, oc.req.Param(ParamPath), oc.req.Param(ParamName))
		},
		OpCreateFile: func(oc *opContext) (Result, error) {
			return g.createFile(oc, oc.req.Param(ParamPath), oc.req.Param(ParamName))
		},
		OpUpload: func(oc *opContext) (Result, error) {
			return g.upload(oc, oc.req.Param(ParamCurrentPath), oc.req.Upload, oc.req.Param(ParamReplacePath))
		},
		OpRename: func(oc *opContext) (Result, error) {
			return g.rename(oc, oc.req.Param(ParamOld), oc.req.Param(ParamNew))
		},
		OpMove: func(oc *opContext) (Result, error) {
			return g.move(oc, oc.req.Param(ParamPath), oc.req.Param(ParamDirectory))
		},
		OpDelete: func(oc *opContext) (Result, error) {
			return g.delete(oc, oc.req.Param(ParamPath))
		},
		OpRead: func(oc *opContext) (Result, error) {
			return g.read(oc, oc.req.Param(ParamPath))
		},
		OpWrite: func(oc *opContext) (Result, error) {
			return g.write(oc, oc.req.Param(ParamPath), oc.req.Param(ParamValue), oc.req.HasParam(ParamRelativeURLs))
		},
		OpDownload: func(oc *opContext) (Result, error) {
			return g.download(oc, oc.req.Param(ParamPath))
		},
		OpTree: func(oc *opContext) (Result, error) {
			return g.tree(oc, oc.req.Flag(ParamFoldersOnly))
		},
		OpDataTree: func(oc *opContext) (Result, error) {
			return g.dataTree(oc)
		},
	}
}

// Do runs req. Taxonomy failures come back as a nonzero status in the
// result; a non-nil error means the store itself failed. A nil req is an
// unknown request.
func (g *Gateway) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		req = NewRequest("", nil)
	}
	op, err := ParseOp(req.Mode)
	oc := g.newOpContext(ctx, req, op)
	resp := &Response{RequestID: oc.req.ID, Op: op}

	if err != nil {
		oc.log.WithField("raw_mode", req.Mode).Debug("unknown mode")
		return UnknownResponse(oc.req.ID), nil
	}

	if g.protected[op] && g.authorizer != nil && !g.authorizer.Authorize(ctx, req) {
		oc.log.Warn("unauthorized request for protected operation")
		resp.Result = &StatusResult{fail(CodeUnauthorized, msgUnauthorized)}
		return resp, nil
	}

	start := time.Now()
	result, err := g.handlers[op](oc)
	if err != nil {
		oc.log.WithError(err).Error("store failure")
		return nil, err
	}
	resp.Result = result

	st := result.status()
	oc.log.WithFields(log.Fields{
		"path":     firstParam(req, ParamPath, ParamOld, ParamCurrentPath),
		"code":     int(st.Code),
		"duration": time.Since(start),
	}).Debug("handled")
	return resp, nil
}

// UnknownResponse is the envelope answered for a request naming no known
// operation.
func UnknownResponse(requestID string) *Response {
	return &Response{
		RequestID: requestID,
		Op:        OpUnknown,
		Result:    &StatusResult{fail(CodeUnknownRequest, msgUnknownRequest)},
	}
}

func firstParam(req *Request, names ...string) string {
	for _, n := range names {
		if v := req.Param(n); v != "" {
			return v
		}
	}
	return ""
}
