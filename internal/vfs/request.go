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
	"crypto/subtle"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Request parameter names.
const (
	ParamPath         = "path"
	ParamName         = "name"
	ParamCurrentPath  = "currentpath"
	ParamReplacePath  = "replacepath"
	ParamOld          = "old"
	ParamNew          = "new"
	ParamDirectory    = "directory"
	ParamValue        = "value"
	ParamRelativeURLs = "relativeUrls"
	ParamFoldersOnly  = "foldersOnly"
)

// Upload is a file attached to an add request.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Request is one inbound gateway call.
type Request struct {
	ID     string
	Mode   string
	Params map[string]string
	Upload *Upload
	Token  string
}

// NewRequest builds a request with a fresh id.
func NewRequest(mode string, params map[string]string) *Request {
	if params == nil {
		params = map[string]string{}
	}
	return &Request{ID: uuid.NewString(), Mode: mode, Params: params}
}

// Param returns a parameter value, or "" when absent.
func (r *Request) Param(name string) string {
	if r == nil || r.Params == nil {
		return ""
	}
	return r.Params[name]
}

// HasParam reports whether name was supplied at all.
func (r *Request) HasParam(name string) bool {
	if r == nil || r.Params == nil {
		return false
	}
	_, ok := r.Params[name]
	return ok
}

// Flag interprets a parameter as a boolean. Any non-empty value other than
// "false" or "0" is true.
func (r *Request) Flag(name string) bool {
	v := strings.ToLower(strings.TrimSpace(r.Param(name)))
	return v != "" && v != "false" && v != "0"
}

// Authorizer decides whether a protected request may run.
type Authorizer interface {
	Authorize(ctx context.Context, req *Request) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, req *Request) bool

func (f AuthorizerFunc) Authorize(ctx context.Context, req *Request) bool {
	return f(ctx, req)
}

// TokenAuthorizer accepts requests carrying a shared token. An empty
// token accepts everything.
type TokenAuthorizer struct {
	Token string
}

func (a TokenAuthorizer) Authorize(_ context.Context, req *Request) bool {
	if a.Token == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(a.Token), []byte(req.Token)) == 1
}
