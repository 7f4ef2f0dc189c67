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

package daemon

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/puzpuzpuz/xsync/v3"

	"resourcefm/internal/vfs"
)

// ExecuteOp runs an op request against g and packs the outcome into an
// IPC response. Store failures come back with Success false; taxonomy
// failures are successful responses carrying a nonzero Code.
func ExecuteOp(ctx context.Context, g *vfs.Gateway, req *Request) *Response {
	vreq := vfs.NewRequest(req.Mode, req.Params)
	if req.RequestID != "" {
		vreq.ID = req.RequestID
	}
	if req.Upload != nil {
		vreq.Upload = &vfs.Upload{
			Filename: req.Upload.Filename,
			Body:     bytes.NewReader(req.Upload.Data),
		}
	}

	resp, err := g.Do(ctx, vreq)
	if err != nil {
		return &Response{Success: false, Error: err.Error(), RequestID: vreq.ID}
	}

	st := resp.Status()
	out := &Response{
		Success:   true,
		RequestID: resp.RequestID,
		Code:      int(st.Code),
		Message:   st.Message,
	}
	if dl, ok := resp.Result.(*vfs.DownloadResult); ok && dl.OK() {
		out.Data = dl.Data
		out.Filename = dl.Name
	}
	body, err := json.Marshal(resp.Result)
	if err != nil {
		return &Response{Success: false, Error: err.Error(), RequestID: vreq.ID}
	}
	out.Result = body
	return out
}

// requestCounters counts handled requests per mode. Safe for concurrent use
// by the HTTP and IPC front ends.
type requestCounters struct {
	m *xsync.MapOf[string, *xsync.Counter]
}

func newRequestCounters() *requestCounters {
	return &requestCounters{m: xsync.NewMapOf[string, *xsync.Counter]()}
}

func (c *requestCounters) inc(mode string) {
	counter, _ := c.m.LoadOrCompute(mode, func() *xsync.Counter {
		return xsync.NewCounter()
	})
	counter.Inc()
}

// snapshot returns the current counts keyed by mode.
func (c *requestCounters) snapshot() map[string]int64 {
	out := make(map[string]int64, c.m.Size())
	c.m.Range(func(mode string, counter *xsync.Counter) bool {
		out[mode] = counter.Value()
		return true
	})
	return out
}

