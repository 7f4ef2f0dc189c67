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
	"bytes"
	"encoding/json"
	"fmt"
)

// Content types produced by Encode.
const (
	ContentTypeJSON   = "application/json"
	ContentTypeHTML   = "text/html; charset=utf-8"
	ContentTypeBinary = "application/octet-stream"
)

// Encoded is a response body ready for a transport.
type Encoded struct {
	ContentType string
	Body        []byte
	// Filename is set for attachment bodies.
	Filename string
}

// Attachment reports whether the body should be framed as a download.
func (e *Encoded) Attachment() bool {
	return e.Filename != ""
}

// Encode serializes resp. Uploads are wrapped in a textarea element for
// iframe-based upload forms, and successful downloads carry raw bytes.
func Encode(resp *Response) (*Encoded, error) {
	if dl, ok := resp.Result.(*DownloadResult); ok && dl.OK() {
		return &Encoded{ContentType: ContentTypeBinary, Body: dl.Data, Filename: dl.Name}, nil
	}

	body, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", resp.Op, err)
	}
	if resp.Op == OpUpload {
		var buf bytes.Buffer
		buf.WriteString("<textarea>")
		buf.Write(body)
		buf.WriteString("</textarea>")
		return &Encoded{ContentType: ContentTypeHTML, Body: buf.Bytes()}, nil
	}
	return &Encoded{ContentType: ContentTypeJSON, Body: body}, nil
}
