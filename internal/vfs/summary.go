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
	"fmt"
	"strings"
	"time"

	"resourcefm/internal/common"
	"resourcefm/internal/storage"
)

const fileTypeDir = "dir"

// DateLayout renders modification times in the C locale %c form.
const DateLayout = time.ANSIC

// iconExtensions have a dedicated file icon.
var iconExtensions = map[string]bool{
	"aac": true, "avi": true, "bmp": true, "chm": true, "css": true,
	"dll": true, "doc": true, "fla": true, "gif": true, "htm": true,
	"html": true, "ini": true, "jar": true, "jpeg": true, "jpg": true,
	"js": true, "lasso": true, "mdb": true, "mov": true, "mp3": true,
	"mpg": true, "pdf": true, "php": true, "png": true, "ppt": true,
	"py": true, "rb": true, "real": true, "reg": true, "rtf": true,
	"sql": true, "swf": true, "txt": true, "vbs": true, "wav": true,
	"wma": true, "wmv": true, "xls": true, "xml": true, "xsl": true,
	"zip": true,
}

// FormatSize renders a byte count as whole kilobytes, or whole megabytes
// once the kilobyte value reaches 1024.
func FormatSize(size int64) string {
	kb := size / 1024
	if kb < 1024 {
		return fmt.Sprintf("%dkb", kb)
	}
	return fmt.Sprintf("%dmb", kb/1024)
}

func (g *Gateway) isImage(name string) bool {
	return g.images[common.Extension(name)]
}

// preview picks the preview URL for canonical path p.
func (g *Gateway) preview(p string, n *storage.Node) string {
	base := strings.TrimRight(g.cfg.PreviewBaseURL, "/")
	if n.IsDir() {
		return base + "/images/fileicons/_Open.png"
	}
	ext := common.Extension(n.Name)
	switch {
	case g.images[ext]:
		return base + "/" + common.NormalizePath(p)
	case iconExtensions[ext]:
		return base + "/images/fileicons/" + ext + ".png"
	default:
		return base + "/images/fileicons/default.png"
	}
}

// summarize builds the Summary of node n at canonical path p. Directory
// paths get a trailing slash when inListing is set.
func (g *Gateway) summarize(p string, n *storage.Node, inListing bool) Summary {
	s := Summary{
		Filename: n.Name,
		Path:     common.DisplayPath(p),
		Preview:  g.preview(p, n),
	}
	if n.IsRoot() {
		s.Filename = "/"
	}

	if n.IsDir() {
		s.FileType = fileTypeDir
		if inListing {
			s.Path = common.DisplayDirPath(p)
		}
		return s
	}

	s.FileType = common.Extension(n.Name)
	modified := n.Mtime.Format(DateLayout)
	s.Properties.DateModified = &modified
	s.Properties.Size = FormatSize(n.Size)
	if n.HasDimensions() {
		w, h := n.Width, n.Height
		s.Properties.Width = &w
		s.Properties.Height = &h
	}
	return s
}
