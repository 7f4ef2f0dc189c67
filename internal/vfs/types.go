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

import "encoding/json"

// Result is implemented by every operation result.
type Result interface {
	status() Status
}

// Properties describes a node's display metadata.
// DateModified is nil for directories; Size is empty for directories.
type Properties struct {
	DateModified *string `json:"dateModified"`
	Size         string  `json:"size,omitempty"`
	Width        *int    `json:"width,omitempty"`
	Height       *int    `json:"height,omitempty"`
}

// Summary is the per-node descriptor returned by list and inspect.
type Summary struct {
	Filename   string     `json:"filename"`
	Path       string     `json:"path"`
	FileType   string     `json:"fileType"`
	Preview    string     `json:"preview"`
	Properties Properties `json:"properties"`
	Status
}

// IsDir reports whether the summary describes a directory.
func (s *Summary) IsDir() bool {
	return s.FileType == fileTypeDir
}

type ListResult struct {
	Status
	Path  string    `json:"path"`
	Items []Summary `json:"items"`
}

// CreateResult answers createFolder and createFile.
type CreateResult struct {
	Status
	Parent string `json:"parent"`
	Name   string `json:"name"`
}

type UploadResult struct {
	Status
	Parent string `json:"parent"`
	Path   string `json:"path"`
	Name   string `json:"name"`
}

type RenameResult struct {
	Status
	OldParent string `json:"oldParent"`
	OldName   string `json:"oldName"`
	NewParent string `json:"newParent"`
	NewName   string `json:"newName"`
}

// MoveResult always carries the intended destination, even on failure.
type MoveResult struct {
	Status
	NewPath string `json:"newPath"`
}

type DeleteResult struct {
	Status
	Path string `json:"path"`
}

// ReadResult carries either Contents or, for images and undecodable
// payloads, Info.
type ReadResult struct {
	Status
	Ext      string   `json:"ext"`
	Contents *string  `json:"contents,omitempty"`
	Info     *Summary `json:"info,omitempty"`
}

type WriteResult struct {
	Status
	Path string `json:"path"`
}

// DownloadResult holds the raw payload; transports frame it as an attachment.
type DownloadResult struct {
	Status
	Name string `json:"name,omitempty"`
	Data []byte `json:"-"`
}

// TreeNode is one entry of the navigation tree. Files carry only a title
// and key.
type TreeNode struct {
	Title    string     `json:"title"`
	Key      string     `json:"key"`
	IsFolder bool       `json:"isFolder"`
	Expand   bool       `json:"expand,omitempty"`
	Children []TreeNode `json:"children"`
}

func (n TreeNode) MarshalJSON() ([]byte, error) {
	if !n.IsFolder {
		return json.Marshal(struct {
			Title string `json:"title"`
			Key   string `json:"key"`
		}{n.Title, n.Key})
	}
	type folder TreeNode
	f := folder(n)
	if f.Children == nil {
		f.Children = []TreeNode{}
	}
	return json.Marshal(f)
}

// TreeResult encodes as a bare array holding the root node.
type TreeResult struct {
	Status
	Root TreeNode
}

func (r TreeResult) MarshalJSON() ([]byte, error) {
	return json.Marshal([]TreeNode{r.Root})
}

// DataTreeItem is a folder entry of the editor data tree. Files are
// represented by their Summary.
type DataTreeItem struct {
	Label    string `json:"label"`
	Folder   bool   `json:"folder"`
	Path     string `json:"path"`
	Children []any  `json:"children"`
}

// DataTreeResult encodes as a bare array of the root's entries.
type DataTreeResult struct {
	Status
	Items []any
}

func (r DataTreeResult) MarshalJSON() ([]byte, error) {
	if r.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Items)
}

// StatusResult is returned when no operation ran, for unknown modes and
// denied requests.
type StatusResult struct {
	Status
}

var (
	_ Result = (*ListResult)(nil)
	_ Result = (*Summary)(nil)
	_ Result = (*CreateResult)(nil)
	_ Result = (*UploadResult)(nil)
	_ Result = (*RenameResult)(nil)
	_ Result = (*MoveResult)(nil)
	_ Result = (*DeleteResult)(nil)
	_ Result = (*ReadResult)(nil)
	_ Result = (*WriteResult)(nil)
	_ Result = (*DownloadResult)(nil)
	_ Result = (*TreeResult)(nil)
	_ Result = (*DataTreeResult)(nil)
	_ Result = (*StatusResult)(nil)
)
