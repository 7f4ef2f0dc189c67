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

import "strconv"

// Code is the numeric status carried by every result.
type Code int

const (
	CodeOK                  Code = 0
	CodeInvalidParent       Code = 1
	CodeInvalidName         Code = 2
	CodeAlreadyExists       Code = 3
	CodeNotFound            Code = 4
	CodeSourceNotFound      Code = 5
	CodeDestinationNotFound Code = 6
	CodeInvalidPayload      Code = 7
	CodeInvalidPath         Code = 8
	CodeUnauthorized        Code = 9
	CodeUnknownRequest      Code = -1
)

var codeNames = map[Code]string{
	CodeOK:                  "OK",
	CodeInvalidParent:       "InvalidParent",
	CodeInvalidName:         "InvalidName",
	CodeAlreadyExists:       "AlreadyExists",
	CodeNotFound:            "NotFound",
	CodeSourceNotFound:      "SourceNotFound",
	CodeDestinationNotFound: "DestinationNotFound",
	CodeInvalidPayload:      "InvalidPayload",
	CodeInvalidPath:         "InvalidPath",
	CodeUnauthorized:        "Unauthorized",
	CodeUnknownRequest:      "UnknownRequest",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "Code(" + strconv.Itoa(int(c)) + ")"
}

// User-facing messages.
const (
	msgInvalidParent      = "Parent folder not found."
	msgInvalidFolderName  = "Invalid folder name."
	msgInvalidFileName    = "Invalid file name."
	msgFolderExists       = "Folder already exists."
	msgFileExists         = "File already exists."
	msgFileNotFound       = "File not found."
	msgDestinationMissing = "Destination folder not found."
	msgInvalidPayload     = "Could not read file."
	msgInvalidPath        = "Invalid path."
	msgUnauthorized       = "Unauthorized."
	msgUnknownRequest     = "Unknown request"
)

// Status is embedded in every result and flattens into the JSON envelope.
type Status struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// OK reports whether the status is a success.
func (s Status) OK() bool {
	return s.Code == CodeOK
}

func (s Status) status() Status {
	return s
}

func fail(code Code, msg string) Status {
	return Status{Code: code, Message: msg}
}
