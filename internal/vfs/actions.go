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
)

// action maps an editor action name onto a mode and renames its
// parameters to the mode's parameter names.
type action struct {
	op     Op
	params map[string]string
}

var actions = map[string]action{
	"datatree":   {op: OpDataTree},
	"getfile":    {op: OpRead, params: map[string]string{"path": ParamPath}},
	"savefile":   {op: OpWrite, params: map[string]string{"path": ParamPath, "data": ParamValue, ParamRelativeURLs: ParamRelativeURLs}},
	"addfolder":  {op: OpCreateFolder, params: map[string]string{"path": ParamPath, "name": ParamName}},
	"addfile":    {op: OpCreateFile, params: map[string]string{"path": ParamPath, "filename": ParamName}},
	"renamefile": {op: OpRename, params: map[string]string{"path": ParamOld, "filename": ParamNew}},
	"delete":     {op: OpDelete, params: map[string]string{"path": ParamPath}},
	"move":       {op: OpMove, params: map[string]string{"source": ParamPath, "destination": ParamDirectory}},
}

// ActionRequest translates an editor action call into a gateway request.
// Unmapped parameters are dropped.
func ActionRequest(name string, params map[string]string) (*Request, error) {
	a, ok := actions[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", name)
	}
	mapped := make(map[string]string, len(a.params))
	for from, to := range a.params {
		if v, ok := params[from]; ok {
			mapped[to] = v
		}
	}
	return NewRequest(a.op.String(), mapped), nil
}
