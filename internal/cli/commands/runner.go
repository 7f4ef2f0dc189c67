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

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"resourcefm/internal/daemon"
	"resourcefm/internal/storage"
	"resourcefm/internal/vfs"
)

// runner executes gateway operations.
type runner interface {
	run(mode string, params map[string]string, upload *daemon.UploadPayload) (*daemon.Response, error)
	Close() error
}

// ipcRunner forwards operations to the running daemon.
type ipcRunner struct{}

func (ipcRunner) run(mode string, params map[string]string, upload *daemon.UploadPayload) (*daemon.Response, error) {
	client, err := daemon.Connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer client.Close()
	return client.Op(mode, params, upload)
}

func (ipcRunner) Close() error { return nil }

// localRunner opens the configured tree in this process.
type localRunner struct {
	store   vfs.Store
	gateway *vfs.Gateway
}

func newLocalRunner() (*localRunner, error) {
	settings, err := daemon.LoadSettings()
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.Backend == daemon.BackendMemory {
		return nil, fmt.Errorf("the memory backend is only reachable through a running daemon")
	}

	cfg, err := settings.GatewayConfig()
	if err != nil {
		return nil, err
	}
	// The local user owns the tree
	cfg.Authorizer = nil

	store, err := daemon.OpenStore(settings, storage.DBContextCLI)
	if err != nil {
		return nil, err
	}
	return &localRunner{store: store, gateway: vfs.New(store, cfg)}, nil
}

func (r *localRunner) run(mode string, params map[string]string, upload *daemon.UploadPayload) (*daemon.Response, error) {
	resp := daemon.ExecuteOp(context.Background(), r.gateway, &daemon.Request{
		Type:   daemon.RequestOp,
		Mode:   mode,
		Params: params,
		Upload: upload,
	})
	if !resp.Success {
		return nil, fmt.Errorf("%s failed: %s", mode, resp.Error)
	}
	return resp, nil
}

func (r *localRunner) Close() error {
	return r.store.Close()
}

// newRunner prefers the daemon and falls back to the local tree.
var newRunner = func() (runner, error) {
	if daemon.IsDaemonRunning() {
		return ipcRunner{}, nil
	}
	return newLocalRunner()
}

// opError reports a nonzero status code.
type opError struct {
	Code    vfs.Code
	Message string
}

func (e *opError) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// runOp executes one operation and prints the JSON envelope when --json is
// set. A nonzero code becomes an *opError after printing.
func runOp(out io.Writer, mode string, params map[string]string, upload *daemon.UploadPayload) (*daemon.Response, error) {
	r, err := newRunner()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	resp, err := r.run(mode, params, upload)
	if err != nil {
		return nil, err
	}
	if jsonOutput && resp.Data == nil {
		fmt.Fprintln(out, string(resp.Result))
	}
	if resp.Code != int(vfs.CodeOK) {
		return resp, &opError{Code: vfs.Code(resp.Code), Message: resp.Message}
	}
	return resp, nil
}

// decodeResult unmarshals the operation payload into v.
func decodeResult(resp *daemon.Response, v any) error {
	if err := json.Unmarshal(resp.Result, v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
