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
	"context"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"

	"resourcefm/internal/vfs"
)

// nfsHandleCacheSize bounds the file handle cache of the export.
const nfsHandleCacheSize = 65536

// NFSExport serves a read-only view of the tree over NFSv3.
type NFSExport struct {
	listener net.Listener
	server   *nfs.Server
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewNFSExport creates an export of g's tree.
func NewNFSExport(g *vfs.Gateway) *NFSExport {
	// Match go-nfs verbosity to the daemon's
	if log.IsLevelEnabled(log.TraceLevel) {
		nfs.Log.SetLevel(nfs.TraceLevel)
	} else if log.IsLevelEnabled(log.DebugLevel) {
		nfs.Log.SetLevel(nfs.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	handler := nfshelper.NewNullAuthHandler(vfs.NewBillyView(ctx, g))
	cacheHelper := nfshelper.NewCachingHandler(handler, nfsHandleCacheSize)

	return &NFSExport{
		server: &nfs.Server{
			Handler: cacheHelper,
			Context: ctx,
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Serve listens on addr and serves in the background.
func (e *NFSExport) Serve(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	e.listener = listener

	go func() {
		defer close(e.done)
		if err := e.server.Serve(listener); err != nil {
			log.WithError(err).Debug("nfs export stopped")
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Serve.
func (e *NFSExport) Addr() string {
	if e.listener == nil {
		return ""
	}
	return e.listener.Addr().String()
}

// Shutdown closes the listener and cancels in-flight handlers.
func (e *NFSExport) Shutdown() {
	if e.listener == nil {
		e.cancel()
		return
	}
	e.listener.Close()
	e.cancel()

	select {
	case <-e.done:
	case <-time.After(time.Second):
		log.Warn("timeout waiting for nfs export to stop")
	}
}
