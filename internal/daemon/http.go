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
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"resourcefm/internal/vfs"
)

// HTTP framing constants.
const (
	HeaderRequestID     = "X-Request-Id"
	HeaderCSRFToken     = "X-CSRF-Token"
	HeaderThemeDisabled = "X-Theme-Disabled"

	FieldAuthenticator = "_authenticator"
	FieldUpload        = "newfile"

	maxUploadMemory = 32 << 20
)

// HTTPServer exposes the gateway over HTTP.
type HTTPServer struct {
	gateway  atomic.Pointer[vfs.Gateway]
	counters *requestCounters
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewHTTPServer creates a server for g. counters may be nil.
func NewHTTPServer(g *vfs.Gateway, counters *requestCounters) *HTTPServer {
	if counters == nil {
		counters = newRequestCounters()
	}
	s := &HTTPServer{counters: counters, done: make(chan struct{})}
	s.gateway.Store(g)
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// SetGateway swaps the gateway used by subsequent requests.
func (s *HTTPServer) SetGateway(g *vfs.Gateway) {
	s.gateway.Store(g)
}

// Handler returns the request router.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/fm", s.handleMode)
	mux.HandleFunc("/actions", s.handleAction)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Serve listens on addr and serves in the background.
func (s *HTTPServer) Serve(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	go func() {
		defer close(s.done)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped")
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Serve.
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	<-s.done
	return err
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", vfs.ContentTypeJSON)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *HTTPServer) handleMode(w http.ResponseWriter, r *http.Request) {
	params, ok := parseParams(w, r)
	if !ok {
		return
	}
	mode := params["mode"]
	delete(params, "mode")
	s.serve(w, r, vfs.NewRequest(mode, params))
}

func (s *HTTPServer) handleAction(w http.ResponseWriter, r *http.Request) {
	params, ok := parseParams(w, r)
	if !ok {
		return
	}
	action := params["action"]
	req, err := vfs.ActionRequest(action, params)
	if err != nil {
		log.WithField("action", action).Debug("unknown action")
		id := requestID(r)
		w.Header().Set(HeaderThemeDisabled, "True")
		w.Header().Set(HeaderRequestID, id)
		s.counters.inc(vfs.OpUnknown.String())
		s.write(w, vfs.UnknownResponse(id))
		return
	}
	s.serve(w, r, req)
}

// parseParams decodes query and form values, keeping the first value of
// each key.
func parseParams(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxUploadMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		http.Error(w, "malformed request: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}

	params := make(map[string]string, len(r.Form))
	for key, values := range r.Form {
		if key == FieldAuthenticator || len(values) == 0 {
			continue
		}
		params[key] = values[0]
	}
	return params, true
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *HTTPServer) serve(w http.ResponseWriter, r *http.Request, req *vfs.Request) {
	req.ID = requestID(r)
	req.Token = r.Header.Get(HeaderCSRFToken)
	if req.Token == "" {
		req.Token = r.Form.Get(FieldAuthenticator)
	}

	w.Header().Set(HeaderThemeDisabled, "True")
	w.Header().Set(HeaderRequestID, req.ID)

	if r.MultipartForm != nil {
		if file, hdr, err := r.FormFile(FieldUpload); err == nil {
			defer file.Close()
			req.Upload = &vfs.Upload{Filename: hdr.Filename, Body: file}
		}
	}

	resp, err := s.gateway.Load().Do(r.Context(), req)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.counters.inc(resp.Op.String())
	s.write(w, resp)
}

// statusFor picks the HTTP status for a gateway response.
func statusFor(resp *vfs.Response) int {
	switch code := resp.Status().Code; {
	case code == vfs.CodeUnauthorized:
		return http.StatusForbidden
	case resp.Op == vfs.OpDownload && code == vfs.CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusOK
}

func (s *HTTPServer) write(w http.ResponseWriter, resp *vfs.Response) {
	enc, err := vfs.Encode(resp)
	if err != nil {
		log.WithError(err).WithField("request_id", resp.RequestID).Error("encode response")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", enc.ContentType)
	if enc.Attachment() {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": enc.Filename}))
	}
	w.WriteHeader(statusFor(resp))
	w.Write(enc.Body)
}

// healthResponse is the body served by /healthz.
type healthResponse struct {
	Status string `json:"status"`
}

// CheckHealth probes a running HTTP server at addr.
func CheckHealth(ctx context.Context, addr string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return fmt.Errorf("unhealthy: %s", resp.Status)
	}
	return nil
}
