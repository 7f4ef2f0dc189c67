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
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
)

// Request types
const (
	RequestOp           = "op"            // Run one gateway operation
	RequestStatus       = "status"        // Daemon and tree status
	RequestStop         = "stop"          // Graceful shutdown
	RequestReloadConfig = "reload_config" // Reload settings from disk
)

// UploadPayload carries an uploaded file over the socket.
type UploadPayload struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// Request represents an IPC request
type Request struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`

	// Op fields
	Mode   string            `json:"mode,omitempty"`
	Params map[string]string `json:"params,omitempty"`
	Upload *UploadPayload    `json:"upload,omitempty"`
}

// TreeStatus summarizes the served tree.
type TreeStatus struct {
	Backend     string `json:"backend"`
	Location    string `json:"location,omitempty"` // data file or root directory
	Directories int64  `json:"directories"`
	Files       int64  `json:"files"`
	Bytes       int64  `json:"bytes"`
}

// DaemonStatus describes a running daemon.
type DaemonStatus struct {
	Listen    string           `json:"listen"`
	NFSListen string           `json:"nfs_listen,omitempty"`
	StartedAt int64            `json:"started_at"` // Unix timestamp
	LogLevel  string           `json:"log_level"`
	Requests  map[string]int64 `json:"requests,omitempty"` // mode -> handled count
	Tree      *TreeStatus      `json:"tree,omitempty"`
}

// Response represents an IPC response
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	PID       int    `json:"pid,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Op response fields. Code is meaningful only when Success is true.
	Code     int             `json:"code"`
	Result   json.RawMessage `json:"result,omitempty"`
	Data     []byte          `json:"data,omitempty"`     // download payload
	Filename string          `json:"filename,omitempty"` // download name

	Status *DaemonStatus `json:"status,omitempty"`
}

// Server is the IPC server
type Server struct {
	path     string
	listener net.Listener
	handler  func(*Request) *Response
}

// NewServer creates a new IPC server on the default socket path.
func NewServer(handler func(*Request) *Response) *Server {
	return &Server{path: SocketPath(), handler: handler}
}

// Start starts the IPC server
func (s *Server) Start() error {
	// Remove existing socket
	os.Remove(s.path)

	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("failed to create socket: %w", err)
	}
	s.listener = listener

	// Make socket accessible to the owner only
	os.Chmod(s.path, 0600)

	go s.accept()
	return nil
}

// Stop stops the IPC server
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
		os.Remove(s.path)
	}
}

func (s *Server) accept() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // Server stopped
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		return
	}

	resp := s.handler(&req)
	if resp.RequestID == "" {
		resp.RequestID = req.RequestID
	}
	json.NewEncoder(conn).Encode(resp)
}

// Client is the IPC client
type Client struct {
	conn net.Conn
}

// Connect connects to the daemon
func Connect() (*Client, error) {
	conn, err := net.Dial("unix", SocketPath())
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send sends a request and returns the response
func (c *Client) Send(req *Request) (*Response, error) {
	if err := json.NewEncoder(c.conn).Encode(req); err != nil {
		return nil, err
	}

	var resp Response
	if err := json.NewDecoder(c.conn).Decode(&resp); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("daemon closed connection")
		}
		return nil, err
	}
	return &resp, nil
}

// Op runs one gateway operation in the daemon. A failed Response (as
// opposed to a nonzero Code) is returned as an error.
func (c *Client) Op(mode string, params map[string]string, upload *UploadPayload) (*Response, error) {
	resp, err := c.Send(&Request{
		Type:   RequestOp,
		Mode:   mode,
		Params: params,
		Upload: upload,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%s failed: %s", mode, resp.Error)
	}
	return resp, nil
}

// Status sends a status request
func (c *Client) Status() (*Response, error) {
	return c.Send(&Request{Type: RequestStatus})
}

// Stop sends a stop request
func (c *Client) Stop() (*Response, error) {
	return c.Send(&Request{Type: RequestStop})
}

// ReloadConfig requests the daemon to reload its configuration from disk
func (c *Client) ReloadConfig() error {
	resp, err := c.Send(&Request{Type: RequestReloadConfig})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("reload config failed: %s", resp.Error)
	}
	return nil
}

// IsDaemonRunning checks if the daemon is running
func IsDaemonRunning() bool {
	client, err := Connect()
	if err != nil {
		return false
	}
	client.Close()
	return true
}
