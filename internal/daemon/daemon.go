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
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"

	"resourcefm/internal/storage"
	"resourcefm/internal/vfs"
)

const (
	maxLogSize      = 50 * 1024 * 1024
	opTimeout       = time.Minute
	shutdownTimeout = 5 * time.Second
	reloadDebounce  = 200 * time.Millisecond
)

// Daemon serves one resource tree over HTTP, the local socket and,
// optionally, NFS.
type Daemon struct {
	// Foreground logs to stderr instead of the daemon log file.
	Foreground bool

	settingsPath string
	settings     atomic.Pointer[Settings]

	store vfs.Store
	// web guards protected modes with the configured authorizer; local
	// serves the owner-only socket and skips it.
	web   atomic.Pointer[vfs.Gateway]
	local atomic.Pointer[vfs.Gateway]

	ipcServer  *Server
	httpServer *HTTPServer
	nfsExport  *NFSExport
	counters   *requestCounters

	logFile   *os.File
	logMu     sync.Mutex
	lock      *flock.Flock
	startedAt time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	ready    chan struct{}
	wg       sync.WaitGroup
}

// New creates a daemon for settings. Reloads read SettingsPath().
func New(settings *Settings) *Daemon {
	d := &Daemon{
		settingsPath: SettingsPath(),
		counters:     newRequestCounters(),
		stopCh:       make(chan struct{}),
		ready:        make(chan struct{}),
	}
	d.settings.Store(settings)
	return d
}

// Ready is closed once every listener accepts connections.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// HTTPAddr returns the bound HTTP address once ready.
func (d *Daemon) HTTPAddr() string {
	if d.httpServer == nil {
		return ""
	}
	return d.httpServer.Addr()
}

// Stop requests a graceful shutdown.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

// Run serves until a signal or stop request arrives.
func (d *Daemon) Run() error {
	settings := d.settings.Load()
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	// Acquire exclusive lock
	d.lock = flock.New(LockPath())
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another daemon instance is already running")
	}
	defer d.lock.Unlock()

	cleanup := CleanupStale()

	if err := d.setupLogging(settings.LogLevel); err != nil {
		return err
	}
	defer d.closeLogFile()

	if err := d.writePidFile(); err != nil {
		return err
	}
	defer d.removePidFile()

	log.Infof("Daemon started (PID %d)", os.Getpid())
	if cleanup.CleanedPidFile || cleanup.CleanedSocket {
		log.Infof("Startup cleanup: %s", FormatCleanupResult(cleanup))
	}
	d.startedAt = time.Now()

	store, err := OpenStore(settings, storage.DBContextDaemon)
	if err != nil {
		return err
	}
	d.store = store
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("failed to close store")
		}
	}()
	if err := d.buildGateways(settings); err != nil {
		return err
	}

	d.ipcServer = NewServer(d.handleRequest)
	if err := d.ipcServer.Start(); err != nil {
		return err
	}
	defer d.ipcServer.Stop()
	log.Infof("IPC server listening at %s", SocketPath())

	d.httpServer = NewHTTPServer(d.web.Load(), d.counters)
	if err := d.httpServer.Serve(settings.Listen); err != nil {
		return err
	}
	log.Infof("HTTP server listening at %s", d.httpServer.Addr())

	if settings.NFSListen != "" {
		d.nfsExport = NewNFSExport(d.local.Load())
		if err := d.nfsExport.Serve(settings.NFSListen); err != nil {
			log.WithError(err).Warn("NFS export failed to start")
			d.nfsExport = nil
		} else {
			log.Infof("NFS export listening at %s", d.nfsExport.Addr())
		}
	}

	if err := d.watchSettings(); err != nil {
		log.WithError(err).Warn("settings watcher unavailable")
	}

	close(d.ready)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

loop:
	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				if err := d.reload(); err != nil {
					log.WithError(err).Warn("reload failed")
				}
				continue
			}
			log.Infof("Received signal %v, shutting down...", sig)
			break loop
		case <-d.stopCh:
			log.Info("Stop requested, shutting down...")
			break loop
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("HTTP shutdown incomplete")
	}
	if d.nfsExport != nil {
		d.nfsExport.Shutdown()
	}
	d.wg.Wait()

	log.Info("Daemon stopped")
	return nil
}

// buildGateways (re)creates both gateways over the open store.
func (d *Daemon) buildGateways(settings *Settings) error {
	cfg, err := settings.GatewayConfig()
	if err != nil {
		return err
	}
	web := vfs.New(d.store, cfg)
	cfg.Authorizer = nil
	local := vfs.New(d.store, cfg)

	d.web.Store(web)
	d.local.Store(local)
	if d.httpServer != nil {
		d.httpServer.SetGateway(web)
	}
	return nil
}

// reload re-reads the settings file. Hidden patterns, previews, protection
// and the log level apply immediately; listeners and the backend need a
// restart.
func (d *Daemon) reload() error {
	settings, err := LoadSettingsFromPath(d.settingsPath)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	current := d.settings.Load()
	if settings.Backend != current.Backend || settings.DataFile != current.DataFile ||
		settings.RootDir != current.RootDir || settings.Listen != current.Listen ||
		settings.NFSListen != current.NFSListen {
		log.Warn("backend or listener settings changed; restart the daemon to apply them")
		settings.Backend, settings.DataFile, settings.RootDir = current.Backend, current.DataFile, current.RootDir
		settings.Listen, settings.NFSListen = current.Listen, current.NFSListen
	}

	if err := d.buildGateways(settings); err != nil {
		return err
	}
	if err := d.setupLogging(settings.LogLevel); err != nil {
		return err
	}
	d.settings.Store(settings)
	log.Infof("Settings reloaded, log level: %s", settings.LogLevel)
	return nil
}

// watchSettings reloads when the settings file changes. The directory is
// watched since editors often replace the file.
func (d *Daemon) watchSettings() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(d.settingsPath)); err != nil {
		watcher.Close()
		return err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer watcher.Close()

		var debounce <-chan time.Time
		for {
			select {
			case <-d.stopCh:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(d.settingsPath) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					debounce = time.After(reloadDebounce)
				}
			case <-debounce:
				debounce = nil
				if err := d.reload(); err != nil {
					log.WithError(err).Warn("reload failed")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("settings watcher error")
			}
		}
	}()
	return nil
}

// setupLogging points logrus at the log file (or stderr in the foreground)
// at the given level. "off" and "none" discard output.
func (d *Daemon) setupLogging(level string) error {
	d.logMu.Lock()
	defer d.logMu.Unlock()

	level = strings.ToLower(level)
	if level == "off" || level == "none" {
		log.SetOutput(io.Discard)
		if d.logFile != nil {
			d.logFile.Close()
			d.logFile = nil
		}
		return nil
	}

	if d.Foreground {
		log.SetOutput(os.Stderr)
	} else if d.logFile == nil {
		if err := truncateLogFile(LogPath(), maxLogSize); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to truncate log file: %v\n", err)
		}
		logFile, err := os.OpenFile(LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		d.logFile = logFile
		log.SetOutput(logFile)
	}

	log.SetLevel(parseLogLevel(level))
	return nil
}

func (d *Daemon) closeLogFile() {
	d.logMu.Lock()
	defer d.logMu.Unlock()
	if d.logFile != nil {
		log.SetOutput(io.Discard)
		d.logFile.Close()
		d.logFile = nil
	}
}

// parseLogLevel maps a settings level to logrus; unknown values mean info.
func parseLogLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	default:
		return log.InfoLevel
	}
}

// handleRequest processes an IPC request
func (d *Daemon) handleRequest(req *Request) *Response {
	switch req.Type {
	case RequestOp:
		return d.handleOp(req)
	case RequestStatus:
		return d.handleStatus()
	case RequestStop:
		return d.handleStop()
	case RequestReloadConfig:
		return d.handleReloadConfig()
	default:
		return &Response{Success: false, Error: "unknown request type"}
	}
}

func (d *Daemon) handleOp(req *Request) *Response {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	resp := ExecuteOp(ctx, d.local.Load(), req)
	op, _ := vfs.ParseOp(req.Mode)
	d.counters.inc(op.String())
	return resp
}

func (d *Daemon) handleStatus() *Response {
	settings := d.settings.Load()
	status := &DaemonStatus{
		Listen:    d.HTTPAddr(),
		StartedAt: d.startedAt.Unix(),
		LogLevel:  settings.LogLevel,
		Requests:  d.counters.snapshot(),
		Tree: &TreeStatus{
			Backend:  settings.Backend,
			Location: storeLocation(settings),
		},
	}
	if d.nfsExport != nil {
		status.NFSListen = d.nfsExport.Addr()
	}
	if ss, ok := d.store.(vfs.StatsStore); ok {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if stats, err := ss.Stats(ctx); err == nil {
			status.Tree.Directories = stats.Dirs
			status.Tree.Files = stats.Files
			status.Tree.Bytes = stats.Bytes
		} else {
			log.WithError(err).Warn("failed to collect tree stats")
		}
	}

	return &Response{Success: true, PID: os.Getpid(), Status: status}
}

func (d *Daemon) handleStop() *Response {
	d.Stop()
	return &Response{Success: true, Message: "Daemon stopping"}
}

func (d *Daemon) handleReloadConfig() *Response {
	if err := d.reload(); err != nil {
		return &Response{Success: false, Error: err.Error()}
	}
	return &Response{Success: true, Message: "Config reloaded"}
}

func (d *Daemon) writePidFile() error {
	data := []byte(strconv.Itoa(os.Getpid()))
	return os.WriteFile(PidPath(), data, 0600)
}

func (d *Daemon) removePidFile() {
	os.Remove(PidPath())
}

// GetPID reads the daemon PID from file
func GetPID() (int, error) {
	data, err := os.ReadFile(PidPath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// truncateLogFile keeps roughly the last half of the log at path once it
// exceeds maxSize, cutting at a line boundary.
func truncateLogFile(path string, maxSize int64) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() <= maxSize {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	startIdx := len(data) - len(data)/2
	for i := startIdx; i < len(data); i++ {
		if data[i] == '\n' {
			startIdx = i + 1
			break
		}
	}

	kept := data[startIdx:]
	header := []byte(fmt.Sprintf("--- Log truncated at %s (kept last %d bytes) ---\n",
		time.Now().Format(time.RFC3339), len(kept)))
	return os.WriteFile(path, append(header, kept...), 0600)
}
