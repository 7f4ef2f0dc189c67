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

package util

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// PollConfig configures PollUntil.
type PollConfig struct {
	Timeout  time.Duration // default 5s
	Interval time.Duration // default 50ms
}

// StopConfig configures StopProcess.
type StopConfig struct {
	GracefulTimeout time.Duration // default 10s
	PollInterval    time.Duration // default 100ms
}

// PollUntil calls condition until it returns true, ctx ends, or the timeout
// elapses. It returns nil on success.
func PollUntil(ctx context.Context, cfg PollConfig, condition func() bool) error {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Interval == 0 {
		cfg.Interval = 50 * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if condition() {
		return nil
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// StartDetached starts executable with args in a new session so it survives
// the parent. Output is discarded; the child is expected to log to a file.
func StartDetached(executable string, args []string, env []string) (*os.Process, error) {
	cmd := exec.Command(executable, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Env = os.Environ()
	if env != nil {
		cmd.Env = append(cmd.Env, env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}
	// Release so the child is not left as a zombie of this process.
	_ = cmd.Process.Release()
	return cmd.Process, nil
}

// StopProcess asks a process to stop via gracefulStop, then SIGTERM, and
// finally SIGKILL once cfg.GracefulTimeout has passed.
func StopProcess(ctx context.Context, pid int, cfg StopConfig, gracefulStop func() error) error {
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 10 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}

	stopped := func() bool { return !IsProcessRunning(pid) }

	if gracefulStop == nil || gracefulStop() != nil {
		if proc, err := os.FindProcess(pid); err == nil {
			_ = proc.Signal(syscall.SIGTERM)
		}
	}

	poll := PollConfig{Timeout: cfg.GracefulTimeout, Interval: cfg.PollInterval}
	if err := PollUntil(ctx, poll, stopped); err == nil {
		return nil
	}

	if proc, err := os.FindProcess(pid); err == nil {
		_ = proc.Signal(syscall.SIGKILL)
	}
	if err := PollUntil(ctx, PollConfig{Timeout: time.Second, Interval: cfg.PollInterval}, stopped); err != nil {
		return fmt.Errorf("failed to stop process (PID %d)", pid)
	}
	return nil
}

// IsProcessRunning reports whether a process with pid exists.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
