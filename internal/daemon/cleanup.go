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
	"os"
	"strings"

	"resourcefm/internal/util"
)

// CleanupResult contains the result of a cleanup operation
type CleanupResult struct {
	CleanedPidFile bool // Whether PID file was cleaned
	CleanedSocket  bool // Whether socket file was cleaned
}

// CleanupStale removes the PID file and socket left behind by a daemon
// that exited without shutting down. Nothing is touched while a daemon
// answers on the socket.
func CleanupStale() *CleanupResult {
	result := &CleanupResult{}
	if IsDaemonRunning() {
		return result
	}
	result.CleanedPidFile = cleanupStalePidFile()
	result.CleanedSocket = cleanupStaleSocket()
	return result
}

// cleanupStalePidFile removes the PID file when its process is gone.
func cleanupStalePidFile() bool {
	pid, err := GetPID()
	if err != nil {
		if _, statErr := os.Stat(PidPath()); statErr == nil {
			// Unreadable content
			os.Remove(PidPath())
			return true
		}
		return false
	}
	if util.IsProcessRunning(pid) && pid != os.Getpid() {
		return false
	}
	os.Remove(PidPath())
	return true
}

// cleanupStaleSocket removes the socket file if nobody listens on it.
func cleanupStaleSocket() bool {
	if _, err := os.Stat(SocketPath()); os.IsNotExist(err) {
		return false
	}
	if IsDaemonRunning() {
		return false
	}
	os.Remove(SocketPath())
	return true
}

// FormatCleanupResult returns a human-readable summary of the cleanup result
func FormatCleanupResult(result *CleanupResult) string {
	var parts []string
	if result.CleanedPidFile {
		parts = append(parts, "Cleaned up stale PID file")
	}
	if result.CleanedSocket {
		parts = append(parts, "Cleaned up stale socket file")
	}
	if len(parts) == 0 {
		return "No cleanup needed"
	}
	return strings.Join(parts, "; ")
}
