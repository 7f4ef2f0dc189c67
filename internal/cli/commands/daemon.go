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
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"resourcefm/internal/daemon"
	"resourcefm/internal/util"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Daemon management commands",
	Long:  `Commands for controlling the resourcefm daemon.`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	Long:  `Starts the resourcefm daemon in the background. It logs to ~/.resourcefm/daemon.log.`,
	Args:  cobra.NoArgs,
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	Long:  `Stops the running resourcefm daemon.`,
	Args:  cobra.NoArgs,
	RunE:  runDaemonStop,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long:  `Shows the listeners, the served tree and per-mode request counts of the running daemon.`,
	Args:  cobra.NoArgs,
	RunE:  runDaemonStatus,
}

var daemonReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload settings",
	Long: `Asks the running daemon to re-read settings.yaml. Hidden patterns, previews,
protection and the log level apply at once; listeners and the backend need a
restart. The daemon also reloads by itself when the file changes.`,
	Args: cobra.NoArgs,
	RunE: runDaemonReload,
}

var daemonForeground bool
var daemonRestart bool

func init() {
	daemonStartCmd.Flags().BoolVarP(&daemonForeground, "foreground", "f", false, "Run in foreground")
	daemonStartCmd.Flags().BoolVar(&daemonRestart, "restart", false, "Restart daemon if already running (no confirmation)")
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonReloadCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if daemon.IsDaemonRunning() {
		pid, _ := daemon.GetPID()
		if !daemonRestart {
			fmt.Fprintf(out, "Daemon already running (PID %d)\n", pid)
			fmt.Fprintln(out, "Use --restart to restart the daemon")
			return nil
		}
		fmt.Fprintf(out, "Daemon already running (PID %d), restarting...\n", pid)
		if err := stopDaemonAndWait(); err != nil {
			return fmt.Errorf("failed to stop daemon for restart: %w", err)
		}
	}

	if err := daemon.InitConfigDir(); err != nil {
		return err
	}
	settings, err := daemon.LoadSettings()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	if daemonForeground {
		return daemon.New(settings).Run()
	}

	exe, err := os.Executable()
	if err != nil {
		return err
	}
	if _, err := util.StartDetached(exe, []string{"daemon", "start", "--foreground"}, nil); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	poll := util.PollConfig{Timeout: 10 * time.Second, Interval: 25 * time.Millisecond}
	if err := util.PollUntil(context.Background(), poll, daemon.IsDaemonRunning); err != nil {
		return fmt.Errorf("daemon did not start, see %s", daemon.LogPath())
	}
	pid, _ := daemon.GetPID()
	fmt.Fprintf(out, "Daemon started (PID %d)\n", pid)
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	if !daemon.IsDaemonRunning() {
		fmt.Fprintln(cmd.OutOrStdout(), "Daemon not running")
		daemon.CleanupStale()
		return nil
	}
	if err := stopDaemonAndWait(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
	return nil
}

// stopDaemonAndWait asks the daemon to stop and escalates to signals when
// it does not exit in time.
func stopDaemonAndWait() error {
	pid, err := daemon.GetPID()
	if err != nil {
		return fmt.Errorf("failed to read daemon PID: %w", err)
	}

	graceful := func() error {
		client, err := daemon.Connect()
		if err != nil {
			return err
		}
		defer client.Close()
		resp, err := client.Stop()
		if err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("%s", resp.Error)
		}
		return nil
	}

	if err := util.StopProcess(context.Background(), pid, util.StopConfig{}, graceful); err != nil {
		return err
	}
	daemon.CleanupStale()
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !daemon.IsDaemonRunning() {
		fmt.Fprintln(out, "Daemon: not running")
		return nil
	}

	client, err := daemon.Connect()
	if err != nil {
		return err
	}
	defer client.Close()
	resp, err := client.Status()
	if err != nil {
		return err
	}
	if !resp.Success || resp.Status == nil {
		return fmt.Errorf("status failed: %s", resp.Error)
	}
	if jsonOutput {
		return printJSON(out, resp)
	}

	st := resp.Status
	fmt.Fprintf(out, "Daemon: running (PID %d)\n", resp.PID)
	fmt.Fprintf(out, "Started: %s\n", time.Unix(st.StartedAt, 0).Format(time.RFC3339))
	fmt.Fprintf(out, "HTTP: %s\n", st.Listen)
	if st.NFSListen != "" {
		fmt.Fprintf(out, "NFS: %s\n", st.NFSListen)
	}
	fmt.Fprintf(out, "Log level: %s\n", st.LogLevel)
	if st.Tree != nil {
		fmt.Fprintf(out, "Backend: %s", st.Tree.Backend)
		if st.Tree.Location != "" {
			fmt.Fprintf(out, " (%s)", st.Tree.Location)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Tree: %d folders, %d files, %d bytes\n", st.Tree.Directories, st.Tree.Files, st.Tree.Bytes)
	}
	if len(st.Requests) > 0 {
		modes := make([]string, 0, len(st.Requests))
		for mode := range st.Requests {
			modes = append(modes, mode)
		}
		sort.Strings(modes)
		fmt.Fprintln(out, "Requests:")
		for _, mode := range modes {
			fmt.Fprintf(out, "  %-10s %d\n", mode, st.Requests[mode])
		}
	}
	return nil
}

func runDaemonReload(cmd *cobra.Command, args []string) error {
	client, err := daemon.Connect()
	if err != nil {
		return fmt.Errorf("daemon not running")
	}
	defer client.Close()
	if err := client.ReloadConfig(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Daemon reloaded settings")
	return nil
}
