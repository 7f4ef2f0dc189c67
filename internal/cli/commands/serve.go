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
	"github.com/spf13/cobra"

	"resourcefm/internal/daemon"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tree in the foreground",
	Long: `Serve the configured tree over HTTP (and NFS when nfs_listen is set),
logging to stderr. Flags override settings.yaml for this run only.

Examples:
  resourcefm serve
  resourcefm serve --backend directory --root-dir ./site --listen :8080
  resourcefm serve --backend memory --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveListen    string
	serveBackend   string
	serveDataFile  string
	serveRootDir   string
	serveLogLevel  string
	serveNFSListen string
)

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", "Tree backend: sqlite, directory, memory")
	serveCmd.Flags().StringVar(&serveDataFile, "data-file", "", "Data file for the sqlite backend")
	serveCmd.Flags().StringVar(&serveRootDir, "root-dir", "", "Host directory for the directory backend")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Log level: trace, debug, info, warn, off")
	serveCmd.Flags().StringVar(&serveNFSListen, "nfs-listen", "", "NFS export listen address")
	rootCmd.AddCommand(serveCmd)
}

// loadServeSettings merges command-line overrides into the saved settings.
func loadServeSettings(cmd *cobra.Command) (*daemon.Settings, error) {
	settings, err := daemon.LoadSettings()
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag  string
		value string
		dst   *string
	}{
		{"listen", serveListen, &settings.Listen},
		{"backend", serveBackend, &settings.Backend},
		{"data-file", serveDataFile, &settings.DataFile},
		{"root-dir", serveRootDir, &settings.RootDir},
		{"log-level", serveLogLevel, &settings.LogLevel},
		{"nfs-listen", serveNFSListen, &settings.NFSListen},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.dst = o.value
		}
	}
	settings.ApplyDefaults()
	return settings, settings.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadServeSettings(cmd)
	if err != nil {
		return err
	}
	d := daemon.New(settings)
	d.Foreground = true
	return d.Run()
}
