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
	"fmt"

	"github.com/spf13/cobra"

	"resourcefm/internal/daemon"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration directory",
	Long: `Create the configuration directory (~/.resourcefm, or $RESOURCEFM_CONFIG_DIR)
and write the default settings.yaml when none exists. Existing settings are
never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := daemon.InitConfigDir(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized configuration in %s\n", daemon.ConfigDir())
	fmt.Fprintf(cmd.OutOrStdout(), "  settings: %s\n", daemon.SettingsPath())
	return nil
}
