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
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"resourcefm/internal/daemon"
	"resourcefm/internal/vfs"
)

var importCmd = &cobra.Command{
	Use:   "import <host-dir> [parent]",
	Short: "Copy a host directory into the tree",
	Long: `Copy every folder and file under a host directory into a tree folder
(the root by default). Existing folders are reused and existing files are
overwritten.

Examples:
  resourcefm import ./theme
  resourcefm import ./theme /themes/default`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

type importStats struct {
	Folders int `json:"folders"`
	Files   int `json:"files"`
	Bytes   int `json:"bytes"`
}

func runImport(cmd *cobra.Command, args []string) error {
	hostDir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if fi, err := os.Stat(hostDir); err != nil {
		return err
	} else if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", args[0])
	}
	parent := "/"
	if len(args) > 1 {
		parent = args[1]
	}

	r, err := newRunner()
	if err != nil {
		return err
	}
	defer r.Close()

	src := osfs.New(hostDir)
	var stats importStats
	err = util.Walk(src, "/", func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == "/" || p == "" {
			return nil
		}
		rel := filepath.ToSlash(p)
		dest := path.Join(parent, rel)

		if fi.IsDir() {
			resp, err := r.run(vfs.OpCreateFolder.String(), map[string]string{
				vfs.ParamPath: path.Dir(dest),
				vfs.ParamName: path.Base(dest),
			}, nil)
			if err != nil {
				return err
			}
			switch vfs.Code(resp.Code) {
			case vfs.CodeOK:
				stats.Folders++
			case vfs.CodeAlreadyExists:
				log.WithField("path", dest).Debug("Folder exists, reusing")
			default:
				return fmt.Errorf("%s: %w", dest, &opError{Code: vfs.Code(resp.Code), Message: resp.Message})
			}
			return nil
		}
		if !fi.Mode().IsRegular() {
			log.WithField("path", p).Debug("Skipping non-regular file")
			return nil
		}

		data, err := util.ReadFile(src, p)
		if err != nil {
			return err
		}
		resp, err := r.run(vfs.OpUpload.String(), map[string]string{
			vfs.ParamCurrentPath: path.Dir(dest),
			vfs.ParamReplacePath: dest,
		}, &daemon.UploadPayload{Filename: path.Base(dest), Data: data})
		if err != nil {
			return err
		}
		if resp.Code != int(vfs.CodeOK) {
			return fmt.Errorf("%s: %w", dest, &opError{Code: vfs.Code(resp.Code), Message: resp.Message})
		}
		stats.Files++
		stats.Bytes += len(data)
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, stats)
	}
	fmt.Fprintf(out, "Imported %d folders and %d files (%d bytes) into %s\n", stats.Folders, stats.Files, stats.Bytes, parent)
	return nil
}
