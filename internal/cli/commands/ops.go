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
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"resourcefm/internal/daemon"
	"resourcefm/internal/vfs"
)

var (
	dirColor  = color.New(color.FgBlue, color.Bold)
	metaColor = color.New(color.Faint)
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a folder",
	Long: `List the visible children of a folder, folders first.

Examples:
  resourcefm ls
  resourcefm ls /images
  resourcefm ls /images --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the whole tree",
	Args:  cobra.NoArgs,
	RunE:  runTree,
}

var infoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Show a file or folder summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <parent> <name>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(2),
	RunE:  runMkdir,
}

var touchCmd = &cobra.Command{
	Use:   "touch <parent> <name>",
	Short: "Create an empty file",
	Args:  cobra.ExactArgs(2),
	RunE:  runTouch,
}

var putCmd = &cobra.Command{
	Use:   "put <local-file> [parent]",
	Short: "Upload a local file",
	Long: `Upload a local file into a folder of the tree (the root by default).
With --replace the upload overwrites the file at the given tree path instead.

Examples:
  resourcefm put logo.png /images
  resourcefm put logo-v2.png --replace /images/logo.png`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPut,
}

var renameCmd = &cobra.Command{
	Use:   "rename <path> <new-name>",
	Short: "Rename a file or folder in place",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var mvCmd = &cobra.Command{
	Use:   "mv <path> <dest-dir>",
	Short: "Move a file or folder into another folder",
	Args:  cobra.ExactArgs(2),
	RunE:  runMv,
}

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete a file or folder recursively",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a text file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCat,
}

var writeCmd = &cobra.Command{
	Use:   "write <path>",
	Short: "Save stdin to a file",
	Long: `Save standard input to a file, creating it when its folder exists.
Surrounding whitespace is trimmed and CRLF line endings become LF.

Examples:
  echo 'body { color: red }' | resourcefm write /css/site.css
  resourcefm write /css/site.css --relative-urls < site.css`,
	Args: cobra.ExactArgs(1),
	RunE: runWrite,
}

var getCmd = &cobra.Command{
	Use:   "get <path> [local-file]",
	Short: "Download a file",
	Long:  `Download a file to local-file (its own name in the current directory by default, "-" for stdout).`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runGet,
}

var (
	treeFoldersOnly  bool
	putReplace       string
	writeRelativeURL bool
)

func init() {
	treeCmd.Flags().BoolVar(&treeFoldersOnly, "folders-only", false, "Omit files")
	putCmd.Flags().StringVar(&putReplace, "replace", "", "Tree path of the file to overwrite")
	writeCmd.Flags().BoolVar(&writeRelativeURL, "relative-urls", false, "Rewrite same-host url(...) references relative to the file")

	for _, c := range []*cobra.Command{lsCmd, treeCmd, infoCmd, mkdirCmd, touchCmd, putCmd, renameCmd, mvCmd, rmCmd, catCmd, writeCmd, getCmd} {
		rootCmd.AddCommand(c)
	}
}

func runLs(cmd *cobra.Command, args []string) error {
	p := "/"
	if len(args) > 0 {
		p = args[0]
	}
	resp, err := runOp(cmd.OutOrStdout(), vfs.OpList.String(), map[string]string{vfs.ParamPath: p}, nil)
	if err != nil || jsonOutput {
		return err
	}

	var list vfs.ListResult
	if err := decodeResult(resp, &list); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, item := range list.Items {
		if item.IsDir() {
			fmt.Fprintf(out, "%8s  %-24s  %s\n", "-", "", dirColor.Sprint(item.Filename+"/"))
			continue
		}
		modified := ""
		if item.Properties.DateModified != nil {
			modified = *item.Properties.DateModified
		}
		fmt.Fprintf(out, "%8s  %-24s  %s\n", item.Properties.Size, metaColor.Sprint(modified), item.Filename)
	}
	return nil
}

// treeEntry mirrors the JSON shape of one navigation tree node.
type treeEntry struct {
	Title    string      `json:"title"`
	Key      string      `json:"key"`
	IsFolder bool        `json:"isFolder"`
	Children []treeEntry `json:"children"`
}

func runTree(cmd *cobra.Command, args []string) error {
	params := map[string]string{}
	if treeFoldersOnly {
		params[vfs.ParamFoldersOnly] = "true"
	}
	resp, err := runOp(cmd.OutOrStdout(), vfs.OpTree.String(), params, nil)
	if err != nil || jsonOutput {
		return err
	}

	var roots []treeEntry
	if err := decodeResult(resp, &roots); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, root := range roots {
		printTree(out, root, "")
	}
	return nil
}

func printTree(out io.Writer, e treeEntry, indent string) {
	if e.IsFolder {
		title := e.Title
		if title != "/" {
			title += "/"
		}
		fmt.Fprintf(out, "%s%s\n", indent, dirColor.Sprint(title))
	} else {
		fmt.Fprintf(out, "%s%s\n", indent, e.Title)
	}
	for _, child := range e.Children {
		printTree(out, child, indent+"  ")
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	resp, err := runOp(cmd.OutOrStdout(), vfs.OpInspect.String(), map[string]string{vfs.ParamPath: args[0]}, nil)
	if err != nil || jsonOutput {
		return err
	}

	var s vfs.Summary
	if err := decodeResult(resp, &s); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name: %s\n", s.Filename)
	fmt.Fprintf(out, "Path: %s\n", s.Path)
	fmt.Fprintf(out, "Type: %s\n", s.FileType)
	if s.Properties.Size != "" {
		fmt.Fprintf(out, "Size: %s\n", s.Properties.Size)
	}
	if s.Properties.DateModified != nil {
		fmt.Fprintf(out, "Modified: %s\n", *s.Properties.DateModified)
	}
	if s.Properties.Width != nil && s.Properties.Height != nil {
		fmt.Fprintf(out, "Dimensions: %dx%d\n", *s.Properties.Width, *s.Properties.Height)
	}
	fmt.Fprintf(out, "Preview: %s\n", s.Preview)
	return nil
}

func runCreate(cmd *cobra.Command, op vfs.Op, parent, name, kind string) error {
	resp, err := runOp(cmd.OutOrStdout(), op.String(), map[string]string{vfs.ParamPath: parent, vfs.ParamName: name}, nil)
	if err != nil || jsonOutput {
		return err
	}
	var res vfs.CreateResult
	if err := decodeResult(resp, &res); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", kind, path.Join(res.Parent, res.Name))
	return nil
}

func runMkdir(cmd *cobra.Command, args []string) error {
	return runCreate(cmd, vfs.OpCreateFolder, args[0], args[1], "folder")
}

func runTouch(cmd *cobra.Command, args []string) error {
	return runCreate(cmd, vfs.OpCreateFile, args[0], args[1], "file")
}

func runPut(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	parent := "/"
	if len(args) > 1 {
		parent = args[1]
	}
	params := map[string]string{vfs.ParamCurrentPath: parent}
	if putReplace != "" {
		params[vfs.ParamReplacePath] = putReplace
	}
	upload := &daemon.UploadPayload{Filename: filepath.Base(args[0]), Data: data}

	resp, err := runOp(cmd.OutOrStdout(), vfs.OpUpload.String(), params, upload)
	if err != nil || jsonOutput {
		return err
	}
	var res vfs.UploadResult
	if err := decodeResult(resp, &res); err != nil {
		return err
	}
	target := path.Join(res.Parent, res.Name)
	if putReplace != "" {
		target = putReplace
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%d bytes)\n", target, len(data))
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	resp, err := runOp(cmd.OutOrStdout(), vfs.OpRename.String(), map[string]string{vfs.ParamOld: args[0], vfs.ParamNew: args[1]}, nil)
	if err != nil || jsonOutput {
		return err
	}
	var res vfs.RenameResult
	if err := decodeResult(resp, &res); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s -> %s\n",
		path.Join(res.OldParent, res.OldName), path.Join(res.NewParent, res.NewName))
	return nil
}

func runMv(cmd *cobra.Command, args []string) error {
	resp, err := runOp(cmd.OutOrStdout(), vfs.OpMove.String(), map[string]string{vfs.ParamPath: args[0], vfs.ParamDirectory: args[1]}, nil)
	if err != nil || jsonOutput {
		return err
	}
	var res vfs.MoveResult
	if err := decodeResult(resp, &res); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Moved to %s\n", res.NewPath)
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	resp, err := runOp(cmd.OutOrStdout(), vfs.OpDelete.String(), map[string]string{vfs.ParamPath: args[0]}, nil)
	if err != nil || jsonOutput {
		return err
	}
	var res vfs.DeleteResult
	if err := decodeResult(resp, &res); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", res.Path)
	return nil
}

func runCat(cmd *cobra.Command, args []string) error {
	resp, err := runOp(cmd.OutOrStdout(), vfs.OpRead.String(), map[string]string{vfs.ParamPath: args[0]}, nil)
	if err != nil || jsonOutput {
		return err
	}
	var res vfs.ReadResult
	if err := decodeResult(resp, &res); err != nil {
		return err
	}
	if res.Contents == nil {
		return fmt.Errorf("%s is not a text file, use get", args[0])
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, *res.Contents)
	if !strings.HasSuffix(*res.Contents, "\n") {
		fmt.Fprintln(out)
	}
	return nil
}

func runWrite(cmd *cobra.Command, args []string) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return err
	}
	params := map[string]string{vfs.ParamPath: args[0], vfs.ParamValue: string(data)}
	if writeRelativeURL {
		params[vfs.ParamRelativeURLs] = "1"
	}
	resp, err := runOp(cmd.OutOrStdout(), vfs.OpWrite.String(), params, nil)
	if err != nil || jsonOutput {
		return err
	}
	var res vfs.WriteResult
	if err := decodeResult(resp, &res); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", res.Path)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	resp, err := runOp(cmd.OutOrStdout(), vfs.OpDownload.String(), map[string]string{vfs.ParamPath: args[0]}, nil)
	if err != nil {
		return err
	}

	dest := resp.Filename
	if len(args) > 1 {
		dest = args[1]
	}
	if dest == "-" {
		_, err := cmd.OutOrStdout().Write(resp.Data)
		return err
	}
	if err := os.WriteFile(dest, resp.Data, 0644); err != nil {
		return err
	}
	if !jsonOutput {
		fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s to %s (%d bytes)\n", args[0], dest, len(resp.Data))
	}
	return nil
}
