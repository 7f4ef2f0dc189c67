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
	"fmt"
	"os"
	"path/filepath"

	"resourcefm/internal/cache"
	"resourcefm/internal/storage"
	"resourcefm/internal/vfs"
)

// OpenStore opens the tree backend named by settings.
func OpenStore(settings *Settings, dbctx storage.DBContext) (vfs.Store, error) {
	if !settings.CacheEnabled() {
		cache.Disabled = true
	}
	storage.SetConfigBusyTimeout(settings.BusyTimeout)

	switch settings.Backend {
	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(settings.DataFile), 0700); err != nil {
			return nil, err
		}
		df, err := storage.OpenOrCreate(settings.DataFile, storage.Options{
			Context:   dbctx,
			CacheSize: settings.CacheSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open data file %s: %w", settings.DataFile, err)
		}
		return df, nil
	case BackendDirectory:
		root, err := filepath.Abs(settings.RootDir)
		if err != nil {
			return nil, err
		}
		bs, err := storage.OpenDirectory(root)
		if err != nil {
			return nil, fmt.Errorf("failed to open directory %s: %w", root, err)
		}
		return bs, nil
	case BackendMemory:
		return storage.NewMemTree(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", settings.Backend)
	}
}

// storeLocation describes where the backend keeps its data.
func storeLocation(settings *Settings) string {
	switch settings.Backend {
	case BackendSQLite:
		return settings.DataFile
	case BackendDirectory:
		return settings.RootDir
	}
	return ""
}
