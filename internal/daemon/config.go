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
	"strings"

	"gopkg.in/yaml.v3"

	"resourcefm/internal/artifacts"
	"resourcefm/internal/cache"
	"resourcefm/internal/vfs"
)

// getConfigDir returns the config directory path.
// Uses RESOURCEFM_CONFIG_DIR if set, otherwise ~/.resourcefm. Computed on
// every call so tests can isolate themselves.
func getConfigDir() string {
	if dir := os.Getenv("RESOURCEFM_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".resourcefm")
}

func daemonName() string {
	return "daemon"
}

// ConfigDir returns the configuration directory path
func ConfigDir() string {
	return getConfigDir()
}

// SocketPath returns the Unix socket path
func SocketPath() string {
	return filepath.Join(getConfigDir(), daemonName()+".sock")
}

// PidPath returns the PID file path
func PidPath() string {
	return filepath.Join(getConfigDir(), daemonName()+".pid")
}

// LogPath returns the log file path. RESOURCEFM_DAEMON_LOG overrides it.
func LogPath() string {
	if envPath := os.Getenv("RESOURCEFM_DAEMON_LOG"); envPath != "" {
		return envPath
	}
	return filepath.Join(getConfigDir(), daemonName()+".log")
}

// LockPath returns the lock file path
func LockPath() string {
	return filepath.Join(getConfigDir(), daemonName()+".lock")
}

// SettingsPath returns the settings file path
func SettingsPath() string {
	return filepath.Join(getConfigDir(), "settings.yaml")
}

// DefaultDataFilePath returns the data file used when settings name none.
func DefaultDataFilePath() string {
	return filepath.Join(getConfigDir(), "tree.rfm")
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(getConfigDir(), 0700)
}

// InitConfigDir creates the config directory and writes the default
// settings file when none exists.
func InitConfigDir() error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	settingsPath := SettingsPath()
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		if err := os.WriteFile(settingsPath, artifacts.GlobalSettings, 0600); err != nil {
			return fmt.Errorf("failed to create default settings: %w", err)
		}
	}
	return nil
}

// Tree backends.
const (
	BackendSQLite    = "sqlite"
	BackendDirectory = "directory"
	BackendMemory    = "memory"
)

// DefaultListen is the HTTP address used when settings leave it empty.
const DefaultListen = "127.0.0.1:8765"

// Settings is the daemon configuration loaded from settings.yaml.
type Settings struct {
	Listen           string   `yaml:"listen"`
	Backend          string   `yaml:"backend"`             // sqlite, directory, memory
	DataFile         string   `yaml:"data_file"`           // sqlite backend
	RootDir          string   `yaml:"root_dir"`            // directory backend
	LogLevel         string   `yaml:"log_level"`           // trace, debug, info, warn, off
	BusyTimeout      int      `yaml:"busy_timeout"`        // ms, 0 = storage default
	AuthToken        string   `yaml:"auth_token"`          // empty disables the check
	ProtectedActions []string `yaml:"protected_actions"`   // nil = default set
	ImageExtensions  []string `yaml:"image_extensions"`
	Hidden           []string `yaml:"hidden"`
	PreviewBaseURL   string   `yaml:"preview_base_url"`
	RelativeURLsBase string   `yaml:"relative_urls_base"`
	CacheSize        int      `yaml:"cache_size"`
	Cache            *bool    `yaml:"cache"`      // default: true (pointer to detect missing)
	NFSListen        string   `yaml:"nfs_listen"` // empty disables the export
}

// ApplyDefaults fills zero-value fields with their defaults.
func (s *Settings) ApplyDefaults() {
	if s.Listen == "" {
		s.Listen = DefaultListen
	}
	if s.Backend == "" {
		s.Backend = BackendSQLite
	}
	s.Backend = strings.ToLower(s.Backend)
	if s.DataFile == "" {
		s.DataFile = DefaultDataFilePath()
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.ProtectedActions == nil {
		for _, op := range vfs.DefaultProtected() {
			s.ProtectedActions = append(s.ProtectedActions, op.String())
		}
	}
	if s.CacheSize == 0 {
		s.CacheSize = cache.DefaultMaxEntries
	}
	if s.Cache == nil {
		t := true
		s.Cache = &t
	}
}

// CacheEnabled returns whether lookup caching is on (defaults to true).
func (s *Settings) CacheEnabled() bool {
	if s.Cache == nil {
		return true
	}
	return *s.Cache
}

// Validate checks values ApplyDefaults cannot repair.
func (s *Settings) Validate() error {
	switch s.Backend {
	case BackendSQLite, BackendMemory:
	case BackendDirectory:
		if s.RootDir == "" {
			return fmt.Errorf("backend %q requires root_dir", s.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	if _, err := vfs.ParseOps(s.ProtectedActions); err != nil {
		return fmt.Errorf("protected_actions: %w", err)
	}
	return nil
}

// GatewayConfig converts the settings into a gateway configuration.
func (s *Settings) GatewayConfig() (vfs.Config, error) {
	protected, err := vfs.ParseOps(s.ProtectedActions)
	if err != nil {
		return vfs.Config{}, fmt.Errorf("protected_actions: %w", err)
	}
	return vfs.Config{
		PreviewBaseURL:   s.PreviewBaseURL,
		ImageExtensions:  s.ImageExtensions,
		Hidden:           s.Hidden,
		Protected:        protected,
		Authorizer:       vfs.TokenAuthorizer{Token: s.AuthToken},
		RelativeURLsBase: s.RelativeURLsBase,
	}, nil
}

// loadDefaultSettings parses the embedded settings artifact.
func loadDefaultSettings() Settings {
	var settings Settings
	if err := yaml.Unmarshal(artifacts.GlobalSettings, &settings); err != nil {
		panic("failed to parse embedded settings: " + err.Error())
	}
	return settings
}

// LoadSettings reads settings.yaml from the config directory, falling back
// to the embedded defaults when it does not exist. Defaults are applied.
func LoadSettings() (*Settings, error) {
	return LoadSettingsFromPath(SettingsPath())
}

// LoadSettingsFromPath reads settings from path. A missing file yields the
// embedded defaults.
func LoadSettingsFromPath(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			settings := loadDefaultSettings()
			settings.ApplyDefaults()
			return &settings, nil
		}
		return nil, err
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	settings.ApplyDefaults()
	return &settings, nil
}

// SaveSettings writes settings to the config directory.
func SaveSettings(settings *Settings) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	header := []byte("# ResourceFM settings\n# See: resourcefm serve --help\n\n")
	return os.WriteFile(SettingsPath(), append(header, data...), 0600)
}
