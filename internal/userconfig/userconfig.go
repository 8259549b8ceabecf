// Package userconfig provides user configuration management for kpz.
// Configuration is stored in ~/.kpz/config.toml and can be modified
// via the `kpz config` command. Values in the file sit between the
// built-in defaults and KPZ_* environment variables.
package userconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tsukumogami/kpz/internal/config"
)

// Config represents user-configurable settings. Empty fields mean
// "not set" and leave the built-in default in place.
type Config struct {
	// ServerURL is the base URL of the distribution server.
	ServerURL string `toml:"server_url,omitempty"`

	// InstallDir is where artifacts are installed. Defaults to $KPZ_HOME/bin.
	InstallDir string `toml:"install_dir,omitempty"`

	// APITimeout bounds registry.txt requests, e.g. "30s".
	APITimeout string `toml:"api_timeout,omitempty"`

	// DownloadTimeout bounds a single artifact download, e.g. "10m".
	DownloadTimeout string `toml:"download_timeout,omitempty"`

	// ShellProfile is the profile file extended with the PATH export on Unix.
	ShellProfile string `toml:"shell_profile,omitempty"`
}

// keyDescriptions documents every key accepted by Get and Set.
var keyDescriptions = map[string]string{
	"server_url":       "Base URL of the distribution server (http or https)",
	"install_dir":      "Directory where packages are installed",
	"api_timeout":      "Timeout for registry requests (e.g. 30s)",
	"download_timeout": "Timeout for a single package download (e.g. 10m)",
	"shell_profile":    "Shell profile that receives the PATH export (Unix only)",
}

// LoadFromPath reads config from the given file.
// Returns an empty Config if the file doesn't exist.
// Returns an error only for read or parse failures, not missing files.
func LoadFromPath(path string) (*Config, error) {
	userCfg := &Config{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return userCfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), userCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return userCfg, nil
}

// Save writes the configuration to path, replacing any existing file atomically.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(c); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace config file: %w", err)
	}

	return nil
}

// ApplyTo copies every set value onto cfg.
func (c *Config) ApplyTo(cfg *config.Config) {
	if c.ServerURL != "" {
		cfg.SetServerURL(c.ServerURL)
	}
	if c.InstallDir != "" {
		cfg.SetInstallDir(expandHome(c.InstallDir))
	}
	if c.APITimeout != "" {
		cfg.APITimeout = config.ParseAPITimeout("api_timeout", c.APITimeout)
	}
	if c.DownloadTimeout != "" {
		cfg.DownloadTimeout = config.ParseDownloadTimeout("download_timeout", c.DownloadTimeout)
	}
	if c.ShellProfile != "" {
		cfg.ShellProfile = expandHome(c.ShellProfile)
	}
}

// Get returns the value of a config key as a string.
// Returns empty string and false if the key doesn't exist.
func (c *Config) Get(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "server_url":
		return c.ServerURL, true
	case "install_dir":
		return c.InstallDir, true
	case "api_timeout":
		return c.APITimeout, true
	case "download_timeout":
		return c.DownloadTimeout, true
	case "shell_profile":
		return c.ShellProfile, true
	default:
		return "", false
	}
}

// Set updates a config value from a string. An empty value unsets the key.
// Returns an error if the key doesn't exist or the value is invalid.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)

	switch strings.ToLower(key) {
	case "server_url":
		if value != "" {
			u, err := url.Parse(value)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("invalid value for server_url: must be an http or https URL")
			}
		}
		c.ServerURL = value
	case "install_dir":
		c.InstallDir = value
	case "api_timeout":
		if err := validateDuration(key, value); err != nil {
			return err
		}
		c.APITimeout = value
	case "download_timeout":
		if err := validateDuration(key, value); err != nil {
			return err
		}
		c.DownloadTimeout = value
	case "shell_profile":
		c.ShellProfile = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// AvailableKeys returns all configurable keys with descriptions.
func AvailableKeys() map[string]string {
	keys := make(map[string]string, len(keyDescriptions))
	for k, v := range keyDescriptions {
		keys[k] = v
	}
	return keys
}

// SortedKeys returns the configurable keys in a stable order for display.
func SortedKeys() []string {
	keys := make([]string, 0, len(keyDescriptions))
	for k := range keyDescriptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func validateDuration(key, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("invalid value for %s: must be a duration like 30s or 5m", key)
	}
	return nil
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
