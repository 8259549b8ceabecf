package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// EnvKpzHome is the environment variable to override the default kpz home directory
	EnvKpzHome = "KPZ_HOME"

	// EnvInstallDir is the environment variable to override the installation directory
	EnvInstallDir = "KPZ_INSTALL_DIR"

	// EnvServerURL is the environment variable to override the distribution server URL
	EnvServerURL = "KPZ_SERVER_URL"

	// EnvAPITimeout is the environment variable to configure the registry request timeout
	EnvAPITimeout = "KPZ_API_TIMEOUT"

	// EnvDownloadTimeout is the environment variable to configure the artifact download timeout
	EnvDownloadTimeout = "KPZ_DOWNLOAD_TIMEOUT"

	// DefaultServerURL is the distribution server used when nothing else is configured
	DefaultServerURL = "http://localhost:8080"

	// DefaultAPITimeout is the default timeout for registry requests (30 seconds)
	DefaultAPITimeout = 30 * time.Second

	// DefaultDownloadTimeout is the default timeout for a single artifact download (10 minutes)
	DefaultDownloadTimeout = 10 * time.Minute

	// SnapshotFileName is the name of the local registry snapshot inside the installation directory
	SnapshotFileName = "registry.txt"

	// LockFileName is the name of the advisory lock file inside the home directory
	LockFileName = "kpz.lock"
)

// Config holds kpz configuration. It is built once at startup and passed
// to every component; nothing reads paths or URLs from globals.
type Config struct {
	HomeDir         string        // $KPZ_HOME
	InstallDir      string        // $KPZ_HOME/bin
	SnapshotFile    string        // $KPZ_HOME/bin/registry.txt
	LockFile        string        // $KPZ_HOME/kpz.lock
	ConfigFile      string        // $KPZ_HOME/config.toml
	ServerURL       string        // Base URL of the distribution server
	APITimeout      time.Duration // Timeout for registry.txt requests
	DownloadTimeout time.Duration // Timeout for a single artifact download
	ShellProfile    string        // Shell profile to extend on Unix; empty selects one from $SHELL
}

// DefaultConfig returns the default configuration rooted at $KPZ_HOME
// (or ~/.kpz). Environment overrides other than KPZ_HOME are applied
// separately by ApplyEnv so that config.toml can sit between the two.
func DefaultConfig() (*Config, error) {
	kpzHome := os.Getenv(EnvKpzHome)
	if kpzHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		kpzHome = filepath.Join(home, ".kpz")
	}

	absHome, err := filepath.Abs(kpzHome)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	cfg := &Config{
		HomeDir:         absHome,
		LockFile:        filepath.Join(absHome, LockFileName),
		ConfigFile:      filepath.Join(absHome, "config.toml"),
		ServerURL:       DefaultServerURL,
		APITimeout:      DefaultAPITimeout,
		DownloadTimeout: DefaultDownloadTimeout,
	}
	cfg.SetInstallDir(filepath.Join(absHome, "bin"))

	return cfg, nil
}

// SetInstallDir changes the installation directory and the snapshot path
// that lives inside it. Relative paths are resolved against the working
// directory so that PATH entries are always absolute.
func (c *Config) SetInstallDir(dir string) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	c.InstallDir = dir
	c.SnapshotFile = filepath.Join(dir, SnapshotFileName)
}

// SetServerURL normalizes and stores the distribution server URL.
func (c *Config) SetServerURL(url string) {
	c.ServerURL = strings.TrimRight(strings.TrimSpace(url), "/")
}

// ApplyEnv overrides configuration with KPZ_* environment variables.
func (c *Config) ApplyEnv() {
	if dir := os.Getenv(EnvInstallDir); dir != "" {
		c.SetInstallDir(dir)
	}
	if url := os.Getenv(EnvServerURL); url != "" {
		c.SetServerURL(url)
	}
	if v := os.Getenv(EnvAPITimeout); v != "" {
		c.APITimeout = ParseAPITimeout(EnvAPITimeout, v)
	}
	if v := os.Getenv(EnvDownloadTimeout); v != "" {
		c.DownloadTimeout = ParseDownloadTimeout(EnvDownloadTimeout, v)
	}
}

// ArtifactPath returns the on-disk location of an installed package
func (c *Config) ArtifactPath(name string) string {
	return filepath.Join(c.InstallDir, name)
}

// EnsureHome creates the kpz home directory. The installation directory is
// created separately by the inventory so that first creation can be observed.
func (c *Config) EnsureHome() error {
	if err := os.MkdirAll(c.HomeDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.HomeDir, err)
	}
	return nil
}

// ParseAPITimeout parses a registry timeout from the named source.
// Invalid values fall back to DefaultAPITimeout; valid values are clamped
// to the range 1s..10m. Accepts duration strings like "30s", "1m", "2m30s".
func ParseAPITimeout(source, value string) time.Duration {
	return parseClampedDuration(source, value, DefaultAPITimeout, 1*time.Second, 10*time.Minute)
}

// ParseDownloadTimeout parses an artifact download timeout from the named
// source, clamped to 10s..2h.
func ParseDownloadTimeout(source, value string) time.Duration {
	return parseClampedDuration(source, value, DefaultDownloadTimeout, 10*time.Second, 2*time.Hour)
}

func parseClampedDuration(source, value string, def, lo, hi time.Duration) time.Duration {
	duration, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			source, value, def)
		return def
	}

	if duration < lo {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum %v\n",
			source, duration, lo)
		return lo
	}
	if duration > hi {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum %v\n",
			source, duration, hi)
		return hi
	}

	return duration
}
