package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tsukumogami/kpz/internal/config"
)

// TempDir creates a temporary directory and returns a cleanup function
func TempDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "kpz-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	return dir, func() { os.RemoveAll(dir) }
}

// NewTestConfig creates a config rooted in a temporary home directory.
// The installation directory is not created so that first-use behavior
// can be observed.
func NewTestConfig(t *testing.T) (*config.Config, func()) {
	t.Helper()
	tmpDir, cleanup := TempDir(t)

	cfg := &config.Config{
		HomeDir:         tmpDir,
		LockFile:        filepath.Join(tmpDir, config.LockFileName),
		ConfigFile:      filepath.Join(tmpDir, "config.toml"),
		ServerURL:       config.DefaultServerURL,
		APITimeout:      config.DefaultAPITimeout,
		DownloadTimeout: config.DefaultDownloadTimeout,
		ShellProfile:    filepath.Join(tmpDir, ".profile"),
	}
	cfg.SetInstallDir(filepath.Join(tmpDir, "bin"))

	return cfg, cleanup
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AssertFileExists checks if a file exists at the given path
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if !FileExists(path) {
		t.Errorf("file does not exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does NOT exist at the given path
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if FileExists(path) {
		t.Errorf("file should not exist: %s", path)
	}
}
