package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv(EnvKpzHome, "")

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}

	home, _ := os.UserHomeDir()
	expectedHome := filepath.Join(home, ".kpz")

	if cfg.HomeDir != expectedHome {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, expectedHome)
	}
	if cfg.InstallDir != filepath.Join(expectedHome, "bin") {
		t.Errorf("InstallDir = %q, want %q", cfg.InstallDir, filepath.Join(expectedHome, "bin"))
	}
	if cfg.SnapshotFile != filepath.Join(expectedHome, "bin", "registry.txt") {
		t.Errorf("SnapshotFile = %q, want %q", cfg.SnapshotFile, filepath.Join(expectedHome, "bin", "registry.txt"))
	}
	if cfg.LockFile != filepath.Join(expectedHome, "kpz.lock") {
		t.Errorf("LockFile = %q, want %q", cfg.LockFile, filepath.Join(expectedHome, "kpz.lock"))
	}
	if cfg.ConfigFile != filepath.Join(expectedHome, "config.toml") {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, filepath.Join(expectedHome, "config.toml"))
	}
	if cfg.ServerURL != DefaultServerURL {
		t.Errorf("ServerURL = %q, want %q", cfg.ServerURL, DefaultServerURL)
	}
	if cfg.APITimeout != DefaultAPITimeout {
		t.Errorf("APITimeout = %v, want %v", cfg.APITimeout, DefaultAPITimeout)
	}
}

func TestDefaultConfig_KpzHome(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvKpzHome, tmpDir)

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}

	if cfg.HomeDir != tmpDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, tmpDir)
	}
	if cfg.InstallDir != filepath.Join(tmpDir, "bin") {
		t.Errorf("InstallDir = %q, want %q", cfg.InstallDir, filepath.Join(tmpDir, "bin"))
	}
}

func TestApplyEnv(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvKpzHome, tmpDir)
	t.Setenv(EnvInstallDir, filepath.Join(tmpDir, "elsewhere"))
	t.Setenv(EnvServerURL, "http://packages.example.com:9000/")
	t.Setenv(EnvAPITimeout, "45s")
	t.Setenv(EnvDownloadTimeout, "20m")

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}
	cfg.ApplyEnv()

	if cfg.InstallDir != filepath.Join(tmpDir, "elsewhere") {
		t.Errorf("InstallDir = %q", cfg.InstallDir)
	}
	if cfg.SnapshotFile != filepath.Join(tmpDir, "elsewhere", SnapshotFileName) {
		t.Errorf("SnapshotFile = %q, should follow InstallDir", cfg.SnapshotFile)
	}
	if cfg.ServerURL != "http://packages.example.com:9000" {
		t.Errorf("ServerURL = %q, want trailing slash trimmed", cfg.ServerURL)
	}
	if cfg.APITimeout != 45*time.Second {
		t.Errorf("APITimeout = %v, want 45s", cfg.APITimeout)
	}
	if cfg.DownloadTimeout != 20*time.Minute {
		t.Errorf("DownloadTimeout = %v, want 20m", cfg.DownloadTimeout)
	}
}

func TestApplyEnv_Unset(t *testing.T) {
	t.Setenv(EnvKpzHome, t.TempDir())
	t.Setenv(EnvInstallDir, "")
	t.Setenv(EnvServerURL, "")
	t.Setenv(EnvAPITimeout, "")
	t.Setenv(EnvDownloadTimeout, "")

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}
	before := *cfg
	cfg.ApplyEnv()

	if *cfg != before {
		t.Errorf("ApplyEnv() with no variables changed config: %+v -> %+v", before, *cfg)
	}
}

func TestSetInstallDir_Relative(t *testing.T) {
	cfg := &Config{}
	cfg.SetInstallDir("bin")

	if !filepath.IsAbs(cfg.InstallDir) {
		t.Errorf("InstallDir = %q, want absolute path", cfg.InstallDir)
	}
	if filepath.Base(cfg.InstallDir) != "bin" {
		t.Errorf("InstallDir = %q, want basename bin", cfg.InstallDir)
	}
}

func TestArtifactPath(t *testing.T) {
	cfg := &Config{InstallDir: "/home/user/.kpz/bin"}

	got := cfg.ArtifactPath("img")
	want := filepath.Join("/home/user/.kpz/bin", "img")
	if got != want {
		t.Errorf("ArtifactPath() = %q, want %q", got, want)
	}
}

func TestEnsureHome(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{HomeDir: filepath.Join(tmpDir, "kpz")}

	if err := cfg.EnsureHome(); err != nil {
		t.Fatalf("EnsureHome() failed: %v", err)
	}

	info, err := os.Stat(cfg.HomeDir)
	if err != nil {
		t.Fatalf("home directory does not exist: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%q is not a directory", cfg.HomeDir)
	}
}

func TestParseAPITimeout(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{"valid seconds", "60s", 60 * time.Second},
		{"valid minutes", "2m", 2 * time.Minute},
		{"valid combined", "1m30s", 90 * time.Second},
		{"invalid format", "invalid", DefaultAPITimeout},
		{"number without unit", "30", DefaultAPITimeout},
		{"too low", "100ms", 1 * time.Second},
		{"too high", "15m", 10 * time.Minute},
		{"minimum boundary", "1s", 1 * time.Second},
		{"maximum boundary", "10m", 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAPITimeout(EnvAPITimeout, tt.value)
			if got != tt.expected {
				t.Errorf("ParseAPITimeout(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestParseDownloadTimeout(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{"valid", "30m", 30 * time.Minute},
		{"invalid format", "soon", DefaultDownloadTimeout},
		{"too low", "1s", 10 * time.Second},
		{"too high", "5h", 2 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDownloadTimeout(EnvDownloadTimeout, tt.value)
			if got != tt.expected {
				t.Errorf("ParseDownloadTimeout(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}
