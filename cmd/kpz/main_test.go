package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukumogami/kpz/internal/config"
	"github.com/tsukumogami/kpz/internal/install"
	"github.com/tsukumogami/kpz/internal/inventory"
	"github.com/tsukumogami/kpz/internal/testutil"
)

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"On", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"", false},
		{"off", false},
		{"random", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := isTruthy(tt.input)
			if got != tt.want {
				t.Errorf("isTruthy(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetermineLogLevel(t *testing.T) {
	origQuiet := quietFlag
	origVerbose := verboseFlag
	origDebug := debugFlag

	defer func() {
		quietFlag = origQuiet
		verboseFlag = origVerbose
		debugFlag = origDebug
	}()

	tests := []struct {
		name       string
		quietF     bool
		verboseF   bool
		debugF     bool
		envQuiet   string
		envVerbose string
		envDebug   string
		want       slog.Level
	}{
		{name: "default is WARN", want: slog.LevelWarn},
		{name: "debug flag", debugF: true, want: slog.LevelDebug},
		{name: "verbose flag", verboseF: true, want: slog.LevelInfo},
		{name: "quiet flag", quietF: true, want: slog.LevelError},
		{name: "debug env var", envDebug: "1", want: slog.LevelDebug},
		{name: "verbose env var", envVerbose: "true", want: slog.LevelInfo},
		{name: "quiet env var", envQuiet: "yes", want: slog.LevelError},
		{name: "flag takes precedence over env var", quietF: true, envDebug: "1", want: slog.LevelError},
		{name: "debug flag overrides verbose flag", debugF: true, verboseF: true, want: slog.LevelDebug},
		{name: "verbose flag overrides quiet flag", verboseF: true, quietF: true, want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quietFlag = tt.quietF
			verboseFlag = tt.verboseF
			debugFlag = tt.debugF

			// Empty string acts as "unset" for isTruthy checks
			t.Setenv(EnvQuiet, tt.envQuiet)
			t.Setenv(EnvVerbose, tt.envVerbose)
			t.Setenv(EnvDebug, tt.envDebug)

			got := determineLogLevel()
			if got != tt.want {
				t.Errorf("determineLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrintPackageList(t *testing.T) {
	statuses := []install.PackageStatus{
		{Name: "img", Installed: true},
		{Name: "qr", Installed: false},
	}

	var buf bytes.Buffer
	printPackageList(&buf, statuses, false)

	want := "Available packages:\n  img [installed]\n  qr [not installed]\n"
	assert.Equal(t, want, buf.String())
}

func TestPrintPackageList_Empty(t *testing.T) {
	var buf bytes.Buffer
	printPackageList(&buf, nil, false)
	assert.Empty(t, buf.String())
}

func TestStatusTag_Styled(t *testing.T) {
	assert.Contains(t, statusTag(true, true), "[installed]")
	assert.Contains(t, statusTag(false, true), "[not installed]")
	assert.Equal(t, "[installed]", statusTag(true, false))
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"locked", fmt.Errorf("%w (held by pid 42)", inventory.ErrLocked), ExitLocked},
		{"cancelled", context.Canceled, ExitInterrupted},
		{"no packages", install.ErrNoPackages, ExitUsage},
		{
			"filesystem",
			fmt.Errorf("failed to write registry snapshot: %w", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission}),
			ExitFilesystem,
		},
		{"other", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

// setupHome points KPZ_HOME and HOME at a fresh directory and clears the
// other KPZ_* overrides.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvKpzHome, filepath.Join(home, ".kpz"))
	t.Setenv(config.EnvInstallDir, "")
	t.Setenv(config.EnvServerURL, "")
	t.Setenv(config.EnvAPITimeout, "")
	t.Setenv(config.EnvDownloadTimeout, "")
	t.Setenv("SHELL", "/bin/bash")
	t.Setenv("PATH", os.Getenv("PATH"))
	return filepath.Join(home, ".kpz")
}

func TestLoadConfig_Precedence(t *testing.T) {
	kpzHome := setupHome(t)
	require.NoError(t, os.MkdirAll(kpzHome, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(kpzHome, "config.toml"), []byte(
		"server_url = \"http://file.example:9000\"\napi_timeout = \"45s\"\n"), 0644))

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://file.example:9000", cfg.ServerURL)
	assert.Equal(t, 45*time.Second, cfg.APITimeout)
	assert.Equal(t, filepath.Join(kpzHome, "bin"), cfg.InstallDir)

	t.Setenv(config.EnvServerURL, "http://env.example:8000/")
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://env.example:8000", cfg.ServerURL)
	assert.Equal(t, 45*time.Second, cfg.APITimeout)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	kpzHome := setupHome(t)
	require.NoError(t, os.MkdirAll(kpzHome, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(kpzHome, "config.toml"), []byte("server_url = ["), 0644))

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestEffectiveSettings(t *testing.T) {
	setupHome(t)
	cfg, err := loadConfig()
	require.NoError(t, err)

	settings := effectiveSettings(cfg)
	got := make(map[string]string, len(settings))
	for _, kv := range settings {
		got[kv[0]] = kv[1]
	}
	assert.Equal(t, config.DefaultServerURL, got["server_url"])
	assert.Equal(t, "30s", got["api_timeout"])
	assert.Equal(t, "10m0s", got["download_timeout"])
	assert.Equal(t, cfg.InstallDir, got["install_dir"])
}

func TestNewManager_InstallsIntoConfiguredDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PATH persistence writes to the user registry on Windows")
	}
	origQuiet := quietFlag
	quietFlag = true
	defer func() { quietFlag = origQuiet }()

	setupHome(t)
	srv := testutil.NewServer(t)
	srv.Publish("img", []byte("#!/bin/sh\necho img\n"))
	t.Setenv(config.EnvServerURL, srv.URL)

	cfg, err := loadConfig()
	require.NoError(t, err)

	result, err := newManager(cfg).Install(context.Background(), []string{"img"})
	require.NoError(t, err)
	assert.Equal(t, []string{"img"}, result.Succeeded)
	testutil.AssertFileExists(t, filepath.Join(cfg.InstallDir, "img"))

	// First creation of the installation directory is recorded in the profile.
	profile, err := os.ReadFile(filepath.Join(os.Getenv("HOME"), ".bashrc"))
	require.NoError(t, err)
	assert.Contains(t, string(profile), cfg.InstallDir)
}
