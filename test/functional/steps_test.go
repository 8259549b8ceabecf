package functional

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// aCleanKpzEnvironment is a no-op because the Before hook already sets up
// the environment. This step exists so feature files read naturally.
func aCleanKpzEnvironment(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

// theServerPublishes publishes a comma-separated list of packages. Each
// artifact is a shell script that prints its own name.
func theServerPublishes(ctx context.Context, names string) (context.Context, error) {
	state := getState(ctx)
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		state.server.Publish(name, []byte(fmt.Sprintf("#!/bin/sh\necho %s\n", name)))
	}
	return ctx, nil
}

func theServerPublishesNothing(ctx context.Context) (context.Context, error) {
	getState(ctx).server.SetRegistry()
	return ctx, nil
}

// theServerStopsListing drops one name from registry.txt.
func theServerStopsListing(ctx context.Context, name string) (context.Context, error) {
	state := getState(ctx)
	var kept []string
	for _, n := range registryNames(state) {
		if n != name {
			kept = append(kept, n)
		}
	}
	state.server.SetRegistry(kept...)
	return ctx, nil
}

func theArtifactFailsWithStatus(ctx context.Context, name string, status int) (context.Context, error) {
	getState(ctx).server.FailArtifact(name, status)
	return ctx, nil
}

// theServerIsUnreachable points the binary at a port nothing listens on.
func theServerIsUnreachable(ctx context.Context) (context.Context, error) {
	state := getState(ctx)
	state.server.Close()
	return ctx, nil
}

// registryNames reads the registry currently served.
func registryNames(state *testState) []string {
	resp, err := state.server.Client().Get(state.serverURL + "/registry.txt")
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return strings.Fields(string(data))
}

func installDir(state *testState) string {
	return filepath.Join(state.kpzHome, "bin")
}

// iRun executes a command string, replacing "kpz" with the test binary path.
func iRun(ctx context.Context, command string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	args := strings.Fields(command)
	if len(args) > 0 && args[0] == "kpz" {
		args[0] = state.binPath
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = state.homeDir

	// Build environment: isolated home, local server, bash profile
	cmd.Env = append(os.Environ(),
		"HOME="+state.homeDir,
		"SHELL=/bin/bash",
		"KPZ_HOME="+state.kpzHome,
		"KPZ_SERVER_URL="+state.serverURL,
		"KPZ_INSTALL_DIR=",
		"KPZ_API_TIMEOUT=5s",
	)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	state.stdout = stdout.String()
	state.stderr = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			state.exitCode = exitErr.ExitCode()
		} else {
			return ctx, fmt.Errorf("command execution failed: %w", err)
		}
	} else {
		state.exitCode = 0
	}

	return ctx, nil
}

func theExitCodeIs(ctx context.Context, expected int) error {
	state := getState(ctx)
	if state.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			expected, state.exitCode, state.stdout, state.stderr)
	}
	return nil
}

func theExitCodeIsNot(ctx context.Context, notExpected int) error {
	state := getState(ctx)
	if state.exitCode == notExpected {
		return fmt.Errorf("expected exit code to not be %d\nstdout: %s\nstderr: %s",
			notExpected, state.stdout, state.stderr)
	}
	return nil
}

func theOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theOutputDoesNotContain(ctx context.Context, text string) error {
	state := getState(ctx)
	if strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout not to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theErrorOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

func theErrorOutputDoesNotContain(ctx context.Context, text string) error {
	state := getState(ctx)
	if strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr not to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

// Paths in file steps are relative to $KPZ_HOME.
func theFileExists(ctx context.Context, path string) error {
	state := getState(ctx)
	fullPath := filepath.Join(state.kpzHome, path)
	if _, err := os.Lstat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("expected file %q to exist", fullPath)
	}
	return nil
}

func theFileDoesNotExist(ctx context.Context, path string) error {
	state := getState(ctx)
	fullPath := filepath.Join(state.kpzHome, path)
	if _, err := os.Lstat(fullPath); err == nil {
		return fmt.Errorf("expected file %q not to exist", fullPath)
	}
	return nil
}

func theFileContains(ctx context.Context, path, text string) error {
	state := getState(ctx)
	fullPath := filepath.Join(state.kpzHome, path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return fmt.Errorf("reading %q: %w", fullPath, err)
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("expected %q to contain %q, got:\n%s", fullPath, text, data)
	}
	return nil
}

func theProfileMentionsInstallDirOnce(ctx context.Context) error {
	state := getState(ctx)
	profile := filepath.Join(state.homeDir, ".bashrc")
	data, err := os.ReadFile(profile)
	if err != nil {
		return fmt.Errorf("reading %q: %w", profile, err)
	}
	if n := strings.Count(string(data), installDir(state)); n != 1 {
		return fmt.Errorf("expected %s to appear once in %s, found %d:\n%s", installDir(state), profile, n, data)
	}
	return nil
}

func iCanRun(ctx context.Context, command string) (context.Context, error) {
	state := getState(ctx)

	cmd := exec.Command("bash", "-c", command)
	cmd.Env = append(os.Environ(),
		"PATH="+installDir(state)+string(os.PathListSeparator)+os.Getenv("PATH"),
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return ctx, fmt.Errorf("command %q failed: %v\noutput: %s", command, err, string(out))
	}
	return ctx, nil
}
