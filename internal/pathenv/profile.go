package pathenv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// profileMarker precedes every line kpz appends to a shell profile.
const profileMarker = "# Added by kpz"

// ProfileStore records PATH entries as export lines in a shell profile.
type ProfileStore struct {
	Path string
}

// ProfilePath selects the shell profile to extend: the configured one if
// set, else ~/.zshrc for zsh users, else ~/.bashrc.
func ProfilePath(configured, shell, home string) string {
	if configured != "" {
		return configured
	}
	if filepath.Base(shell) == "zsh" {
		return filepath.Join(home, ".zshrc")
	}
	return filepath.Join(home, ".bashrc")
}

// Contains reports whether the directory string already occurs anywhere
// in the profile. A missing profile contains nothing.
func (s *ProfileStore) Contains(dir string) (bool, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.Contains(string(data), dir), nil
}

// Append adds an export line for dir, creating the profile if needed.
func (s *ProfileStore) Append(dir string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "\n%s\nexport PATH=\"$PATH:%s\"\n", profileMarker, dir); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *ProfileStore) Describe() string {
	return s.Path
}

func (s *ProfileStore) Hint() string {
	return fmt.Sprintf("Please run 'source %s' or restart your terminal to use installed packages.", s.Path)
}
