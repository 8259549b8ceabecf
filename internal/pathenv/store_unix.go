//go:build !windows

package pathenv

import (
	"os"

	"github.com/tsukumogami/kpz/internal/config"
)

// DefaultStore returns the shell profile selected by cfg and $SHELL.
func DefaultStore(cfg *config.Config) (Store, error) {
	home, err := os.UserHomeDir()
	if err != nil && cfg.ShellProfile == "" {
		return nil, err
	}
	return &ProfileStore{Path: ProfilePath(cfg.ShellProfile, os.Getenv("SHELL"), home)}, nil
}
