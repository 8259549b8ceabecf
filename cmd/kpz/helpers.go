package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/tsukumogami/kpz/internal/config"
	"github.com/tsukumogami/kpz/internal/errmsg"
	"github.com/tsukumogami/kpz/internal/install"
	"github.com/tsukumogami/kpz/internal/inventory"
)

// printInfof prints a formatted informational message unless quiet mode is enabled
func printInfof(format string, a ...interface{}) {
	if !quiet() {
		fmt.Printf(format, a...)
	}
}

// printError prints an error to stderr with suggestions if available.
func printError(err error, cfg *config.Config) {
	var ctx *errmsg.ErrorContext
	if cfg != nil {
		ctx = &errmsg.ErrorContext{ServerURL: cfg.ServerURL, InstallDir: cfg.InstallDir}
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", strings.TrimRight(errmsg.Format(err, ctx), "\n"))
}

// exitCodeFor maps an operation-level error to a process exit code.
func exitCodeFor(err error) int {
	var pathErr *fs.PathError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, inventory.ErrLocked):
		return ExitLocked
	case errors.Is(err, install.ErrNoPackages):
		return ExitUsage
	case errors.As(err, &pathErr):
		return ExitFilesystem
	default:
		return ExitGeneral
	}
}

// handleError reports a fatal operation error and exits.
func handleError(err error, cfg *config.Config) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Operation cancelled.")
	} else if !errors.Is(err, install.ErrNoPackages) {
		printError(err, cfg)
	}
	exitWithCode(exitCodeFor(err))
}
