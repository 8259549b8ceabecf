// Package pathenv registers the installation directory in the executable
// search path, both for the running process and persistently for future
// sessions.
package pathenv

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tsukumogami/kpz/internal/log"
)

// Store is a persistent home for PATH entries.
type Store interface {
	// Contains reports whether dir is already recorded.
	Contains(dir string) (bool, error)
	// Append records dir once.
	Append(dir string) error
	// Describe names the store for diagnostics.
	Describe() string
	// Hint is printed after a successful Append.
	Hint() string
}

// Registrar adds directories to PATH. Register is idempotent.
type Registrar struct {
	store  Store
	logger log.Logger
	out    io.Writer
}

// NewRegistrar creates a Registrar persisting to store. Hints are written
// to out.
func NewRegistrar(store Store, logger log.Logger, out io.Writer) *Registrar {
	if logger == nil {
		logger = log.NewNoop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Registrar{store: store, logger: logger, out: out}
}

// Store returns the persistent store in use.
func (r *Registrar) Store() Store {
	return r.store
}

// Register makes dir visible on PATH for this process and records it in the
// persistent store. It reports whether the persistent store was changed.
func (r *Registrar) Register(dir string) (bool, error) {
	if !Contains(dir) {
		current := os.Getenv("PATH")
		if current == "" {
			current = dir
		} else {
			current = current + string(os.PathListSeparator) + dir
		}
		if err := os.Setenv("PATH", current); err != nil {
			return false, fmt.Errorf("failed to update PATH: %w", err)
		}
		r.logger.Debug("added to process PATH", "dir", dir)
	}

	present, err := r.store.Contains(dir)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", r.store.Describe(), err)
	}
	if present {
		r.logger.Debug("already on persistent PATH", "dir", dir, "store", r.store.Describe())
		return false, nil
	}

	if err := r.store.Append(dir); err != nil {
		return false, fmt.Errorf("failed to update %s: %w", r.store.Describe(), err)
	}
	r.logger.Info("added to persistent PATH", "dir", dir, "store", r.store.Describe())

	fmt.Fprintf(r.out, "Added %s to PATH in %s\n", dir, r.store.Describe())
	if hint := r.store.Hint(); hint != "" {
		fmt.Fprintln(r.out, hint)
	}
	return true, nil
}

// Contains reports whether dir is an entry of the current process PATH.
func Contains(dir string) bool {
	for _, entry := range filepath.SplitList(os.Getenv("PATH")) {
		if entry != "" && sameDir(entry, dir) {
			return true
		}
	}
	return false
}

func sameDir(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
