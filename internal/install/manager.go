// Package install reconciles the distribution server's registry with the
// local installation directory: update, list, install, remove and upgrade.
//
// Every operation holds the inventory lock for its whole duration. Problems
// with a single package are reported on the error writer and recorded in
// the returned BatchResult; only conditions that stop the whole operation
// are returned as errors.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tsukumogami/kpz/internal/inventory"
	"github.com/tsukumogami/kpz/internal/log"
)

// AllPackages selects every package when given as the only argument.
const AllPackages = "all"

// DefaultLockWait is how long an operation waits for another kpz process.
const DefaultLockWait = 10 * time.Second

var (
	// ErrNoPackages is returned when install or remove is called without names.
	ErrNoPackages = errors.New("no packages specified")

	// ErrNotInRegistry marks a requested package the server does not offer.
	ErrNotInRegistry = errors.New("package not found on the server")

	// ErrNoLongerAvailable marks an installed package the server dropped.
	ErrNoLongerAvailable = errors.New("package is no longer available on the server")
)

// RegistryClient is the subset of the registry client the manager needs.
type RegistryClient interface {
	FetchRegistry(ctx context.Context) ([]string, error)
	FetchArtifact(ctx context.Context, name string, dst io.Writer) (int64, error)
}

// Manager runs package operations against one server and one inventory.
type Manager struct {
	registry RegistryClient
	inv      *inventory.Inventory
	out      io.Writer
	errOut   io.Writer
	logger   log.Logger
	lockWait time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithOutput sets the writers for user output and per-package diagnostics.
func WithOutput(out, errOut io.Writer) Option {
	return func(m *Manager) {
		m.out = out
		m.errOut = errOut
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithLockWait sets how long to wait for the inventory lock.
func WithLockWait(d time.Duration) Option {
	return func(m *Manager) { m.lockWait = d }
}

// New creates a Manager.
func New(reg RegistryClient, inv *inventory.Inventory, opts ...Option) *Manager {
	m := &Manager{
		registry: reg,
		inv:      inv,
		out:      os.Stdout,
		errOut:   os.Stderr,
		logger:   log.NewNoop(),
		lockWait: DefaultLockWait,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PackageStatus is one line of the list output.
type PackageStatus struct {
	Name      string
	Installed bool
}

// PackageError ties an outcome to the package it concerns.
type PackageError struct {
	Name string
	Err  error
}

func (e PackageError) Error() string { return fmt.Sprintf("%s: %v", e.Name, e.Err) }
func (e PackageError) Unwrap() error { return e.Err }

// BatchResult summarizes an install, remove or upgrade.
type BatchResult struct {
	Succeeded []string
	Skipped   []PackageError // ErrNotInRegistry, ErrNotInstalled or ErrNoLongerAvailable
	Failed    []PackageError

	// Aborted is set when the operation could not start, e.g. because the
	// registry was unavailable. Nothing was changed.
	Aborted bool
}

// HasFailures reports whether any package failed.
func (r *BatchResult) HasFailures() bool {
	return len(r.Failed) > 0
}

func (r *BatchResult) fail(name string, err error) {
	r.Failed = append(r.Failed, PackageError{Name: name, Err: err})
}

func (r *BatchResult) skip(name string, reason error) {
	r.Skipped = append(r.Skipped, PackageError{Name: name, Err: reason})
}

// SkippedNames returns the names of skipped packages.
func (r *BatchResult) SkippedNames() []string {
	names := make([]string, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		names = append(names, s.Name)
	}
	return names
}

// begin takes the inventory lock and makes sure the installation directory
// exists. The returned function releases the lock.
func (m *Manager) begin(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, m.lockWait)
	defer cancel()

	lock, err := m.inv.Lock(lockCtx)
	if err != nil {
		return nil, err
	}
	release := func() {
		if err := lock.Release(); err != nil {
			m.logger.Warn("failed to release lock", "error", err)
		}
	}

	if _, err := m.inv.EnsureDirectory(); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

// fetchRegistry returns the server's registry, or nil after printing a
// diagnostic when it is unknown or empty.
func (m *Manager) fetchRegistry(ctx context.Context) []string {
	names, err := m.registry.FetchRegistry(ctx)
	if err != nil {
		fmt.Fprintf(m.errOut, "Error fetching registry: %v\n", err)
		m.logger.Debug("registry fetch failed", "error", err)
		return nil
	}
	return names
}

// download streams one artifact into the installation directory. The
// previous artifact, if any, stays in place unless the download completes.
func (m *Manager) download(ctx context.Context, name string) error {
	staged, err := m.inv.StageArtifact(name)
	if err != nil {
		return err
	}

	start := time.Now()
	n, err := m.registry.FetchArtifact(ctx, name, staged)
	if err != nil {
		staged.Abort()
		return err
	}
	if err := staged.Commit(); err != nil {
		return err
	}

	m.logger.Info("installed artifact", "package", name,
		"size", humanize.Bytes(uint64(n)), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// dedupe drops repeated names, keeping the first occurrence.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// isAll reports whether args select every package.
func isAll(args []string) bool {
	return len(args) == 1 && args[0] == AllPackages
}
