// Package inventory owns the installation directory: it scans it for
// installed artifacts, writes and removes them atomically, persists the
// registry snapshot, and serializes kpz processes with an advisory lock.
package inventory

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsukumogami/kpz/internal/config"
	"github.com/tsukumogami/kpz/internal/log"
	"github.com/tsukumogami/kpz/internal/platform"
)

var (
	// ErrNotInstalled is returned when removing a package that is not present.
	ErrNotInstalled = errors.New("package is not installed")

	// ErrInvalidName is returned for names that cannot map to a file in the
	// installation directory.
	ErrInvalidName = errors.New("invalid package name")
)

// tempPrefix starts every staging file name. Staging files are hidden,
// end in .tmp and are created 0600, so no detector reports them.
const tempPrefix = ".kpz-"

// PathRegistrar adds a directory to the executable search path.
type PathRegistrar interface {
	Register(dir string) (bool, error)
}

// Inventory manages the installation directory described by a Config.
type Inventory struct {
	dir          string
	snapshotFile string
	lockFile     string
	detector     platform.Detector
	registrar    PathRegistrar
	logger       log.Logger
}

// Option configures an Inventory.
type Option func(*Inventory)

// WithDetector overrides the platform detector.
func WithDetector(d platform.Detector) Option {
	return func(inv *Inventory) { inv.detector = d }
}

// WithRegistrar sets the PATH registrar called when the directory is created.
func WithRegistrar(r PathRegistrar) Option {
	return func(inv *Inventory) { inv.registrar = r }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(inv *Inventory) { inv.logger = l }
}

// New creates an Inventory for cfg.InstallDir.
func New(cfg *config.Config, opts ...Option) *Inventory {
	inv := &Inventory{
		dir:          cfg.InstallDir,
		snapshotFile: cfg.SnapshotFile,
		lockFile:     cfg.LockFile,
		detector:     platform.Default(),
		logger:       log.NewNoop(),
	}
	if inv.snapshotFile == "" {
		inv.snapshotFile = filepath.Join(inv.dir, config.SnapshotFileName)
	}
	if inv.lockFile == "" {
		inv.lockFile = filepath.Join(filepath.Dir(inv.dir), config.LockFileName)
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Dir returns the installation directory.
func (inv *Inventory) Dir() string {
	return inv.dir
}

// SnapshotPath returns the location of the registry snapshot.
func (inv *Inventory) SnapshotPath() string {
	return inv.snapshotFile
}

// Detector returns the platform detector in use.
func (inv *Inventory) Detector() platform.Detector {
	return inv.detector
}

// ValidatePackageName rejects names that cannot be stored as a plain file
// in the installation directory.
func ValidatePackageName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case name == config.SnapshotFileName, name == config.LockFileName:
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	return nil
}

// ArtifactPath returns where the named artifact lives.
func (inv *Inventory) ArtifactPath(name string) string {
	return filepath.Join(inv.dir, name)
}

// EnsureDirectory creates the installation directory if it is missing and
// reports whether it did. A newly created directory is registered on PATH;
// registration failures are logged, not returned.
func (inv *Inventory) EnsureDirectory() (bool, error) {
	info, err := os.Stat(inv.dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("installation directory %s is not a directory", inv.dir)
		}
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to access installation directory: %w", err)
	}

	if err := os.MkdirAll(inv.dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create installation directory: %w", err)
	}
	inv.logger.Info("created installation directory", "dir", inv.dir)

	if inv.registrar != nil {
		if _, err := inv.registrar.Register(inv.dir); err != nil {
			inv.logger.Warn("could not add installation directory to PATH", "dir", inv.dir, "error", err)
		}
	}
	return true, nil
}

// ListInstalled returns the names of installed artifacts sorted by name.
// A missing directory has no artifacts.
func (inv *Inventory) ListInstalled() ([]string, error) {
	entries, err := os.ReadDir(inv.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read installation directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		info, err := inv.statEntry(entry)
		if err != nil {
			inv.logger.Debug("skipping unreadable entry", "name", entry.Name(), "error", err)
			continue
		}
		if inv.detector.IsArtifact(entry.Name(), info) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// statEntry returns the entry's info, following symlinks.
func (inv *Inventory) statEntry(entry fs.DirEntry) (fs.FileInfo, error) {
	info, err := entry.Info()
	if err != nil {
		return nil, err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return os.Stat(filepath.Join(inv.dir, entry.Name()))
	}
	return info, nil
}

// IsInstalled reports whether name is currently an installed artifact.
func (inv *Inventory) IsInstalled(name string) bool {
	if ValidatePackageName(name) != nil {
		return false
	}
	info, err := os.Stat(inv.ArtifactPath(name))
	if err != nil {
		return false
	}
	return inv.detector.IsArtifact(name, info)
}

// Staged is an artifact being written. Nothing is visible at the final
// path until Commit succeeds.
type Staged struct {
	name      string
	finalPath string
	file      *os.File
	done      bool
}

// StageArtifact opens a staging file for name in the installation
// directory, which must already exist.
func (inv *Inventory) StageArtifact(name string) (*Staged, error) {
	if err := ValidatePackageName(name); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(inv.dir, tempPrefix+name+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file for %s: %w", name, err)
	}
	return &Staged{name: name, finalPath: inv.ArtifactPath(name), file: f}, nil
}

func (s *Staged) Write(p []byte) (int, error) {
	return s.file.Write(p)
}

// Commit flushes the staged bytes, marks them executable and moves them
// into place, replacing any previous artifact.
func (s *Staged) Commit() error {
	if s.done {
		return fmt.Errorf("staged artifact %s already finished", s.name)
	}
	tmpPath := s.file.Name()

	if err := s.file.Sync(); err != nil {
		s.Abort()
		return fmt.Errorf("failed to sync %s: %w", s.name, err)
	}
	if err := s.file.Close(); err != nil {
		s.Abort()
		return fmt.Errorf("failed to close %s: %w", s.name, err)
	}
	if err := os.Chmod(tmpPath, 0755); err != nil {
		s.Abort()
		return fmt.Errorf("failed to make %s executable: %w", s.name, err)
	}
	if err := os.Rename(tmpPath, s.finalPath); err != nil {
		s.Abort()
		return fmt.Errorf("failed to install %s: %w", s.name, err)
	}
	s.done = true
	return nil
}

// Abort discards the staging file. It is safe to call after Commit.
func (s *Staged) Abort() {
	if s.done {
		return
	}
	s.done = true
	_ = s.file.Close()
	_ = os.Remove(s.file.Name())
}

// WriteArtifact atomically installs the contents of src as name.
func (inv *Inventory) WriteArtifact(name string, src io.Reader) error {
	staged, err := inv.StageArtifact(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(staged, src); err != nil {
		staged.Abort()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return staged.Commit()
}

// RemoveArtifact deletes an installed artifact.
func (inv *Inventory) RemoveArtifact(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if !inv.IsInstalled(name) {
		return fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	if err := os.Remove(inv.ArtifactPath(name)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	inv.logger.Debug("removed artifact", "package", name)
	return nil
}
