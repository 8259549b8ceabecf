package inventory

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ReadSnapshot returns the names recorded by the last successful update.
// A missing snapshot yields nil.
func (inv *Inventory) ReadSnapshot() ([]string, error) {
	data, err := os.ReadFile(inv.snapshotFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry snapshot: %w", err)
	}

	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse registry snapshot: %w", err)
	}
	return names, nil
}

// WriteSnapshot replaces the snapshot with names, one per line.
func (inv *Inventory) WriteSnapshot(names []string) error {
	var buf bytes.Buffer
	for _, name := range names {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	if err := writeFileAtomic(inv.snapshotFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write registry snapshot: %w", err)
	}
	inv.logger.Debug("wrote registry snapshot", "path", inv.snapshotFile, "packages", len(names))
	return nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// over path.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
