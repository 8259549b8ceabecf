package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLocked is returned when another kpz process holds the lock and it
// does not become free before the context expires.
var ErrLocked = errors.New("another kpz process is using the installation directory")

// errWouldBlock is returned by tryLock when the lock is held elsewhere.
var errWouldBlock = errors.New("lock is busy")

// lockPollInterval is how often a busy lock is retried.
const lockPollInterval = 100 * time.Millisecond

// LockMetadata identifies the lock holder for diagnostics.
type LockMetadata struct {
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Lock is a held advisory lock.
type Lock struct {
	file *os.File
	path string
}

// Lock acquires the advisory lock guarding the installation directory and
// snapshot. A busy lock is retried until ctx is done.
func (inv *Inventory) Lock(ctx context.Context) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(inv.lockFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	file, err := os.OpenFile(inv.lockFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	waiting := false
	for {
		err := tryLock(file)
		if err == nil {
			break
		}
		if !errors.Is(err, errWouldBlock) {
			file.Close()
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if !waiting {
			waiting = true
			inv.logger.Info("waiting for lock", "path", inv.lockFile)
		}

		select {
		case <-ctx.Done():
			file.Close()
			if meta, err := readLockMetadata(inv.lockFile); err == nil && meta.PID != 0 {
				return nil, fmt.Errorf("%w (held by pid %d)", ErrLocked, meta.PID)
			}
			return nil, ErrLocked
		case <-time.After(lockPollInterval):
		}
	}

	if err := writeLockMetadata(file); err != nil {
		inv.logger.Debug("failed to record lock holder", "error", err)
	}
	inv.logger.Debug("acquired lock", "path", inv.lockFile)

	return &Lock{file: file, path: inv.lockFile}, nil
}

// Release releases the lock. The lock file itself is left in place so that
// a waiting process never locks an unlinked inode.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}

	err := unlock(l.file)
	closeErr := l.file.Close()
	l.file = nil

	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close lock file: %w", closeErr)
	}
	return nil
}

func writeLockMetadata(file *os.File) error {
	if err := file.Truncate(0); err != nil {
		return err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return err
	}
	return json.NewEncoder(file).Encode(LockMetadata{
		PID:        os.Getpid(),
		AcquiredAt: time.Now(),
	})
}

func readLockMetadata(path string) (LockMetadata, error) {
	var meta LockMetadata
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}
