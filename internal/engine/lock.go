package engine

import (
	"fmt"

	"github.com/gofrs/flock"
)

// LockPath returns the default sync lock file for a database path.
func LockPath(dbPath string) string {
	return dbPath + ".sync.lock"
}

// acquireLock takes the cross-process sync lock without waiting.
// The returned func releases it.
func (e *Engine) acquireLock() (func(), error) {
	if e.lockPath == "" {
		return func() {}, nil
	}

	lock := flock.New(e.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring sync lock: %w", err)
	}
	if !locked {
		e.logger.Warn("sync lock held by another process", "path", e.lockPath)
		return nil, ErrSyncInProgress
	}
	return func() { _ = lock.Unlock() }, nil
}
