package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/tasksync/internal/remote"
	"github.com/roach88/tasksync/internal/store"
)

// ErrSyncInProgress is returned when another process holds the sync lock.
var ErrSyncInProgress = errors.New("sync already in progress")

// Stage identifies the step of the sync pipeline that failed.
type Stage string

const (
	// StageFetch means the remote list could not be retrieved. The store
	// was not touched.
	StageFetch Stage = "fetch"

	// StageCommit means the merge transaction failed and was rolled back.
	StageCommit Stage = "commit"

	// StageLoad means the store could not be read after a successful commit.
	StageLoad Stage = "load"

	// StageLock means the lock file could not be opened or locked. The store
	// was not touched.
	StageLock Stage = "lock"
)

// SyncError reports a failed sync.
//
// Err wraps a *remote.FetchError for StageFetch, the lock file error for
// StageLock and, for the other stages, usually a *store.StorageError.
type SyncError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed at %s: %v", e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsFetchError returns true if the sync failed because the remote list could
// not be fetched. Uses errors.As to handle wrapped errors.
func IsFetchError(err error) bool {
	return remote.IsFetchError(err)
}

// IsStorageError returns true if the error comes from durable storage.
// Uses errors.As to handle wrapped errors.
func IsStorageError(err error) bool {
	return store.IsStorageError(err)
}

// StageOf returns the failed stage of a sync error, or "" if err is not a
// *SyncError.
func StageOf(err error) Stage {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
