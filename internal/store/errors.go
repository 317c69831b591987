package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a record with the requested ID does not exist.
	ErrNotFound = errors.New("task not found")

	// ErrDuplicateID is returned when inserting a record whose ID is taken.
	ErrDuplicateID = errors.New("duplicate task id")

	// ErrDuplicateRemoteID is returned when a second record would be linked
	// to the same remote task.
	ErrDuplicateRemoteID = errors.New("duplicate remote id")

	// ErrInvalidTask is returned for records that violate field constraints,
	// such as an empty title.
	ErrInvalidTask = errors.New("invalid task")
)

// StorageError represents an I/O failure reading or writing durable state.
// Any batch that fails with a StorageError has been rolled back.
type StorageError struct {
	// Op names the failed operation (e.g. "list", "apply batch").
	Op string

	// Err is the underlying driver error.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is or wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// wrapErr classifies a driver error. Constraint violations map to the
// sentinel errors; everything else becomes a StorageError.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.Code == sqlite3.ErrConstraint {
		switch {
		case sqErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w", op, ErrDuplicateID)
		case sqErr.ExtendedCode == sqlite3.ErrConstraintUnique && strings.Contains(sqErr.Error(), "remote_id"):
			return fmt.Errorf("%s: %w", op, ErrDuplicateRemoteID)
		case sqErr.ExtendedCode == sqlite3.ErrConstraintUnique && strings.Contains(sqErr.Error(), "tasks.id"):
			return fmt.Errorf("%s: %w", op, ErrDuplicateID)
		case sqErr.ExtendedCode == sqlite3.ErrConstraintCheck, sqErr.ExtendedCode == sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%s: %w: %v", op, ErrInvalidTask, err)
		}
	}
	return &StorageError{Op: op, Err: err}
}
