package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tasksync/internal/task"
)

// Batch is a set of changes committed as one unit.
//
// Deletes are applied first so that a remote ID released by a deleted record
// can be claimed by an insert in the same batch. Updates overwrite every
// mutable field of the matching record, including Version and SyncedVersion,
// exactly as given.
type Batch struct {
	Inserts []task.Task
	Updates []task.Task
	Deletes []string

	// SyncedAt, when non-zero, becomes the store's last sync time.
	SyncedAt time.Time
}

// Empty reports whether the batch changes no records.
func (b Batch) Empty() bool {
	return len(b.Inserts) == 0 && len(b.Updates) == 0 && len(b.Deletes) == 0
}

// MutateFunc computes a batch from a consistent view of the store.
type MutateFunc func(local []task.Task, lastSync time.Time) (Batch, error)

// Insert persists a new record and returns it as stored.
//
// Zero CreatedAt, DueDate and Version are stamped with the current time.
// Returns ErrDuplicateID if the ID exists and ErrDuplicateRemoteID if another
// record is already linked to t.RemoteID.
func (s *Store) Insert(ctx context.Context, t task.Task) (task.Task, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	t = s.stamp(t)
	if err := validate(t); err != nil {
		return task.Task{}, fmt.Errorf("insert %s: %w", t.ID, err)
	}

	if err := insertTask(ctx, s.db, t); err != nil {
		return task.Task{}, wrapErr("insert "+t.ID, err)
	}
	return t, nil
}

// Update overwrites the mutable fields (Title, Note, DueDate, Completed) of
// the record with t.ID and returns it as stored.
//
// Version is stamped by the store and strictly exceeds the stored version. An
// update that changes nothing leaves the record, and its version, alone.
// SyncedVersion follows Version when the record was in sync and only Note or
// DueDate changed, so local-only edits never turn into sync conflicts.
// RemoteID and CreatedAt are not changed; use Link to assign a remote ID.
//
// Returns ErrNotFound if no record has t.ID.
func (s *Store) Update(ctx context.Context, t task.Task) (task.Task, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var out task.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getTask(ctx, tx, t.ID)
		if err != nil {
			return err
		}

		next := cur.Clone()
		next.Title = task.NormalizeTitle(t.Title)
		next.Note = t.Note
		next.DueDate = task.Truncate(t.DueDate)
		next.Completed = t.Completed
		if next.DueDate.IsZero() {
			next.DueDate = cur.DueDate
		}
		if err := validate(next); err != nil {
			return err
		}
		if sameFields(cur, next) {
			out = cur
			return nil
		}

		next.Version = task.NextVersion(cur.Version, s.clock.Now())
		// Note and DueDate never reach the remote: an edit touching only
		// them keeps an in-sync record in sync.
		if tracked(cur) && task.SyncStateOf(cur) == task.StateInSync && task.SameRemoteFields(cur, next) {
			next.SyncedVersion = next.Version
		}
		if err := updateTask(ctx, tx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return task.Task{}, classify("update "+t.ID, err)
	}
	return out, nil
}

// Link assigns a remote identity to a record, moving it from local-only to
// linked. The version is bumped and the record is marked in sync: callers
// link a record once the remote holds its current state.
//
// Returns ErrNotFound if no record has id and ErrDuplicateRemoteID if another
// record already holds remoteID.
func (s *Store) Link(ctx context.Context, id string, remoteID int64) (task.Task, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var out task.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur.HasRemoteID(remoteID) {
			out = cur
			return nil
		}

		next := cur.Clone()
		next.RemoteID = task.RemoteIDPtr(remoteID)
		next.Version = task.NextVersion(cur.Version, s.clock.Now())
		next = task.MarkSynced(next)
		_, err = tx.ExecContext(ctx, `
			UPDATE tasks SET remote_id = ?, version = ?, synced_version = ? WHERE id = ?
		`, remoteID, toMicros(next.Version), toMicros(next.SyncedVersion), id)
		if err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return task.Task{}, classify("link "+id, err)
	}
	return out, nil
}

// Delete removes the record with the given ID. Deleting an absent record is
// a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return wrapErr("delete "+id, err)
	}
	return nil
}

// Apply commits b in a single transaction. On any error nothing is changed.
func (s *Store) Apply(ctx context.Context, b Batch) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return applyBatch(ctx, tx, b)
	})
	if err != nil {
		return classify("apply batch", err)
	}
	return nil
}

// Mutate reads all records and the last sync time, passes them to fn and
// commits the returned batch, all inside one write transaction. No other
// writer can change the store between the read and the commit.
//
// If fn returns an error the transaction is rolled back and the error is
// returned unchanged. The committed batch is returned on success.
func (s *Store) Mutate(ctx context.Context, fn MutateFunc) (Batch, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var batch Batch
	var fnErr error
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		local, err := listTasks(ctx, tx)
		if err != nil {
			return err
		}
		last, err := lastSyncAt(ctx, tx)
		if err != nil {
			return err
		}

		batch, fnErr = fn(local, last)
		if fnErr != nil {
			return fnErr
		}
		return applyBatch(ctx, tx, batch)
	})
	if fnErr != nil {
		return Batch{}, fnErr
	}
	if err != nil {
		return Batch{}, classify("apply batch", err)
	}
	return batch, nil
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func applyBatch(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, id := range b.Deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
	}

	for _, t := range b.Updates {
		if err := validate(t); err != nil {
			return fmt.Errorf("update %s: %w", t.ID, err)
		}
		if err := updateTask(ctx, tx, t); err != nil {
			return fmt.Errorf("update %s: %w", t.ID, err)
		}
	}

	for _, t := range b.Inserts {
		if err := validate(t); err != nil {
			return fmt.Errorf("insert %s: %w", t.ID, err)
		}
		if err := insertTask(ctx, tx, t); err != nil {
			return fmt.Errorf("insert %s: %w", t.ID, err)
		}
	}

	if !b.SyncedAt.IsZero() {
		_, err := tx.ExecContext(ctx, `
			UPDATE sync_state SET last_sync_at = ? WHERE id = 1
		`, toMicros(task.Truncate(b.SyncedAt)))
		if err != nil {
			return fmt.Errorf("record sync time: %w", err)
		}
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTask(ctx context.Context, db execer, t task.Task) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks
		(`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.Title,
		t.Note,
		toMicros(t.DueDate),
		t.Completed,
		remoteIDArg(t.RemoteID),
		toMicros(t.Version),
		toMicros(t.SyncedVersion),
		toMicros(t.CreatedAt),
	)
	return err
}

// updateTask overwrites the mutable fields and versions of an existing row.
func updateTask(ctx context.Context, db execer, t task.Task) error {
	res, err := db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, note = ?, due_date = ?, completed = ?, version = ?, synced_version = ?
		WHERE id = ?
	`,
		t.Title,
		t.Note,
		toMicros(t.DueDate),
		t.Completed,
		toMicros(t.Version),
		toMicros(t.SyncedVersion),
		t.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// stamp fills in zero timestamps of a record about to be inserted.
func (s *Store) stamp(t task.Task) task.Task {
	t = t.Clone()
	t.Title = task.NormalizeTitle(t.Title)
	now := s.clock.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.DueDate.IsZero() {
		t.DueDate = t.CreatedAt
	}
	if t.Version.IsZero() {
		t.Version = now
	}
	t.CreatedAt = task.Truncate(t.CreatedAt)
	t.DueDate = task.Truncate(t.DueDate)
	t.Version = task.Truncate(t.Version)
	t.SyncedVersion = task.Truncate(t.SyncedVersion)
	return t
}

func validate(t task.Task) error {
	if t.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTask)
	}
	if !task.ValidTitle(t.Title) {
		return fmt.Errorf("%w: empty title", ErrInvalidTask)
	}
	return nil
}

// tracked reports whether a linked record carries sync tracking information.
func tracked(t task.Task) bool {
	return t.Linked() && !t.SyncedVersion.IsZero()
}

func sameFields(a, b task.Task) bool {
	return a.Title == b.Title &&
		a.Note == b.Note &&
		a.DueDate.Equal(b.DueDate) &&
		a.Completed == b.Completed
}

func remoteIDArg(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// classify keeps sentinel errors visible to errors.Is and wraps the rest.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidTask),
		errors.Is(err, ErrDuplicateID),
		errors.Is(err, ErrDuplicateRemoteID):
		return fmt.Errorf("%s: %w", op, err)
	}
	return wrapErr(op, err)
}
