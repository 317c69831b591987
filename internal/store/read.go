package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tasksync/internal/task"
)

const taskColumns = `id, title, note, due_date, completed, remote_id, version, synced_version, created_at`

// queryer is satisfied by *sql.DB and *sql.Tx so reads can run inside a batch.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// List returns all task records ordered by creation time, then ID.
//
// Returns an empty slice (not nil) if the store holds no records.
func (s *Store) List(ctx context.Context) ([]task.Task, error) {
	tasks, err := listTasks(ctx, s.db)
	if err != nil {
		return nil, wrapErr("list", err)
	}
	return tasks, nil
}

func listTasks(ctx context.Context, q queryer) ([]task.Task, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// Get retrieves a single task by ID.
// Returns ErrNotFound if no such record exists.
func (s *Store) Get(ctx context.Context, id string) (task.Task, error) {
	t, err := getTask(ctx, s.db, id)
	if errors.Is(err, ErrNotFound) {
		return task.Task{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return task.Task{}, wrapErr("get", err)
	}
	return t, nil
}

func getTask(ctx context.Context, q queryer, id string) (task.Task, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = ?
	`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, ErrNotFound
	}
	return t, err
}

// FindByRemoteID returns the record linked to the given remote task.
// found is false when no local record carries remoteID.
func (s *Store) FindByRemoteID(ctx context.Context, remoteID int64) (t task.Task, found bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE remote_id = ?
	`, remoteID)
	t, err = scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, false, nil
	}
	if err != nil {
		return task.Task{}, false, wrapErr("find by remote id", err)
	}
	return t, true, nil
}

// LastSyncAt returns the time of the last committed sync, or the zero time if
// the store has never been synced.
func (s *Store) LastSyncAt(ctx context.Context) (time.Time, error) {
	last, err := lastSyncAt(ctx, s.db)
	if err != nil {
		return time.Time{}, wrapErr("last sync", err)
	}
	return last, nil
}

func lastSyncAt(ctx context.Context, q queryer) (time.Time, error) {
	var us int64
	err := q.QueryRowContext(ctx, `SELECT last_sync_at FROM sync_state WHERE id = 1`).Scan(&us)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query sync state: %w", err)
	}
	return fromMicros(us), nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTask scans one row selected with taskColumns.
func scanTask(row scanner) (task.Task, error) {
	var t task.Task
	var remoteID sql.NullInt64
	var dueDate, version, synced, created int64
	if err := row.Scan(&t.ID, &t.Title, &t.Note, &dueDate, &t.Completed, &remoteID, &version, &synced, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, err
		}
		return task.Task{}, fmt.Errorf("scan task: %w", err)
	}
	if remoteID.Valid {
		t.RemoteID = task.RemoteIDPtr(remoteID.Int64)
	}
	t.DueDate = fromMicros(dueDate)
	t.Version = fromMicros(version)
	t.SyncedVersion = fromMicros(synced)
	t.CreatedAt = fromMicros(created)
	return t, nil
}
