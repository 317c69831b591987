package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/tasksync/internal/task"
	"github.com/roach88/tasksync/internal/testutil"
)

// createTestStore creates a new store in a temp directory, driven by a
// deterministic clock.
func createTestStore(t *testing.T) (*Store, *testutil.DeterministicClock) {
	t.Helper()
	clock := testutil.NewDeterministicClock()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(clock))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// createTestTask creates a local-only task with fixed timestamps.
func createTestTask(id, title string) task.Task {
	ts := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	return task.Task{
		ID:        id,
		Title:     title,
		DueDate:   ts,
		Version:   ts,
		CreatedAt: ts,
	}
}

// createLinkedTask creates a task linked to remoteID and marked in sync.
func createLinkedTask(id, title string, remoteID int64) task.Task {
	t := createTestTask(id, title)
	t.RemoteID = task.RemoteIDPtr(remoteID)
	t.SyncedVersion = t.Version
	return t
}

// mustInsert inserts t or fails the test.
func mustInsert(t *testing.T, s *Store, rec task.Task) task.Task {
	t.Helper()
	got, err := s.Insert(testContext(t), rec)
	if err != nil {
		t.Fatalf("Insert(%s) failed: %v", rec.ID, err)
	}
	return got
}
