package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"

	"github.com/roach88/tasksync/internal/store"
	"github.com/roach88/tasksync/internal/task"
	"github.com/roach88/tasksync/internal/testutil"
)

func remoteListGenerator() *rapid.Generator[[]task.RemoteTask] {
	return rapid.SliceOfN(rapid.Custom(func(t *rapid.T) task.RemoteTask {
		return task.RemoteTask{
			RemoteID:  rapid.Int64Range(1, 10).Draw(t, "remote_id"),
			Title:     rapid.SampledFrom([]string{"Buy milk", "Walk the dog", "Call mom", "Pay rent"}).Draw(t, "title"),
			Completed: rapid.Bool().Draw(t, "completed"),
		}
	}), 0, 12)
}

// TestSync_Properties drives real stores through random sequences of remote
// lists and checks, after every sync, that the linked records mirror the
// last list, that local-only records never change, and that repeating the
// last sync changes nothing.
func TestSync_Properties(t *testing.T) {
	dir := t.TempDir()
	run := 0

	rapid.Check(t, func(rt *rapid.T) {
		run++
		clock := testutil.NewDeterministicClock()
		s, err := store.Open(filepath.Join(dir, fmt.Sprintf("prop-%d.db", run)), store.WithClock(clock))
		if err != nil {
			rt.Fatalf("open store: %v", err)
		}
		defer s.Close()

		ctx := context.Background()
		nLocal := rapid.IntRange(0, 3).Draw(rt, "local_only_count")
		locals := make([]task.Task, 0, nLocal)
		for i := 0; i < nLocal; i++ {
			rec, err := s.Insert(ctx, task.Task{
				ID:    fmt.Sprintf("local-%d", i),
				Title: rapid.StringMatching(`[A-Za-z]{1,12}`).Draw(rt, "title"),
				Note:  rapid.StringMatching(`[a-z ]{0,12}`).Draw(rt, "note"),
			})
			if err != nil {
				rt.Fatalf("insert: %v", err)
			}
			locals = append(locals, rec)
		}

		f := testutil.NewStaticFetcher()
		e := New(s, f,
			WithClock(clock),
			WithIDGenerator(task.NewSequenceGenerator("gen")),
			WithLogger(quietLogger()),
		)

		rounds := rapid.SliceOfN(remoteListGenerator(), 1, 4).Draw(rt, "rounds")
		for i, remote := range rounds {
			f.Set(remote...)
			res, err := e.Sync(ctx)
			if err != nil {
				rt.Fatalf("sync %d: %v", i, err)
			}
			checkMirrors(rt, res.Tasks, remote)
			checkLocalOnly(rt, res.Tasks, locals)
		}

		again, err := e.Sync(ctx)
		if err != nil {
			rt.Fatalf("repeat sync: %v", err)
		}
		if again.Stats.Changed() {
			rt.Fatalf("repeating the last sync changed records: %+v", again.Stats)
		}
	})
}

func checkMirrors(rt *rapid.T, tasks []task.Task, remote []task.RemoteTask) {
	want := make(map[int64]task.RemoteTask, len(remote))
	for _, r := range remote {
		want[r.RemoteID] = r
	}

	seen := map[int64]bool{}
	for _, rec := range tasks {
		if rec.RemoteID == nil {
			continue
		}
		rid := *rec.RemoteID
		r, ok := want[rid]
		if !ok {
			rt.Fatalf("record %s still linked to removed remote id %d", rec.ID, rid)
		}
		if rec.Title != r.Title || rec.Completed != r.Completed {
			rt.Fatalf("record %s = (%q, %v), want (%q, %v)", rec.ID, rec.Title, rec.Completed, r.Title, r.Completed)
		}
		seen[rid] = true
	}
	if len(seen) != len(want) {
		rt.Fatalf("linked %d remote ids, want %d", len(seen), len(want))
	}
}

func checkLocalOnly(rt *rapid.T, tasks []task.Task, locals []task.Task) {
	byID := make(map[string]task.Task, len(tasks))
	for _, rec := range tasks {
		byID[rec.ID] = rec
	}
	for _, want := range locals {
		got, ok := byID[want.ID]
		if !ok {
			rt.Fatalf("local-only record %s was deleted", want.ID)
		}
		if got.Title != want.Title || got.Note != want.Note || got.Completed != want.Completed ||
			got.RemoteID != nil || !got.Version.Equal(want.Version) || !got.DueDate.Equal(want.DueDate) {
			rt.Fatalf("local-only record %s changed: got %+v, want %+v", want.ID, got, want)
		}
	}
}
