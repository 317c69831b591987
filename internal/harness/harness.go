package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/tasksync/internal/engine"
	"github.com/roach88/tasksync/internal/reconcile"
	"github.com/roach88/tasksync/internal/remote"
	"github.com/roach88/tasksync/internal/store"
	"github.com/roach88/tasksync/internal/task"
	"github.com/roach88/tasksync/internal/testutil"
)

// IDPrefix prefixes the IDs of records created from remote tasks.
const IDPrefix = "r"

// Harness holds the per-run fixtures of a scenario.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	fetcher *testutil.StaticFetcher
	clock   *testutil.DeterministicClock
}

// Run executes a scenario and returns the result.
//
// Each run gets a fresh database in a temporary directory. Execution flow:
//  1. Seed local records
//  2. For each step, apply edits, then sync against the step's remote
//  3. Snapshot the final store
//  4. Evaluate assertions
//
// A fetch failure is a step outcome, not an error. Any other failure aborts
// the run.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "tasksync-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	clock := testutil.NewDeterministicClock()
	st, err := store.Open(filepath.Join(dir, "tasks.db"), store.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()

	policy, err := reconcile.ParsePolicy(scenario.Policy)
	if err != nil {
		return nil, err
	}

	fetcher := testutil.NewStaticFetcher()
	h := &Harness{
		store:   st,
		fetcher: fetcher,
		clock:   clock,
		engine: engine.New(st, fetcher,
			engine.WithClock(clock),
			engine.WithIDGenerator(task.NewSequenceGenerator(IDPrefix)),
			engine.WithPolicy(policy),
			engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		),
	}

	ctx := context.Background()
	if err := h.seed(ctx, scenario.Local); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		outcome, err := h.runStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.Steps = append(result.Steps, outcome)
	}

	tasks, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list final state: %w", err)
	}
	for _, t := range tasks {
		result.Tasks = append(result.Tasks, snapshotOf(t))
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// seed inserts the initial records. Each record takes one clock tick, so
// list order follows scenario order.
func (h *Harness) seed(ctx context.Context, local []LocalTask) error {
	for _, lt := range local {
		now := h.clock.Now()
		t := task.Task{
			ID:        lt.ID,
			Title:     lt.Title,
			Note:      lt.Note,
			Completed: lt.Completed,
			RemoteID:  lt.RemoteID,
			CreatedAt: now,
			Version:   now,
		}
		if lt.Synced {
			t.SyncedVersion = now
		}
		if _, err := h.store.Insert(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) runStep(ctx context.Context, step Step) (StepOutcome, error) {
	for _, e := range step.Edits {
		if err := h.edit(ctx, e); err != nil {
			return StepOutcome{}, err
		}
	}

	if step.Fail {
		h.fetcher.Fail(&remote.FetchError{Kind: remote.KindTransport, Err: testutil.ErrUnreachable})
	} else {
		h.fetcher.Set(step.Remote...)
	}

	res, err := h.engine.Sync(ctx)
	if err != nil {
		if stage := engine.StageOf(err); stage == engine.StageFetch {
			return StepOutcome{Failed: string(stage)}, nil
		}
		return StepOutcome{}, err
	}
	stats := res.Stats
	return StepOutcome{Stats: &stats}, nil
}

func (h *Harness) edit(ctx context.Context, e Edit) error {
	cur, err := h.store.Get(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("edit %s: %w", e.ID, err)
	}
	if e.Title != nil {
		cur.Title = *e.Title
	}
	if e.Note != nil {
		cur.Note = *e.Note
	}
	if e.Completed != nil {
		cur.Completed = *e.Completed
	}
	_, err = h.store.Update(ctx, cur)
	return err
}
