package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/tasksync/internal/reconcile"
	"github.com/roach88/tasksync/internal/remote"
	"github.com/roach88/tasksync/internal/store"
	"github.com/roach88/tasksync/internal/task"
)

// DefaultTimeout bounds the remote fetch when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// Engine orchestrates syncs against one store and one remote.
//
// Thread-safety model:
//   - Sync(), SyncOrLoad(), Status(): safe from any goroutine
//   - at most one sync runs at a time; callers queue in Sync
type Engine struct {
	store   *store.Store
	fetcher remote.Fetcher
	clock   task.Clock
	ids     task.IDGenerator
	policy  reconcile.Policy
	timeout time.Duration
	logger  *slog.Logger

	// lockPath is the cross-process lock file. Empty disables the lock.
	lockPath string

	// sem admits one sync at a time. A channel rather than a mutex so that
	// waiting callers can give up when their context ends.
	sem chan struct{}
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithClock sets the clock used to stamp merged records and the sync time.
// Default: task.NewSystemClock().
func WithClock(c task.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDGenerator sets the generator for records created from new remote
// tasks. Default: task.UUIDv7Generator.
func WithIDGenerator(g task.IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithPolicy sets the merge policy. Default: reconcile.DefaultPolicy.
func WithPolicy(p reconcile.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithTimeout bounds each remote fetch. A zero or negative value restores
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithLockFile enables the cross-process sync lock at path.
func WithLockFile(path string) Option {
	return func(e *Engine) {
		e.lockPath = path
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine that syncs s against f.
//
// The engine does not own s; the caller closes it.
func New(s *store.Store, f remote.Fetcher, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		fetcher: f,
		policy:  reconcile.DefaultPolicy,
		timeout: DefaultTimeout,
		sem:     make(chan struct{}, 1),
	}

	// Apply options
	for _, opt := range opts {
		opt(e)
	}

	if e.clock == nil {
		e.clock = task.NewSystemClock()
	}
	if e.ids == nil {
		e.ids = task.UUIDv7Generator{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.timeout <= 0 {
		e.timeout = DefaultTimeout
	}
	return e
}

// Stats summarizes what a sync changed.
type Stats struct {
	Fetched   int `json:"fetched"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Marked    int `json:"marked"`
	Unchanged int `json:"unchanged"`

	// Conflicts are IDs of local edits kept over differing remote values.
	Conflicts []string `json:"conflicts,omitempty"`

	// Skipped are remote IDs ignored for having an empty title.
	Skipped []int64 `json:"skipped,omitempty"`

	// Duplicates are remote IDs that appeared more than once.
	Duplicates []int64 `json:"duplicates,omitempty"`
}

// Changed reports whether the sync wrote any record.
func (s Stats) Changed() bool {
	return s.Inserted+s.Updated+s.Deleted+s.Marked > 0
}

// Result is the outcome of a successful sync, or of a fallback load.
type Result struct {
	// Tasks is the canonical local list after the sync.
	Tasks []task.Task `json:"tasks"`

	Stats Stats `json:"stats"`

	// SyncedAt is the recorded time of this sync. Zero for a fallback load.
	SyncedAt time.Time `json:"synced_at,omitempty"`

	// Stale is true when Tasks came from the store without a successful
	// sync (see SyncOrLoad).
	Stale bool `json:"stale,omitempty"`
}

// Sync fetches the remote list, merges it into the store and returns the
// new canonical list.
//
// On failure the error is a *SyncError, or ErrSyncInProgress when another
// process is syncing the same database. A lock or fetch failure, timeout or
// cancellation leaves the store untouched.
func (e *Engine) Sync(ctx context.Context) (Result, error) {
	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return Result{}, &SyncError{Stage: StageFetch, Err: &remote.FetchError{Kind: remote.KindTransport, Err: ctx.Err()}}
	}
	defer func() { <-e.sem }()

	unlock, err := e.acquireLock()
	if errors.Is(err, ErrSyncInProgress) {
		return Result{}, err
	}
	if err != nil {
		e.logger.Error("sync lock failed", "error", err)
		return Result{}, &SyncError{Stage: StageLock, Err: err}
	}
	defer unlock()

	start := time.Now()
	e.logger.Debug("sync starting", "policy", e.policy)

	remoteTasks, err := e.fetch(ctx)
	if err != nil {
		e.logger.Warn("sync fetch failed", "error", err)
		return Result{}, &SyncError{Stage: StageFetch, Err: err}
	}

	syncedAt := e.clock.Now()
	var plan reconcile.Plan
	_, err = e.store.Mutate(ctx, func(local []task.Task, _ time.Time) (store.Batch, error) {
		plan = reconcile.Merge(reconcile.Input{
			Remote: remoteTasks,
			Local:  local,
			Now:    syncedAt,
			Policy: e.policy,
			NewID:  e.ids.Generate,
		})
		return plan.Batch(syncedAt), nil
	})
	if err != nil {
		e.logger.Error("sync commit failed", "error", err)
		return Result{}, &SyncError{Stage: StageCommit, Err: err}
	}

	stats := statsOf(len(remoteTasks), plan)
	e.logStats(stats, time.Since(start))

	tasks, err := e.store.List(ctx)
	if err != nil {
		e.logger.Error("sync reload failed", "error", err)
		return Result{}, &SyncError{Stage: StageLoad, Err: err}
	}

	return Result{
		Tasks:    tasks,
		Stats:    stats,
		SyncedAt: task.Truncate(syncedAt),
	}, nil
}

// SyncOrLoad runs Sync and, if the fetch fails, falls back to the stored
// list. The fallback result is marked Stale and returned together with the
// fetch error, so callers can show local data and still report the failure.
//
// Errors other than fetch failures are returned without a fallback.
func (e *Engine) SyncOrLoad(ctx context.Context) (Result, error) {
	res, err := e.Sync(ctx)
	if err == nil || StageOf(err) != StageFetch {
		return res, err
	}

	tasks, loadErr := e.store.List(ctx)
	if loadErr != nil {
		return Result{}, &SyncError{Stage: StageLoad, Err: loadErr}
	}
	e.logger.Info("showing local tasks after failed sync", "count", len(tasks))
	return Result{Tasks: tasks, Stale: true}, err
}

// fetch retrieves the remote list within the configured timeout. Errors are
// always *remote.FetchError.
func (e *Engine) fetch(ctx context.Context) ([]task.RemoteTask, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tasks, err := e.fetcher.Fetch(ctx)
	if err != nil {
		if !remote.IsFetchError(err) {
			err = &remote.FetchError{Kind: remote.KindTransport, Err: err}
		}
		return nil, err
	}
	// A fetcher that returns after its deadline still counts as timed out.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &remote.FetchError{Kind: remote.KindTransport, Err: ctxErr}
	}
	return tasks, nil
}

func statsOf(fetched int, p reconcile.Plan) Stats {
	return Stats{
		Fetched:    fetched,
		Inserted:   len(p.Inserts),
		Updated:    len(p.Updates),
		Deleted:    len(p.Deletes),
		Marked:     len(p.Marks),
		Unchanged:  p.Unchanged,
		Conflicts:  p.Conflicts,
		Skipped:    p.Skipped,
		Duplicates: p.Duplicates,
	}
}

func (e *Engine) logStats(s Stats, elapsed time.Duration) {
	e.logger.Info("sync complete",
		"fetched", s.Fetched,
		"inserted", s.Inserted,
		"updated", s.Updated,
		"deleted", s.Deleted,
		"marked", s.Marked,
		"unchanged", s.Unchanged,
		"conflicts", len(s.Conflicts),
		"skipped", len(s.Skipped),
		"elapsed", elapsed,
	)
	for _, id := range s.Conflicts {
		e.logger.Debug("kept local edit over remote", "id", id)
	}
	for _, rid := range s.Skipped {
		e.logger.Warn("skipped remote task with empty title", "remote_id", rid)
	}
	if len(s.Duplicates) > 0 {
		e.logger.Warn("remote list repeats task ids; last occurrence used",
			"remote_ids", fmt.Sprint(s.Duplicates),
		)
	}
}
