package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/tasksync/internal/remote"
	"github.com/roach88/tasksync/internal/task"
)

// ErrUnreachable is the transport failure returned by failing fetchers.
var ErrUnreachable = errors.New("network unreachable")

// StaticFetcher returns a configurable remote list, or a configured error.
//
// Thread-safety: StaticFetcher is safe for concurrent use.
type StaticFetcher struct {
	mu    sync.Mutex
	tasks []task.RemoteTask
	err   error
	calls int
}

// NewStaticFetcher creates a fetcher returning the given tasks.
func NewStaticFetcher(tasks ...task.RemoteTask) *StaticFetcher {
	return &StaticFetcher{tasks: tasks}
}

// NewFailingFetcher creates a fetcher whose every call fails with a
// transport FetchError.
func NewFailingFetcher() *StaticFetcher {
	f := &StaticFetcher{}
	f.Fail(&remote.FetchError{Kind: remote.KindTransport, Err: ErrUnreachable})
	return f
}

// Fetch implements remote.Fetcher.
func (f *StaticFetcher) Fetch(ctx context.Context) ([]task.RemoteTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, &remote.FetchError{Kind: remote.KindTransport, Err: err}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]task.RemoteTask, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

// Set replaces the remote list and clears any configured error.
func (f *StaticFetcher) Set(tasks ...task.RemoteTask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = tasks
	f.err = nil
}

// Fail makes subsequent calls return err.
func (f *StaticFetcher) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Calls returns how many times Fetch was invoked.
func (f *StaticFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// BlockingFetcher blocks until its context is done or Release is called.
// Used to exercise timeouts and concurrent syncs.
type BlockingFetcher struct {
	Tasks   []task.RemoteTask
	Started chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewBlockingFetcher creates a fetcher that blocks on every call.
func NewBlockingFetcher(tasks ...task.RemoteTask) *BlockingFetcher {
	return &BlockingFetcher{
		Tasks:   tasks,
		Started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

// Fetch implements remote.Fetcher.
func (f *BlockingFetcher) Fetch(ctx context.Context) ([]task.RemoteTask, error) {
	select {
	case f.Started <- struct{}{}:
	default:
	}
	select {
	case <-ctx.Done():
		return nil, &remote.FetchError{Kind: remote.KindTransport, Err: ctx.Err()}
	case <-f.release:
		return f.Tasks, nil
	}
}

// Release unblocks all current and future calls.
func (f *BlockingFetcher) Release() {
	f.once.Do(func() { close(f.release) })
}
