package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/tasksync/internal/task"
)

// Status describes the store from the sync point of view.
type Status struct {
	Total           int       `json:"total"`
	LocalOnly       int       `json:"local_only"`
	InSync          int       `json:"in_sync"`
	LocallyModified int       `json:"locally_modified"`
	Completed       int       `json:"completed"`
	LastSyncAt      time.Time `json:"last_sync_at,omitempty"`
	Policy          string    `json:"policy"`
}

// Status counts records per sync state. It does not contact the remote.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	tasks, err := e.store.List(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	last, err := e.store.LastSyncAt(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}

	st := Status{Total: len(tasks), LastSyncAt: last, Policy: string(e.policy)}
	for _, t := range tasks {
		switch task.SyncStateOf(t) {
		case task.StateLocalOnly:
			st.LocalOnly++
		case task.StateInSync:
			st.InSync++
		case task.StateLocallyModified:
			st.LocallyModified++
		}
		if t.Completed {
			st.Completed++
		}
	}
	return st, nil
}
