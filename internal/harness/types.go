package harness

import (
	"github.com/roach88/tasksync/internal/engine"
	"github.com/roach88/tasksync/internal/task"
)

// StepOutcome is the result of one sync step: statistics on success, the
// failing stage otherwise.
type StepOutcome struct {
	Failed string        `json:"failed,omitempty"`
	Stats  *engine.Stats `json:"stats,omitempty"`
}

// TaskSnapshot is the observable state of one stored record. Timestamps are
// left out; the sync state captures how versions relate.
type TaskSnapshot struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Note      string         `json:"note"`
	Completed bool           `json:"completed"`
	RemoteID  *int64         `json:"remote_id"`
	State     task.SyncState `json:"state"`
}

func snapshotOf(t task.Task) TaskSnapshot {
	return TaskSnapshot{
		ID:        t.ID,
		Title:     t.Title,
		Note:      t.Note,
		Completed: t.Completed,
		RemoteID:  t.Clone().RemoteID,
		State:     task.SyncStateOf(t),
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Steps has one outcome per scenario step, in order.
	Steps []StepOutcome `json:"steps"`

	// Tasks is the final store content in list order.
	Tasks []TaskSnapshot `json:"tasks"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepOutcome{},
		Tasks:  []TaskSnapshot{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Task returns the snapshot of the record with id.
func (r *Result) Task(id string) (TaskSnapshot, bool) {
	for _, t := range r.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return TaskSnapshot{}, false
}
