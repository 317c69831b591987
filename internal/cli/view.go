package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/tasksync/internal/engine"
	"github.com/roach88/tasksync/internal/store"
	"github.com/roach88/tasksync/internal/task"
)

// shortIDLen is how much of an ID text output shows. Commands accept any
// unique prefix.
const shortIDLen = 8

const dateLayout = time.DateOnly

// taskView is a task plus its derived sync state.
type taskView struct {
	task.Task
	State task.SyncState `json:"state"`
}

func newTaskView(t task.Task) taskView {
	return taskView{Task: t, State: task.SyncStateOf(t)}
}

// taskList is the payload of the list command.
type taskList []taskView

func newTaskList(tasks []task.Task) taskList {
	out := make(taskList, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskView(t))
	}
	return out
}

func (l taskList) RenderText(w io.Writer) {
	if len(l) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for _, v := range l {
		fmt.Fprintln(w, v.line())
	}
}

func (v taskView) line() string {
	mark := " "
	if v.Completed {
		mark = "x"
	}
	return fmt.Sprintf("%-*s [%s] %s  (%s)", shortIDLen, shortID(v.ID), mark, v.Title, v.origin())
}

func (v taskView) origin() string {
	if v.RemoteID == nil {
		return "local"
	}
	return fmt.Sprintf("remote #%d, %s", *v.RemoteID, v.State)
}

// RenderText prints every field of a single task.
func (v taskView) RenderText(w io.Writer) {
	fmt.Fprintf(w, "ID:        %s\n", v.ID)
	fmt.Fprintf(w, "Title:     %s\n", v.Title)
	fmt.Fprintf(w, "Completed: %t\n", v.Completed)
	fmt.Fprintf(w, "Due:       %s\n", v.DueDate.Local().Format(dateLayout))
	if v.Note != "" {
		fmt.Fprintf(w, "Note:      %s\n", v.Note)
	}
	if v.RemoteID != nil {
		fmt.Fprintf(w, "Remote ID: %d\n", *v.RemoteID)
	}
	fmt.Fprintf(w, "State:     %s\n", v.State)
	fmt.Fprintf(w, "Created:   %s\n", v.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Modified:  %s\n", v.Version.Local().Format(time.RFC3339))
}

// actionResult reports a single-task mutation.
type actionResult struct {
	Action string   `json:"action"`
	Task   taskView `json:"task"`
}

func (r actionResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", r.Action, r.Task.line())
}

// deleteResult reports a deletion.
type deleteResult struct {
	Deleted string `json:"deleted"`
}

func (r deleteResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Deleted %s\n", shortID(r.Deleted))
}

// syncReport is the payload of the sync command.
type syncReport struct {
	Stats    engine.Stats `json:"stats"`
	SyncedAt time.Time    `json:"synced_at"`
	Total    int          `json:"total"`
}

func (r syncReport) RenderText(w io.Writer) {
	s := r.Stats
	fmt.Fprintf(w, "Synced %d remote tasks: %d added, %d updated, %d removed, %d unchanged.\n",
		s.Fetched, s.Inserted, s.Updated, s.Deleted, s.Unchanged+s.Marked)
	if len(s.Conflicts) > 0 {
		ids := make([]string, len(s.Conflicts))
		for i, id := range s.Conflicts {
			ids[i] = shortID(id)
		}
		fmt.Fprintf(w, "Kept %d local edit(s) that differ from the remote: %s\n", len(ids), strings.Join(ids, ", "))
	}
	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "Ignored %d remote task(s) without a title.\n", len(s.Skipped))
	}
	fmt.Fprintf(w, "%d tasks stored.\n", r.Total)
}

// statusView is the payload of the status command.
type statusView struct {
	engine.Status
	Database string `json:"database"`
	Remote   string `json:"remote"`
}

func (s statusView) RenderText(w io.Writer) {
	last := "never"
	if !s.LastSyncAt.IsZero() {
		last = s.LastSyncAt.Local().Format(time.RFC3339)
	}
	fmt.Fprintf(w, "Database:   %s\n", s.Database)
	fmt.Fprintf(w, "Remote:     %s\n", s.Remote)
	fmt.Fprintf(w, "Policy:     %s\n", s.Policy)
	fmt.Fprintf(w, "Last sync:  %s\n", last)
	fmt.Fprintf(w, "Tasks:      %d (%d completed)\n", s.Total, s.Completed)
	fmt.Fprintf(w, "  local:    %d\n", s.LocalOnly)
	fmt.Fprintf(w, "  in sync:  %d\n", s.InSync)
	fmt.Fprintf(w, "  modified: %d\n", s.LocallyModified)
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// parseDue accepts a date (2006-01-02, local midnight) or an RFC 3339 time.
func parseDue(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// storeExitError maps store errors on user input to exit codes.
func storeExitError(message string, err error) *ExitError {
	switch {
	case errors.Is(err, store.ErrInvalidTask):
		return WrapExitError(ExitCommandError, message, err)
	default:
		return WrapExitError(ExitFailure, message, err)
	}
}
