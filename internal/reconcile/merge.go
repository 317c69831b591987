package reconcile

import (
	"sort"
	"time"

	"github.com/roach88/tasksync/internal/store"
	"github.com/roach88/tasksync/internal/task"
)

// Input is everything Merge needs. Merge does not modify any of it.
type Input struct {
	Remote []task.RemoteTask
	Local  []task.Task

	// Now stamps new and overwritten records. Merge bumps past the previous
	// version when Now is not after it.
	Now time.Time

	Policy Policy

	// NewID generates IDs for records created from unseen remote tasks.
	NewID func() string
}

// Plan is the outcome of a merge.
type Plan struct {
	// Inserts are records created for remote tasks without a local match.
	Inserts []task.Task

	// Updates are matched records whose remote-owned fields changed.
	Updates []task.Task

	// Deletes are IDs of linked records missing from the remote list.
	Deletes []string

	// Marks are matched records that agree with the remote but were locally
	// modified or never reconciled. Only SyncedVersion changes; Version is
	// left alone.
	Marks []task.Task

	// Unchanged counts matched records that already agreed with the remote.
	Unchanged int

	// Conflicts are IDs of locally modified records kept under
	// PolicyLastWriteWins although the remote differs.
	Conflicts []string

	// Skipped are remote IDs ignored because the remote record is unusable
	// (empty title). Their local matches, if any, are left alone.
	Skipped []int64

	// Duplicates are remote IDs that appeared more than once in the remote
	// list. The last occurrence was used.
	Duplicates []int64
}

// Empty reports whether applying the plan would change no records.
func (p Plan) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0 && len(p.Marks) == 0
}

// Batch converts the plan into a store batch that also records syncedAt as
// the new last sync time.
func (p Plan) Batch(syncedAt time.Time) store.Batch {
	updates := make([]task.Task, 0, len(p.Updates)+len(p.Marks))
	updates = append(updates, p.Updates...)
	updates = append(updates, p.Marks...)
	return store.Batch{
		Inserts:  p.Inserts,
		Updates:  updates,
		Deletes:  p.Deletes,
		SyncedAt: syncedAt,
	}
}

// Merge reconciles in.Remote against in.Local. See the package documentation
// for the rules.
func Merge(in Input) Plan {
	policy := in.Policy
	if policy == "" {
		policy = DefaultPolicy
	}
	now := task.Truncate(in.Now)

	remote, order, duplicates := indexRemote(in.Remote)
	plan := Plan{Duplicates: duplicates}

	linked := make(map[int64]task.Task, len(in.Local))
	for _, t := range in.Local {
		if t.RemoteID != nil {
			linked[*t.RemoteID] = t
		}
	}

	for _, rid := range order {
		r := remote[rid]
		if !task.ValidTitle(r.Title) {
			plan.Skipped = append(plan.Skipped, rid)
			continue
		}

		local, ok := linked[rid]
		if !ok {
			plan.Inserts = append(plan.Inserts, task.FromRemote(r, in.NewID(), now))
			continue
		}

		modified := task.SyncStateOf(local) == task.StateLocallyModified
		untracked := local.SyncedVersion.IsZero()
		switch {
		case task.SameRemoteState(local, r) && (modified || untracked):
			plan.Marks = append(plan.Marks, task.MarkSynced(local))
		case task.SameRemoteState(local, r):
			plan.Unchanged++
		case policy == PolicyLastWriteWins && modified:
			plan.Conflicts = append(plan.Conflicts, local.ID)
		default:
			plan.Updates = append(plan.Updates, task.ApplyRemote(local, r, task.NextVersion(local.Version, now)))
		}
	}

	for _, t := range in.Local {
		if t.RemoteID == nil {
			continue
		}
		if _, ok := remote[*t.RemoteID]; !ok {
			plan.Deletes = append(plan.Deletes, t.ID)
		}
	}
	sort.Strings(plan.Deletes)

	return plan
}

// indexRemote maps remote tasks by ID, keeping the last occurrence of each ID
// and the order in which IDs were first seen.
func indexRemote(tasks []task.RemoteTask) (byID map[int64]task.RemoteTask, order []int64, duplicates []int64) {
	byID = make(map[int64]task.RemoteTask, len(tasks))
	for _, r := range tasks {
		if _, seen := byID[r.RemoteID]; seen {
			duplicates = append(duplicates, r.RemoteID)
		} else {
			order = append(order, r.RemoteID)
		}
		byID[r.RemoteID] = r
	}
	return byID, order, duplicates
}
