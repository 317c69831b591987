package task

import "time"

// FromRemote creates a new local record for a remote task seen for the first
// time. Local-only fields get their defaults: no note, due at creation.
func FromRemote(r RemoteTask, id string, now time.Time) Task {
	now = Truncate(now)
	return Task{
		ID:            id,
		Title:         NormalizeTitle(r.Title),
		DueDate:       now,
		Completed:     r.Completed,
		RemoteID:      RemoteIDPtr(r.RemoteID),
		Version:       now,
		SyncedVersion: now,
		CreatedAt:     now,
	}
}

// ToRemote projects a linked record onto the remote shape. Local-only fields
// are dropped. ok is false for records without a remote identity.
func ToRemote(t Task) (r RemoteTask, ok bool) {
	if t.RemoteID == nil {
		return RemoteTask{}, false
	}
	return RemoteTask{
		RemoteID:  *t.RemoteID,
		Title:     t.Title,
		Completed: t.Completed,
	}, true
}

// SameRemoteState reports whether t already carries the remote-owned values
// of r.
func SameRemoteState(t Task, r RemoteTask) bool {
	return t.Title == NormalizeTitle(r.Title) && t.Completed == r.Completed
}

// SameRemoteFields reports whether a and b agree on the fields the remote
// owns (Title and Completed).
func SameRemoteFields(a, b Task) bool {
	return a.Title == b.Title && a.Completed == b.Completed
}

// ApplyRemote overwrites the remote-owned fields of t with those of r and
// stamps the given version, marking the record as in sync. Note, DueDate, ID
// and CreatedAt are preserved.
func ApplyRemote(t Task, r RemoteTask, version time.Time) Task {
	out := t.Clone()
	out.Title = NormalizeTitle(r.Title)
	out.Completed = r.Completed
	out.Version = Truncate(version)
	out.SyncedVersion = out.Version
	return out
}
