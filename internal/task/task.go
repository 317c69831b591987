package task

import "time"

// Task is a locally stored to-do record.
type Task struct {
	// ID is generated locally and never changes or gets reused.
	ID string `json:"id"`

	// Title is the non-empty, NFC-normalized task title.
	Title string `json:"title"`

	// Note is free text that only exists locally. Empty means no note.
	Note string `json:"note,omitempty"`

	// DueDate is local-only and defaults to the creation time.
	DueDate time.Time `json:"due_date"`

	Completed bool `json:"completed"`

	// RemoteID links the record to a remote task. Nil for local-only records.
	RemoteID *int64 `json:"remote_id,omitempty"`

	// Version is the time of the last field-affecting mutation.
	Version time.Time `json:"version"`

	// SyncedVersion is the Version at which the record last agreed with the
	// remote. Zero means no tracking information is available.
	SyncedVersion time.Time `json:"synced_version,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RemoteTask is a task as returned by the remote source of truth.
type RemoteTask struct {
	RemoteID  int64  `json:"id" yaml:"id"`
	Title     string `json:"todo" yaml:"todo"`
	Completed bool   `json:"completed" yaml:"completed"`
	UserID    int64  `json:"userId,omitempty" yaml:"userId,omitempty"`
}

// Linked reports whether the task carries a remote identity.
func (t Task) Linked() bool {
	return t.RemoteID != nil
}

// HasRemoteID reports whether the task is linked to the given remote ID.
func (t Task) HasRemoteID(id int64) bool {
	return t.RemoteID != nil && *t.RemoteID == id
}

// Clone returns a copy of t that shares no pointers with it.
func (t Task) Clone() Task {
	if t.RemoteID != nil {
		id := *t.RemoteID
		t.RemoteID = &id
	}
	return t
}

// RemoteIDPtr returns a pointer to a copy of id.
func RemoteIDPtr(id int64) *int64 {
	return &id
}

// SyncState is the derived synchronization state of a single record.
type SyncState string

const (
	StateLocalOnly       SyncState = "local-only"
	StateInSync          SyncState = "in-sync"
	StateLocallyModified SyncState = "locally-modified"
)

// SyncStateOf derives the synchronization state of t.
//
// A linked record is locally modified when it was edited after it last agreed
// with the remote. A linked record without tracking information (never
// reconciled) counts as in sync: the remote decides its fields.
func SyncStateOf(t Task) SyncState {
	if !t.Linked() {
		return StateLocalOnly
	}
	if !t.SyncedVersion.IsZero() && t.Version.After(t.SyncedVersion) {
		return StateLocallyModified
	}
	return StateInSync
}

// MarkSynced records that t agrees with the remote at its current version.
func MarkSynced(t Task) Task {
	out := t.Clone()
	out.SyncedVersion = out.Version
	return out
}
