// Package task defines the task record model shared by the store, the
// reconciler and the remote fetchers.
//
// # Records
//
// A Task is the local, authoritative representation of a to-do item. A
// RemoteTask is the wire representation returned by the remote source of
// truth. The two are related through Task.RemoteID:
//
//   - local-only: RemoteID is nil, the record never leaves this device
//   - linked: RemoteID is set, the remote list decides whether it exists
//
// Linked records are either in sync or locally modified, depending on whether
// their Version is newer than the version at which they last agreed with the
// remote (see SyncStateOf).
//
// # Versions
//
// Version is a wall-clock timestamp with microsecond resolution. Every
// field-affecting mutation must produce a strictly greater Version; use
// NextVersion to derive it from the previous value and the current time.
package task
