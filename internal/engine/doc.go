// Package engine runs synchronization between the local task store and the
// remote task list.
//
// A sync is a sequential pipeline with two suspension points:
//
//  1. Fetch the full remote list (bounded by a timeout, cancellable).
//  2. In one store transaction: load every local record, merge with
//     reconcile.Merge, commit the resulting batch.
//
// The store is then re-read and the canonical list returned. Any failure
// short-circuits the pipeline. A failed fetch never touches the store; a
// failed commit rolls back completely.
//
// Concurrency:
//
// Only one sync runs at a time. Within a process, a second Sync waits for
// the first (or for its context to end). Across processes an advisory file
// lock guards the database; a sync that cannot take it fails fast with
// ErrSyncInProgress. Store reads and user edits may run concurrently with a
// sync: the store serializes writers, and the merge sees a consistent view
// because load and commit share one transaction.
package engine
