// Package store provides SQLite-backed durable storage for task records.
//
// The store keeps two tables:
//   - tasks: one row per task record, keyed by the locally generated ID
//   - sync_state: a single row holding the time of the last committed sync
//
// # Invariants
//
//   - tasks.id is the primary key; Insert reports ErrDuplicateID on reuse
//   - tasks.remote_id is UNIQUE; at most one record is linked to a remote task
//   - version strictly increases on Update and Link (see task.NextVersion)
//
// # Batches
//
// Apply and Mutate commit a Batch of inserts, updates and deletes together
// with the new last-sync time in one transaction. Readers never observe a
// partially applied batch: either every change is visible or none is.
//
// # Database Configuration
//
//   - WAL mode: readers see the last committed snapshot during a write
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - immediate transactions plus an in-process writer mutex: one active
//     mutation batch at a time
//
// Times are stored as Unix microseconds in UTC.
package store
