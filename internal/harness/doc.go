// Package harness runs sync scenarios against a real store and engine.
//
// A scenario seeds the local store, then runs a sequence of sync steps. Each
// step either serves a remote list or fails the fetch, and may edit local
// records first. After the last step the harness evaluates assertions
// against the final store and the per-step statistics.
//
// # Scenario Format
//
//	name: remote_completion
//	description: "A completed remote task completes the local record"
//	policy: last-write-wins
//	local:
//	  - id: A
//	    title: Buy milk
//	    remote_id: 7
//	    synced: true
//	steps:
//	  - remote:
//	      - {id: 7, todo: Buy milk, completed: true}
//	  - fail: true
//	assertions:
//	  - type: task
//	    id: A
//	    expect: {completed: true, title: Buy milk}
//	  - type: stats
//	    step: 0
//	    expect: {updated: 1}
//
// # Assertion Types
//
//   - task: the record with the given ID exists and matches expect (subset)
//   - absent: no record with the given ID exists
//   - count: the store holds exactly count records
//   - stats: the given step succeeded and its statistics match expect
//   - failed: the given step failed at the stage named in expect.stage
//
// # Deterministic Testing
//
// Every run uses a fresh database, testutil.DeterministicClock and a
// task.SequenceGenerator with prefix "r", so the same scenario always
// produces the same snapshot. Snapshots are compared against golden files
// in testdata/golden.
package harness
