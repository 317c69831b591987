// Package reconcile merges a remote task list into the local record set.
//
// Merge is pure and synchronous: it takes the remote list, the full local
// list and the current time, and returns a Plan
// describing the inserts, updates and deletes that bring the local set in
// line with the remote one. Committing the plan is the caller's job.
//
// Rules, in precedence order:
//
//  1. Match by remote ID. Title and Completed are overwritten when they
//     differ, subject to the Policy. Note and DueDate are never touched.
//  2. New remote record. A local record is created with default local-only
//     fields and Version = now.
//  3. Orphaned local record. A linked record whose remote ID is absent from
//     the remote list is deleted. Local-only records are never touched.
//
// Records whose remote-owned fields already match cost nothing: no update is
// planned and their version is left alone, so merging the same remote list
// twice is a no-op the second time.
package reconcile
