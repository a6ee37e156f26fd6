// Package jobs persists resumable batch runs.
//
// A job records what a run covers (tool kind, CSV path, mode, clamped row
// total) under a uuid; the batch cursor itself travels with the caller. Jobs
// expire after a TTL so stale cursors cannot silently resume against changed
// data; an expired or unknown id surfaces as ErrNotFound and the caller
// starts over.
package jobs
