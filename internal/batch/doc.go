// Package batch defines the payload one step of a resumable run hands back:
// named counters, a tagged activity log, the next cursor offset, and an
// optional mismatch suspension.
package batch
