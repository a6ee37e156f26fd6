// Package runner drives resumable batch runs over migration CSVs: it
// validates sources, persists jobs, dispatches each step to the right tool,
// and serializes apply runs behind a file lock.
package runner
