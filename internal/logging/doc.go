// Package logging assembles structured slog loggers used across intake tools.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes standardized field names so tool code tags log lines
// with job IDs, row numbers, and run modes the same way everywhere. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
