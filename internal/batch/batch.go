package batch

import (
	"fmt"

	"intake/internal/taxonomy"
)

// Level tags a log entry for display.
type Level string

const (
	LevelOK    Level = "ok"
	LevelSkip  Level = "skip"
	LevelError Level = "error"
)

// Entry is one tagged, human-readable line of a step's activity log.
type Entry struct {
	Level   Level  `json:"level"`
	Message string `json:"msg"`
}

// Log accumulates entries during a step.
type Log struct {
	entries []Entry
}

func (l *Log) Okf(format string, args ...any) {
	l.append(LevelOK, format, args...)
}

func (l *Log) Skipf(format string, args ...any) {
	l.append(LevelSkip, format, args...)
}

func (l *Log) Errorf(format string, args ...any) {
	l.append(LevelError, format, args...)
}

func (l *Log) append(level Level, format string, args ...any) {
	l.entries = append(l.entries, Entry{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Entries returns the accumulated entries in order.
func (l *Log) Entries() []Entry {
	return l.entries
}

// Counters tracks per-step tallies under tool-defined names.
type Counters map[string]int

// Add increments the named counter.
func (c Counters) Add(name string, delta int) {
	c[name] += delta
}

// StepResult is what one batch step hands back to the caller.
//
// A suspended step (Mismatch != nil) reports the work finished before the
// suspension: partial counters and log, NextOffset equal to the offset it
// was called with, and Done false. The caller resolves the mismatch into
// memory and re-delivers the same offset.
type StepResult struct {
	Counters   Counters
	Log        []Entry
	NextOffset int
	Done       bool
	Mismatch   *taxonomy.Mismatch
}

// Suspended reports whether the step stopped for operator input.
func (r *StepResult) Suspended() bool {
	return r.Mismatch != nil
}

// RowNumber converts a batch offset and in-batch index to the 1-based CSV
// file line (header is line 1).
func RowNumber(offset, index int) int {
	return offset + index + 2
}
