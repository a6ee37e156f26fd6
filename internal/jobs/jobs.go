package jobs

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates a job id that is unknown or whose TTL has lapsed.
// Callers restart the run from scratch when they see it.
var ErrNotFound = errors.New("job not found")

// Kind identifies which batch tool a job drives.
type Kind string

const (
	KindImport Kind = "import"
	KindAttach Kind = "attach"
	KindAssign Kind = "assign"
)

// BatchSize returns how many CSV rows one step of this kind processes.
// Attachment steps download files, so they take smaller bites.
func (k Kind) BatchSize() int {
	if k == KindAttach {
		return 3
	}
	return 10
}

// Valid reports whether k names a known batch tool.
func (k Kind) Valid() bool {
	switch k {
	case KindImport, KindAttach, KindAssign:
		return true
	}
	return false
}

// Mode selects between a side-effect-free preview and a mutating apply run.
type Mode string

const (
	ModePreview Mode = "preview"
	ModeApply   Mode = "apply"
)

// ParseMode validates a mode string from the CLI or a DTO.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModePreview, ModeApply:
		return Mode(raw), nil
	}
	return "", fmt.Errorf("unknown mode %q (want preview or apply)", raw)
}

// Job is one resumable batch run. Total is the row count the run will cover
// (already clamped by any limit); the cursor offset itself lives with the
// caller and is passed on every step.
type Job struct {
	ID        string
	Kind      Kind
	CSVPath   string
	Mode      Mode
	Total     int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the job's TTL has lapsed at the given instant.
func (j *Job) Expired(now time.Time) bool {
	return !j.ExpiresAt.After(now)
}
