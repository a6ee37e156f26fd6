package api

import "time"

// Job describes a batch run to CLI output and JSON consumers.
type Job struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	CSVPath   string    `json:"csvPath"`
	Mode      string    `json:"mode"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LogEntry is one tagged line of a step's activity log.
type LogEntry struct {
	Level   string `json:"level"`
	Message string `json:"msg"`
}

// Option is one selectable resolution for a mismatch.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Mismatch describes a CSV value awaiting an operator decision.
type Mismatch struct {
	MappingKey string   `json:"mappingKey"`
	CSVValue   string   `json:"csvValue"`
	Context    string   `json:"context"`
	Options    []Option `json:"options"`
}

// StepResult reports one batch step: counters, per-row log, the cursor for
// the next step, and an optional mismatch that suspended processing.
type StepResult struct {
	Counters   map[string]int `json:"counters"`
	Log        []LogEntry     `json:"log"`
	NextOffset int            `json:"nextOffset"`
	Done       bool           `json:"done"`
	Mode       string         `json:"mode,omitempty"`
	Mismatch   *Mismatch      `json:"mismatch,omitempty"`
}
