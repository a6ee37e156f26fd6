package api

import (
	"intake/internal/batch"
	"intake/internal/jobs"
	"intake/internal/taxonomy"
)

// FromJob converts a stored job for output.
func FromJob(job *jobs.Job) Job {
	return Job{
		ID:        job.ID,
		Kind:      string(job.Kind),
		CSVPath:   job.CSVPath,
		Mode:      string(job.Mode),
		Total:     job.Total,
		CreatedAt: job.CreatedAt,
		ExpiresAt: job.ExpiresAt,
	}
}

// FromJobs converts a job listing for output.
func FromJobs(list []*jobs.Job) []Job {
	out := make([]Job, 0, len(list))
	for _, job := range list {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStepResult converts a tool step result for output. Counters are never
// nil so JSON consumers always see an object.
func FromStepResult(result *batch.StepResult) StepResult {
	counters := make(map[string]int, len(result.Counters))
	for name, value := range result.Counters {
		counters[name] = value
	}
	entries := make([]LogEntry, 0, len(result.Log))
	for _, entry := range result.Log {
		entries = append(entries, LogEntry{Level: string(entry.Level), Message: entry.Message})
	}
	return StepResult{
		Counters:   counters,
		Log:        entries,
		NextOffset: result.NextOffset,
		Done:       result.Done,
		Mismatch:   fromMismatch(result.Mismatch),
	}
}

func fromMismatch(m *taxonomy.Mismatch) *Mismatch {
	if m == nil {
		return nil
	}
	options := make([]Option, 0, len(m.Options))
	for _, option := range m.Options {
		options = append(options, Option{Value: option.Value, Label: option.Label})
	}
	return &Mismatch{
		MappingKey: m.MappingKey,
		CSVValue:   m.CSVValue,
		Context:    m.Context,
		Options:    options,
	}
}
