package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"

	"intake/internal/assigner"
	"intake/internal/attacher"
	"intake/internal/batch"
	"intake/internal/config"
	"intake/internal/content"
	"intake/internal/csvfile"
	"intake/internal/fetch"
	"intake/internal/importer"
	"intake/internal/jobs"
	"intake/internal/logging"
	"intake/internal/taxonomy"
)

// Service drives resumable batch runs: it creates jobs, re-opens their CSV
// source on every step, and dispatches to the tool the job's kind names.
type Service struct {
	cfg      *config.Config
	jobs     *jobs.Store
	importer *importer.Importer
	attacher *attacher.Attacher
	assigner *assigner.Assigner
	logger   *slog.Logger
}

// New wires a service over the two stores.
func New(cfg *config.Config, jobStore *jobs.Store, store *content.Store, logger *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		jobs:     jobStore,
		importer: importer.New(store, logger),
		attacher: attacher.New(store, fetch.New(cfg), logger),
		assigner: assigner.New(store, logger),
		logger:   logging.NewComponentLogger(logger, "runner"),
	}
}

// requiredColumns returns the headers a kind's CSV must carry.
func requiredColumns(kind jobs.Kind) []string {
	switch kind {
	case jobs.KindImport:
		return importer.RequiredColumns
	case jobs.KindAttach:
		return attacher.RequiredColumns
	default:
		return assigner.RequiredColumns
	}
}

// Start validates the CSV for the given kind and persists a new job. A
// positive limit caps how many rows the run will cover.
func (s *Service) Start(ctx context.Context, kind jobs.Kind, csvPath string, mode jobs.Mode, limit int) (*jobs.Job, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown job kind %q", kind)
	}

	source, err := csvfile.Open(csvPath)
	if err != nil {
		return nil, err
	}
	total, err := source.Count(requiredColumns(kind)...)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < total {
		total = limit
	}

	job, err := s.jobs.Create(ctx, kind, source.Path(), mode, total)
	if err != nil {
		return nil, err
	}
	s.logger.Info("job started",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldTool, string(kind)),
		logging.String(logging.FieldMode, string(mode)),
		logging.Int("total", total),
	)
	return job, nil
}

// Step runs one batch of the job at the given offset. Memory carries the
// operator's mismatch resolutions; only assign jobs consult it. Finished
// jobs are deleted so a stale id resumes as jobs.ErrNotFound.
func (s *Service) Step(ctx context.Context, jobID string, offset int, memory taxonomy.Memory) (*jobs.Job, *batch.StepResult, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}

	source, err := csvfile.Open(job.CSVPath)
	if err != nil {
		return nil, nil, err
	}

	size := job.Kind.BatchSize()
	var result *batch.StepResult
	switch job.Kind {
	case jobs.KindImport:
		result, err = s.importer.Step(ctx, source, offset, size, job.Mode, job.Total)
	case jobs.KindAttach:
		result, err = s.attacher.Step(ctx, source, offset, size, job.Mode, job.Total)
	default:
		result, err = s.assigner.Step(ctx, source, offset, size, job.Mode, job.Total, memory)
	}
	if err != nil {
		return nil, nil, err
	}

	if result.Done {
		if err := s.jobs.Delete(ctx, job.ID); err != nil {
			return nil, nil, err
		}
		s.logger.Info("job finished",
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldTool, string(job.Kind)),
		)
	}
	return job, result, nil
}

// Cleanup runs the attacher's empty-link sweep over every record.
func (s *Service) Cleanup(ctx context.Context, mode jobs.Mode) (*batch.StepResult, error) {
	return s.attacher.Cleanup(ctx, mode)
}

// Lock takes the single-writer lock that serializes apply runs. The returned
// release must be called when the run ends; a held lock reports an error
// naming the lock file.
func (s *Service) Lock() (func(), error) {
	lock := flock.New(s.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", s.cfg.LockPath(), err)
	}
	if !ok {
		return nil, fmt.Errorf("another apply run holds %s", s.cfg.LockPath())
	}
	return func() { _ = lock.Unlock() }, nil
}
