package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"intake/internal/config"
)

// Store persists batch jobs in SQLite.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// Open initializes or connects to the job database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.JobsDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS jobs (
        id TEXT PRIMARY KEY,
        kind TEXT NOT NULL,
        csv_path TEXT NOT NULL,
        mode TEXT NOT NULL,
        total INTEGER NOT NULL,
        created_at TEXT NOT NULL,
        expires_at TEXT NOT NULL
    )`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	ttl := time.Duration(cfg.Jobs.TTLSeconds) * time.Second
	return &Store{db: db, ttl: ttl}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// TTL returns the retention window applied to new jobs.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create persists a new job and returns it with a fresh uuid and expiry.
func (s *Store) Create(ctx context.Context, kind Kind, csvPath string, mode Mode, total int) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		CSVPath:   csvPath,
		Mode:      mode,
		Total:     total,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (id, kind, csv_path, mode, total, created_at, expires_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		string(job.Kind),
		job.CSVPath,
		string(job.Mode),
		job.Total,
		job.CreatedAt.Format(time.RFC3339Nano),
		job.ExpiresAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// Get fetches a job by id. Expired jobs are deleted on read and reported as
// ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, kind, csv_path, mode, total, created_at, expires_at FROM jobs WHERE id = ?`,
		id,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job.Expired(time.Now().UTC()) {
		_ = s.Delete(ctx, job.ID)
		return nil, ErrNotFound
	}
	return job, nil
}

// Delete removes a job.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// List returns all live jobs, oldest first. Expired jobs are purged first.
func (s *Store) List(ctx context.Context) ([]*Job, error) {
	if _, err := s.PurgeExpired(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, kind, csv_path, mode, total, created_at, expires_at FROM jobs ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

// PurgeExpired deletes all lapsed jobs and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM jobs WHERE expires_at <= ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("purge jobs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job       Job
		kind      string
		mode      string
		createdAt string
		expiresAt string
	)
	if err := row.Scan(&job.ID, &kind, &job.CSVPath, &mode, &job.Total, &createdAt, &expiresAt); err != nil {
		return nil, err
	}
	job.Kind = Kind(kind)
	job.Mode = Mode(mode)

	var err error
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if job.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	return &job, nil
}
