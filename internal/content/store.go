package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"intake/internal/config"
	"intake/internal/taxonomy"
)

// Store is the SQLite-backed content datastore the migration tools read and
// mutate.
type Store struct {
	db *sql.DB
}

// Open initializes or connects to the content database and applies the
// schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS consultants (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS terms (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            parent INTEGER NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS records (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            external_id TEXT NOT NULL UNIQUE,
            title TEXT NOT NULL,
            status TEXT NOT NULL,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS record_fields (
            record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
            name TEXT NOT NULL,
            value TEXT NOT NULL,
            PRIMARY KEY (record_id, name)
        )`,
		`CREATE TABLE IF NOT EXISTS record_authors (
            record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
            consultant_id INTEGER NOT NULL,
            position INTEGER NOT NULL,
            PRIMARY KEY (record_id, consultant_id)
        )`,
		`CREATE TABLE IF NOT EXISTS record_terms (
            record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
            term_id INTEGER NOT NULL,
            PRIMARY KEY (record_id, term_id)
        )`,
		`CREATE TABLE IF NOT EXISTS record_links (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
            position INTEGER NOT NULL,
            label TEXT NOT NULL,
            url TEXT NOT NULL DEFAULT '',
            attachment_id INTEGER NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS attachments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            filename TEXT NOT NULL,
            path TEXT NOT NULL,
            created_at TEXT NOT NULL
        )`,
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Consultants

// AddConsultant inserts or replaces a consultant directory entry.
func (s *Store) AddConsultant(ctx context.Context, c Consultant) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO consultants (id, name, email) VALUES (?, ?, ?)`,
		c.ID, c.Name, c.Email,
	)
	if err != nil {
		return fmt.Errorf("add consultant: %w", err)
	}
	return nil
}

// Consultants returns the whole directory ordered by id.
func (s *Store) Consultants(ctx context.Context) ([]Consultant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email FROM consultants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list consultants: %w", err)
	}
	defer rows.Close()

	var out []Consultant
	for rows.Next() {
		var c Consultant
		if err := rows.Scan(&c.ID, &c.Name, &c.Email); err != nil {
			return nil, fmt.Errorf("scan consultant: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consultants: %w", err)
	}
	return out, nil
}

// ConsultantExists reports whether the directory carries the given id.
func (s *Store) ConsultantExists(ctx context.Context, id int64) (bool, error) {
	var found int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM consultants WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consultant exists: %w", err)
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Terms

// AddTerm inserts or replaces a taxonomy term.
func (s *Store) AddTerm(ctx context.Context, term taxonomy.Term) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO terms (id, name, parent) VALUES (?, ?, ?)`,
		term.ID, term.Name, term.Parent,
	)
	if err != nil {
		return fmt.Errorf("add term: %w", err)
	}
	return nil
}

// Terms returns every taxonomy term ordered by id.
func (s *Store) Terms(ctx context.Context) ([]taxonomy.Term, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, parent FROM terms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	defer rows.Close()

	var out []taxonomy.Term
	for rows.Next() {
		var term taxonomy.Term
		if err := rows.Scan(&term.ID, &term.Name, &term.Parent); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		out = append(out, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terms: %w", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Records

// CreateRecord inserts a new record in draft status.
func (s *Store) CreateRecord(ctx context.Context, externalID, title string) (*Record, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO records (external_id, title, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		externalID, title, StatusDraft, timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRecord(ctx, id)
}

// GetRecord fetches a record by id; nil when absent.
func (s *Store) GetRecord(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, external_id, title, status, created_at, updated_at FROM records WHERE id = ?`,
		id,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// FindRecordByExternalID fetches a record by its migration key; nil when
// absent.
func (s *Store) FindRecordByExternalID(ctx context.Context, externalID string) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, external_id, title, status, created_at, updated_at FROM records WHERE external_id = ?`,
		externalID,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	return record, nil
}

// AllRecords returns every record ordered by id.
func (s *Store) AllRecords(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, external_id, title, status, created_at, updated_at FROM records ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// UpdateRecordTitle renames a record.
func (s *Store) UpdateRecordTitle(ctx context.Context, id int64, title string) error {
	return s.touchRecord(ctx, id, `UPDATE records SET title = ?, updated_at = ? WHERE id = ?`, title)
}

// SetStatus moves a record to the given status.
func (s *Store) SetStatus(ctx context.Context, id int64, status string) error {
	return s.touchRecord(ctx, id, `UPDATE records SET status = ?, updated_at = ? WHERE id = ?`, status)
}

func (s *Store) touchRecord(ctx context.Context, id int64, query, value string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, query, value, timestamp, id); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Fields

// SetField writes one scalar field value for a record.
func (s *Store) SetField(ctx context.Context, recordID int64, name, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO record_fields (record_id, name, value) VALUES (?, ?, ?)`,
		recordID, name, value,
	)
	if err != nil {
		return fmt.Errorf("set field: %w", err)
	}
	return nil
}

// Field reads one scalar field value; ok is false when unset.
func (s *Store) Field(ctx context.Context, recordID int64, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT value FROM record_fields WHERE record_id = ? AND name = ?`,
		recordID, name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get field: %w", err)
	}
	return value, true, nil
}

// SetFieldList writes a multi-valued field as JSON.
func (s *Store) SetFieldList(ctx context.Context, recordID int64, name string, values []string) error {
	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal field list: %w", err)
	}
	return s.SetField(ctx, recordID, name, string(encoded))
}

// FieldList reads a multi-valued field; nil when unset.
func (s *Store) FieldList(ctx context.Context, recordID int64, name string) ([]string, error) {
	raw, ok, err := s.Field(ctx, recordID, name)
	if err != nil || !ok {
		return nil, err
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("unmarshal field list: %w", err)
	}
	return values, nil
}

// ---------------------------------------------------------------------------
// Authors

// SetAuthors replaces a record's consultant links, preserving order.
func (s *Store) SetAuthors(ctx context.Context, recordID int64, consultantIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM record_authors WHERE record_id = ?`, recordID); err != nil {
		return fmt.Errorf("clear authors: %w", err)
	}
	for i, consultantID := range consultantIDs {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO record_authors (record_id, consultant_id, position) VALUES (?, ?, ?)`,
			recordID, consultantID, i,
		); err != nil {
			return fmt.Errorf("insert author: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit authors: %w", err)
	}
	return nil
}

// Authors returns a record's consultant ids in stored order.
func (s *Store) Authors(ctx context.Context, recordID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT consultant_id FROM record_authors WHERE record_id = ? ORDER BY position`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authors: %w", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Terms on records

// SetTerms replaces a record's assigned taxonomy terms.
func (s *Store) SetTerms(ctx context.Context, recordID int64, termIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM record_terms WHERE record_id = ?`, recordID); err != nil {
		return fmt.Errorf("clear terms: %w", err)
	}
	for _, termID := range termIDs {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO record_terms (record_id, term_id) VALUES (?, ?)`,
			recordID, termID,
		); err != nil {
			return fmt.Errorf("insert record term: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit terms: %w", err)
	}
	return nil
}

// RecordTerms returns the term ids assigned to a record.
func (s *Store) RecordTerms(ctx context.Context, recordID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT term_id FROM record_terms WHERE record_id = ? ORDER BY term_id`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("list record terms: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan record term: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record terms: %w", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Links

// Links returns a record's link entries in list order.
func (s *Store) Links(ctx context.Context, recordID int64) ([]Link, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, record_id, label, url, attachment_id FROM record_links
         WHERE record_id = ? ORDER BY position`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var link Link
		if err := rows.Scan(&link.ID, &link.RecordID, &link.Label, &link.URL, &link.AttachmentID); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		out = append(out, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return out, nil
}

// AppendLinks adds entries to the end of a record's link list.
func (s *Store) AppendLinks(ctx context.Context, recordID int64, links []Link) error {
	if len(links) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(
		ctx,
		`SELECT COALESCE(MAX(position)+1, 0) FROM record_links WHERE record_id = ?`,
		recordID,
	).Scan(&next); err != nil {
		return fmt.Errorf("next link position: %w", err)
	}

	for i, link := range links {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO record_links (record_id, position, label, url, attachment_id)
             VALUES (?, ?, ?, ?, ?)`,
			recordID, next+i, link.Label, link.URL, link.AttachmentID,
		); err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit links: %w", err)
	}
	return nil
}

// ReplaceLinks rewrites a record's link list wholesale.
func (s *Store) ReplaceLinks(ctx context.Context, recordID int64, links []Link) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM record_links WHERE record_id = ?`, recordID); err != nil {
		return fmt.Errorf("clear links: %w", err)
	}
	for i, link := range links {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO record_links (record_id, position, label, url, attachment_id)
             VALUES (?, ?, ?, ?, ?)`,
			recordID, i, link.Label, link.URL, link.AttachmentID,
		); err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit links: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Attachments

// AddAttachment records a stored file and returns its id.
func (s *Store) AddAttachment(ctx context.Context, filename, path string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO attachments (filename, path, created_at) VALUES (?, ?, ?)`,
		filename, path, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert attachment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Attachment fetches a stored file by id; nil when absent.
func (s *Store) Attachment(ctx context.Context, id int64) (*Attachment, error) {
	var (
		att       Attachment
		createdAt string
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, filename, path, created_at FROM attachments WHERE id = ?`,
		id,
	).Scan(&att.ID, &att.Filename, &att.Path, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	if att.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &att, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record    Record
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&record.ID, &record.ExternalID, &record.Title, &record.Status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if record.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &record, nil
}
