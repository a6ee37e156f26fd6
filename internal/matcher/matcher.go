package matcher

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"intake/internal/config"
	"intake/internal/content"
	"intake/internal/csvfile"
	"intake/internal/logging"
	"intake/internal/matching"
	"intake/internal/names"
)

// Columns the matcher requires in its input CSV.
const (
	ColumnAuthorName  = "Author Name"
	ColumnAuthorEmail = "Author Email"
)

// Columns appended to matched and compiled exports.
const (
	ColumnConsultantID = "Consultant ID"
	ColumnMatchType    = "Match Type"
)

// MatchTypeSkipped marks rows bucketed without matching because the author
// cell names several people.
const MatchTypeSkipped = "skipped_multi_author"

// Directory supplies the consultant entries to match against.
type Directory interface {
	Consultants(ctx context.Context) ([]content.Consultant, error)
}

// Report summarizes a matcher run and names the exported files.
type Report struct {
	Total         int    `json:"total"`
	ExactName     int    `json:"exactName"`
	FuzzyName     int    `json:"fuzzyName"`
	ExactEmail    int    `json:"exactEmail"`
	FuzzyEmail    int    `json:"fuzzyEmail"`
	Skipped       int    `json:"skipped"`
	Unmatched     int    `json:"unmatched"`
	MatchedFile   string `json:"matchedFile"`
	UnmatchedFile string `json:"unmatchedFile"`
	CompiledFile  string `json:"compiledFile"`
}

// Matcher reconciles author rows against the consultant directory and writes
// matched/unmatched/compiled CSV exports.
type Matcher struct {
	directory  Directory
	thresholds matching.Thresholds
	exportDir  string
	logger     *slog.Logger
	now        func() time.Time
}

// New builds a matcher from config.
func New(cfg *config.Config, directory Directory, logger *slog.Logger) *Matcher {
	return &Matcher{
		directory: directory,
		thresholds: matching.Thresholds{
			SimilarityPercent:  cfg.Matching.SimilarityThreshold,
			NameDistanceLimit:  cfg.Matching.NameDistanceLimit,
			EmailDistanceLimit: cfg.Matching.EmailDistanceLimit,
		},
		exportDir: cfg.Paths.ExportDir,
		logger:    logging.NewComponentLogger(logger, "matcher"),
		now:       time.Now,
	}
}

type processedRow struct {
	row          csvfile.Row
	consultantID string
	matchType    string
}

// Run matches every row of the CSV at csvPath and writes the three exports.
func (m *Matcher) Run(ctx context.Context, csvPath string) (*Report, error) {
	source, err := csvfile.Open(csvPath)
	if err != nil {
		return nil, err
	}
	if _, err := source.Count(ColumnAuthorEmail, ColumnAuthorName); err != nil {
		return nil, err
	}

	consultants, err := m.directory.Consultants(ctx)
	if err != nil {
		return nil, fmt.Errorf("load consultants: %w", err)
	}
	candidates := make([]matching.Candidate, 0, len(consultants))
	for _, c := range consultants {
		candidates = append(candidates, matching.Candidate{
			ID:    c.ID,
			Name:  names.Normalize(c.Name),
			Email: strings.ToLower(strings.TrimSpace(c.Email)),
		})
	}

	report := &Report{Total: source.Len()}
	var matched, unmatched, skipped []processedRow

	for _, row := range source.All() {
		name := row.Get(ColumnAuthorName)
		email := row.Get(ColumnAuthorEmail)

		if names.IsMultiAuthor(name) {
			skipped = append(skipped, processedRow{row: row, matchType: MatchTypeSkipped})
			report.Skipped++
			continue
		}

		outcome, ok := matching.Match(names.Normalize(name), strings.ToLower(email), candidates, m.thresholds)
		if !ok {
			unmatched = append(unmatched, processedRow{row: row})
			report.Unmatched++
			continue
		}

		matched = append(matched, processedRow{
			row:          row,
			consultantID: strconv.FormatInt(outcome.ID, 10),
			matchType:    string(outcome.Kind),
		})
		switch outcome.Kind {
		case matching.KindExactName:
			report.ExactName++
		case matching.KindFuzzyName:
			report.FuzzyName++
		case matching.KindExactEmail:
			report.ExactEmail++
		case matching.KindFuzzyEmail:
			report.FuzzyEmail++
		}
	}

	timestamp := m.now().UTC().Format("2006-01-02_150405")
	report.MatchedFile = fmt.Sprintf("matched-%s.csv", timestamp)
	report.UnmatchedFile = fmt.Sprintf("unmatched-%s.csv", timestamp)
	report.CompiledFile = fmt.Sprintf("compiled-%s.csv", timestamp)

	headers := exportHeaders(source.Headers())
	if err := m.writeFullCSV(report.MatchedFile, headers, matched); err != nil {
		return nil, err
	}
	if err := m.writeUnmatchedCSV(report.UnmatchedFile, append(append([]processedRow{}, unmatched...), skipped...)); err != nil {
		return nil, err
	}
	compiled := make([]processedRow, 0, len(matched)+len(unmatched)+len(skipped))
	compiled = append(compiled, matched...)
	compiled = append(compiled, unmatched...)
	compiled = append(compiled, skipped...)
	if err := m.writeFullCSV(report.CompiledFile, headers, compiled); err != nil {
		return nil, err
	}

	m.logger.Info("match run complete",
		logging.Int("total", report.Total),
		logging.Int("matched", len(matched)),
		logging.Int("unmatched", report.Unmatched),
		logging.Int("skipped", report.Skipped),
	)
	return report, nil
}

// exportHeaders appends the consultant columns unless the source already
// carries them.
func exportHeaders(headers []string) []string {
	out := append([]string{}, headers...)
	for _, extra := range []string{ColumnConsultantID, ColumnMatchType} {
		found := false
		for _, header := range out {
			if header == extra {
				found = true
				break
			}
		}
		if !found {
			out = append(out, extra)
		}
	}
	return out
}

func (m *Matcher) writeFullCSV(name string, headers []string, rows []processedRow) error {
	writer, file, err := m.createExport(name)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}
	for _, processed := range rows {
		record := make([]string, 0, len(headers))
		for _, header := range headers {
			switch header {
			case ColumnConsultantID:
				record = append(record, processed.consultantID)
			case ColumnMatchType:
				record = append(record, processed.matchType)
			default:
				record = append(record, processed.row.Get(header))
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (m *Matcher) writeUnmatchedCSV(name string, rows []processedRow) error {
	writer, file, err := m.createExport(name)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := writer.Write([]string{ColumnAuthorName, ColumnAuthorEmail}); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}
	for _, processed := range rows {
		record := []string{processed.row.Get(ColumnAuthorName), processed.row.Get(ColumnAuthorEmail)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (m *Matcher) createExport(name string) (*csv.Writer, *os.File, error) {
	if err := os.MkdirAll(m.exportDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure export dir: %w", err)
	}
	file, err := os.Create(filepath.Join(m.exportDir, name))
	if err != nil {
		return nil, nil, fmt.Errorf("create export %s: %w", name, err)
	}
	return csv.NewWriter(file), file, nil
}
