package matcher_test

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"intake/internal/content"
	"intake/internal/csvfile"
	"intake/internal/logging"
	"intake/internal/matcher"
	"intake/internal/testsupport"
)

type staticDirectory []content.Consultant

func (d staticDirectory) Consultants(context.Context) ([]content.Consultant, error) {
	return d, nil
}

func readExport(t *testing.T, dir, name string) [][]string {
	t.Helper()
	file, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	return rows
}

func TestRunMatchesAndExports(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	directory := staticDirectory{
		{ID: 1, Name: "Smith, John, MD", Email: "john.smith@example.org"},
		{ID: 2, Name: "Jane Roe", Email: "jane.roe@example.org"},
	}

	csvPath := testsupport.WriteCSV(t, t.TempDir(), "authors.csv",
		[]string{"Author Name", "Author Email", "Title"},
		[][]string{
			{"John Smith", "", "Exact by name"},
			{"Jane Rowe", "", "Fuzzy by name"},
			{"Unrelated Person", "jane.roe@example.org", "Exact by email"},
			{"A and B", "", "Multi author"},
			{"Nobody Known", "nobody@nowhere.example", "Unmatched"},
		},
	)

	m := matcher.New(cfg, directory, logging.NewNop())
	report, err := m.Run(context.Background(), csvPath)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.Total != 5 {
		t.Fatalf("Total = %d, want 5", report.Total)
	}
	if report.ExactName != 1 || report.FuzzyName != 1 || report.ExactEmail != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Skipped != 1 || report.Unmatched != 1 {
		t.Fatalf("report = %+v", report)
	}

	matched := readExport(t, cfg.Paths.ExportDir, report.MatchedFile)
	if len(matched) != 4 { // header + 3 matches
		t.Fatalf("matched rows = %d, want 4", len(matched))
	}
	header := matched[0]
	if header[len(header)-2] != "Consultant ID" || header[len(header)-1] != "Match Type" {
		t.Fatalf("matched header = %v", header)
	}
	if matched[1][len(header)-2] != "1" || matched[1][len(header)-1] != "exact_name" {
		t.Fatalf("first matched row = %v", matched[1])
	}

	unmatched := readExport(t, cfg.Paths.ExportDir, report.UnmatchedFile)
	if len(unmatched) != 3 { // header + unmatched + multi-author
		t.Fatalf("unmatched rows = %d, want 3", len(unmatched))
	}
	if len(unmatched[0]) != 2 {
		t.Fatalf("unmatched export should carry name and email only: %v", unmatched[0])
	}

	compiled := readExport(t, cfg.Paths.ExportDir, report.CompiledFile)
	if len(compiled) != 6 { // header + all 5 rows
		t.Fatalf("compiled rows = %d, want 6", len(compiled))
	}
	last := compiled[len(compiled)-1]
	if last[len(last)-1] != "skipped_multi_author" {
		t.Fatalf("multi-author row should close the compiled export: %v", last)
	}
}

func TestRunRequiresColumns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	csvPath := testsupport.WriteCSV(t, t.TempDir(), "authors.csv",
		[]string{"Author Name", "Title"},
		[][]string{{"John Smith", "No email column"}},
	)

	m := matcher.New(cfg, staticDirectory{}, logging.NewNop())
	_, err := m.Run(context.Background(), csvPath)
	var missing *csvfile.MissingColumnError
	if !errors.As(err, &missing) || missing.Column != "Author Email" {
		t.Fatalf("expected missing Author Email, got %v", err)
	}
}

func TestRunRequiresRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	csvPath := testsupport.WriteCSV(t, t.TempDir(), "authors.csv",
		[]string{"Author Name", "Author Email"}, nil)

	m := matcher.New(cfg, staticDirectory{}, logging.NewNop())
	if _, err := m.Run(context.Background(), csvPath); !errors.Is(err, csvfile.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}
