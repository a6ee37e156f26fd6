package importer_test

import (
	"context"
	"testing"

	"intake/internal/content"
	"intake/internal/csvfile"
	"intake/internal/importer"
	"intake/internal/jobs"
	"intake/internal/logging"
	"intake/internal/testsupport"
)

var header = []string{
	"Title", "ResourceID", "Format", "Training Level", "Date Added",
	"Description", "External Resource Link", "Consultant ID", "Author Name", "Author Email",
}

func newStore(t *testing.T) *content.Store {
	t.Helper()
	store, err := content.Open(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("open content store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, c := range []content.Consultant{
		{ID: 1, Name: "John Smith", Email: "john@example.org"},
		{ID: 2, Name: "Jane Roe", Email: "jane@example.org"},
	} {
		if err := store.AddConsultant(ctx, c); err != nil {
			t.Fatalf("seed consultant: %v", err)
		}
	}
	return store
}

func openSource(t *testing.T, rows [][]string) *csvfile.Source {
	t.Helper()
	path := testsupport.WriteCSV(t, t.TempDir(), "resources.csv", header, rows)
	source, err := csvfile.Open(path)
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	return source
}

func TestStepPreviewDoesNotMutate(t *testing.T) {
	store := newStore(t)
	source := openSource(t, [][]string{
		{"Guide One", "R-1", "Website", "", "", "", "", "", "", ""},
	})

	imp := importer.New(store, logging.NewNop())
	result, err := imp.Step(context.Background(), source, 0, 10, jobs.ModePreview, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if result.Counters[importer.CounterImported] != 1 {
		t.Fatalf("counters = %+v", result.Counters)
	}
	if !result.Done || result.NextOffset != 10 {
		t.Fatalf("result = %+v", result)
	}

	record, err := store.FindRecordByExternalID(context.Background(), "R-1")
	if err != nil || record != nil {
		t.Fatalf("preview must not create records, got %+v/%v", record, err)
	}
}

func TestStepApplyCreatesRecordWithFields(t *testing.T) {
	store := newStore(t)
	source := openSource(t, [][]string{
		{"Guide One", "R-1", "Issue Brief", "101/202", "2024-03-05", "A description", "https://example.org/more", "", "Acme Org", "info@acme.example"},
	})

	imp := importer.New(store, logging.NewNop())
	ctx := context.Background()
	if _, err := imp.Step(ctx, source, 0, 10, jobs.ModeApply, source.Len()); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}

	record, err := store.FindRecordByExternalID(ctx, "R-1")
	if err != nil || record == nil {
		t.Fatalf("record not created: %v", err)
	}
	if record.Title != "Guide One" || record.Status != content.StatusWaiting {
		t.Fatalf("record = %+v", record)
	}

	assertField := func(name, want string) {
		t.Helper()
		value, ok, err := store.Field(ctx, record.ID, name)
		if err != nil || !ok || value != want {
			t.Fatalf("field %s = %q/%v/%v, want %q", name, value, ok, err, want)
		}
	}
	assertField(content.FieldResourceType, "issue_brief")
	assertField(content.FieldTrainingLevel, "101")
	assertField(content.FieldDateAdded, "20240305")
	assertField(content.FieldAuthorType, content.AuthorTypeOrganization)
	assertField(content.FieldOrganizationName, "Acme Org")
	assertField(content.FieldOrganizationEmail, "info@acme.example")

	links, err := store.Links(ctx, record.ID)
	if err != nil || len(links) != 1 {
		t.Fatalf("links = %+v/%v", links, err)
	}
	if links[0].Label != importer.ExternalLinkLabel || links[0].URL != "https://example.org/more" {
		t.Fatalf("link = %+v", links[0])
	}
}

func TestStepAuthorScenarios(t *testing.T) {
	store := newStore(t)
	source := openSource(t, [][]string{
		{"No IDs", "R-1", "", "", "", "", "", "", "Acme Org", "info@acme.example"},
		{"One ID", "R-2", "", "", "", "", "", "1", "John Smith", "john@example.org"},
		{"Mixed", "R-3", "", "", "", "", "", "1||", "John Smith|Co Author|Another", "john@example.org|co@x.example|"},
		{"Multiple", "R-4", "", "", "", "", "", "1|2", "John Smith|Jane Roe", ""},
	})

	imp := importer.New(store, logging.NewNop())
	ctx := context.Background()
	result, err := imp.Step(ctx, source, 0, 10, jobs.ModeApply, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if result.Counters[importer.CounterAuthorConsultant] != 3 || result.Counters[importer.CounterAuthorIndividual] != 1 {
		t.Fatalf("counters = %+v", result.Counters)
	}

	authorsOf := func(external string) []int64 {
		t.Helper()
		record, err := store.FindRecordByExternalID(ctx, external)
		if err != nil || record == nil {
			t.Fatalf("record %s missing: %v", external, err)
		}
		authors, err := store.Authors(ctx, record.ID)
		if err != nil {
			t.Fatalf("authors of %s: %v", external, err)
		}
		return authors
	}

	if got := authorsOf("R-1"); len(got) != 0 {
		t.Fatalf("R-1 authors = %v, want none", got)
	}
	if got := authorsOf("R-2"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("R-2 authors = %v", got)
	}
	if got := authorsOf("R-3"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("R-3 authors = %v", got)
	}
	if got := authorsOf("R-4"); len(got) != 2 {
		t.Fatalf("R-4 authors = %v", got)
	}

	// Mixed scenario: trailing name/email slots become free-text co-authors.
	record, _ := store.FindRecordByExternalID(ctx, "R-3")
	names, _, _ := store.Field(ctx, record.ID, content.FieldOrganizationName)
	if names != "Co Author, Another" {
		t.Fatalf("co-author names = %q", names)
	}
	emails, _, _ := store.Field(ctx, record.ID, content.FieldOrganizationEmail)
	if emails != "co@x.example" {
		t.Fatalf("co-author emails = %q", emails)
	}
}

func TestStepUnknownConsultantIDDropped(t *testing.T) {
	store := newStore(t)
	source := openSource(t, [][]string{
		{"Ghost", "R-1", "", "", "", "", "", "1|99", "", ""},
	})

	imp := importer.New(store, logging.NewNop())
	ctx := context.Background()
	if _, err := imp.Step(ctx, source, 0, 10, jobs.ModeApply, source.Len()); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}

	record, _ := store.FindRecordByExternalID(ctx, "R-1")
	authors, _ := store.Authors(ctx, record.ID)
	if len(authors) != 1 || authors[0] != 1 {
		t.Fatalf("authors = %v, want only the valid id", authors)
	}
}

func TestStepDuplicateExternalIDUpdates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	existing, err := store.CreateRecord(ctx, "R-1", "Old Title")
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}

	source := openSource(t, [][]string{
		{"New Title", "R-1", "", "", "", "", "", "", "", ""},
	})

	imp := importer.New(store, logging.NewNop())
	result, err := imp.Step(ctx, source, 0, 10, jobs.ModeApply, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if result.Counters[importer.CounterUpdated] != 1 || result.Counters[importer.CounterImported] != 0 {
		t.Fatalf("counters = %+v", result.Counters)
	}

	record, _ := store.GetRecord(ctx, existing.ID)
	if record.Title != "New Title" {
		t.Fatalf("title = %q, want updated", record.Title)
	}
	all, _ := store.AllRecords(ctx)
	if len(all) != 1 {
		t.Fatalf("records = %d, want 1 (no duplicate)", len(all))
	}
}

func TestStepSkipsBadRows(t *testing.T) {
	store := newStore(t)
	source := openSource(t, [][]string{
		{"", "R-1", "", "", "", "", "", "", "", ""},
		{"Odd Format", "R-2", "Interpretive Dance", "", "", "", "", "", "", ""},
		{"Fine", "R-3", "Webinar", "", "", "", "", "", "", ""},
	})

	imp := importer.New(store, logging.NewNop())
	result, err := imp.Step(context.Background(), source, 0, 10, jobs.ModePreview, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if result.Counters[importer.CounterErrors] != 1 {
		t.Fatalf("errors = %d, want 1", result.Counters[importer.CounterErrors])
	}
	if result.Counters[importer.CounterSkippedFormat] != 1 {
		t.Fatalf("skipped_format = %d, want 1", result.Counters[importer.CounterSkippedFormat])
	}
	if result.Counters[importer.CounterImported] != 1 {
		t.Fatalf("imported = %d, want 1", result.Counters[importer.CounterImported])
	}
	if len(result.Log) != 3 {
		t.Fatalf("log = %+v", result.Log)
	}
}

func TestStepBatchWindowing(t *testing.T) {
	store := newStore(t)
	rows := make([][]string, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, []string{
			"Title", "R-" + string(rune('A'+i)), "", "", "", "", "", "", "", "",
		})
	}
	source := openSource(t, rows)

	imp := importer.New(store, logging.NewNop())
	ctx := context.Background()

	first, err := imp.Step(ctx, source, 0, 10, jobs.ModePreview, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if first.Done || first.NextOffset != 10 {
		t.Fatalf("first = %+v", first)
	}

	second, err := imp.Step(ctx, source, first.NextOffset, 10, jobs.ModePreview, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if !second.Done || second.NextOffset != 20 {
		t.Fatalf("second = %+v", second)
	}
	if second.Counters[importer.CounterImported] != 2 {
		t.Fatalf("second counters = %+v", second.Counters)
	}
}
