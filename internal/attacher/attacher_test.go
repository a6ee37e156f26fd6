package attacher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"intake/internal/attacher"
	"intake/internal/config"
	"intake/internal/content"
	"intake/internal/csvfile"
	"intake/internal/fetch"
	"intake/internal/jobs"
	"intake/internal/logging"
	"intake/internal/testsupport"
)

var header = []string{"Resource ID", "Resource Internal File", "Resource Link Label"}

type fixture struct {
	cfg   *config.Config
	store *content.Store
	att   *attacher.Attacher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := content.Open(cfg)
	if err != nil {
		t.Fatalf("open content store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return &fixture{
		cfg:   cfg,
		store: store,
		att:   attacher.New(store, fetch.New(cfg), logging.NewNop()),
	}
}

func (f *fixture) seedRecord(t *testing.T, externalID, title string) *content.Record {
	t.Helper()
	record, err := f.store.CreateRecord(context.Background(), externalID, title)
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record
}

func (f *fixture) source(t *testing.T, rows [][]string) *csvfile.Source {
	t.Helper()
	path := testsupport.WriteCSV(t, t.TempDir(), "files.csv", header, rows)
	source, err := csvfile.Open(path)
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	return source
}

func fileServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.pdf") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("pdf-bytes"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestStepAttachesGroupedRows(t *testing.T) {
	f := newFixture(t)
	server := fileServer(t)
	record := f.seedRecord(t, "R-1", "Guide One")

	source := f.source(t, [][]string{
		{"R-1", server.URL + "/guide.pdf", "Guide"},
		{"R-1", server.URL + "/slides.pdf", "Slides"},
	})

	result, err := f.att.Step(context.Background(), source, 0, 3, jobs.ModeApply, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if result.Counters[attacher.CounterAttached] != 2 {
		t.Fatalf("counters = %+v", result.Counters)
	}

	links, err := f.store.Links(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("Links returned error: %v", err)
	}
	if len(links) != 2 || links[0].Label != "Guide" || links[1].Label != "Slides" {
		t.Fatalf("links = %+v", links)
	}
	for _, link := range links {
		if link.AttachmentID == 0 {
			t.Fatalf("link %q has no attachment", link.Label)
		}
		att, err := f.store.Attachment(context.Background(), link.AttachmentID)
		if err != nil || att == nil {
			t.Fatalf("attachment for %q missing: %v", link.Label, err)
		}
	}
}

func TestStepSkipsDuplicateLabels(t *testing.T) {
	f := newFixture(t)
	server := fileServer(t)
	record := f.seedRecord(t, "R-1", "Guide One")
	ctx := context.Background()
	if err := f.store.AppendLinks(ctx, record.ID, []content.Link{{Label: "Guide", URL: "https://example.org/old"}}); err != nil {
		t.Fatalf("seed link: %v", err)
	}

	source := f.source(t, [][]string{
		{"R-1", server.URL + "/a.pdf", "Guide"},
		{"R-1", server.URL + "/b.pdf", "Extras"},
		{"R-1", server.URL + "/c.pdf", "extras"},
	})

	result, err := f.att.Step(ctx, source, 0, 3, jobs.ModeApply, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if result.Counters[attacher.CounterSkippedDup] != 2 {
		t.Fatalf("skipped_dup = %d, want 2 (existing label + repeat within batch)", result.Counters[attacher.CounterSkippedDup])
	}
	if result.Counters[attacher.CounterAttached] != 1 {
		t.Fatalf("attached = %d, want 1", result.Counters[attacher.CounterAttached])
	}

	links, _ := f.store.Links(ctx, record.ID)
	if len(links) != 2 {
		t.Fatalf("links = %+v", links)
	}
}

func TestStepCountsMissingRecordsAndBadRows(t *testing.T) {
	f := newFixture(t)
	server := fileServer(t)
	f.seedRecord(t, "R-1", "Guide One")

	source := f.source(t, [][]string{
		{"", server.URL + "/a.pdf", "A"},
		{"R-404", server.URL + "/b.pdf", "B"},
		{"R-1", "", "C"},
	})

	result, err := f.att.Step(context.Background(), source, 0, 3, jobs.ModeApply, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if result.Counters[attacher.CounterErrors] != 2 {
		t.Fatalf("errors = %d, want 2 (missing id, missing URL)", result.Counters[attacher.CounterErrors])
	}
	if result.Counters[attacher.CounterNotFound] != 1 {
		t.Fatalf("not_found = %d, want 1", result.Counters[attacher.CounterNotFound])
	}
}

func TestStepCountsDownloadFailures(t *testing.T) {
	f := newFixture(t)
	server := fileServer(t)
	record := f.seedRecord(t, "R-1", "Guide One")

	source := f.source(t, [][]string{
		{"R-1", server.URL + "/missing.pdf", "Gone"},
		{"R-1", server.URL + "/ok.pdf", "OK"},
	})

	result, err := f.att.Step(context.Background(), source, 0, 3, jobs.ModeApply, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if result.Counters[attacher.CounterDownloadErrors] != 1 {
		t.Fatalf("download_errors = %d, want 1", result.Counters[attacher.CounterDownloadErrors])
	}
	if result.Counters[attacher.CounterAttached] != 1 {
		t.Fatalf("attached = %d, want 1", result.Counters[attacher.CounterAttached])
	}

	links, _ := f.store.Links(context.Background(), record.ID)
	if len(links) != 1 || links[0].Label != "OK" {
		t.Fatalf("links = %+v", links)
	}
}

func TestStepPreviewDownloadsNothing(t *testing.T) {
	f := newFixture(t)
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("pdf-bytes"))
	}))
	t.Cleanup(server.Close)
	record := f.seedRecord(t, "R-1", "Guide One")

	source := f.source(t, [][]string{
		{"R-1", server.URL + "/guide%20final.pdf", ""},
	})

	result, err := f.att.Step(context.Background(), source, 0, 3, jobs.ModePreview, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if requests != 0 {
		t.Fatalf("preview issued %d requests", requests)
	}
	if result.Counters[attacher.CounterAttached] != 1 {
		t.Fatalf("counters = %+v", result.Counters)
	}
	if len(result.Log) != 1 || !strings.Contains(result.Log[0].Message, "Would download guide-final.pdf") {
		t.Fatalf("log = %+v", result.Log)
	}

	links, _ := f.store.Links(context.Background(), record.ID)
	if len(links) != 0 {
		t.Fatalf("preview wrote links: %+v", links)
	}
}

func TestStepBatchWindowing(t *testing.T) {
	f := newFixture(t)
	server := fileServer(t)
	f.seedRecord(t, "R-1", "Guide One")

	rows := [][]string{
		{"R-1", server.URL + "/a.pdf", "A"},
		{"R-1", server.URL + "/b.pdf", "B"},
		{"R-1", server.URL + "/c.pdf", "C"},
		{"R-1", server.URL + "/d.pdf", "D"},
	}
	source := f.source(t, rows)
	ctx := context.Background()

	first, err := f.att.Step(ctx, source, 0, 3, jobs.ModeApply, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if first.Done || first.NextOffset != 3 {
		t.Fatalf("first = %+v", first)
	}

	second, err := f.att.Step(ctx, source, first.NextOffset, 3, jobs.ModeApply, source.Len())
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if !second.Done {
		t.Fatalf("second = %+v", second)
	}
	if first.Counters[attacher.CounterAttached]+second.Counters[attacher.CounterAttached] != 4 {
		t.Fatalf("attached = %d + %d, want 4", first.Counters[attacher.CounterAttached], second.Counters[attacher.CounterAttached])
	}
}

func TestCleanupRemovesEmptyRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := f.seedRecord(t, "R-1", "Guide One")
	untouched := f.seedRecord(t, "R-2", "Guide Two")

	if err := f.store.AppendLinks(ctx, record.ID, []content.Link{
		{Label: "Keep URL", URL: "https://example.org/doc"},
		{Label: "Empty"},
		{Label: "Keep File", AttachmentID: 7},
		{Label: "Also Empty"},
	}); err != nil {
		t.Fatalf("seed links: %v", err)
	}
	if err := f.store.AppendLinks(ctx, untouched.ID, []content.Link{
		{Label: "Fine", URL: "https://example.org/fine"},
	}); err != nil {
		t.Fatalf("seed links: %v", err)
	}

	preview, err := f.att.Cleanup(ctx, jobs.ModePreview)
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if preview.Counters[attacher.CounterRemoved] != 2 || preview.Counters[attacher.CounterCleaned] != 1 {
		t.Fatalf("preview counters = %+v", preview.Counters)
	}
	if links, _ := f.store.Links(ctx, record.ID); len(links) != 4 {
		t.Fatalf("preview mutated links: %+v", links)
	}

	applied, err := f.att.Cleanup(ctx, jobs.ModeApply)
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if applied.Counters[attacher.CounterScanned] != 2 || applied.Counters[attacher.CounterRemoved] != 2 {
		t.Fatalf("apply counters = %+v", applied.Counters)
	}

	links, _ := f.store.Links(ctx, record.ID)
	if len(links) != 2 || links[0].Label != "Keep URL" || links[1].Label != "Keep File" {
		t.Fatalf("links = %+v", links)
	}
	if links2, _ := f.store.Links(ctx, untouched.ID); len(links2) != 1 {
		t.Fatalf("untouched record changed: %+v", links2)
	}
}
