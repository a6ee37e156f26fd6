package runner_test

import (
	"context"
	"errors"
	"testing"

	"intake/internal/config"
	"intake/internal/content"
	"intake/internal/csvfile"
	"intake/internal/jobs"
	"intake/internal/logging"
	"intake/internal/runner"
	"intake/internal/taxonomy"
	"intake/internal/testsupport"
)

var importHeader = []string{"Title", "ResourceID"}

type fixture struct {
	cfg     *config.Config
	store   *content.Store
	service *runner.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)

	jobStore, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() { jobStore.Close() })

	store, err := content.Open(cfg)
	if err != nil {
		t.Fatalf("open content store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return &fixture{
		cfg:     cfg,
		store:   store,
		service: runner.New(cfg, jobStore, store, logging.NewNop()),
	}
}

func importCSV(t *testing.T, rows int) string {
	t.Helper()
	data := make([][]string, 0, rows)
	for i := 0; i < rows; i++ {
		data = append(data, []string{"Title", "R-" + string(rune('A'+i))})
	}
	return testsupport.WriteCSV(t, t.TempDir(), "import.csv", importHeader, data)
}

func TestStartValidatesRequiredColumns(t *testing.T) {
	f := newFixture(t)
	path := testsupport.WriteCSV(t, t.TempDir(), "bad.csv", []string{"Title"}, [][]string{{"x"}})

	_, err := f.service.Start(context.Background(), jobs.KindImport, path, jobs.ModePreview, 0)
	var missing *csvfile.MissingColumnError
	if !errors.As(err, &missing) || missing.Column != "ResourceID" {
		t.Fatalf("err = %v, want missing ResourceID", err)
	}
}

func TestStartClampsTotalByLimit(t *testing.T) {
	f := newFixture(t)
	path := importCSV(t, 12)

	job, err := f.service.Start(context.Background(), jobs.KindImport, path, jobs.ModePreview, 5)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if job.Total != 5 {
		t.Fatalf("total = %d, want clamped 5", job.Total)
	}
}

func TestStepRunsJobToCompletion(t *testing.T) {
	f := newFixture(t)
	path := importCSV(t, 12)
	ctx := context.Background()

	job, err := f.service.Start(ctx, jobs.KindImport, path, jobs.ModeApply, 0)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if job.Total != 12 {
		t.Fatalf("total = %d", job.Total)
	}

	offset := 0
	steps := 0
	for {
		_, result, err := f.service.Step(ctx, job.ID, offset, taxonomy.Memory{})
		if err != nil {
			t.Fatalf("Step returned error: %v", err)
		}
		steps++
		if result.Done {
			break
		}
		offset = result.NextOffset
	}
	if steps != 2 {
		t.Fatalf("steps = %d, want 2 batches of 10", steps)
	}

	records, err := f.store.AllRecords(ctx)
	if err != nil || len(records) != 12 {
		t.Fatalf("records = %d/%v, want 12", len(records), err)
	}

	// Finished jobs disappear; a stale resume reports not found.
	if _, _, err := f.service.Step(ctx, job.ID, 0, taxonomy.Memory{}); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStepUnknownJob(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.service.Step(context.Background(), "no-such-job", 0, taxonomy.Memory{})
	if !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStartRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	if _, err := f.service.Start(context.Background(), jobs.Kind("export"), importCSV(t, 1), jobs.ModePreview, 0); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestLockIsExclusive(t *testing.T) {
	f := newFixture(t)

	release, err := f.service.Lock()
	if err != nil {
		t.Fatalf("Lock returned error: %v", err)
	}
	if _, err := f.service.Lock(); err == nil {
		t.Fatal("second Lock should fail while held")
	}
	release()

	release, err = f.service.Lock()
	if err != nil {
		t.Fatalf("Lock after release returned error: %v", err)
	}
	release()
}

func TestCleanupSweepsRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	record, err := f.store.CreateRecord(ctx, "R-1", "Guide One")
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	if err := f.store.AppendLinks(ctx, record.ID, []content.Link{
		{Label: "Keep", URL: "https://example.org/doc"},
		{Label: "Empty"},
	}); err != nil {
		t.Fatalf("seed links: %v", err)
	}

	result, err := f.service.Cleanup(ctx, jobs.ModeApply)
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if result.Counters["removed"] != 1 {
		t.Fatalf("counters = %+v", result.Counters)
	}
	links, _ := f.store.Links(ctx, record.ID)
	if len(links) != 1 || links[0].Label != "Keep" {
		t.Fatalf("links = %+v", links)
	}
}
