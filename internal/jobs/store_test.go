package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"intake/internal/jobs"
	"intake/internal/testsupport"
)

func TestCreateAndGetRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	created, err := store.Create(ctx, jobs.KindImport, "/tmp/resources.csv", jobs.ModePreview, 42)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a job id")
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Kind != jobs.KindImport || got.Mode != jobs.ModePreview {
		t.Fatalf("job = %+v", got)
	}
	if got.CSVPath != "/tmp/resources.csv" || got.Total != 42 {
		t.Fatalf("job = %+v", got)
	}
	if !got.ExpiresAt.After(got.CreatedAt) {
		t.Fatalf("expiry %v not after creation %v", got.ExpiresAt, got.CreatedAt)
	}
}

func TestGetUnknownJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()

	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpiredJobIsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Jobs.TTLSeconds = 1
	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	created, err := store.Create(ctx, jobs.KindAttach, "/tmp/files.csv", jobs.ModeApply, 5)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)

	if _, err := store.Get(ctx, created.ID); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestListPurgesExpired(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Jobs.TTLSeconds = 1
	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.Create(ctx, jobs.KindAssign, "/tmp/a.csv", jobs.ModePreview, 1); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)

	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected purge to clear expired jobs, got %d", len(listed))
	}
}

func TestDelete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	created, err := store.Create(ctx, jobs.KindAssign, "/tmp/a.csv", jobs.ModePreview, 1)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestKindBatchSizes(t *testing.T) {
	if got := jobs.KindAttach.BatchSize(); got != 3 {
		t.Fatalf("attach batch size = %d, want 3", got)
	}
	if got := jobs.KindImport.BatchSize(); got != 10 {
		t.Fatalf("import batch size = %d, want 10", got)
	}
	if got := jobs.KindAssign.BatchSize(); got != 10 {
		t.Fatalf("assign batch size = %d, want 10", got)
	}
}

func TestParseMode(t *testing.T) {
	if _, err := jobs.ParseMode("live"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	mode, err := jobs.ParseMode("apply")
	if err != nil || mode != jobs.ModeApply {
		t.Fatalf("ParseMode(apply) = %v/%v", mode, err)
	}
}
