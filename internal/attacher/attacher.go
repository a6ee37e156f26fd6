package attacher

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"intake/internal/batch"
	"intake/internal/content"
	"intake/internal/csvfile"
	"intake/internal/fetch"
	"intake/internal/jobs"
	"intake/internal/logging"
)

// Columns the attacher reads. Several rows may carry the same Resource ID;
// each contributes one file to that record's link list.
const (
	ColumnResourceID = "Resource ID"
	ColumnFileURL    = "Resource Internal File"
	ColumnLinkLabel  = "Resource Link Label"
)

// RequiredColumns are validated before a job starts.
var RequiredColumns = []string{ColumnResourceID, ColumnFileURL}

// Counter names reported per step.
const (
	CounterAttached       = "attached"
	CounterNotFound       = "not_found"
	CounterDownloadErrors = "download_errors"
	CounterSkippedDup     = "skipped_dup"
	CounterErrors         = "errors"
)

// Counter names reported by the cleanup pass.
const (
	CounterScanned = "scanned"
	CounterCleaned = "cleaned"
	CounterRemoved = "removed"
)

// Attacher downloads files referenced by migration CSV rows and appends them
// to the matching record's link list.
type Attacher struct {
	store   *content.Store
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// New builds an attacher over the content store and fetcher.
func New(store *content.Store, fetcher *fetch.Fetcher, logger *slog.Logger) *Attacher {
	return &Attacher{
		store:   store,
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "attacher"),
	}
}

// group is the set of rows in one batch sharing a Resource ID.
type group struct {
	externalID string
	rows       []csvfile.Row
	rowNums    []int
}

// Step processes up to size rows at offset. Rows are grouped by Resource ID
// so each record's link list is written once per batch. Preview mode logs
// what would be downloaded without fetching or writing anything.
func (a *Attacher) Step(ctx context.Context, source *csvfile.Source, offset, size int, mode jobs.Mode, total int) (*batch.StepResult, error) {
	counters := batch.Counters{}
	var log batch.Log

	groups := groupRows(source.Slice(offset, size), offset, &log, counters)

	for _, g := range groups {
		record, err := a.store.FindRecordByExternalID(ctx, g.externalID)
		if err != nil {
			return nil, err
		}
		if record == nil {
			log.Skipf("Rows %s: No record found for Resource ID %q.", rowList(g.rowNums), g.externalID)
			counters.Add(CounterNotFound, len(g.rows))
			continue
		}

		seen, err := a.existingLabels(ctx, record.ID)
		if err != nil {
			return nil, err
		}

		var pending []content.Link
		for i, row := range g.rows {
			rowNum := g.rowNums[i]
			fileURL := row.Get(ColumnFileURL)
			if fileURL == "" {
				log.Skipf("Row %d: Skipped — no file URL.", rowNum)
				counters.Add(CounterErrors, 1)
				continue
			}

			label := row.Get(ColumnLinkLabel)
			if label == "" {
				label = fetch.ExtractFilename(fileURL)
			}
			if _, dup := seen[foldLabel(label)]; dup {
				log.Skipf("Row %d: Skipped — record #%d already has a link labeled %q.", rowNum, record.ID, label)
				counters.Add(CounterSkippedDup, 1)
				continue
			}
			seen[foldLabel(label)] = struct{}{}

			if mode != jobs.ModeApply {
				log.Okf("Row %d: Would download %s and attach to record #%d — %q (label %q)",
					rowNum, fetch.ExtractFilename(fileURL), record.ID, record.Title, label)
				counters.Add(CounterAttached, 1)
				continue
			}

			path, filename, err := a.fetcher.Download(ctx, fileURL)
			if err != nil {
				var dlErr *fetch.DownloadError
				if errors.As(err, &dlErr) {
					log.Errorf("Row %d: Download failed for record #%d — %v", rowNum, record.ID, err)
					counters.Add(CounterDownloadErrors, 1)
					continue
				}
				return nil, err
			}

			attachmentID, err := a.store.AddAttachment(ctx, filename, path)
			if err != nil {
				return nil, err
			}
			pending = append(pending, content.Link{Label: label, AttachmentID: attachmentID})
			log.Okf("Row %d: Attached %s to record #%d — %q (label %q)",
				rowNum, filename, record.ID, record.Title, label)
			counters.Add(CounterAttached, 1)
		}

		if mode == jobs.ModeApply && len(pending) > 0 {
			if err := a.store.AppendLinks(ctx, record.ID, pending); err != nil {
				return nil, err
			}
		}
	}

	nextOffset := offset + size
	result := &batch.StepResult{
		Counters:   counters,
		Log:        log.Entries(),
		NextOffset: nextOffset,
		Done:       nextOffset >= total,
	}
	a.logger.Debug("attach step complete",
		logging.Int(logging.FieldOffset, offset),
		logging.Int("attached", counters[CounterAttached]),
	)
	return result, nil
}

// Cleanup scans every record and strips link entries that point at nothing
// (no URL, no stored file). Preview mode only reports what would be removed.
func (a *Attacher) Cleanup(ctx context.Context, mode jobs.Mode) (*batch.StepResult, error) {
	counters := batch.Counters{}
	var log batch.Log

	records, err := a.store.AllRecords(ctx)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		counters.Add(CounterScanned, 1)

		links, err := a.store.Links(ctx, record.ID)
		if err != nil {
			return nil, err
		}
		keep := links[:0:0]
		for _, link := range links {
			if link.HasTarget() {
				keep = append(keep, link)
			}
		}
		removed := len(links) - len(keep)
		if removed == 0 {
			continue
		}

		counters.Add(CounterCleaned, 1)
		counters.Add(CounterRemoved, removed)

		verb := "Would remove"
		if mode == jobs.ModeApply {
			if err := a.store.ReplaceLinks(ctx, record.ID, keep); err != nil {
				return nil, err
			}
			verb = "Removed"
		}
		log.Okf("Record #%d — %q: %s %d empty row(s), %d remain.",
			record.ID, record.Title, verb, removed, len(keep))
	}

	a.logger.Info("link cleanup complete",
		logging.Int("scanned", counters[CounterScanned]),
		logging.Int("removed", counters[CounterRemoved]),
	)
	return &batch.StepResult{Counters: counters, Log: log.Entries(), Done: true}, nil
}

// existingLabels folds the labels already on a record so duplicate files are
// skipped rather than attached twice.
func (a *Attacher) existingLabels(ctx context.Context, recordID int64) (map[string]struct{}, error) {
	links, err := a.store.Links(ctx, recordID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(links))
	for _, link := range links {
		seen[foldLabel(link.Label)] = struct{}{}
	}
	return seen, nil
}

// groupRows buckets batch rows by Resource ID, preserving first-seen order.
// Rows without a Resource ID are logged and counted here.
func groupRows(rows []csvfile.Row, offset int, log *batch.Log, counters batch.Counters) []*group {
	var order []*group
	byID := make(map[string]*group)

	for i, row := range rows {
		rowNum := batch.RowNumber(offset, i)
		externalID := row.Get(ColumnResourceID)
		if externalID == "" {
			log.Skipf("Row %d: Skipped — no Resource ID.", rowNum)
			counters.Add(CounterErrors, 1)
			continue
		}
		g, ok := byID[externalID]
		if !ok {
			g = &group{externalID: externalID}
			byID[externalID] = g
			order = append(order, g)
		}
		g.rows = append(g.rows, row)
		g.rowNums = append(g.rowNums, rowNum)
	}
	return order
}

func foldLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func rowList(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
