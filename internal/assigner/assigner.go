package assigner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"intake/internal/batch"
	"intake/internal/content"
	"intake/internal/csvfile"
	"intake/internal/jobs"
	"intake/internal/logging"
	"intake/internal/taxonomy"
)

// Columns the assigner reads. Each row carries up to three category paths of
// four levels each, plus two audience cells named after the fields they fill.
const (
	ColumnResourceID = "Resource ID"

	categoryColumnPrefix = "Resource Category"
	maxCategoryPaths     = 3
)

// categoryDepthLabels are the per-level column suffixes, shallowest first.
var categoryDepthLabels = []string{
	"Main Category", "Sub Category", "Sub Sub Category", "Sub Sub Sub Category",
}

// RequiredColumns are validated before a job starts.
var RequiredColumns = []string{ColumnResourceID}

// Counter names reported per step.
const (
	CounterUpdated       = "updated"
	CounterNotFound      = "not_found"
	CounterTermsAssigned = "terms_assigned"
	CounterTermsSkipped  = "terms_skipped"
	CounterErrors        = "errors"
)

// Assigner resolves category paths and audience labels for each CSV row and
// writes them onto the matching record. Unknown values suspend the step with
// a mismatch; the operator's resolution lands in memory and the step re-runs
// from the same offset.
type Assigner struct {
	store  *content.Store
	logger *slog.Logger
}

// New builds an assigner over the content store.
func New(store *content.Store, logger *slog.Logger) *Assigner {
	return &Assigner{store: store, logger: logging.NewComponentLogger(logger, "assigner")}
}

// Step processes up to size rows at offset. A mismatch returns a suspended
// result (same offset, Done false) carrying the counters and log accumulated
// so far; rows before the suspension point are reprocessed on resume, which
// is safe because every write is a replacement.
func (a *Assigner) Step(ctx context.Context, source *csvfile.Source, offset, size int, mode jobs.Mode, total int, memory taxonomy.Memory) (*batch.StepResult, error) {
	counters := batch.Counters{}
	var log batch.Log

	terms, err := a.store.Terms(ctx)
	if err != nil {
		return nil, err
	}
	forest := taxonomy.NewForest(terms)

	suspend := func(mismatch *taxonomy.Mismatch) *batch.StepResult {
		return &batch.StepResult{
			Counters:   counters,
			Log:        log.Entries(),
			NextOffset: offset,
			Done:       false,
			Mismatch:   mismatch,
		}
	}

	for i, row := range source.Slice(offset, size) {
		rowNum := batch.RowNumber(offset, i)

		externalID := row.Get(ColumnResourceID)
		if externalID == "" {
			log.Skipf("Row %d: No Resource ID.", rowNum)
			counters.Add(CounterErrors, 1)
			continue
		}

		record, err := a.store.FindRecordByExternalID(ctx, externalID)
		if err != nil {
			return nil, err
		}
		if record == nil {
			log.Errorf("Row %d: Resource ID %s not found.", rowNum, externalID)
			counters.Add(CounterNotFound, 1)
			continue
		}

		var termIDs []int64
		for pathNum := 1; pathNum <= maxCategoryPaths; pathNum++ {
			levels := categoryLevels(row, pathNum)
			if len(levels) == 0 {
				continue
			}

			outcome := taxonomy.ResolvePath(forest, levels, memory)
			switch {
			case outcome.Mismatch != nil:
				outcome.Mismatch.Context = fmt.Sprintf(
					"Row %d, Resource ID %s %q — Category %d, Level %d",
					rowNum, externalID, record.Title, pathNum, outcome.Depth,
				)
				return suspend(outcome.Mismatch), nil
			case outcome.Skipped:
				counters.Add(CounterTermsSkipped, 1)
			case outcome.TermID > 0:
				termIDs = append(termIDs, outcome.TermID)
				counters.Add(CounterTermsAssigned, 1)
			}
		}

		primary, mismatch := taxonomy.ResolveAudience(row.Get(taxonomy.FieldPrimaryAudience), taxonomy.FieldPrimaryAudience, memory)
		if mismatch != nil {
			mismatch.Context = fmt.Sprintf("Row %d — %s", rowNum, taxonomy.FieldPrimaryAudience)
			return suspend(mismatch), nil
		}
		secondary, mismatch := taxonomy.ResolveAudience(row.Get(taxonomy.FieldSecondaryAudience), taxonomy.FieldSecondaryAudience, memory)
		if mismatch != nil {
			mismatch.Context = fmt.Sprintf("Row %d — %s", rowNum, taxonomy.FieldSecondaryAudience)
			return suspend(mismatch), nil
		}

		if mode == jobs.ModeApply {
			if len(termIDs) > 0 {
				if err := a.store.SetTerms(ctx, record.ID, termIDs); err != nil {
					return nil, err
				}
			}
			if primary != nil {
				if err := a.store.SetFieldList(ctx, record.ID, taxonomy.FieldPrimaryAudience, primary); err != nil {
					return nil, err
				}
			}
			if secondary != nil {
				if err := a.store.SetFieldList(ctx, record.ID, taxonomy.FieldSecondaryAudience, secondary); err != nil {
					return nil, err
				}
			}
			if err := a.store.SetStatus(ctx, record.ID, content.StatusActive); err != nil {
				return nil, err
			}
		}

		verb := "Would update"
		if mode == jobs.ModeApply {
			verb = "Updated"
		}
		log.Okf("Row %d: %s record #%d %q — %s",
			rowNum, verb, record.ID, record.Title, summarize(termIDs, primary, secondary))
		counters.Add(CounterUpdated, 1)
	}

	nextOffset := offset + size
	result := &batch.StepResult{
		Counters:   counters,
		Log:        log.Entries(),
		NextOffset: nextOffset,
		Done:       nextOffset >= total,
	}
	a.logger.Debug("assign step complete",
		logging.Int(logging.FieldOffset, offset),
		logging.Int("updated", counters[CounterUpdated]),
	)
	return result, nil
}

// categoryLevels reads one category path from a row, shallowest level first,
// stopping at the first empty cell.
func categoryLevels(row csvfile.Row, pathNum int) []string {
	var levels []string
	for _, depthLabel := range categoryDepthLabels {
		value := row.Get(fmt.Sprintf("%s %d - %s", categoryColumnPrefix, pathNum, depthLabel))
		if value == "" {
			break
		}
		levels = append(levels, value)
	}
	return levels
}

func summarize(termIDs []int64, primary, secondary []string) string {
	var parts []string
	if len(termIDs) > 0 {
		parts = append(parts, fmt.Sprintf("%d category term(s)", len(termIDs)))
	}
	if len(primary) > 0 {
		parts = append(parts, fmt.Sprintf("%d primary audience(s)", len(primary)))
	}
	if len(secondary) > 0 {
		parts = append(parts, fmt.Sprintf("%d secondary audience(s)", len(secondary)))
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ") + ", status → active"
}
