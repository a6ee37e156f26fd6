package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"intake/internal/batch"
	"intake/internal/content"
	"intake/internal/csvfile"
	"intake/internal/jobs"
	"intake/internal/logging"
)

// Columns the importer reads. Title and ResourceID are required; the rest
// are optional.
const (
	ColumnTitle         = "Title"
	ColumnResourceID    = "ResourceID"
	ColumnFormat        = "Format"
	ColumnTrainingLevel = "Training Level"
	ColumnDateAdded     = "Date Added"
	ColumnDescription   = "Description"
	ColumnExternalLink  = "External Resource Link"
	ColumnConsultantID  = "Consultant ID"
	ColumnAuthorName    = "Author Name"
	ColumnAuthorEmail   = "Author Email"
	ColumnAddedByName   = "Added By Name"
	ColumnAddedByEmail  = "Added By Email"
)

// RequiredColumns are validated before a job starts.
var RequiredColumns = []string{ColumnTitle, ColumnResourceID}

// ExternalLinkLabel is the link label given to External Resource Link cells.
const ExternalLinkLabel = "Open External Resource."

// Counter names reported per step.
const (
	CounterImported         = "imported"
	CounterUpdated          = "updated"
	CounterAuthorConsultant = "author_consultant"
	CounterAuthorIndividual = "author_individual"
	CounterSkippedFormat    = "skipped_format"
	CounterErrors           = "errors"
)

// Importer creates or updates content records from CSV rows.
type Importer struct {
	store  *content.Store
	logger *slog.Logger
}

// New builds an importer over the content store.
func New(store *content.Store, logger *slog.Logger) *Importer {
	return &Importer{store: store, logger: logging.NewComponentLogger(logger, "importer")}
}

// rowData is one CSV row mapped onto record fields.
type rowData struct {
	title         string
	externalID    string
	description   string
	resourceType  string
	trainingLevel string
	dateAdded     string
	addedByName   string
	addedByEmail  string
	externalLink  string

	authorType    string
	consultantIDs []int64
	orgNames      string
	orgEmails     string
}

// Step processes up to size rows at offset. Preview mode logs what would
// happen without touching the store.
func (imp *Importer) Step(ctx context.Context, source *csvfile.Source, offset, size int, mode jobs.Mode, total int) (*batch.StepResult, error) {
	counters := batch.Counters{}
	var log batch.Log

	for i, row := range source.Slice(offset, size) {
		rowNum := batch.RowNumber(offset, i)

		title := row.Get(ColumnTitle)
		if title == "" {
			log.Skipf("Row %d: Skipped — no title.", rowNum)
			counters.Add(CounterErrors, 1)
			continue
		}

		formatRaw := row.Get(ColumnFormat)
		resourceType, ok := mapResourceType(formatRaw)
		if !ok {
			log.Skipf("Row %d: Skipped — Format %q has no matching resource type — %q", rowNum, formatRaw, title)
			counters.Add(CounterSkippedFormat, 1)
			continue
		}

		data := imp.buildRowData(row, resourceType)

		existing, err := imp.store.FindRecordByExternalID(ctx, data.externalID)
		if err != nil {
			return nil, err
		}

		authorLabel := describeAuthors(data)
		if existing != nil {
			if mode == jobs.ModeApply {
				if err := imp.applyRow(ctx, existing.ID, data); err != nil {
					log.Errorf("Row %d: Update failed for %q — %v", rowNum, title, err)
					counters.Add(CounterErrors, 1)
					continue
				}
				log.Okf("Row %d: Updated record #%d — %q (%s)", rowNum, existing.ID, title, authorLabel)
			} else {
				log.Okf("Row %d: Would update record #%d — %q (Author: %s)", rowNum, existing.ID, title, authorLabel)
			}
			counters.Add(CounterUpdated, 1)
		} else {
			if mode == jobs.ModeApply {
				record, err := imp.store.CreateRecord(ctx, data.externalID, data.title)
				if err != nil {
					log.Errorf("Row %d: Create failed for %q — %v", rowNum, title, err)
					counters.Add(CounterErrors, 1)
					continue
				}
				if err := imp.applyRow(ctx, record.ID, data); err != nil {
					log.Errorf("Row %d: Create failed for %q — %v", rowNum, title, err)
					counters.Add(CounterErrors, 1)
					continue
				}
				log.Okf("Row %d: Created record #%d — %q (%s)", rowNum, record.ID, title, authorLabel)
			} else {
				log.Okf("Row %d: Would import — %q (Format: %s, Author: %s)", rowNum, title, formatRaw, authorLabel)
			}
			counters.Add(CounterImported, 1)
		}

		if data.authorType == content.AuthorTypeConsultant {
			counters.Add(CounterAuthorConsultant, 1)
		} else {
			counters.Add(CounterAuthorIndividual, 1)
		}
	}

	nextOffset := offset + size
	result := &batch.StepResult{
		Counters:   counters,
		Log:        log.Entries(),
		NextOffset: nextOffset,
		Done:       nextOffset >= total,
	}
	imp.logger.Debug("import step complete",
		logging.Int(logging.FieldOffset, offset),
		logging.Int("imported", counters[CounterImported]),
		logging.Int("updated", counters[CounterUpdated]),
	)
	return result, nil
}

// buildRowData maps a CSV row onto record fields, classifying authorship.
//
// Consultant ID, Author Name, and Author Email cells are pipe-delimited and
// positionally aligned. Four shapes occur: no ids at all (pure
// individual/organization), a single id (pure consultant), a single id with
// trailing empty pipe slots (consultant plus free-text co-authors), and
// multiple ids (all consultants).
func (imp *Importer) buildRowData(row csvfile.Row, resourceType string) rowData {
	data := rowData{
		title:         row.Get(ColumnTitle),
		externalID:    row.Get(ColumnResourceID),
		description:   row.Get(ColumnDescription),
		resourceType:  resourceType,
		trainingLevel: mapTrainingLevel(row.Get(ColumnTrainingLevel)),
		dateAdded:     convertDate(row.Get(ColumnDateAdded)),
		addedByName:   row.Get(ColumnAddedByName),
		addedByEmail:  row.Get(ColumnAddedByEmail),
		externalLink:  row.Get(ColumnExternalLink),
		authorType:    content.AuthorTypeOrganization,
	}

	idParts := splitPipes(row.Get(ColumnConsultantID))
	nameParts := splitPipes(row.Get(ColumnAuthorName))
	emailParts := splitPipes(row.Get(ColumnAuthorEmail))
	realIDs := nonEmpty(idParts)

	switch {
	case len(realIDs) == 0:
		data.orgNames = row.Get(ColumnAuthorName)
		data.orgEmails = row.Get(ColumnAuthorEmail)

	case len(realIDs) == 1 && len(idParts) == 1:
		data.authorType = content.AuthorTypeConsultant
		data.consultantIDs = parseIDs(realIDs)

	case len(realIDs) == 1 && len(idParts) > 1:
		// First name/email slot belongs to the consultant; the rest are
		// free-text co-authors.
		data.authorType = content.AuthorTypeConsultant
		data.consultantIDs = parseIDs(realIDs)
		if len(nameParts) > 1 {
			data.orgNames = strings.Join(nonEmpty(nameParts[1:]), ", ")
		}
		if len(emailParts) > 1 {
			data.orgEmails = strings.Join(nonEmpty(emailParts[1:]), ", ")
		}

	default:
		data.authorType = content.AuthorTypeConsultant
		data.consultantIDs = parseIDs(realIDs)
	}

	return data
}

func parseIDs(raw []string) []int64 {
	var out []int64
	for _, value := range raw {
		if id, err := strconv.ParseInt(value, 10, 64); err == nil && id > 0 {
			out = append(out, id)
		}
	}
	return out
}

func describeAuthors(data rowData) string {
	switch {
	case data.authorType == content.AuthorTypeConsultant && len(data.consultantIDs) == 1 && data.orgNames != "":
		return fmt.Sprintf("%d consultant(s) + non-consultant co-author(s)", len(data.consultantIDs))
	case data.authorType == content.AuthorTypeConsultant && len(data.consultantIDs) > 1:
		return fmt.Sprintf("%d consultants", len(data.consultantIDs))
	case data.authorType == content.AuthorTypeConsultant:
		return "consultant"
	default:
		return "individual/org"
	}
}

// applyRow writes every mapped field of one row to the record.
func (imp *Importer) applyRow(ctx context.Context, recordID int64, data rowData) error {
	if err := imp.store.UpdateRecordTitle(ctx, recordID, data.title); err != nil {
		return err
	}
	if err := imp.store.SetStatus(ctx, recordID, content.StatusWaiting); err != nil {
		return err
	}

	fields := map[string]string{
		content.FieldDescription:  data.description,
		content.FieldAuthorType:   data.authorType,
		content.FieldAddedByName:  data.addedByName,
		content.FieldAddedByEmail: data.addedByEmail,
	}
	if data.resourceType != "" {
		fields[content.FieldResourceType] = data.resourceType
	}
	if data.trainingLevel != "" {
		fields[content.FieldTrainingLevel] = data.trainingLevel
	}
	if data.dateAdded != "" {
		fields[content.FieldDateAdded] = data.dateAdded
	}
	for name, value := range fields {
		if err := imp.store.SetField(ctx, recordID, name, value); err != nil {
			return err
		}
	}

	if data.authorType == content.AuthorTypeConsultant {
		validIDs, err := imp.validConsultants(ctx, data.consultantIDs)
		if err != nil {
			return err
		}
		if len(validIDs) > 0 {
			if err := imp.store.SetAuthors(ctx, recordID, validIDs); err != nil {
				return err
			}
		}
		if data.orgNames != "" {
			if err := imp.store.SetField(ctx, recordID, content.FieldOrganizationName, data.orgNames); err != nil {
				return err
			}
		}
		if data.orgEmails != "" {
			if err := imp.store.SetField(ctx, recordID, content.FieldOrganizationEmail, data.orgEmails); err != nil {
				return err
			}
		}
	} else {
		if data.orgNames != "" {
			if err := imp.store.SetField(ctx, recordID, content.FieldOrganizationName, data.orgNames); err != nil {
				return err
			}
		}
		if data.orgEmails != "" {
			if err := imp.store.SetField(ctx, recordID, content.FieldOrganizationEmail, data.orgEmails); err != nil {
				return err
			}
		}
		if err := imp.store.SetAuthors(ctx, recordID, nil); err != nil {
			return err
		}
	}

	if data.externalLink != "" {
		link := content.Link{Label: ExternalLinkLabel, URL: data.externalLink}
		if err := imp.store.ReplaceLinks(ctx, recordID, []content.Link{link}); err != nil {
			return err
		}
	}
	return nil
}

// validConsultants keeps only ids present in the consultant directory.
func (imp *Importer) validConsultants(ctx context.Context, ids []int64) ([]int64, error) {
	var out []int64
	for _, id := range ids {
		exists, err := imp.store.ConsultantExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if exists {
			out = append(out, id)
		}
	}
	return out, nil
}
