package content

import "time"

// Record statuses used by the migration tools.
const (
	StatusDraft   = "draft"
	StatusWaiting = "waiting"
	StatusActive  = "active"
)

// Field names written by the importer and assigner.
const (
	FieldResourceType      = "resource_type"
	FieldTrainingLevel     = "training_level"
	FieldDateAdded         = "date_added"
	FieldDescription       = "description"
	FieldAuthorType        = "author_type"
	FieldOrganizationName  = "individual_organization_name"
	FieldOrganizationEmail = "individual_organization_email"
	FieldAddedByName       = "added_by_name"
	FieldAddedByEmail      = "added_by_email"
)

// Author type values stored under FieldAuthorType.
const (
	AuthorTypeConsultant   = "consultant"
	AuthorTypeOrganization = "individual_organization"
)

// Consultant is one directory entry records can link to.
type Consultant struct {
	ID    int64
	Name  string
	Email string
}

// Record is one content record keyed by the external id carried in
// migration CSVs.
type Record struct {
	ID         int64
	ExternalID string
	Title      string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Link is one entry of a record's link list. AttachmentID 0 means no stored
// file; URL may be empty for attachment-only entries.
type Link struct {
	ID           int64
	RecordID     int64
	Label        string
	URL          string
	AttachmentID int64
}

// HasTarget reports whether the link points at anything at all. Entries
// without a target are garbage the cleanup pass removes.
func (l Link) HasTarget() bool {
	return l.URL != "" || l.AttachmentID != 0
}

// Attachment is a stored file.
type Attachment struct {
	ID        int64
	Filename  string
	Path      string
	CreatedAt time.Time
}
