package indigo

import (
	"time"

	"github.com/google/uuid"

	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
)

// Country is a jurisdiction whose legislation the service manages.
type Country struct {
	Code            string     `json:"code"`
	Name            string     `json:"name"`
	PrimaryLanguage string     `json:"primary_language"`
	Localities      []Locality `json:"localities,omitempty"`
}

// Locality is a sub-national jurisdiction within a country, such as a
// municipality or province.
type Locality struct {
	CountryCode string `json:"country_code"`
	Code        string `json:"code"`
	Name        string `json:"name"`
}

// Work is a piece of legislation at the FRBR work level: the abstract act,
// identified by its work URI, independent of language or point in time.
type Work struct {
	ID      uuid.UUID `json:"id"`
	FrbrURI string    `json:"frbr_uri"`

	// Denormalized from the URI for filtering.
	Country  string `json:"country"`
	Locality string `json:"locality,omitempty"`
	Doctype  string `json:"nature"`
	Subtype  string `json:"subtype,omitempty"`
	Year     string `json:"year"`
	Number   string `json:"number"`

	Title string `json:"title"`
	// Stub works exist only as metadata, with no expressions yet.
	Stub bool `json:"stub"`

	ParentWorkID *uuid.UUID `json:"parent_work_id,omitempty"`

	PublicationName   string    `json:"publication_name,omitempty"`
	PublicationNumber string    `json:"publication_number,omitempty"`
	PublicationDate   frbr.Date `json:"publication_date,omitempty"`
	AssentDate        frbr.Date `json:"assent_date,omitempty"`
	CommencementDate  frbr.Date `json:"commencement_date,omitempty"`

	// Set when another work repeals this one.
	RepealingWorkID *uuid.UUID `json:"repealing_work_id,omitempty"`
	RepealDate      frbr.Date  `json:"repeal_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Place returns the work's place code, "country" or "country-locality".
func (w *Work) Place() string {
	if w.Locality != "" {
		return w.Country + "-" + w.Locality
	}
	return w.Country
}

// NumberedTitle is a short descriptive title derived from the work's type
// and number, e.g. "Act 10 of 2014".
func (w *Work) NumberedTitle() string {
	name := "Act"
	if w.Subtype != "" {
		name = titleCase(w.Subtype)
	}
	return name + " " + w.Number + " of " + w.Year
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	out := []rune(s)
	if out[0] >= 'a' && out[0] <= 'z' {
		out[0] -= 'a' - 'A'
	}
	return string(out)
}

// Document is an expression of a work: its content in one language at one
// point in time, holding the Akoma Ntoso XML body.
type Document struct {
	ID     uuid.UUID `json:"id"`
	WorkID uuid.UUID `json:"work_id"`
	// FrbrURI is the work URI; the expression URI is derived from it plus
	// the language and expression date.
	FrbrURI        string    `json:"frbr_uri"`
	Title          string    `json:"title"`
	Language       string    `json:"language"`
	ExpressionDate frbr.Date `json:"expression_date"`
	Draft          bool      `json:"draft"`
	XML            string    `json:"-"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ExpressionURI is the FRBR URI of this expression, e.g.
// /za/act/2014/10/eng@2014-02-12.
func (d *Document) ExpressionURI() string {
	return d.FrbrURI + "/" + d.Language + "@" + d.ExpressionDate.String()
}

// Published reports whether the document is visible on the public API.
func (d *Document) Published() bool {
	return !d.Draft && d.DeletedAt == nil
}

// Amendment records that one work amends another at a date, producing a new
// point in time for the amended work.
type Amendment struct {
	ID             uuid.UUID `json:"id"`
	AmendingWorkID uuid.UUID `json:"amending_work_id"`
	AmendedWorkID  uuid.UUID `json:"amended_work_id"`
	Date           frbr.Date `json:"date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TaskState is the lifecycle state of an editorial task.
type TaskState string

const (
	TaskStateOpen          TaskState = "open"
	TaskStatePendingReview TaskState = "pending_review"
	TaskStateDone          TaskState = "done"
	TaskStateCancelled     TaskState = "cancelled"
	TaskStateBlocked       TaskState = "blocked"
)

// IsValid reports whether s is a known task state.
func (s TaskState) IsValid() bool {
	switch s {
	case TaskStateOpen, TaskStatePendingReview, TaskStateDone, TaskStateCancelled, TaskStateBlocked:
		return true
	}
	return false
}

// Closed reports whether the state is terminal.
func (s TaskState) Closed() bool {
	return s == TaskStateDone || s == TaskStateCancelled
}

// TaskAction is a transition applied to a task.
type TaskAction string

const (
	TaskActionSubmit   TaskAction = "submit"
	TaskActionUnsubmit TaskAction = "unsubmit"
	TaskActionClose    TaskAction = "close"
	TaskActionReopen   TaskAction = "reopen"
	TaskActionCancel   TaskAction = "cancel"
	TaskActionBlock    TaskAction = "block"
	TaskActionUnblock  TaskAction = "unblock"
)

// Task is a unit of editorial work, optionally linked to a work or a
// specific expression.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Country     string     `json:"country"`
	Locality    string     `json:"locality,omitempty"`
	WorkID      *uuid.UUID `json:"work_id,omitempty"`
	DocumentID  *uuid.UUID `json:"document_id,omitempty"`
	State       TaskState  `json:"state"`
	Assignee    string     `json:"assignee,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// PlaceSettings holds per-place editorial configuration.
type PlaceSettings struct {
	Country        string    `json:"country"`
	Locality       string    `json:"locality,omitempty"`
	SpreadsheetURL string    `json:"spreadsheet_url,omitempty"`
	StyleguideURL  string    `json:"styleguide_url,omitempty"`
	AsAtDate       frbr.Date `json:"as_at_date,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Attachment is a media file attached to a document, stored in a blob
// store under ObjectKey.
type Attachment struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	ObjectKey  string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PublicationDocument is the original published source for a work, usually
// a gazette PDF. It is either stored in a blob store or referenced by a
// trusted external URL.
type PublicationDocument struct {
	WorkID     uuid.UUID `json:"work_id"`
	Filename   string    `json:"filename"`
	TrustedURL string    `json:"trusted_url,omitempty"`
	ObjectKey  string    `json:"-"`
	MimeType   string    `json:"mime_type,omitempty"`
	Size       int64     `json:"size,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ExpressionSummary describes one expression in a points-in-time listing.
type ExpressionSummary struct {
	URL               string    `json:"url,omitempty"`
	ExpressionFrbrURI string    `json:"expression_frbr_uri"`
	Language          string    `json:"language"`
	Title             string    `json:"title"`
	ExpressionDate    frbr.Date `json:"expression_date"`
}

// PointInTime groups the expressions available at one date.
type PointInTime struct {
	Date        frbr.Date            `json:"date"`
	Expressions []*ExpressionSummary `json:"expressions"`
}

// RepealInfo describes the repeal of a work.
type RepealInfo struct {
	Date           frbr.Date `json:"date"`
	RepealingURI   string    `json:"repealing_uri"`
	RepealingTitle string    `json:"repealing_title"`
}

// WorkEvent is one entry in a work's timeline.
type WorkEvent struct {
	Date frbr.Date `json:"date"`
	// Type is one of assent, publication, commencement, amendment, repeal.
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	// RelatedURI is the FRBR URI of the other work involved, for
	// amendment and repeal events.
	RelatedURI string `json:"related_uri,omitempty"`
}

// PlaceMetrics aggregates collection-completeness statistics for a place.
type PlaceMetrics struct {
	Place            string           `json:"place"`
	Works            int              `json:"works"`
	Stubs            int              `json:"stubs"`
	Expressions      int              `json:"expressions"`
	Amendments       int              `json:"amendments"`
	WorksByYear      map[string]int   `json:"works_by_year"`
	WorksBySubtype   map[string]int   `json:"works_by_subtype"`
	TasksByState     map[string]int   `json:"tasks_by_state"`
	PointsInTime     PointInTimeStats `json:"points_in_time"`
}

// PointInTimeStats reports how complete the amended works' expression
// coverage is: an amendment is "covered" when a published expression exists
// at the amendment date.
type PointInTimeStats struct {
	AmendedWorks    int     `json:"amended_works"`
	UpToDateWorks   int     `json:"up_to_date_works"`
	CompletenessPct float64 `json:"completeness_pct"`
}
