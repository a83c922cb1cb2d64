package indigo

import (
	"github.com/google/uuid"

	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
)

// CreateWorkRequest contains parameters for creating a work. The FRBR URI
// is parsed and its parts denormalized onto the work.
type CreateWorkRequest struct {
	FrbrURI           string
	Title             string
	Stub              bool
	ParentWorkID      *uuid.UUID
	PublicationName   string
	PublicationNumber string
	PublicationDate   frbr.Date
	AssentDate        frbr.Date
	CommencementDate  frbr.Date
	RepealingWorkID   *uuid.UUID
	RepealDate        frbr.Date
}

// UpdateWorkRequest contains parameters for updating a work's metadata.
// Nil pointers leave the current value unchanged. Setting RepealingWorkID
// to uuid.Nil clears the repeal.
type UpdateWorkRequest struct {
	WorkID            uuid.UUID
	Title             *string
	Stub              *bool
	ParentWorkID      *uuid.UUID
	PublicationName   *string
	PublicationNumber *string
	PublicationDate   *frbr.Date
	AssentDate        *frbr.Date
	CommencementDate  *frbr.Date
	RepealingWorkID   *uuid.UUID
	RepealDate        *frbr.Date
}

// CreateDocumentRequest contains parameters for creating an expression of
// a work.
type CreateDocumentRequest struct {
	WorkID         uuid.UUID
	Title          string
	Language       string
	ExpressionDate frbr.Date
	Draft          bool
	XML            string
}

// UpdateDocumentRequest contains parameters for updating an expression.
// Nil pointers leave the current value unchanged.
type UpdateDocumentRequest struct {
	DocumentID     uuid.UUID
	Title          *string
	Language       *string
	ExpressionDate *frbr.Date
	Draft          *bool
	XML            *string
}

// CreateAmendmentRequest records that one work amends another at a date.
type CreateAmendmentRequest struct {
	AmendingWorkID uuid.UUID
	AmendedWorkID  uuid.UUID
	Date           frbr.Date
}

// CreatePointInTimeRequest asks for a new expression of a work at a date,
// carrying the body forward from the latest expression at or before that
// date in the same language.
type CreatePointInTimeRequest struct {
	WorkID   uuid.UUID
	Date     frbr.Date
	Language string
	Draft    bool
}

// CreateTaskRequest contains parameters for creating an editorial task.
type CreateTaskRequest struct {
	Title       string
	Description string
	Country     string
	Locality    string
	WorkID      *uuid.UUID
	DocumentID  *uuid.UUID
	Assignee    string
	CreatedBy   string
}

// UpdateTaskRequest contains parameters for updating a task's details.
// State changes go through TransitionTask instead.
type UpdateTaskRequest struct {
	TaskID      uuid.UUID
	Title       *string
	Description *string
	Assignee    *string
}

// AddAttachmentRequest contains parameters for attaching a media file to a
// document.
type AddAttachmentRequest struct {
	DocumentID uuid.UUID
	Filename   string
	MimeType   string
	Size       int64
}

// SetPublicationDocumentRequest sets or replaces the publication document
// for a work. When TrustedURL is set no content is uploaded.
type SetPublicationDocumentRequest struct {
	WorkID     uuid.UUID
	Filename   string
	TrustedURL string
	MimeType   string
	Size       int64
}

// SearchRequest is a published-work search within a country.
type SearchRequest struct {
	Country string
	Query   string
	Limit   int
	Offset  int
}
