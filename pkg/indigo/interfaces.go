package indigo

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence interface for all domain entities.
type Repository interface {
	// Place operations
	CreateCountry(ctx context.Context, country *Country) error
	GetCountry(ctx context.Context, code string) (*Country, error)
	ListCountries(ctx context.Context) ([]*Country, error)
	GetPlaceSettings(ctx context.Context, country, locality string) (*PlaceSettings, error)
	SetPlaceSettings(ctx context.Context, settings *PlaceSettings) error

	// Work operations
	CreateWork(ctx context.Context, work *Work) error
	GetWork(ctx context.Context, id uuid.UUID) (*Work, error)
	GetWorkByURI(ctx context.Context, frbrURI string) (*Work, error)
	UpdateWork(ctx context.Context, work *Work) error
	DeleteWork(ctx context.Context, id uuid.UUID) error
	ListWorks(ctx context.Context, country, locality string) ([]*Work, error)
	ListWorksByURIPrefix(ctx context.Context, prefix string) ([]*Work, error)

	// Document (expression) operations
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	UpdateDocument(ctx context.Context, doc *Document) error
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	ListDocumentsForWork(ctx context.Context, workID uuid.UUID) ([]*Document, error)
	// ListPublishedExpressions returns the published expressions of a work
	// in one language, ordered by expression date ascending.
	ListPublishedExpressions(ctx context.Context, workID uuid.UUID, language string) ([]*Document, error)
	// LatestExpressions returns the latest published expression of each
	// work whose FRBR URI starts with prefix, in the given language.
	LatestExpressions(ctx context.Context, uriPrefix, language string) ([]*Document, error)

	// Amendment operations
	CreateAmendment(ctx context.Context, amendment *Amendment) error
	GetAmendment(ctx context.Context, id uuid.UUID) (*Amendment, error)
	UpdateAmendment(ctx context.Context, amendment *Amendment) error
	DeleteAmendment(ctx context.Context, id uuid.UUID) error
	ListAmendmentsForWork(ctx context.Context, amendedWorkID uuid.UUID) ([]*Amendment, error)

	// Task operations
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, id uuid.UUID) (*Task, error)
	UpdateTask(ctx context.Context, task *Task) error
	ListTasks(ctx context.Context, filters TaskFilters) ([]*Task, error)

	// Attachment operations
	CreateAttachment(ctx context.Context, attachment *Attachment) error
	GetAttachment(ctx context.Context, id uuid.UUID) (*Attachment, error)
	GetAttachmentByFilename(ctx context.Context, documentID uuid.UUID, filename string) (*Attachment, error)
	ListAttachmentsForDocument(ctx context.Context, documentID uuid.UUID) ([]*Attachment, error)
	DeleteAttachment(ctx context.Context, id uuid.UUID) error

	// Publication document operations
	SetPublicationDocument(ctx context.Context, pubdoc *PublicationDocument) error
	GetPublicationDocument(ctx context.Context, workID uuid.UUID) (*PublicationDocument, error)
}

// TaskFilters narrows task listings.
type TaskFilters struct {
	Country  string
	Locality string
	State    TaskState
	Assignee string
	WorkID   *uuid.UUID
}

// BlobStore is the interface for media storage backends.
type BlobStore interface {
	// Upload stores content under the given key.
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// Download streams the content stored under the given key.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the content stored under the given key.
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for a stored object.
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// GetDownloadURL returns a URL for downloading the object, where the
	// backend supports it.
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)
}

// ObjectMeta contains metadata about an object in storage.
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// EventSink receives domain events.
type EventSink interface {
	WorkCreated(ctx context.Context, work *Work) error
	WorkUpdated(ctx context.Context, work *Work) error
	WorkDeleted(ctx context.Context, workID uuid.UUID) error
	DocumentCreated(ctx context.Context, doc *Document) error
	DocumentUpdated(ctx context.Context, doc *Document) error
	DocumentDeleted(ctx context.Context, documentID uuid.UUID) error
	TaskChanged(ctx context.Context, task *Task) error
}
