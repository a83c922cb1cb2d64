package indigo

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/ArchitectOnNet/indigo/pkg/indigo/akn"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
)

// Service is the main interface for the legislation library.
type Service interface {
	// Place operations
	ListCountries(ctx context.Context) ([]*Country, error)
	GetCountry(ctx context.Context, code string) (*Country, error)
	CreateCountry(ctx context.Context, country *Country) error
	GetPlaceSettings(ctx context.Context, country, locality string) (*PlaceSettings, error)
	UpdatePlaceSettings(ctx context.Context, settings *PlaceSettings) error
	PlaceMetrics(ctx context.Context, country, locality string) (*PlaceMetrics, error)

	// Work operations
	CreateWork(ctx context.Context, req CreateWorkRequest) (*Work, error)
	GetWork(ctx context.Context, id uuid.UUID) (*Work, error)
	GetWorkByURI(ctx context.Context, frbrURI string) (*Work, error)
	UpdateWork(ctx context.Context, req UpdateWorkRequest) (*Work, error)
	DeleteWork(ctx context.Context, id uuid.UUID) error
	ListWorks(ctx context.Context, country, locality string) ([]*Work, error)

	// Amendment operations
	CreateAmendment(ctx context.Context, req CreateAmendmentRequest) (*Amendment, error)
	DeleteAmendment(ctx context.Context, id uuid.UUID) error
	ListAmendments(ctx context.Context, amendedWorkID uuid.UUID) ([]*Amendment, error)

	// Document (expression) operations
	CreateDocument(ctx context.Context, req CreateDocumentRequest) (*Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	UpdateDocument(ctx context.Context, req UpdateDocumentRequest) (*Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	ListDocumentsForWork(ctx context.Context, workID uuid.UUID) ([]*Document, error)
	CreatePointInTime(ctx context.Context, req CreatePointInTimeRequest) (*Document, error)

	// FRBR resolution
	ResolveURI(ctx context.Context, uri *frbr.URI) (*ResolvedDocument, error)
	LatestExpressions(ctx context.Context, uriPrefix, language string) ([]*Document, error)
	SearchWorks(ctx context.Context, req SearchRequest) ([]*Document, error)

	// Derived views
	TableOfContents(ctx context.Context, documentID uuid.UUID) ([]*akn.TOCElement, error)
	PointsInTime(ctx context.Context, workID uuid.UUID) ([]*PointInTime, error)
	WorkTimeline(ctx context.Context, workID uuid.UUID) ([]*WorkEvent, error)
	RepealInfo(ctx context.Context, work *Work) (*RepealInfo, error)

	// Task operations
	CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (*Task, error)
	UpdateTask(ctx context.Context, req UpdateTaskRequest) (*Task, error)
	TransitionTask(ctx context.Context, id uuid.UUID, action TaskAction) (*Task, error)
	ListTasks(ctx context.Context, filters TaskFilters) ([]*Task, error)

	// Attachment operations
	AddAttachment(ctx context.Context, req AddAttachmentRequest, reader io.Reader) (*Attachment, error)
	ListAttachments(ctx context.Context, documentID uuid.UUID) ([]*Attachment, error)
	DownloadAttachment(ctx context.Context, documentID uuid.UUID, filename string) (*Attachment, io.ReadCloser, error)
	DeleteAttachment(ctx context.Context, id uuid.UUID) error

	// Publication document operations
	SetPublicationDocument(ctx context.Context, req SetPublicationDocumentRequest, reader io.Reader) (*PublicationDocument, error)
	GetPublicationDocument(ctx context.Context, workID uuid.UUID) (*PublicationDocument, error)
	DownloadPublicationDocument(ctx context.Context, workID uuid.UUID) (*PublicationDocument, io.ReadCloser, error)
}

// ResolvedDocument is the outcome of FRBR URI resolution: the work, the
// best-matching expression, and the URI (with defaults applied) that
// selected it.
type ResolvedDocument struct {
	URI      *frbr.URI
	Work     *Work
	Document *Document
}
