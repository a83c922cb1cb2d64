package indigo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ArchitectOnNet/indigo/pkg/indigo/akn"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
)

// service implements the Service interface.
type service struct {
	repository Repository
	blobStores map[string]BlobStore
	// mediaBackend names the blob store used for attachments and
	// publication documents.
	mediaBackend string
	eventSink    EventSink
}

// Option represents a functional option for configuring the service.
type Option func(*service)

// WithRepository sets the repository for the service.
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore adds a named blob storage backend.
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		if s.blobStores == nil {
			s.blobStores = make(map[string]BlobStore)
		}
		s.blobStores[name] = store
		if s.mediaBackend == "" {
			s.mediaBackend = name
		}
	}
}

// WithMediaBackend selects which registered blob store holds media.
func WithMediaBackend(name string) Option {
	return func(s *service) {
		s.mediaBackend = name
	}
}

// WithEventSink sets the event sink for the service.
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// New creates a new service instance with the given options.
func New(options ...Option) (Service, error) {
	s := &service{
		blobStores: make(map[string]BlobStore),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

func (s *service) mediaStore() (BlobStore, error) {
	store, ok := s.blobStores[s.mediaBackend]
	if !ok {
		return nil, ErrStorageBackendNotFound
	}
	return store, nil
}

// Place operations

func (s *service) ListCountries(ctx context.Context) ([]*Country, error) {
	return s.repository.ListCountries(ctx)
}

func (s *service) GetCountry(ctx context.Context, code string) (*Country, error) {
	return s.repository.GetCountry(ctx, strings.ToLower(code))
}

func (s *service) CreateCountry(ctx context.Context, country *Country) error {
	country.Code = strings.ToLower(country.Code)
	return s.repository.CreateCountry(ctx, country)
}

func (s *service) GetPlaceSettings(ctx context.Context, country, locality string) (*PlaceSettings, error) {
	return s.repository.GetPlaceSettings(ctx, country, locality)
}

func (s *service) UpdatePlaceSettings(ctx context.Context, settings *PlaceSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	return s.repository.SetPlaceSettings(ctx, settings)
}

// Work operations

func (s *service) CreateWork(ctx context.Context, req CreateWorkRequest) (*Work, error) {
	uri, err := frbr.Parse(req.FrbrURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrbrURI, err)
	}
	if !uri.IsWorkURI() {
		return nil, fmt.Errorf("%w: %q is not a work URI", ErrInvalidFrbrURI, req.FrbrURI)
	}

	if _, err := s.repository.GetCountry(ctx, uri.Country); err != nil {
		return nil, err
	}

	if req.RepealingWorkID != nil {
		if _, err := s.repository.GetWork(ctx, *req.RepealingWorkID); err != nil {
			return nil, fmt.Errorf("repealing work: %w", err)
		}
	}

	now := time.Now().UTC()
	work := &Work{
		ID:                uuid.New(),
		FrbrURI:           uri.WorkURI(),
		Country:           uri.Country,
		Locality:          uri.Locality,
		Doctype:           uri.Doctype,
		Subtype:           uri.Subtype,
		Year:              uri.Date[:4],
		Number:            uri.Number,
		Title:             req.Title,
		Stub:              req.Stub,
		ParentWorkID:      req.ParentWorkID,
		PublicationName:   req.PublicationName,
		PublicationNumber: req.PublicationNumber,
		PublicationDate:   req.PublicationDate,
		AssentDate:        req.AssentDate,
		CommencementDate:  req.CommencementDate,
		RepealingWorkID:   req.RepealingWorkID,
		RepealDate:        req.RepealDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repository.CreateWork(ctx, work); err != nil {
		return nil, &WorkError{WorkID: work.ID, Op: "create", Err: err}
	}

	s.fireEvent(ctx, func(sink EventSink) error { return sink.WorkCreated(ctx, work) })
	return work, nil
}

func (s *service) GetWork(ctx context.Context, id uuid.UUID) (*Work, error) {
	return s.repository.GetWork(ctx, id)
}

func (s *service) GetWorkByURI(ctx context.Context, frbrURI string) (*Work, error) {
	return s.repository.GetWorkByURI(ctx, strings.ToLower(frbrURI))
}

func (s *service) UpdateWork(ctx context.Context, req UpdateWorkRequest) (*Work, error) {
	work, err := s.repository.GetWork(ctx, req.WorkID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		work.Title = *req.Title
	}
	if req.Stub != nil {
		work.Stub = *req.Stub
	}
	if req.ParentWorkID != nil {
		work.ParentWorkID = req.ParentWorkID
	}
	if req.PublicationName != nil {
		work.PublicationName = *req.PublicationName
	}
	if req.PublicationNumber != nil {
		work.PublicationNumber = *req.PublicationNumber
	}
	if req.PublicationDate != nil {
		work.PublicationDate = *req.PublicationDate
	}
	if req.AssentDate != nil {
		work.AssentDate = *req.AssentDate
	}
	if req.CommencementDate != nil {
		work.CommencementDate = *req.CommencementDate
	}
	if req.RepealingWorkID != nil {
		if *req.RepealingWorkID == uuid.Nil {
			work.RepealingWorkID = nil
			work.RepealDate = frbr.Date{}
		} else {
			if _, err := s.repository.GetWork(ctx, *req.RepealingWorkID); err != nil {
				return nil, fmt.Errorf("repealing work: %w", err)
			}
			work.RepealingWorkID = req.RepealingWorkID
		}
	}
	if req.RepealDate != nil {
		work.RepealDate = *req.RepealDate
	}
	work.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateWork(ctx, work); err != nil {
		return nil, &WorkError{WorkID: work.ID, Op: "update", Err: err}
	}

	s.fireEvent(ctx, func(sink EventSink) error { return sink.WorkUpdated(ctx, work) })
	return work, nil
}

func (s *service) DeleteWork(ctx context.Context, id uuid.UUID) error {
	docs, err := s.repository.ListDocumentsForWork(ctx, id)
	if err != nil {
		return err
	}
	amendments, err := s.repository.ListAmendmentsForWork(ctx, id)
	if err != nil {
		return err
	}
	if len(docs) > 0 || len(amendments) > 0 {
		return ErrWorkInUse
	}

	if err := s.repository.DeleteWork(ctx, id); err != nil {
		return &WorkError{WorkID: id, Op: "delete", Err: err}
	}

	s.fireEvent(ctx, func(sink EventSink) error { return sink.WorkDeleted(ctx, id) })
	return nil
}

func (s *service) ListWorks(ctx context.Context, country, locality string) ([]*Work, error) {
	return s.repository.ListWorks(ctx, country, locality)
}

// Amendment operations

func (s *service) CreateAmendment(ctx context.Context, req CreateAmendmentRequest) (*Amendment, error) {
	if _, err := s.repository.GetWork(ctx, req.AmendingWorkID); err != nil {
		return nil, fmt.Errorf("amending work: %w", err)
	}
	if _, err := s.repository.GetWork(ctx, req.AmendedWorkID); err != nil {
		return nil, fmt.Errorf("amended work: %w", err)
	}

	now := time.Now().UTC()
	amendment := &Amendment{
		ID:             uuid.New(),
		AmendingWorkID: req.AmendingWorkID,
		AmendedWorkID:  req.AmendedWorkID,
		Date:           req.Date,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repository.CreateAmendment(ctx, amendment); err != nil {
		return nil, err
	}
	return amendment, nil
}

func (s *service) DeleteAmendment(ctx context.Context, id uuid.UUID) error {
	return s.repository.DeleteAmendment(ctx, id)
}

func (s *service) ListAmendments(ctx context.Context, amendedWorkID uuid.UUID) ([]*Amendment, error) {
	return s.repository.ListAmendmentsForWork(ctx, amendedWorkID)
}

// Document operations

func (s *service) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*Document, error) {
	work, err := s.repository.GetWork(ctx, req.WorkID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repository.ListDocumentsForWork(ctx, req.WorkID)
	if err != nil {
		return nil, err
	}
	for _, doc := range existing {
		if doc.Language == req.Language && doc.ExpressionDate.Equal(req.ExpressionDate) {
			return nil, ErrDuplicateExpression
		}
	}

	title := req.Title
	if title == "" {
		title = work.Title
	}

	now := time.Now().UTC()
	doc := &Document{
		ID:             uuid.New(),
		WorkID:         work.ID,
		FrbrURI:        work.FrbrURI,
		Title:          title,
		Language:       req.Language,
		ExpressionDate: req.ExpressionDate,
		Draft:          req.Draft,
		XML:            req.XML,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repository.CreateDocument(ctx, doc); err != nil {
		return nil, &DocumentError{DocumentID: doc.ID, Op: "create", Err: err}
	}

	// A work with an expression is no longer a stub.
	if work.Stub {
		work.Stub = false
		work.UpdatedAt = now
		if err := s.repository.UpdateWork(ctx, work); err != nil {
			return nil, &WorkError{WorkID: work.ID, Op: "update", Err: err}
		}
	}

	s.fireEvent(ctx, func(sink EventSink) error { return sink.DocumentCreated(ctx, doc) })
	return doc, nil
}

func (s *service) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.repository.GetDocument(ctx, id)
}

func (s *service) UpdateDocument(ctx context.Context, req UpdateDocumentRequest) (*Document, error) {
	doc, err := s.repository.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Language != nil {
		doc.Language = *req.Language
	}
	if req.ExpressionDate != nil {
		doc.ExpressionDate = *req.ExpressionDate
	}
	if req.Draft != nil {
		doc.Draft = *req.Draft
	}
	if req.XML != nil {
		doc.XML = *req.XML
	}
	doc.UpdatedAt = time.Now().UTC()

	// Moving an expression must not land on another live expression of the
	// same work, language and date.
	if req.Language != nil || req.ExpressionDate != nil {
		siblings, err := s.repository.ListDocumentsForWork(ctx, doc.WorkID)
		if err != nil {
			return nil, err
		}
		for _, other := range siblings {
			if other.ID != doc.ID && other.Language == doc.Language && other.ExpressionDate.Equal(doc.ExpressionDate) {
				return nil, ErrDuplicateExpression
			}
		}
	}

	if err := s.repository.UpdateDocument(ctx, doc); err != nil {
		return nil, &DocumentError{DocumentID: doc.ID, Op: "update", Err: err}
	}

	s.fireEvent(ctx, func(sink EventSink) error { return sink.DocumentUpdated(ctx, doc) })
	return doc, nil
}

func (s *service) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	if err := s.repository.DeleteDocument(ctx, id); err != nil {
		return &DocumentError{DocumentID: id, Op: "delete", Err: err}
	}
	s.fireEvent(ctx, func(sink EventSink) error { return sink.DocumentDeleted(ctx, id) })
	return nil
}

func (s *service) ListDocumentsForWork(ctx context.Context, workID uuid.UUID) ([]*Document, error) {
	return s.repository.ListDocumentsForWork(ctx, workID)
}

// CreatePointInTime creates a new expression of a work at a date, carrying
// the body forward from the latest expression at or before that date. The
// FRBR expression metadata in the body is updated to the new date.
func (s *service) CreatePointInTime(ctx context.Context, req CreatePointInTimeRequest) (*Document, error) {
	work, err := s.repository.GetWork(ctx, req.WorkID)
	if err != nil {
		return nil, err
	}

	expressions, err := s.repository.ListPublishedExpressions(ctx, req.WorkID, req.Language)
	if err != nil {
		return nil, err
	}

	var source *Document
	for _, doc := range expressions {
		if doc.ExpressionDate.Equal(req.Date) {
			return nil, ErrDuplicateExpression
		}
		if !doc.ExpressionDate.After(req.Date) {
			source = doc
		}
	}
	if source == nil {
		return nil, fmt.Errorf("%w: no expression at or before %s to derive from", ErrDocumentNotFound, req.Date)
	}

	body := source.XML
	if parsed, err := akn.Parse([]byte(body)); err == nil {
		uri := work.FrbrURI + "/" + req.Language + "@" + req.Date.String()
		parsed.SetExpression(uri, req.Date, req.Language)
		body = string(parsed.XML())
	}

	return s.CreateDocument(ctx, CreateDocumentRequest{
		WorkID:         req.WorkID,
		Title:          source.Title,
		Language:       req.Language,
		ExpressionDate: req.Date,
		Draft:          req.Draft,
		XML:            body,
	})
}

// FRBR resolution lives in resolver.go.

func (s *service) LatestExpressions(ctx context.Context, uriPrefix, language string) ([]*Document, error) {
	docs, err := s.repository.LatestExpressions(ctx, strings.ToLower(uriPrefix), language)
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Title < docs[j].Title })
	return docs, nil
}

func (s *service) SearchWorks(ctx context.Context, req SearchRequest) ([]*Document, error) {
	country, err := s.repository.GetCountry(ctx, req.Country)
	if err != nil {
		return nil, err
	}

	docs, err := s.LatestExpressions(ctx, "/"+country.Code, country.PrimaryLanguage)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(req.Query)
	var results []*Document
	for _, doc := range docs {
		if query == "" ||
			strings.Contains(strings.ToLower(doc.Title), query) ||
			strings.Contains(doc.FrbrURI, query) {
			results = append(results, doc)
		}
	}

	if req.Offset > 0 {
		if req.Offset >= len(results) {
			return nil, nil
		}
		results = results[req.Offset:]
	}
	if req.Limit > 0 && req.Limit < len(results) {
		results = results[:req.Limit]
	}
	return results, nil
}

// Derived views

func (s *service) TableOfContents(ctx context.Context, documentID uuid.UUID) ([]*akn.TOCElement, error) {
	doc, err := s.repository.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	parsed, err := akn.Parse([]byte(doc.XML))
	if err != nil {
		return nil, &DocumentError{DocumentID: doc.ID, Op: "toc", Err: err}
	}
	return parsed.TableOfContents(), nil
}

func (s *service) RepealInfo(ctx context.Context, work *Work) (*RepealInfo, error) {
	if work.RepealingWorkID == nil {
		return nil, nil
	}
	repealing, err := s.repository.GetWork(ctx, *work.RepealingWorkID)
	if err != nil {
		return nil, err
	}
	return &RepealInfo{
		Date:           work.RepealDate,
		RepealingURI:   repealing.FrbrURI,
		RepealingTitle: repealing.Title,
	}, nil
}

// Task operations

func (s *service) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	if _, err := s.repository.GetCountry(ctx, req.Country); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Country:     req.Country,
		Locality:    req.Locality,
		WorkID:      req.WorkID,
		DocumentID:  req.DocumentID,
		State:       TaskStateOpen,
		Assignee:    req.Assignee,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repository.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	s.fireEvent(ctx, func(sink EventSink) error { return sink.TaskChanged(ctx, task) })
	return task, nil
}

func (s *service) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.repository.GetTask(ctx, id)
}

func (s *service) UpdateTask(ctx context.Context, req UpdateTaskRequest) (*Task, error) {
	task, err := s.repository.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Assignee != nil {
		task.Assignee = *req.Assignee
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *service) ListTasks(ctx context.Context, filters TaskFilters) ([]*Task, error) {
	return s.repository.ListTasks(ctx, filters)
}

// Attachment operations

func attachmentKey(documentID uuid.UUID, filename string) string {
	return "media/" + documentID.String() + "/" + filename
}

func publicationKey(workID uuid.UUID, filename string) string {
	return "publication/" + workID.String() + "/" + filename
}

func (s *service) AddAttachment(ctx context.Context, req AddAttachmentRequest, reader io.Reader) (*Attachment, error) {
	if _, err := s.repository.GetDocument(ctx, req.DocumentID); err != nil {
		return nil, err
	}

	store, err := s.mediaStore()
	if err != nil {
		return nil, err
	}

	key := attachmentKey(req.DocumentID, req.Filename)
	if err := store.Upload(ctx, key, reader); err != nil {
		return nil, &StorageError{Backend: s.mediaBackend, Key: key, Op: "upload", Err: err}
	}

	size := req.Size
	if meta, err := store.GetObjectMeta(ctx, key); err == nil {
		size = meta.Size
	}

	now := time.Now().UTC()
	attachment := &Attachment{
		ID:         uuid.New(),
		DocumentID: req.DocumentID,
		Filename:   req.Filename,
		MimeType:   req.MimeType,
		Size:       size,
		ObjectKey:  key,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repository.CreateAttachment(ctx, attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

func (s *service) ListAttachments(ctx context.Context, documentID uuid.UUID) ([]*Attachment, error) {
	return s.repository.ListAttachmentsForDocument(ctx, documentID)
}

func (s *service) DownloadAttachment(ctx context.Context, documentID uuid.UUID, filename string) (*Attachment, io.ReadCloser, error) {
	attachment, err := s.repository.GetAttachmentByFilename(ctx, documentID, filename)
	if err != nil {
		return nil, nil, err
	}

	store, err := s.mediaStore()
	if err != nil {
		return nil, nil, err
	}

	reader, err := store.Download(ctx, attachment.ObjectKey)
	if err != nil {
		return nil, nil, &StorageError{Backend: s.mediaBackend, Key: attachment.ObjectKey, Op: "download", Err: err}
	}
	return attachment, reader, nil
}

func (s *service) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	attachment, err := s.repository.GetAttachment(ctx, id)
	if err != nil {
		return err
	}

	if store, storeErr := s.mediaStore(); storeErr == nil {
		if err := store.Delete(ctx, attachment.ObjectKey); err != nil {
			slog.Warn("failed to delete attachment blob", "key", attachment.ObjectKey, "error", err)
		}
	}

	return s.repository.DeleteAttachment(ctx, id)
}

// Publication document operations

func (s *service) SetPublicationDocument(ctx context.Context, req SetPublicationDocumentRequest, reader io.Reader) (*PublicationDocument, error) {
	if _, err := s.repository.GetWork(ctx, req.WorkID); err != nil {
		return nil, err
	}

	pubdoc := &PublicationDocument{
		WorkID:     req.WorkID,
		Filename:   req.Filename,
		TrustedURL: req.TrustedURL,
		MimeType:   req.MimeType,
		Size:       req.Size,
		UpdatedAt:  time.Now().UTC(),
	}

	if req.TrustedURL == "" {
		if reader == nil {
			return nil, fmt.Errorf("publication document needs content or a trusted URL")
		}
		store, err := s.mediaStore()
		if err != nil {
			return nil, err
		}
		key := publicationKey(req.WorkID, req.Filename)
		if err := store.Upload(ctx, key, reader); err != nil {
			return nil, &StorageError{Backend: s.mediaBackend, Key: key, Op: "upload", Err: err}
		}
		pubdoc.ObjectKey = key
		if meta, err := store.GetObjectMeta(ctx, key); err == nil {
			pubdoc.Size = meta.Size
		}
	}

	if err := s.repository.SetPublicationDocument(ctx, pubdoc); err != nil {
		return nil, err
	}
	return pubdoc, nil
}

func (s *service) GetPublicationDocument(ctx context.Context, workID uuid.UUID) (*PublicationDocument, error) {
	return s.repository.GetPublicationDocument(ctx, workID)
}

func (s *service) DownloadPublicationDocument(ctx context.Context, workID uuid.UUID) (*PublicationDocument, io.ReadCloser, error) {
	pubdoc, err := s.repository.GetPublicationDocument(ctx, workID)
	if err != nil {
		return nil, nil, err
	}
	if pubdoc.ObjectKey == "" {
		return pubdoc, nil, nil
	}

	store, err := s.mediaStore()
	if err != nil {
		return nil, nil, err
	}
	reader, err := store.Download(ctx, pubdoc.ObjectKey)
	if err != nil {
		return nil, nil, &StorageError{Backend: s.mediaBackend, Key: pubdoc.ObjectKey, Op: "download", Err: err}
	}
	return pubdoc, reader, nil
}

func (s *service) fireEvent(ctx context.Context, fire func(EventSink) error) {
	if s.eventSink == nil {
		return
	}
	if err := fire(s.eventSink); err != nil {
		slog.Warn("event sink error", "error", err)
	}
}
