// Package memory provides an in-memory Repository, used in tests and for
// running the server without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
)

// Repository implements indigo.Repository using in-memory storage.
type Repository struct {
	mu            sync.RWMutex
	countries     map[string]*indigo.Country
	settings      map[string]*indigo.PlaceSettings
	works         map[uuid.UUID]*indigo.Work
	worksByURI    map[string]uuid.UUID
	documents     map[uuid.UUID]*indigo.Document
	amendments    map[uuid.UUID]*indigo.Amendment
	tasks         map[uuid.UUID]*indigo.Task
	attachments   map[uuid.UUID]*indigo.Attachment
	pubdocs       map[uuid.UUID]*indigo.PublicationDocument
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{
		countries:   make(map[string]*indigo.Country),
		settings:    make(map[string]*indigo.PlaceSettings),
		works:       make(map[uuid.UUID]*indigo.Work),
		worksByURI:  make(map[string]uuid.UUID),
		documents:   make(map[uuid.UUID]*indigo.Document),
		amendments:  make(map[uuid.UUID]*indigo.Amendment),
		tasks:       make(map[uuid.UUID]*indigo.Task),
		attachments: make(map[uuid.UUID]*indigo.Attachment),
		pubdocs:     make(map[uuid.UUID]*indigo.PublicationDocument),
	}
}

func placeKey(country, locality string) string {
	if locality != "" {
		return country + "-" + locality
	}
	return country
}

// Place operations

func (r *Repository) CreateCountry(ctx context.Context, country *indigo.Country) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	countryCopy := *country
	r.countries[country.Code] = &countryCopy
	return nil
}

func (r *Repository) GetCountry(ctx context.Context, code string) (*indigo.Country, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	country, exists := r.countries[code]
	if !exists {
		return nil, indigo.ErrCountryNotFound
	}
	countryCopy := *country
	return &countryCopy, nil
}

func (r *Repository) ListCountries(ctx context.Context) ([]*indigo.Country, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*indigo.Country, 0, len(r.countries))
	for _, country := range r.countries {
		countryCopy := *country
		result = append(result, &countryCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (r *Repository) GetPlaceSettings(ctx context.Context, country, locality string) (*indigo.PlaceSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	settings, exists := r.settings[placeKey(country, locality)]
	if !exists {
		// Settings default to empty rather than erroring.
		return &indigo.PlaceSettings{Country: country, Locality: locality}, nil
	}
	settingsCopy := *settings
	return &settingsCopy, nil
}

func (r *Repository) SetPlaceSettings(ctx context.Context, settings *indigo.PlaceSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	settingsCopy := *settings
	r.settings[placeKey(settings.Country, settings.Locality)] = &settingsCopy
	return nil
}

// Work operations

func (r *Repository) CreateWork(ctx context.Context, work *indigo.Work) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	workCopy := *work
	r.works[work.ID] = &workCopy
	r.worksByURI[strings.ToLower(work.FrbrURI)] = work.ID
	return nil
}

func (r *Repository) GetWork(ctx context.Context, id uuid.UUID) (*indigo.Work, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	work, exists := r.works[id]
	if !exists {
		return nil, indigo.ErrWorkNotFound
	}
	workCopy := *work
	return &workCopy, nil
}

func (r *Repository) GetWorkByURI(ctx context.Context, frbrURI string) (*indigo.Work, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.worksByURI[strings.ToLower(frbrURI)]
	if !exists {
		return nil, indigo.ErrWorkNotFound
	}
	workCopy := *r.works[id]
	return &workCopy, nil
}

func (r *Repository) UpdateWork(ctx context.Context, work *indigo.Work) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.works[work.ID]; !exists {
		return indigo.ErrWorkNotFound
	}
	workCopy := *work
	r.works[work.ID] = &workCopy
	return nil
}

func (r *Repository) DeleteWork(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	work, exists := r.works[id]
	if !exists {
		return indigo.ErrWorkNotFound
	}
	delete(r.worksByURI, strings.ToLower(work.FrbrURI))
	delete(r.works, id)
	return nil
}

func (r *Repository) ListWorks(ctx context.Context, country, locality string) ([]*indigo.Work, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*indigo.Work
	for _, work := range r.works {
		if work.Country == country && (locality == "" || work.Locality == locality) {
			workCopy := *work
			result = append(result, &workCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FrbrURI < result[j].FrbrURI })
	return result, nil
}

func (r *Repository) ListWorksByURIPrefix(ctx context.Context, prefix string) ([]*indigo.Work, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix = strings.ToLower(prefix)
	var result []*indigo.Work
	for _, work := range r.works {
		if strings.HasPrefix(strings.ToLower(work.FrbrURI), prefix) {
			workCopy := *work
			result = append(result, &workCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FrbrURI < result[j].FrbrURI })
	return result, nil
}

// Document operations

func (r *Repository) CreateDocument(ctx context.Context, doc *indigo.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docCopy := *doc
	r.documents[doc.ID] = &docCopy
	return nil
}

func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*indigo.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.documents[id]
	if !exists || doc.DeletedAt != nil {
		return nil, indigo.ErrDocumentNotFound
	}
	docCopy := *doc
	return &docCopy, nil
}

func (r *Repository) UpdateDocument(ctx context.Context, doc *indigo.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.documents[doc.ID]
	if !exists || existing.DeletedAt != nil {
		return indigo.ErrDocumentNotFound
	}
	docCopy := *doc
	r.documents[doc.ID] = &docCopy
	return nil
}

func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, exists := r.documents[id]
	if !exists || doc.DeletedAt != nil {
		return indigo.ErrDocumentNotFound
	}
	now := time.Now()
	doc.DeletedAt = &now
	doc.UpdatedAt = now
	return nil
}

func (r *Repository) ListDocumentsForWork(ctx context.Context, workID uuid.UUID) ([]*indigo.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*indigo.Document
	for _, doc := range r.documents {
		if doc.WorkID == workID && doc.DeletedAt == nil {
			docCopy := *doc
			result = append(result, &docCopy)
		}
	}
	sortByExpressionDate(result)
	return result, nil
}

func (r *Repository) ListPublishedExpressions(ctx context.Context, workID uuid.UUID, language string) ([]*indigo.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*indigo.Document
	for _, doc := range r.documents {
		if doc.WorkID == workID && doc.Language == language && doc.Published() {
			docCopy := *doc
			result = append(result, &docCopy)
		}
	}
	sortByExpressionDate(result)
	return result, nil
}

func (r *Repository) LatestExpressions(ctx context.Context, uriPrefix, language string) ([]*indigo.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uriPrefix = strings.ToLower(uriPrefix)
	latest := make(map[uuid.UUID]*indigo.Document)
	for _, doc := range r.documents {
		if !doc.Published() || doc.Language != language {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(doc.FrbrURI), uriPrefix) {
			continue
		}
		best, ok := latest[doc.WorkID]
		if !ok || doc.ExpressionDate.After(best.ExpressionDate) {
			latest[doc.WorkID] = doc
		}
	}

	result := make([]*indigo.Document, 0, len(latest))
	for _, doc := range latest {
		docCopy := *doc
		result = append(result, &docCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FrbrURI < result[j].FrbrURI })
	return result, nil
}

func sortByExpressionDate(docs []*indigo.Document) {
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ExpressionDate.Before(docs[j].ExpressionDate)
	})
}

// Amendment operations

func (r *Repository) CreateAmendment(ctx context.Context, amendment *indigo.Amendment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	amendmentCopy := *amendment
	r.amendments[amendment.ID] = &amendmentCopy
	return nil
}

func (r *Repository) GetAmendment(ctx context.Context, id uuid.UUID) (*indigo.Amendment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	amendment, exists := r.amendments[id]
	if !exists {
		return nil, indigo.ErrAmendmentNotFound
	}
	amendmentCopy := *amendment
	return &amendmentCopy, nil
}

func (r *Repository) UpdateAmendment(ctx context.Context, amendment *indigo.Amendment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.amendments[amendment.ID]; !exists {
		return indigo.ErrAmendmentNotFound
	}
	amendmentCopy := *amendment
	r.amendments[amendment.ID] = &amendmentCopy
	return nil
}

func (r *Repository) DeleteAmendment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.amendments[id]; !exists {
		return indigo.ErrAmendmentNotFound
	}
	delete(r.amendments, id)
	return nil
}

func (r *Repository) ListAmendmentsForWork(ctx context.Context, amendedWorkID uuid.UUID) ([]*indigo.Amendment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*indigo.Amendment
	for _, amendment := range r.amendments {
		if amendment.AmendedWorkID == amendedWorkID {
			amendmentCopy := *amendment
			result = append(result, &amendmentCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// Task operations

func (r *Repository) CreateTask(ctx context.Context, task *indigo.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	taskCopy := *task
	r.tasks[task.ID] = &taskCopy
	return nil
}

func (r *Repository) GetTask(ctx context.Context, id uuid.UUID) (*indigo.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, exists := r.tasks[id]
	if !exists {
		return nil, indigo.ErrTaskNotFound
	}
	taskCopy := *task
	return &taskCopy, nil
}

func (r *Repository) UpdateTask(ctx context.Context, task *indigo.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[task.ID]; !exists {
		return indigo.ErrTaskNotFound
	}
	taskCopy := *task
	r.tasks[task.ID] = &taskCopy
	return nil
}

func (r *Repository) ListTasks(ctx context.Context, filters indigo.TaskFilters) ([]*indigo.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*indigo.Task
	for _, task := range r.tasks {
		if filters.Country != "" && task.Country != filters.Country {
			continue
		}
		if filters.Locality != "" && task.Locality != filters.Locality {
			continue
		}
		if filters.State != "" && task.State != filters.State {
			continue
		}
		if filters.Assignee != "" && task.Assignee != filters.Assignee {
			continue
		}
		if filters.WorkID != nil && (task.WorkID == nil || *task.WorkID != *filters.WorkID) {
			continue
		}
		taskCopy := *task
		result = append(result, &taskCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// Attachment operations

func (r *Repository) CreateAttachment(ctx context.Context, attachment *indigo.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	attachmentCopy := *attachment
	r.attachments[attachment.ID] = &attachmentCopy
	return nil
}

func (r *Repository) GetAttachment(ctx context.Context, id uuid.UUID) (*indigo.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	attachment, exists := r.attachments[id]
	if !exists {
		return nil, indigo.ErrAttachmentNotFound
	}
	attachmentCopy := *attachment
	return &attachmentCopy, nil
}

func (r *Repository) GetAttachmentByFilename(ctx context.Context, documentID uuid.UUID, filename string) (*indigo.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, attachment := range r.attachments {
		if attachment.DocumentID == documentID && attachment.Filename == filename {
			attachmentCopy := *attachment
			return &attachmentCopy, nil
		}
	}
	return nil, indigo.ErrAttachmentNotFound
}

func (r *Repository) ListAttachmentsForDocument(ctx context.Context, documentID uuid.UUID) ([]*indigo.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*indigo.Attachment
	for _, attachment := range r.attachments {
		if attachment.DocumentID == documentID {
			attachmentCopy := *attachment
			result = append(result, &attachmentCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Filename < result[j].Filename })
	return result, nil
}

func (r *Repository) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.attachments[id]; !exists {
		return indigo.ErrAttachmentNotFound
	}
	delete(r.attachments, id)
	return nil
}

// Publication document operations

func (r *Repository) SetPublicationDocument(ctx context.Context, pubdoc *indigo.PublicationDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pubdocCopy := *pubdoc
	r.pubdocs[pubdoc.WorkID] = &pubdocCopy
	return nil
}

func (r *Repository) GetPublicationDocument(ctx context.Context, workID uuid.UUID) (*indigo.PublicationDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pubdoc, exists := r.pubdocs[workID]
	if !exists {
		return nil, indigo.ErrPublicationDocumentNotFound
	}
	pubdocCopy := *pubdoc
	return &pubdocCopy, nil
}
