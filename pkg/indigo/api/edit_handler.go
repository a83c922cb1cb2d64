package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chirender "github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
)

// EditHandler serves the editorial API: works, documents, amendments,
// attachments, tasks and places.
type EditHandler struct {
	service indigo.Service
}

// NewEditHandler creates a handler for the editorial API.
func NewEditHandler(service indigo.Service) *EditHandler {
	return &EditHandler{service: service}
}

// WorkRoutes returns the /works routes.
func (h *EditHandler) WorkRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateWork)
	r.Get("/", h.ListWorks)
	r.Get("/{id}", h.GetWork)
	r.Put("/{id}", h.UpdateWork)
	r.Delete("/{id}", h.DeleteWork)

	r.Get("/{id}/amendments", h.ListAmendments)
	r.Post("/{id}/amendments", h.CreateAmendment)
	r.Delete("/{id}/amendments/{amendmentID}", h.DeleteAmendment)

	r.Get("/{id}/points-in-time", h.PointsInTime)
	r.Post("/{id}/points-in-time", h.CreatePointInTime)
	r.Get("/{id}/timeline", h.Timeline)
	r.Get("/{id}/documents", h.ListWorkDocuments)

	r.Get("/{id}/publication-document", h.GetPublicationDocument)
	r.Put("/{id}/publication-document", h.SetPublicationDocument)
	return r
}

// DocumentRoutes returns the /documents routes.
func (h *EditHandler) DocumentRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateDocument)
	r.Get("/{id}", h.GetDocument)
	r.Put("/{id}", h.UpdateDocument)
	r.Delete("/{id}", h.DeleteDocument)
	r.Get("/{id}/content", h.DocumentContent)
	r.Get("/{id}/toc", h.DocumentTOC)

	r.Get("/{id}/attachments", h.ListAttachments)
	r.Post("/{id}/attachments", h.AddAttachment)
	r.Get("/{id}/attachments/{filename}", h.DownloadAttachment)
	r.Delete("/{id}/attachments/{attachmentID}", h.DeleteAttachment)
	return r
}

// TaskRoutes returns the /tasks routes.
func (h *EditHandler) TaskRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateTask)
	r.Get("/", h.ListTasks)
	r.Get("/{id}", h.GetTask)
	r.Put("/{id}", h.UpdateTask)
	r.Post("/{id}/actions/{action}", h.TransitionTask)
	return r
}

// PlaceRoutes returns the /places routes.
func (h *EditHandler) PlaceRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{place}", h.PlaceMetrics)
	r.Get("/{place}/settings", h.GetPlaceSettings)
	r.Put("/{place}/settings", h.UpdatePlaceSettings)
	return r
}

// CountryRoutes returns the /countries routes.
func (h *EditHandler) CountryRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateCountry)
	r.Get("/", h.ListCountriesAdmin)
	return r
}

func idParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apiError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// splitPlace splits "za-wc" into country and locality.
func splitPlace(place string) (string, string) {
	country, locality, _ := strings.Cut(place, "-")
	return country, locality
}

// Work handlers

// CreateWorkBody is the request body for creating a work.
type CreateWorkBody struct {
	FrbrURI           string     `json:"frbr_uri"`
	Title             string     `json:"title"`
	Stub              bool       `json:"stub"`
	ParentWorkID      *uuid.UUID `json:"parent_work_id,omitempty"`
	PublicationName   string     `json:"publication_name,omitempty"`
	PublicationNumber string     `json:"publication_number,omitempty"`
	PublicationDate   frbr.Date  `json:"publication_date,omitempty"`
	AssentDate        frbr.Date  `json:"assent_date,omitempty"`
	CommencementDate  frbr.Date  `json:"commencement_date,omitempty"`
	RepealingWorkID   *uuid.UUID `json:"repealing_work_id,omitempty"`
	RepealDate        frbr.Date  `json:"repeal_date,omitempty"`
}

func (h *EditHandler) CreateWork(w http.ResponseWriter, r *http.Request) {
	var body CreateWorkBody
	if !decode(w, r, &body) {
		return
	}

	work, err := h.service.CreateWork(r.Context(), indigo.CreateWorkRequest{
		FrbrURI:           body.FrbrURI,
		Title:             body.Title,
		Stub:              body.Stub,
		ParentWorkID:      body.ParentWorkID,
		PublicationName:   body.PublicationName,
		PublicationNumber: body.PublicationNumber,
		PublicationDate:   body.PublicationDate,
		AssentDate:        body.AssentDate,
		CommencementDate:  body.CommencementDate,
		RepealingWorkID:   body.RepealingWorkID,
		RepealDate:        body.RepealDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.Status(r, http.StatusCreated)
	chirender.JSON(w, r, work)
}

func (h *EditHandler) ListWorks(w http.ResponseWriter, r *http.Request) {
	country, locality := splitPlace(r.URL.Query().Get("country"))
	if country == "" {
		apiError(w, r, http.StatusBadRequest, "country query parameter is required")
		return
	}
	works, err := h.service.ListWorks(r.Context(), country, locality)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, map[string]interface{}{"works": works})
}

func (h *EditHandler) GetWork(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid work id")
		return
	}
	work, err := h.service.GetWork(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, work)
}

// UpdateWorkBody is the request body for updating a work; absent fields
// are left unchanged. Setting repealing_work_id to the zero UUID clears
// the repeal.
type UpdateWorkBody struct {
	Title             *string    `json:"title,omitempty"`
	Stub              *bool      `json:"stub,omitempty"`
	ParentWorkID      *uuid.UUID `json:"parent_work_id,omitempty"`
	PublicationName   *string    `json:"publication_name,omitempty"`
	PublicationNumber *string    `json:"publication_number,omitempty"`
	PublicationDate   *frbr.Date `json:"publication_date,omitempty"`
	AssentDate        *frbr.Date `json:"assent_date,omitempty"`
	CommencementDate  *frbr.Date `json:"commencement_date,omitempty"`
	RepealingWorkID   *uuid.UUID `json:"repealing_work_id,omitempty"`
	RepealDate        *frbr.Date `json:"repeal_date,omitempty"`
}

func (h *EditHandler) UpdateWork(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid work id")
		return
	}
	var body UpdateWorkBody
	if !decode(w, r, &body) {
		return
	}

	work, err := h.service.UpdateWork(r.Context(), indigo.UpdateWorkRequest{
		WorkID:            id,
		Title:             body.Title,
		Stub:              body.Stub,
		ParentWorkID:      body.ParentWorkID,
		PublicationName:   body.PublicationName,
		PublicationNumber: body.PublicationNumber,
		PublicationDate:   body.PublicationDate,
		AssentDate:        body.AssentDate,
		CommencementDate:  body.CommencementDate,
		RepealingWorkID:   body.RepealingWorkID,
		RepealDate:        body.RepealDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, work)
}

func (h *EditHandler) DeleteWork(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid work id")
		return
	}
	if err := h.service.DeleteWork(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Amendment handlers

// CreateAmendmentBody is the request body for recording an amendment.
type CreateAmendmentBody struct {
	AmendingWorkID uuid.UUID `json:"amending_work_id"`
	Date           frbr.Date `json:"date"`
}

func (h *EditHandler) CreateAmendment(w http.ResponseWriter, r *http.Request) {
	amendedWorkID, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid work id")
		return
	}
	var body CreateAmendmentBody
	if !decode(w, r, &body) {
		return
	}

	amendment, err := h.service.CreateAmendment(r.Context(), indigo.CreateAmendmentRequest{
		AmendingWorkID: body.AmendingWorkID,
		AmendedWorkID:  amendedWorkID,
		Date:           body.Date,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.Status(r, http.StatusCreated)
	chirender.JSON(w, r, amendment)
}

func (h *EditHandler) ListAmendments(w http.ResponseWriter, r *http.Request) {
	workID, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid work id")
		return
	}
	amendments, err := h.service.ListAmendments(r.Context(), workID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, map[string]interface{}{"amendments": amendments})
}

func (h *EditHandler) DeleteAmendment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "amendmentID")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid amendment id")
		return
	}
	if err := h.service.DeleteAmendment(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Point-in-time and timeline handlers

func (h *EditHandler) PointsInTime(w http.ResponseWriter, r *http.Request) {
	workID, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid work id")
		return
	}
	points, err := h.service.PointsInTime(r.Context(), workID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, map[string]interface{}{"points_in_time": points})
}

// CreatePointInTimeBody asks for a new expression at a date, carried
// forward from the latest one before it.
type CreatePointInTimeBody struct {
	Date     frbr.Date `json:"date"`
	Language string    `json:"language"`
	Draft    bool      `json:"draft"`
}

func (h *EditHandler) CreatePointInTime(w http.ResponseWriter, r *http.Request) {
	workID, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid work id")
		return
	}
	var body CreatePointInTimeBody
	if !decode(w, r, &body) {
		return
	}

	doc, err := h.service.CreatePointInTime(r.Context(), indigo.CreatePointInTimeRequest{
		WorkID:   workID,
		Date:     body.Date,
		Language: body.Language,
		Draft:    body.Draft,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.Status(r, http.StatusCreated)
	chirender.JSON(w, r, doc)
}

func (h *EditHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	workID, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid work id")
		return
	}
	events, err := h.service.WorkTimeline(r.Context(), workID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, map[string]interface{}{"events": events})
}

func (h *EditHandler) ListWorkDocuments(w http.ResponseWriter, r *http.Request) {
	workID, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid work id")
		return
	}
	docs, err := h.service.ListDocumentsForWork(r.Context(), workID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, map[string]interface{}{"documents": docs})
}

// Publication document handlers

func (h *EditHandler) GetPublicationDocument(w http.ResponseWriter, r *http.Request) {
	workID, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid work id")
		return
	}
	pubdoc, err := h.service.GetPublicationDocument(r.Context(), workID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, pubdoc)
}

// SetPublicationDocument accepts either a multipart upload with a "file"
// part, or a JSON body carrying a trusted URL.
func (h *EditHandler) SetPublicationDocument(w http.ResponseWriter, r *http.Request) {
	workID, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid work id")
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, header, err := r.FormFile("file")
		if err != nil {
			apiError(w, r, http.StatusBadRequest, "file part is required")
			return
		}
		defer file.Close()

		pubdoc, err := h.service.SetPublicationDocument(r.Context(), indigo.SetPublicationDocumentRequest{
			WorkID:   workID,
			Filename: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Size:     header.Size,
		}, file)
		if err != nil {
			writeError(w, r, err)
			return
		}
		chirender.JSON(w, r, pubdoc)
		return
	}

	var body struct {
		Filename   string `json:"filename"`
		TrustedURL string `json:"trusted_url"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.TrustedURL == "" {
		apiError(w, r, http.StatusBadRequest, "trusted_url or a multipart file is required")
		return
	}

	pubdoc, err := h.service.SetPublicationDocument(r.Context(), indigo.SetPublicationDocumentRequest{
		WorkID:     workID,
		Filename:   body.Filename,
		TrustedURL: body.TrustedURL,
	}, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, pubdoc)
}

// Document handlers

// CreateDocumentBody is the request body for creating an expression.
type CreateDocumentBody struct {
	WorkID         uuid.UUID `json:"work_id"`
	Title          string    `json:"title,omitempty"`
	Language       string    `json:"language"`
	ExpressionDate frbr.Date `json:"expression_date"`
	Draft          bool      `json:"draft"`
	Content        string    `json:"content"`
}

func (h *EditHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var body CreateDocumentBody
	if !decode(w, r, &body) {
		return
	}

	doc, err := h.service.CreateDocument(r.Context(), indigo.CreateDocumentRequest{
		WorkID:         body.WorkID,
		Title:          body.Title,
		Language:       body.Language,
		ExpressionDate: body.ExpressionDate,
		Draft:          body.Draft,
		XML:            body.Content,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.Status(r, http.StatusCreated)
	chirender.JSON(w, r, doc)
}

func (h *EditHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := h.service.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, doc)
}

// DocumentContent streams the raw Akoma Ntoso body of a document,
// including drafts.
func (h *EditHandler) DocumentContent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := h.service.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	io.WriteString(w, doc.XML)
}

// UpdateDocumentBody is the request body for updating an expression;
// absent fields are left unchanged.
type UpdateDocumentBody struct {
	Title          *string    `json:"title,omitempty"`
	Language       *string    `json:"language,omitempty"`
	ExpressionDate *frbr.Date `json:"expression_date,omitempty"`
	Draft          *bool      `json:"draft,omitempty"`
	Content        *string    `json:"content,omitempty"`
}

func (h *EditHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}
	var body UpdateDocumentBody
	if !decode(w, r, &body) {
		return
	}

	doc, err := h.service.UpdateDocument(r.Context(), indigo.UpdateDocumentRequest{
		DocumentID:     id,
		Title:          body.Title,
		Language:       body.Language,
		ExpressionDate: body.ExpressionDate,
		Draft:          body.Draft,
		XML:            body.Content,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, doc)
}

func (h *EditHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}
	if err := h.service.DeleteDocument(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EditHandler) DocumentTOC(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}
	toc, err := h.service.TableOfContents(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, TOCResponse{TOC: toc})
}

// Attachment handlers

func (h *EditHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}
	attachments, err := h.service.ListAttachments(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, map[string]interface{}{"attachments": attachments})
}

func (h *EditHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apiError(w, r, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	attachment, err := h.service.AddAttachment(r.Context(), indigo.AddAttachmentRequest{
		DocumentID: id,
		Filename:   header.Filename,
		MimeType:   header.Header.Get("Content-Type"),
		Size:       header.Size,
	}, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.Status(r, http.StatusCreated)
	chirender.JSON(w, r, attachment)
}

func (h *EditHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}
	filename := chi.URLParam(r, "filename")

	attachment, reader, err := h.service.DownloadAttachment(r.Context(), id, filename)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", attachment.MimeType)
	io.Copy(w, reader)
}

func (h *EditHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "attachmentID")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid attachment id")
		return
	}
	if err := h.service.DeleteAttachment(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Task handlers

// CreateTaskBody is the request body for creating a task.
type CreateTaskBody struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Country     string     `json:"country"`
	Locality    string     `json:"locality,omitempty"`
	WorkID      *uuid.UUID `json:"work_id,omitempty"`
	DocumentID  *uuid.UUID `json:"document_id,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
}

func (h *EditHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var body CreateTaskBody
	if !decode(w, r, &body) {
		return
	}

	task, err := h.service.CreateTask(r.Context(), indigo.CreateTaskRequest{
		Title:       body.Title,
		Description: body.Description,
		Country:     body.Country,
		Locality:    body.Locality,
		WorkID:      body.WorkID,
		DocumentID:  body.DocumentID,
		Assignee:    body.Assignee,
		CreatedBy:   body.CreatedBy,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.Status(r, http.StatusCreated)
	chirender.JSON(w, r, task)
}

func (h *EditHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := indigo.TaskFilters{
		State:    indigo.TaskState(q.Get("state")),
		Assignee: q.Get("assignee"),
	}
	filters.Country, filters.Locality = splitPlace(q.Get("place"))

	if workID := q.Get("work_id"); workID != "" {
		id, err := uuid.Parse(workID)
		if err != nil {
			apiError(w, r, http.StatusBadRequest, "invalid work_id")
			return
		}
		filters.WorkID = &id
	}
	if filters.State != "" && !filters.State.IsValid() {
		writeError(w, r, indigo.ErrInvalidTaskState)
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), filters)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, map[string]interface{}{"tasks": tasks})
}

func (h *EditHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid task id")
		return
	}
	task, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, task)
}

// UpdateTaskBody is the request body for updating a task's details. State
// changes go through the actions endpoint.
type UpdateTaskBody struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Assignee    *string `json:"assignee,omitempty"`
}

func (h *EditHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid task id")
		return
	}
	var body UpdateTaskBody
	if !decode(w, r, &body) {
		return
	}

	task, err := h.service.UpdateTask(r.Context(), indigo.UpdateTaskRequest{
		TaskID:      id,
		Title:       body.Title,
		Description: body.Description,
		Assignee:    body.Assignee,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, task)
}

func (h *EditHandler) TransitionTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		apiError(w, r, http.StatusBadRequest, "invalid task id")
		return
	}
	action := indigo.TaskAction(chi.URLParam(r, "action"))

	task, err := h.service.TransitionTask(r.Context(), id, action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, task)
}

// Place handlers

func (h *EditHandler) PlaceMetrics(w http.ResponseWriter, r *http.Request) {
	country, locality := splitPlace(chi.URLParam(r, "place"))
	metrics, err := h.service.PlaceMetrics(r.Context(), country, locality)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, metrics)
}

func (h *EditHandler) GetPlaceSettings(w http.ResponseWriter, r *http.Request) {
	country, locality := splitPlace(chi.URLParam(r, "place"))
	settings, err := h.service.GetPlaceSettings(r.Context(), country, locality)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, settings)
}

// UpdatePlaceSettingsBody is the request body for place settings.
type UpdatePlaceSettingsBody struct {
	SpreadsheetURL string    `json:"spreadsheet_url,omitempty"`
	StyleguideURL  string    `json:"styleguide_url,omitempty"`
	AsAtDate       frbr.Date `json:"as_at_date,omitempty"`
}

func (h *EditHandler) UpdatePlaceSettings(w http.ResponseWriter, r *http.Request) {
	country, locality := splitPlace(chi.URLParam(r, "place"))
	var body UpdatePlaceSettingsBody
	if !decode(w, r, &body) {
		return
	}

	settings := &indigo.PlaceSettings{
		Country:        country,
		Locality:       locality,
		SpreadsheetURL: body.SpreadsheetURL,
		StyleguideURL:  body.StyleguideURL,
		AsAtDate:       body.AsAtDate,
	}
	if err := h.service.UpdatePlaceSettings(r.Context(), settings); err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, settings)
}

// Country handlers

func (h *EditHandler) CreateCountry(w http.ResponseWriter, r *http.Request) {
	var country indigo.Country
	if !decode(w, r, &country) {
		return
	}
	if err := h.service.CreateCountry(r.Context(), &country); err != nil {
		writeError(w, r, err)
		return
	}
	chirender.Status(r, http.StatusCreated)
	chirender.JSON(w, r, country)
}

func (h *EditHandler) ListCountriesAdmin(w http.ResponseWriter, r *http.Request) {
	countries, err := h.service.ListCountries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, map[string]interface{}{"countries": countries})
}
