package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chirender "github.com/go-chi/render"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/akn"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/render"
)

// ContentHandler serves published legislation by FRBR URI.
type ContentHandler struct {
	service   indigo.Service
	renderers *render.Registry
	pageSize  int
}

// NewContentHandler creates a handler for the public content API.
func NewContentHandler(service indigo.Service, renderers *render.Registry, pageSize int) *ContentHandler {
	return &ContentHandler{service: service, renderers: renderers, pageSize: pageSize}
}

// Routes returns the content API routes, mounted under /api/v1.
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/countries", h.ListCountries)
	r.Get("/search/{country}", h.Search)
	r.Get("/works/*", h.PublicationDocument)
	r.Get("/*", h.FrbrURI)
	return r
}

// Link is an alternate representation of a document.
type Link struct {
	Rel       string `json:"rel"`
	Title     string `json:"title"`
	Href      string `json:"href"`
	MediaType string `json:"mediaType,omitempty"`
}

// WorkSummary is a compact reference to a related work.
type WorkSummary struct {
	FrbrURI string `json:"frbr_uri"`
	Title   string `json:"title"`
}

// PublicationDocumentInfo points at the original published source of a
// work.
type PublicationDocumentInfo struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// DocumentResponse is the JSON representation of a published expression.
type DocumentResponse struct {
	URL               string    `json:"url"`
	FrbrURI           string    `json:"frbr_uri"`
	ExpressionFrbrURI string    `json:"expression_frbr_uri"`
	Title             string    `json:"title"`
	Country           string    `json:"country"`
	Locality          string    `json:"locality,omitempty"`
	Nature            string    `json:"nature"`
	Subtype           string    `json:"subtype,omitempty"`
	Year              string    `json:"year"`
	Number            string    `json:"number"`
	Language          string    `json:"language"`
	ExpressionDate    frbr.Date `json:"expression_date"`
	Stub              bool      `json:"stub"`

	PublicationName   string    `json:"publication_name,omitempty"`
	PublicationNumber string    `json:"publication_number,omitempty"`
	PublicationDate   frbr.Date `json:"publication_date,omitempty"`
	AssentDate        frbr.Date `json:"assent_date,omitempty"`
	CommencementDate  frbr.Date `json:"commencement_date,omitempty"`

	ParentWork          *WorkSummary             `json:"parent_work,omitempty"`
	PointsInTime        []*indigo.PointInTime    `json:"points_in_time,omitempty"`
	Repeal              *indigo.RepealInfo       `json:"repeal,omitempty"`
	PublicationDocument *PublicationDocumentInfo `json:"publication_document,omitempty"`
	Links               []Link                   `json:"links"`
}

// TOCResponse wraps a table of contents.
type TOCResponse struct {
	TOC []*akn.TOCElement `json:"toc"`
}

func (h *ContentHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.service.ListCountries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	chirender.JSON(w, r, map[string]interface{}{"countries": countries})
}

func (h *ContentHandler) Search(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	docs, err := h.service.SearchWorks(r.Context(), indigo.SearchRequest{
		Country: country,
		Query:   r.URL.Query().Get("q"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, pageDocs := paginate(r, docs, h.pageSize)
	results := make([]*DocumentResponse, 0, len(pageDocs))
	for _, doc := range pageDocs {
		item, err := h.listingItem(r, doc)
		if err != nil {
			slog.Error("skipping search result", "document_id", doc.ID, "error", err)
			continue
		}
		results = append(results, item)
	}
	resp.Results = results
	chirender.JSON(w, r, resp)
}

var formatSuffixRE = regexp.MustCompile(`\.([a-z0-9]+)$`)

// FrbrURI is the catch-all published-document endpoint. The path is an
// FRBR URI, optionally with a format suffix; work-URI prefixes produce a
// listing of the latest expression per work.
func (h *ContentHandler) FrbrURI(w http.ResponseWriter, r *http.Request) {
	path := "/" + strings.Trim(chi.URLParam(r, "*"), "/")

	format := "json"
	explicitFormat := false
	if m := formatSuffixRE.FindStringSubmatch(path); m != nil {
		format = m[1]
		explicitFormat = true
		path = strings.TrimSuffix(path, "."+m[1])
	}

	uri, err := frbr.Parse(path)
	if err != nil {
		h.listing(w, r, path, format)
		return
	}

	// "toc" sits where a language code would; it means the table of
	// contents of the default-language expression.
	if uri.Language == "toc" {
		uri.Language = ""
		uri.Subcomponent = uri.Component
		uri.Component = "toc"
		if uri.Subcomponent != "" {
			apiError(w, r, http.StatusNotFound, "not found")
			return
		}
	}

	resolved, err := h.service.ResolveURI(r.Context(), uri)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch resolved.URI.Component {
	case "toc":
		h.tableOfContents(w, r, resolved)
	case "media":
		h.media(w, r, resolved, format, explicitFormat)
	default:
		h.document(w, r, resolved, format)
	}
}

func (h *ContentHandler) document(w http.ResponseWriter, r *http.Request, resolved *indigo.ResolvedDocument, format string) {
	uri := resolved.URI

	if format == "json" {
		if uri.Component != "" {
			apiError(w, r, http.StatusNotFound, "not found")
			return
		}
		resp, err := h.documentResponse(r, resolved)
		if err != nil {
			writeError(w, r, err)
			return
		}
		chirender.JSON(w, r, resp)
		return
	}

	// Fragments are only available as xml or html.
	if uri.Component != "" && format != "xml" && format != "html" {
		apiError(w, r, http.StatusNotFound, "not found")
		return
	}

	renderer, err := h.renderers.Get(format)
	if err != nil {
		writeError(w, r, err)
		return
	}

	in := render.Input{
		Documents:    []*indigo.Document{resolved.Document},
		Component:    uri.Component,
		Subcomponent: uri.Subcomponent,
		Standalone:   r.URL.Query().Get("standalone") == "1",
		Media:        h.mediaFetcher(),
	}

	w.Header().Set("Content-Type", renderer.MediaType())
	if err := renderer.Render(r.Context(), w, in); err != nil {
		if indigo.IsNotFound(err) {
			apiError(w, r, http.StatusNotFound, "not found")
			return
		}
		writeError(w, r, err)
	}
}

func (h *ContentHandler) tableOfContents(w http.ResponseWriter, r *http.Request, resolved *indigo.ResolvedDocument) {
	toc, err := h.service.TableOfContents(r.Context(), resolved.Document.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Entry URLs carry the point-in-time qualifier of the request.
	base := resolved.URI.Clone()
	base.Component = ""
	base.Subcomponent = ""
	prefix := baseURL(r) + "/api/v1" + base.ExpressionURI()
	setTOCURLs(toc, prefix)

	chirender.JSON(w, r, TOCResponse{TOC: toc})
}

func setTOCURLs(entries []*akn.TOCElement, prefix string) {
	for _, entry := range entries {
		url := prefix
		if entry.Component != "main" {
			url += "/" + entry.Component
		}
		if entry.Subcomponent != "" {
			url += "/" + entry.Subcomponent
		}
		entry.URL = url
		setTOCURLs(entry.Children, prefix)
	}
}

func (h *ContentHandler) media(w http.ResponseWriter, r *http.Request, resolved *indigo.ResolvedDocument, format string, explicitFormat bool) {
	uri := resolved.URI

	// .../media.json lists the document's attachments.
	if uri.Subcomponent == "" && format == "json" {
		attachments, err := h.service.ListAttachments(r.Context(), resolved.Document.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		chirender.JSON(w, r, map[string]interface{}{"media": attachments})
		return
	}
	if uri.Subcomponent == "" {
		apiError(w, r, http.StatusNotFound, "not found")
		return
	}

	filename := uri.Subcomponent
	if explicitFormat {
		filename += "." + format
	}

	attachment, reader, err := h.service.DownloadAttachment(r.Context(), resolved.Document.ID, filename)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", attachment.MimeType)
	if _, err := io.Copy(w, reader); err != nil {
		writeError(w, r, err)
	}
}

// listing serves a work-URI prefix: the latest expression of each matching
// work.
func (h *ContentHandler) listing(w http.ResponseWriter, r *http.Request, prefix, format string) {
	// HTML doesn't make sense for a listing.
	if format == "html" {
		apiError(w, r, http.StatusNotFound, "not found")
		return
	}

	country, err := listingCountry(prefix)
	if err != nil {
		apiError(w, r, http.StatusNotFound, "not found")
		return
	}
	place, err := h.service.GetCountry(r.Context(), country)
	if err != nil {
		writeError(w, r, err)
		return
	}

	docs, err := h.service.LatestExpressions(r.Context(), prefix, place.PrimaryLanguage)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch format {
	case "json":
		resp, pageDocs := paginate(r, docs, h.pageSize)
		results := make([]*DocumentResponse, 0, len(pageDocs))
		for _, doc := range pageDocs {
			item, err := h.listingItem(r, doc)
			if err != nil {
				slog.Error("skipping listing item", "document_id", doc.ID, "error", err)
				continue
			}
			results = append(results, item)
		}
		resp.Results = results
		chirender.JSON(w, r, resp)

	case "pdf", "epub", "zip":
		if len(docs) == 0 {
			apiError(w, r, http.StatusNotFound, "not found")
			return
		}
		renderer, err := h.renderers.Get(format)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", renderer.MediaType())
		in := render.Input{Documents: docs, Media: h.mediaFetcher()}
		if err := renderer.Render(r.Context(), w, in); err != nil {
			writeError(w, r, err)
		}

	default:
		apiError(w, r, http.StatusNotFound, "not found")
	}
}

// listingCountry extracts the country code from a work-URI prefix such as
// /za/act/2014 or /akn/za-wc/.
func listingCountry(prefix string) (string, error) {
	parts := strings.Split(strings.Trim(prefix, "/"), "/")
	if len(parts) > 0 && parts[0] == "akn" {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return "", indigo.ErrCountryNotFound
	}
	country, _, _ := strings.Cut(parts[0], "-")
	if len(country) != 2 {
		return "", indigo.ErrCountryNotFound
	}
	return country, nil
}

// PublicationDocument serves a work's original publication document,
// redirecting when it lives at a trusted external URL.
func (h *ContentHandler) PublicationDocument(w http.ResponseWriter, r *http.Request) {
	path := "/" + strings.Trim(chi.URLParam(r, "*"), "/")
	workURI, filename, found := strings.Cut(path, "/media/publication/")
	if !found || filename == "" {
		apiError(w, r, http.StatusNotFound, "not found")
		return
	}

	work, err := h.service.GetWorkByURI(r.Context(), workURI)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pubdoc, reader, err := h.service.DownloadPublicationDocument(r.Context(), work.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if pubdoc.Filename != filename {
		apiError(w, r, http.StatusNotFound, "not found")
		return
	}

	if pubdoc.TrustedURL != "" {
		http.Redirect(w, r, pubdoc.TrustedURL, http.StatusFound)
		return
	}
	if reader == nil {
		apiError(w, r, http.StatusNotFound, "not found")
		return
	}
	defer reader.Close()

	contentType := pubdoc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, reader); err != nil {
		writeError(w, r, err)
	}
}

// documentResponse builds the full JSON payload for one expression.
func (h *ContentHandler) documentResponse(r *http.Request, resolved *indigo.ResolvedDocument) (*DocumentResponse, error) {
	ctx := r.Context()
	work := resolved.Work
	doc := resolved.Document

	resp, err := h.listingItem(r, doc)
	if err != nil {
		return nil, err
	}
	resp.Stub = work.Stub
	resp.PublicationName = work.PublicationName
	resp.PublicationNumber = work.PublicationNumber
	resp.PublicationDate = work.PublicationDate
	resp.AssentDate = work.AssentDate
	resp.CommencementDate = work.CommencementDate

	if work.ParentWorkID != nil {
		if parent, err := h.service.GetWork(ctx, *work.ParentWorkID); err == nil {
			resp.ParentWork = &WorkSummary{FrbrURI: parent.FrbrURI, Title: parent.Title}
		}
	}

	points, err := h.service.PointsInTime(ctx, work.ID)
	if err != nil {
		return nil, err
	}
	for _, point := range points {
		for _, expr := range point.Expressions {
			expr.URL = baseURL(r) + "/api/v1" + expr.ExpressionFrbrURI
		}
	}
	resp.PointsInTime = points

	repeal, err := h.service.RepealInfo(ctx, work)
	if err != nil && !indigo.IsNotFound(err) {
		return nil, err
	}
	resp.Repeal = repeal

	if pubdoc, err := h.service.GetPublicationDocument(ctx, work.ID); err == nil {
		url := pubdoc.TrustedURL
		if url == "" {
			url = baseURL(r) + "/api/v1/works" + work.FrbrURI + "/media/publication/" + pubdoc.Filename
		}
		resp.PublicationDocument = &PublicationDocumentInfo{URL: url, Filename: pubdoc.Filename}
	}

	return resp, nil
}

// listingItem builds the compact representation used in listings and as
// the base of the full document payload.
func (h *ContentHandler) listingItem(r *http.Request, doc *indigo.Document) (*DocumentResponse, error) {
	uri, err := frbr.Parse(doc.ExpressionURI())
	if err != nil {
		return nil, fmt.Errorf("document %s has an unparseable frbr uri %q: %w", doc.ID, doc.ExpressionURI(), err)
	}
	expressionURL := baseURL(r) + "/api/v1" + doc.ExpressionURI()

	resp := &DocumentResponse{
		URL:               expressionURL,
		FrbrURI:           doc.FrbrURI,
		ExpressionFrbrURI: doc.ExpressionURI(),
		Title:             doc.Title,
		Country:           uri.Country,
		Locality:          uri.Locality,
		Nature:            uri.Doctype,
		Subtype:           uri.Subtype,
		Year:              uri.Date[:4],
		Number:            uri.Number,
		Language:          doc.Language,
		ExpressionDate:    doc.ExpressionDate,
		Links: []Link{
			{Rel: "alternate", Title: "XML", Href: expressionURL + ".xml", MediaType: "application/xml"},
			{Rel: "alternate", Title: "HTML", Href: expressionURL + ".html", MediaType: "text/html"},
			{Rel: "alternate", Title: "PDF", Href: expressionURL + ".pdf", MediaType: "application/pdf"},
			{Rel: "alternate", Title: "ePUB", Href: expressionURL + ".epub", MediaType: "application/epub+zip"},
			{Rel: "alternate", Title: "ZIP", Href: expressionURL + ".zip", MediaType: "application/zip"},
			{Rel: "toc", Title: "Table of Contents", Href: expressionURL + "/toc.json", MediaType: "application/json"},
			{Rel: "media", Title: "Media", Href: expressionURL + "/media.json", MediaType: "application/json"},
		},
	}
	return resp, nil
}

// mediaFetcher streams a document's attachments for ZIP renditions.
func (h *ContentHandler) mediaFetcher() render.MediaFetcher {
	return func(ctx context.Context, doc *indigo.Document) ([]render.MediaFile, error) {
		attachments, err := h.service.ListAttachments(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		var files []render.MediaFile
		for _, attachment := range attachments {
			_, reader, err := h.service.DownloadAttachment(ctx, doc.ID, attachment.Filename)
			if err != nil {
				return nil, err
			}
			files = append(files, render.MediaFile{Filename: attachment.Filename, Content: reader})
		}
		return files, nil
	}
}
