// Package api provides the HTTP layer: the public content API serving
// published legislation by FRBR URI, and the editorial API for managing
// works, documents, amendments and tasks.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	chirender "github.com/go-chi/render"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/render"
)

// Config holds router options.
type Config struct {
	// AuthSecret is the HMAC secret for API tokens. Empty disables
	// authentication.
	AuthSecret string

	// PageSize is the listing page size (default 500).
	PageSize int

	// RequestTimeout bounds request handling (default 60s).
	RequestTimeout time.Duration
}

// NewRouter assembles the full HTTP API: the public content API under
// /api/v1 and the editorial API under /api.
func NewRouter(cfg Config, service indigo.Service, renderers *render.Registry) chi.Router {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	var tokenAuth *jwtauth.JWTAuth
	if cfg.AuthSecret != "" {
		tokenAuth = jwtauth.New("HS256", []byte(cfg.AuthSecret), nil)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		chirender.JSON(w, r, map[string]string{"status": "ok"})
	})

	content := NewContentHandler(service, renderers, cfg.PageSize)
	edit := NewEditHandler(service)

	r.Route("/api", func(r chi.Router) {
		if tokenAuth != nil {
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(jwtauth.Authenticator)
		}
		r.Mount("/v1", content.Routes())
		r.Mount("/works", edit.WorkRoutes())
		r.Mount("/documents", edit.DocumentRoutes())
		r.Mount("/tasks", edit.TaskRoutes())
		r.Mount("/places", edit.PlaceRoutes())
		r.Mount("/countries", edit.CountryRoutes())
	})

	return r
}

// writeError maps service errors to HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case indigo.IsNotFound(err) || errors.Is(err, render.ErrUnknownFormat):
		apiError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, indigo.ErrInvalidFrbrURI),
		errors.Is(err, indigo.ErrInvalidTaskState):
		apiError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, indigo.ErrDuplicateExpression),
		errors.Is(err, indigo.ErrWorkInUse),
		errors.Is(err, indigo.ErrInvalidTaskTransition):
		apiError(w, r, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		apiError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func apiError(w http.ResponseWriter, r *http.Request, status int, message string) {
	chirender.Status(r, status)
	chirender.JSON(w, r, map[string]string{"error": message})
}

// page extracts the 1-based page number from the request.
func page(r *http.Request) int {
	p, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// PaginatedResponse wraps a page of results.
type PaginatedResponse struct {
	Count    int         `json:"count"`
	Next     string      `json:"next,omitempty"`
	Previous string      `json:"previous,omitempty"`
	Results  interface{} `json:"results"`
}

// paginate slices items for a page and builds next/previous URLs against
// the request path.
func paginate[T any](r *http.Request, items []T, pageSize int) (PaginatedResponse, []T) {
	p := page(r)
	start := (p - 1) * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	pageItems := items[start:end]

	resp := PaginatedResponse{Count: len(items)}
	if end < len(items) {
		resp.Next = pageURL(r, p+1)
	}
	if p > 1 {
		resp.Previous = pageURL(r, p-1)
	}
	return resp, pageItems
}

func pageURL(r *http.Request, page int) string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return baseURL(r) + u.RequestURI()
}

// baseURL reconstructs the external scheme and host of the request.
func baseURL(r *http.Request) string {
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
