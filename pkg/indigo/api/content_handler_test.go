package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/render"
)

func TestDocumentJSON(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)

	w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, "/za/act/2014/10", body["frbr_uri"])
	assert.Equal(t, "/za/act/2014/10/eng@2014-02-12", body["expression_frbr_uri"])
	assert.Equal(t, "Water Act, 2014", body["title"])
	assert.Equal(t, "za", body["country"])
	assert.Equal(t, "act", body["nature"])
	assert.Equal(t, "2014", body["year"])
	assert.Equal(t, "10", body["number"])
	assert.NotEmpty(t, body["links"])
	assert.NotEmpty(t, body["points_in_time"])
}

func TestPointInTimeResolution(t *testing.T) {
	h, svc := newTestEnv(t)
	work, _ := seed(t, svc)

	_, err := svc.CreateDocument(context.Background(), indigo.CreateDocumentRequest{
		WorkID:         work.ID,
		Language:       "eng",
		ExpressionDate: frbr.NewDate(2015, time.March, 1),
		XML:            actFixture,
	})
	require.NoError(t, err)

	tests := []struct {
		path   string
		status int
		expr   string
	}{
		{"/za/act/2014/10", http.StatusOK, "/za/act/2014/10/eng@2015-03-01"},
		{"/za/act/2014/10/eng", http.StatusOK, "/za/act/2014/10/eng@2015-03-01"},
		{"/za/act/2014/10/eng@", http.StatusOK, "/za/act/2014/10/eng@2014-02-12"},
		{"/za/act/2014/10/eng@2014-02-12", http.StatusOK, "/za/act/2014/10/eng@2014-02-12"},
		{"/za/act/2014/10/eng@2014-06-01", http.StatusNotFound, ""},
		{"/za/act/2014/10/eng:2014-12-31", http.StatusOK, "/za/act/2014/10/eng@2014-02-12"},
		{"/za/act/2014/10/eng:2013-12-31", http.StatusNotFound, ""},
		{"/za/act/2014/10/fra", http.StatusNotFound, ""},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/api/v1"+tc.path, nil)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			if tc.expr != "" {
				body := decodeBody(t, w)
				assert.Equal(t, tc.expr, body["expression_frbr_uri"])
			}
		})
	}
}

func TestDraftsNotResolved(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)
	ctx := context.Background()

	work, err := svc.CreateWork(ctx, indigo.CreateWorkRequest{
		FrbrURI: "/za/act/2020/1",
		Title:   "Draft Act, 2020",
	})
	require.NoError(t, err)
	_, err = svc.CreateDocument(ctx, indigo.CreateDocumentRequest{
		WorkID:         work.ID,
		Language:       "eng",
		ExpressionDate: frbr.NewDate(2020, time.January, 1),
		Draft:          true,
		XML:            actFixture,
	})
	require.NoError(t, err)

	w := do(t, h, http.MethodGet, "/api/v1/za/act/2020/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRenditions(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)

	t.Run("xml", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10/eng@2014-02-12.xml", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "<akomaNtoso")
	})

	t.Run("html", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10/eng@2014-02-12.html", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `class="akn-section"`)
		assert.NotContains(t, w.Body.String(), "<!DOCTYPE html>")
	})

	t.Run("standalone html", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10/eng@2014-02-12.html?standalone=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<!DOCTYPE html>")
		assert.Contains(t, w.Body.String(), `class="colophon"`)
	})

	t.Run("epub", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10/eng@2014-02-12.epub", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/epub+zip", w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
	})

	t.Run("fragment xml", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10/eng@2014-02-12/main/section/1.xml", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Body.String(), "<section"), w.Body.String())
	})

	t.Run("fragment only as xml or html", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10/eng@2014-02-12/main/section/1.epub", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown format", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10/eng@2014-02-12.docx", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTableOfContentsEndpoint(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)

	w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10/toc.json", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	toc, ok := body["toc"].([]interface{})
	require.True(t, ok)
	require.Len(t, toc, 2)

	section := toc[0].(map[string]interface{})
	assert.Equal(t, "section", section["type"])
	assert.Equal(t, "http://indigo.test/api/v1/za/act/2014/10/eng/section/1", section["url"])

	schedule := toc[1].(map[string]interface{})
	assert.Equal(t, "doc", schedule["type"])
	assert.Equal(t, "http://indigo.test/api/v1/za/act/2014/10/eng/schedule1", schedule["url"])
}

func TestTableOfContentsKeepsQualifier(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)

	w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10/eng@2014-02-12/toc.json", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "/api/v1/za/act/2014/10/eng@2014-02-12/section/1")
}

func TestMediaEndpoints(t *testing.T) {
	h, svc := newTestEnv(t)
	_, doc := seed(t, svc)

	_, err := svc.AddAttachment(context.Background(), indigo.AddAttachmentRequest{
		DocumentID: doc.ID,
		Filename:   "logo.png",
		MimeType:   "image/png",
		Size:       11,
	}, strings.NewReader("image bytes"))
	require.NoError(t, err)

	t.Run("list", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10/eng@2014-02-12/media.json", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody(t, w)
		media, ok := body["media"].([]interface{})
		require.True(t, ok)
		require.Len(t, media, 1)
		assert.Equal(t, "logo.png", media[0].(map[string]interface{})["filename"])
	})

	t.Run("download", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10/eng@2014-02-12/media/logo.png", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, "image bytes", w.Body.String())
	})

	t.Run("missing file", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/act/2014/10/eng@2014-02-12/media/missing.png", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListings(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)

	t.Run("country listing", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody(t, w)
		assert.Equal(t, float64(1), body["count"])
		results := body["results"].([]interface{})
		require.Len(t, results, 1)
		assert.Equal(t, "/za/act/2014/10", results[0].(map[string]interface{})["frbr_uri"])
	})

	t.Run("year prefix", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/act/2014", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("no html listing", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za/act.html", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bulk epub", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/za.epub", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/epub+zip", w.Header().Get("Content-Type"))
	})

	t.Run("unknown country", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/zz/", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPublicationDocumentEndpoint(t *testing.T) {
	h, svc := newTestEnv(t)
	work, _ := seed(t, svc)
	ctx := context.Background()

	t.Run("trusted url redirects", func(t *testing.T) {
		_, err := svc.SetPublicationDocument(ctx, indigo.SetPublicationDocumentRequest{
			WorkID:     work.ID,
			Filename:   "gazette.pdf",
			TrustedURL: "https://archive.example.com/gazette.pdf",
		}, nil)
		require.NoError(t, err)

		w := do(t, h, http.MethodGet, "/api/v1/works/za/act/2014/10/media/publication/gazette.pdf", nil)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://archive.example.com/gazette.pdf", w.Header().Get("Location"))
	})

	t.Run("stored file streams", func(t *testing.T) {
		_, err := svc.SetPublicationDocument(ctx, indigo.SetPublicationDocumentRequest{
			WorkID:   work.ID,
			Filename: "gazette.pdf",
			MimeType: "application/pdf",
			Size:     9,
		}, strings.NewReader("pdf bytes"))
		require.NoError(t, err)

		w := do(t, h, http.MethodGet, "/api/v1/works/za/act/2014/10/media/publication/gazette.pdf", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, "pdf bytes", w.Body.String())
	})

	t.Run("filename mismatch", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/works/za/act/2014/10/media/publication/other.pdf", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSearchEndpoint(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)

	w := do(t, h, http.MethodGet, "/api/v1/search/za?q=water", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["count"])

	w = do(t, h, http.MethodGet, "/api/v1/search/za?q=nomatch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, float64(0), body["count"])
}

func TestListingItemBadStoredURI(t *testing.T) {
	_, svc := newTestEnv(t)
	h := NewContentHandler(svc, render.NewRegistry(), 10)

	doc := &indigo.Document{
		ID:             uuid.New(),
		FrbrURI:        "not-a-uri",
		Language:       "eng",
		ExpressionDate: frbr.NewDate(2014, time.February, 12),
	}

	req := httptest.NewRequest(http.MethodGet, "http://indigo.test/api/v1/za/", nil)
	item, err := h.listingItem(req, doc)
	require.Error(t, err)
	assert.Nil(t, item)
	assert.Contains(t, err.Error(), "not-a-uri")
}

func TestCountriesEndpoint(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)

	w := do(t, h, http.MethodGet, "/api/v1/countries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"za"`)
}
