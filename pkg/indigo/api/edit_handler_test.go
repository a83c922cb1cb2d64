package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
	memoryrepo "github.com/ArchitectOnNet/indigo/pkg/indigo/repo/memory"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/render"
	memorystorage "github.com/ArchitectOnNet/indigo/pkg/indigo/storage/memory"
)

func TestWorkLifecycle(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)

	w := doJSON(t, h, http.MethodPost, "/api/works", map[string]interface{}{
		"frbr_uri": "/za/act/2020/5",
		"title":    "Test Act, 2020",
		"stub":     true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody(t, w)
	id := created["id"].(string)
	assert.Equal(t, "/za/act/2020/5", created["frbr_uri"])
	assert.Equal(t, true, created["stub"])

	w = do(t, h, http.MethodGet, "/api/works/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodPut, "/api/works/"+id, map[string]interface{}{
		"title": "Renamed Act, 2020",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Renamed Act, 2020", decodeBody(t, w)["title"])

	w = do(t, h, http.MethodDelete, "/api/works/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/api/works/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateWorkValidation(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)

	w := doJSON(t, h, http.MethodPost, "/api/works", map[string]interface{}{
		"frbr_uri": "not a uri",
		"title":    "Bad",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// Unknown country.
	w = doJSON(t, h, http.MethodPost, "/api/works", map[string]interface{}{
		"frbr_uri": "/xx/act/2020/1",
		"title":    "Elsewhere",
	})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/works?country=", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteWorkInUse(t *testing.T) {
	h, svc := newTestEnv(t)
	work, _ := seed(t, svc)

	w := do(t, h, http.MethodDelete, "/api/works/"+work.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestDocumentEndpoints(t *testing.T) {
	h, svc := newTestEnv(t)
	work, _ := seed(t, svc)

	w := doJSON(t, h, http.MethodPost, "/api/documents", map[string]interface{}{
		"work_id":         work.ID.String(),
		"language":        "afr",
		"expression_date": "2014-02-12",
		"content":         actFixture,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody(t, w)
	id := created["id"].(string)
	// Title defaults from the work.
	assert.Equal(t, "Water Act, 2014", created["title"])

	// Same language and date again conflicts.
	w = doJSON(t, h, http.MethodPost, "/api/documents", map[string]interface{}{
		"work_id":         work.ID.String(),
		"language":        "afr",
		"expression_date": "2014-02-12",
		"content":         actFixture,
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/documents/"+id+"/content", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<akomaNtoso")

	w = do(t, h, http.MethodGet, "/api/documents/"+id+"/toc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"section"`)

	w = doJSON(t, h, http.MethodPut, "/api/documents/"+id, map[string]interface{}{
		"draft": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["draft"])

	w = do(t, h, http.MethodDelete, "/api/documents/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/api/documents/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAmendmentAndTimelineEndpoints(t *testing.T) {
	h, svc := newTestEnv(t)
	work, _ := seed(t, svc)
	ctx := context.Background()

	amending, err := svc.CreateWork(ctx, indigo.CreateWorkRequest{
		FrbrURI: "/za/act/2015/3",
		Title:   "Water Amendment Act, 2015",
	})
	require.NoError(t, err)

	w := doJSON(t, h, http.MethodPost, "/api/works/"+work.ID.String()+"/amendments", map[string]interface{}{
		"amending_work_id": amending.ID.String(),
		"date":             "2015-03-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	amendmentID := decodeBody(t, w)["id"].(string)

	w = do(t, h, http.MethodGet, "/api/works/"+work.ID.String()+"/amendments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), amendmentID)

	w = do(t, h, http.MethodGet, "/api/works/"+work.ID.String()+"/timeline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Water Amendment Act, 2015")

	// A point in time at the amendment date, carried forward from the
	// 2014 expression.
	w = doJSON(t, h, http.MethodPost, "/api/works/"+work.ID.String()+"/points-in-time", map[string]interface{}{
		"date":     "2015-03-01",
		"language": "eng",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/works/"+work.ID.String()+"/points-in-time", nil)
	require.Equal(t, http.StatusOK, w.Code)
	points := decodeBody(t, w)["points_in_time"].([]interface{})
	assert.Len(t, points, 2)

	w = do(t, h, http.MethodDelete, "/api/works/"+work.ID.String()+"/amendments/"+amendmentID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTaskWorkflowEndpoints(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)

	w := doJSON(t, h, http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":   "Import the 2014 act",
		"country": "za",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decodeBody(t, w)
	id := task["id"].(string)
	assert.Equal(t, "open", task["state"])

	transitions := []struct {
		action string
		state  string
	}{
		{"submit", "pending_review"},
		{"close", "done"},
		{"reopen", "open"},
	}
	for _, tc := range transitions {
		w = do(t, h, http.MethodPost, "/api/tasks/"+id+"/actions/"+tc.action, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, tc.state, decodeBody(t, w)["state"])
	}

	// close is only valid from pending_review.
	w = do(t, h, http.MethodPost, "/api/tasks/"+id+"/actions/close", nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = doJSON(t, h, http.MethodPut, "/api/tasks/"+id, map[string]interface{}{
		"assignee": "alice",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decodeBody(t, w)["assignee"])

	w = do(t, h, http.MethodGet, "/api/tasks?place=za&state=open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decodeBody(t, w)["tasks"].([]interface{})
	assert.Len(t, tasks, 1)

	w = do(t, h, http.MethodGet, "/api/tasks?state=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttachmentEndpoints(t *testing.T) {
	h, svc := newTestEnv(t)
	_, doc := seed(t, svc)

	body, contentType := multipartFile(t, "logo.png", "image/png", "image bytes")
	req := httptest.NewRequest(http.MethodPost, "http://indigo.test/api/documents/"+doc.ID.String()+"/attachments", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	attachment := decodeBody(t, w)
	assert.Equal(t, "logo.png", attachment["filename"])
	assert.Equal(t, "image/png", attachment["mime_type"])

	res := do(t, h, http.MethodGet, "/api/documents/"+doc.ID.String()+"/attachments", nil)
	require.Equal(t, http.StatusOK, res.Code)
	list := decodeBody(t, res)["attachments"].([]interface{})
	require.Len(t, list, 1)

	res = do(t, h, http.MethodGet, "/api/documents/"+doc.ID.String()+"/attachments/logo.png", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "image bytes", res.Body.String())

	res = do(t, h, http.MethodDelete, "/api/documents/"+doc.ID.String()+"/attachments/"+attachment["id"].(string), nil)
	require.Equal(t, http.StatusNoContent, res.Code)

	res = do(t, h, http.MethodGet, "/api/documents/"+doc.ID.String()+"/attachments/logo.png", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestPublicationDocumentUpload(t *testing.T) {
	h, svc := newTestEnv(t)
	work, _ := seed(t, svc)

	body, contentType := multipartFile(t, "gazette.pdf", "application/pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPut, "http://indigo.test/api/works/"+work.ID.String()+"/publication-document", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "gazette.pdf", decodeBody(t, w)["filename"])

	res := do(t, h, http.MethodGet, "/api/works/"+work.ID.String()+"/publication-document", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "gazette.pdf", decodeBody(t, res)["filename"])

	res = doJSON(t, h, http.MethodPut, "/api/works/"+work.ID.String()+"/publication-document", map[string]interface{}{
		"filename":    "gazette.pdf",
		"trusted_url": "https://archive.example.com/gazette.pdf",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Equal(t, "https://archive.example.com/gazette.pdf", decodeBody(t, res)["trusted_url"])
}

func TestPlaceEndpoints(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)

	w := doJSON(t, h, http.MethodPut, "/api/places/za/settings", map[string]interface{}{
		"spreadsheet_url": "https://sheets.example.com/za",
		"as_at_date":      "2024-01-01",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/places/za/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://sheets.example.com/za", decodeBody(t, w)["spreadsheet_url"])

	w = do(t, h, http.MethodGet, "/api/places/za", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	metrics := decodeBody(t, w)
	assert.Equal(t, "za", metrics["place"])
	assert.Equal(t, float64(1), metrics["works"])
	assert.Equal(t, float64(1), metrics["expressions"])
}

func TestCountryAdminEndpoints(t *testing.T) {
	h, _ := newTestEnv(t)

	w := doJSON(t, h, http.MethodPost, "/api/countries", map[string]interface{}{
		"code":             "KE",
		"name":             "Kenya",
		"primary_language": "eng",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	// Country codes are normalized to lower case.
	assert.Equal(t, "ke", decodeBody(t, w)["code"])

	w = do(t, h, http.MethodGet, "/api/countries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Kenya")
}

func TestAuthentication(t *testing.T) {
	svc, err := indigo.New(
		indigo.WithRepository(memoryrepo.New()),
		indigo.WithBlobStore("memory", memorystorage.New()),
	)
	require.NoError(t, err)
	seed(t, svc)

	h := NewRouter(Config{AuthSecret: "secret"}, svc, render.NewRegistry())

	// Health check stays open.
	w := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/za/act/2014/10", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tokenAuth := jwtauth.New("HS256", []byte("secret"), nil)
	_, token, err := tokenAuth.Encode(map[string]interface{}{"sub": "tester"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://indigo.test/api/v1/za/act/2014/10", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUpdateDocumentDuplicateExpression(t *testing.T) {
	h, svc := newTestEnv(t)
	work, _ := seed(t, svc)
	ctx := context.Background()

	second, err := svc.CreateDocument(ctx, indigo.CreateDocumentRequest{
		WorkID:         work.ID,
		Language:       "eng",
		ExpressionDate: frbr.NewDate(2015, time.March, 1),
		XML:            actFixture,
	})
	require.NoError(t, err)

	// Moving the second expression onto the first's date is a conflict.
	w := doJSON(t, h, http.MethodPut, "/api/documents/"+second.ID.String(), map[string]interface{}{
		"expression_date": "2014-02-12",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// Moving the language at the same time doesn't help if both land on an
	// existing expression, but a free slot is fine.
	w = doJSON(t, h, http.MethodPut, "/api/documents/"+second.ID.String(), map[string]interface{}{
		"language":        "afr",
		"expression_date": "2014-02-12",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, h, http.MethodPut, "/api/documents/"+second.ID.String(), map[string]interface{}{
		"language": "eng",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// Only one live eng expression remains at 2014-02-12.
	docs, err := svc.ListDocumentsForWork(ctx, work.ID)
	require.NoError(t, err)
	count := 0
	for _, d := range docs {
		if d.Language == "eng" && d.ExpressionDate.Equal(frbr.NewDate(2014, time.February, 12)) {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestWorkRepealLifecycle(t *testing.T) {
	h, svc := newTestEnv(t)
	work, _ := seed(t, svc)
	ctx := context.Background()

	repealing, err := svc.CreateWork(ctx, indigo.CreateWorkRequest{
		FrbrURI: "/za/act/2019/5",
		Title:   "Water Laws Repeal Act, 2019",
	})
	require.NoError(t, err)

	// An unknown repealing work is rejected.
	w := doJSON(t, h, http.MethodPut, "/api/works/"+work.ID.String(), map[string]interface{}{
		"repealing_work_id": uuid.New().String(),
		"repeal_date":       "2019-06-01",
	})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = doJSON(t, h, http.MethodPut, "/api/works/"+work.ID.String(), map[string]interface{}{
		"repealing_work_id": repealing.ID.String(),
		"repeal_date":       "2019-06-01",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, repealing.ID.String(), body["repealing_work_id"])
	assert.Equal(t, "2019-06-01", body["repeal_date"])

	w = do(t, h, http.MethodGet, "/api/works/"+work.ID.String()+"/timeline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"repeal"`)
	assert.Contains(t, w.Body.String(), "Repealed by Water Laws Repeal Act, 2019")

	// The public document payload carries the repeal block.
	w = do(t, h, http.MethodGet, "/api/v1/za/act/2014/10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	repeal, ok := decodeBody(t, w)["repeal"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	assert.Equal(t, "/za/act/2019/5", repeal["repealing_uri"])
	assert.Equal(t, "2019-06-01", repeal["date"])

	// The zero UUID clears the repeal again.
	w = doJSON(t, h, http.MethodPut, "/api/works/"+work.ID.String(), map[string]interface{}{
		"repealing_work_id": uuid.Nil.String(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decodeBody(t, w)["repealing_work_id"])

	w = do(t, h, http.MethodGet, "/api/works/"+work.ID.String()+"/timeline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"repeal"`)
}

func TestStubClearsOnFirstExpression(t *testing.T) {
	h, svc := newTestEnv(t)
	seed(t, svc)
	ctx := context.Background()

	stub, err := svc.CreateWork(ctx, indigo.CreateWorkRequest{
		FrbrURI: "/za/act/2021/7",
		Title:   "Stub Act, 2021",
		Stub:    true,
	})
	require.NoError(t, err)

	_, err = svc.CreateDocument(ctx, indigo.CreateDocumentRequest{
		WorkID:         stub.ID,
		Language:       "eng",
		ExpressionDate: frbr.NewDate(2021, time.June, 1),
		XML:            strings.ReplaceAll(actFixture, "2014", "2021"),
	})
	require.NoError(t, err)

	w := do(t, h, http.MethodGet, "/api/works/"+stub.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["stub"])
}
