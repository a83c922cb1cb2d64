package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
)

func newWork(uri string) *indigo.Work {
	u := frbr.MustParse(uri)
	return &indigo.Work{
		ID:       uuid.New(),
		FrbrURI:  uri,
		Country:  u.Country,
		Locality: u.Locality,
		Doctype:  u.Doctype,
		Subtype:  u.Subtype,
		Year:     u.Date[:4],
		Number:   u.Number,
		Title:    "Test Act",
	}
}

func newDocument(work *indigo.Work, language, date string, draft bool) *indigo.Document {
	d, _ := frbr.ParseDate(date)
	return &indigo.Document{
		ID:             uuid.New(),
		WorkID:         work.ID,
		FrbrURI:        work.FrbrURI,
		Title:          work.Title,
		Language:       language,
		ExpressionDate: d,
		Draft:          draft,
	}
}

func TestWorkCRUD(t *testing.T) {
	repo := New()
	ctx := context.Background()

	work := newWork("/za/act/2014/10")
	require.NoError(t, repo.CreateWork(ctx, work))

	got, err := repo.GetWork(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, work.FrbrURI, got.FrbrURI)

	// lookup by URI is case-insensitive
	got, err = repo.GetWorkByURI(ctx, "/ZA/act/2014/10")
	require.NoError(t, err)
	assert.Equal(t, work.ID, got.ID)

	got.Title = "Updated Act"
	require.NoError(t, repo.UpdateWork(ctx, got))
	got, err = repo.GetWork(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated Act", got.Title)

	require.NoError(t, repo.DeleteWork(ctx, work.ID))
	_, err = repo.GetWork(ctx, work.ID)
	assert.ErrorIs(t, err, indigo.ErrWorkNotFound)
	_, err = repo.GetWorkByURI(ctx, "/za/act/2014/10")
	assert.ErrorIs(t, err, indigo.ErrWorkNotFound)
}

func TestGetWorkReturnsCopy(t *testing.T) {
	repo := New()
	ctx := context.Background()

	work := newWork("/za/act/2014/10")
	require.NoError(t, repo.CreateWork(ctx, work))

	got, err := repo.GetWork(ctx, work.ID)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := repo.GetWork(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Act", again.Title)
}

func TestListWorksFiltersByPlace(t *testing.T) {
	repo := New()
	ctx := context.Background()

	require.NoError(t, repo.CreateWork(ctx, newWork("/za/act/2014/10")))
	require.NoError(t, repo.CreateWork(ctx, newWork("/za-wc/act/2014/2")))
	require.NoError(t, repo.CreateWork(ctx, newWork("/ke/act/2010/1")))

	works, err := repo.ListWorks(ctx, "za", "")
	require.NoError(t, err)
	assert.Len(t, works, 2)

	works, err = repo.ListWorks(ctx, "za", "wc")
	require.NoError(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, "/za-wc/act/2014/2", works[0].FrbrURI)
}

func TestDocumentSoftDelete(t *testing.T) {
	repo := New()
	ctx := context.Background()

	work := newWork("/za/act/2014/10")
	require.NoError(t, repo.CreateWork(ctx, work))

	doc := newDocument(work, "eng", "2014-02-12", false)
	require.NoError(t, repo.CreateDocument(ctx, doc))

	require.NoError(t, repo.DeleteDocument(ctx, doc.ID))
	_, err := repo.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, indigo.ErrDocumentNotFound)

	docs, err := repo.ListDocumentsForWork(ctx, work.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	// deleting twice fails
	err = repo.DeleteDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, indigo.ErrDocumentNotFound)
}

func TestListPublishedExpressions(t *testing.T) {
	repo := New()
	ctx := context.Background()

	work := newWork("/za/act/2014/10")
	require.NoError(t, repo.CreateWork(ctx, work))

	require.NoError(t, repo.CreateDocument(ctx, newDocument(work, "eng", "2015-06-01", false)))
	require.NoError(t, repo.CreateDocument(ctx, newDocument(work, "eng", "2014-02-12", false)))
	require.NoError(t, repo.CreateDocument(ctx, newDocument(work, "eng", "2016-01-01", true)))
	require.NoError(t, repo.CreateDocument(ctx, newDocument(work, "afr", "2014-02-12", false)))

	docs, err := repo.ListPublishedExpressions(ctx, work.ID, "eng")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// ordered by expression date ascending, drafts excluded
	assert.Equal(t, "2014-02-12", docs[0].ExpressionDate.String())
	assert.Equal(t, "2015-06-01", docs[1].ExpressionDate.String())
}

func TestLatestExpressions(t *testing.T) {
	repo := New()
	ctx := context.Background()

	first := newWork("/za/act/2014/10")
	second := newWork("/za/act/2015/3")
	other := newWork("/ke/act/2010/1")
	for _, w := range []*indigo.Work{first, second, other} {
		require.NoError(t, repo.CreateWork(ctx, w))
	}

	require.NoError(t, repo.CreateDocument(ctx, newDocument(first, "eng", "2014-02-12", false)))
	require.NoError(t, repo.CreateDocument(ctx, newDocument(first, "eng", "2015-06-01", false)))
	require.NoError(t, repo.CreateDocument(ctx, newDocument(second, "eng", "2015-04-01", false)))
	require.NoError(t, repo.CreateDocument(ctx, newDocument(other, "eng", "2010-01-01", false)))

	docs, err := repo.LatestExpressions(ctx, "/za/", "eng")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "/za/act/2014/10", docs[0].FrbrURI)
	assert.Equal(t, "2015-06-01", docs[0].ExpressionDate.String())
	assert.Equal(t, "/za/act/2015/3", docs[1].FrbrURI)
}

func TestAmendments(t *testing.T) {
	repo := New()
	ctx := context.Background()

	amended := newWork("/za/act/2014/10")
	amending := newWork("/za/act/2015/3")
	require.NoError(t, repo.CreateWork(ctx, amended))
	require.NoError(t, repo.CreateWork(ctx, amending))

	date, _ := frbr.ParseDate("2015-06-01")
	amendment := &indigo.Amendment{
		ID:             uuid.New(),
		AmendingWorkID: amending.ID,
		AmendedWorkID:  amended.ID,
		Date:           date,
	}
	require.NoError(t, repo.CreateAmendment(ctx, amendment))

	list, err := repo.ListAmendmentsForWork(ctx, amended.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, amending.ID, list[0].AmendingWorkID)

	require.NoError(t, repo.DeleteAmendment(ctx, amendment.ID))
	_, err = repo.GetAmendment(ctx, amendment.ID)
	assert.ErrorIs(t, err, indigo.ErrAmendmentNotFound)
}

func TestTaskFilters(t *testing.T) {
	repo := New()
	ctx := context.Background()

	workID := uuid.New()
	tasks := []*indigo.Task{
		{ID: uuid.New(), Title: "a", Country: "za", State: indigo.TaskStateOpen, Assignee: "alice"},
		{ID: uuid.New(), Title: "b", Country: "za", State: indigo.TaskStateDone, Assignee: "bob"},
		{ID: uuid.New(), Title: "c", Country: "ke", State: indigo.TaskStateOpen, WorkID: &workID},
	}
	for _, task := range tasks {
		require.NoError(t, repo.CreateTask(ctx, task))
	}

	got, err := repo.ListTasks(ctx, indigo.TaskFilters{Country: "za"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListTasks(ctx, indigo.TaskFilters{State: indigo.TaskStateOpen})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListTasks(ctx, indigo.TaskFilters{Assignee: "alice"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Title)

	got, err = repo.ListTasks(ctx, indigo.TaskFilters{WorkID: &workID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].Title)
}

func TestAttachments(t *testing.T) {
	repo := New()
	ctx := context.Background()

	docID := uuid.New()
	attachment := &indigo.Attachment{
		ID:         uuid.New(),
		DocumentID: docID,
		Filename:   "logo.png",
		MimeType:   "image/png",
		Size:       1234,
		ObjectKey:  "media/" + docID.String() + "/logo.png",
	}
	require.NoError(t, repo.CreateAttachment(ctx, attachment))

	got, err := repo.GetAttachmentByFilename(ctx, docID, "logo.png")
	require.NoError(t, err)
	assert.Equal(t, attachment.ID, got.ID)

	_, err = repo.GetAttachmentByFilename(ctx, docID, "missing.png")
	assert.ErrorIs(t, err, indigo.ErrAttachmentNotFound)

	list, err := repo.ListAttachmentsForDocument(ctx, docID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.DeleteAttachment(ctx, attachment.ID))
	_, err = repo.GetAttachment(ctx, attachment.ID)
	assert.ErrorIs(t, err, indigo.ErrAttachmentNotFound)
}

func TestPublicationDocument(t *testing.T) {
	repo := New()
	ctx := context.Background()

	workID := uuid.New()
	_, err := repo.GetPublicationDocument(ctx, workID)
	assert.ErrorIs(t, err, indigo.ErrPublicationDocumentNotFound)

	pubdoc := &indigo.PublicationDocument{
		WorkID:     workID,
		Filename:   "gazette.pdf",
		TrustedURL: "https://gazettes.example.com/za-37351.pdf",
	}
	require.NoError(t, repo.SetPublicationDocument(ctx, pubdoc))

	got, err := repo.GetPublicationDocument(ctx, workID)
	require.NoError(t, err)
	assert.Equal(t, "gazette.pdf", got.Filename)
}

func TestCountriesAndSettings(t *testing.T) {
	repo := New()
	ctx := context.Background()

	require.NoError(t, repo.CreateCountry(ctx, &indigo.Country{
		Code:            "za",
		Name:            "South Africa",
		PrimaryLanguage: "eng",
		Localities:      []indigo.Locality{{CountryCode: "za", Code: "wc", Name: "Western Cape"}},
	}))

	_, err := repo.GetCountry(ctx, "xx")
	assert.ErrorIs(t, err, indigo.ErrCountryNotFound)

	country, err := repo.GetCountry(ctx, "za")
	require.NoError(t, err)
	assert.Equal(t, "eng", country.PrimaryLanguage)

	// settings default to empty when never set
	settings, err := repo.GetPlaceSettings(ctx, "za", "wc")
	require.NoError(t, err)
	assert.Empty(t, settings.SpreadsheetURL)

	settings.SpreadsheetURL = "https://sheets.example.com/za-wc"
	require.NoError(t, repo.SetPlaceSettings(ctx, settings))

	settings, err = repo.GetPlaceSettings(ctx, "za", "wc")
	require.NoError(t, err)
	assert.Equal(t, "https://sheets.example.com/za-wc", settings.SpreadsheetURL)
}
