// Package postgres implements the persistence layer on PostgreSQL using
// pgx. The schema lives in migrations/.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
)

// DBTX allows the repository to run against either a connection pool or a
// transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements indigo.Repository using PostgreSQL.
type Repository struct {
	db DBTX
}

// New creates a PostgreSQL repository.
func New(db DBTX) indigo.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a PostgreSQL repository backed by a connection pool.
func NewWithPool(pool *pgxpool.Pool) indigo.Repository {
	return &Repository{db: pool}
}

func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "documents") {
				return indigo.ErrDuplicateExpression
			}
			return fmt.Errorf("duplicate entry in %s", operation)
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found in %s", operation)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		}
		return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// dateArg converts a Date to a driver value, mapping the zero date to NULL.
func dateArg(d frbr.Date) interface{} {
	if d.IsZero() {
		return nil
	}
	return d.Time
}

func dateOf(t *time.Time) frbr.Date {
	if t == nil {
		return frbr.Date{}
	}
	return frbr.DateOf(*t)
}

// Place operations

func (r *Repository) CreateCountry(ctx context.Context, country *indigo.Country) error {
	query := `
		INSERT INTO countries (code, name, primary_language)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			primary_language = EXCLUDED.primary_language`

	if _, err := r.db.Exec(ctx, query, country.Code, country.Name, country.PrimaryLanguage); err != nil {
		return r.handlePostgresError("create country", err)
	}

	for _, locality := range country.Localities {
		query := `
			INSERT INTO localities (country_code, code, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (country_code, code) DO UPDATE SET name = EXCLUDED.name`
		if _, err := r.db.Exec(ctx, query, country.Code, locality.Code, locality.Name); err != nil {
			return r.handlePostgresError("create locality", err)
		}
	}
	return nil
}

func (r *Repository) GetCountry(ctx context.Context, code string) (*indigo.Country, error) {
	query := `SELECT code, name, primary_language FROM countries WHERE code = $1`

	var country indigo.Country
	err := r.db.QueryRow(ctx, query, code).Scan(&country.Code, &country.Name, &country.PrimaryLanguage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, indigo.ErrCountryNotFound
		}
		return nil, r.handlePostgresError("get country", err)
	}

	localities, err := r.localitiesForCountry(ctx, code)
	if err != nil {
		return nil, err
	}
	country.Localities = localities
	return &country, nil
}

func (r *Repository) localitiesForCountry(ctx context.Context, code string) ([]indigo.Locality, error) {
	query := `SELECT country_code, code, name FROM localities WHERE country_code = $1 ORDER BY code`

	rows, err := r.db.Query(ctx, query, code)
	if err != nil {
		return nil, r.handlePostgresError("list localities", err)
	}
	defer rows.Close()

	var localities []indigo.Locality
	for rows.Next() {
		var locality indigo.Locality
		if err := rows.Scan(&locality.CountryCode, &locality.Code, &locality.Name); err != nil {
			return nil, err
		}
		localities = append(localities, locality)
	}
	return localities, rows.Err()
}

func (r *Repository) ListCountries(ctx context.Context) ([]*indigo.Country, error) {
	query := `SELECT code, name, primary_language FROM countries ORDER BY code`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list countries", err)
	}
	defer rows.Close()

	var countries []*indigo.Country
	for rows.Next() {
		var country indigo.Country
		if err := rows.Scan(&country.Code, &country.Name, &country.PrimaryLanguage); err != nil {
			return nil, err
		}
		countries = append(countries, &country)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, country := range countries {
		localities, err := r.localitiesForCountry(ctx, country.Code)
		if err != nil {
			return nil, err
		}
		country.Localities = localities
	}
	return countries, nil
}

func (r *Repository) GetPlaceSettings(ctx context.Context, country, locality string) (*indigo.PlaceSettings, error) {
	query := `
		SELECT country, locality, spreadsheet_url, styleguide_url, as_at_date, updated_at
		FROM place_settings WHERE country = $1 AND locality = $2`

	var settings indigo.PlaceSettings
	var asAt *time.Time
	err := r.db.QueryRow(ctx, query, country, locality).Scan(
		&settings.Country, &settings.Locality, &settings.SpreadsheetURL,
		&settings.StyleguideURL, &asAt, &settings.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &indigo.PlaceSettings{Country: country, Locality: locality}, nil
		}
		return nil, r.handlePostgresError("get place settings", err)
	}
	settings.AsAtDate = dateOf(asAt)
	return &settings, nil
}

func (r *Repository) SetPlaceSettings(ctx context.Context, settings *indigo.PlaceSettings) error {
	query := `
		INSERT INTO place_settings (country, locality, spreadsheet_url, styleguide_url, as_at_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (country, locality) DO UPDATE SET
			spreadsheet_url = EXCLUDED.spreadsheet_url,
			styleguide_url = EXCLUDED.styleguide_url,
			as_at_date = EXCLUDED.as_at_date,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		settings.Country, settings.Locality, settings.SpreadsheetURL,
		settings.StyleguideURL, dateArg(settings.AsAtDate), settings.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("set place settings", err)
	}
	return nil
}

// Work operations

const workColumns = `
	id, frbr_uri, country, locality, doctype, subtype, year, number,
	title, stub, parent_work_id, publication_name, publication_number,
	publication_date, assent_date, commencement_date,
	repealing_work_id, repeal_date, created_at, updated_at`

func (r *Repository) CreateWork(ctx context.Context, work *indigo.Work) error {
	query := `
		INSERT INTO works (` + workColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := r.db.Exec(ctx, query,
		work.ID, work.FrbrURI, work.Country, work.Locality, work.Doctype,
		work.Subtype, work.Year, work.Number, work.Title, work.Stub,
		work.ParentWorkID, work.PublicationName, work.PublicationNumber,
		dateArg(work.PublicationDate), dateArg(work.AssentDate), dateArg(work.CommencementDate),
		work.RepealingWorkID, dateArg(work.RepealDate), work.CreatedAt, work.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create work", err)
	}
	return nil
}

func (r *Repository) scanWork(row pgx.Row) (*indigo.Work, error) {
	var work indigo.Work
	var publicationDate, assentDate, commencementDate, repealDate *time.Time
	err := row.Scan(
		&work.ID, &work.FrbrURI, &work.Country, &work.Locality, &work.Doctype,
		&work.Subtype, &work.Year, &work.Number, &work.Title, &work.Stub,
		&work.ParentWorkID, &work.PublicationName, &work.PublicationNumber,
		&publicationDate, &assentDate, &commencementDate,
		&work.RepealingWorkID, &repealDate, &work.CreatedAt, &work.UpdatedAt)
	if err != nil {
		return nil, err
	}
	work.PublicationDate = dateOf(publicationDate)
	work.AssentDate = dateOf(assentDate)
	work.CommencementDate = dateOf(commencementDate)
	work.RepealDate = dateOf(repealDate)
	return &work, nil
}

func (r *Repository) GetWork(ctx context.Context, id uuid.UUID) (*indigo.Work, error) {
	query := `SELECT ` + workColumns + ` FROM works WHERE id = $1`

	work, err := r.scanWork(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, indigo.ErrWorkNotFound
		}
		return nil, r.handlePostgresError("get work", err)
	}
	return work, nil
}

func (r *Repository) GetWorkByURI(ctx context.Context, frbrURI string) (*indigo.Work, error) {
	query := `SELECT ` + workColumns + ` FROM works WHERE lower(frbr_uri) = lower($1)`

	work, err := r.scanWork(r.db.QueryRow(ctx, query, frbrURI))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, indigo.ErrWorkNotFound
		}
		return nil, r.handlePostgresError("get work by uri", err)
	}
	return work, nil
}

func (r *Repository) UpdateWork(ctx context.Context, work *indigo.Work) error {
	query := `
		UPDATE works SET
			frbr_uri = $2, country = $3, locality = $4, doctype = $5, subtype = $6,
			year = $7, number = $8, title = $9, stub = $10, parent_work_id = $11,
			publication_name = $12, publication_number = $13, publication_date = $14,
			assent_date = $15, commencement_date = $16,
			repealing_work_id = $17, repeal_date = $18, updated_at = $19
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		work.ID, work.FrbrURI, work.Country, work.Locality, work.Doctype,
		work.Subtype, work.Year, work.Number, work.Title, work.Stub,
		work.ParentWorkID, work.PublicationName, work.PublicationNumber,
		dateArg(work.PublicationDate), dateArg(work.AssentDate), dateArg(work.CommencementDate),
		work.RepealingWorkID, dateArg(work.RepealDate), work.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update work", err)
	}
	if tag.RowsAffected() == 0 {
		return indigo.ErrWorkNotFound
	}
	return nil
}

func (r *Repository) DeleteWork(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM works WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete work", err)
	}
	if tag.RowsAffected() == 0 {
		return indigo.ErrWorkNotFound
	}
	return nil
}

func (r *Repository) listWorks(ctx context.Context, query string, args ...interface{}) ([]*indigo.Work, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list works", err)
	}
	defer rows.Close()

	var works []*indigo.Work
	for rows.Next() {
		work, err := r.scanWork(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, work)
	}
	return works, rows.Err()
}

func (r *Repository) ListWorks(ctx context.Context, country, locality string) ([]*indigo.Work, error) {
	if locality != "" {
		query := `SELECT ` + workColumns + ` FROM works WHERE country = $1 AND locality = $2 ORDER BY frbr_uri`
		return r.listWorks(ctx, query, country, locality)
	}
	query := `SELECT ` + workColumns + ` FROM works WHERE country = $1 ORDER BY frbr_uri`
	return r.listWorks(ctx, query, country)
}

func (r *Repository) ListWorksByURIPrefix(ctx context.Context, prefix string) ([]*indigo.Work, error) {
	query := `SELECT ` + workColumns + ` FROM works WHERE lower(frbr_uri) LIKE lower($1) || '%' ORDER BY frbr_uri`
	return r.listWorks(ctx, query, prefix)
}

// Document operations

const documentColumns = `
	id, work_id, frbr_uri, title, language, expression_date, draft, xml,
	created_at, updated_at, deleted_at`

func (r *Repository) CreateDocument(ctx context.Context, doc *indigo.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		doc.ID, doc.WorkID, doc.FrbrURI, doc.Title, doc.Language,
		dateArg(doc.ExpressionDate), doc.Draft, doc.XML,
		doc.CreatedAt, doc.UpdatedAt, doc.DeletedAt)
	if err != nil {
		return r.handlePostgresError("create document", err)
	}
	return nil
}

func (r *Repository) scanDocument(row pgx.Row) (*indigo.Document, error) {
	var doc indigo.Document
	var expressionDate *time.Time
	err := row.Scan(
		&doc.ID, &doc.WorkID, &doc.FrbrURI, &doc.Title, &doc.Language,
		&expressionDate, &doc.Draft, &doc.XML,
		&doc.CreatedAt, &doc.UpdatedAt, &doc.DeletedAt)
	if err != nil {
		return nil, err
	}
	doc.ExpressionDate = dateOf(expressionDate)
	return &doc, nil
}

func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*indigo.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND deleted_at IS NULL`

	doc, err := r.scanDocument(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, indigo.ErrDocumentNotFound
		}
		return nil, r.handlePostgresError("get document", err)
	}
	return doc, nil
}

func (r *Repository) UpdateDocument(ctx context.Context, doc *indigo.Document) error {
	query := `
		UPDATE documents SET
			frbr_uri = $2, title = $3, language = $4, expression_date = $5,
			draft = $6, xml = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		doc.ID, doc.FrbrURI, doc.Title, doc.Language,
		dateArg(doc.ExpressionDate), doc.Draft, doc.XML, doc.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update document", err)
	}
	if tag.RowsAffected() == 0 {
		return indigo.ErrDocumentNotFound
	}
	return nil
}

func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE documents SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return r.handlePostgresError("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return indigo.ErrDocumentNotFound
	}
	return nil
}

func (r *Repository) listDocuments(ctx context.Context, operation, query string, args ...interface{}) ([]*indigo.Document, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError(operation, err)
	}
	defer rows.Close()

	var docs []*indigo.Document
	for rows.Next() {
		doc, err := r.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *Repository) ListDocumentsForWork(ctx context.Context, workID uuid.UUID) ([]*indigo.Document, error) {
	query := `
		SELECT ` + documentColumns + ` FROM documents
		WHERE work_id = $1 AND deleted_at IS NULL
		ORDER BY expression_date, language`
	return r.listDocuments(ctx, "list documents", query, workID)
}

func (r *Repository) ListPublishedExpressions(ctx context.Context, workID uuid.UUID, language string) ([]*indigo.Document, error) {
	query := `
		SELECT ` + documentColumns + ` FROM documents
		WHERE work_id = $1 AND language = $2 AND draft = FALSE AND deleted_at IS NULL
		ORDER BY expression_date`
	return r.listDocuments(ctx, "list published expressions", query, workID, language)
}

func (r *Repository) LatestExpressions(ctx context.Context, uriPrefix, language string) ([]*indigo.Document, error) {
	query := `
		SELECT ` + documentColumns + ` FROM (
			SELECT DISTINCT ON (work_id) ` + documentColumns + `
			FROM documents
			WHERE lower(frbr_uri) LIKE lower($1) || '%'
				AND language = $2 AND draft = FALSE AND deleted_at IS NULL
			ORDER BY work_id, expression_date DESC
		) latest
		ORDER BY frbr_uri`
	return r.listDocuments(ctx, "latest expressions", query, uriPrefix, language)
}

// Amendment operations

func (r *Repository) CreateAmendment(ctx context.Context, amendment *indigo.Amendment) error {
	query := `
		INSERT INTO amendments (id, amending_work_id, amended_work_id, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		amendment.ID, amendment.AmendingWorkID, amendment.AmendedWorkID,
		dateArg(amendment.Date), amendment.CreatedAt, amendment.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create amendment", err)
	}
	return nil
}

func (r *Repository) scanAmendment(row pgx.Row) (*indigo.Amendment, error) {
	var amendment indigo.Amendment
	var date *time.Time
	err := row.Scan(
		&amendment.ID, &amendment.AmendingWorkID, &amendment.AmendedWorkID,
		&date, &amendment.CreatedAt, &amendment.UpdatedAt)
	if err != nil {
		return nil, err
	}
	amendment.Date = dateOf(date)
	return &amendment, nil
}

func (r *Repository) GetAmendment(ctx context.Context, id uuid.UUID) (*indigo.Amendment, error) {
	query := `
		SELECT id, amending_work_id, amended_work_id, date, created_at, updated_at
		FROM amendments WHERE id = $1`

	amendment, err := r.scanAmendment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, indigo.ErrAmendmentNotFound
		}
		return nil, r.handlePostgresError("get amendment", err)
	}
	return amendment, nil
}

func (r *Repository) UpdateAmendment(ctx context.Context, amendment *indigo.Amendment) error {
	query := `
		UPDATE amendments SET amending_work_id = $2, amended_work_id = $3, date = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		amendment.ID, amendment.AmendingWorkID, amendment.AmendedWorkID,
		dateArg(amendment.Date), amendment.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update amendment", err)
	}
	if tag.RowsAffected() == 0 {
		return indigo.ErrAmendmentNotFound
	}
	return nil
}

func (r *Repository) DeleteAmendment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM amendments WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete amendment", err)
	}
	if tag.RowsAffected() == 0 {
		return indigo.ErrAmendmentNotFound
	}
	return nil
}

func (r *Repository) ListAmendmentsForWork(ctx context.Context, amendedWorkID uuid.UUID) ([]*indigo.Amendment, error) {
	query := `
		SELECT id, amending_work_id, amended_work_id, date, created_at, updated_at
		FROM amendments WHERE amended_work_id = $1 ORDER BY date`

	rows, err := r.db.Query(ctx, query, amendedWorkID)
	if err != nil {
		return nil, r.handlePostgresError("list amendments", err)
	}
	defer rows.Close()

	var amendments []*indigo.Amendment
	for rows.Next() {
		amendment, err := r.scanAmendment(rows)
		if err != nil {
			return nil, err
		}
		amendments = append(amendments, amendment)
	}
	return amendments, rows.Err()
}

// Task operations

const taskColumns = `
	id, title, description, country, locality, work_id, document_id,
	state, assignee, created_by, created_at, updated_at, closed_at`

func (r *Repository) CreateTask(ctx context.Context, task *indigo.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		task.ID, task.Title, task.Description, task.Country, task.Locality,
		task.WorkID, task.DocumentID, task.State, task.Assignee, task.CreatedBy,
		task.CreatedAt, task.UpdatedAt, task.ClosedAt)
	if err != nil {
		return r.handlePostgresError("create task", err)
	}
	return nil
}

func (r *Repository) scanTask(row pgx.Row) (*indigo.Task, error) {
	var task indigo.Task
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.Country, &task.Locality,
		&task.WorkID, &task.DocumentID, &task.State, &task.Assignee, &task.CreatedBy,
		&task.CreatedAt, &task.UpdatedAt, &task.ClosedAt)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *Repository) GetTask(ctx context.Context, id uuid.UUID) (*indigo.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := r.scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, indigo.ErrTaskNotFound
		}
		return nil, r.handlePostgresError("get task", err)
	}
	return task, nil
}

func (r *Repository) UpdateTask(ctx context.Context, task *indigo.Task) error {
	query := `
		UPDATE tasks SET
			title = $2, description = $3, country = $4, locality = $5,
			work_id = $6, document_id = $7, state = $8, assignee = $9,
			updated_at = $10, closed_at = $11
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		task.ID, task.Title, task.Description, task.Country, task.Locality,
		task.WorkID, task.DocumentID, task.State, task.Assignee,
		task.UpdatedAt, task.ClosedAt)
	if err != nil {
		return r.handlePostgresError("update task", err)
	}
	if tag.RowsAffected() == 0 {
		return indigo.ErrTaskNotFound
	}
	return nil
}

func (r *Repository) ListTasks(ctx context.Context, filters indigo.TaskFilters) ([]*indigo.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []interface{}

	add := func(condition string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(" AND %s = $%d", condition, len(args))
	}
	if filters.Country != "" {
		add("country", filters.Country)
	}
	if filters.Locality != "" {
		add("locality", filters.Locality)
	}
	if filters.State != "" {
		add("state", filters.State)
	}
	if filters.Assignee != "" {
		add("assignee", filters.Assignee)
	}
	if filters.WorkID != nil {
		add("work_id", *filters.WorkID)
	}
	query += " ORDER BY created_at"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list tasks", err)
	}
	defer rows.Close()

	var tasks []*indigo.Task
	for rows.Next() {
		task, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Attachment operations

const attachmentColumns = `
	id, document_id, filename, mime_type, size, object_key, created_at, updated_at`

func (r *Repository) CreateAttachment(ctx context.Context, attachment *indigo.Attachment) error {
	query := `
		INSERT INTO attachments (` + attachmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		attachment.ID, attachment.DocumentID, attachment.Filename,
		attachment.MimeType, attachment.Size, attachment.ObjectKey,
		attachment.CreatedAt, attachment.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create attachment", err)
	}
	return nil
}

func (r *Repository) scanAttachment(row pgx.Row) (*indigo.Attachment, error) {
	var attachment indigo.Attachment
	err := row.Scan(
		&attachment.ID, &attachment.DocumentID, &attachment.Filename,
		&attachment.MimeType, &attachment.Size, &attachment.ObjectKey,
		&attachment.CreatedAt, &attachment.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *Repository) GetAttachment(ctx context.Context, id uuid.UUID) (*indigo.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE id = $1`

	attachment, err := r.scanAttachment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, indigo.ErrAttachmentNotFound
		}
		return nil, r.handlePostgresError("get attachment", err)
	}
	return attachment, nil
}

func (r *Repository) GetAttachmentByFilename(ctx context.Context, documentID uuid.UUID, filename string) (*indigo.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE document_id = $1 AND filename = $2`

	attachment, err := r.scanAttachment(r.db.QueryRow(ctx, query, documentID, filename))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, indigo.ErrAttachmentNotFound
		}
		return nil, r.handlePostgresError("get attachment by filename", err)
	}
	return attachment, nil
}

func (r *Repository) ListAttachmentsForDocument(ctx context.Context, documentID uuid.UUID) ([]*indigo.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE document_id = $1 ORDER BY filename`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, r.handlePostgresError("list attachments", err)
	}
	defer rows.Close()

	var attachments []*indigo.Attachment
	for rows.Next() {
		attachment, err := r.scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	return attachments, rows.Err()
}

func (r *Repository) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete attachment", err)
	}
	if tag.RowsAffected() == 0 {
		return indigo.ErrAttachmentNotFound
	}
	return nil
}

// Publication document operations

func (r *Repository) SetPublicationDocument(ctx context.Context, pubdoc *indigo.PublicationDocument) error {
	query := `
		INSERT INTO publication_documents (work_id, filename, trusted_url, object_key, mime_type, size, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (work_id) DO UPDATE SET
			filename = EXCLUDED.filename,
			trusted_url = EXCLUDED.trusted_url,
			object_key = EXCLUDED.object_key,
			mime_type = EXCLUDED.mime_type,
			size = EXCLUDED.size,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		pubdoc.WorkID, pubdoc.Filename, pubdoc.TrustedURL, pubdoc.ObjectKey,
		pubdoc.MimeType, pubdoc.Size, pubdoc.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("set publication document", err)
	}
	return nil
}

func (r *Repository) GetPublicationDocument(ctx context.Context, workID uuid.UUID) (*indigo.PublicationDocument, error) {
	query := `
		SELECT work_id, filename, trusted_url, object_key, mime_type, size, updated_at
		FROM publication_documents WHERE work_id = $1`

	var pubdoc indigo.PublicationDocument
	err := r.db.QueryRow(ctx, query, workID).Scan(
		&pubdoc.WorkID, &pubdoc.Filename, &pubdoc.TrustedURL, &pubdoc.ObjectKey,
		&pubdoc.MimeType, &pubdoc.Size, &pubdoc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, indigo.ErrPublicationDocumentNotFound
		}
		return nil, r.handlePostgresError("get publication document", err)
	}
	return &pubdoc, nil
}
