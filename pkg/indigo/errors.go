package indigo

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrCountryNotFound indicates an unknown country code.
	ErrCountryNotFound = errors.New("country not found")

	// ErrLocalityNotFound indicates an unknown locality for a country.
	ErrLocalityNotFound = errors.New("locality not found")

	// ErrWorkNotFound indicates no work matches the given id or FRBR URI.
	ErrWorkNotFound = errors.New("work not found")

	// ErrDocumentNotFound indicates no expression matches the given id or
	// point-in-time query.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrAmendmentNotFound indicates an amendment was not found.
	ErrAmendmentNotFound = errors.New("amendment not found")

	// ErrTaskNotFound indicates a task was not found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAttachmentNotFound indicates an attachment was not found.
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrPublicationDocumentNotFound indicates a work has no publication
	// document.
	ErrPublicationDocumentNotFound = errors.New("publication document not found")

	// ErrStorageBackendNotFound indicates a blob store name is not
	// registered.
	ErrStorageBackendNotFound = errors.New("storage backend not found")

	// ErrObjectNotFound indicates a key does not exist in a blob store.
	ErrObjectNotFound = errors.New("object not found")

	// ErrWorkInUse indicates a work cannot be deleted because expressions
	// or amendments still reference it.
	ErrWorkInUse = errors.New("work has documents or amendments and cannot be deleted")

	// ErrDuplicateExpression indicates an expression already exists for
	// the work, language and date.
	ErrDuplicateExpression = errors.New("expression already exists at this date")

	// ErrInvalidTaskState indicates an unknown task state.
	ErrInvalidTaskState = errors.New("invalid task state")

	// ErrInvalidTaskTransition indicates the requested action is not
	// allowed from the task's current state.
	ErrInvalidTaskTransition = errors.New("invalid task transition")

	// ErrInvalidFrbrURI indicates a citation string could not be parsed.
	ErrInvalidFrbrURI = errors.New("invalid FRBR URI")
)

// WorkError wraps an error from a work operation.
type WorkError struct {
	WorkID uuid.UUID
	Op     string
	Err    error
}

func (e *WorkError) Error() string {
	return fmt.Sprintf("work operation %s failed for work %s: %v", e.Op, e.WorkID, e.Err)
}

func (e *WorkError) Unwrap() error {
	return e.Err
}

// DocumentError wraps an error from a document operation.
type DocumentError struct {
	DocumentID uuid.UUID
	Op         string
	Err        error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document operation %s failed for document %s: %v", e.Op, e.DocumentID, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// StorageError wraps an error from a blob store operation.
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
