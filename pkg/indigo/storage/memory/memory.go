// Package memory provides an in-memory blob store, used in tests.
package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
)

// Backend is an in-memory implementation of the indigo.BlobStore interface.
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
	updated map[string]time.Time
}

// New creates a new in-memory storage backend.
func New() indigo.BlobStore {
	return &Backend{
		objects: make(map[string][]byte),
		updated: make(map[string]time.Time),
	}
}

func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return &indigo.StorageError{Backend: "memory", Key: objectKey, Op: "upload", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[objectKey] = data
	b.updated[objectKey] = time.Now()
	return nil
}

func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, indigo.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return indigo.ErrObjectNotFound
	}
	delete(b.objects, objectKey)
	delete(b.updated, objectKey)
	return nil
}

func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*indigo.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, indigo.ErrObjectNotFound
	}

	contentType := http.DetectContentType(data)
	return &indigo.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(data)),
		ContentType: contentType,
		UpdatedAt:   b.updated[objectKey],
		Metadata:    map[string]string{"content_type": contentType},
	}, nil
}

// GetDownloadURL is unsupported; memory objects must be streamed directly.
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	return "", errors.New("direct download required for memory backend")
}
