// Package config builds a fully wired legislation service from
// configuration: repository, storage backends, renderers and the HTTP
// router options.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/api"
	memoryrepo "github.com/ArchitectOnNet/indigo/pkg/indigo/repo/memory"
	postgresrepo "github.com/ArchitectOnNet/indigo/pkg/indigo/repo/postgres"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/render"
	fsstorage "github.com/ArchitectOnNet/indigo/pkg/indigo/storage/fs"
	memorystorage "github.com/ArchitectOnNet/indigo/pkg/indigo/storage/memory"
	s3storage "github.com/ArchitectOnNet/indigo/pkg/indigo/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top
// of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:           "8080",
		Environment:    "development",
		DatabaseType:   "memory",
		MediaBackend:   "memory",
		PageSize:       500,
		RequestTimeout: 60 * time.Second,
		StorageBackends: []StorageBackendConfig{
			{Name: "memory", Type: "memory"},
		},
		EnableEventLogging: true,
	}
}

// ServerConfig holds everything needed to run the legislation server.
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// API options.
	AuthSecret     string
	PageSize       int
	RequestTimeout time.Duration

	// Database configuration.
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Storage configuration. MediaBackend names the backend attachments
	// and publication documents are stored in.
	MediaBackend    string
	StorageBackends []StorageBackendConfig

	// Path to an external HTML-to-PDF converter. PDF renditions are
	// disabled when empty.
	PDFConverter     string
	PDFConverterArgs []string

	EnableEventLogging bool
}

// StorageBackendConfig describes one storage backend.
type StorageBackendConfig struct {
	Name string
	Type string // "memory", "fs", "s3"

	// Filesystem options.
	BaseDir   string
	URLPrefix string

	// S3 options.
	Region                 string
	Bucket                 string
	AccessKeyID            string
	SecretAccessKey        string
	Endpoint               string
	UsePathStyle           bool
	PresignDuration        int
	CreateBucketIfNotExist bool
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	found := false
	for _, backend := range c.StorageBackends {
		if backend.Name == c.MediaBackend {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("media backend %q not found in configured backends", c.MediaBackend)
	}

	return nil
}

// BuildService creates a Service instance from the server configuration.
func (c *ServerConfig) BuildService() (indigo.Service, error) {
	var options []indigo.Option

	repo, err := c.buildRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	options = append(options, indigo.WithRepository(repo))

	for _, backendConfig := range c.StorageBackends {
		store, err := buildStorageBackend(backendConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build storage backend %s: %w", backendConfig.Name, err)
		}
		options = append(options, indigo.WithBlobStore(backendConfig.Name, store))
	}
	options = append(options, indigo.WithMediaBackend(c.MediaBackend))

	if c.EnableEventLogging {
		options = append(options, indigo.WithEventSink(indigo.NewLogEventSink(nil)))
	}

	return indigo.New(options...)
}

// BuildRenderers creates the rendition registry, registering the PDF
// renderer when a converter is configured.
func (c *ServerConfig) BuildRenderers() *render.Registry {
	registry := render.NewRegistry()
	if c.PDFConverter != "" {
		registry.Register("pdf", render.NewPDF(c.PDFConverter, c.PDFConverterArgs...))
	}
	return registry
}

// RouterConfig returns the HTTP router options.
func (c *ServerConfig) RouterConfig() api.Config {
	return api.Config{
		AuthSecret:     c.AuthSecret,
		PageSize:       c.PageSize,
		RequestTimeout: c.RequestTimeout,
	}
}

// buildRepository creates a Repository based on the configuration.
func (c *ServerConfig) buildRepository() (indigo.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memoryrepo.New(), nil
	case "postgres":
		pool, err := NewPool(context.Background(), c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return postgresrepo.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// NewPool creates a pgx connection pool and verifies connectivity.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database_url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// buildStorageBackend creates a BlobStore from a backend configuration.
func buildStorageBackend(config StorageBackendConfig) (indigo.BlobStore, error) {
	switch config.Type {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   config.BaseDir,
			URLPrefix: config.URLPrefix,
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 config.Region,
			Bucket:                 config.Bucket,
			AccessKeyID:            config.AccessKeyID,
			SecretAccessKey:        config.SecretAccessKey,
			Endpoint:               config.Endpoint,
			UsePathStyle:           config.UsePathStyle,
			PresignDuration:        config.PresignDuration,
			CreateBucketIfNotExist: config.CreateBucketIfNotExist,
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", config.Type)
	}
}
