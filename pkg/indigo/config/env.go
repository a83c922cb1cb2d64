package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type envConfig struct {
	Port           string `env:"PORT" env-default:"8080"`
	Environment    string `env:"ENVIRONMENT" env-default:"development"`
	AuthSecret     string `env:"INDIGO_AUTH_SECRET" env-default:""`
	PageSize       int    `env:"INDIGO_API_PAGE_SIZE" env-default:"500"`
	RequestTimeout int    `env:"INDIGO_REQUEST_TIMEOUT" env-default:"60"`

	// "memory" or a postgres:// connection string.
	DatabaseURL string `env:"DATABASE_URL" env-default:""`

	MediaBackend string `env:"INDIGO_MEDIA_BACKEND" env-default:"memory"`

	FS struct {
		BaseDir   string `env:"INDIGO_FS_BASE_DIR" env-default:""`
		URLPrefix string `env:"INDIGO_FS_URL_PREFIX" env-default:""`
	}

	S3 struct {
		Bucket                 string `env:"AWS_S3_BUCKET" env-default:""`
		Region                 string `env:"AWS_S3_REGION" env-default:"us-east-1"`
		AccessKeyID            string `env:"AWS_ACCESS_KEY_ID" env-default:""`
		SecretAccessKey        string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
		Endpoint               string `env:"AWS_S3_ENDPOINT" env-default:""`
		UsePathStyle           bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
		PresignDuration        int    `env:"AWS_S3_PRESIGN_DURATION" env-default:"3600"`
		CreateBucketIfNotExist bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
	}

	PDFConverter     string `env:"INDIGO_PDF_CONVERTER" env-default:""`
	PDFConverterArgs string `env:"INDIGO_PDF_CONVERTER_ARGS" env-default:""`

	EnableEventLogging bool `env:"INDIGO_EVENT_LOGGING" env-default:"true"`
}

// WithEnv applies environment variable overrides.
//
// Database:
//
//	DATABASE_URL - empty or "memory" for the in-memory repository, or a
//	               postgres:// / postgresql:// connection string
//
// Storage backends are configured additively: the in-memory backend is
// always available, INDIGO_FS_BASE_DIR adds a filesystem backend, and
// AWS_S3_BUCKET adds an S3 backend. INDIGO_MEDIA_BACKEND picks which one
// holds attachments and publication documents.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		c.Port = env.Port
		c.Environment = env.Environment
		c.AuthSecret = env.AuthSecret
		c.PageSize = env.PageSize
		c.RequestTimeout = time.Duration(env.RequestTimeout) * time.Second
		c.EnableEventLogging = env.EnableEventLogging

		if err := applyDatabaseEnv(env, c); err != nil {
			return err
		}
		applyStorageEnv(env, c)

		c.PDFConverter = env.PDFConverter
		if env.PDFConverterArgs != "" {
			c.PDFConverterArgs = strings.Fields(env.PDFConverterArgs)
		}

		return nil
	}
}

func applyDatabaseEnv(env envConfig, c *ServerConfig) error {
	switch {
	case env.DatabaseURL == "" || env.DatabaseURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(env.DatabaseURL, "postgres://"),
		strings.HasPrefix(env.DatabaseURL, "postgresql://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = env.DatabaseURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", env.DatabaseURL)
	}
	return nil
}

func applyStorageEnv(env envConfig, c *ServerConfig) {
	backends := []StorageBackendConfig{
		{Name: "memory", Type: "memory"},
	}

	if env.FS.BaseDir != "" {
		backends = append(backends, StorageBackendConfig{
			Name:      "fs",
			Type:      "fs",
			BaseDir:   env.FS.BaseDir,
			URLPrefix: env.FS.URLPrefix,
		})
	}

	if env.S3.Bucket != "" {
		backends = append(backends, StorageBackendConfig{
			Name:                   "s3",
			Type:                   "s3",
			Region:                 env.S3.Region,
			Bucket:                 env.S3.Bucket,
			AccessKeyID:            env.S3.AccessKeyID,
			SecretAccessKey:        env.S3.SecretAccessKey,
			Endpoint:               env.S3.Endpoint,
			UsePathStyle:           env.S3.UsePathStyle,
			PresignDuration:        env.S3.PresignDuration,
			CreateBucketIfNotExist: env.S3.CreateBucketIfNotExist,
		})
	}

	c.StorageBackends = backends
	c.MediaBackend = env.MediaBackend
}
