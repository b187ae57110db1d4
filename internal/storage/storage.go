package storage

import (
	"context"
	"fmt"
	"io"
)

// Storage persists receipt artifacts.
type Storage interface {
	// Save stores the artifact at path and returns nothing; URL resolution
	// is separate so backends can serve from a CDN base.
	Save(ctx context.Context, path string, reader io.Reader, contentType string) error

	// Get opens the artifact at path.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists checks whether an artifact is present.
	Exists(ctx context.Context, path string) (bool, error)

	// GetURL returns the public URL for an artifact.
	GetURL(ctx context.Context, path string) (string, error)
}

// Config selects a storage backend.
type Config struct {
	Type      string // local, s3
	BasePath  string // local
	BaseURL   string // public URL base
	Bucket    string // s3
	Region    string // s3
	AccessKey string // s3
	SecretKey string // s3
	Endpoint  string // s3-compatible endpoints (Cloudflare R2 etc.)
}

func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local", "":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
