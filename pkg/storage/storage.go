package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/noah-isme/lob-api/pkg/config"
)

// ErrNotFound is returned when a blob does not exist.
var ErrNotFound = errors.New("blob not found")

// BlobStorage abstracts the blob backends used for attachments and receipts.
type BlobStorage interface {
	Exists(ctx context.Context, path string) (bool, error)
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// New builds the backend selected by cfg.Provider.
func New(ctx context.Context, cfg config.StorageConfig) (BlobStorage, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "local":
		return NewLocalStorage(cfg.LocalDir)
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}
