package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/feichai0017/pdf-processor/config"
	"github.com/feichai0017/pdf-processor/pkg/logger"
	"github.com/feichai0017/pdf-processor/pkg/storage/local"
	"github.com/feichai0017/pdf-processor/pkg/storage/minio"
	"github.com/feichai0017/pdf-processor/pkg/storage/s3"
)

type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Storage is a flat key/object store. Keys use '/' as separator on every backend.
type Storage interface {
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage builds the backend named by storageType. root is the base directory of the
// local backend and ignored by the others.
func NewStorage(ctx context.Context, storageType StorageType, cfg *config.Config, root string, log logger.Logger) (Storage, error) {
	switch StorageType(strings.ToLower(string(storageType))) {
	case StorageTypeLocal:
		return local.NewLocalStorage(root, log)
	case StorageTypeS3:
		return s3.NewS3Storage(ctx, cfg.Storage.S3, log)
	case StorageTypeMinio:
		return minio.NewMinioStorage(ctx, cfg.Storage.Minio, log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
