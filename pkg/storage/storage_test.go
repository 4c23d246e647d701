package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/pdf-processor/config"
	"github.com/feichai0017/pdf-processor/pkg/logger"
	"github.com/feichai0017/pdf-processor/pkg/storage/local"
)

func TestNewStorage(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	root := filepath.Join(t.TempDir(), "results")

	s, err := NewStorage(ctx, "LOCAL", cfg, root, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &local.LocalStorage{}, s)
	assert.DirExists(t, root)

	_, err = NewStorage(ctx, "ftp", cfg, root, logger.NewNop())
	assert.Error(t, err)
}

func TestNewStorage_RemoteNeedsBucket(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	_, err := NewStorage(ctx, StorageTypeS3, cfg, "", logger.NewNop())
	assert.Error(t, err)
	_, err = NewStorage(ctx, StorageTypeMinio, cfg, "", logger.NewNop())
	assert.Error(t, err)
}
