package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/feichai0017/pdf-processor/pkg/logger"
)

// LocalStorage keeps objects as files below a root directory.
type LocalStorage struct {
	root   string
	logger logger.Logger
}

func NewLocalStorage(root string, log logger.Logger) (*LocalStorage, error) {
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStorage{root: root, logger: log}, nil
}

// Root returns the base directory.
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *LocalStorage) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		s.logger.Error("Failed to store file",
			logger.String("path", path),
			logger.Error(err),
		)
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return key, nil
}

func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(threshold) {
			if err := os.Remove(path); err != nil {
				s.logger.Error("Failed to delete expired file",
					logger.String("path", path),
					logger.Error(err),
				)
				return nil
			}
			s.logger.Info("Deleted expired file",
				logger.String("path", path),
				logger.Time("lastModified", info.ModTime()),
			)
		}
		return nil
	})
}
