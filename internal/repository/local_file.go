package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mansoorceksport/bluefin/internal/domain"
)

// UploadsURLPrefix is where the server mounts the local upload directory
const UploadsURLPrefix = "/uploads"

// LocalFileRepository implements domain.FileRepository on the local disk,
// used when no S3 endpoint is configured
type LocalFileRepository struct {
	dir string
}

func NewLocalFileRepository(dir string) (*LocalFileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &LocalFileRepository{dir: dir}, nil
}

func (r *LocalFileRepository) Upload(ctx context.Context, file []byte, key string, contentType string) (*domain.StoredFile, error) {
	name := filepath.Base(key)
	if err := os.WriteFile(filepath.Join(r.dir, name), file, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	return &domain.StoredFile{
		Key: name,
		URL: UploadsURLPrefix + "/" + name,
	}, nil
}

func (r *LocalFileRepository) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(r.dir, filepath.Base(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}
