package domain

import (
	"context"
)

// StoredFile describes an uploaded object
type StoredFile struct {
	Key string // storage key, used for deletion
	URL string // path or URL clients fetch the file from
}

// FileRepository defines the interface for file storage operations
type FileRepository interface {
	// Upload saves a file under key
	Upload(ctx context.Context, file []byte, key string, contentType string) (*StoredFile, error)
	// Delete removes a previously stored file
	Delete(ctx context.Context, key string) error
}
