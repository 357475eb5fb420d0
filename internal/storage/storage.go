package storage

import (
	"context"
	"io"
)

// FileStorage persists story media and returns a public URL for it.
type FileStorage interface {
	SaveFile(ctx context.Context, file io.Reader, filename string, contentType string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
}
