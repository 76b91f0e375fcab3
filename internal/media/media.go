package media

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("media not found")

// Object is a stored artifact.
type Object struct {
	Data     []byte
	MIMEType string
}

// Store keeps fetched artifacts addressable by an opaque handle.
type Store interface {
	Put(ctx context.Context, data []byte, mimeType string) (string, error)
	Get(ctx context.Context, handle string) (*Object, error)
	Delete(ctx context.Context, handle string) error
}
