package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// LocalStore writes artifacts to a directory. Handles are random uuids plus
// the extension of the media type, so client input never names a path.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	ext := ""
	if mt := mimetype.Lookup(mimeType); mt != nil {
		ext = mt.Extension()
	} else {
		ext = mimetype.Detect(data).Extension()
	}
	handle := uuid.New().String() + ext

	if err := os.WriteFile(filepath.Join(s.dir, handle), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media: %w", err)
	}
	return handle, nil
}

func (s *LocalStore) path(handle string) (string, error) {
	stem := strings.TrimSuffix(handle, filepath.Ext(handle))
	if _, err := uuid.Parse(stem); err != nil || filepath.Base(handle) != handle {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, handle), nil
}

func (s *LocalStore) Get(ctx context.Context, handle string) (*Object, error) {
	p, err := s.path(handle)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}
	return &Object{Data: data, MIMEType: mimetype.Detect(data).String()}, nil
}

func (s *LocalStore) Delete(ctx context.Context, handle string) error {
	p, err := s.path(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove media: %w", err)
	}
	return nil
}
