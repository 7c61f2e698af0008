package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidKey = errors.New("invalid blob key")
)

// OptionImagePrefix is the key prefix of uploaded option images.
const OptionImagePrefix = "option-images"

var allowedImageExt = map[string]string{
	".png":  ".png",
	".jpg":  ".jpg",
	".jpeg": ".jpg",
	".gif":  ".gif",
	".webp": ".webp",
}

// FSStore keeps blobs under a base directory and hands out public URLs of the form
// {publicURL}/assets/{key}.
type FSStore struct {
	base      string
	publicURL string
	newID     func() string
}

func NewFSStore(base, publicURL string) (*FSStore, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, fmt.Errorf("blob base path is required")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FSStore{
		base:      base,
		publicURL: strings.TrimRight(strings.TrimSpace(publicURL), "/"),
		newID:     uuid.NewString,
	}, nil
}

// Upload stores r under a fresh key derived from name's extension and returns its URL.
func (s *FSStore) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext, ok := allowedImageExt[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", filepath.Ext(name))
	}
	key := path.Join(OptionImagePrefix, s.newID()+ext)

	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("store blob: %w", err)
	}
	return s.URL(key), nil
}

func (s *FSStore) URL(key string) string {
	return s.publicURL + "/assets/" + key
}

// Open returns the blob stored under key. The caller closes it.
func (s *FSStore) Open(key string) (*os.File, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (s *FSStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(key))
	if clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.base, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
