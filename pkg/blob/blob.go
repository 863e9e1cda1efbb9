package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/iota-uz/precinct/pkg/serrors"
)

var (
	ErrNotFound        = serrors.NewError("NOT_FOUND", "blob not found", "Errors.BlobNotFound")
	ErrUnsupportedType = serrors.NewError("VALIDATION_FAILED", "unsupported file type", "Errors.UnsupportedFileType")
	ErrTooLarge        = serrors.NewError("VALIDATION_FAILED", "file too large", "Errors.FileTooLarge")
)

// Object describes a stored blob. Path is the opaque identifier callers keep.
type Object struct {
	Path     string
	Mimetype string
	Size     int64
}

type Store interface {
	Store(ctx context.Context, name string, r io.Reader) (Object, error)
	Retrieve(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// FSStore keeps blobs under a root directory, content-addressed by SHA-256.
type FSStore struct {
	root    string
	maxSize int64
	allowed []string
}

// NewFSStore accepts only image and PDF content unless allowed is given.
func NewFSStore(root string, maxSize int64, allowed ...string) *FSStore {
	if len(allowed) == 0 {
		allowed = []string{"image/png", "image/jpeg", "image/webp", "application/pdf"}
	}
	return &FSStore{root: root, maxSize: maxSize, allowed: allowed}
}

func (s *FSStore) Store(_ context.Context, _ string, r io.Reader) (Object, error) {
	limit := s.maxSize
	if limit <= 0 {
		limit = 8 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Object{}, err
	}
	if int64(len(data)) > limit {
		return Object{}, ErrTooLarge.WithTemplateData(map[string]string{"limit": fmt.Sprint(limit)})
	}

	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), s.allowed...) {
		return Object{}, ErrUnsupportedType.WithTemplateData(map[string]string{"mimetype": mime.String()})
	}

	sum := sha256.Sum256(data)
	rel := filepath.ToSlash(filepath.Join(hex.EncodeToString(sum[:1]), hex.EncodeToString(sum[:])+mime.Extension()))
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Object{}, err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return Object{}, err
	}
	return Object{Path: rel, Mimetype: mime.String(), Size: int64(len(data))}, nil
}

func (s *FSStore) Retrieve(ctx context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Delete is idempotent; a missing blob is not an error.
func (s *FSStore) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FSStore) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if path == "" || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", ErrNotFound
	}
	return filepath.Join(s.root, clean), nil
}
