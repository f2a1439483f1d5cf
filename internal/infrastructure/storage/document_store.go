package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"farmvet-auth.backend/internal/domain/entities"
)

// DefaultMaxBytes is the largest accepted document
const DefaultMaxBytes = 2 * 1024 * 1024

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

var (
	ErrUnsupportedType = errors.New("Only .jpg, .jpeg and .png files are allowed.")
	ErrTooLarge        = errors.New("File size must be under 2MB.")
	ErrEmptyDocument   = errors.New("The submitted file is empty.")
)

// FileStore keeps documents on the local filesystem under root/<kind>/
type FileStore struct {
	root     string
	maxBytes int64
}

// NewFileStore creates a new file store
func NewFileStore(root string, maxBytes int64) *FileStore {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &FileStore{root: root, maxBytes: maxBytes}
}

// Validate checks the extension and size of doc
func (s *FileStore) Validate(doc *entities.Document) error {
	ext := strings.ToLower(filepath.Ext(doc.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return ErrUnsupportedType
	}
	size := doc.Size
	if size == 0 {
		size = int64(len(doc.Content))
	}
	if size == 0 {
		return ErrEmptyDocument
	}
	if size > s.maxBytes {
		return ErrTooLarge
	}
	return nil
}

// Save writes doc and returns its path relative to the store root
func (s *FileStore) Save(_ context.Context, accountID uuid.UUID, kind string, doc *entities.Document) (string, error) {
	if err := s.Validate(doc); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, kind)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s%s", accountID, uuid.NewString()[:8], strings.ToLower(filepath.Ext(doc.Filename)))
	if err := os.WriteFile(filepath.Join(dir, name), doc.Content, 0o640); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return filepath.ToSlash(filepath.Join(kind, name)), nil
}

// Delete removes a stored document. Missing files are not an error.
func (s *FileStore) Delete(_ context.Context, path string) error {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("invalid document path %q", path)
	}
	err := os.Remove(filepath.Join(s.root, clean))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
