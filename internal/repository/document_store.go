package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// emptyDocument is the serialized form of a collection with no tickets.
var emptyDocument = []byte("[]")

// DocumentStore holds the single serialized ticket collection. Implementations
// are not safe for concurrent read-modify-write; the ticket repository
// serializes access.
type DocumentStore interface {
	// Init creates an empty document if none exists yet.
	Init(ctx context.Context) error
	// Read returns the raw document, or nil when it does not exist.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the whole document.
	Write(ctx context.Context, data []byte) error
}

// FileDocumentStore keeps the document in a JSON file. Writes go to a
// temporary file that is renamed over the target, so readers never observe a
// half-written document.
type FileDocumentStore struct {
	path string
}

// NewFileDocumentStore returns a store for the given path.
func NewFileDocumentStore(path string) *FileDocumentStore {
	return &FileDocumentStore{path: path}
}

// Path returns the backing file location.
func (s *FileDocumentStore) Path() string {
	return s.path
}

func (s *FileDocumentStore) Init(_ context.Context) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat store file: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(emptyDocument)); err != nil {
		return fmt.Errorf("create store file: %w", err)
	}
	return nil
}

func (s *FileDocumentStore) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	return data, nil
}

func (s *FileDocumentStore) Write(_ context.Context, data []byte) error {
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return nil
}
