package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

// Document is the on-disk layout of the flat JSON backend and of seed files.
type Document struct {
	Columns   []core.ColumnDefinition `json:"columns"`
	Countries []core.Row              `json:"countries"`
}

// JSONFileStore keeps both collections in memory and rewrites a single JSON
// document after every mutation.
type JSONFileStore struct {
	*MemoryStore

	path   string
	logger *slog.Logger

	wmu         sync.Mutex
	lastWritten []byte
}

// NewJSONFileStore creates a store backed by the file at path.
// If logger is nil, a discard logger is used.
func NewJSONFileStore(path string, logger *slog.Logger) *JSONFileStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &JSONFileStore{MemoryStore: NewMemoryStore(), path: path, logger: logger}
}

// Path returns the data file path.
func (s *JSONFileStore) Path() string {
	return s.path
}

// Open loads the data file. A missing file is an empty store and is created
// on the first write.
func (s *JSONFileStore) Open() error {
	_, err := s.reload()
	return err
}

// Reload re-reads the data file after an external edit. It reports false
// when the file still holds what this store last wrote.
func (s *JSONFileStore) Reload() (bool, error) {
	return s.reload()
}

func (s *JSONFileStore) reload() (bool, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.load(nil, nil)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if s.lastWritten != nil && bytes.Equal(data, s.lastWritten) {
		return false, nil
	}

	doc, err := DecodeDocument(data)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	s.load(doc.Columns, doc.Countries)
	s.lastWritten = data
	s.logger.Debug("data file loaded", "path", s.path, "columns", len(doc.Columns), "countries", len(doc.Countries))
	return true, nil
}

// DecodeDocument parses a JSON document. Missing collections decode as empty.
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if len(bytes.TrimSpace(data)) == 0 {
		return &doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// persist writes the current state atomically. Callers hold wmu.
func (s *JSONFileStore) persist() error {
	cols, rows := s.snapshot()
	data, err := json.MarshalIndent(Document{Columns: cols, Countries: rows}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ratetable-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	s.lastWritten = data
	return nil
}

// mutate runs fn against the in-memory store and persists on success.
func (s *JSONFileStore) mutate(fn func() error) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	return s.persist()
}

// CreateColumn appends col and rewrites the file.
func (s *JSONFileStore) CreateColumn(ctx context.Context, col core.ColumnDefinition) (*core.ColumnDefinition, error) {
	var out *core.ColumnDefinition
	err := s.mutate(func() (err error) {
		out, err = s.MemoryStore.CreateColumn(ctx, col)
		return err
	})
	return out, err
}

// UpdateColumn replaces a column and rewrites the file.
func (s *JSONFileStore) UpdateColumn(ctx context.Context, id string, col core.ColumnDefinition) (*core.ColumnDefinition, error) {
	var out *core.ColumnDefinition
	err := s.mutate(func() (err error) {
		out, err = s.MemoryStore.UpdateColumn(ctx, id, col)
		return err
	})
	return out, err
}

// DeleteColumn removes a column and rewrites the file.
func (s *JSONFileStore) DeleteColumn(ctx context.Context, id string) error {
	return s.mutate(func() error { return s.MemoryStore.DeleteColumn(ctx, id) })
}

// ReplaceColumns swaps the column collection and rewrites the file.
func (s *JSONFileStore) ReplaceColumns(ctx context.Context, cols []core.ColumnDefinition) error {
	return s.mutate(func() error { return s.MemoryStore.ReplaceColumns(ctx, cols) })
}

// CreateRow appends a row and rewrites the file.
func (s *JSONFileStore) CreateRow(ctx context.Context, row core.Row) (*core.Row, error) {
	var out *core.Row
	err := s.mutate(func() (err error) {
		out, err = s.MemoryStore.CreateRow(ctx, row)
		return err
	})
	return out, err
}

// UpdateRow replaces a row and rewrites the file.
func (s *JSONFileStore) UpdateRow(ctx context.Context, id string, row core.Row) (*core.Row, error) {
	var out *core.Row
	err := s.mutate(func() (err error) {
		out, err = s.MemoryStore.UpdateRow(ctx, id, row)
		return err
	})
	return out, err
}

// DeleteRow removes a row and rewrites the file.
func (s *JSONFileStore) DeleteRow(ctx context.Context, id string) error {
	return s.mutate(func() error { return s.MemoryStore.DeleteRow(ctx, id) })
}

// ReplaceRows swaps the row collection and rewrites the file.
func (s *JSONFileStore) ReplaceRows(ctx context.Context, rows []core.Row) error {
	return s.mutate(func() error { return s.MemoryStore.ReplaceRows(ctx, rows) })
}
