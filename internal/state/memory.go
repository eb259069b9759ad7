package state

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

// MemoryStore implements core.Store in memory. It backs the JSON file store
// and is used directly in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	columns []core.ColumnDefinition
	rows    []core.Row
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Close marks the store closed. Later calls return ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// --- Column operations ---

// ListColumns returns all columns in insertion order.
func (s *MemoryStore) ListColumns(_ context.Context) ([]core.ColumnDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, core.ErrStoreClosed
	}
	out := make([]core.ColumnDefinition, len(s.columns))
	for i, col := range s.columns {
		out[i] = col.Clone()
	}
	return out, nil
}

// GetColumn returns the column with the given id.
func (s *MemoryStore) GetColumn(_ context.Context, id string) (*core.ColumnDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, core.ErrStoreClosed
	}
	i := s.columnIndex(id)
	if i < 0 {
		return nil, core.NotFound(core.EntityColumn, id)
	}
	col := s.columns[i].Clone()
	return &col, nil
}

// CreateColumn appends col. Both id and key must be unused.
func (s *MemoryStore) CreateColumn(_ context.Context, col core.ColumnDefinition) (*core.ColumnDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, core.ErrStoreClosed
	}
	if col.ID == "" {
		col.ID = uuid.NewString()
	}
	if err := s.checkColumnUnique(col, -1); err != nil {
		return nil, err
	}
	s.columns = append(s.columns, col.Clone())
	return &col, nil
}

// UpdateColumn replaces the column with the given id in place. An empty
// col.ID keeps the current id; any other value renames it.
func (s *MemoryStore) UpdateColumn(_ context.Context, id string, col core.ColumnDefinition) (*core.ColumnDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, core.ErrStoreClosed
	}
	i := s.columnIndex(id)
	if i < 0 {
		return nil, core.NotFound(core.EntityColumn, id)
	}
	if col.ID == "" {
		col.ID = id
	}
	if err := s.checkColumnUnique(col, i); err != nil {
		return nil, err
	}
	s.columns[i] = col.Clone()
	return &col, nil
}

// DeleteColumn removes the column with the given id.
func (s *MemoryStore) DeleteColumn(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrStoreClosed
	}
	i := s.columnIndex(id)
	if i < 0 {
		return core.NotFound(core.EntityColumn, id)
	}
	s.columns = slices.Delete(s.columns, i, i+1)
	return nil
}

// ReplaceColumns swaps the whole column collection.
func (s *MemoryStore) ReplaceColumns(_ context.Context, cols []core.ColumnDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrStoreClosed
	}
	next := make([]core.ColumnDefinition, 0, len(cols))
	ids, keys := map[string]bool{}, map[string]bool{}
	for _, col := range cols {
		if col.ID == "" {
			col.ID = uuid.NewString()
		}
		if ids[col.ID] {
			return &core.ConflictError{Entity: core.EntityColumn, Field: "id", Value: col.ID}
		}
		if keys[col.Key] {
			return &core.ConflictError{Entity: core.EntityColumn, Field: "key", Value: col.Key}
		}
		ids[col.ID], keys[col.Key] = true, true
		next = append(next, col.Clone())
	}
	s.columns = next
	return nil
}

func (s *MemoryStore) columnIndex(id string) int {
	return slices.IndexFunc(s.columns, func(c core.ColumnDefinition) bool { return c.ID == id })
}

func (s *MemoryStore) checkColumnUnique(col core.ColumnDefinition, self int) error {
	for i, other := range s.columns {
		if i == self {
			continue
		}
		if other.ID == col.ID {
			return &core.ConflictError{Entity: core.EntityColumn, Field: "id", Value: col.ID}
		}
		if other.Key == col.Key {
			return &core.ConflictError{Entity: core.EntityColumn, Field: "key", Value: col.Key}
		}
	}
	return nil
}

// --- Row operations ---

// ListRows returns all rows in insertion order.
func (s *MemoryStore) ListRows(_ context.Context) ([]core.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, core.ErrStoreClosed
	}
	out := make([]core.Row, len(s.rows))
	for i, row := range s.rows {
		out[i] = row.Clone()
	}
	return out, nil
}

// GetRow returns the row with the given id.
func (s *MemoryStore) GetRow(_ context.Context, id string) (*core.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, core.ErrStoreClosed
	}
	i := s.rowIndex(id)
	if i < 0 {
		return nil, core.NotFound(core.EntityCountry, id)
	}
	row := s.rows[i].Clone()
	return &row, nil
}

// CreateRow appends row, assigning a UUID when it has no id.
func (s *MemoryStore) CreateRow(_ context.Context, row core.Row) (*core.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, core.ErrStoreClosed
	}
	row = row.Clone()
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := s.checkRowUnique(row, -1); err != nil {
		return nil, err
	}
	s.rows = append(s.rows, row.Clone())
	return &row, nil
}

// UpdateRow replaces the fields of the row with the given id.
func (s *MemoryStore) UpdateRow(_ context.Context, id string, row core.Row) (*core.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, core.ErrStoreClosed
	}
	i := s.rowIndex(id)
	if i < 0 {
		return nil, core.NotFound(core.EntityCountry, id)
	}
	row = row.Clone()
	row.ID = id
	if err := s.checkRowUnique(row, i); err != nil {
		return nil, err
	}
	s.rows[i] = row.Clone()
	return &row, nil
}

// DeleteRow removes the row with the given id.
func (s *MemoryStore) DeleteRow(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrStoreClosed
	}
	i := s.rowIndex(id)
	if i < 0 {
		return core.NotFound(core.EntityCountry, id)
	}
	s.rows = slices.Delete(s.rows, i, i+1)
	return nil
}

// ReplaceRows swaps the whole row collection.
func (s *MemoryStore) ReplaceRows(_ context.Context, rows []core.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrStoreClosed
	}
	next := make([]core.Row, 0, len(rows))
	ids, names := map[string]bool{}, map[string]bool{}
	for _, row := range rows {
		row = row.Clone()
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if ids[row.ID] {
			return &core.ConflictError{Entity: core.EntityCountry, Field: "id", Value: row.ID}
		}
		if names[row.Name()] {
			return &core.ConflictError{Entity: core.EntityCountry, Field: core.NameKey, Value: row.Name()}
		}
		ids[row.ID], names[row.Name()] = true, true
		next = append(next, row)
	}
	s.rows = next
	return nil
}

func (s *MemoryStore) rowIndex(id string) int {
	return slices.IndexFunc(s.rows, func(r core.Row) bool { return r.ID == id })
}

func (s *MemoryStore) checkRowUnique(row core.Row, self int) error {
	for i, other := range s.rows {
		if i == self {
			continue
		}
		if other.ID == row.ID {
			return &core.ConflictError{Entity: core.EntityCountry, Field: "id", Value: row.ID}
		}
		if other.Name() == row.Name() {
			return &core.ConflictError{Entity: core.EntityCountry, Field: core.NameKey, Value: row.Name()}
		}
	}
	return nil
}

// snapshot returns copies of both collections for serialization.
func (s *MemoryStore) snapshot() ([]core.ColumnDefinition, []core.Row) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols := make([]core.ColumnDefinition, len(s.columns))
	for i, c := range s.columns {
		cols[i] = c.Clone()
	}
	rows := make([]core.Row, len(s.rows))
	for i, r := range s.rows {
		rows[i] = r.Clone()
	}
	return cols, rows
}

// load replaces both collections without uniqueness checks.
func (s *MemoryStore) load(cols []core.ColumnDefinition, rows []core.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = cols
	s.rows = rows
}
