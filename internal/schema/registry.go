// Package schema holds the ordered, user-editable set of column definitions
// and enforces the rules that keep column keys usable as row field names.
package schema

import (
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// keyPattern is the identifier-safe shape of a column key.
var keyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// KeyChange is returned by Update so callers can reconcile row data.
type KeyChange struct {
	OldKey string
	NewKey string
	// OldID is the id the column had before the update. It differs from the
	// new id only when ids are derived from keys.
	OldID string
}

// Renamed reports whether the key changed.
func (c KeyChange) Renamed() bool {
	return c.OldKey != c.NewKey
}

// Registry owns the column list. Order is display order.
// It is not safe for concurrent use; callers serialize access.
type Registry struct {
	columns    []core.ColumnDefinition
	newID      func(key string) string
	keyDerived bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDFunc sets the generator used for ids of newly created columns.
func WithIDFunc(fn func(key string) string) Option {
	return func(r *Registry) {
		r.newID = fn
	}
}

// WithKeyDerivedIDs makes every created or edited column take its key as id,
// so a rename also changes the column's identity.
func WithKeyDerivedIDs() Option {
	return func(r *Registry) {
		r.keyDerived = true
		r.newID = func(key string) string { return key }
	}
}

// NewRegistry creates a registry over a copy of columns. When no column has
// the "name" key, the default name column is prepended.
func NewRegistry(columns []core.ColumnDefinition, opts ...Option) *Registry {
	r := &Registry{
		newID: func(string) string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}

	r.columns = make([]core.ColumnDefinition, 0, len(columns)+1)
	if _, ok := core.FindColumn(columns, core.NameKey); !ok {
		r.columns = append(r.columns, core.NameColumn())
	}
	for _, col := range columns {
		r.columns = append(r.columns, col.Clone())
	}
	return r
}

// Columns returns a copy of all columns in display order.
func (r *Registry) Columns() []core.ColumnDefinition {
	out := make([]core.ColumnDefinition, len(r.columns))
	for i, col := range r.columns {
		out[i] = col.Clone()
	}
	return out
}

// Visible returns the visible columns in display order.
func (r *Registry) Visible() []core.ColumnDefinition {
	var out []core.ColumnDefinition
	for _, col := range r.columns {
		if col.Visible {
			out = append(out, col.Clone())
		}
	}
	return out
}

// Get returns the column with the given id.
func (r *Registry) Get(id string) (core.ColumnDefinition, bool) {
	if i := r.index(id); i >= 0 {
		return r.columns[i].Clone(), true
	}
	return core.ColumnDefinition{}, false
}

// ByKey returns the column with the given key.
func (r *Registry) ByKey(key string) (core.ColumnDefinition, bool) {
	col, ok := core.FindColumn(r.columns, key)
	return col.Clone(), ok
}

func (r *Registry) index(id string) int {
	return slices.IndexFunc(r.columns, func(c core.ColumnDefinition) bool { return c.ID == id })
}

// Create validates def, assigns its id and appends it.
func (r *Registry) Create(def core.ColumnDefinition) (core.ColumnDefinition, error) {
	col := normalize(def)
	col.ID = ""
	if err := Validate(col, "", r.columns); err != nil {
		return core.ColumnDefinition{}, err
	}

	col.ID = r.newID(col.Key)
	r.columns = append(r.columns, col)
	return col.Clone(), nil
}

// Update replaces the column identified by targetID in place.
// The name column keeps its key and stays a required, visible string column.
func (r *Registry) Update(targetID string, def core.ColumnDefinition) (core.ColumnDefinition, KeyChange, error) {
	i := r.index(targetID)
	if i < 0 {
		return core.ColumnDefinition{}, KeyChange{}, core.NotFound(core.EntityColumn, targetID)
	}
	current := r.columns[i]

	if current.IsPinned() {
		def.Type = core.ColumnTypeString
	}
	col := normalize(def)
	if current.IsPinned() {
		if col.Key != core.NameKey {
			return core.ColumnDefinition{}, KeyChange{}, core.ErrPinnedColumn
		}
		col.Required = true
		col.Visible = true
	}
	if err := Validate(col, current.ID, r.columns); err != nil {
		return core.ColumnDefinition{}, KeyChange{}, err
	}

	col.ID = current.ID
	if r.keyDerived {
		col.ID = col.Key
	}
	r.columns[i] = col

	return col.Clone(), KeyChange{OldKey: current.Key, NewKey: col.Key, OldID: current.ID}, nil
}

// Delete removes the column identified by targetID and returns it.
// Deleting the name column fails with core.ErrPinnedColumn and changes nothing.
func (r *Registry) Delete(targetID string) (core.ColumnDefinition, error) {
	i := r.index(targetID)
	if i < 0 {
		return core.ColumnDefinition{}, core.NotFound(core.EntityColumn, targetID)
	}
	col := r.columns[i]
	if col.IsPinned() {
		return core.ColumnDefinition{}, core.ErrPinnedColumn
	}

	r.columns = slices.Delete(r.columns, i, i+1)
	return col, nil
}

// SetVisible toggles only the visible flag. The name column cannot be hidden.
func (r *Registry) SetVisible(targetID string, visible bool) (core.ColumnDefinition, error) {
	i := r.index(targetID)
	if i < 0 {
		return core.ColumnDefinition{}, core.NotFound(core.EntityColumn, targetID)
	}
	if r.columns[i].IsPinned() && !visible {
		return core.ColumnDefinition{}, core.ErrPinnedColumn
	}

	r.columns[i].Visible = visible
	return r.columns[i].Clone(), nil
}

// normalize trims text fields and drops number-only settings from string columns.
func normalize(def core.ColumnDefinition) core.ColumnDefinition {
	col := def.Clone()
	col.Key = strings.TrimSpace(col.Key)
	col.Label = strings.TrimSpace(col.Label)
	if col.Type != core.ColumnTypeNumber {
		col.DecimalScale = nil
		col.OptimalValue = core.OptimalNone
	}
	return col
}
