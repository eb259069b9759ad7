// Package editor holds the working set of columns and rows that the API and
// CLI mutate. Every mutation updates memory synchronously and then enqueues
// the matching store writes on the outbox; a failed write is not rolled back.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"

	"github.com/leapstack-labs/ratetable/internal/outbox"
	"github.com/leapstack-labs/ratetable/internal/ranking"
	"github.com/leapstack-labs/ratetable/internal/schema"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// Editor is the explicit in-memory working set. It is safe for concurrent use.
type Editor struct {
	store  core.Store
	outbox *outbox.Outbox
	logger *slog.Logger

	locale      language.Tag
	topN        int
	registryOpt []schema.Option

	mu       sync.RWMutex
	registry *schema.Registry
	rows     []core.Row
	sorter   *ranking.Sorter
	ranker   *ranking.Ranker
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the editor's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLocale sets the collation locale for sorting and the leaderboard.
func WithLocale(tag language.Tag) Option {
	return func(e *Editor) {
		e.locale = tag
	}
}

// WithTopN sets how many leading entries win each metric column.
func WithTopN(n int) Option {
	return func(e *Editor) {
		e.topN = n
	}
}

// WithRegistryOptions passes options to the schema registry.
func WithRegistryOptions(opts ...schema.Option) Option {
	return func(e *Editor) {
		e.registryOpt = append(e.registryOpt, opts...)
	}
}

// New creates an empty editor over store. Call Load before use.
func New(store core.Store, ob *outbox.Outbox, opts ...Option) *Editor {
	e := &Editor{
		store:  store,
		outbox: ob,
		logger: slog.New(slog.DiscardHandler),
		locale: ranking.DefaultLocale,
		topN:   ranking.DefaultTopN,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sorter = ranking.NewSorter(e.locale)
	e.ranker = ranking.NewRanker(e.locale, e.topN)
	e.registry = schema.NewRegistry(nil, e.registryOpt...)
	return e
}

// Load replaces the working set with the store's columns and rows. Rows are
// conformed to the schema, so keys without a column are dropped. A store
// without a name column gets one, persisted through the outbox.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(ctx)
}

func (e *Editor) loadLocked(ctx context.Context) error {
	cols, err := e.store.ListColumns(ctx)
	if err != nil {
		return fmt.Errorf("failed to load columns: %w", err)
	}
	rows, err := e.store.ListRows(ctx)
	if err != nil {
		return fmt.Errorf("failed to load countries: %w", err)
	}

	registry := schema.NewRegistry(cols, e.registryOpt...)
	columns := registry.Columns()
	conformed := make([]core.Row, len(rows))
	for i, row := range rows {
		conformed[i] = ranking.Conform(row, columns)
	}

	e.registry = registry
	e.rows = conformed

	if _, ok := core.FindColumn(cols, core.NameKey); !ok {
		e.logger.Info("adding missing name column")
		e.outbox.Enqueue(outbox.ReplaceColumns(columns))
	}

	e.logger.Debug("working set loaded", "columns", len(columns), "countries", len(conformed))
	return nil
}

// Columns returns all columns in display order.
func (e *Editor) Columns() []core.ColumnDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Columns()
}

// VisibleColumns returns the visible columns in display order.
func (e *Editor) VisibleColumns() []core.ColumnDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Visible()
}

// Column returns the column with the given id.
func (e *Editor) Column(id string) (core.ColumnDefinition, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	col, ok := e.registry.Get(id)
	if !ok {
		return core.ColumnDefinition{}, core.NotFound(core.EntityColumn, id)
	}
	return col, nil
}

// Rows returns the rows in storage order.
func (e *Editor) Rows() []core.Row {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneRows(e.rows)
}

// Row returns the row with the given id.
func (e *Editor) Row(id string) (core.Row, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i := e.rowIndex(id)
	if i < 0 {
		return core.Row{}, core.NotFound(core.EntityCountry, id)
	}
	return e.rows[i].Clone(), nil
}

// --- Column mutations ---

// CreateColumn adds a column and gives every row its default value.
func (e *Editor) CreateColumn(def core.ColumnDefinition) (core.ColumnDefinition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	col, err := e.registry.Create(def)
	if err != nil {
		return core.ColumnDefinition{}, err
	}
	before := e.rows
	e.rows = ranking.ReconcileOnColumnCreate(e.rows, col)

	e.outbox.Enqueue(outbox.CreateColumn(col))
	e.enqueueRowRewrites(before, e.rows)
	e.logger.Info("column created", "id", col.ID, "key", col.Key)
	return col, nil
}

// EditColumn replaces a column definition. A key change moves every row's
// value to the new key.
func (e *Editor) EditColumn(id string, def core.ColumnDefinition) (core.ColumnDefinition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	col, change, err := e.registry.Update(id, def)
	if err != nil {
		return core.ColumnDefinition{}, err
	}
	before := e.rows
	if change.Renamed() {
		e.rows = ranking.ReconcileOnColumnRename(e.rows, change.OldKey, change.NewKey)
	}
	e.rows = fillAll(e.rows, []core.ColumnDefinition{col})

	e.outbox.Enqueue(outbox.UpdateColumn(change.OldID, col))
	e.enqueueRowRewrites(before, e.rows)
	e.logger.Info("column updated", "id", col.ID, "old_key", change.OldKey, "key", col.Key)
	return col, nil
}

// DeleteColumn removes a column and strips its key from every row.
func (e *Editor) DeleteColumn(id string) (core.ColumnDefinition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	col, err := e.registry.Delete(id)
	if err != nil {
		return core.ColumnDefinition{}, err
	}
	before := e.rows
	e.rows = ranking.ReconcileOnColumnDelete(e.rows, col.Key)

	e.outbox.Enqueue(outbox.DeleteColumn(col.ID))
	e.enqueueRowRewrites(before, e.rows)
	e.logger.Info("column deleted", "id", col.ID, "key", col.Key)
	return col, nil
}

// SetColumnVisible shows or hides a column. Rows are not touched.
func (e *Editor) SetColumnVisible(id string, visible bool) (core.ColumnDefinition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	col, err := e.registry.SetVisible(id, visible)
	if err != nil {
		return core.ColumnDefinition{}, err
	}
	e.outbox.Enqueue(outbox.UpdateColumn(col.ID, col))
	return col, nil
}

// enqueueRowRewrites persists every row that a reconciliation changed.
// Callers hold mu.
func (e *Editor) enqueueRowRewrites(before, after []core.Row) {
	for _, row := range ranking.Changed(before, after) {
		e.outbox.Enqueue(outbox.UpdateRow(row))
	}
}

func fillAll(rows []core.Row, cols []core.ColumnDefinition) []core.Row {
	out := make([]core.Row, len(rows))
	for i, row := range rows {
		out[i] = ranking.FillDefaults(row, cols)
	}
	return out
}

func cloneRows(rows []core.Row) []core.Row {
	out := make([]core.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
