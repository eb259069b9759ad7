package editor

import (
	"context"
	"errors"

	"github.com/leapstack-labs/ratetable/internal/ranking"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// Header describes one visible column of a rendered table.
type Header struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	Label     string `json:"label"`
	Sortable  bool   `json:"sortable"`
	Indicator string `json:"indicator,omitempty"`
	Hint      string `json:"hint,omitempty"`
	Scored    bool   `json:"scored"`
}

// Cell is one formatted value.
type Cell struct {
	Key   string `json:"key"`
	Text  string `json:"text"`
	Value any    `json:"value"`
	// Top is set when the value is among the column's top-N winners.
	Top bool `json:"top"`
}

// TableRow is one rendered row.
type TableRow struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cells []Cell `json:"cells"`
}

// Table is the rendered table: visible columns, rows in sorted order.
type Table struct {
	Sort    core.SortState `json:"sort"`
	Headers []Header       `json:"headers"`
	Rows    []TableRow     `json:"rows"`
	TopN    int            `json:"topN"`
}

// Table renders the visible columns and the rows sorted by state. Top-N
// winners are computed over all rows regardless of order.
func (e *Editor) Table(state core.SortState) Table {
	e.mu.RLock()
	columns := e.registry.Columns()
	visible := e.registry.Visible()
	rows := cloneRows(e.rows)
	e.mu.RUnlock()

	if col, ok := core.FindColumn(columns, state.Column); !ok || !col.Sortable {
		state = core.SortState{}
	}

	winners := e.ranker.Winners(rows, visible)
	sorted := e.sorter.Sort(rows, state, columns)

	t := Table{Sort: state, TopN: e.ranker.TopN(), Headers: make([]Header, 0, len(visible)), Rows: make([]TableRow, 0, len(sorted))}
	for _, col := range visible {
		h := Header{ID: col.ID, Key: col.Key, Label: col.Label, Sortable: col.Sortable, Hint: ranking.OptimalHint(col), Scored: col.IsScored()}
		if col.Sortable {
			h.Indicator = ranking.SortIndicator(col.Key, state)
		}
		t.Headers = append(t.Headers, h)
	}
	for _, row := range sorted {
		tr := TableRow{ID: row.ID, Name: row.Name(), Cells: make([]Cell, 0, len(visible))}
		for _, col := range visible {
			v, _ := row.Get(col.Key)
			tr.Cells = append(tr.Cells, Cell{
				Key:   col.Key,
				Text:  ranking.CellValue(row, col),
				Value: v,
				Top:   winners.Wins(row, col),
			})
		}
		t.Rows = append(t.Rows, tr)
	}
	return t
}

// Leaderboard scores every row over the visible columns.
func (e *Editor) Leaderboard() []ranking.Standing {
	e.mu.RLock()
	visible := e.registry.Visible()
	rows := cloneRows(e.rows)
	e.mu.RUnlock()

	return e.ranker.Leaderboard(rows, visible)
}

// ToggleSort returns the sort state after clicking the header of the column
// with the given key.
func (e *Editor) ToggleSort(current core.SortState, key string) (core.SortState, error) {
	e.mu.RLock()
	col, ok := e.registry.ByKey(key)
	e.mu.RUnlock()

	if !ok {
		return current, core.NotFound(core.EntityColumn, key)
	}
	return ranking.ToggleSort(current, col), nil
}

// ErrWritesPending is returned by ReloadIfIdle while queued writes have not
// reached the store yet.
var ErrWritesPending = errors.New("writes pending")

// ReloadIfIdle runs refresh and, when it reports a change, re-reads the
// working set from the store. Mutations are held off for the whole step, and
// nothing happens while the outbox still has writes the store lacks.
func (e *Editor) ReloadIfIdle(ctx context.Context, refresh func() (bool, error)) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.outbox.Idle() {
		return false, ErrWritesPending
	}
	changed, err := refresh()
	if err != nil || !changed {
		return false, err
	}
	if err := e.loadLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Pending reports whether persistence writes are still queued.
func (e *Editor) Pending() bool {
	return !e.outbox.Idle()
}

// Flush waits for every queued write to be attempted.
func (e *Editor) Flush(ctx context.Context) error {
	return e.outbox.Flush(ctx)
}
