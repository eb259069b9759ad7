package editor

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/leapstack-labs/ratetable/internal/outbox"
	"github.com/leapstack-labs/ratetable/internal/ranking"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// CreateRow validates fields against the columns, completes them with
// defaults and appends the row under a new id.
func (e *Editor) CreateRow(fields map[string]any) (core.Row, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	row, err := e.buildRow(uuid.NewString(), fields, -1)
	if err != nil {
		return core.Row{}, err
	}
	e.rows = append(e.rows, row)

	e.outbox.Enqueue(outbox.CreateRow(row))
	e.logger.Info("country created", "id", row.ID, "name", row.Name())
	return row.Clone(), nil
}

// EditRow replaces the fields of the row with the given id.
func (e *Editor) EditRow(id string, fields map[string]any) (core.Row, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.replaceRow(id, func(core.Row) map[string]any { return fields })
}

// PatchRow merges fields into the row with the given id.
func (e *Editor) PatchRow(id string, fields map[string]any) (core.Row, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.replaceRow(id, func(current core.Row) map[string]any {
		merged := current.Clone().Fields
		for k, v := range fields {
			merged[k] = v
		}
		return merged
	})
}

// replaceRow rebuilds the row with the given id from the fields next returns.
// Callers hold mu.
func (e *Editor) replaceRow(id string, next func(current core.Row) map[string]any) (core.Row, error) {
	i := e.rowIndex(id)
	if i < 0 {
		return core.Row{}, core.NotFound(core.EntityCountry, id)
	}
	row, err := e.buildRow(id, next(e.rows[i]), i)
	if err != nil {
		return core.Row{}, err
	}
	e.rows[i] = row

	e.outbox.Enqueue(outbox.UpdateRow(row))
	e.logger.Info("country updated", "id", id, "name", row.Name())
	return row.Clone(), nil
}

// DeleteRow removes the row with the given id.
func (e *Editor) DeleteRow(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.rowIndex(id)
	if i < 0 {
		return core.NotFound(core.EntityCountry, id)
	}
	name := e.rows[i].Name()
	e.rows = append(e.rows[:i:i], e.rows[i+1:]...)

	e.outbox.Enqueue(outbox.DeleteRow(id))
	e.logger.Info("country deleted", "id", id, "name", name)
	return nil
}

func (e *Editor) rowIndex(id string) int {
	for i, r := range e.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// buildRow checks presence and format of every column value, coerces values
// to the column type and enforces a unique name. self is the index of the
// row being edited, or -1. Callers hold mu.
func (e *Editor) buildRow(id string, fields map[string]any, self int) (core.Row, error) {
	columns := e.registry.Columns()
	verr := &core.ValidationError{}
	out := make(map[string]any, len(columns))

	for _, col := range columns {
		v, present := fields[col.Key]
		if !present {
			out[col.Key] = ranking.DefaultValue(col)
			if col.Required && !col.IsNumber() {
				verr.Add(col.Key, col.Label+" is required")
			}
			continue
		}

		val, msg := coerce(col, v)
		if msg != "" {
			verr.Add(col.Key, msg)
			continue
		}
		if col.Required && (val == nil || val == "") {
			verr.Add(col.Key, col.Label+" is required")
			continue
		}
		out[col.Key] = val
	}
	if err := verr.OrNil(); err != nil {
		return core.Row{}, err
	}

	row := core.NewRow(id, out)
	for i, other := range e.rows {
		if i != self && other.Name() == row.Name() {
			return core.Row{}, &core.ConflictError{Entity: core.EntityCountry, Field: core.NameKey, Value: row.Name()}
		}
	}
	return row, nil
}

// coerce converts v to the column's value domain. A non-empty message
// reports a format error.
func coerce(col core.ColumnDefinition, v any) (any, string) {
	if col.IsNumber() {
		switch t := v.(type) {
		case nil:
			return nil, ""
		case string:
			if strings.TrimSpace(t) == "" {
				return nil, ""
			}
		}
		f, ok := ranking.Numeric(v)
		if !ok {
			return nil, col.Label + " must be a number"
		}
		return f, ""
	}

	switch t := v.(type) {
	case nil:
		return "", ""
	case string:
		if col.IsPinned() {
			return strings.TrimSpace(t), ""
		}
		return t, ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), ""
	case bool:
		return strconv.FormatBool(t), ""
	default:
		return nil, col.Label + " must be text"
	}
}
