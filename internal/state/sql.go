package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

// sqlStore implements core.Store over database/sql. Queries are written with
// '?' placeholders and rebound for PostgreSQL.
type sqlStore struct {
	db       *sql.DB
	dialect  string
	logger   *slog.Logger
	isUnique func(error) bool
}

const columnFields = "id, col_key, label, type, visible, sortable, required, decimal_scale, optimal_value"

func (s *sqlStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) ready() error {
	if s.db == nil {
		return core.ErrStoreClosed
	}
	return nil
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying connection.
func (s *sqlStore) DB() *sql.DB {
	return s.db
}

// conflict converts a unique violation into a ConflictError. It returns nil
// for any other error.
func (s *sqlStore) conflict(err error, entity, value string) error {
	if err == nil || s.isUnique == nil || !s.isUnique(err) {
		return nil
	}
	field := "id"
	msg := err.Error()
	switch {
	case strings.Contains(msg, "col_key"):
		field = "key"
	case strings.Contains(msg, "name"):
		field = core.NameKey
	}
	return &core.ConflictError{Entity: entity, Field: field, Value: value}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanColumn(row scanner) (core.ColumnDefinition, error) {
	var (
		col     core.ColumnDefinition
		typ     string
		optimal string
		scale   sql.NullInt64
	)
	if err := row.Scan(&col.ID, &col.Key, &col.Label, &typ, &col.Visible, &col.Sortable, &col.Required, &scale, &optimal); err != nil {
		return col, err
	}
	col.Type = core.ColumnType(typ)
	col.OptimalValue = core.OptimalValue(optimal)
	if scale.Valid {
		v := int(scale.Int64)
		col.DecimalScale = &v
	}
	return col, nil
}

func columnArgs(col core.ColumnDefinition) []any {
	var scale sql.NullInt64
	if col.DecimalScale != nil {
		scale = sql.NullInt64{Int64: int64(*col.DecimalScale), Valid: true}
	}
	return []any{col.ID, col.Key, col.Label, string(col.Type), col.Visible, col.Sortable, col.Required, scale, string(col.OptimalValue)}
}

// --- Column operations ---

// ListColumns returns all columns in insertion order.
func (s *sqlStore) ListColumns(ctx context.Context) ([]core.ColumnDefinition, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+columnFields+" FROM column_definitions ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols := []core.ColumnDefinition{}
	for rows.Next() {
		col, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return cols, nil
}

// GetColumn returns the column with the given id.
func (s *sqlStore) GetColumn(ctx context.Context, id string) (*core.ColumnDefinition, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+columnFields+" FROM column_definitions WHERE id = ?"), id)
	col, err := scanColumn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound(core.EntityColumn, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get column: %w", err)
	}
	return &col, nil
}

// CreateColumn inserts col, assigning a UUID when it has no id.
func (s *sqlStore) CreateColumn(ctx context.Context, col core.ColumnDefinition) (*core.ColumnDefinition, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if col.ID == "" {
		col.ID = uuid.NewString()
	}

	if err := s.insertColumn(ctx, s.db, col); err != nil {
		return nil, err
	}
	return &col, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *sqlStore) insertColumn(ctx context.Context, db execer, col core.ColumnDefinition) error {
	_, err := db.ExecContext(ctx,
		s.rebind("INSERT INTO column_definitions ("+columnFields+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		columnArgs(col)...)
	if err != nil {
		if cerr := s.conflict(err, core.EntityColumn, col.Key); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to insert column: %w", err)
	}
	return nil
}

// UpdateColumn replaces the column with the given id, keeping its position.
// An empty col.ID keeps the current id.
func (s *sqlStore) UpdateColumn(ctx context.Context, id string, col core.ColumnDefinition) (*core.ColumnDefinition, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if col.ID == "" {
		col.ID = id
	}

	args := append(columnArgs(col), id)
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE column_definitions
		SET id = ?, col_key = ?, label = ?, type = ?, visible = ?, sortable = ?, required = ?, decimal_scale = ?, optimal_value = ?
		WHERE id = ?`), args...)
	if err != nil {
		if cerr := s.conflict(err, core.EntityColumn, col.Key); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("failed to update column: %w", err)
	}
	if err := expectAffected(res, core.EntityColumn, id); err != nil {
		return nil, err
	}
	return &col, nil
}

// DeleteColumn removes the column with the given id.
func (s *sqlStore) DeleteColumn(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM column_definitions WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}
	return expectAffected(res, core.EntityColumn, id)
}

// ReplaceColumns swaps the whole column collection in one transaction.
func (s *sqlStore) ReplaceColumns(ctx context.Context, cols []core.ColumnDefinition) error {
	if err := s.ready(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM column_definitions"); err != nil {
		return fmt.Errorf("failed to clear columns: %w", err)
	}
	for _, col := range cols {
		if col.ID == "" {
			col.ID = uuid.NewString()
		}
		if err := s.insertColumn(ctx, tx, col); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- Row operations ---

func scanRow(r scanner) (core.Row, error) {
	var (
		id, name string
		fields   []byte
		row      core.Row
	)
	if err := r.Scan(&id, &name, &fields); err != nil {
		return row, err
	}
	if err := json.Unmarshal(fields, &row); err != nil {
		return row, fmt.Errorf("failed to decode fields of %s: %w", id, err)
	}
	row.ID = id
	return row, nil
}

// encodeFields serializes a row's fields without its id.
func encodeFields(row core.Row) (string, error) {
	data, err := json.Marshal(core.Row{Fields: row.Fields})
	if err != nil {
		return "", fmt.Errorf("failed to encode fields: %w", err)
	}
	return string(data), nil
}

// ListRows returns all rows in insertion order.
func (s *sqlStore) ListRows(ctx context.Context) ([]core.Row, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, fields FROM countries ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []core.Row{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating countries: %w", err)
	}
	return out, nil
}

// GetRow returns the row with the given id.
func (s *sqlStore) GetRow(ctx context.Context, id string) (*core.Row, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	row, err := scanRow(s.db.QueryRowContext(ctx, s.rebind("SELECT id, name, fields FROM countries WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound(core.EntityCountry, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get country: %w", err)
	}
	return &row, nil
}

// CreateRow inserts row, assigning a UUID when it has no id.
func (s *sqlStore) CreateRow(ctx context.Context, row core.Row) (*core.Row, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row = row.Clone()
	if row.ID == "" {
		row.ID = uuid.NewString()
	}

	if err := s.insertRow(ctx, s.db, row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *sqlStore) insertRow(ctx context.Context, db execer, row core.Row) error {
	fields, err := encodeFields(row)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, s.rebind("INSERT INTO countries (id, name, fields) VALUES (?, ?, ?)"), row.ID, row.Name(), fields)
	if err != nil {
		if cerr := s.conflict(err, core.EntityCountry, row.Name()); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to insert country: %w", err)
	}
	return nil
}

// UpdateRow replaces the fields of the row with the given id.
func (s *sqlStore) UpdateRow(ctx context.Context, id string, row core.Row) (*core.Row, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row = row.Clone()
	row.ID = id

	fields, err := encodeFields(row)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE countries SET name = ?, fields = ? WHERE id = ?"), row.Name(), fields, id)
	if err != nil {
		if cerr := s.conflict(err, core.EntityCountry, row.Name()); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("failed to update country: %w", err)
	}
	if err := expectAffected(res, core.EntityCountry, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteRow removes the row with the given id.
func (s *sqlStore) DeleteRow(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM countries WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete country: %w", err)
	}
	return expectAffected(res, core.EntityCountry, id)
}

// ReplaceRows swaps the whole row collection in one transaction.
func (s *sqlStore) ReplaceRows(ctx context.Context, rows []core.Row) error {
	if err := s.ready(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM countries"); err != nil {
		return fmt.Errorf("failed to clear countries: %w", err)
	}
	for _, row := range rows {
		row = row.Clone()
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if err := s.insertRow(ctx, tx, row); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func expectAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return core.NotFound(entity, id)
	}
	return nil
}
