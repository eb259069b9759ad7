package outbox

import (
	"context"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

// CreateColumn persists a new column.
func CreateColumn(col core.ColumnDefinition) Mutation {
	col = col.Clone()
	return Mutation{Kind: KindCreateColumn, ID: col.ID, Apply: func(ctx context.Context, s core.Store) error {
		_, err := s.CreateColumn(ctx, col)
		return err
	}}
}

// UpdateColumn persists a changed column definition stored under targetID.
// col.ID differs from targetID when the edit re-derived the id.
func UpdateColumn(targetID string, col core.ColumnDefinition) Mutation {
	col = col.Clone()
	return Mutation{Kind: KindUpdateColumn, ID: targetID, Apply: func(ctx context.Context, s core.Store) error {
		_, err := s.UpdateColumn(ctx, targetID, col)
		return err
	}}
}

// DeleteColumn removes a column.
func DeleteColumn(id string) Mutation {
	return Mutation{Kind: KindDeleteColumn, ID: id, Apply: func(ctx context.Context, s core.Store) error {
		return s.DeleteColumn(ctx, id)
	}}
}

// ReplaceColumns rewrites the whole column collection.
func ReplaceColumns(cols []core.ColumnDefinition) Mutation {
	cp := make([]core.ColumnDefinition, len(cols))
	for i, c := range cols {
		cp[i] = c.Clone()
	}
	return Mutation{Kind: KindReplaceColumns, Apply: func(ctx context.Context, s core.Store) error {
		return s.ReplaceColumns(ctx, cp)
	}}
}

// CreateRow persists a new row.
func CreateRow(row core.Row) Mutation {
	row = row.Clone()
	return Mutation{Kind: KindCreateRow, ID: row.ID, Apply: func(ctx context.Context, s core.Store) error {
		_, err := s.CreateRow(ctx, row)
		return err
	}}
}

// UpdateRow persists a row's full field set.
func UpdateRow(row core.Row) Mutation {
	row = row.Clone()
	return Mutation{Kind: KindUpdateRow, ID: row.ID, Apply: func(ctx context.Context, s core.Store) error {
		_, err := s.UpdateRow(ctx, row.ID, row)
		return err
	}}
}

// DeleteRow removes a row.
func DeleteRow(id string) Mutation {
	return Mutation{Kind: KindDeleteRow, ID: id, Apply: func(ctx context.Context, s core.Store) error {
		return s.DeleteRow(ctx, id)
	}}
}
