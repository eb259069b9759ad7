package core

import "context"

// Store is the persistence contract consumed by the editor and the API.
// Backends own uniqueness: column id and key, row id and name.
// Listing returns entities in storage (insertion) order.
type Store interface {
	Close() error

	// Column operations
	ListColumns(ctx context.Context) ([]ColumnDefinition, error)
	GetColumn(ctx context.Context, id string) (*ColumnDefinition, error)
	CreateColumn(ctx context.Context, col ColumnDefinition) (*ColumnDefinition, error)
	UpdateColumn(ctx context.Context, id string, col ColumnDefinition) (*ColumnDefinition, error)
	DeleteColumn(ctx context.Context, id string) error
	ReplaceColumns(ctx context.Context, cols []ColumnDefinition) error

	// Row operations
	ListRows(ctx context.Context) ([]Row, error)
	GetRow(ctx context.Context, id string) (*Row, error)
	CreateRow(ctx context.Context, row Row) (*Row, error)
	UpdateRow(ctx context.Context, id string, row Row) (*Row, error)
	DeleteRow(ctx context.Context, id string) error
	ReplaceRows(ctx context.Context, rows []Row) error
}
