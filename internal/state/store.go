// Package state provides the storage backends behind core.Store: SQLite and
// PostgreSQL with embedded goose migrations, and a flat JSON file. It also
// holds the maintenance operations run against any backend (row id
// normalization and seed import).
package state

import "github.com/leapstack-labs/ratetable/pkg/core"

var (
	_ core.Store = (*MemoryStore)(nil)
	_ core.Store = (*JSONFileStore)(nil)
	_ core.Store = (*SQLiteStore)(nil)
	_ core.Store = (*PostgresStore)(nil)
)
