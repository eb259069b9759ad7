package state

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendJSON     = "json"
)

// Config selects and configures a storage backend.
type Config struct {
	Backend  string
	Path     string
	Postgres PostgresConfig
}

// Open opens the configured backend.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (core.Store, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		store := NewSQLiteStore(logger)
		if err := store.Open(ctx, cfg.Path); err != nil {
			return nil, err
		}
		return store, nil
	case BackendPostgres:
		store := NewPostgresStore(logger)
		if err := store.Open(ctx, cfg.Postgres); err != nil {
			return nil, err
		}
		return store, nil
	case BackendJSON:
		store := NewJSONFileStore(cfg.Path, logger)
		if err := store.Open(); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
