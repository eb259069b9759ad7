package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/leapstack-labs/ratetable/internal/state"
)

// validOutputs lists the accepted --output modes.
var validOutputs = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case state.BackendSQLite, state.BackendPostgres, state.BackendJSON:
	default:
		return fmt.Errorf("unknown storage backend %q (available: %s, %s, %s)",
			c.Storage.Backend, state.BackendSQLite, state.BackendPostgres, state.BackendJSON)
	}

	if c.Storage.Backend == state.BackendPostgres && c.Storage.Postgres.Database == "" {
		return fmt.Errorf("storage.postgres.database is required for the postgres backend")
	}

	if !slices.Contains(validOutputs, c.Output) {
		return fmt.Errorf("invalid output mode %q (available: %s)", c.Output, strings.Join(validOutputs, ", "))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Ranking.TopN <= 0 {
		return fmt.Errorf("ranking.top_n must be positive, got %d", c.Ranking.TopN)
	}

	if _, err := language.Parse(c.Ranking.Locale); err != nil {
		return fmt.Errorf("invalid ranking.locale %q: %w", c.Ranking.Locale, err)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	if c.Outbox.FlushTimeout <= 0 {
		return fmt.Errorf("outbox.flush_timeout must be positive")
	}

	return nil
}

// ParseLogLevel converts a config log level into a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (available: debug, info, warn, error)", level)
	}
}
