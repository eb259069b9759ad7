// Package config provides configuration management for the ratetable CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/ratetable/internal/state"
)

// Config holds all CLI configuration options.
type Config struct {
	LogLevel string        `koanf:"log_level"`
	Output   string        `koanf:"output"`
	Storage  StorageConfig `koanf:"storage"`
	Server   ServerConfig  `koanf:"server"`
	Ranking  RankingConfig `koanf:"ranking"`
	Outbox   OutboxConfig  `koanf:"outbox"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Backend  string         `koanf:"backend"`
	Path     string         `koanf:"path"`
	Postgres PostgresConfig `koanf:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
	SSLMode  string `koanf:"sslmode"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Port          int    `koanf:"port"`
	SessionSecret string `koanf:"session_secret"`
	Watch         bool   `koanf:"watch"`
}

// RankingConfig holds leaderboard and ordering settings.
type RankingConfig struct {
	TopN   int    `koanf:"top_n"`
	Locale string `koanf:"locale"`
}

// OutboxConfig holds persistence queue settings.
type OutboxConfig struct {
	FlushTimeout time.Duration `koanf:"flush_timeout"`
}

// Default configuration values.
const (
	DefaultLogLevel      = "warn"
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultBackend       = state.BackendSQLite
	DefaultSQLitePath    = ".ratetable/ratetable.db"
	DefaultJSONPath      = "data/ratetable.json"
	DefaultPort          = 8765
	DefaultSessionSecret = "ratetable-dev-secret-change-in-production" //nolint:gosec
	DefaultTopN          = 3
	DefaultLocale        = "en"
	DefaultFlushTimeout  = 10 * time.Second
)

// StateConfig converts the storage settings for state.Open. An empty path
// falls back to the backend's default file under the project root.
func (c *Config) StateConfig() state.Config {
	path := c.Storage.Path
	if path == "" {
		switch c.Storage.Backend {
		case state.BackendJSON:
			path = DefaultJSONPath
		case state.BackendSQLite:
			path = DefaultSQLitePath
		}
	}
	if path != "" && path != ":memory:" {
		path = resolvePathRelativeTo(path, c.ProjectRoot)
	}

	pg := c.Storage.Postgres
	return state.Config{
		Backend: c.Storage.Backend,
		Path:    path,
		Postgres: state.PostgresConfig{
			Host:     pg.Host,
			Port:     pg.Port,
			User:     pg.User,
			Password: pg.Password,
			Database: pg.Database,
			SSLMode:  pg.SSLMode,
		},
	}
}
