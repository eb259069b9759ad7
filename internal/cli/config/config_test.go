package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ratetable/internal/state"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratetable.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func validConfig() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Output:   DefaultOutput,
		Storage:  StorageConfig{Backend: DefaultBackend},
		Server:   ServerConfig{Port: DefaultPort},
		Ranking:  RankingConfig{TopN: DefaultTopN, Locale: DefaultLocale},
		Outbox:   OutboxConfig{FlushTimeout: DefaultFlushTimeout},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "json backend", mutate: func(c *Config) { c.Storage.Backend = state.BackendJSON }},
		{
			name:      "unknown backend",
			mutate:    func(c *Config) { c.Storage.Backend = "mysql" },
			errSubstr: "unknown storage backend",
		},
		{
			name: "postgres without database",
			mutate: func(c *Config) {
				c.Storage.Backend = state.BackendPostgres
			},
			errSubstr: "storage.postgres.database is required",
		},
		{
			name:      "unknown output",
			mutate:    func(c *Config) { c.Output = "html" },
			errSubstr: "invalid output mode",
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.LogLevel = "loud" },
			errSubstr: "invalid log level",
		},
		{
			name:      "zero top n",
			mutate:    func(c *Config) { c.Ranking.TopN = 0 },
			errSubstr: "ranking.top_n must be positive",
		},
		{
			name:      "bad locale",
			mutate:    func(c *Config) { c.Ranking.Locale = "not a locale" },
			errSubstr: "invalid ranking.locale",
		},
		{
			name:      "port out of range",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			errSubstr: "server.port out of range",
		},
		{
			name:      "zero flush timeout",
			mutate:    func(c *Config) { c.Outbox.FlushTimeout = 0 },
			errSubstr: "outbox.flush_timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())

	level, err = ParseLogLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, "WARN", level.String())
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RATETABLE_TEST_USER", "alice")

	tests := []struct {
		input string
		want  string
	}{
		{input: "plain", want: "plain"},
		{input: "${RATETABLE_TEST_USER}", want: "alice"},
		{input: "user=${RATETABLE_TEST_USER};", want: "user=alice;"},
		{input: "${RATETABLE_TEST_MISSING}", want: "${RATETABLE_TEST_MISSING}"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.input))
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"RATETABLE_LOG_LEVEL":             "log_level",
		"RATETABLE_STORAGE_BACKEND":       "storage.backend",
		"RATETABLE_STORAGE_POSTGRES_HOST": "storage.postgres.host",
		"RATETABLE_SERVER_SESSION_SECRET": "server.session_secret",
		"RATETABLE_RANKING_TOP_N":         "ranking.top_n",
		"RATETABLE_OUTBOX_FLUSH_TIMEOUT":  "outbox.flush_timeout",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, envKey(in))
			assert.Equal(t, in, EnvVar(want))
		})
	}
}

func TestFlagKey(t *testing.T) {
	tests := map[string]string{
		"data":      "storage.path",
		"top-n":     "ranking.top_n",
		"log-level": "log_level",
		"open":      "open",
		"no-sort":   "no_sort",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, FlagKey(in))
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "{}\n")
	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, state.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.True(t, cfg.Server.Watch)
	assert.Equal(t, DefaultTopN, cfg.Ranking.TopN)
	assert.Equal(t, DefaultFlushTimeout, cfg.Outbox.FlushTimeout)
	assert.Equal(t, filepath.Dir(cfgPath), cfg.ProjectRoot)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_FileValues(t *testing.T) {
	ResetConfig()

	t.Setenv("RATETABLE_TEST_PG_PASSWORD", "secret123")
	cfgPath := writeConfig(t, `log_level: debug
storage:
  backend: postgres
  postgres:
    host: db.internal
    port: 6543
    user: editor
    password: ${RATETABLE_TEST_PG_PASSWORD}
    database: countries
ranking:
  top_n: 5
  locale: es
outbox:
  flush_timeout: 30s
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, PostgresConfig{
		Host:     "db.internal",
		Port:     6543,
		User:     "editor",
		Password: "secret123",
		Database: "countries",
		SSLMode:  "disable",
	}, cfg.Storage.Postgres)
	assert.Equal(t, 5, cfg.Ranking.TopN)
	assert.Equal(t, "es", cfg.Ranking.Locale)
	assert.Equal(t, 30*time.Second, cfg.Outbox.FlushTimeout)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "storage:\n  backend: mysql\n")
	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
	assert.Nil(t, GetCurrentConfig())
}

// TestLoadConfig_FlagPrecedence tests that flags override env vars and config file.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "ranking:\n  top_n: 4\n")
	t.Setenv("RATETABLE_RANKING_TOP_N", "5")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("top-n", DefaultTopN, "leaderboard size")
	require.NoError(t, flags.Set("top-n", "6"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Ranking.TopN, "flag value should override config file and env var")
}

// TestLoadConfig_EnvPrecedenceOverFile tests that env vars override config file.
func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "storage:\n  backend: sqlite\n")
	t.Setenv("RATETABLE_STORAGE_BACKEND", "json")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, state.BackendJSON, cfg.Storage.Backend, "env var should override config file")
}

// TestLoadConfig_FlagNotSetUsesEnv tests that unset flags fall back to env vars.
func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "{}\n")
	t.Setenv("RATETABLE_STORAGE_BACKEND", "json")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("backend", DefaultBackend, "storage backend")

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, state.BackendJSON, cfg.Storage.Backend, "env var should be used when flag is not set")
}

func TestLoadConfig_DataFlagMapsToStoragePath(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "{}\n")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("data", "", "data file")
	flags.Bool("watch", true, "watch data file")
	require.NoError(t, flags.Set("data", "custom.db"))
	require.NoError(t, flags.Set("watch", "false"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "custom.db", cfg.Storage.Path)
	assert.False(t, cfg.Server.Watch)
}

func TestConfig_StateConfig(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name     string
		storage  StorageConfig
		wantPath string
	}{
		{
			name:     "sqlite default path",
			storage:  StorageConfig{Backend: state.BackendSQLite},
			wantPath: filepath.Join(root, DefaultSQLitePath),
		},
		{
			name:     "json default path",
			storage:  StorageConfig{Backend: state.BackendJSON},
			wantPath: filepath.Join(root, DefaultJSONPath),
		},
		{
			name:     "relative path resolved against root",
			storage:  StorageConfig{Backend: state.BackendJSON, Path: "x/data.json"},
			wantPath: filepath.Join(root, "x/data.json"),
		},
		{
			name:     "absolute path kept",
			storage:  StorageConfig{Backend: state.BackendSQLite, Path: "/var/lib/ratetable.db"},
			wantPath: "/var/lib/ratetable.db",
		},
		{
			name:     "in-memory sqlite kept",
			storage:  StorageConfig{Backend: state.BackendSQLite, Path: ":memory:"},
			wantPath: ":memory:",
		},
		{
			name:     "postgres has no path",
			storage:  StorageConfig{Backend: state.BackendPostgres},
			wantPath: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Storage: tt.storage, ProjectRoot: root}
			got := cfg.StateConfig()
			assert.Equal(t, tt.storage.Backend, got.Backend)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}
}

func TestGetLogger_FallsBackToDiscard(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.NotNil(t, GetLogger(nil))
}
