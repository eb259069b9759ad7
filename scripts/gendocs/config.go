package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/ratetable/internal/cli/config"
)

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Key         string
	Type        string
	Default     string
	Description string
	Section     string
}

// getConfigSchema returns the configuration schema. It mirrors
// internal/cli/config/types.go.
func getConfigSchema() []ConfigField {
	return []ConfigField{
		{Key: "log_level", Type: "string", Default: config.DefaultLogLevel, Description: "debug, info, warn, error", Section: "general"},
		{Key: "output", Type: "string", Default: config.DefaultOutput, Description: "auto, text, markdown, json", Section: "general"},

		{Key: "storage.backend", Type: "string", Default: config.DefaultBackend, Description: "sqlite, postgres, json", Section: "storage"},
		{Key: "storage.path", Type: "string", Description: "Data file; defaults to " + config.DefaultSQLitePath + " (sqlite) or " + config.DefaultJSONPath + " (json)", Section: "storage"},
		{Key: "storage.postgres.host", Type: "string", Default: "localhost", Description: "Database host", Section: "postgres"},
		{Key: "storage.postgres.port", Type: "int", Default: "5432", Description: "Database port", Section: "postgres"},
		{Key: "storage.postgres.user", Type: "string", Description: "Database user", Section: "postgres"},
		{Key: "storage.postgres.password", Type: "string", Description: "Database password; `${VAR}` is expanded", Section: "postgres"},
		{Key: "storage.postgres.database", Type: "string", Default: "ratetable", Description: "Database name", Section: "postgres"},
		{Key: "storage.postgres.sslmode", Type: "string", Default: "disable", Description: "libpq sslmode", Section: "postgres"},

		{Key: "server.port", Type: "int", Default: strconv.Itoa(config.DefaultPort), Description: "HTTP port", Section: "server"},
		{Key: "server.session_secret", Type: "string", Description: "Key for the sort state cookie; `${VAR}` is expanded", Section: "server"},
		{Key: "server.watch", Type: "bool", Default: "true", Description: "Reload when the json data file changes on disk", Section: "server"},

		{Key: "ranking.top_n", Type: "int", Default: strconv.Itoa(config.DefaultTopN), Description: "Distinct values per scored column counted as top", Section: "ranking"},
		{Key: "ranking.locale", Type: "string", Default: config.DefaultLocale, Description: "BCP 47 tag used to collate text columns", Section: "ranking"},

		{Key: "outbox.flush_timeout", Type: "duration", Default: config.DefaultFlushTimeout.String(), Description: "How long queued writes may drain on shutdown", Section: "outbox"},
	}
}

var configSections = []struct {
	name  string
	title string
	intro string
}{
	{name: "general", title: "General"},
	{name: "storage", title: "Storage", intro: "Where columns and countries are persisted."},
	{name: "postgres", title: "PostgreSQL", intro: "Used when `storage.backend` is `postgres`."},
	{name: "server", title: "Server", intro: "Settings for `ratetable serve`."},
	{name: "ranking", title: "Ranking", intro: "Settings for top cells, the leaderboard, and text ordering."},
	{name: "outbox", title: "Outbox", intro: "The queue that writes edits to storage in order."},
}

// generateConfigDocs writes the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "ratetable configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("ratetable reads `ratetable.yaml` from the project root, searching upward from the working directory. Environment variables use the `RATETABLE_` prefix, so `storage.postgres.host` becomes `RATETABLE_STORAGE_POSTGRES_HOST`.")

	fields := getConfigSchema()
	for _, section := range configSections {
		w.Header(2, section.title)
		if section.intro != "" {
			w.Paragraph(section.intro)
		}

		var rows [][]string
		for _, f := range fields {
			if f.Section != section.name {
				continue
			}
			def := "-"
			if f.Default != "" {
				def = InlineCode(f.Default)
			}
			rows = append(rows, []string{InlineCode(f.Key), f.Type, def, f.Description})
		}
		w.Table([]string{"Key", "Type", "Default", "Description"}, rows)
	}

	w.Header(2, "Example")
	w.CodeBlock("yaml", `log_level: info
storage:
  backend: postgres
  postgres:
    host: db.internal
    user: ratetable
    password: ${RATETABLE_PG_PASSWORD}
ranking:
  top_n: 3
  locale: es`)

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}
