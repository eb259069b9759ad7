package state

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

// ImportResult counts what an import did per collection.
type ImportResult struct {
	Columns   ImportCounts `json:"columns"`
	Countries ImportCounts `json:"countries"`
}

// ImportCounts is the outcome tally for one collection.
type ImportCounts struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// yamlDocument mirrors Document for YAML seed files. Rows decode as plain
// maps and are converted with rowFromMap.
type yamlDocument struct {
	Columns   []core.ColumnDefinition `yaml:"columns"`
	Countries []map[string]any        `yaml:"countries"`
}

// ReadDocument loads a seed file. Files ending in .yaml or .yml are parsed
// as YAML, everything else as JSON.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAMLDocument(data)
	default:
		doc, err := DecodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return doc, nil
	}
}

func decodeYAMLDocument(data []byte) (*Document, error) {
	var raw yamlDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	doc := &Document{Columns: raw.Columns}
	for i, m := range raw.Countries {
		row, err := rowFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("country %d: %w", i, err)
		}
		doc.Countries = append(doc.Countries, row)
	}
	return doc, nil
}

func rowFromMap(m map[string]any) (core.Row, error) {
	id := ""
	if v, ok := m[core.IDField]; ok {
		if v != nil {
			id = fmt.Sprint(v)
		}
		delete(m, core.IDField)
	}
	fields, err := core.NormalizeFields(m)
	if err != nil {
		return core.Row{}, err
	}
	return core.Row{ID: id, Fields: fields}, nil
}

// Import copies a document into store. Columns are imported first and
// skipped when their id exists; countries are skipped when their id or name
// exists. Every entity is logged as imported, skipped or failed.
func Import(ctx context.Context, store core.Store, doc *Document, logger *slog.Logger) (*ImportResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	res := &ImportResult{}

	existingCols, err := store.ListColumns(ctx)
	if err != nil {
		return nil, err
	}
	colIDs := make(map[string]bool, len(existingCols))
	for _, c := range existingCols {
		colIDs[c.ID] = true
	}

	logger.Info("importing columns", "count", len(doc.Columns))
	for _, col := range doc.Columns {
		if col.ID != "" && colIDs[col.ID] {
			res.Columns.Skipped++
			logger.Info("skipped existing column", "label", col.Label)
			continue
		}
		created, err := store.CreateColumn(ctx, col)
		if err != nil {
			res.Columns.Failed++
			logger.Error("failed to import column", "label", col.Label, "error", err)
			continue
		}
		colIDs[created.ID] = true
		res.Columns.Imported++
		logger.Info("imported column", "label", col.Label)
	}

	existingRows, err := store.ListRows(ctx)
	if err != nil {
		return nil, err
	}
	rowIDs := make(map[string]bool, len(existingRows))
	names := make(map[string]bool, len(existingRows))
	for _, r := range existingRows {
		rowIDs[r.ID] = true
		names[r.Name()] = true
	}

	logger.Info("importing countries", "count", len(doc.Countries))
	for _, row := range doc.Countries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if (row.ID != "" && rowIDs[row.ID]) || names[row.Name()] {
			res.Countries.Skipped++
			logger.Info("skipped existing country", "name", row.Name())
			continue
		}
		created, err := store.CreateRow(ctx, row)
		if err != nil {
			res.Countries.Failed++
			logger.Error("failed to import country", "name", row.Name(), "error", err)
			continue
		}
		rowIDs[created.ID] = true
		names[created.Name()] = true
		res.Countries.Imported++
		logger.Info("imported country", "name", row.Name())
	}

	return res, nil
}
