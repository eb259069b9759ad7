package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/ratetable/internal/editor"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// resolveColumn finds a column by id, falling back to its key.
func resolveColumn(ed *editor.Editor, ref string) (core.ColumnDefinition, error) {
	if col, err := ed.Column(ref); err == nil {
		return col, nil
	}
	if col, ok := core.FindColumn(ed.Columns(), ref); ok {
		return col, nil
	}
	return core.ColumnDefinition{}, core.NotFound(core.EntityColumn, ref)
}

// resolveRow finds a country by id, falling back to its name.
func resolveRow(ed *editor.Editor, ref string) (core.Row, error) {
	if row, err := ed.Row(ref); err == nil {
		return row, nil
	}
	for _, row := range ed.Rows() {
		if row.Name() == ref {
			return row, nil
		}
	}
	return core.Row{}, core.NotFound(core.EntityCountry, ref)
}

// parseAssignments turns key=value pairs into row fields. Values stay
// strings; the editor coerces them per column type and treats an empty
// value as no value.
func parseAssignments(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", pair)
		}
		fields[key] = value
	}
	return fields, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
