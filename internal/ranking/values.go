package ranking

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

// Tolerance is the absolute difference under which two metric values are
// considered equal when testing top-N membership.
const Tolerance = 0.0001

// NotAvailable is the display text of an empty cell.
const NotAvailable = "N/A"

// Numeric coerces a cell value to a finite float. Strings are parsed.
// Missing, null, unparsable and infinite values report false.
func Numeric(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// DefaultValue is the value a row gets for a column it does not carry yet:
// 0 for required numbers, null for optional numbers, "" for strings.
func DefaultValue(col core.ColumnDefinition) any {
	if col.IsNumber() {
		if col.Required {
			return float64(0)
		}
		return nil
	}
	return ""
}

// InitialValues returns the field set of a blank row for columns.
func InitialValues(columns []core.ColumnDefinition) map[string]any {
	values := map[string]any{core.NameKey: ""}
	for _, col := range columns {
		if col.Key != core.NameKey {
			values[col.Key] = DefaultValue(col)
		}
	}
	return values
}

// CellValue formats a row's cell for display.
func CellValue(row core.Row, col core.ColumnDefinition) string {
	v, ok := row.Get(col.Key)
	if !ok || v == nil {
		return NotAvailable
	}
	if col.IsNumber() && col.DecimalScale != nil {
		if f, ok := Numeric(v); ok {
			return strconv.FormatFloat(f, 'f', *col.DecimalScale, 64)
		}
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// SortIndicator is the header glyph for a sortable column.
func SortIndicator(columnKey string, state core.SortState) string {
	if state.Column != columnKey {
		return "⇅"
	}
	if state.Direction == core.SortAscending {
		return "↑"
	}
	return "↓"
}

// OptimalHint is the header glyph telling which end of a metric is better.
func OptimalHint(col core.ColumnDefinition) string {
	switch col.OptimalValue {
	case core.OptimalLowest:
		return "↓"
	case core.OptimalHighest:
		return "↑"
	}
	return ""
}
