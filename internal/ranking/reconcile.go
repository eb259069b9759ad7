package ranking

import "github.com/leapstack-labs/ratetable/pkg/core"

// ReconcileOnColumnCreate gives every row lacking col.Key the column's
// default value. Rows already carrying the key keep their value.
func ReconcileOnColumnCreate(rows []core.Row, col core.ColumnDefinition) []core.Row {
	out := make([]core.Row, len(rows))
	for i, row := range rows {
		next := row.Clone()
		if !next.Has(col.Key) {
			next.Fields[col.Key] = DefaultValue(col)
		}
		out[i] = next
	}
	return out
}

// ReconcileOnColumnRename moves each row's oldKey value to newKey.
// Equal keys leave the rows untouched.
func ReconcileOnColumnRename(rows []core.Row, oldKey, newKey string) []core.Row {
	out := make([]core.Row, len(rows))
	for i, row := range rows {
		next := row.Clone()
		if oldKey != newKey {
			if v, ok := next.Fields[oldKey]; ok {
				next.Fields[newKey] = v
				delete(next.Fields, oldKey)
			}
		}
		out[i] = next
	}
	return out
}

// ReconcileOnColumnDelete strips deletedKey from every row.
func ReconcileOnColumnDelete(rows []core.Row, deletedKey string) []core.Row {
	out := make([]core.Row, len(rows))
	for i, row := range rows {
		next := row.Clone()
		delete(next.Fields, deletedKey)
		out[i] = next
	}
	return out
}

// FillDefaults completes a row with defaults for every column it lacks.
func FillDefaults(row core.Row, columns []core.ColumnDefinition) core.Row {
	next := row.Clone()
	for _, col := range columns {
		if !next.Has(col.Key) {
			next.Fields[col.Key] = DefaultValue(col)
		}
	}
	return next
}

// Conform returns a copy of row carrying exactly the given columns' keys:
// missing keys get defaults and keys without a column are dropped.
func Conform(row core.Row, columns []core.ColumnDefinition) core.Row {
	next := FillDefaults(row, columns)
	for key := range next.Fields {
		if _, ok := core.FindColumn(columns, key); !ok {
			delete(next.Fields, key)
		}
	}
	return next
}

// Changed reports which rows differ between before and after, matched by
// position. Both slices come from one reconciliation pass.
func Changed(before, after []core.Row) []core.Row {
	var out []core.Row
	for i := range after {
		if i >= len(before) || !sameFields(before[i], after[i]) {
			out = append(out, after[i])
		}
	}
	return out
}

func sameFields(a, b core.Row) bool {
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for k, av := range a.Fields {
		bv, ok := b.Fields[k]
		if !ok || av != bv {
			return false
		}
	}
	return true
}
