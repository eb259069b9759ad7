package ranking

import (
	"cmp"
	"math"
	"slices"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

// DefaultTopN is the number of leading entries that win a metric column.
const DefaultTopN = 3

// ValueSet is the distinct set of winning values of one metric column.
type ValueSet []float64

// Contains reports whether v equals a member within Tolerance.
func (s ValueSet) Contains(v float64) bool {
	for _, member := range s {
		if math.Abs(v-member) < Tolerance {
			return true
		}
	}
	return false
}

// TopN returns the distinct values of the first n rows after ordering the
// column's numeric values from best to worst. Only scored columns (required
// numbers with an optimal value) produce a set. Because the result holds
// values rather than rows, every row tying a winning value wins too.
func TopN(rows []core.Row, col core.ColumnDefinition, n int) ValueSet {
	if !col.IsScored() || n <= 0 {
		return nil
	}

	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, ok := Numeric(row.Fields[col.Key]); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil
	}

	slices.SortStableFunc(values, func(a, b float64) int {
		if col.OptimalValue == core.OptimalLowest {
			return cmp.Compare(a, b)
		}
		return cmp.Compare(b, a)
	})

	var set ValueSet
	for _, v := range values[:min(n, len(values))] {
		if !slices.Contains(set, v) {
			set = append(set, v)
		}
	}
	return set
}

// Winners maps each scored column key to its top-n value set.
type Winners map[string]ValueSet

// ComputeWinners computes TopN for every scored column in columns.
func ComputeWinners(rows []core.Row, columns []core.ColumnDefinition, n int) Winners {
	w := make(Winners)
	for _, col := range columns {
		if col.IsScored() {
			w[col.Key] = TopN(rows, col, n)
		}
	}
	return w
}

// Wins reports whether row's value for col is among the column's winners.
func (w Winners) Wins(row core.Row, col core.ColumnDefinition) bool {
	if !col.IsScored() {
		return false
	}
	set := w[col.Key]
	if len(set) == 0 {
		return false
	}
	v, ok := Numeric(row.Fields[col.Key])
	if !ok {
		return false
	}
	return set.Contains(v)
}
