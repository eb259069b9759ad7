package ranking

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/leapstack-labs/ratetable/pkg/core"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale is the collation locale used when none is configured.
var DefaultLocale = language.English

// Sorter orders rows for display using a locale-aware string collation.
type Sorter struct {
	locale language.Tag
}

// NewSorter creates a Sorter for the given locale.
func NewSorter(locale language.Tag) *Sorter {
	return &Sorter{locale: locale}
}

// Sort orders rows by state using the default locale.
func Sort(rows []core.Row, state core.SortState, columns []core.ColumnDefinition) []core.Row {
	return NewSorter(DefaultLocale).Sort(rows, state, columns)
}

// Sort returns rows ordered by the state's column and direction.
// With no active sort the storage order is kept. Rows without a usable value
// for the sort key go last in both directions. The sort is stable.
func (s *Sorter) Sort(rows []core.Row, state core.SortState, columns []core.ColumnDefinition) []core.Row {
	out := slices.Clone(rows)
	if !state.Active() {
		return out
	}

	col, _ := core.FindColumn(columns, state.Column)
	desc := state.Direction == core.SortDescending

	if col.IsNumber() {
		slices.SortStableFunc(out, func(a, b core.Row) int {
			av, aok := Numeric(a.Fields[state.Column])
			bv, bok := Numeric(b.Fields[state.Column])
			if c, done := missingLast(aok, bok); done {
				return c
			}
			if desc {
				return cmp.Compare(bv, av)
			}
			return cmp.Compare(av, bv)
		})
		return out
	}

	coll := collate.New(s.locale)
	slices.SortStableFunc(out, func(a, b core.Row) int {
		av, aok := a.Fields[state.Column]
		bv, bok := b.Fields[state.Column]
		if c, done := missingLast(aok && av != nil, bok && bv != nil); done {
			return c
		}
		as, bs := fmt.Sprint(av), fmt.Sprint(bv)
		if desc {
			return coll.CompareString(bs, as)
		}
		return coll.CompareString(as, bs)
	})
	return out
}

// missingLast orders present values before missing ones. done is false when
// both values are present and the caller must compare them.
func missingLast(aPresent, bPresent bool) (int, bool) {
	switch {
	case aPresent && bPresent:
		return 0, false
	case !aPresent && !bPresent:
		return 0, true
	case !aPresent:
		return 1, true
	default:
		return -1, true
	}
}

// ToggleSort computes the next sort state after a header click on clicked.
// Unsortable columns leave the state unchanged. A new column starts in its
// optimal direction (ascending for "lowest", descending otherwise); the
// active column moves ascending → descending → no sort.
func ToggleSort(current core.SortState, clicked core.ColumnDefinition) core.SortState {
	if !clicked.Sortable {
		return current
	}

	if current.Column != clicked.Key {
		dir := core.SortDescending
		if clicked.OptimalValue == core.OptimalLowest {
			dir = core.SortAscending
		}
		return core.SortState{Column: clicked.Key, Direction: dir}
	}

	if current.Direction == core.SortAscending {
		return core.SortState{Column: clicked.Key, Direction: core.SortDescending}
	}
	return core.SortState{}
}
