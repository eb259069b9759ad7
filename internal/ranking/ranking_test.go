package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

func intPtr(i int) *int { return &i }

func row(id string, fields map[string]any) core.Row {
	return core.NewRow(id, fields)
}

func names(rows []core.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name()
	}
	return out
}

var (
	nameCol  = core.NameColumn()
	popCol   = core.ColumnDefinition{ID: "pop", Key: "pop", Label: "Population", Type: core.ColumnTypeNumber, Visible: true, Sortable: true}
	rentCol  = core.ColumnDefinition{ID: "rent", Key: "rent", Label: "Rent", Type: core.ColumnTypeNumber, Visible: true, Sortable: true, Required: true, OptimalValue: core.OptimalLowest}
	safeCol  = core.ColumnDefinition{ID: "safety", Key: "safety", Label: "Safety", Type: core.ColumnTypeNumber, Visible: true, Sortable: true, Required: true, OptimalValue: core.OptimalHighest}
	cityCol  = core.ColumnDefinition{ID: "capital", Key: "capital", Label: "Capital", Type: core.ColumnTypeString, Visible: true, Sortable: true}
	fixedCol = core.ColumnDefinition{ID: "flag", Key: "flag", Label: "Flag", Type: core.ColumnTypeString, Visible: true}
)

// =============================================================================
// Reconciliation
// =============================================================================

func TestReconcileOnColumnCreate(t *testing.T) {
	rows := []core.Row{
		row("1", map[string]any{"name": "A"}),
		row("2", map[string]any{"name": "B", "gdp": 5.0}),
	}

	tests := []struct {
		name string
		col  core.ColumnDefinition
		want any
	}{
		{"required number defaults to zero", core.ColumnDefinition{Key: "gdp", Type: core.ColumnTypeNumber, Required: true}, 0.0},
		{"optional number defaults to null", core.ColumnDefinition{Key: "gdp", Type: core.ColumnTypeNumber}, nil},
		{"string defaults to empty", core.ColumnDefinition{Key: "gdp", Type: core.ColumnTypeString}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconcileOnColumnCreate(rows, tt.col)

			require.Len(t, got, 2)
			v, ok := got[0].Get("gdp")
			assert.True(t, ok)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, 5.0, got[1].Fields["gdp"], "existing values are kept")
			assert.False(t, rows[0].Has("gdp"), "input rows are not mutated")
		})
	}
}

func TestReconcileOnColumnRename(t *testing.T) {
	rows := []core.Row{
		row("1", map[string]any{"name": "A", "rent": 10.0}),
		row("2", map[string]any{"name": "B", "rent": nil}),
		row("3", map[string]any{"name": "C"}),
	}

	got := ReconcileOnColumnRename(rows, "rent", "monthlyRent")

	for _, r := range got {
		assert.False(t, r.Has("rent") && r.Has("monthlyRent"), "row %s has both keys", r.ID)
		assert.False(t, r.Has("rent"))
	}
	assert.Equal(t, 10.0, got[0].Fields["monthlyRent"])
	assert.True(t, got[1].Has("monthlyRent"))
	assert.False(t, got[2].Has("monthlyRent"), "rows without the old key are left alone")
	assert.True(t, rows[0].Has("rent"))
}

func TestReconcileOnColumnRename_SameKeyIsNoop(t *testing.T) {
	rows := []core.Row{row("1", map[string]any{"name": "A", "rent": 10.0})}

	got := ReconcileOnColumnRename(rows, "rent", "rent")
	assert.Equal(t, rows, got)
}

func TestReconcileOnColumnDelete(t *testing.T) {
	rows := []core.Row{
		row("1", map[string]any{"name": "A", "rent": 10.0}),
		row("2", map[string]any{"name": "B"}),
	}

	got := ReconcileOnColumnDelete(rows, "rent")

	assert.False(t, got[0].Has("rent"))
	assert.Equal(t, "A", got[0].Name())
	assert.True(t, rows[0].Has("rent"))
}

func TestDeleteThenRecreate_RestoresDefaultNotOldValue(t *testing.T) {
	rows := []core.Row{row("1", map[string]any{"name": "A", "rent": 42.0})}
	col := core.ColumnDefinition{Key: "rent", Type: core.ColumnTypeNumber, Required: true}

	got := ReconcileOnColumnCreate(ReconcileOnColumnDelete(rows, "rent"), col)
	assert.Equal(t, 0.0, got[0].Fields["rent"])
}

func TestConformAndChanged(t *testing.T) {
	columns := []core.ColumnDefinition{nameCol, rentCol}
	before := []core.Row{
		row("1", map[string]any{"name": "A", "rent": 1.0}),
		row("2", map[string]any{"name": "B", "stale": "x"}),
	}

	after := make([]core.Row, len(before))
	for i, r := range before {
		after[i] = Conform(r, columns)
	}

	assert.Equal(t, map[string]any{"name": "B", "rent": 0.0}, after[1].Fields)

	changed := Changed(before, after)
	require.Len(t, changed, 1)
	assert.Equal(t, "2", changed[0].ID)
}

// =============================================================================
// Sorting
// =============================================================================

func TestSort_NoColumnKeepsStorageOrder(t *testing.T) {
	rows := []core.Row{
		row("1", map[string]any{"name": "C"}),
		row("2", map[string]any{"name": "A"}),
	}

	got := Sort(rows, core.SortState{}, []core.ColumnDefinition{nameCol})
	assert.Equal(t, []string{"C", "A"}, names(got))
}

func TestSort_MissingValuesLastInBothDirections(t *testing.T) {
	rows := []core.Row{
		row("a", map[string]any{"name": "A", "pop": nil}),
		row("b", map[string]any{"name": "B", "pop": 5.0}),
		row("c", map[string]any{"name": "C", "pop": 2.0}),
	}
	columns := []core.ColumnDefinition{nameCol, popCol}

	asc := Sort(rows, core.SortState{Column: "pop", Direction: core.SortAscending}, columns)
	assert.Equal(t, []string{"C", "B", "A"}, names(asc))

	desc := Sort(rows, core.SortState{Column: "pop", Direction: core.SortDescending}, columns)
	assert.Equal(t, []string{"B", "C", "A"}, names(desc))
}

func TestSort_NumericCoercion(t *testing.T) {
	rows := []core.Row{
		row("1", map[string]any{"name": "A", "pop": "10"}),
		row("2", map[string]any{"name": "B", "pop": 9.0}),
		row("3", map[string]any{"name": "C", "pop": "abc"}),
		row("4", map[string]any{"name": "D"}),
		row("5", map[string]any{"name": "E", "pop": "1e400"}),
		row("6", map[string]any{"name": "F", "pop": " 100 "}),
	}
	columns := []core.ColumnDefinition{nameCol, popCol}

	got := Sort(rows, core.SortState{Column: "pop", Direction: core.SortAscending}, columns)
	assert.Equal(t, []string{"B", "A", "F", "C", "D", "E"}, names(got), "unparsable, missing and infinite values keep storage order at the end")
}

func TestSort_DescThenAscReverses(t *testing.T) {
	rows := []core.Row{
		row("1", map[string]any{"name": "A", "pop": 3.0}),
		row("2", map[string]any{"name": "B", "pop": 1.0}),
		row("3", map[string]any{"name": "C", "pop": 7.0}),
		row("4", map[string]any{"name": "D", "pop": 5.0}),
	}
	columns := []core.ColumnDefinition{nameCol, popCol}

	desc := Sort(rows, core.SortState{Column: "pop", Direction: core.SortDescending}, columns)
	asc := Sort(desc, core.SortState{Column: "pop", Direction: core.SortAscending}, columns)

	assert.Equal(t, []string{"C", "D", "A", "B"}, names(desc))
	assert.Equal(t, []string{"B", "A", "D", "C"}, names(asc))
}

func TestSort_StringsUseCollation(t *testing.T) {
	rows := []core.Row{
		row("1", map[string]any{"name": "b", "capital": "Zagreb"}),
		row("2", map[string]any{"name": "a", "capital": "Ålesund"}),
		row("3", map[string]any{"name": "c", "capital": "athens"}),
		row("4", map[string]any{"name": "d", "capital": nil}),
		row("5", map[string]any{"name": "e", "capital": "Bern"}),
	}
	columns := []core.ColumnDefinition{nameCol, cityCol}

	asc := Sort(rows, core.SortState{Column: "capital", Direction: core.SortAscending}, columns)
	assert.Equal(t, []string{"a", "c", "e", "b", "d"}, names(asc))

	desc := Sort(rows, core.SortState{Column: "capital", Direction: core.SortDescending}, columns)
	assert.Equal(t, []string{"b", "e", "c", "a", "d"}, names(desc))
}

func TestToggleSort(t *testing.T) {
	lowest := core.ColumnDefinition{Key: "rent", Sortable: true, OptimalValue: core.OptimalLowest}
	highest := core.ColumnDefinition{Key: "safety", Sortable: true, OptimalValue: core.OptimalHighest}
	plain := core.ColumnDefinition{Key: "pop", Sortable: true}

	t.Run("three state cycle from lowest optimum", func(t *testing.T) {
		s := ToggleSort(core.SortState{}, lowest)
		assert.Equal(t, core.SortState{Column: "rent", Direction: core.SortAscending}, s)

		s = ToggleSort(s, lowest)
		assert.Equal(t, core.SortState{Column: "rent", Direction: core.SortDescending}, s)

		s = ToggleSort(s, lowest)
		assert.Equal(t, core.SortState{}, s)

		s = ToggleSort(s, lowest)
		assert.Equal(t, core.SortState{Column: "rent", Direction: core.SortAscending}, s)
	})

	t.Run("new column without optimum starts descending", func(t *testing.T) {
		s := ToggleSort(core.SortState{Column: "rent", Direction: core.SortAscending}, plain)
		assert.Equal(t, core.SortState{Column: "pop", Direction: core.SortDescending}, s)
	})

	t.Run("highest optimum starts descending and then resets", func(t *testing.T) {
		s := ToggleSort(core.SortState{}, highest)
		assert.Equal(t, core.SortDirection("desc"), s.Direction)
		assert.Equal(t, core.SortState{}, ToggleSort(s, highest))
	})

	t.Run("unsortable column changes nothing", func(t *testing.T) {
		start := core.SortState{Column: "rent", Direction: core.SortAscending}
		assert.Equal(t, start, ToggleSort(start, fixedCol))
	})
}

// =============================================================================
// Top-N and leaderboard
// =============================================================================

func TestTopN_TiesCollapseIntoSet(t *testing.T) {
	rows := []core.Row{
		row("A", map[string]any{"name": "A", "rent": 10.0}),
		row("B", map[string]any{"name": "B", "rent": 10.0}),
		row("C", map[string]any{"name": "C", "rent": 20.0}),
		row("D", map[string]any{"name": "D", "rent": 30.0}),
	}

	set := TopN(rows, rentCol, 3)
	assert.ElementsMatch(t, []float64{10, 20}, []float64(set))

	winners := ComputeWinners(rows, []core.ColumnDefinition{rentCol}, 3)
	assert.True(t, winners.Wins(rows[0], rentCol))
	assert.True(t, winners.Wins(rows[1], rentCol))
	assert.True(t, winners.Wins(rows[2], rentCol))
	assert.False(t, winners.Wins(rows[3], rentCol))
}

func TestTopN_BoundaryTiesAllWin(t *testing.T) {
	rows := []core.Row{
		row("1", map[string]any{"name": "A", "safety": 9.0}),
		row("2", map[string]any{"name": "B", "safety": 8.0}),
		row("3", map[string]any{"name": "C", "safety": 7.0}),
		row("4", map[string]any{"name": "D", "safety": 7.0}),
		row("5", map[string]any{"name": "E", "safety": 6.0}),
	}

	winners := ComputeWinners(rows, []core.ColumnDefinition{safeCol}, 3)

	var won []string
	for _, r := range rows {
		if winners.Wins(r, safeCol) {
			won = append(won, r.Name())
		}
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, won)
}

func TestTopN_SkipsMissingAndCoercesStrings(t *testing.T) {
	rows := []core.Row{
		row("1", map[string]any{"name": "A", "rent": "5"}),
		row("2", map[string]any{"name": "B", "rent": nil}),
		row("3", map[string]any{"name": "C", "rent": "n/a"}),
		row("4", map[string]any{"name": "D"}),
	}

	assert.Equal(t, ValueSet{5}, TopN(rows, rentCol, 3))
}

func TestTopN_OnlyScoredColumns(t *testing.T) {
	rows := []core.Row{row("1", map[string]any{"name": "A", "pop": 5.0})}

	assert.Empty(t, TopN(rows, popCol, 3))
	optional := rentCol
	optional.Required = false
	assert.Empty(t, TopN(rows, optional, 3))
}

func TestValueSet_Tolerance(t *testing.T) {
	set := ValueSet{0.3}
	assert.True(t, set.Contains(0.1+0.2))
	assert.True(t, set.Contains(0.30009))
	assert.False(t, set.Contains(0.3002))
}

func TestLeaderboard(t *testing.T) {
	rows := []core.Row{
		row("1", map[string]any{"name": "Delta", "rent": 30.0, "safety": 1.0}),
		row("2", map[string]any{"name": "Bravo", "rent": 10.0, "safety": 9.0}),
		row("3", map[string]any{"name": "Alpha", "rent": 10.0, "safety": 9.0}),
		row("4", map[string]any{"name": "Charlie", "rent": 20.0, "safety": 0.5}),
		row("5", map[string]any{"name": "Echo", "rent": 40.0, "safety": 0.0}),
	}
	visible := []core.ColumnDefinition{nameCol, rentCol, safeCol}

	got := NewRanker(DefaultLocale, 3).Leaderboard(rows, visible)

	require.Len(t, got, 5)
	assert.Equal(t, Standing{ID: "3", Name: "Alpha", Points: 2, RankTier: 1, Contributing: []string{"Rent", "Safety"}}, got[0])
	assert.Equal(t, "Bravo", got[1].Name)
	assert.Equal(t, 1, got[1].RankTier)
	assert.Equal(t, Standing{ID: "4", Name: "Charlie", Points: 1, RankTier: 2, Contributing: []string{"Rent"}}, got[2])
	assert.Equal(t, Standing{ID: "1", Name: "Delta", Points: 1, RankTier: 2, Contributing: []string{"Safety"}}, got[3])
	assert.Equal(t, Standing{ID: "5", Name: "Echo", Points: 0, RankTier: 3, Contributing: []string{}}, got[4])
}

func TestLeaderboard_RankTiers(t *testing.T) {
	// six scored columns, lowest wins, one winner each
	cols := []core.ColumnDefinition{nameCol}
	for _, key := range []string{"m1", "m2", "m3", "m4", "m5", "m6"} {
		cols = append(cols, core.ColumnDefinition{Key: key, Label: key, Type: core.ColumnTypeNumber, Visible: true, Required: true, OptimalValue: core.OptimalLowest})
	}
	win := func(name string, wins ...string) core.Row {
		f := map[string]any{"name": name}
		for _, c := range cols[1:] {
			f[c.Key] = 100.0
		}
		for _, w := range wins {
			f[w] = 1.0
		}
		return row(name, f)
	}
	rows := []core.Row{
		win("P", "m1", "m2", "m3"),
		win("Q", "m1", "m2", "m3"),
		win("R", "m4"),
		win("S", "m5", "m6"),
		win("T"),
	}
	got := NewRanker(DefaultLocale, 1).Leaderboard(rows, cols)

	tiers := map[string]int{}
	for _, s := range got {
		tiers[s.Name] = s.RankTier
	}
	assert.Equal(t, map[string]int{"P": 1, "Q": 1, "S": 2, "R": 3, "T": 0}, tiers)
}

func TestLeaderboard_IgnoresHiddenColumns(t *testing.T) {
	rows := []core.Row{
		row("1", map[string]any{"name": "A", "rent": 1.0}),
		row("2", map[string]any{"name": "B", "rent": 2.0}),
	}

	got := Leaderboard(rows, []core.ColumnDefinition{nameCol})
	for _, s := range got {
		assert.Zero(t, s.Points)
		assert.Equal(t, 1, s.RankTier)
	}
}

// =============================================================================
// Formatting
// =============================================================================

func TestCellValue(t *testing.T) {
	scaled := rentCol
	scaled.DecimalScale = intPtr(2)

	tests := []struct {
		name string
		row  core.Row
		col  core.ColumnDefinition
		want string
	}{
		{"missing", row("1", map[string]any{}), scaled, "N/A"},
		{"null", row("1", map[string]any{"rent": nil}), scaled, "N/A"},
		{"scaled number", row("1", map[string]any{"rent": 3.14159}), scaled, "3.14"},
		{"scaled numeric string", row("1", map[string]any{"rent": "2.5"}), scaled, "2.50"},
		{"unparsable string shown verbatim", row("1", map[string]any{"rent": "soon"}), scaled, "soon"},
		{"unscaled number", row("1", map[string]any{"pop": 1200000.0}), popCol, "1200000"},
		{"string", row("1", map[string]any{"capital": "Oslo"}), cityCol, "Oslo"},
		{"zero scale", row("1", map[string]any{"rent": 2.6}), func() core.ColumnDefinition { c := rentCol; c.DecimalScale = intPtr(0); return c }(), "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellValue(tt.row, tt.col))
		})
	}
}

func TestInitialValues(t *testing.T) {
	got := InitialValues([]core.ColumnDefinition{nameCol, rentCol, popCol, cityCol})
	assert.Equal(t, map[string]any{"name": "", "rent": 0.0, "pop": nil, "capital": ""}, got)
}

func TestSortIndicator(t *testing.T) {
	state := core.SortState{Column: "rent", Direction: core.SortAscending}
	assert.Equal(t, "⇅", SortIndicator("pop", state))
	assert.Equal(t, "↑", SortIndicator("rent", state))
	assert.Equal(t, "↓", SortIndicator("rent", core.SortState{Column: "rent", Direction: core.SortDescending}))
	assert.Equal(t, "↓", OptimalHint(rentCol))
	assert.Equal(t, "↑", OptimalHint(safeCol))
	assert.Empty(t, OptimalHint(popCol))
}
