package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ratetable/internal/ranking"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

func tableNames(t Table) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Name
	}
	return out
}

func cell(t *testing.T, row TableRow, key string) Cell {
	t.Helper()
	for _, c := range row.Cells {
		if c.Key == key {
			return c
		}
	}
	t.Fatalf("row %s has no cell %s", row.Name, key)
	return Cell{}
}

func TestTable_SortedWithHighlights(t *testing.T) {
	f := newFixture(t)

	table := f.editor.Table(core.SortState{Column: "rent", Direction: core.SortAscending})

	assert.Equal(t, []string{"Bolivia", "Peru", "Argentina", "Chile"}, tableNames(table))
	assert.Equal(t, 3, table.TopN)
	require.Len(t, table.Headers, 5)
	assert.Equal(t, "↑", table.Headers[1].Indicator)
	assert.Equal(t, "↓", table.Headers[1].Hint)
	assert.Equal(t, "⇅", table.Headers[2].Indicator)
	assert.True(t, table.Headers[1].Scored)
	assert.False(t, table.Headers[3].Scored)

	bolivia, chile, argentina := table.Rows[0], table.Rows[3], table.Rows[2]
	assert.Equal(t, Cell{Key: "rent", Text: "300", Value: 300.0, Top: true}, cell(t, bolivia, "rent"))
	assert.Equal(t, "0.0", cell(t, bolivia, "safety").Text)
	assert.False(t, cell(t, bolivia, "safety").Top)
	assert.False(t, cell(t, chile, "rent").Top)
	assert.True(t, cell(t, chile, "safety").Top)
	assert.Equal(t, ranking.NotAvailable, cell(t, argentina, "population").Text)
	assert.False(t, cell(t, argentina, "population").Top, "unscored columns never highlight")
}

func TestTable_MissingValuesLast(t *testing.T) {
	f := newFixture(t)

	table := f.editor.Table(core.SortState{Column: "population", Direction: core.SortDescending})
	assert.Equal(t, []string{"Peru", "Chile", "Bolivia", "Argentina"}, tableNames(table))

	table = f.editor.Table(core.SortState{Column: "population", Direction: core.SortAscending})
	assert.Equal(t, []string{"Bolivia", "Chile", "Peru", "Argentina"}, tableNames(table))
}

func TestTable_UnknownSortColumnIsIgnored(t *testing.T) {
	f := newFixture(t)

	table := f.editor.Table(core.SortState{Column: "gdp", Direction: core.SortAscending})
	assert.Equal(t, core.SortState{}, table.Sort)
	assert.Equal(t, []string{"Chile", "Peru", "Bolivia", "Argentina"}, tableNames(table))
}

func TestTable_HiddenColumns(t *testing.T) {
	f := newFixture(t)
	_, err := f.editor.SetColumnVisible("c-capital", false)
	require.NoError(t, err)

	table := f.editor.Table(core.SortState{})
	for _, h := range table.Headers {
		assert.NotEqual(t, "capital", h.Key)
	}
	assert.Len(t, table.Rows[0].Cells, 4)
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t)

	board := f.editor.Leaderboard()
	require.Len(t, board, 4)

	got := make([]string, len(board))
	for i, s := range board {
		got[i] = s.Name
	}
	assert.Equal(t, []string{"Argentina", "Peru", "Bolivia", "Chile"}, got)
	assert.Equal(t, []int{1, 1, 2, 2}, []int{board[0].RankTier, board[1].RankTier, board[2].RankTier, board[3].RankTier})
	assert.Equal(t, []string{"Rent", "Safety"}, board[0].Contributing)
}

func TestLeaderboard_TopN(t *testing.T) {
	f := newFixture(t, WithTopN(1))

	board := f.editor.Leaderboard()
	assert.Equal(t, "Bolivia", board[0].Name)
	assert.Equal(t, 1, board[0].Points)
	assert.Equal(t, "Chile", board[1].Name)
	assert.Equal(t, 0, board[2].Points)
	assert.Equal(t, 2, board[3].RankTier)
}

func TestLeaderboard_HiddenMetricDoesNotScore(t *testing.T) {
	f := newFixture(t)
	_, err := f.editor.SetColumnVisible("c-safety", false)
	require.NoError(t, err)

	for _, s := range f.editor.Leaderboard() {
		assert.NotContains(t, s.Contributing, "Safety")
	}
}

func TestToggleSort(t *testing.T) {
	f := newFixture(t)

	s, err := f.editor.ToggleSort(core.SortState{}, "rent")
	require.NoError(t, err)
	assert.Equal(t, core.SortState{Column: "rent", Direction: core.SortAscending}, s)

	s, err = f.editor.ToggleSort(s, "safety")
	require.NoError(t, err)
	assert.Equal(t, core.SortState{Column: "safety", Direction: core.SortDescending}, s)

	_, err = f.editor.ToggleSort(s, "gdp")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
