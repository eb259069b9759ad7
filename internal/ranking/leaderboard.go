package ranking

import (
	"cmp"
	"slices"

	"github.com/leapstack-labs/ratetable/pkg/core"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MaxRankTier is the number of distinct point totals that receive a tier.
const MaxRankTier = 3

// Standing is one leaderboard entry.
type Standing struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	// RankTier is 1 for the highest distinct total, 2 and 3 for the next two,
	// and 0 for every lower total.
	RankTier int `json:"rankTier"`
	// Contributing lists the labels of the columns the row wins.
	Contributing []string `json:"contributing"`
}

// Leaderboard scores rows over visibleColumns using the default locale and
// DefaultTopN.
func Leaderboard(rows []core.Row, visibleColumns []core.ColumnDefinition) []Standing {
	return NewRanker(DefaultLocale, DefaultTopN).Leaderboard(rows, visibleColumns)
}

// Ranker computes leaderboards.
type Ranker struct {
	locale language.Tag
	topN   int
}

// NewRanker creates a Ranker; topN values below 1 fall back to DefaultTopN.
func NewRanker(locale language.Tag, topN int) *Ranker {
	if topN < 1 {
		topN = DefaultTopN
	}
	return &Ranker{locale: locale, topN: topN}
}

// TopN is the number of winning entries per metric.
func (r *Ranker) TopN() int {
	return r.topN
}

// Winners computes the winning value sets of visibleColumns.
func (r *Ranker) Winners(rows []core.Row, visibleColumns []core.ColumnDefinition) Winners {
	return ComputeWinners(rows, visibleColumns, r.topN)
}

// Leaderboard counts, for every row, the visible columns it wins, orders rows
// by points descending then name ascending, and assigns rank tiers to the
// three highest distinct totals.
func (r *Ranker) Leaderboard(rows []core.Row, visibleColumns []core.ColumnDefinition) []Standing {
	winners := r.Winners(rows, visibleColumns)

	out := make([]Standing, 0, len(rows))
	for _, row := range rows {
		s := Standing{ID: row.ID, Name: row.Name(), Contributing: []string{}}
		for _, col := range visibleColumns {
			if winners.Wins(row, col) {
				s.Contributing = append(s.Contributing, col.Label)
			}
		}
		s.Points = len(s.Contributing)
		out = append(out, s)
	}

	coll := collate.New(r.locale)
	slices.SortStableFunc(out, func(a, b Standing) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return coll.CompareString(a.Name, b.Name)
	})

	// out is ordered by points descending, so distinct totals appear in rank order
	tier, last := 0, -1
	for i := range out {
		if out[i].Points != last {
			tier++
			last = out[i].Points
		}
		if tier <= MaxRankTier {
			out[i].RankTier = tier
		}
	}
	return out
}
