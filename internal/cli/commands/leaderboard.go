package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ratetable/internal/cli/output"
	"github.com/leapstack-labs/ratetable/internal/ranking"
)

const noContributors = "No contributing indices"

// NewLeaderboardCommand creates the leaderboard command.
func NewLeaderboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank countries by the metrics they lead",
		Long: `Rank countries by how many scored columns they lead.

A country earns one point for every visible, required number column with an
optimal value where its value is among the top entries (ranking.top_n).
The three highest distinct totals are marked as rank tiers 1 to 3.`,
		Example: `  ratetable leaderboard
  ratetable leaderboard --top-n 5 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return renderLeaderboard(cmdCtx.Renderer, cmdCtx.Editor.Leaderboard())
		},
	}
}

func renderLeaderboard(r *output.Renderer, board []ranking.Standing) error {
	if r.EffectiveMode() == output.ModeJSON {
		if board == nil {
			board = []ranking.Standing{}
		}
		return r.JSON(board)
	}

	r.Header(1, "Leaderboard")
	if len(board) == 0 {
		r.Muted("No countries yet.")
		return nil
	}

	styles := r.Styles()
	rows := make([][]string, 0, len(board))
	for _, s := range board {
		tier := "-"
		if s.RankTier > 0 {
			tier = strconv.Itoa(s.RankTier)
		}
		contributing := noContributors
		if len(s.Contributing) > 0 {
			contributing = strings.Join(s.Contributing, ", ")
		}

		name := s.Name
		switch {
		case r.EffectiveMode() == output.ModeText:
			name = styles.Tier(s.RankTier).Render(name)
		case s.RankTier > 0:
			name = "**" + name + "**"
		}

		rows = append(rows, []string{tier, name, fmt.Sprintf("%d", s.Points), contributing})
	}
	r.Table([]string{"Tier", "Country", "Points", "Leads in"}, rows)
	return nil
}
