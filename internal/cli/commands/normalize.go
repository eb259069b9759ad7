package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ratetable/internal/cli/output"
	"github.com/leapstack-labs/ratetable/internal/state"
)

// NewNormalizeIDsCommand creates the normalize-ids command.
func NewNormalizeIDsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize-ids",
		Short: "Give every country a unique UUID",
		Long: `Replace every country id that is not a valid UUID, or that is used more
than once, with a fresh UUID. Countries that already have a unique UUID are
left alone. Column ids are not touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutStore(cmd)
			r := cmdCtx.Renderer

			store, err := openStore(cmd.Context(), cmdCtx.Cfg, cmdCtx.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			res, err := state.NormalizeRowIDs(cmd.Context(), store)
			if err != nil {
				return err
			}

			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(res)
			case output.ModeMarkdown:
				r.Println(output.FormatHeader(1, "Id Normalization"))
				r.Println("")
				r.Println(output.FormatKeyValue("Countries", fmt.Sprint(res.Total)))
				r.Println(output.FormatKeyValue("Replaced", fmt.Sprint(len(res.Replaced))))
			default:
				r.Success(fmt.Sprintf("Replaced %d of %d country ids", len(res.Replaced), res.Total))
			}

			for _, change := range res.Replaced {
				cmdCtx.Logger.Info("replaced country id", "old", change.Old, "new", change.New)
			}
			return nil
		},
	}
}
