package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ratetable/internal/cli/output"
	"github.com/leapstack-labs/ratetable/internal/state"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import columns and countries from a JSON or YAML file",
		Long: `Import a document of the form {columns: [...], countries: [...]} into the
configured store.

Columns whose id already exists are skipped. Countries whose id or name
already exists are skipped. Every entity is logged as imported, skipped or
failed; use --log-level info to see the details.`,
		Example: `  # Copy a flat JSON data file into the default SQLite store
  ratetable import data/ratetable.json

  # Seed a PostgreSQL database from YAML
  ratetable import seed.yaml --backend postgres`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContextWithoutStore(cmd)
			r := cmdCtx.Renderer

			doc, err := state.ReadDocument(args[0])
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cmdCtx.Cfg, cmdCtx.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			res, err := state.Import(cmd.Context(), store, doc, cmdCtx.Logger)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			if r.EffectiveMode() == output.ModeJSON {
				if err := r.JSON(res); err != nil {
					return err
				}
			} else {
				r.Header(1, "Import Results")
				r.Table([]string{"Collection", "Imported", "Skipped", "Failed"}, [][]string{
					{"Columns", fmt.Sprint(res.Columns.Imported), fmt.Sprint(res.Columns.Skipped), fmt.Sprint(res.Columns.Failed)},
					{"Countries", fmt.Sprint(res.Countries.Imported), fmt.Sprint(res.Countries.Skipped), fmt.Sprint(res.Countries.Failed)},
				})
			}

			if failed := res.Columns.Failed + res.Countries.Failed; failed > 0 {
				return fmt.Errorf("%d entities failed to import", failed)
			}
			return nil
		},
	}
}
