package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ratetable/internal/cli/output"
	"github.com/leapstack-labs/ratetable/internal/editor"
	"github.com/leapstack-labs/ratetable/internal/ranking"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// NewCountriesCommand creates the countries command and its subcommands.
func NewCountriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "countries",
		Aliases: []string{"country", "rows"},
		Short:   "Manage the countries in the table",
		Long: `List, add, edit and delete countries.

Countries are addressed by id or by name. Values are given as key=value
pairs; number columns accept numeric text and an empty value clears a cell.`,
	}

	cmd.AddCommand(newCountriesListCommand())
	cmd.AddCommand(newCountriesAddCommand())
	cmd.AddCommand(newCountriesEditCommand())
	cmd.AddCommand(newCountriesDeleteCommand())

	return cmd
}

func newCountriesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all countries with every column",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			r := cmdCtx.Renderer
			rows := cmdCtx.Editor.Rows()
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(rows)
			}

			cols := cmdCtx.Editor.Columns()
			headers := []string{"ID"}
			for _, col := range cols {
				headers = append(headers, col.Label)
			}

			r.Header(1, fmt.Sprintf("Countries (%d total)", len(rows)))
			out := make([][]string, 0, len(rows))
			for _, row := range rows {
				line := []string{row.ID}
				for _, col := range cols {
					line = append(line, ranking.CellValue(row, col))
				}
				out = append(out, line)
			}
			r.Table(headers, out)
			return nil
		},
	}
}

func newCountriesAddCommand() *cobra.Command {
	var assignments []string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a country",
		Long: `Add a country. Columns without a value get their default: 0 for required
numbers, no value for optional numbers and an empty string for text.`,
		Example: `  ratetable countries add Uruguay --set rent=520 --set safety=7.2`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(assignments)
			if err != nil {
				return err
			}
			fields[core.NameKey] = args[0]

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			var created core.Row
			err = cmdCtx.Mutate(cmd.Context(), func(ed *editor.Editor) error {
				created, err = ed.CreateRow(fields)
				return err
			})
			if err != nil {
				return err
			}

			return reportRow(cmdCtx.Renderer, "Added", created)
		},
	}
	cmd.Flags().StringArrayVar(&assignments, "set", nil, "Set a value (key=value, repeatable)")

	return cmd
}

func newCountriesEditCommand() *cobra.Command {
	var assignments []string

	cmd := &cobra.Command{
		Use:   "edit <country>",
		Short: "Change values of a country",
		Long:  `Change values of a country addressed by id or name. Values not given are kept.`,
		Example: `  # Update one value
  ratetable countries edit Peru --set rent=410

  # Rename a country and clear an optional value
  ratetable countries edit r-peru --set name="Perú" --set population=`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(assignments)
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				return fmt.Errorf("nothing to change, pass at least one --set key=value")
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			row, err := resolveRow(cmdCtx.Editor, args[0])
			if err != nil {
				return err
			}

			var updated core.Row
			err = cmdCtx.Mutate(cmd.Context(), func(ed *editor.Editor) error {
				updated, err = ed.PatchRow(row.ID, fields)
				return err
			})
			if err != nil {
				return err
			}

			return reportRow(cmdCtx.Renderer, "Updated", updated)
		},
	}
	cmd.Flags().StringArrayVar(&assignments, "set", nil, "Set a value (key=value, repeatable)")

	return cmd
}

func newCountriesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <country>",
		Aliases: []string{"rm"},
		Short:   "Delete a country",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			row, err := resolveRow(cmdCtx.Editor, args[0])
			if err != nil {
				return err
			}

			err = cmdCtx.Mutate(cmd.Context(), func(ed *editor.Editor) error {
				return ed.DeleteRow(row.ID)
			})
			if err != nil {
				return err
			}

			return reportRow(cmdCtx.Renderer, "Deleted", row)
		},
	}
}

func reportRow(r *output.Renderer, verb string, row core.Row) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(row)
	}
	r.Success(fmt.Sprintf("%s %s (id %s)", verb, row.Name(), row.ID))
	return nil
}
