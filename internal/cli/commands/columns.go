package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ratetable/internal/cli/output"
	"github.com/leapstack-labs/ratetable/internal/editor"
	"github.com/leapstack-labs/ratetable/internal/schema"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// columnFlags holds the flags shared by columns add and columns edit.
type columnFlags struct {
	label    string
	key      string
	colType  string
	optimal  string
	scale    int
	required bool
	hidden   bool
	noSort   bool
}

func (f *columnFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.label, "label", "", "Column label shown in the table header")
	cmd.Flags().StringVar(&f.key, "key", "", "Field key (default: derived from the label)")
	cmd.Flags().StringVar(&f.colType, "type", string(core.ColumnTypeString), "Column type (string|number)")
	cmd.Flags().StringVar(&f.optimal, "optimal", "", "Better end of a number column (lowest|highest|none)")
	cmd.Flags().IntVar(&f.scale, "scale", -1, "Decimal places shown for a number column (-1 for none)")
	cmd.Flags().BoolVar(&f.required, "required", false, "Every country must have a value")
	cmd.Flags().BoolVar(&f.hidden, "hidden", false, "Hide the column from the table")
	cmd.Flags().BoolVar(&f.noSort, "no-sort", false, "Disable sorting by this column")

	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(core.ColumnTypeString), string(core.ColumnTypeNumber)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("optimal", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(core.OptimalLowest), string(core.OptimalHighest), "none"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// apply copies the flags onto def. With onlyChanged set, flags the user did
// not pass leave def untouched.
func (f *columnFlags) apply(cmd *cobra.Command, def *core.ColumnDefinition, onlyChanged bool) {
	set := func(name string) bool {
		return !onlyChanged || cmd.Flags().Changed(name)
	}

	if set("label") {
		def.Label = f.label
	}
	if set("type") {
		def.Type = core.ColumnType(f.colType)
	}
	if set("optimal") {
		def.OptimalValue = core.OptimalValue(f.optimal)
		if f.optimal == "none" {
			def.OptimalValue = core.OptimalNone
		}
	}
	if set("scale") {
		def.DecimalScale = nil
		if f.scale >= 0 {
			scale := f.scale
			def.DecimalScale = &scale
		}
	}
	if set("required") {
		def.Required = f.required
	}
	if set("hidden") {
		def.Visible = !f.hidden
	}
	if set("no-sort") {
		def.Sortable = !f.noSort
	}

	switch {
	case cmd.Flags().Changed("key"):
		def.Key = f.key
	case !onlyChanged:
		def.Key = schema.LabelToKey(f.label)
	}
}

// NewColumnsCommand creates the columns command and its subcommands.
func NewColumnsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "columns",
		Aliases: []string{"column", "cols"},
		Short:   "Manage the table columns",
		Long: `List, add, edit, delete, show and hide table columns.

Columns are addressed by id or by key. The name column always exists and
cannot be deleted, renamed or hidden.`,
	}

	cmd.AddCommand(newColumnsListCommand())
	cmd.AddCommand(newColumnsAddCommand())
	cmd.AddCommand(newColumnsEditCommand())
	cmd.AddCommand(newColumnsDeleteCommand())
	cmd.AddCommand(newColumnsVisibilityCommand("show", true))
	cmd.AddCommand(newColumnsVisibilityCommand("hide", false))

	return cmd
}

func newColumnsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all columns",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return renderColumns(cmdCtx.Renderer, cmdCtx.Editor.Columns())
		},
	}
}

func renderColumns(r *output.Renderer, cols []core.ColumnDefinition) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(cols)
	}

	r.Header(1, fmt.Sprintf("Columns (%d total)", len(cols)))
	rows := make([][]string, 0, len(cols))
	for _, col := range cols {
		scale := ""
		if col.DecimalScale != nil {
			scale = strconv.Itoa(*col.DecimalScale)
		}
		rows = append(rows, []string{
			col.ID, col.Key, col.Label, string(col.Type),
			yesNo(col.Visible), yesNo(col.Sortable), yesNo(col.Required),
			scale, string(col.OptimalValue),
		})
	}
	r.Table([]string{"ID", "Key", "Label", "Type", "Visible", "Sortable", "Required", "Scale", "Optimal"}, rows)
	return nil
}

func newColumnsAddCommand() *cobra.Command {
	flags := &columnFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a column",
		Long: `Add a column to the table. Every existing country receives the column's
default value: 0 for required numbers, no value for optional numbers and an
empty string for text.`,
		Example: `  # Add a scored metric where lower is better
  ratetable columns add --label "Monthly rent" --type number --required --optimal lowest --scale 0

  # Add an optional text column with an explicit key
  ratetable columns add --label "Capital" --key capital`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			def := core.ColumnDefinition{Visible: true, Sortable: true}
			flags.apply(cmd, &def, false)

			var created core.ColumnDefinition
			err = cmdCtx.Mutate(cmd.Context(), func(ed *editor.Editor) error {
				created, err = ed.CreateColumn(def)
				return err
			})
			if err != nil {
				return err
			}

			return reportColumn(cmdCtx.Renderer, "Added column", created)
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("label")

	return cmd
}

func newColumnsEditCommand() *cobra.Command {
	flags := &columnFlags{}

	cmd := &cobra.Command{
		Use:   "edit <column>",
		Short: "Edit a column",
		Long: `Edit a column addressed by id or key. Only the flags you pass change.
Changing the key renames the field in every country.`,
		Example: `  # Rename a column's key and label
  ratetable columns edit rent --label "Rent (USD)" --key rentUsd

  # Stop scoring a column
  ratetable columns edit safety --optimal none`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			current, err := resolveColumn(cmdCtx.Editor, args[0])
			if err != nil {
				return err
			}
			def := current.Clone()
			flags.apply(cmd, &def, true)

			var updated core.ColumnDefinition
			err = cmdCtx.Mutate(cmd.Context(), func(ed *editor.Editor) error {
				updated, err = ed.EditColumn(current.ID, def)
				return err
			})
			if err != nil {
				return err
			}

			return reportColumn(cmdCtx.Renderer, "Updated column", updated)
		},
	}
	flags.register(cmd)

	return cmd
}

func newColumnsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <column>",
		Aliases: []string{"rm"},
		Short:   "Delete a column and its values",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			col, err := resolveColumn(cmdCtx.Editor, args[0])
			if err != nil {
				return err
			}

			var deleted core.ColumnDefinition
			err = cmdCtx.Mutate(cmd.Context(), func(ed *editor.Editor) error {
				deleted, err = ed.DeleteColumn(col.ID)
				return err
			})
			if err != nil {
				return err
			}

			return reportColumn(cmdCtx.Renderer, "Deleted column", deleted)
		},
	}
}

func newColumnsVisibilityCommand(use string, visible bool) *cobra.Command {
	short := "Show a hidden column"
	if !visible {
		short = "Hide a column from the table and the leaderboard"
	}

	return &cobra.Command{
		Use:   use + " <column>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			col, err := resolveColumn(cmdCtx.Editor, args[0])
			if err != nil {
				return err
			}

			var updated core.ColumnDefinition
			err = cmdCtx.Mutate(cmd.Context(), func(ed *editor.Editor) error {
				updated, err = ed.SetColumnVisible(col.ID, visible)
				return err
			})
			if err != nil {
				return err
			}

			verb := "Shown"
			if !visible {
				verb = "Hidden"
			}
			return reportColumn(cmdCtx.Renderer, verb+" column", updated)
		},
	}
}

func reportColumn(r *output.Renderer, verb string, col core.ColumnDefinition) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(col)
	}
	r.Success(fmt.Sprintf("%s %q (key %s, id %s)", verb, col.Label, col.Key, col.ID))
	return nil
}
