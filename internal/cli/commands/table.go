package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ratetable/internal/cli/output"
	"github.com/leapstack-labs/ratetable/internal/editor"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// TableOptions holds options for the table command.
type TableOptions struct {
	Sort string
	Desc bool
}

// NewTableCommand creates the table command.
func NewTableCommand() *cobra.Command {
	opts := &TableOptions{}

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Show the comparison table",
		Long: `Show the visible columns for every country.

Cells among the top entries of a scored column are highlighted. Countries
keep their stored order unless --sort names a sortable column; missing
values always sort last.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Table in stored order
  ratetable table

  # Most expensive first
  ratetable table --sort rent --desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTable(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Column key to sort by")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "Sort descending")

	return cmd
}

func runTable(cmd *cobra.Command, opts *TableOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	sortState := core.SortState{}
	if opts.Sort != "" {
		col, ok := core.FindColumn(cmdCtx.Editor.Columns(), opts.Sort)
		if !ok {
			return core.NotFound(core.EntityColumn, opts.Sort)
		}
		if !col.Sortable {
			return fmt.Errorf("column %q is not sortable", opts.Sort)
		}
		sortState = core.SortState{Column: col.Key, Direction: core.SortAscending}
		if opts.Desc {
			sortState.Direction = core.SortDescending
		}
	}

	return renderTable(cmdCtx.Renderer, cmdCtx.Editor.Table(sortState))
}

func renderTable(r *output.Renderer, table editor.Table) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(table)
	}

	headers := make([]string, 0, len(table.Headers))
	for _, h := range table.Headers {
		headers = append(headers, headerText(h))
	}

	top := func(s string) string { return "**" + s + "**" }
	if r.EffectiveMode() == output.ModeText {
		top = func(s string) string { return r.Styles().Top.Render(s) }
	}

	rows := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		line := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			text := cell.Text
			if cell.Top {
				text = top(text)
			}
			line = append(line, text)
		}
		rows = append(rows, line)
	}

	r.Header(1, fmt.Sprintf("Countries (%d total)", len(table.Rows)))
	r.Table(headers, rows)
	return nil
}

// headerText joins a label with its optimal hint and sort indicator.
func headerText(h editor.Header) string {
	parts := []string{h.Label}
	if h.Hint != "" {
		parts = append(parts, "("+h.Hint+")")
	}
	if h.Indicator != "" {
		parts = append(parts, h.Indicator)
	}
	return strings.Join(parts, " ")
}
