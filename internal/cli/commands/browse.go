package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ratetable/internal/cli/output"
	"github.com/leapstack-labs/ratetable/internal/editor"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

const (
	browseMaxColumnWidth = 28
	browseChromeHeight   = 6
	topMarker            = " ★"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the table interactively",
		Long: `Browse the comparison table in the terminal.

Keys:
  ←/→ or h/l   select a column
  s or enter   toggle sorting by the selected column (asc, desc, off)
  ↑/↓ or k/j   move between countries
  q or esc     quit

Cells among the top entries of a scored column are marked with ★.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if !cmdCtx.Renderer.IsTTY() {
				return errors.New("browse needs an interactive terminal; use the table command instead")
			}

			m := newBrowseModel(cmdCtx.Editor, cmdCtx.Renderer.Styles())
			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err = p.Run()
			return err
		},
	}
}

// browseModel is the bubbletea model of the browse view.
type browseModel struct {
	editor   *editor.Editor
	styles   output.Styles
	sort     core.SortState
	selected int
	view     editor.Table
	table    table.Model
	status   string
}

func newBrowseModel(ed *editor.Editor, styles output.Styles) browseModel {
	t := table.New(table.WithFocused(true), table.WithHeight(15))

	ts := table.DefaultStyles()
	ts.Header = ts.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	ts.Selected = ts.Selected.Foreground(output.ColorPrimary).Bold(true)
	t.SetStyles(ts)

	m := browseModel{editor: ed, styles: styles, table: t}
	m.refresh()
	return m
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "left", "h":
			if m.selected > 0 {
				m.selected--
			}
			m.refresh()
			return m, nil
		case "right", "l":
			if m.selected < len(m.view.Headers)-1 {
				m.selected++
			}
			m.refresh()
			return m, nil
		case "s", "enter":
			m.toggleSort()
			m.refresh()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-browseChromeHeight, 3))
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header1.Render(fmt.Sprintf("Countries (%d)", len(m.view.Rows))))
	b.WriteString("  ")
	b.WriteString(m.styles.Muted.Render(m.sortLabel()))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.styles.Warning.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Muted.Render("←/→ column • s sort • ↑/↓ move • q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m browseModel) sortLabel() string {
	if !m.sort.Active() {
		return "stored order"
	}
	return fmt.Sprintf("sorted by %s %s", m.sort.Column, m.sort.Direction)
}

// toggleSort cycles the sort state of the selected column.
func (m *browseModel) toggleSort() {
	m.status = ""
	if m.selected >= len(m.view.Headers) {
		return
	}
	h := m.view.Headers[m.selected]
	if !h.Sortable {
		m.status = fmt.Sprintf("%s is not sortable", h.Label)
		return
	}
	next, err := m.editor.ToggleSort(m.sort, h.Key)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.sort = next
}

// refresh rebuilds the table from the editor's current view.
func (m *browseModel) refresh() {
	m.view = m.editor.Table(m.sort)
	if m.selected >= len(m.view.Headers) {
		m.selected = max(len(m.view.Headers)-1, 0)
	}

	widths := make([]int, len(m.view.Headers))
	titles := make([]string, len(m.view.Headers))
	for i, h := range m.view.Headers {
		titles[i] = headerText(h)
		if i == m.selected {
			titles[i] = "▸" + titles[i]
		}
		widths[i] = lipgloss.Width(titles[i])
	}

	rows := make([]table.Row, 0, len(m.view.Rows))
	for _, row := range m.view.Rows {
		cells := make(table.Row, len(row.Cells))
		for i, cell := range row.Cells {
			text := cell.Text
			if cell.Top {
				text += topMarker
			}
			cells[i] = text
			widths[i] = max(widths[i], lipgloss.Width(text))
		}
		rows = append(rows, cells)
	}

	cols := make([]table.Column, len(titles))
	for i, title := range titles {
		cols[i] = table.Column{Title: title, Width: min(widths[i]+1, browseMaxColumnWidth)}
	}

	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
}
