package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ratetable/internal/cli/config"
	"github.com/leapstack-labs/ratetable/internal/cli/output"
	"github.com/leapstack-labs/ratetable/internal/editor"
	"github.com/leapstack-labs/ratetable/internal/outbox"
	"github.com/leapstack-labs/ratetable/internal/state"
	"github.com/leapstack-labs/ratetable/internal/testutil"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

func newTestEditor(t *testing.T) (*editor.Editor, *state.MemoryStore, *outbox.Outbox) {
	t.Helper()
	ctx := context.Background()

	store := state.NewMemoryStore()
	require.NoError(t, store.ReplaceColumns(ctx, testutil.Columns()))
	require.NoError(t, store.ReplaceRows(ctx, testutil.Rows()))

	logger := testutil.NewTestLogger(t)
	ob := outbox.New(store, outbox.WithLogger(logger))
	ed := editor.New(store, ob, editor.WithLogger(logger))
	require.NoError(t, ed.Load(ctx))
	return ed, store, ob
}

func TestNewColumnsCommand(t *testing.T) {
	cmd := NewColumnsCommand()

	assert.Equal(t, "columns", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	subcommands := []string{"list", "add", "edit", "delete", "show", "hide"}
	for _, name := range subcommands {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	add, _, err := cmd.Find([]string{"add"})
	require.NoError(t, err)
	flags := []string{"label", "key", "type", "optimal", "scale", "required", "hidden", "no-sort"}
	for _, flag := range flags {
		assert.NotNil(t, add.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewCountriesCommand(t *testing.T) {
	cmd := NewCountriesCommand()

	assert.Equal(t, "countries", cmd.Use)
	for _, name := range []string{"list", "add", "edit", "delete"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestNewTableCommand(t *testing.T) {
	cmd := NewTableCommand()

	assert.Equal(t, "table", cmd.Use)
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	for _, flag := range []string{"sort", "desc"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve", cmd.Use)
	for _, flag := range []string{"port", "watch", "open"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{
			name:  "values stay strings",
			pairs: []string{"rent=520", "capital=Montevideo"},
			want:  map[string]any{"rent": "520", "capital": "Montevideo"},
		},
		{
			name:  "empty value",
			pairs: []string{"population="},
			want:  map[string]any{"population": ""},
		},
		{
			name:  "value containing equals",
			pairs: []string{"note=a=b"},
			want:  map[string]any{"note": "a=b"},
		},
		{name: "missing equals", pairs: []string{"rent"}, wantErr: true},
		{name: "missing key", pairs: []string{"=5"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssignments(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	ed, _, _ := newTestEditor(t)

	col, err := resolveColumn(ed, "c-rent")
	require.NoError(t, err)
	assert.Equal(t, "rent", col.Key)

	col, err = resolveColumn(ed, "safety")
	require.NoError(t, err)
	assert.Equal(t, "c-safety", col.ID)

	_, err = resolveColumn(ed, "missing")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	row, err := resolveRow(ed, "Peru")
	require.NoError(t, err)
	assert.Equal(t, "r-peru", row.ID)

	row, err = resolveRow(ed, "r-chile")
	require.NoError(t, err)
	assert.Equal(t, "Chile", row.Name())

	_, err = resolveRow(ed, "Atlantis")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestHeaderText(t *testing.T) {
	tests := []struct {
		header editor.Header
		want   string
	}{
		{header: editor.Header{Label: "Name", Indicator: "⇅"}, want: "Name ⇅"},
		{header: editor.Header{Label: "Rent", Hint: "↓", Indicator: "↑"}, want: "Rent (↓) ↑"},
		{header: editor.Header{Label: "Notes"}, want: "Notes"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, headerText(tt.header))
		})
	}
}

func TestCommandContextMutate(t *testing.T) {
	ed, store, ob := newTestEditor(t)
	cmdCtx := &CommandContext{
		Cfg:    &config.Config{Outbox: config.OutboxConfig{FlushTimeout: config.DefaultFlushTimeout}},
		Logger: testutil.NewTestLogger(t),
		Store:  store,
		Outbox: ob,
		Editor: ed,
	}
	ctx := context.Background()

	err := cmdCtx.Mutate(ctx, func(ed *editor.Editor) error {
		_, err := ed.CreateRow(map[string]any{"name": "Uruguay", "rent": 520})
		return err
	})
	require.NoError(t, err)

	rows, err := store.ListRows(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, outbox.Stats{Issued: 1, Applied: 1}, ob.Stats())

	// An editor error is returned and nothing is written.
	err = cmdCtx.Mutate(ctx, func(ed *editor.Editor) error {
		_, err := ed.CreateRow(map[string]any{"name": "Chile"})
		return err
	})
	assert.True(t, errors.Is(err, core.ErrConflict))
	assert.Equal(t, 1, ob.Stats().Issued)
}

func TestCommandContextMutate_ReportsFailedWrites(t *testing.T) {
	ed, store, ob := newTestEditor(t)
	cmdCtx := &CommandContext{
		Cfg:    &config.Config{Outbox: config.OutboxConfig{FlushTimeout: config.DefaultFlushTimeout}},
		Store:  store,
		Outbox: ob,
		Editor: ed,
	}

	// The store loses the row behind the editor's back, so the delete fails.
	require.NoError(t, store.DeleteRow(context.Background(), "r-peru"))

	err := cmdCtx.Mutate(context.Background(), func(ed *editor.Editor) error {
		return ed.DeleteRow("r-peru")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 writes failed")
}

func TestRenderLeaderboard_Text(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	out := &bytes.Buffer{}
	r := output.NewRendererWithTTY(out, &bytes.Buffer{}, true, output.ModeText)

	require.NoError(t, renderLeaderboard(r, ed.Leaderboard()))

	s := out.String()
	assert.Contains(t, s, "Leaderboard")
	assert.Contains(t, s, "Argentina")
	assert.Contains(t, s, "Bolivia")
}

// =============================================================================
// Browse view
// =============================================================================

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m browseModel, keys ...string) browseModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		var ok bool
		m, ok = next.(browseModel)
		require.True(t, ok)
	}
	return m
}

func rowNames(m browseModel) []string {
	names := make([]string, 0, len(m.view.Rows))
	for _, row := range m.view.Rows {
		names = append(names, row.Name)
	}
	return names
}

func TestBrowseModel_ToggleSort(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	m := newBrowseModel(ed, output.NewStyles(lipgloss.DefaultRenderer()))

	assert.Equal(t, 0, m.selected)
	assert.Equal(t, []string{"Chile", "Peru", "Bolivia", "Argentina"}, rowNames(m))

	m = press(t, m, "right", "s")
	assert.Equal(t, core.SortState{Column: "rent", Direction: core.SortAscending}, m.sort)
	assert.Equal(t, []string{"Bolivia", "Peru", "Argentina", "Chile"}, rowNames(m))

	m = press(t, m, "enter")
	assert.Equal(t, core.SortDescending, m.sort.Direction)
	assert.Equal(t, []string{"Chile", "Argentina", "Peru", "Bolivia"}, rowNames(m))

	m = press(t, m, "s")
	assert.False(t, m.sort.Active())

	view := m.View()
	assert.Contains(t, view, "stored order")
	assert.Contains(t, view, "▸Rent")
}

func TestBrowseModel_SelectionStaysInRange(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	m := newBrowseModel(ed, output.NewStyles(lipgloss.DefaultRenderer()))

	m = press(t, m, "left", "left")
	assert.Equal(t, 0, m.selected)

	m = press(t, m, "right", "right", "right", "right", "right", "right", "right")
	assert.Equal(t, len(m.view.Headers)-1, m.selected)
}

func TestBrowseModel_Quit(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	m := newBrowseModel(ed, output.NewStyles(lipgloss.DefaultRenderer()))

	_, cmd := m.Update(key("q"))

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
