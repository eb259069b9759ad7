package schema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

func intPtr(i int) *int { return &i }

func sampleColumns() []core.ColumnDefinition {
	return []core.ColumnDefinition{
		core.NameColumn(),
		{ID: "rent", Key: "rent", Label: "Rent", Type: core.ColumnTypeNumber, Visible: true, Sortable: true, Required: true, DecimalScale: intPtr(1), OptimalValue: core.OptimalLowest},
		{ID: "capital", Key: "capital", Label: "Capital", Type: core.ColumnTypeString, Visible: true, Sortable: true},
	}
}

func sequentialIDs() Option {
	n := 0
	return WithIDFunc(func(string) string {
		n++
		return fmt.Sprintf("col-%d", n)
	})
}

func TestNewRegistry_AddsNameColumn(t *testing.T) {
	r := NewRegistry([]core.ColumnDefinition{{ID: "a", Key: "a", Label: "A", Type: core.ColumnTypeString}})

	cols := r.Columns()
	require.Len(t, cols, 2)
	assert.Equal(t, core.NameKey, cols[0].Key)
	assert.True(t, cols[0].Required)
}

func TestRegistry_Create(t *testing.T) {
	tests := []struct {
		name      string
		def       core.ColumnDefinition
		wantField string
		wantMsg   string
	}{
		{
			name: "valid column is appended",
			def:  core.ColumnDefinition{Key: "safety", Label: "Safety", Type: core.ColumnTypeNumber, Visible: true},
		},
		{
			name:      "empty key",
			def:       core.ColumnDefinition{Key: " ", Label: "X", Type: core.ColumnTypeString},
			wantField: "key",
			wantMsg:   "Key is required",
		},
		{
			name:      "key starting with digit",
			def:       core.ColumnDefinition{Key: "1abc", Label: "X", Type: core.ColumnTypeString},
			wantField: "key",
			wantMsg:   "Key must start with a letter and contain only letters and numbers",
		},
		{
			name:      "key with underscore",
			def:       core.ColumnDefinition{Key: "cost_index", Label: "X", Type: core.ColumnTypeString},
			wantField: "key",
			wantMsg:   "Key must start with a letter and contain only letters and numbers",
		},
		{
			name:      "duplicate key",
			def:       core.ColumnDefinition{Key: "rent", Label: "Rent again", Type: core.ColumnTypeNumber},
			wantField: "key",
			wantMsg:   "Key already exists",
		},
		{
			name:      "name key is taken",
			def:       core.ColumnDefinition{Key: "name", Label: "Other name", Type: core.ColumnTypeString},
			wantField: "key",
			wantMsg:   "Key already exists",
		},
		{
			name:      "missing label",
			def:       core.ColumnDefinition{Key: "gdp", Type: core.ColumnTypeNumber},
			wantField: "label",
			wantMsg:   "Label is required",
		},
		{
			name:      "unknown type",
			def:       core.ColumnDefinition{Key: "gdp", Label: "GDP", Type: "date"},
			wantField: "type",
			wantMsg:   "Type must be string or number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(sampleColumns(), sequentialIDs())
			before := r.Columns()

			col, err := r.Create(tt.def)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, "col-1", col.ID)
				assert.Equal(t, tt.def.Key, col.Key)
				cols := r.Columns()
				assert.Equal(t, col, cols[len(cols)-1])
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrValidation))
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantMsg, verr.Fields[tt.wantField])
			assert.Equal(t, before, r.Columns(), "failed create must not mutate the list")
		})
	}
}

func TestRegistry_CreateStripsNumberSettingsFromStrings(t *testing.T) {
	r := NewRegistry(sampleColumns())

	col, err := r.Create(core.ColumnDefinition{
		Key: "motto", Label: "Motto", Type: core.ColumnTypeString,
		DecimalScale: intPtr(2), OptimalValue: core.OptimalHighest,
	})
	require.NoError(t, err)

	assert.Nil(t, col.DecimalScale)
	assert.Equal(t, core.OptimalNone, col.OptimalValue)
}

func TestRegistry_KeyDerivedIDs(t *testing.T) {
	r := NewRegistry(sampleColumns(), WithKeyDerivedIDs())

	col, err := r.Create(core.ColumnDefinition{Key: "safety", Label: "Safety", Type: core.ColumnTypeNumber})
	require.NoError(t, err)
	assert.Equal(t, "safety", col.ID)

	col.Key = "safetyIndex"
	updated, change, err := r.Update("safety", col)
	require.NoError(t, err)
	assert.Equal(t, "safetyIndex", updated.ID)
	assert.Equal(t, KeyChange{OldKey: "safety", NewKey: "safetyIndex", OldID: "safety"}, change)

	_, ok := r.Get("safety")
	assert.False(t, ok)
}

func TestRegistry_Update(t *testing.T) {
	r := NewRegistry(sampleColumns())

	def, ok := r.Get("rent")
	require.True(t, ok)
	def.Key = "monthlyRent"
	def.Label = "Monthly rent"

	updated, change, err := r.Update("rent", def)
	require.NoError(t, err)

	assert.Equal(t, "rent", updated.ID, "opaque ids survive renames")
	assert.True(t, change.Renamed())
	assert.Equal(t, "rent", change.OldKey)
	assert.Equal(t, "monthlyRent", change.NewKey)

	cols := r.Columns()
	assert.Equal(t, "monthlyRent", cols[1].Key, "update keeps the ordinal position")
}

func TestRegistry_UpdateOwnKeyIsNotDuplicate(t *testing.T) {
	r := NewRegistry(sampleColumns())

	def, _ := r.Get("capital")
	def.Label = "Capital city"

	_, change, err := r.Update("capital", def)
	require.NoError(t, err)
	assert.False(t, change.Renamed())
}

func TestRegistry_UpdateRejectsTakenKey(t *testing.T) {
	r := NewRegistry(sampleColumns())

	def, _ := r.Get("capital")
	def.Key = "rent"

	_, _, err := r.Update("capital", def)
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestRegistry_NameColumnIsPinned(t *testing.T) {
	r := NewRegistry(sampleColumns())
	before := r.Columns()

	def, _ := r.Get(core.NameKey)
	def.Key = "title"
	_, _, err := r.Update(core.NameKey, def)
	assert.ErrorIs(t, err, core.ErrPinnedColumn)

	_, err = r.Delete(core.NameKey)
	assert.ErrorIs(t, err, core.ErrPinnedColumn)

	_, err = r.SetVisible(core.NameKey, false)
	assert.ErrorIs(t, err, core.ErrPinnedColumn)

	assert.Equal(t, before, r.Columns())
}

func TestRegistry_NameColumnStaysRequired(t *testing.T) {
	r := NewRegistry(sampleColumns())

	def, _ := r.Get(core.NameKey)
	def.Label = "Country"
	def.Required = false
	def.Visible = false

	updated, _, err := r.Update(core.NameKey, def)
	require.NoError(t, err)
	assert.Equal(t, "Country", updated.Label)
	assert.True(t, updated.Required)
	assert.True(t, updated.Visible)
}

func TestRegistry_NameColumnStaysString(t *testing.T) {
	r := NewRegistry(sampleColumns())

	scale := 2
	def, _ := r.Get(core.NameKey)
	def.Type = core.ColumnTypeNumber
	def.DecimalScale = &scale
	def.OptimalValue = core.OptimalHighest

	updated, _, err := r.Update(core.NameKey, def)
	require.NoError(t, err)
	assert.Equal(t, core.ColumnTypeString, updated.Type)
	assert.Nil(t, updated.DecimalScale)
	assert.Equal(t, core.OptimalNone, updated.OptimalValue)
}

func TestRegistry_Delete(t *testing.T) {
	r := NewRegistry(sampleColumns())

	deleted, err := r.Delete("rent")
	require.NoError(t, err)
	assert.Equal(t, "rent", deleted.Key)

	_, ok := r.ByKey("rent")
	assert.False(t, ok)

	_, err = r.Delete("rent")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRegistry_SetVisible(t *testing.T) {
	r := NewRegistry(sampleColumns())

	col, err := r.SetVisible("capital", false)
	require.NoError(t, err)
	assert.False(t, col.Visible)

	visible := r.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, []string{"name", "rent"}, []string{visible[0].Key, visible[1].Key})
}

func TestLabelToKey(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"Population", "population"},
		{"Cost of living INDEX", "costOfLivingIndex"},
		{"  rent   per month ", "rentPerMonth"},
		{"Safety (2024)", "safety2024"},
		{"GDP-per capita", "gdpperCapita"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, LabelToKey(tt.label))
		})
	}
}
