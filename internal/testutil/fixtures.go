package testutil

import "github.com/leapstack-labs/ratetable/pkg/core"

func scale(n int) *int { return &n }

// Columns returns the fixture schema: the name column, two scored metrics
// (rent, lower is better; safety, higher is better), an optional number and
// a text column. Ids are opaque and differ from keys.
func Columns() []core.ColumnDefinition {
	return []core.ColumnDefinition{
		core.NameColumn(),
		{ID: "c-rent", Key: "rent", Label: "Rent", Type: core.ColumnTypeNumber, Visible: true, Sortable: true, Required: true, DecimalScale: scale(0), OptimalValue: core.OptimalLowest},
		{ID: "c-safety", Key: "safety", Label: "Safety", Type: core.ColumnTypeNumber, Visible: true, Sortable: true, Required: true, DecimalScale: scale(1), OptimalValue: core.OptimalHighest},
		{ID: "c-population", Key: "population", Label: "Population", Type: core.ColumnTypeNumber, Visible: true, Sortable: true},
		{ID: "c-capital", Key: "capital", Label: "Capital", Type: core.ColumnTypeString, Visible: true, Sortable: true},
	}
}

// Rows returns four fixture countries. Bolivia has no safety value and
// Argentina no population.
func Rows() []core.Row {
	return []core.Row{
		core.NewRow("r-chile", map[string]any{"name": "Chile", "rent": 550.0, "safety": 7.5, "population": 19.6, "capital": "Santiago"}),
		core.NewRow("r-peru", map[string]any{"name": "Peru", "rent": 400.0, "safety": 6.0, "population": 34.0, "capital": "Lima"}),
		core.NewRow("r-bolivia", map[string]any{"name": "Bolivia", "rent": 300.0, "population": 12.2, "capital": "Sucre"}),
		core.NewRow("r-argentina", map[string]any{"name": "Argentina", "rent": 450.0, "safety": 6.5, "population": nil, "capital": "Buenos Aires"}),
	}
}
