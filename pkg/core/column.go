package core

// NameKey is the key of the pinned identity column every table carries.
const NameKey = "name"

// ColumnType is the value type of a column.
type ColumnType string

// Column types.
const (
	ColumnTypeString ColumnType = "string"
	ColumnTypeNumber ColumnType = "number"
)

// Valid reports whether t is a known column type.
func (t ColumnType) Valid() bool {
	return t == ColumnTypeString || t == ColumnTypeNumber
}

// OptimalValue marks which end of a numeric column is "better".
type OptimalValue string

// Optimal values. The zero value means the column is not a competitive metric.
const (
	OptimalNone    OptimalValue = ""
	OptimalLowest  OptimalValue = "lowest"
	OptimalHighest OptimalValue = "highest"
)

// Valid reports whether v is empty or a known optimal value.
func (v OptimalValue) Valid() bool {
	return v == OptimalNone || v == OptimalLowest || v == OptimalHighest
}

// ColumnDefinition describes one user-defined column of the table.
// Key doubles as the field name inside every Row.
type ColumnDefinition struct {
	ID           string       `json:"id" yaml:"id"`
	Key          string       `json:"key" yaml:"key"`
	Label        string       `json:"label" yaml:"label"`
	Type         ColumnType   `json:"type" yaml:"type"`
	Visible      bool         `json:"visible" yaml:"visible"`
	Sortable     bool         `json:"sortable" yaml:"sortable"`
	Required     bool         `json:"required" yaml:"required"`
	DecimalScale *int         `json:"decimalScale,omitempty" yaml:"decimalScale,omitempty"`
	OptimalValue OptimalValue `json:"optimalValue,omitempty" yaml:"optimalValue,omitempty"`
}

// IsNumber reports whether the column holds numbers.
func (c ColumnDefinition) IsNumber() bool {
	return c.Type == ColumnTypeNumber
}

// IsPinned reports whether the column is the identity column.
func (c ColumnDefinition) IsPinned() bool {
	return c.Key == NameKey
}

// IsScored reports whether the column takes part in the leaderboard:
// a required number column with an optimal value.
func (c ColumnDefinition) IsScored() bool {
	return c.OptimalValue != OptimalNone && c.IsNumber() && c.Required
}

// Clone returns a deep copy of the column.
func (c ColumnDefinition) Clone() ColumnDefinition {
	if c.DecimalScale != nil {
		scale := *c.DecimalScale
		c.DecimalScale = &scale
	}
	return c
}

// NameColumn returns the default definition of the pinned identity column.
func NameColumn() ColumnDefinition {
	return ColumnDefinition{
		ID:       NameKey,
		Key:      NameKey,
		Label:    "Name",
		Type:     ColumnTypeString,
		Visible:  true,
		Sortable: true,
		Required: true,
	}
}

// FindColumn returns the column with the given key.
func FindColumn(columns []ColumnDefinition, key string) (ColumnDefinition, bool) {
	for _, col := range columns {
		if col.Key == key {
			return col, true
		}
	}
	return ColumnDefinition{}, false
}
