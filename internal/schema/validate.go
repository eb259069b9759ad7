package schema

import (
	"strings"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

// ValidateKey checks that key is present, identifier-safe and unused by any
// column other than the one with selfID.
func ValidateKey(key, selfID string, columns []core.ColumnDefinition) error {
	switch {
	case strings.TrimSpace(key) == "":
		return core.NewValidationError("key", "Key is required")
	case !keyPattern.MatchString(key):
		return core.NewValidationError("key", "Key must start with a letter and contain only letters and numbers")
	}

	for _, col := range columns {
		if col.Key == key && col.ID != selfID {
			return core.NewValidationError("key", "Key already exists")
		}
	}
	return nil
}

// Validate checks a whole column definition against the current column list.
func Validate(col core.ColumnDefinition, selfID string, columns []core.ColumnDefinition) error {
	verr := &core.ValidationError{}

	if err := ValidateKey(col.Key, selfID, columns); err != nil {
		if v, ok := err.(*core.ValidationError); ok {
			verr.Add("key", v.Fields["key"])
		}
	}
	if strings.TrimSpace(col.Label) == "" {
		verr.Add("label", "Label is required")
	}
	if !col.Type.Valid() {
		verr.Add("type", "Type must be string or number")
	}
	if col.DecimalScale != nil && *col.DecimalScale < 0 {
		verr.Add("decimalScale", "Decimal scale must not be negative")
	}
	if !col.OptimalValue.Valid() {
		verr.Add("optimalValue", "Optimal value must be lowest or highest")
	}

	return verr.OrNil()
}
