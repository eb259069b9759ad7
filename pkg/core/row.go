package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// IDField is the reserved JSON field carrying a row's identifier.
const IDField = "id"

// Row is one record of the table (a "country"). Fields maps column keys to
// values; a value is a string, a float64 or nil. A key that is present with
// a nil value is a defined-but-empty cell, which differs from an absent key.
type Row struct {
	ID     string
	Fields map[string]any
}

// NewRow creates a row with a copy of fields.
func NewRow(id string, fields map[string]any) Row {
	r := Row{ID: id, Fields: make(map[string]any, len(fields))}
	maps.Copy(r.Fields, fields)
	return r
}

// Name returns the row's business key.
func (r Row) Name() string {
	if s, ok := r.Fields[NameKey].(string); ok {
		return s
	}
	if v, ok := r.Fields[NameKey]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// Get returns the value stored under key and whether the key is present.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// Has reports whether the row carries key, null or not.
func (r Row) Has(key string) bool {
	_, ok := r.Fields[key]
	return ok
}

// Clone returns a copy of the row that shares no map with r.
func (r Row) Clone() Row {
	return NewRow(r.ID, r.Fields)
}

// Keys returns the row's field keys in sorted order.
func (r Row) Keys() []string {
	return slices.Sorted(maps.Keys(r.Fields))
}

// MarshalJSON flattens the row into a single object with the id alongside
// the fields, matching the wire format of the REST API.
func (r Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	if r.ID != "" {
		out[IDField] = r.ID
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a flat object. Numbers decode as float64. A numeric id
// (as written by older data files) is converted to its decimal string.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	fields := make(map[string]any, len(raw))
	id := ""
	for k, v := range raw {
		if k == IDField {
			if v != nil {
				id = fmt.Sprint(v)
			}
			continue
		}
		val, err := normalizeValue(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		fields[k] = val
	}

	r.ID = id
	r.Fields = fields
	return nil
}

// normalizeValue narrows a decoded JSON value to the cell value domain.
func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, float64:
		return t, nil
	case json.Number:
		return t.Float64()
	case bool:
		return fmt.Sprint(t), nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

// NormalizeFields converts every value in fields into the cell value domain
// (string, float64 or nil). Integers become float64.
func NormalizeFields(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case int:
			out[k] = float64(t)
		case int64:
			out[k] = float64(t)
		case float32:
			out[k] = float64(t)
		default:
			val, err := normalizeValue(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = val
		}
	}
	return out, nil
}
