package core

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Error sentinels shared by the registry, the editor, the stores and the API.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrPinnedColumn = errors.New("the name column cannot be deleted, renamed or hidden")
	ErrStoreClosed  = errors.New("store not opened")
)

// ValidationError collects per-field validation messages.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a message for field, keeping the first message per field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// OrNil returns nil when no field failed, so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConflictError reports a duplicate unique value.
type ConflictError struct {
	Entity string // "country" or "column"
	Field  string
	Value  string
}

func (e *ConflictError) Error() string {
	switch e.Entity {
	case EntityCountry:
		return "Country with this name already exists"
	case EntityColumn:
		return "Column with this id or key already exists"
	}
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrConflict.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// Entity names used in errors and log attributes.
const (
	EntityCountry = "country"
	EntityColumn  = "column"
)

// NotFound wraps ErrNotFound with the entity and id that were missing.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}
