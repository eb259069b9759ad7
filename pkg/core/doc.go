// Package core defines the shared language of the ratetable system.
//
// This package contains:
//   - Domain entities (ColumnDefinition, Row)
//   - View state (SortDirection, SortState)
//   - Service interfaces (Store)
//   - Error sentinels and typed errors shared by every layer
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
