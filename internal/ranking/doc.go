// Package ranking projects rows against the current column schema.
//
// It keeps row field sets consistent with column changes (reconciliation),
// orders rows for display, drives the three-state header sort toggle and
// scores rows on a "top-N per metric" leaderboard. Every function is pure:
// inputs are never mutated and results are fresh slices.
package ranking
