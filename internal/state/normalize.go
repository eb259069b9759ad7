package state

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

// NormalizeResult reports what NormalizeRowIDs changed.
type NormalizeResult struct {
	Total    int        `json:"total"`
	Replaced []IDChange `json:"replaced"`
}

// IDChange is one reassigned row id.
type IDChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// NormalizeRowIDs gives every row whose id is not a valid UUID a fresh one.
// Duplicate ids are replaced too, so the result is unique. The whole row
// collection is rewritten in one ReplaceRows call.
func NormalizeRowIDs(ctx context.Context, store core.Store) (*NormalizeResult, error) {
	rows, err := store.ListRows(ctx)
	if err != nil {
		return nil, err
	}

	res := &NormalizeResult{Total: len(rows)}
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		if _, err := uuid.Parse(row.ID); err == nil && !seen[row.ID] {
			seen[row.ID] = true
			continue
		}
		next := uuid.NewString()
		for seen[next] {
			next = uuid.NewString()
		}
		seen[next] = true
		res.Replaced = append(res.Replaced, IDChange{Old: row.ID, New: next})
		rows[i].ID = next
	}

	if len(res.Replaced) == 0 {
		return res, nil
	}
	if err := store.ReplaceRows(ctx, rows); err != nil {
		return nil, fmt.Errorf("failed to rewrite rows: %w", err)
	}
	return res, nil
}
