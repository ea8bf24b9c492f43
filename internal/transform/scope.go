// Package transform holds the row- and column-level table transformations:
// scope filtering, null-column pruning, and key deduplication. Every function
// returns a derived frame; inputs are never mutated.
package transform

import (
	"fmt"
	"strings"

	"cahetl/internal/ccn"
	"cahetl/internal/frame"
)

// FilterStates keeps rows whose state code is in the allowed set.
// Matching trims edge space and is case-insensitive. Rows failing the
// predicate are excluded entirely.
func FilterStates(f *frame.Frame, stateCol string, states []string) (*frame.Frame, error) {
	ci := f.ColumnIndex(stateCol)
	if ci < 0 {
		return nil, fmt.Errorf("state column %q not found", stateCol)
	}

	allowed := make(map[string]bool, len(states))
	for _, s := range states {
		allowed[strings.ToUpper(strings.TrimSpace(s))] = true
	}

	out := frame.New(f.Columns)
	for _, r := range f.Rows {
		s, ok := r[ci].(string)
		if !ok {
			continue
		}
		if allowed[strings.ToUpper(strings.TrimSpace(s))] {
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}

// FilterFacilityType keeps rows whose normalized identifier carries the
// facility-type code at the 1-indexed inclusive positions [start, end].
// The identifier column must already be normalized; a short or missing
// identifier never matches.
func FilterFacilityType(f *frame.Frame, idCol, code string, start, end int) (*frame.Frame, error) {
	ci := f.ColumnIndex(idCol)
	if ci < 0 {
		return nil, fmt.Errorf("identifier column %q not found", idCol)
	}

	out := frame.New(f.Columns)
	for _, r := range f.Rows {
		id, ok := r[ci].(string)
		if !ok {
			continue
		}
		if ccn.CodeAt(id, start, end) == code {
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}
