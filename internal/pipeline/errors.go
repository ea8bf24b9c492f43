package pipeline

import (
	"fmt"
	"strings"
)

// FactKey is one (facility, fiscal year) pair of the anchor grain.
type FactKey struct {
	FacilityID string
	FiscalYear string
}

func (k FactKey) String() string { return k.FacilityID + "/" + k.FiscalYear }

// DuplicateFactKeyError reports repeated (facility, fiscal year) pairs in
// the primary table before any join. This is an input-data error: the grain
// cannot be anchored, so the run halts instead of silently collapsing rows.
type DuplicateFactKeyError struct {
	Table string
	Keys  []FactKey
}

func (e *DuplicateFactKeyError) Error() string {
	shown := make([]string, 0, len(e.Keys))
	for i, k := range e.Keys {
		if i == 10 {
			shown = append(shown, "...")
			break
		}
		shown = append(shown, k.String())
	}
	return fmt.Sprintf("table %s: %d duplicate (facility, fiscal year) pairs: %s",
		e.Table, len(e.Keys), strings.Join(shown, ", "))
}

// RowCountMismatchError reports a join step that changed the anchor's row
// count. Deduplication failed upstream; output would be silently inflated
// or truncated, so the run halts.
type RowCountMismatchError struct {
	Step     string
	Expected int
	Got      int
}

func (e *RowCountMismatchError) Error() string {
	return fmt.Sprintf("join step %s changed anchor row count: expected %d, got %d (delta %+d)",
		e.Step, e.Expected, e.Got, e.Got-e.Expected)
}

// MissingJoinKeyColumnError reports a source table without its expected
// join-key column. Fatal at load time for that table.
type MissingJoinKeyColumnError struct {
	Table  string
	Column string
}

func (e *MissingJoinKeyColumnError) Error() string {
	return fmt.Sprintf("table %s: join-key column %q not found", e.Table, e.Column)
}
