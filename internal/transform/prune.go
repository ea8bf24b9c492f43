package transform

import "cahetl/internal/frame"

// PruneNullColumns drops columns whose null fraction reaches threshold
// (1.0 by default: only entirely empty columns go). Mostly-null columns are
// kept; partial information is preserved. Returns the derived frame and the
// names of the dropped columns for the lineage trace.
func PruneNullColumns(f *frame.Frame, threshold float64) (*frame.Frame, []string) {
	if threshold <= 0 || threshold > 1 {
		threshold = 1.0
	}

	var drop []string
	for ci, name := range f.Columns {
		if f.RowCount() == 0 {
			break
		}
		if f.NullFraction(ci) >= threshold {
			drop = append(drop, name)
		}
	}
	if len(drop) == 0 {
		return f, nil
	}
	return f.DropColumns(drop...), drop
}
