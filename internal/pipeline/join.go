package pipeline

import (
	"fmt"

	"cahetl/internal/ccn"
	"cahetl/internal/config"
	"cahetl/internal/frame"
	"cahetl/internal/lineage"
	"cahetl/internal/transform"
)

// Orchestrator folds dimension tables onto the fact anchor one at a time.
// State is the current frame plus the expected row count fixed when the
// anchor was built; every fold re-verifies the count. Join order among
// dimension tables is otherwise commutative: each fold joins against an
// already-deduplicated right-hand side.
type Orchestrator struct {
	cfg      config.Config
	current  *frame.Frame
	expected int
	trace    *lineage.Trace
}

// NewOrchestrator starts from the fact builder's output.
func NewOrchestrator(cfg config.Config, anchor *frame.Frame, tr *lineage.Trace) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		current:  anchor,
		expected: anchor.RowCount(),
		trace:    tr,
	}
}

// Result returns the current frame; after all folds it is the unified set.
func (o *Orchestrator) Result() *frame.Frame { return o.current }

// Fold prepares one dimension table (normalize, prune, dedupe) and left
// joins it onto the anchor. The anchor's rows are never added or removed:
// unmatched rows carry nil attributes, and a row-count change is fatal.
func (o *Orchestrator) Fold(spec config.DimensionSpec, raw *frame.Frame) error {
	step := lineage.JoinStep{Table: spec.Name, RowsIn: raw.RowCount()}

	var keyCol string
	switch spec.JoinOn {
	case config.JoinOnFacility:
		keyCol = o.cfg.Columns.Facility
	case config.JoinOnFiscalYear:
		keyCol = o.cfg.Columns.FiscalYear
	default:
		return fmt.Errorf("dimension %s: unknown join_on %q", spec.Name, spec.JoinOn)
	}
	step.JoinKey = keyCol

	if !raw.HasColumn(keyCol) {
		return &MissingJoinKeyColumnError{Table: spec.Name, Column: keyCol}
	}

	f := raw
	var err error
	switch spec.JoinOn {
	case config.JoinOnFacility:
		var malformed []string
		f, malformed, err = ccn.NormalizeColumn(f, keyCol, spec.Name, o.cfg.IdentifierWidth)
		if err != nil {
			return err
		}
		step.MalformedIDs = malformed
	case config.JoinOnFiscalYear:
		f, step.DroppedYears, err = transform.CanonicalizeYears(f, keyCol, spec.Name)
		if err != nil {
			return err
		}
	}

	// Prune before dedupe: an all-null column would otherwise survive into
	// the output as a spurious attribute.
	f, step.PrunedColumns = transform.PruneNullColumns(f, o.cfg.NullDropThreshold)

	f, err = transform.DedupeByKey(f, keyCol, spec.Name)
	if err != nil {
		return err
	}
	step.RowsAfterDedup = f.RowCount()

	joined, err := leftJoin(o.current, f, keyCol, spec.Name)
	if err != nil {
		return err
	}

	if joined.RowCount() != o.expected {
		return &RowCountMismatchError{Step: spec.Name, Expected: o.expected, Got: joined.RowCount()}
	}

	o.current = joined
	step.RowsAfterJoin = joined.RowCount()
	o.trace.AddStep(step)
	return nil
}

// leftJoin attaches the right table's attributes onto every left row that
// matches on keyCol. The right key column itself is not duplicated into the
// output, and right columns whose names collide with existing left columns
// are suffixed with the right table's name.
func leftJoin(left, right *frame.Frame, keyCol, rightName string) (*frame.Frame, error) {
	lk := left.ColumnIndex(keyCol)
	if lk < 0 {
		return nil, &MissingJoinKeyColumnError{Table: "anchor", Column: keyCol}
	}
	rk := right.ColumnIndex(keyCol)
	if rk < 0 {
		return nil, &MissingJoinKeyColumnError{Table: rightName, Column: keyCol}
	}

	// Right columns carried into the output, in order, minus the key.
	carry := make([]int, 0, len(right.Columns)-1)
	cols := append([]string(nil), left.Columns...)
	for i, c := range right.Columns {
		if i == rk {
			continue
		}
		carry = append(carry, i)
		if left.HasColumn(c) {
			c = c + "_" + rightName
		}
		cols = append(cols, c)
	}

	// All matches per key: if the right side was not properly deduplicated,
	// the join multiplies rows and the caller's row-count check trips.
	byKey := make(map[string][]int, right.RowCount())
	for i, r := range right.Rows {
		k := transform.KeyString(r[rk])
		byKey[k] = append(byKey[k], i)
	}

	out := frame.New(cols)
	out.Rows = make([][]any, 0, left.RowCount())
	for _, lr := range left.Rows {
		matches := byKey[transform.KeyString(lr[lk])]
		if len(matches) == 0 {
			row := make([]any, len(cols))
			copy(row, lr)
			out.Rows = append(out.Rows, row)
			continue
		}
		for _, ri := range matches {
			row := make([]any, len(cols))
			copy(row, lr)
			rr := right.Rows[ri]
			for j, src := range carry {
				row[len(left.Columns)+j] = rr[src]
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}
