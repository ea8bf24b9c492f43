// Package pipeline assembles the unified CAH/REH dataset: it anchors the
// fact grain, folds deduplicated dimension tables onto it with left joins,
// and verifies the anchor row count after every step.
package pipeline

import (
	"fmt"

	"cahetl/internal/ccn"
	"cahetl/internal/config"
	"cahetl/internal/frame"
	"cahetl/internal/lineage"
	"cahetl/internal/transform"
)

// BuildFact turns the raw primary table into the join anchor: identifiers
// canonicalized, fiscal years canonicalized, scope predicates applied, and
// the (facility, fiscal year) grain enforced unique. The post-filter row
// count is recorded on the trace as the expected count for every join step.
func BuildFact(cfg config.Config, raw *frame.Frame, tr *lineage.Trace) (*frame.Frame, error) {
	cols := cfg.Columns

	if !raw.HasColumn(cols.Facility) {
		return nil, &MissingJoinKeyColumnError{Table: cfg.Fact.Name, Column: cols.Facility}
	}
	if !raw.HasColumn(cols.FiscalYear) {
		return nil, &MissingJoinKeyColumnError{Table: cfg.Fact.Name, Column: cols.FiscalYear}
	}

	tr.FactTable = cfg.Fact.Name
	tr.FactKey = []string{cols.Facility, cols.FiscalYear}
	tr.FactRowsLoaded = raw.RowCount()
	tr.Scope = lineage.Scope{
		States:           cfg.States,
		FacilityTypeCode: cfg.FacilityType.Code,
		PositionStart:    cfg.FacilityType.PositionStart,
		PositionEnd:      cfg.FacilityType.PositionEnd,
		IdentifierWidth:  cfg.IdentifierWidth,
	}

	f, malformed, err := ccn.NormalizeColumn(raw, cols.Facility, cfg.Fact.Name, cfg.IdentifierWidth)
	if err != nil {
		return nil, err
	}
	tr.FactMalformedIDs = malformed

	f, droppedYears, err := transform.CanonicalizeYears(f, cols.FiscalYear, cfg.Fact.Name)
	if err != nil {
		return nil, err
	}
	tr.FactDroppedYears = droppedYears

	f, err = transform.FilterStates(f, cols.State, cfg.States)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", cfg.Fact.Name, err)
	}

	f, err = transform.FilterFacilityType(f, cols.Facility,
		cfg.FacilityType.Code, cfg.FacilityType.PositionStart, cfg.FacilityType.PositionEnd)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", cfg.Fact.Name, err)
	}

	if err := verifyFactGrain(f, cols.Facility, cols.FiscalYear, cfg.Fact.Name); err != nil {
		return nil, err
	}

	tr.FactRowsScoped = f.RowCount()
	return f, nil
}

// verifyFactGrain enforces uniqueness of (facility, fiscal year) and
// reports every offending pair at once.
func verifyFactGrain(f *frame.Frame, facilityCol, yearCol, table string) error {
	fi := f.ColumnIndex(facilityCol)
	yi := f.ColumnIndex(yearCol)

	counts := make(map[FactKey]int, f.RowCount())
	var dups []FactKey
	for _, r := range f.Rows {
		k := FactKey{
			FacilityID: transform.KeyString(r[fi]),
			FiscalYear: transform.KeyString(r[yi]),
		}
		counts[k]++
		if counts[k] == 2 {
			dups = append(dups, k)
		}
	}
	if len(dups) > 0 {
		return &DuplicateFactKeyError{Table: table, Keys: dups}
	}
	return nil
}
