// Package lineage records the transformation parameters and row-count
// checkpoints applied during a run, and renders them as a human-readable
// audit document. The trace is the structured contract handed to reporting:
// it carries enough context to reconstruct every filter, key definition,
// and join decision without re-reading the inputs.
package lineage

import (
	"time"

	"github.com/google/uuid"
)

// Trace is the structured record of one pipeline run.
type Trace struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Inputs []InputCount
	Scope  Scope

	// Anchor fact table.
	FactTable        string
	FactKey          []string
	FactRowsLoaded   int
	FactMalformedIDs []string
	FactDroppedYears int
	FactRowsScoped   int // expected row count for every join step

	Steps []JoinStep

	FinalRows    int
	FinalColumns int
}

// InputCount is the raw row count of one input snapshot.
type InputCount struct {
	Table string
	Rows  int
}

// Scope describes the applied filters and key canonicalization parameters.
type Scope struct {
	States           []string
	FacilityTypeCode string
	PositionStart    int // 1-indexed inclusive
	PositionEnd      int
	IdentifierWidth  int
}

// JoinStep is one dimension-table fold with its pre/post checkpoints.
type JoinStep struct {
	Table   string
	JoinKey string

	RowsIn         int
	MalformedIDs   []string
	DroppedYears   int
	PrunedColumns  []string
	RowsAfterDedup int
	RowsAfterJoin  int
}

// New starts a trace with a fresh run ID.
func New() *Trace {
	return &Trace{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

// AddInput records the raw row count of an input table.
func (t *Trace) AddInput(table string, rows int) {
	t.Inputs = append(t.Inputs, InputCount{Table: table, Rows: rows})
}

// AddStep records a completed join step.
func (t *Trace) AddStep(s JoinStep) {
	t.Steps = append(t.Steps, s)
}

// Finish closes the trace with the terminal row and column counts.
func (t *Trace) Finish(rows, columns int) {
	t.FinishedAt = time.Now().UTC()
	t.FinalRows = rows
	t.FinalColumns = columns
}

// Duration returns the elapsed run time, zero if the trace is unfinished.
func (t *Trace) Duration() time.Duration {
	if t.FinishedAt.IsZero() {
		return 0
	}
	return t.FinishedAt.Sub(t.StartedAt)
}
