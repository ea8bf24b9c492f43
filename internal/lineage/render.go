package lineage

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render writes the row-count checkpoints as a bordered text table,
// suitable for operator logs.
func (t *Trace) Render(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle("run %s", t.RunID)

	tw.AppendHeader(table.Row{"checkpoint", "table", "rows in", "rows out", "detail"})

	for _, in := range t.Inputs {
		tw.AppendRow(table.Row{"input", in.Table, in.Rows, "", ""})
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{
		"fact scope", t.FactTable, t.FactRowsLoaded, t.FactRowsScoped,
		fmt.Sprintf("states=%s type=%s@%d-%d malformed_ids=%d",
			strings.Join(t.Scope.States, ","), t.Scope.FacilityTypeCode,
			t.Scope.PositionStart, t.Scope.PositionEnd, len(t.FactMalformedIDs)),
	})
	for _, s := range t.Steps {
		tw.AppendRow(table.Row{
			"left join", s.Table, s.RowsIn, s.RowsAfterJoin,
			fmt.Sprintf("key=%s dedup=%d pruned_cols=%d malformed_ids=%d",
				s.JoinKey, s.RowsAfterDedup, len(s.PrunedColumns), len(s.MalformedIDs)),
		})
	}
	tw.AppendSeparator()
	tw.AppendFooter(table.Row{"final", "", "", t.FinalRows, fmt.Sprintf("columns=%d", t.FinalColumns)})

	tw.Render()
}

// WriteMarkdown writes the full lineage document: source inventory, scoping
// and identifier-standardization decisions, join topology, and the quality
// checkpoints. The document is deterministic given the trace contents.
func (t *Trace) WriteMarkdown(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Data Cleaning and Lineage Report\n\n")
	fmt.Fprintf(&b, "Run `%s`, started %s.\n\n", t.RunID, t.StartedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("## Source Data Inventory\n\n")
	b.WriteString("| Table | Rows |\n|---|---|\n")
	for _, in := range t.Inputs {
		fmt.Fprintf(&b, "| %s | %d |\n", in.Table, in.Rows)
	}
	b.WriteString("\n")

	b.WriteString("## Data Scoping and Filtering\n\n")
	fmt.Fprintf(&b, "- Geographic scope: rows restricted to state codes %s.\n",
		strings.Join(t.Scope.States, ", "))
	fmt.Fprintf(&b, "- Provider type: facilities whose %d-character certification number carries `%s` at positions %d-%d.\n",
		t.Scope.IdentifierWidth, t.Scope.FacilityTypeCode, t.Scope.PositionStart, t.Scope.PositionEnd)
	fmt.Fprintf(&b, "- Both predicates apply to the fact table before any join; excluded rows are dropped entirely.\n\n")

	b.WriteString("## Identifier Standardization\n\n")
	fmt.Fprintf(&b, "Certification numbers are canonicalized on every input before filtering or joining: any fractional suffix from upstream numeric coercion is stripped and the integer textual form is left-padded with zeros to %d characters. ", t.Scope.IdentifierWidth)
	b.WriteString("This preserves leading zeros in state-coded identifiers (an Arkansas `040001` read as a number would otherwise come back as `40001` and match nothing).\n\n")
	if n := len(t.FactMalformedIDs); n > 0 {
		fmt.Fprintf(&b, "%d fact rows carried identifiers that could not be canonicalized and were excluded: %s.\n\n",
			n, strings.Join(sample(t.FactMalformedIDs, 10), ", "))
	}

	b.WriteString("## Join Strategy\n\n")
	fmt.Fprintf(&b, "The fact table `%s` anchors the grain: one row per (%s). ",
		t.FactTable, strings.Join(t.FactKey, ", "))
	fmt.Fprintf(&b, "All secondary tables are deduplicated on their join key before the merge and attached with left joins, so the anchor's %d rows are never multiplied or lost.\n\n", t.FactRowsScoped)
	b.WriteString("| Step | Table | Join key | Rows in | After dedup | After join | Pruned columns |\n|---|---|---|---|---|---|---|\n")
	for i, s := range t.Steps {
		pruned := "-"
		if len(s.PrunedColumns) > 0 {
			pruned = strings.Join(s.PrunedColumns, ", ")
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %d | %d | %d | %s |\n",
			i+1, s.Table, s.JoinKey, s.RowsIn, s.RowsAfterDedup, s.RowsAfterJoin, pruned)
	}
	b.WriteString("\n")

	b.WriteString("## Quality Assurance Summary\n\n")
	fmt.Fprintf(&b, "Every join step re-verified the anchor row count (%d). ", t.FactRowsScoped)
	fmt.Fprintf(&b, "The final dataset carries %d rows and %d columns; columns that were 100%% empty were pruned before each merge, and partially-populated columns were kept intact.\n",
		t.FinalRows, t.FinalColumns)

	_, err := io.WriteString(w, b.String())
	return err
}

func sample(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return append(append([]string(nil), s[:n]...), "...")
}
