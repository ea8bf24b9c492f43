package frame

import "testing"

func TestAppendRowLengthCheck(t *testing.T) {
	f := New([]string{"a", "b"})
	if err := f.AppendRow([]any{"1", "2"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if err := f.AppendRow([]any{"1"}); err == nil {
		t.Fatalf("AppendRow accepted short row")
	}
	if got := f.RowCount(); got != 1 {
		t.Fatalf("RowCount=%d, want 1", got)
	}
}

func TestColumnIndex(t *testing.T) {
	f := New([]string{"ccn", "data_year", "state"})
	if got := f.ColumnIndex("data_year"); got != 1 {
		t.Fatalf("ColumnIndex(data_year)=%d, want 1", got)
	}
	if got := f.ColumnIndex("missing"); got != -1 {
		t.Fatalf("ColumnIndex(missing)=%d, want -1", got)
	}
}

func TestCloneIsDetached(t *testing.T) {
	f := New([]string{"a"})
	_ = f.AppendRow([]any{"x"})

	cp := f.Clone()
	cp.Rows[0][0] = "y"

	if f.Rows[0][0] != "x" {
		t.Fatalf("clone wrote through to source: %v", f.Rows[0][0])
	}
}

func TestDropColumns(t *testing.T) {
	f := New([]string{"a", "b", "c"})
	_ = f.AppendRow([]any{"1", "2", "3"})

	out := f.DropColumns("b", "nope")
	if len(out.Columns) != 2 || out.Columns[0] != "a" || out.Columns[1] != "c" {
		t.Fatalf("DropColumns columns=%v", out.Columns)
	}
	if out.Rows[0][0] != "1" || out.Rows[0][1] != "3" {
		t.Fatalf("DropColumns row=%v", out.Rows[0])
	}
	// Source untouched.
	if len(f.Columns) != 3 {
		t.Fatalf("source frame mutated: %v", f.Columns)
	}
}

func TestNullFraction(t *testing.T) {
	f := New([]string{"a", "b"})
	_ = f.AppendRow([]any{nil, "1"})
	_ = f.AppendRow([]any{nil, nil})

	if got := f.NullFraction(0); got != 1.0 {
		t.Fatalf("NullFraction(a)=%v, want 1.0", got)
	}
	if got := f.NullFraction(1); got != 0.5 {
		t.Fatalf("NullFraction(b)=%v, want 0.5", got)
	}

	empty := New([]string{"a"})
	if got := empty.NullFraction(0); got != 0 {
		t.Fatalf("NullFraction(empty)=%v, want 0", got)
	}
}
