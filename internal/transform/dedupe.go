package transform

import (
	"fmt"
	"strconv"
	"strings"

	"cahetl/internal/frame"
)

// DuplicateKeyError reports a key that still repeats after deduplication.
// This always indicates malformed input or a canonicalization bug upstream;
// the run for that table must halt rather than feed a corrupted join.
type DuplicateKeyError struct {
	Table string
	Key   string
	Count int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("table %s: key %q occurs %d times after dedupe", e.Table, e.Key, e.Count)
}

// DedupeByKey collapses a table to one row per distinct key, keeping the
// first occurrence (stable, order-preserving). There is no attribute-level
// rule to prefer one duplicate over another in the source tables, so
// first-occurrence is the documented tie-break. Rows with an empty or
// missing key are excluded: they can never match a join probe.
//
// The result is re-verified for uniqueness and a *DuplicateKeyError is
// returned if the invariant does not hold.
func DedupeByKey(f *frame.Frame, keyCol, table string) (*frame.Frame, error) {
	ci := f.ColumnIndex(keyCol)
	if ci < 0 {
		return nil, fmt.Errorf("table %s: key column %q not found", table, keyCol)
	}

	seen := make(map[string]bool, f.RowCount())
	out := frame.New(f.Columns)
	for _, r := range f.Rows {
		k := KeyString(r[ci])
		if k == "" {
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out.Rows = append(out.Rows, r)
	}

	if err := VerifyUniqueKey(out, keyCol, table); err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyUniqueKey fails loudly if any key value repeats in the frame.
func VerifyUniqueKey(f *frame.Frame, keyCol, table string) error {
	ci := f.ColumnIndex(keyCol)
	if ci < 0 {
		return fmt.Errorf("table %s: key column %q not found", table, keyCol)
	}
	counts := make(map[string]int, f.RowCount())
	for _, r := range f.Rows {
		k := KeyString(r[ci])
		if k == "" {
			continue
		}
		counts[k]++
		if counts[k] > 1 {
			return &DuplicateKeyError{Table: table, Key: k, Count: counts[k]}
		}
	}
	return nil
}

// KeyString produces the stable string form used for join probes and dedupe
// sets. Common primitive types avoid fmt.Sprint on the hot path.
func KeyString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// CanonicalizeYears rewrites a fiscal-year column to its integer textual
// form ("2022.0" and 2022.0 both become "2022"). Rows whose year is missing
// or unparseable are excluded and counted; a year-keyed row without a year
// can never participate in the grain or a join.
func CanonicalizeYears(f *frame.Frame, yearCol, table string) (*frame.Frame, int, error) {
	ci := f.ColumnIndex(yearCol)
	if ci < 0 {
		return nil, 0, fmt.Errorf("table %s: fiscal-year column %q not found", table, yearCol)
	}

	out := frame.New(f.Columns)
	dropped := 0
	for _, r := range f.Rows {
		y, ok := yearString(r[ci])
		if !ok {
			dropped++
			continue
		}
		nr := append([]any(nil), r...)
		nr[ci] = y
		out.Rows = append(out.Rows, nr)
	}
	return out, dropped, nil
}

func yearString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatInt(int64(t), 10), true
	case string:
		s := strings.TrimSpace(t)
		if dot := strings.IndexByte(s, '.'); dot >= 0 {
			s = s[:dot]
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatInt(n, 10), true
	default:
		return "", false
	}
}
