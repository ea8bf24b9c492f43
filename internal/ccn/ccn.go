// Package ccn canonicalizes CMS Certification Numbers (CCNs).
//
// A CCN is a fixed-width, zero-padded digit string. Upstream extracts often
// deliver it as a number or a numeric string with a trailing fractional
// component ("40001.0"), which silently loses leading zeros: an Arkansas
// facility "040001" that has been treated as a number comes back as "40001"
// and no longer matches the facility-type positions or any join key.
// Normalization therefore has to run on the raw column of every input table
// before any filter or join touches it.
package ccn

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"cahetl/internal/frame"
)

// MalformedIdentifierError reports an identifier that cannot be canonicalized.
// The offending row is excluded from its table, never zero-filled.
type MalformedIdentifierError struct {
	Table string
	Raw   string
}

func (e *MalformedIdentifierError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("table %s: malformed identifier %q", e.Table, e.Raw)
	}
	return fmt.Sprintf("malformed identifier %q", e.Raw)
}

// Normalize converts an identifier value to its canonical fixed-width form:
// strip any fractional suffix, take the integer textual form, left-pad with
// '0' to width. Idempotent: Normalize(Normalize(v)) == Normalize(v).
func Normalize(v any, width int) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", &MalformedIdentifierError{Raw: ""}

	case string:
		return normalizeString(t, width)

	case []byte:
		return normalizeString(string(t), width)

	case int:
		return normalizeInt(int64(t), width)
	case int32:
		return normalizeInt(int64(t), width)
	case int64:
		return normalizeInt(t, width)

	case float32:
		return normalizeFloat(float64(t), width)
	case float64:
		return normalizeFloat(t, width)

	default:
		return normalizeString(fmt.Sprint(v), width)
	}
}

func normalizeString(s string, width int) (string, error) {
	raw := s
	s = strings.TrimSpace(s)

	// Trailing fractional component from upstream numeric coercion.
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		frac := s[dot+1:]
		if !allDigits(frac) {
			return "", &MalformedIdentifierError{Raw: raw}
		}
		s = s[:dot]
	}

	if s == "" || !allDigits(s) {
		return "", &MalformedIdentifierError{Raw: raw}
	}

	return pad(strings.TrimLeft(s, "0"), width), nil
}

func normalizeInt(n int64, width int) (string, error) {
	if n < 0 {
		return "", &MalformedIdentifierError{Raw: strconv.FormatInt(n, 10)}
	}
	return pad(strconv.FormatInt(n, 10), width), nil
}

func normalizeFloat(f float64, width int) (string, error) {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", &MalformedIdentifierError{Raw: strconv.FormatFloat(f, 'g', -1, 64)}
	}
	return pad(strconv.FormatInt(int64(math.Trunc(f)), 10), width), nil
}

// pad left-pads the integer textual form with '0' to width.
// "0" stands in for an all-zero identifier so TrimLeft callers stay safe.
func pad(digits string, width int) string {
	if digits == "" {
		digits = "0"
	}
	if len(digits) >= width {
		return digits
	}
	return strings.Repeat("0", width-len(digits)) + digits
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CodeAt returns the substring of a normalized identifier between the
// 1-indexed inclusive positions start and end ("041300", 3, 4 -> "13").
// Out-of-range positions yield "".
func CodeAt(id string, start, end int) string {
	if start < 1 || end < start || end > len(id) {
		return ""
	}
	return id[start-1 : end]
}

// NormalizeColumn returns a derived frame whose identifier column holds
// canonical values. Rows whose identifier cannot be normalized are excluded
// and their raw values returned for the lineage trace.
func NormalizeColumn(f *frame.Frame, col, table string, width int) (*frame.Frame, []string, error) {
	ci := f.ColumnIndex(col)
	if ci < 0 {
		return nil, nil, fmt.Errorf("table %s: identifier column %q not found", table, col)
	}

	out := frame.New(f.Columns)
	var dropped []string
	for _, r := range f.Rows {
		id, err := Normalize(r[ci], width)
		if err != nil {
			raw := fmt.Sprint(r[ci])
			if me, ok := err.(*MalformedIdentifierError); ok {
				raw = me.Raw
			}
			dropped = append(dropped, raw)
			continue
		}
		nr := append([]any(nil), r...)
		nr[ci] = id
		out.Rows = append(out.Rows, nr)
	}
	return out, dropped, nil
}
