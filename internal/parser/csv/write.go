package csv

import (
	"encoding/csv"
	"fmt"
	"io"

	"cahetl/internal/frame"
)

// Write emits a frame as a delimited table: header row first, nil cells as
// empty fields.
func Write(w io.Writer, f *frame.Frame, comma rune) error {
	cw := csv.NewWriter(w)
	if comma != 0 {
		cw.Comma = comma
	}

	if err := cw.Write(f.Columns); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	rec := make([]string, len(f.Columns))
	for i, row := range f.Rows {
		for j, v := range row {
			switch t := v.(type) {
			case nil:
				rec[j] = ""
			case string:
				rec[j] = t
			default:
				rec[j] = fmt.Sprint(t)
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csv: write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
