// Package csv reads delimited input snapshots into frames and writes the
// unified frame back out. Header names are canonicalized to lower_snake_case
// so configuration can name columns independently of vendor header styling.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	xtransform "golang.org/x/text/transform"

	"cahetl/internal/frame"
)

// Options control parsing of one input file.
type Options struct {
	Comma      rune
	LazyQuotes bool
	TrimSpace  bool

	// HeaderMap renames raw headers to canonical column names before the
	// default lower_snake_case normalization applies to the rest.
	HeaderMap map[string]string

	// Encoding selects the input byte encoding: "" / "utf8", or "latin1"
	// (cost-report extracts are commonly ISO 8859-1).
	Encoding string
}

// DefaultOptions returns the options used for standard extracts.
func DefaultOptions() Options {
	return Options{Comma: ',', TrimSpace: true}
}

// Load reads an entire delimited table into a frame. Empty cells become nil
// so null accounting is uniform downstream. The first header cell has any
// UTF-8 BOM stripped.
func Load(ctx context.Context, src io.Reader, opt Options) (*frame.Frame, error) {
	if opt.Comma == 0 {
		opt.Comma = ','
	}

	r := src
	switch strings.ToLower(opt.Encoding) {
	case "", "utf8", "utf-8":
	case "latin1", "iso-8859-1":
		r = xtransform.NewReader(src, charmap.ISO8859_1.NewDecoder())
	default:
		return nil, fmt.Errorf("csv: unsupported encoding %q", opt.Encoding)
	}

	cr := csv.NewReader(r)
	cr.Comma = opt.Comma
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	hdr, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	cols := make([]string, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		if mapped, ok := opt.HeaderMap[h]; ok {
			h = mapped
		} else {
			h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
		}
		cols[i] = h
	}
	dedupeHeaders(cols)

	f := frame.New(cols)
	line := 1
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			return f, nil
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}

		row := make([]any, len(cols))
		for i := range cols {
			if i >= len(rec) {
				continue
			}
			v := rec[i]
			if opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			if v == "" {
				continue
			}
			row[i] = v
		}
		f.Rows = append(f.Rows, row)
	}
}

// dedupeHeaders suffixes repeated canonical header names so column lookup
// stays unambiguous ("margin", "margin_2", ...).
func dedupeHeaders(cols []string) {
	seen := make(map[string]int, len(cols))
	for i, c := range cols {
		n := seen[c]
		seen[c] = n + 1
		if n > 0 {
			cols[i] = fmt.Sprintf("%s_%d", c, n+1)
		}
	}
}
