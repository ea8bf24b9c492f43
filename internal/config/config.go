// Package config defines the immutable run configuration passed into each
// pipeline component. Scope values (jurisdictions, facility-type code,
// identifier width) live here rather than as ambient state so tests can
// substitute alternate scopes without touching component internals.
package config

import (
	"fmt"
	"strings"
)

// Join key kinds for dimension tables.
const (
	JoinOnFacility   = "facility"
	JoinOnFiscalYear = "fiscal_year"
)

// Config is the full run configuration. Treat values as read-only once
// loaded; components receive the struct (or slices of it) by value.
type Config struct {
	// IdentifierWidth is the canonical CCN width in characters.
	IdentifierWidth int `koanf:"identifier_width"`

	// States is the jurisdiction scope for the fact table.
	States []string `koanf:"states"`

	FacilityType FacilityType `koanf:"facility_type"`

	// NullDropThreshold is the null fraction at which a column is pruned.
	// 1.0 drops only entirely empty columns.
	NullDropThreshold float64 `koanf:"null_drop_threshold"`

	Columns Columns `koanf:"columns"`

	Fact       TableSpec       `koanf:"fact"`
	Dimensions []DimensionSpec `koanf:"dimensions"`

	Output  Output  `koanf:"output"`
	Metrics Metrics `koanf:"metrics"`
	CSV     CSV     `koanf:"csv"`
}

// FacilityType identifies the regulated provider type by the code embedded
// in the identifier at fixed 1-indexed inclusive positions.
type FacilityType struct {
	Code          string `koanf:"code"`
	PositionStart int    `koanf:"position_start"`
	PositionEnd   int    `koanf:"position_end"`
}

// Columns names the protocol-level columns the core requires.
type Columns struct {
	Facility   string `koanf:"facility"`
	FiscalYear string `koanf:"fiscal_year"`
	State      string `koanf:"state"`
}

// TableSpec locates one input snapshot.
type TableSpec struct {
	Name string `koanf:"name"`
	Path string `koanf:"path"`
}

// DimensionSpec locates a secondary table and names its join key kind.
type DimensionSpec struct {
	Name   string `koanf:"name"`
	Path   string `koanf:"path"`
	JoinOn string `koanf:"join_on"` // "facility" | "fiscal_year"
}

// Output locates the unified dataset and the lineage document.
type Output struct {
	DataPath    string `koanf:"data_path"`
	LineagePath string `koanf:"lineage_path"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend      string `koanf:"backend"` // "datadog" | "none"
	Tags         string `koanf:"tags"`    // comma-separated, e.g. "env:prod,team:analytics"
	FlushSeconds int    `koanf:"flush_seconds"`
}

// CSV controls input parsing.
type CSV struct {
	Comma      string `koanf:"comma"`
	LazyQuotes bool   `koanf:"lazy_quotes"`
	Encoding   string `koanf:"encoding"` // "utf8" | "latin1"

	// HeaderMap renames raw vendor headers to the canonical column names,
	// e.g. "Provider CCN" -> "ccn". Applied to every input table.
	HeaderMap map[string]string `koanf:"header_map"`
}

// Issue is one validation finding.
type Issue struct {
	Severity string // "error" | "warning"
	Message  string
}

// Validate checks a configuration and returns all findings at once, the
// caller decides whether warnings are acceptable.
func Validate(c Config) []Issue {
	var issues []Issue
	errf := func(format string, v ...any) {
		issues = append(issues, Issue{Severity: "error", Message: fmt.Sprintf(format, v...)})
	}
	warnf := func(format string, v ...any) {
		issues = append(issues, Issue{Severity: "warning", Message: fmt.Sprintf(format, v...)})
	}

	if c.IdentifierWidth <= 0 {
		errf("identifier_width must be positive, got %d", c.IdentifierWidth)
	}
	if len(c.States) == 0 {
		errf("states must not be empty")
	}
	for _, s := range c.States {
		if len(strings.TrimSpace(s)) != 2 {
			warnf("state code %q is not a two-letter code", s)
		}
	}

	ft := c.FacilityType
	if ft.Code == "" {
		errf("facility_type.code must be set")
	}
	if ft.PositionStart < 1 || ft.PositionEnd < ft.PositionStart {
		errf("facility_type positions %d-%d are not a valid 1-indexed range", ft.PositionStart, ft.PositionEnd)
	} else {
		if ft.PositionEnd > c.IdentifierWidth && c.IdentifierWidth > 0 {
			errf("facility_type position end %d exceeds identifier width %d", ft.PositionEnd, c.IdentifierWidth)
		}
		if want := ft.PositionEnd - ft.PositionStart + 1; len(ft.Code) != want {
			errf("facility_type.code %q does not span positions %d-%d", ft.Code, ft.PositionStart, ft.PositionEnd)
		}
	}

	if c.NullDropThreshold <= 0 || c.NullDropThreshold > 1 {
		errf("null_drop_threshold must be in (0, 1], got %v", c.NullDropThreshold)
	}
	if c.Columns.Facility == "" || c.Columns.FiscalYear == "" || c.Columns.State == "" {
		errf("columns.facility, columns.fiscal_year and columns.state must all be set")
	}
	if c.Fact.Name == "" || c.Fact.Path == "" {
		errf("fact.name and fact.path must be set")
	}

	seen := map[string]bool{}
	for _, d := range c.Dimensions {
		if d.Name == "" || d.Path == "" {
			errf("dimension entries need name and path: %+v", d)
			continue
		}
		if seen[d.Name] {
			errf("dimension %q listed twice", d.Name)
		}
		seen[d.Name] = true
		if d.JoinOn != JoinOnFacility && d.JoinOn != JoinOnFiscalYear {
			errf("dimension %q: join_on must be %q or %q, got %q", d.Name, JoinOnFacility, JoinOnFiscalYear, d.JoinOn)
		}
	}
	if len(c.Dimensions) == 0 {
		warnf("no dimension tables configured; output will equal the filtered fact table")
	}

	return issues
}

// HasErrors reports whether any issue is error-severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == "error" {
			return true
		}
	}
	return false
}
