package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix scopes environment overrides, e.g. CAHETL_OUTPUT__DATA_PATH.
const envPrefix = "CAHETL_"

// defaults mirror the production pipeline: the five QIN-QIO service-area
// states, the CAH type code at CCN positions 3-4, and the standard extract
// file names.
var defaults = map[string]any{
	"identifier_width":             6,
	"states":                       []string{"AR", "LA", "NM", "OK", "TX"},
	"facility_type.code":           "13",
	"facility_type.position_start": 3,
	"facility_type.position_end":   4,
	"null_drop_threshold":          1.0,
	"columns.facility":             "ccn",
	"columns.fiscal_year":          "data_year",
	"columns.state":                "state_code",
	"fact.name":                    "cah_all_years",
	"fact.path":                    "data/cah_all_years.csv",
	"output.data_path":             "tmf_eda_central_data.csv",
	"output.lineage_path":          "data_cleaning_and_lineage_report.md",
	"metrics.backend":              "none",
	"metrics.flush_seconds":        60,
	"csv.comma":                    ",",
	"csv.encoding":                 "utf8",
}

func defaultDimensions() []DimensionSpec {
	return []DimensionSpec{
		{Name: "cah_hospital_trends", Path: "data/cah_hospital_trends.csv", JoinOn: JoinOnFacility},
		{Name: "reh_solvency_analysis", Path: "data/reh_solvency_analysis.csv", JoinOn: JoinOnFacility},
		{Name: "reh_conversion_projections", Path: "data/reh_conversion_projections.csv", JoinOn: JoinOnFacility},
		{Name: "yearly_summary_stats", Path: "data/yearly_summary_stats.csv", JoinOn: JoinOnFiscalYear},
	}
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() Config {
	k := koanf.New(".")
	_ = k.Load(confmap.Provider(defaults, "."), nil)

	var c Config
	_ = k.Unmarshal("", &c)
	c.Dimensions = defaultDimensions()
	return c
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, in that precedence order (later wins).
//
// Environment keys map double underscores to nesting:
// CAHETL_FACILITY_TYPE__CODE=13 sets facility_type.code.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load env overrides: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(c.Dimensions) == 0 {
		c.Dimensions = defaultDimensions()
	}
	return c, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}
