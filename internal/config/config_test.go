package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, 6, c.IdentifierWidth)
	assert.Equal(t, []string{"AR", "LA", "NM", "OK", "TX"}, c.States)
	assert.Equal(t, "13", c.FacilityType.Code)
	assert.Equal(t, 3, c.FacilityType.PositionStart)
	assert.Equal(t, 4, c.FacilityType.PositionEnd)
	assert.Equal(t, 1.0, c.NullDropThreshold)
	assert.Equal(t, "ccn", c.Columns.Facility)
	assert.Len(t, c.Dimensions, 4)
	assert.Equal(t, JoinOnFiscalYear, c.Dimensions[3].JoinOn)

	assert.Empty(t, Validate(c))
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cahetl.yaml")
	body := `
states: ["AR", "TX"]
facility_type:
  code: "10"
output:
  data_path: out.csv
dimensions:
  - name: trends
    path: trends.csv
    join_on: facility
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"AR", "TX"}, c.States)
	assert.Equal(t, "10", c.FacilityType.Code)
	assert.Equal(t, "out.csv", c.Output.DataPath)
	// Untouched keys keep their defaults.
	assert.Equal(t, 6, c.IdentifierWidth)
	assert.Equal(t, "data_cleaning_and_lineage_report.md", c.Output.LineagePath)
	require.Len(t, c.Dimensions, 1)
	assert.Equal(t, "trends", c.Dimensions[0].Name)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CAHETL_FACILITY_TYPE__CODE", "10")
	t.Setenv("CAHETL_OUTPUT__DATA_PATH", "env.csv")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "10", c.FacilityType.Code)
	assert.Equal(t, "env.csv", c.Output.DataPath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "empty_states",
			mutate: func(c *Config) { c.States = nil },
			want:   "states must not be empty",
		},
		{
			name:   "code_span_mismatch",
			mutate: func(c *Config) { c.FacilityType.Code = "1" },
			want:   "does not span",
		},
		{
			name:   "position_past_width",
			mutate: func(c *Config) { c.FacilityType.PositionEnd = 9; c.FacilityType.Code = "1300000" },
			want:   "exceeds identifier width",
		},
		{
			name:   "bad_threshold",
			mutate: func(c *Config) { c.NullDropThreshold = 0 },
			want:   "null_drop_threshold",
		},
		{
			name: "duplicate_dimension",
			mutate: func(c *Config) {
				c.Dimensions = append(c.Dimensions, c.Dimensions[0])
			},
			want: "listed twice",
		},
		{
			name: "bad_join_on",
			mutate: func(c *Config) {
				c.Dimensions[0].JoinOn = "zip"
			},
			want: "join_on",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			issues := Validate(c)
			require.True(t, HasErrors(issues), "expected error issues, got %v", issues)

			found := false
			for _, iss := range issues {
				if iss.Severity == "error" && strings.Contains(iss.Message, tc.want) {
					found = true
				}
			}
			assert.True(t, found, "no issue mentioning %q in %v", tc.want, issues)
		})
	}
}
