package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cahetl/internal/config"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadInputsAndWriteOutputs(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Fact.Path = writeFile(t, dir, "fact.csv",
		"ccn,data_year,state_code,net_income\n41300,2022,AR,10\n671300,2022,TX,-4\n")
	cfg.Dimensions = []config.DimensionSpec{
		{Name: "cah_hospital_trends", JoinOn: config.JoinOnFacility,
			Path: writeFile(t, dir, "trends.csv", "ccn,trend\n41300,declining\n")},
	}
	cfg.Output.DataPath = filepath.Join(dir, "out.csv")
	cfg.Output.LineagePath = filepath.Join(dir, "lineage.md")

	in, err := LoadInputs(context.Background(), cfg)
	if err != nil {
		t.Fatalf("LoadInputs: %v", err)
	}
	if in.Fact.RowCount() != 2 {
		t.Fatalf("fact rows=%d, want 2", in.Fact.RowCount())
	}
	if in.Dimensions["cah_hospital_trends"].RowCount() != 1 {
		t.Fatalf("dimension rows=%d, want 1", in.Dimensions["cah_hospital_trends"].RowCount())
	}

	r := &Runner{}
	unified, tr, err := r.Run(context.Background(), cfg, in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := WriteOutputs(cfg, unified, tr); err != nil {
		t.Fatalf("WriteOutputs: %v", err)
	}

	out, err := os.ReadFile(cfg.Output.DataPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(out), "ccn,data_year,state_code,net_income,trend\n") {
		t.Fatalf("output header:\n%s", out)
	}
	if !strings.Contains(string(out), "041300,2022,AR,10,declining") {
		t.Fatalf("output body:\n%s", out)
	}

	doc, err := os.ReadFile(cfg.Output.LineagePath)
	if err != nil {
		t.Fatalf("read lineage: %v", err)
	}
	if !strings.Contains(string(doc), tr.RunID) {
		t.Fatalf("lineage document missing run id")
	}
}

func TestLoadInputsMissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Fact.Path = filepath.Join(t.TempDir(), "absent.csv")
	if _, err := LoadInputs(context.Background(), cfg); err == nil {
		t.Fatalf("LoadInputs accepted missing file")
	}
}
