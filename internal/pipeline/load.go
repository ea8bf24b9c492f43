package pipeline

import (
	"context"
	"fmt"
	"os"

	"cahetl/internal/config"
	"cahetl/internal/frame"
	"cahetl/internal/lineage"
	csvparser "cahetl/internal/parser/csv"
)

// LoadInputs reads every configured input snapshot. Each file handle is
// closed before the next table is opened, including on parse failure.
func LoadInputs(ctx context.Context, cfg config.Config) (Inputs, error) {
	opt := csvOptions(cfg.CSV)

	fact, err := loadTable(ctx, cfg.Fact.Path, opt)
	if err != nil {
		return Inputs{}, fmt.Errorf("load %s: %w", cfg.Fact.Name, err)
	}

	in := Inputs{Fact: fact, Dimensions: make(map[string]*frame.Frame, len(cfg.Dimensions))}
	for _, d := range cfg.Dimensions {
		f, err := loadTable(ctx, d.Path, opt)
		if err != nil {
			return Inputs{}, fmt.Errorf("load %s: %w", d.Name, err)
		}
		in.Dimensions[d.Name] = f
	}
	return in, nil
}

func loadTable(ctx context.Context, path string, opt csvparser.Options) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return csvparser.Load(ctx, f, opt)
}

func csvOptions(c config.CSV) csvparser.Options {
	opt := csvparser.DefaultOptions()
	if c.Comma != "" {
		opt.Comma = []rune(c.Comma)[0]
	}
	opt.LazyQuotes = c.LazyQuotes
	opt.Encoding = c.Encoding
	opt.HeaderMap = c.HeaderMap
	return opt
}

// WriteOutputs persists the unified dataset and the lineage document to the
// configured paths.
func WriteOutputs(cfg config.Config, unified *frame.Frame, tr *lineage.Trace) error {
	out, err := os.Create(cfg.Output.DataPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	comma := ','
	if cfg.CSV.Comma != "" {
		comma = []rune(cfg.CSV.Comma)[0]
	}
	if err := csvparser.Write(out, unified, comma); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	if cfg.Output.LineagePath == "" {
		return nil
	}
	doc, err := os.Create(cfg.Output.LineagePath)
	if err != nil {
		return fmt.Errorf("create lineage document: %w", err)
	}
	defer doc.Close()

	if err := tr.WriteMarkdown(doc); err != nil {
		return err
	}
	return doc.Close()
}
