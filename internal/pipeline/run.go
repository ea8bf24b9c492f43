package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"cahetl/internal/config"
	"cahetl/internal/frame"
	"cahetl/internal/lineage"
	"cahetl/internal/metrics"
)

// Logger is the minimal logging interface used by the pipeline.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// Inputs are the loaded, immutable snapshots for one run.
type Inputs struct {
	Fact *frame.Frame

	// Dimensions maps spec name to its raw frame. Every configured
	// dimension must be present.
	Dimensions map[string]*frame.Frame
}

// Runner executes the full batch: fact anchor, then one fold per configured
// dimension table, in configuration order.
type Runner struct {
	Metrics metrics.Backend
	Logger  Logger
}

func (r *Runner) logger() func(format string, v ...any) {
	if r.Logger == nil {
		l := log.New(discardWriter{}, "", 0)
		return l.Printf
	}
	return r.Logger.Printf
}

func (r *Runner) backend() metrics.Backend {
	if r.Metrics == nil {
		return metrics.Nop{}
	}
	return r.Metrics
}

// Run produces the unified frame and its lineage trace. Identical inputs
// always yield an identical output: the join order is the configuration
// order and no step depends on map iteration.
func (r *Runner) Run(ctx context.Context, cfg config.Config, in Inputs) (*frame.Frame, *lineage.Trace, error) {
	logf := r.logger()
	mb := r.backend()

	tr := lineage.New()
	logf("stage=run start run_id=%s", tr.RunID)

	if in.Fact == nil {
		return nil, tr, fmt.Errorf("run: fact table %s not loaded", cfg.Fact.Name)
	}
	tr.AddInput(cfg.Fact.Name, in.Fact.RowCount())
	mb.IncCounter(metrics.RowsTotal, float64(in.Fact.RowCount()),
		metrics.Labels{"table": cfg.Fact.Name, "kind": "read"})

	for _, d := range cfg.Dimensions {
		f, ok := in.Dimensions[d.Name]
		if !ok || f == nil {
			return nil, tr, fmt.Errorf("run: dimension table %s not loaded", d.Name)
		}
		tr.AddInput(d.Name, f.RowCount())
		mb.IncCounter(metrics.RowsTotal, float64(f.RowCount()),
			metrics.Labels{"table": d.Name, "kind": "read"})
	}

	anchor, err := r.timed(mb, logf, "fact_build", func() (*frame.Frame, error) {
		return BuildFact(cfg, in.Fact, tr)
	})
	if err != nil {
		return nil, tr, err
	}
	logf("stage=fact_build ok rows_loaded=%d rows_scoped=%d malformed_ids=%d",
		tr.FactRowsLoaded, tr.FactRowsScoped, len(tr.FactMalformedIDs))
	mb.IncCounter(metrics.RowsTotal, float64(tr.FactRowsScoped),
		metrics.Labels{"table": cfg.Fact.Name, "kind": "scoped"})

	o := NewOrchestrator(cfg, anchor, tr)
	for _, d := range cfg.Dimensions {
		if err := ctx.Err(); err != nil {
			return nil, tr, err
		}

		_, err := r.timed(mb, logf, "join_"+d.Name, func() (*frame.Frame, error) {
			return nil, o.Fold(d, in.Dimensions[d.Name])
		})
		if err != nil {
			return nil, tr, err
		}

		last := tr.Steps[len(tr.Steps)-1]
		logf("stage=join table=%s key=%s rows_in=%d dedup=%d rows_out=%d pruned_cols=%d",
			d.Name, last.JoinKey, last.RowsIn, last.RowsAfterDedup, last.RowsAfterJoin, len(last.PrunedColumns))
	}

	unified := o.Result()
	tr.Finish(unified.RowCount(), len(unified.Columns))
	mb.IncCounter(metrics.RowsTotal, float64(unified.RowCount()),
		metrics.Labels{"table": "unified", "kind": "output"})

	logf("stage=run ok rows=%d columns=%d duration=%s",
		tr.FinalRows, tr.FinalColumns, tr.Duration().Truncate(time.Millisecond))
	return unified, tr, nil
}

// timed wraps a step with duration and status metrics.
func (r *Runner) timed(mb metrics.Backend, logf func(string, ...any), step string, fn func() (*frame.Frame, error)) (*frame.Frame, error) {
	start := time.Now()
	out, err := fn()
	status := "ok"
	if err != nil {
		status = "error"
		logf("stage=%s status=error err=%v", step, err)
	}
	labels := metrics.Labels{"step": step, "status": status}
	mb.IncCounter(metrics.StepTotal, 1, labels)
	mb.ObserveHistogram(metrics.StepDurationSeconds, time.Since(start).Seconds(), labels)
	return out, err
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
