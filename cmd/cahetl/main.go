package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cahetl/internal/config"
	"cahetl/internal/metrics"
	"cahetl/internal/metrics/datadog"
	"cahetl/internal/pipeline"
)

// main loads the run configuration, executes the batch rebuild, and writes
// the unified dataset plus the lineage document.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		validate          bool
		printTrace        bool
	)

	flag.StringVar(&cfgPath, "config", "", "run config YAML path (defaults + env apply when empty)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend override (datadog, none)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&printTrace, "print-trace", true, "render the row-count checkpoint table to stderr")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if metricsBackendFlg != "" {
		cfg.Metrics.Backend = metricsBackendFlg
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		log.Printf("stage=config_validate severity=%s msg=%q", iss.Severity, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("configuration has errors")
	}
	if validate {
		log.Printf("stage=config_validate ok")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := newMetricsBackend(ctx, cfg.Metrics)
	if err != nil {
		fatalf("metrics init: %v", err)
	}
	defer closeBackend()

	in, err := pipeline.LoadInputs(ctx, cfg)
	if err != nil {
		fatalf("%v", err)
	}

	runner := &pipeline.Runner{Metrics: backend, Logger: log.Default()}
	unified, trace, err := runner.Run(ctx, cfg, in)
	if err != nil {
		fatalf("%v", err)
	}

	if err := pipeline.WriteOutputs(cfg, unified, trace); err != nil {
		fatalf("%v", err)
	}

	if printTrace {
		trace.Render(os.Stderr)
	}
	log.Printf("stage=done output=%s lineage=%s rows=%d", cfg.Output.DataPath, cfg.Output.LineagePath, trace.FinalRows)
}

func newMetricsBackend(ctx context.Context, cfg config.Metrics) (metrics.Backend, func(), error) {
	switch cfg.Backend {
	case "", "none":
		return metrics.Nop{}, func() {}, nil

	case "datadog":
		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName:    "cahetl",
			Tags:       datadog.ParseTagsCSV(cfg.Tags),
			FlushEvery: time.Duration(cfg.FlushSeconds) * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		return b, func() {
			if err := b.Close(); err != nil {
				log.Printf("stage=metrics_close err=%v", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown metrics backend %q", cfg.Backend)
	}
}

func fatalf(format string, v ...any) {
	fmt.Fprintf(os.Stderr, "cahetl: "+format+"\n", v...)
	os.Exit(1)
}
