// Package metrics defines the minimal backend interface the pipeline emits
// against. The core depends only on this interface; concrete backends
// (Datadog, nop) live in subpackages so their SDKs never leak into the
// transformation code.
package metrics

// Labels are metric tags, e.g. {"table": "cah_all_years", "kind": "read"}.
type Labels map[string]string

// Backend receives pipeline metrics. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Nop discards all metrics.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}

// Metric names emitted by the pipeline.
const (
	RowsTotal           = "etl_rows_total"
	StepTotal           = "etl_step_total"
	StepDurationSeconds = "etl_step_duration_seconds"
)
