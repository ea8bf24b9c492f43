package datadog

import (
	"context"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"cahetl/internal/metrics"
)

// fakeSubmitter captures payloads submitted by Backend.Flush().
type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []datadogV2.MetricPayload
	err      error
}

func (f *fakeSubmitter) SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, body)
	return datadogV2.IntakePayloadAccepted{}, nil, f.err
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func (f *fakeSubmitter) last() (datadogV2.MetricPayload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.payloads) == 0 {
		return datadogV2.MetricPayload{}, false
	}
	return f.payloads[len(f.payloads)-1], true
}

func newTestBackend(t *testing.T, sub *fakeSubmitter) *Backend {
	t.Helper()
	b, err := NewBackend(context.Background(), Options{
		JobName:    "test",
		FlushEvery: time.Hour, // never fires in tests; Close flushes
		submitter:  sub,
		now:        func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	return b
}

// TestResolveEnvTag verifies environment-tag precedence and defaults.
func TestResolveEnvTag(t *testing.T) {
	oldENV := os.Getenv("ENV")
	oldDDENV := os.Getenv("DD_ENV")
	t.Cleanup(func() {
		_ = os.Setenv("ENV", oldENV)
		_ = os.Setenv("DD_ENV", oldDDENV)
	})

	tests := []struct {
		name string
		env  string
		dd   string
		want string
	}{
		{name: "ENV_wins", env: "prod", dd: "stage", want: "env:prod"},
		{name: "DD_ENV_used_when_ENV_empty", env: "", dd: "stage", want: "env:stage"},
		{name: "default_unknown", env: "", dd: "", want: "env:unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_ = os.Setenv("ENV", tc.env)
			_ = os.Setenv("DD_ENV", tc.dd)
			if got := resolveEnvTag(); got != tc.want {
				t.Fatalf("resolveEnvTag()=%q, want %q", got, tc.want)
			}
		})
	}
}

// TestPairKeyRoundTrip verifies key encoding/decoding.
func TestPairKeyRoundTrip(t *testing.T) {
	tests := []struct{ a, b string }{
		{"fact_build", "ok"},
		{"", "ok"},
		{"join", ""},
		{"", ""},
	}
	for _, tc := range tests {
		a, b := splitPairKey(pairKey(tc.a, tc.b))
		if a != tc.a || b != tc.b {
			t.Fatalf("round trip (%q,%q) -> (%q,%q)", tc.a, tc.b, a, b)
		}
	}
}

func TestFlushBuildsRowAndStepSeries(t *testing.T) {
	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)

	b.IncCounter(metrics.RowsTotal, 10, metrics.Labels{"table": "cah_all_years", "kind": "read"})
	b.IncCounter(metrics.RowsTotal, 5, metrics.Labels{"table": "cah_all_years", "kind": "read"})
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "join", "status": "ok"})
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, metrics.Labels{"step": "join", "status": "ok"})
	b.IncCounter("unknown_metric", 1, nil)

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sub.count() != 1 {
		t.Fatalf("flush count=%d, want 1", sub.count())
	}

	payload, ok := sub.last()
	if !ok {
		t.Fatalf("no payload captured")
	}

	byMetric := map[string]datadogV2.MetricSeries{}
	for _, s := range payload.Series {
		byMetric[s.Metric] = s
	}

	rows, ok := byMetric["cahetl.rows.total"]
	if !ok {
		t.Fatalf("rows series missing, got %v", mapsKeys(byMetric))
	}
	if got := *rows.Points[0].Value; got != 15 {
		t.Fatalf("rows value=%v, want 15", got)
	}
	if !hasTag(rows.Tags, "table:cah_all_years") || !hasTag(rows.Tags, "kind:read") || !hasTag(rows.Tags, "job:test") {
		t.Fatalf("rows tags=%v", rows.Tags)
	}

	if _, ok := byMetric["cahetl.step.total"]; !ok {
		t.Fatalf("step series missing")
	}
	if _, ok := byMetric["cahetl.step.duration_seconds.p50"]; !ok {
		t.Fatalf("duration percentile series missing")
	}
	if _, ok := byMetric["unknown_metric"]; ok {
		t.Fatalf("unknown metric was not ignored")
	}
}

func TestFlushEmptyIsNoop(t *testing.T) {
	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if sub.count() != 0 {
		t.Fatalf("empty flush submitted %d payloads", sub.count())
	}
	_ = b.Close()
}

func TestPercentileNearestRank(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5}
	if got := percentileNearestRank(s, 0.5); got != 3 {
		t.Fatalf("p50=%v, want 3", got)
	}
	if got := percentileNearestRank(s, 1.0); got != 5 {
		t.Fatalf("p100=%v, want 5", got)
	}
	if got := percentileNearestRank(nil, 0.5); got != 0 {
		t.Fatalf("empty=%v, want 0", got)
	}
}

func TestParseTagsCSV(t *testing.T) {
	got := ParseTagsCSV(" env:prod , team:analytics ,,")
	if len(got) != 2 || got[0] != "env:prod" || got[1] != "team:analytics" {
		t.Fatalf("ParseTagsCSV=%v", got)
	}
	if got := ParseTagsCSV(""); got != nil {
		t.Fatalf("ParseTagsCSV(\"\")=%v, want nil", got)
	}
}

func hasTag(tags []string, want string) bool {
	for _, tg := range tags {
		if tg == want {
			return true
		}
	}
	return false
}

func mapsKeys(m map[string]datadogV2.MetricSeries) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
