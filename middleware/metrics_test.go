package middleware_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/vidqueue/job"
	mw "github.com/xraph/vidqueue/middleware"
)

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func attrsOf(set attribute.Set) map[string]string {
	out := make(map[string]string)
	for _, a := range set.ToSlice() {
		out[string(a.Key)] = a.Value.AsString()
	}
	return out
}

func TestMetrics_RecordsDuration(t *testing.T) {
	reader, mp := setupTestMeter()
	m := mw.MetricsWithMeter(mp.Meter("test"))

	_ = m(context.Background(), newTestJob(), func(_ context.Context) job.Outcome {
		return job.Status(200)
	})

	metric := findMetric(collectMetrics(t, reader), "vidqueue.job.duration")
	if metric == nil {
		t.Fatal("vidqueue.job.duration metric not found")
	}
	hist, ok := metric.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) == 0 || hist.DataPoints[0].Count != 1 {
		t.Fatalf("expected one recorded duration, got %+v", hist.DataPoints)
	}
}

func TestMetrics_CallAttributes(t *testing.T) {
	tests := []struct {
		name       string
		outcome    job.Outcome
		wantStatus string
		wantCode   string
	}{
		{"success", job.Status(201), "ok", "201"},
		{"rate limited", job.Status(429), "error", "429"},
		{"unreachable", job.Outcome{Status: job.StatusUnreachable}, "error", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, mp := setupTestMeter()
			m := mw.MetricsWithMeter(mp.Meter("test"))

			_ = m(context.Background(), newTestJob(), func(_ context.Context) job.Outcome {
				return tt.outcome
			})

			metric := findMetric(collectMetrics(t, reader), "vidqueue.job.calls")
			if metric == nil {
				t.Fatal("vidqueue.job.calls metric not found")
			}
			sum, ok := metric.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatal("expected Sum[int64] data type")
			}
			if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
				t.Fatalf("expected a single count of 1, got %+v", sum.DataPoints)
			}

			attrs := attrsOf(sum.DataPoints[0].Attributes)
			want := map[string]string{
				"action":      "enable-captions",
				"status":      tt.wantStatus,
				"status_code": tt.wantCode,
			}
			for k, v := range want {
				if attrs[k] != v {
					t.Errorf("attribute %q = %q, want %q", k, attrs[k], v)
				}
			}
		})
	}
}

func TestMetrics_DefaultNoopSafe(t *testing.T) {
	m := mw.Metrics()
	called := false
	m(context.Background(), newTestJob(), func(_ context.Context) job.Outcome {
		called = true
		return job.Status(200)
	})
	if !called {
		t.Error("handler was not called")
	}
}
