package metrics

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveHTTP(http.MethodPost, "/api/v1/orders", http.StatusCreated, 250*time.Millisecond)
	m.IncGeocode("hit")
	m.IncGeocode("hit")
	m.IncCommitFailure("INSUFFICIENT_STOCK")
	m.IncOrderTransition("confirmed")
	m.ObserveCronJob("outbox-retention", "success", 20*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "http_requests_total", "route", "/api/v1/orders"); err != nil {
		t.Fatalf("fetch requests: %v", err)
	} else if got != 1 {
		t.Fatalf("expected requests=1, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "status", "201"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "geocode_requests_total", "result", "hit"); err != nil {
		t.Fatalf("fetch geocode: %v", err)
	} else if got != 2 {
		t.Fatalf("expected hits=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "inventory_commit_failures_total", "reason", "INSUFFICIENT_STOCK"); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "order_status_transitions_total", "to", "confirmed"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected transitions=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "cron_job_runs_total", "job", "outbox-retention"); err != nil {
		t.Fatalf("fetch cron runs: %v", err)
	} else if got != 1 {
		t.Fatalf("expected cron runs=1, got %f", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.IncOrdersPlaced()
	m.IncCASRetry()
	m.IncOutboxPublished("ok")
	m.IncNotification("order_confirmed", "ok")
	m.ObserveCronJob("job", "failure", time.Second)

	unregistered := New(nil)
	unregistered.IncGeocode("miss")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
