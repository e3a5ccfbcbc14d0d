package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/handcar/handcar-backend/pkg/metrics"
)

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/v1/vendors/{vendorID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/vendors/"+string(rune('a'+i)), nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		if len(mf.GetMetric()) != 1 {
			t.Fatalf("expected a single labelled series, got %d", len(mf.GetMetric()))
		}
		sample := mf.GetMetric()[0]
		if sample.GetCounter().GetValue() != 2 {
			t.Fatalf("expected 2 requests, got %v", sample.GetCounter().GetValue())
		}
		for _, label := range sample.GetLabel() {
			if label.GetName() == "route" && label.GetValue() != "/api/v1/vendors/{vendorID}" {
				t.Fatalf("unexpected route label %q", label.GetValue())
			}
		}
		return
	}
	t.Fatal("http_requests_total not exported")
}
