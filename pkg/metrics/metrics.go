package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors exported by the api and the background binaries.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	ordersPlaced      prometheus.Counter
	orderTransitions  *prometheus.CounterVec
	casRetries        prometheus.Counter
	commitFailures    *prometheus.CounterVec
	geocodeRequests   *prometheus.CounterVec
	outboxPublished   *prometheus.CounterVec
	notificationsSent *prometheus.CounterVec
	cronJobs          *prometheus.CounterVec
	cronDuration      *prometheus.HistogramVec
}

// New registers the collectors on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders committed.",
		}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status transitions applied.",
		}, []string{"to"}),
		casRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventory_cas_retries_total",
			Help: "Inventory commits retried after a version conflict.",
		}),
		commitFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_commit_failures_total",
			Help: "Inventory commits that failed.",
		}, []string{"reason"}),
		geocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Geocode lookups by cache result.",
		}, []string{"result"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_published_total",
			Help: "Outbox rows handed to the broker.",
		}, []string{"result"}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_handled_total",
			Help: "Notification events processed by the worker.",
		}, []string{"event_type", "result"}),
		cronJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cron_job_runs_total",
			Help: "Maintenance job runs by outcome.",
		}, []string{"job", "result"}),
		cronDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cron_job_duration_seconds",
			Help:    "Maintenance job run time in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.ordersPlaced,
		m.orderTransitions,
		m.casRetries,
		m.commitFailures,
		m.geocodeRequests,
		m.outboxPublished,
		m.notificationsSent,
		m.cronJobs,
		m.cronDuration,
	)
	return m
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	code := strconv.Itoa(status)
	route = normalizeLabel(route)
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
}

func (m *Metrics) IncOrdersPlaced() {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
}

func (m *Metrics) IncOrderTransition(to string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(to)).Inc()
}

func (m *Metrics) IncCASRetry() {
	if m == nil || m.casRetries == nil {
		return
	}
	m.casRetries.Inc()
}

// IncCommitFailure counts a failed ledger commit; reason is an error code.
func (m *Metrics) IncCommitFailure(reason string) {
	if m == nil || m.commitFailures == nil {
		return
	}
	m.commitFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncGeocode counts a lookup; result is hit, miss or error.
func (m *Metrics) IncGeocode(result string) {
	if m == nil || m.geocodeRequests == nil {
		return
	}
	m.geocodeRequests.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) IncOutboxPublished(result string) {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) IncNotification(eventType, result string) {
	if m == nil || m.notificationsSent == nil {
		return
	}
	m.notificationsSent.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

// ObserveCronJob records one maintenance job run; result is success or failure.
func (m *Metrics) ObserveCronJob(job, result string, duration time.Duration) {
	if m == nil || m.cronJobs == nil {
		return
	}
	m.cronJobs.WithLabelValues(normalizeLabel(job), normalizeLabel(result)).Inc()
	m.cronDuration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
