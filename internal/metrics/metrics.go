package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	dnsRequests     *prometheus.CounterVec // dns provider requests
	dnsDuration     *prometheus.HistogramVec
	recordMutations *prometheus.CounterVec // per-record results of bulk operations
	duplications    *prometheus.CounterVec // domain duplications
	accountPins     *prometheus.CounterVec // account pins by mode
	httpRequests    *prometheus.CounterVec // console requests
	sessionRequests *prometheus.CounterVec // badgerdb requests
}

func (m *Metrics) IncDNSRequest(operation string, success bool) {
	if !isValidOperation(operation) {
		return
	}
	status := boolToResult(success)
	m.dnsRequests.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) ObserveDNSRequest(operation string, duration time.Duration) {
	if !isValidOperation(operation) {
		return
	}
	m.dnsDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) IncRecordMutation(operation string, success bool) {
	if !isValidOperation(operation) {
		return
	}
	status := boolToResult(success)
	m.recordMutations.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) IncDuplication(success bool) {
	status := boolToResult(success)
	m.duplications.WithLabelValues(status).Inc()
}

func (m *Metrics) IncAccountPin(mode string) {
	switch mode {
	case "native", "splice", "ambient":
		m.accountPins.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) IncHTTPRequest(route string, code int) {
	scode := strconv.Itoa(code)
	m.httpRequests.WithLabelValues(route, scode).Inc()
}

func (m *Metrics) IncSessionRequest(operation string, success bool) {
	if !isValidOperation(operation) {
		return
	}
	status := boolToResult(success)
	m.sessionRequests.WithLabelValues(operation, status).Inc()
}

// Validation helpers
func boolToResult(b bool) string {
	if b {
		return "success"
	}
	return "failure"
}

func isValidOperation(op string) bool {
	switch op {
	case "create", "read", "update", "delete", "poll":
		return true
	}
	return false
}

func New(register bool) *Metrics {
	registry := prometheus.NewRegistry()
	namespace := "clouddns_console"

	m := &Metrics{
		registry: registry,

		dnsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_requests_total",
			Help:      "Total DNS provider requests",
		}, []string{"operation", "status"}),

		dnsDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dns_request_duration_seconds",
			Help:      "Duration of DNS provider requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		recordMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_mutations_total",
			Help:      "Per-record results of bulk record mutations",
		}, []string{"operation", "status"}),

		duplications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_duplications_total",
			Help:      "Total domain duplications",
		}, []string{"status"}),

		accountPins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_pins_total",
			Help:      "Account pins by mode, anything but native is degraded",
		}, []string{"mode"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total console http requests",
		}, []string{"route", "code"}),

		sessionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_requests_total",
			Help:      "Total session store requests",
		}, []string{"operation", "status"}),
	}

	if register {
		registry.MustRegister(
			m.dnsRequests,
			m.dnsDuration,
			m.recordMutations,
			m.duplications,
			m.accountPins,
			m.httpRequests,
			m.sessionRequests,
		)
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
