package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes recorded by RecordLogin.
const (
	LoginOutcomeSuccess            = "success"
	LoginOutcomeInvalidCredentials = "invalid_credentials"
	LoginOutcomeIdentityFailed     = "identity_failed"
	LoginOutcomeError              = "error"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	logins          *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	rejections      prometheus.Counter
	guardDecisions  *prometheus.CounterVec
	activeContexts  prometheus.Gauge

	requestCount         uint64
	requestDurationTotal uint64
	loginCount           uint64
	loginFailureCount    uint64
	rejectionCount       uint64
}

// MetricsSnapshot aggregates counters for the console's status endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Logins                   uint64    `json:"logins"`
	LoginFailures            uint64    `json:"login_failures"`
	AuthenticationRejections uint64    `json:"authentication_rejections"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_logins_total",
		Help: "Sign-in attempts by outcome",
	}, []string{"outcome"})

	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_token_refreshes_total",
		Help: "Access token refreshes by outcome",
	}, []string{"outcome"})

	rejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "console_authentication_rejections_total",
		Help: "Upstream responses that rejected the session's credentials",
	})

	guardDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_guard_decisions_total",
		Help: "Route guard outcomes",
	}, []string{"guard", "decision"})

	activeContexts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "console_browsing_contexts",
		Help: "Browsing contexts currently holding a session manager",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, logins, refreshes, rejections, guardDecisions, activeContexts, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		logins:          logins,
		refreshes:       refreshes,
		rejections:      rejections,
		guardDecisions:  guardDecisions,
		activeContexts:  activeContexts,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordLogin counts a sign-in attempt.
func (m *MetricsService) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
	atomic.AddUint64(&m.loginCount, 1)
	if outcome != LoginOutcomeSuccess {
		atomic.AddUint64(&m.loginFailureCount, 1)
	}
}

// RecordRefresh counts a token refresh.
func (m *MetricsService) RecordRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

// RecordRejection counts an authentication-rejected upstream response.
func (m *MetricsService) RecordRejection() {
	if m == nil {
		return
	}
	m.rejections.Inc()
	atomic.AddUint64(&m.rejectionCount, 1)
}

// RecordGuardDecision counts a guard outcome.
func (m *MetricsService) RecordGuardDecision(guard, decision string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(guard, decision).Inc()
}

// SetActiveContexts reports how many browsing contexts are tracked.
func (m *MetricsService) SetActiveContexts(n int) {
	if m == nil {
		return
	}
	m.activeContexts.Set(float64(n))
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		Logins:                   atomic.LoadUint64(&m.loginCount),
		LoginFailures:            atomic.LoadUint64(&m.loginFailureCount),
		AuthenticationRejections: atomic.LoadUint64(&m.rejectionCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
