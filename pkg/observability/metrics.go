// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the warroom front end and its upstream calls.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LLMBuckets defines histogram buckets suited for generative model
// latencies, ranging from 100ms to 300s (the largest per-attempt timeout).
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}

// Upstream attempt outcomes.
const (
	OutcomeSuccess         = "success"
	OutcomeTransportError  = "transport_error"
	OutcomeRetryableStatus = "retryable_status"
	OutcomeTerminalStatus  = "terminal_status"
)

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warroom_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warroom_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "route"},
	)

	// ConsultationsInFlight tracks consultations currently waiting on the upstream.
	ConsultationsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "warroom_consultations_in_flight",
			Help: "Consultations in flight",
		},
	)

	// ConsultationsTotal counts finished consultations by result
	// (ok, parse_failed, upstream_failed).
	ConsultationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warroom_consultations_total",
			Help: "Consultations",
		},
		[]string{"result"},
	)

	// UpstreamAttemptsTotal counts individual upstream HTTP attempts by outcome.
	UpstreamAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warroom_upstream_attempts_total",
			Help: "Upstream attempts",
		},
		[]string{"outcome"},
	)

	// UpstreamRetriesTotal counts backoff sleeps by the reason of the failed attempt.
	UpstreamRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warroom_upstream_retries_total",
			Help: "Upstream retries",
		},
		[]string{"reason"},
	)

	// UpstreamLatency records per-attempt upstream latency in seconds.
	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warroom_upstream_latency_seconds",
			Help:    "Upstream attempt latency",
			Buckets: LLMBuckets,
		},
		[]string{"outcome"},
	)

	// ExtractionTotal counts extraction results by the cleanup stage that
	// succeeded, or "failed"/"invalid" when none did.
	ExtractionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warroom_extraction_total",
			Help: "Turn extraction results",
		},
		[]string{"stage"},
	)

	// RateLimitRejectedTotal counts requests rejected by the front end rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warroom_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ConsultationsInFlight,
		ConsultationsTotal,
		UpstreamAttemptsTotal,
		UpstreamRetriesTotal,
		UpstreamLatency,
		ExtractionTotal,
		RateLimitRejectedTotal,
	)
}

// Handler returns the Prometheus scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
