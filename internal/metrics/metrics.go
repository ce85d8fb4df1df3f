package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summatube_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summatube_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summatube_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
	)

	// Pipeline Metrics
	PipelineResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summatube_pipeline_results_total",
			Help: "Summary pipeline outcomes by result code",
		},
		[]string{"result"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summatube_pipeline_duration_seconds",
			Help:    "End-to-end summary pipeline duration",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2 minutes
		},
	)

	SummaryCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summatube_summary_cache_lookups_total",
			Help: "Summary cache lookups by result",
		},
		[]string{"result"},
	)

	// Model Metrics
	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summatube_model_call_duration_seconds",
			Help:    "Latency of text generation calls",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"backend"},
	)

	ModelCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summatube_model_call_errors_total",
			Help: "Failed text generation calls by error code",
		},
		[]string{"backend", "code"},
	)

	// Credit Metrics
	CreditsChargedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summatube_credits_charged_total",
			Help: "Credits deducted for successful summaries",
		},
	)

	CreditChargeConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summatube_credit_charge_conflicts_total",
			Help: "Conditional credit updates that lost a race and were retried",
		},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordPipelineResult records the outcome of one summary pipeline run.
func RecordPipelineResult(result string, seconds float64) {
	PipelineResultsTotal.WithLabelValues(result).Inc()
	PipelineDuration.Observe(seconds)
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
