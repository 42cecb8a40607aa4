// Package metrics provides Prometheus metrics for the HTTP server and the
// scoring pipeline.
//
// HTTP:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Pipeline:
//   - pipeline_runs_total: Counter with status label
//   - pipeline_run_duration_seconds: Histogram of complete runs
//   - pipeline_periods: Gauge of periods kept after deduplication
//   - pipeline_extract_files_total: Counter with outcome label (parsed, empty, missing)
//   - hwi_scores_by_alert_level: Gauge with level label
//   - storage_rows_upserted_total: Counter with table label
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"status"},
	)

	PipelineRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Duration of complete pipeline runs",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	PipelinePeriods = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_periods",
			Help: "Pharmacy periods kept by the last run",
		},
	)

	PipelineExtractFiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_extract_files_total",
			Help: "Extract files seen by outcome",
		},
		[]string{"outcome"},
	)

	HWIScoresByAlertLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hwi_scores_by_alert_level",
			Help: "Scored periods per alert level in the last run",
		},
		[]string{"level"},
	)

	StorageRowsUpserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_rows_upserted_total",
			Help: "Rows upserted per table",
		},
		[]string{"table"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(PipelineRunDuration)
	prometheus.MustRegister(PipelinePeriods)
	prometheus.MustRegister(PipelineExtractFiles)
	prometheus.MustRegister(HWIScoresByAlertLevel)
	prometheus.MustRegister(StorageRowsUpserted)
}
