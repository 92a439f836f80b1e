package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	EntriesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entries_created_total",
			Help: "Total number of stake entries created",
		},
		[]string{"entry_type"},
	)

	DeductionBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deduction_batches_total",
			Help: "Total number of deduction batches applied",
		},
		[]string{"outcome"}, // ok, partial, failed
	)

	DeductionsAppliedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deductions_applied_total",
			Help: "Total number of individual deduction records written",
		},
	)

	DeductionShortfallsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deduction_shortfalls_total",
			Help: "Total number of targets that could not be fully collected",
		},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)
)
