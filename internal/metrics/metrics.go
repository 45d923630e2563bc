// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debtors_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "debtors_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	IngestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debtors_ingestions_total",
			Help: "Ingestion passes by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	IngestedRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "debtors_ingested_records",
			Help: "Records in the most recently loaded dataset by file role.",
		},
		[]string{"role"},
	)

	AssistantRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debtors_assistant_requests_total",
			Help: "Text generation requests by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)
