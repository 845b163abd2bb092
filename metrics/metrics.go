// Package metrics registers the prometheus collectors for query executions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionsTotal counts completed executions by collection and status (success, error, stale).
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livequery_executions_total",
			Help: "Total number of completed query executions",
		},
		[]string{"collection", "status"},
	)
	// ExecutionDuration is the latency of load calls.
	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "livequery_execution_duration_seconds",
			Help:    "Query load latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection"},
	)
	// TriggersTotal counts triggers by collection and classification (initial, options_change, pagination, refresh, reload, skipped).
	TriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livequery_triggers_total",
			Help: "Total number of query triggers by classification",
		},
		[]string{"collection", "kind"},
	)
	// RequestTotal counts HTTP requests served by the document server.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livequery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// RequestDuration is the latency of HTTP requests served by the document server.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "livequery_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
