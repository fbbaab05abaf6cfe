// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CompletionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reqmaster",
		Name:      "completion_requests_total",
		Help:      "Completion calls by provider and outcome.",
	}, []string{"provider", "outcome"})

	CompletionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reqmaster",
		Name:      "completion_duration_seconds",
		Help:      "Latency of completion calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 90},
	}, []string{"provider"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reqmaster",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reqmaster",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	ChatSummaries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reqmaster",
		Name:      "chat_summaries_total",
		Help:      "Automatic session summary attempts by outcome.",
	}, []string{"outcome"})

	Jobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reqmaster",
		Name:      "jobs_total",
		Help:      "Async AI jobs finished, by kind and status.",
	}, []string{"kind", "status"})
)
