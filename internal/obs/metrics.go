// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

// Package obs registers the service's prometheus metrics.
package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueriesTotal counts device queries by backend and outcome.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_queries_total",
		Help: "Total number of device queries issued.",
	}, []string{"backend", "status"})

	// QueryDuration observes device query latency.
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "device_query_duration_seconds",
		Help:    "Device query latencies in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	// StaleResponsesDiscarded counts responses dropped because the filter
	// state moved on while the fetch was in flight.
	StaleResponsesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stale_responses_discarded_total",
		Help: "Responses discarded for no longer matching the canonical parameters.",
	})

	// ScopeCorrections counts filter selections silently narrowed by the
	// scope reconciler.
	ScopeCorrections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scope_corrections_total",
		Help: "Filter states corrected to fit the user's access scope.",
	})
)

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
