// Package metrics holds the Prometheus instruments shared by the HTTP
// layer, the query engine, and the ingest consumer. Everything registers
// on the default registry and is served from /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts served API requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podserver_http_requests_total",
			Help: "Total number of HTTP requests served, by route and status code.",
		},
		[]string{"route", "status"},
	)

	// HTTPDuration observes request latency by route.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "podserver_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// StoreQueryDuration observes backend query latency by operation.
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "podserver_store_query_duration_seconds",
			Help:    "Store query latency in seconds, by operation.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// IngestRecords counts telemetry records written by kind.
	IngestRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podserver_ingest_records_total",
			Help: "Total number of telemetry records ingested, by kind.",
		},
		[]string{"kind"},
	)

	// IngestErrors counts ingest failures by stage (decode, write).
	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podserver_ingest_errors_total",
			Help: "Total number of ingest failures, by stage.",
		},
		[]string{"stage"},
	)
)

// ObserveQuery records one store query duration.
func ObserveQuery(op string, start time.Time) {
	StoreQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
