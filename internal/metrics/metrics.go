// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gateway metrics, served on the query API's /metrics endpoint.
var (
	RefreshCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siemgw_refresh_cycles_total",
			Help: "Completed refresh cycles by outcome",
		},
		[]string{"outcome"}, // ok, load_failed, not_found
	)

	RefreshTriggersCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "siemgw_refresh_triggers_coalesced_total",
			Help: "Refresh triggers dropped because a cycle was already in flight",
		},
	)

	LoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "siemgw_load_duration_seconds",
			Help:    "Alert log load and parse duration",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	EventsIngested = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "siemgw_events_ingested",
			Help: "Events in the currently published snapshot",
		},
	)

	FilterQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siemgw_filter_queries_total",
			Help: "Consumer filter/aggregate queries by outcome",
		},
		[]string{"outcome"}, // ok, invalid_spec, no_data
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "siemgw_websocket_clients",
			Help: "Connected dashboard websocket clients",
		},
	)
)
