package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of gateway requests by route and status",
		},
		[]string{"route", "status"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "gateway_request_duration_seconds",
			Help: "Duration of gateway request handling in seconds",
		},
		[]string{"route"},
	)

	AdapterFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapter_fetches_total",
			Help: "Total number of adapter fetch calls by adapter and outcome",
		},
		[]string{"adapter", "outcome"},
	)

	ReconcilerOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeseries_reconciler_outcomes_total",
			Help: "Total number of reconciled series by resolution mode",
		},
		[]string{"mode"},
	)

	RouteDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_route_decisions_total",
			Help: "Total number of chat messages by route decision",
		},
		[]string{"decision"},
	)
)
