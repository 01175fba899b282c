// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DisbursementsCreated counts ledger creates by target type.
	DisbursementsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disburse_disbursements_created_total",
		Help: "Disbursements created, by target type.",
	}, []string{"target_type"})

	// GatewayCalls counts wallet-gateway calls by method and outcome.
	GatewayCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disburse_gateway_calls_total",
		Help: "Wallet gateway calls, by method and outcome.",
	}, []string{"method", "outcome"})

	// GatewayLatency tracks wallet-gateway call duration.
	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "disburse_gateway_call_seconds",
		Help:    "Wallet gateway call latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// ObserveGateway records one gateway call.
func ObserveGateway(method string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	GatewayCalls.WithLabelValues(method, outcome).Inc()
	GatewayLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
