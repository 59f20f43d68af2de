package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransferRequests tracks relay transfer requests by terminal outcome
	TransferRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_transfer_requests_total",
			Help: "Total number of transfer requests by outcome",
		},
		[]string{"outcome"},
	)

	// BroadcastLatency tracks time from broadcast to receipt
	BroadcastLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_broadcast_confirmation_seconds",
			Help:    "Time from broadcast to receipt in seconds",
			Buckets: []float64{1, 2, 5, 10, 15, 30, 60, 90, 120},
		},
	)

	// OracleDegradedReads tracks oracle reads that fell back to a safe default
	OracleDegradedReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_oracle_degraded_reads_total",
			Help: "Total number of oracle reads that degraded to a default value",
		},
		[]string{"read"},
	)

	// OracleCacheHits tracks redis cache hits on oracle reads
	OracleCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_oracle_cache_hits_total",
			Help: "Total number of oracle reads served from cache",
		},
		[]string{"read"},
	)

	// LedgerWriteFailures tracks best-effort ledger writes that failed
	LedgerWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_ledger_write_failures_total",
			Help: "Total number of failed ledger writes",
		},
	)

	// NonceResyncs tracks signer nonce resynchronizations after broadcast errors
	NonceResyncs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_signer_nonce_resyncs_total",
			Help: "Total number of signer nonce resyncs from the node",
		},
	)
)
