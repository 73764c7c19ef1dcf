// Package metrics declares the prometheus instruments BookCore and
// its supporting components update. Promoted from an indirect
// dependency of the teacher's module graph to a direct one: the
// teacher pulls in prometheus/client_golang transitively through
// grpc's health checks but never registers its own metrics, which
// this package now does.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matcher_orders_placed_total",
		Help: "Orders accepted by Place, labeled by pair.",
	}, []string{"pair"})

	OrdersCanceled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matcher_orders_canceled_total",
		Help: "Orders removed from the book, labeled by pair and reason.",
	}, []string{"pair", "reason"})

	TradesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matcher_trades_total",
		Help: "Executions produced by the matcher, labeled by pair.",
	}, []string{"pair"})

	MatchLoopIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matcher_match_loop_iterations",
		Help:    "Number of matcher steps (Execute, expired-counter skip, or final Add) taken per Place call.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	JournalAppendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matcher_journal_append_duration_seconds",
		Help:    "Time to append one event to the journal.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pair"})

	SnapshotDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matcher_snapshot_duration_seconds",
		Help:    "Time to write one book snapshot.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pair"})

	InvalidTx = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matcher_invalid_tx_total",
		Help: "InvalidTxPolicy outcomes, labeled by pair and error kind.",
	}, []string{"pair", "kind"})
)
