package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_outcomes_total",
			Help: "Book and cancel results by outcome",
		},
		[]string{"op", "outcome"},
	)

	TxRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_tx_retries_total",
			Help: "Ledger transactions retried after a transient fault",
		},
		[]string{"op"},
	)

	DBTxDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_outbox_lag_seconds",
			Help: "Age of the oldest event published in the last outbox batch",
		},
	)

	OutboxPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_outbox_published_total",
			Help: "Total outbox events published to the broker",
		},
	)

	RateLimitExceeded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)

func InitMetrics(reg prometheus.Registerer) {
	reg.MustRegister(RequestsTotal, BookingOutcomes, TxRetries, DBTxDuration, OutboxLag, OutboxPublished, RateLimitExceeded)
}
