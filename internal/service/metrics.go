package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconciliation outcomes.
const (
	outcomePaid      = "paid"
	outcomeDuplicate = "duplicate"
	outcomeNotFound  = "not_found"
	outcomeMalformed = "malformed"
	outcomeError     = "error"
)

var (
	reconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dev3_payment_reconcile_total",
		Help: "Indexer transfer notifications by reconciliation outcome",
	}, []string{"outcome"})

	reconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dev3_payment_reconcile_duration_seconds",
		Help:    "Time spent reconciling one transfer notification",
		Buckets: prometheus.DefBuckets,
	})

	amountMismatchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dev3_payment_amount_mismatch_total",
		Help: "Transfers whose amount differs from the payment amount",
	})
)
