package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "precinct",
		Subsystem: "treasury",
		Name:      "transactions_total",
		Help:      "Treasury transactions attempted, by pool, kind and result.",
	}, []string{"pool", "kind", "result"})

	ledgerDriftTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "precinct",
		Subsystem: "treasury",
		Name:      "ledger_drift_total",
		Help:      "Ledger verifications that found a pool out of balance.",
	})
)
