package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "precinct",
	Subsystem: "incentive",
	Name:      "payments_total",
	Help:      "Incentive triggers handled, by event type and result (paid, duplicate, skipped).",
}, []string{"event_type", "result"})
