package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	moduleTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "precinct",
		Subsystem: "academy",
		Name:      "module_toggles_total",
		Help:      "Module completion toggles, by resulting state.",
	}, []string{"completed"})

	uprankRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "precinct",
		Subsystem: "academy",
		Name:      "uprank_requests_total",
		Help:      "Uprank request lifecycle events, by outcome.",
	}, []string{"outcome"})
)
